// cmd/client/cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/slog"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
	"geoclic/internal/app/client/config"
	"geoclic/internal/utils/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	cfg        *config.Config
	log        *slog.Logger
	app        *client.App
	debug      bool
	jsonOutput bool
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "geoclic",
	Short: "Geoclic - полевой клиент инвентаризации городских объектов",
	Long: `Geoclic — клиент для полевого сбора данных о городских объектах:
деревьях, светильниках, скамейках и прочем имуществе коммуны.

Клиент работает в режиме offline-first: точки и фотографии, созданные
без сети, сохраняются локально и уходят на сервер при восстановлении
связи.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
	if app != nil {
		app.Shutdown()
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	// Загружаем конфигурацию
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Переопределяем настройки из флагов командной строки
	if serverURL != "" {
		cfg.ServerURL = config.NormalizeServerURL(serverURL)
	}
	if debug {
		cfg.Env = "local"
	}

	// Настраиваем логгер
	log = logger.New(cfg.Env)

	// Создаем приложение
	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))

	// Разовая проверка связи перед командой; недоступный сервер не ошибка.
	// Фоновые циклы стартуют после проверки: автодренаж реагирует на
	// возврат сети по ходу команды, а не на стартовый переход.
	if app.IsAuthenticated() {
		if err := app.CheckConnection(cmd.Context()); err != nil {
			log.Debug("Сервер недоступен, работаем офлайн", "error", err)
		}
		app.Run(cmd.Context())
	}

	return nil
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Ищем конфиг в стандартных местах
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		configDir := filepath.Join(home, ".geoclic")
		viper.AddConfigPath(configDir)
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Конфиг не найден, используем значения по умолчанию
	}

	// Загружаем конфигурацию через стандартный метод
	return config.MustLoad(), nil
}

func init() {
	cobra.OnInitialize()

	// Глобальные флаги
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "URL сервера Geoclic")

	// Команды будут добавлены в init() соответствующих файлов
}
