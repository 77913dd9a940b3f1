package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerURL       = "https://geoclic.fr"
	defaultLogLevel        = "info"
	defaultEnv             = "local"
	defaultConfigDir       = ".geoclic"
	defaultDuplicateRadius = 10.0
	defaultProbeInterval   = 30

	minDuplicateRadius = 1.0
	maxDuplicateRadius = 1000.0
)

type Config struct {
	Env             string  `mapstructure:"app_env"`
	ServerURL       string  `mapstructure:"server_url"`
	LogLevel        string  `mapstructure:"log_level"`
	ConfigDir       string  `mapstructure:"config_dir"`
	TokenPath       string  `mapstructure:"token_path"`
	DataPath        string  `mapstructure:"data_path"`
	DeviceID        string  `mapstructure:"device_id"`
	GPSPositionPath string  `mapstructure:"gps_position_path"`
	DuplicateRadius float64 `mapstructure:"duplicate_radius_meters"`
	ProbeInterval   int     `mapstructure:"probe_interval_seconds"`
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Пробуем найти .env в родительской директории
		envPath = "../.env"
	}

	// Загружаем .env файл если существует
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	viper.AutomaticEnv()

	// Устанавливаем значения по умолчанию
	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("GEOCLIC_SERVER_URL", defaultServerURL)
	viper.SetDefault("LOG_LEVEL", defaultLogLevel)
	viper.SetDefault("CONFIG_DIR", defaultConfigDir)
	viper.SetDefault("DUPLICATE_RADIUS_METERS", defaultDuplicateRadius)
	viper.SetDefault("PROBE_INTERVAL_SECONDS", defaultProbeInterval)

	// Получаем домашнюю директорию пользователя
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	// Создаем директории если их нет
	if err := os.MkdirAll(configDir, 0700); err != nil {
		fmt.Printf("Ошибка создания директории конфигурации: %v\n", err)
	}

	config := &Config{
		Env:             viper.GetString("APP_ENV"),
		ServerURL:       NormalizeServerURL(viper.GetString("GEOCLIC_SERVER_URL")),
		LogLevel:        viper.GetString("LOG_LEVEL"),
		ConfigDir:       configDir,
		TokenPath:       filepath.Join(configDir, "token"),
		DataPath:        filepath.Join(configDir, "geoclic.db"),
		DeviceID:        viper.GetString("GEOCLIC_DEVICE_ID"),
		GPSPositionPath: viper.GetString("GPS_POSITION_PATH"),
		DuplicateRadius: clampRadius(viper.GetFloat64("DUPLICATE_RADIUS_METERS")),
		ProbeInterval:   viper.GetInt("PROBE_INTERVAL_SECONDS"),
	}
	if config.GPSPositionPath == "" {
		config.GPSPositionPath = filepath.Join(configDir, "position.json")
	}

	// Валидация конфигурации
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}

	return config
}

// NormalizeServerURL приводит адрес сервера к каноничному виду:
// без завершающего слеша, со схемой https по умолчанию.
func NormalizeServerURL(raw string) string {
	u := strings.TrimSpace(raw)
	u = strings.TrimRight(u, "/")
	if u == "" {
		return u
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u
}

// APIBase — корень REST API на сервере
func (c *Config) APIBase() string {
	return c.ServerURL + "/api"
}

func clampRadius(r float64) float64 {
	if r < minDuplicateRadius {
		return minDuplicateRadius
	}
	if r > maxDuplicateRadius {
		return maxDuplicateRadius
	}
	return r
}

func (c *Config) validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url не может быть пустым")
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("probe_interval_seconds должен быть положительным")
	}
	return nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
