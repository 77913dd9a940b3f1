package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
)

var (
	syncStatus  bool
	drainPhotos bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизация с сервером",
	Long: `Один круговой обмен с сервером: очередь локальных точек уходит
на сервер, серверные изменения с момента последней синхронизации
скачиваются в локальный кэш.

Неудачный обмен ничего не теряет: очередь и отметка времени остаются
нетронутыми до следующей попытки.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if syncStatus {
			return showSyncStatus(cmd.Context(), app)
		}

		return runSync(cmd.Context(), app)
	},
}

func runSync(ctx context.Context, app *client.App) error {
	fmt.Println("=== Синхронизация данных ===")

	if !app.IsAuthenticated() {
		return fmt.Errorf("требуется аутентификация. Выполните: geoclic auth login")
	}

	fmt.Println("Проверка соединения с сервером...")
	if err := app.CheckConnection(ctx); err != nil {
		return fmt.Errorf("сервер недоступен: %v", err)
	}

	fmt.Println("Начало синхронизации...")

	result, err := app.SyncService().Sync(ctx)
	if err != nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	fmt.Println()
	fmt.Println("✅ Синхронизация завершена!")
	fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Отправлено на сервер: %d точек\n", result.Uploaded)
	fmt.Printf("Получено с сервера: %d точек\n", result.Downloaded)

	if len(result.Errors) > 0 {
		fmt.Printf("Отклонено сервером: %d\n", len(result.Errors))
		for i, e := range result.Errors {
			if i < 3 { // Показываем только первые 3 ошибки
				fmt.Printf("  • %s: %s\n", e.LocalID, e.Message)
			}
		}
		if len(result.Errors) > 3 {
			fmt.Printf("  ... и еще %d ошибок\n", len(result.Errors)-3)
		}
		fmt.Println("Отклоненные точки остались в очереди")
	}

	if drainPhotos {
		fmt.Println("Загрузка отложенных фотографий...")
		uploaded, failed, err := app.Photos().DrainPending(ctx)
		if err != nil {
			return fmt.Errorf("ошибка загрузки фотографий: %w", err)
		}
		fmt.Printf("Фотографий загружено: %d, не удалось: %d\n", uploaded, failed)
	}

	return nil
}

func showSyncStatus(ctx context.Context, app *client.App) error {
	fmt.Println("=== Статус синхронизации ===")

	status, err := app.SyncService().Status()
	if err != nil {
		return fmt.Errorf("ошибка получения статуса: %w", err)
	}

	if app.Monitor().IsOnline() {
		fmt.Println("Связь: 🟢 онлайн")
		if remote, err := app.SyncService().RemoteStatus(ctx); err == nil {
			fmt.Printf("Сервер: %s, изменений к скачиванию: %d\n",
				remote.ServerVersion, remote.PendingDownloads)
		}
	} else {
		fmt.Println("Связь: 🔴 офлайн")
	}

	if status.LastSyncAt != nil {
		fmt.Printf("Последняя синхронизация: %s (%s)\n",
			status.LastSyncAt.Local().Format("2006-01-02 15:04:05"),
			client.FormatSyncAge(status.LastSyncAt))
	} else {
		fmt.Println("Последняя синхронизация: никогда")
	}
	fmt.Printf("Точек в очереди: %d\n", status.PendingUploads)
	fmt.Printf("Справочник: %d категорий, %d проектов\n", status.LexiqueCount, status.ProjectsCount)

	pending, err := app.SyncService().PendingAttempts()
	if err != nil {
		return err
	}
	for _, pp := range pending {
		if pp.Attempts == 0 {
			continue
		}
		fmt.Printf("  ⚠️  %s: %d неудачных попыток\n", pp.Name, pp.Attempts)
	}

	return nil
}

func init() {
	SyncCmd.Flags().BoolVarP(&syncStatus, "status", "s", false, "показать статус вместо запуска обмена")
	SyncCmd.Flags().BoolVar(&drainPhotos, "photos", true, "загрузить отложенные фотографии после обмена")
}
