package photo

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
)

// PhotoCmd - родительская команда операций с фотографиями
var PhotoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Фотографии точек",
	Long: `Привязка фотографий к точкам и загрузка офлайн-очереди.

Фотография, снятая без сети или не загрузившаяся, хранится локально
вместе с координатами съемки и уходит на сервер при дренаже очереди.`,
}

var (
	attachLat      float64
	attachLng      float64
	attachAccuracy float64
)

var AttachCmd = &cobra.Command{
	Use:   "attach <point-id> <file>",
	Short: "Привязать фотографию к точке",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("ошибка чтения файла: %w", err)
		}

		var pos *client.Position
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
			pos = &client.Position{
				Latitude:  attachLat,
				Longitude: attachLng,
				Accuracy:  attachAccuracy,
			}
		} else if p, err := app.CurrentPosition(cmd.Context()); err == nil {
			// Позиция съемки для фотографии необязательна
			pos = p
		}

		meta, queued, err := app.Photos().Attach(cmd.Context(), args[0], data, pos)
		if err != nil {
			return fmt.Errorf("ошибка привязки фотографии: %w", err)
		}

		if queued {
			fmt.Println("✓ Фотография сохранена локально и встала в очередь загрузки")
		} else {
			fmt.Printf("✅ Фотография загружена (id: %s)\n", meta.ID)
		}
		return nil
	},
}

var DrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Загрузить очередь фотографий",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		uploaded, failed, err := app.Photos().DrainPending(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка загрузки очереди: %w", err)
		}

		fmt.Printf("✅ Загружено: %d, не удалось: %d\n", uploaded, failed)
		if failed > 0 {
			fmt.Println("Неудачные фотографии остались в очереди")
		}
		return nil
	},
}

func init() {
	AttachCmd.Flags().Float64Var(&attachLat, "lat", 0, "широта съемки")
	AttachCmd.Flags().Float64Var(&attachLng, "lng", 0, "долгота съемки")
	AttachCmd.Flags().Float64Var(&attachAccuracy, "accuracy", 0, "точность GPS в метрах")
}
