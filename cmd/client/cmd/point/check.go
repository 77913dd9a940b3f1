// cmd/client/cmd/point/check.go
package point

import (
	"fmt"

	"github.com/spf13/cobra"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
)

var (
	checkLat    float64
	checkLng    float64
	checkRadius float64
)

var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Проверить дубликаты рядом с координатой",
	Long: `Поиск существующих точек в радиусе вокруг координаты.
Онлайн проверка выполняется сервером, офлайн — по локальному кэшу.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
			return fmt.Errorf("координаты обязательны: --lat и --lng")
		}

		check, err := app.Points().CheckDuplicate(cmd.Context(), checkLat, checkLng, checkRadius)
		if err != nil {
			return fmt.Errorf("ошибка проверки дубликатов: %w", err)
		}

		if !check.HasDuplicate {
			fmt.Printf("✓ Дубликатов в радиусе %.0f м не найдено\n", check.SearchRadius)
			return nil
		}

		fmt.Printf("⚠️  Найдено точек: %d (радиус %.0f м)\n", len(check.NearbyPoints), check.SearchRadius)
		for _, np := range check.NearbyPoints {
			fmt.Printf("  • %s — %.1f м (%.5f, %.5f)\n", np.Name, np.Distance, np.Latitude, np.Longitude)
		}
		if check.MinDistance != nil {
			fmt.Printf("Ближайшая точка: %.1f м\n", *check.MinDistance)
		}
		return nil
	},
}

func init() {
	CheckCmd.Flags().Float64Var(&checkLat, "lat", 0, "широта")
	CheckCmd.Flags().Float64Var(&checkLng, "lng", 0, "долгота")
	CheckCmd.Flags().Float64VarP(&checkRadius, "radius", "r", 0, "радиус в метрах (0 — из конфигурации)")
}
