// cmd/client/cmd/point/create.go
package point

import (
	"fmt"

	"github.com/spf13/cobra"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
	pointdomain "geoclic/internal/domain/point"
)

var (
	createName    string
	createComment string
	createCode    string
	createProject string
	createLat     float64
	createLng     float64
	createGeom    string
	createForce   bool
)

var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Создать точку",
	Long: `Создание точки по координатам. Перед созданием выполняется
проверка дубликатов в радиусе из конфигурации; найденные соседи
показываются, создание продолжается только с флагом --force.

Пустое имя заменяется автоматическим по категории: "Arb 01", "PoiV 02".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
			pos, err := app.CurrentPosition(cmd.Context())
			if err != nil {
				return fmt.Errorf("координаты не заданы (--lat/--lng), а приемник их не дает: %w", err)
			}
			createLat, createLng = pos.Latitude, pos.Longitude
			fmt.Printf("Позиция приемника: %.6f, %.6f (±%.0f м)\n", pos.Latitude, pos.Longitude, pos.Accuracy)
		}

		// Проверка дубликатов до создания
		check, err := app.Points().CheckDuplicate(cmd.Context(), createLat, createLng, 0)
		if err != nil {
			fmt.Printf("⚠️  Проверка дубликатов не удалась: %v\n", err)
		} else if check.HasDuplicate && !createForce {
			fmt.Printf("⚠️  Рядом найдено точек: %d (радиус %.0f м)\n", len(check.NearbyPoints), check.SearchRadius)
			for i, np := range check.NearbyPoints {
				if i >= 5 {
					fmt.Printf("  ... и еще %d\n", len(check.NearbyPoints)-5)
					break
				}
				fmt.Printf("  • %s — %.1f м\n", np.Name, np.Distance)
			}
			return fmt.Errorf("возможный дубликат; повторите с --force, чтобы создать точку")
		}

		req := pointdomain.CreateRequest{
			Name:        createName,
			Comment:     createComment,
			LexiqueCode: createCode,
			ProjectID:   createProject,
			GeomType:    pointdomain.GeomType(createGeom),
			Coordinates: []pointdomain.Coordinate{{Latitude: createLat, Longitude: createLng}},
		}

		created, err := app.Points().CreatePoint(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("ошибка создания точки: %w", err)
		}

		if created.PendingSync {
			fmt.Printf("✓ Точка '%s' сохранена локально и встанет в очередь синхронизации\n", created.Name)
		} else {
			fmt.Printf("✅ Точка '%s' создана на сервере (id: %s)\n", created.Name, created.ID)
		}
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVarP(&createName, "name", "n", "", "имя точки (пустое — автоматическое)")
	CreateCmd.Flags().StringVarP(&createComment, "comment", "c", "", "комментарий")
	CreateCmd.Flags().StringVar(&createCode, "code", "", "код категории лексикона")
	CreateCmd.Flags().StringVarP(&createProject, "project", "p", "", "проект (иначе активный)")
	CreateCmd.Flags().Float64Var(&createLat, "lat", 0, "широта")
	CreateCmd.Flags().Float64Var(&createLng, "lng", 0, "долгота")
	CreateCmd.Flags().StringVar(&createGeom, "geom", "POINT", "тип геометрии: POINT, LINESTRING, POLYGON")
	CreateCmd.Flags().BoolVar(&createForce, "force", false, "создать несмотря на найденные дубликаты")
}
