// cmd/client/cmd/point/list.go
package point

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
	pointdomain "geoclic/internal/domain/point"
)

var listFormat string

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список точек",
	Long: `Просмотр точек активного проекта. Онлайн список обновляется
с сервера, офлайн показывается локальный кэш с отметками очереди.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		points, err := app.Points().LoadPoints(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения точек: %w", err)
		}

		switch listFormat {
		case "json":
			return printPointsJSON(points)
		default:
			return printPointsTable(app, points)
		}
	},
}

func printPointsJSON(points []pointdomain.Point) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}

func printPointsTable(app *client.App, points []pointdomain.Point) error {
	if len(points) == 0 {
		fmt.Println("Точки не найдены")
		return nil
	}

	fmt.Printf("Найдено точек: %d\n\n", len(points))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ИМЯ\tКАТЕГОРИЯ\tКООРДИНАТЫ\tСТАТУС")
	for _, p := range points {
		status := "✓ синхронизирована"
		if p.PendingSync {
			status = "⏳ в очереди"
		}

		coords := "-"
		if len(p.Coordinates) > 0 {
			coords = fmt.Sprintf("%.5f, %.5f", p.Coordinates[0].Latitude, p.Coordinates[0].Longitude)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, app.Points().LexiquePath(p.LexiqueCode), coords, status)
	}
	return w.Flush()
}

func init() {
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "формат вывода: table, json")
}
