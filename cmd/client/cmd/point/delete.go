// cmd/client/cmd/point/delete.go
package point

import (
	"fmt"

	"github.com/spf13/cobra"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
)

var DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Удалить точку",
	Long: `Удаление точки. Точка всегда исчезает из локального кэша;
серверная копия удаляется по возможности и без сети вернется со
следующей синхронизацией.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if err := app.Points().DeletePoint(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("ошибка удаления точки: %w", err)
		}

		fmt.Println("✅ Точка удалена")
		return nil
	},
}
