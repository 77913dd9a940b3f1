// cmd/client/cmd/point/update.go
package point

import (
	"fmt"

	"github.com/spf13/cobra"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
	pointdomain "geoclic/internal/domain/point"
)

var (
	updateName    string
	updateComment string
	updateCode    string
)

var UpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Изменить точку",
	Long: `Частичное изменение точки: меняются только переданные флаги.
Офлайн-правка встает в очередь синхронизации.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		var upd pointdomain.UpdateRequest
		if cmd.Flags().Changed("name") {
			upd.Name = &updateName
		}
		if cmd.Flags().Changed("comment") {
			upd.Comment = &updateComment
		}
		if cmd.Flags().Changed("code") {
			upd.LexiqueCode = &updateCode
		}

		updated, err := app.Points().UpdatePoint(cmd.Context(), args[0], upd)
		if err != nil {
			return fmt.Errorf("ошибка изменения точки: %w", err)
		}

		if updated.PendingSync {
			fmt.Printf("✓ Точка '%s' изменена локально, изменения в очереди\n", updated.Name)
		} else {
			fmt.Printf("✅ Точка '%s' обновлена на сервере\n", updated.Name)
		}
		return nil
	},
}

func init() {
	UpdateCmd.Flags().StringVarP(&updateName, "name", "n", "", "новое имя")
	UpdateCmd.Flags().StringVarP(&updateComment, "comment", "c", "", "новый комментарий")
	UpdateCmd.Flags().StringVar(&updateCode, "code", "", "новый код категории")
}
