// cmd/client/cmd/auth/logout.go
package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
)

var logoutForce bool

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из учетной записи",
	Long: `Выход стирает токен и ВСЕ локальные данные, включая точки и
фотографии, еще не отправленные на сервер. Выполните синхронизацию
перед выходом, чтобы ничего не потерять.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		points, photos, err := app.Points().PendingCounts()
		if err == nil && (points > 0 || photos > 0) && !logoutForce {
			fmt.Printf("⚠️  В очереди %d точек и %d фотографий, еще не отправленных на сервер.\n", points, photos)
			fmt.Println("Выполните 'geoclic sync' или повторите с флагом --force, чтобы потерять их.")
			return fmt.Errorf("выход отменен: есть несинхронизированные данные")
		}

		if err := app.Logout(); err != nil {
			return fmt.Errorf("ошибка выхода: %w", err)
		}

		fmt.Println("✅ Выход выполнен, локальные данные удалены")
		return nil
	},
}

func init() {
	LogoutCmd.Flags().BoolVar(&logoutForce, "force", false, "выйти, потеряв несинхронизированные данные")
}
