// cmd/client/cmd/auth/login.go
package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
)

var loginUsername string

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти на сервер Geoclic",
	Long: `Аутентификация на сервере Geoclic.

После входа токен сохраняется локально, а справочники (лексикон,
проекты, динамические поля) скачиваются для офлайн-работы.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		fmt.Println("=== Вход в Geoclic ===")
		fmt.Println()

		username := loginUsername
		if username == "" {
			fmt.Print("Логин: ")
			_, _ = fmt.Scanln(&username)
		}

		fmt.Print("Пароль: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		fmt.Println()

		fmt.Println("Аутентификация...")
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		if _, err := app.Login(ctx, username, string(password)); err != nil {
			return fmt.Errorf("ошибка аутентификации: %w", err)
		}

		fmt.Println()
		fmt.Println("✅ Вход выполнен успешно!")

		// Скачиваем справочники для офлайн-работы
		fmt.Println("Загрузка справочников...")
		if err := app.RefData().Refresh(ctx, false); err != nil {
			fmt.Printf("⚠️  Предупреждение: справочники не загружены: %v\n", err)
			fmt.Println("Повторите позже: geoclic refdata refresh")
		} else {
			fmt.Println("✓ Справочники загружены")
		}

		return nil
	},
}

func init() {
	LoginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "логин (иначе будет запрошен)")
}
