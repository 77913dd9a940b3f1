package refdata

import (
	"fmt"

	"github.com/spf13/cobra"

	"geoclic/cmd/client/cmd/types"
	"geoclic/internal/app/client"
	"geoclic/internal/domain/lexique"
)

// RefDataCmd - родительская команда работы со справочниками
var RefDataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Справочники: лексикон, проекты, динамические поля",
	Long: `Локальные справочники позволяют работать без сети: дерево
категорий, список проектов и определения динамических полей хранятся
в локальной базе и обновляются офлайн-пакетом с сервера.`,
}

var refreshReplace bool

var RefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Обновить справочники с сервера",
	Long: `Скачивает офлайн-пакет и обновляет локальные справочники.
Обычное обновление добавляющее; флаг --replace очищает локальные
справочники перед загрузкой.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if err := app.CheckConnection(cmd.Context()); err != nil {
			return fmt.Errorf("сервер недоступен: %v", err)
		}

		if err := app.RefData().Refresh(cmd.Context(), refreshReplace); err != nil {
			return fmt.Errorf("ошибка обновления справочников: %w", err)
		}

		version, _ := app.RefData().LexiqueVersion()
		fmt.Printf("✅ Справочники обновлены (версия: %s)\n", version)
		return nil
	},
}

var ProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Список проектов из локального кэша",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		projects, err := app.RefData().Projects()
		if err != nil {
			return fmt.Errorf("ошибка получения проектов: %w", err)
		}
		if len(projects) == 0 {
			fmt.Println("Проекты не найдены. Выполните: geoclic refdata refresh")
			return nil
		}

		active := app.Points().SelectedProject()
		for _, pr := range projects {
			marker := " "
			if pr.ID == active {
				marker = "*"
			}
			fmt.Printf("%s %s — %s (%s)\n", marker, pr.ID, pr.Name, pr.CollectiviteName)
		}
		return nil
	},
}

var SelectCmd = &cobra.Command{
	Use:   "select <project-id>",
	Short: "Выбрать активный проект",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		if err := app.SelectProject(args[0]); err != nil {
			return fmt.Errorf("ошибка выбора проекта: %w", err)
		}

		fmt.Printf("✅ Активный проект: %s\n", args[0])
		return nil
	},
}

var TreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Дерево категорий лексикона",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)
		if app == nil {
			return fmt.Errorf("приложение не инициализировано")
		}

		nodes, err := app.Points().LexiqueTree()
		if err != nil {
			return fmt.Errorf("ошибка построения дерева: %w", err)
		}
		if len(nodes) == 0 {
			fmt.Println("Лексикон пуст. Выполните: geoclic refdata refresh")
			return nil
		}

		printTree(nodes, "")
		return nil
	},
}

func printTree(nodes []*lexique.Node, indent string) {
	for _, n := range nodes {
		fmt.Printf("%s%s [%s]\n", indent, n.Item.Label, n.Item.Code)
		printTree(n.Children, indent+"  ")
	}
}
