package point

import (
	"github.com/spf13/cobra"
)

// PointCmd - родительская команда операций с точками
var PointCmd = &cobra.Command{
	Use:   "point",
	Short: "Работа с точками инвентаризации",
	Long: `Создание, просмотр, изменение и удаление точек.

Без сети команды работают с локальным кэшем: созданные точки встают
в очередь и уходят на сервер при следующей синхронизации.`,
}
