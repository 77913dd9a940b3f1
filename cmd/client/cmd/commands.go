// cmd/client/cmd/commands.go
package cmd

import (
	"geoclic/cmd/client/cmd/auth"
	"geoclic/cmd/client/cmd/photo"
	"geoclic/cmd/client/cmd/point"
	"geoclic/cmd/client/cmd/refdata"
	"geoclic/cmd/client/cmd/sync"
)

func init() {
	// Команды учетной записи
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	// Команды работы с точками
	rootCmd.AddCommand(point.PointCmd)
	point.PointCmd.AddCommand(point.CreateCmd)
	point.PointCmd.AddCommand(point.ListCmd)
	point.PointCmd.AddCommand(point.UpdateCmd)
	point.PointCmd.AddCommand(point.DeleteCmd)
	point.PointCmd.AddCommand(point.CheckCmd)

	// Фотографии
	rootCmd.AddCommand(photo.PhotoCmd)
	photo.PhotoCmd.AddCommand(photo.AttachCmd)
	photo.PhotoCmd.AddCommand(photo.DrainCmd)

	// Справочники
	rootCmd.AddCommand(refdata.RefDataCmd)
	refdata.RefDataCmd.AddCommand(refdata.RefreshCmd)
	refdata.RefDataCmd.AddCommand(refdata.ProjectsCmd)
	refdata.RefDataCmd.AddCommand(refdata.SelectCmd)
	refdata.RefDataCmd.AddCommand(refdata.TreeCmd)

	rootCmd.AddCommand(sync.SyncCmd)
}
