package main

import (
	"geoclic/cmd/client/cmd"
)

func main() {
	cmd.Execute()
}
