package main

import (
	"os"

	"palaver/cmd/palaver/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
