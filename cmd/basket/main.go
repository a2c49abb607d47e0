package main

import (
	"os"

	"github.com/aristath/basket/cmd/basket/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
