package main

import (
	"os"

	"github.com/chrys/docquery/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
