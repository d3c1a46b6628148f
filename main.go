package main

import (
	"os"

	"github.com/kochimetro/inductd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
