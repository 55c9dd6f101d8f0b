package main

import (
	"os"

	"github.com/franckalain/nutritrack/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
