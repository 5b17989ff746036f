package main

import (
	"os"

	"github.com/GregMSThompson/insights-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
