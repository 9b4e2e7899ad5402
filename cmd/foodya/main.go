package main

import (
	"os"

	"github.com/foodya/foodya-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
