package main

import (
	"os"

	"github.com/scanline-ai/shieldrev/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
