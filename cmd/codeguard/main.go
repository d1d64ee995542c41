package main

import (
	"os"

	"github.com/codeguardhq/codeguard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
