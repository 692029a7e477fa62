// Package main is the entry point for the forge CLI.
// Forge translates Forge Code (.fc1) scripts into Rust or Go and runs them.
package main

import (
	"os"

	"github.com/forge-platform/forgecode/internal/adapters/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
