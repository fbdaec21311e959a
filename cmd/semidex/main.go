// Package main provides the entry point for the semidex CLI.
package main

import (
	"os"

	"github.com/semidex/semidex/cmd/semidex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
