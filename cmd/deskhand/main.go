// Package main is the entry point for the deskhand CLI.
package main

import (
	"os"

	"github.com/deskhand/deskhand/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
