// Package main is the entry point for the hookctl CLI tool.
package main

import (
	"os"

	"github.com/good-yellow-bee/statushook/cmd/hookctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
