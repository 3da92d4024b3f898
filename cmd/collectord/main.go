// Package main is the entry point for the collectord daemon.
package main

import (
	"os"

	"github.com/catalogwatch/collector/cmd/collectord/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
