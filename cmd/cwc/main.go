// Package main is the entry point for the cwc CLI client.
package main

import (
	"github.com/catalogwatch/collector/cmd/cwc/cmd"
)

func main() {
	cmd.Execute()
}
