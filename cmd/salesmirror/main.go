// Package main is the entry point for salesmirror.
package main

import (
	"fmt"
	"os"

	"github.com/altiplano-data/salesmirror/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
