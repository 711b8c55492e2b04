// Package main provides the pawnvault CLI application.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
