// Package main provides the entry point for the content validation service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "contentvalidator",
	Short: "Web content validation service",
	Long:  "Content Validator discovers the pages of a site, scrapes them and checks the copy against uploaded brand guidelines, reporting issues with evidence and proposed fixes via REST API or CLI.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
