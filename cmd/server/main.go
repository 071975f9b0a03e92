// Package main is the entry point for the encounter API server
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "encounter-api",
	Short: "Encounter difficulty and combat session API",
	Long:  `Encounter API serves a JSON interface for building D&D 5e encounters, classifying their difficulty, and running live combat sessions.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
