// Package main provides the entry point for the Course Compass CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "course_agent",
	Short: "Course Compass crowd-knowledge analyzer",
	Long:  "Course Compass aggregates discussion threads, a crowd-sourced review database and professor ratings into a structured per-course report, via CLI or REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
