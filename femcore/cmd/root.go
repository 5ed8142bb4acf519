// Package cmd provides the command-line interface for femcore.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "femcore",
	Short: "femcore CLI tool can inspect the tag recordings produced by " +
		"model sessions.",
	Long: `femcore CLI tool can inspect the tag recordings produced by ` +
		`model sessions. Currently, it supports summarizing a recording ` +
		`(report) and serving it over HTTP (serve).`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	cobra.OnInitialize(loadEnvFile)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadEnvFile picks up FEMCORE_* defaults from a .env file when one exists.
// A missing file is not an error.
func loadEnvFile() {
	_ = godotenv.Load()
}

// sqliteFileArg resolves the recording file from the --sqlite flag or the
// FEMCORE_SQLITE environment variable.
func sqliteFileArg(cmd *cobra.Command) string {
	file, _ := cmd.Flags().GetString("sqlite")
	if file == "" {
		file = os.Getenv("FEMCORE_SQLITE")
	}

	return file
}
