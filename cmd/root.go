package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"narratrack/internal/config"
)

var version = "dev"

var flagEnvFile string

var rootCmd = &cobra.Command{
	Use:   "narratrack",
	Short: "Narrative tracker across news and social sources",
	Long: "narratrack scrapes news feeds, Reddit and Twitter, runs sentiment and\n" +
		"entity analysis over everything it collects, and surfaces narratives:\n" +
		"topics whose volume or sentiment is shifting across sources.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "path to a .env file to load before reading configuration")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("narratrack %s\n", version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the optional .env file and then the environment
// configuration.
func loadConfig() (config.Config, error) {
	if flagEnvFile != "" {
		if err := godotenv.Load(flagEnvFile); err != nil {
			return config.Config{}, fmt.Errorf("loading env file: %w", err)
		}
	} else {
		// Best effort; a missing default .env is fine.
		_ = godotenv.Load()
	}

	return config.Load()
}
