// Package cmd implements the ekaya-faker command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	// Store adapters register themselves with the datasource registry.
	_ "github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource/postgres"
	_ "github.com/ekaya-inc/ekaya-faker/pkg/adapters/datasource/sqldb"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath string
	modelsPath string
	debug      bool
)

var RootCmd = &cobra.Command{
	Use:   "ekaya-faker",
	Short: "Populate database tables with AI-generated fake data",
	Long: `ekaya-faker reads a table's schema, asks an AI provider for realistic
records that respect its constraints, and writes them back in one transaction.

Configuration comes from config.yaml and FAKER_* environment variables.
Secrets (FAKER_AI_API_KEY, FAKER_DB_PASSWORD) are read from the environment
only; a .env file in the working directory is loaded first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	RootCmd.PersistentFlags().StringVar(&modelsPath, "models", "", "Model definitions file (overrides generation.models_file)")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	RootCmd.AddCommand(generateCmd)
	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(promptCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}
