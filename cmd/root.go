// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/pilgrimlyieu/starwatch/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "starwatch",
	Short: "Investigates coordinated fake-star campaigns against GitHub repositories.",
	Long: `starwatch investigates coordinated fake-star campaigns: it collects the
accounts that starred a victim repository after a known attack start, crawls
their subsequent starring activity to find other targets, anonymizes the
account identifiers, and aggregates the evidence into ranked statistics and
awesome-list coverage reports.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags shared by every subcommand.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "Path to the configuration file")
}

// newLogger builds the run logger: discard by default, stderr under --verbose.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// loadConfig reads the configuration file named by the --config flag.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.InheritedFlags().GetString("config")
	return config.Load(path)
}
