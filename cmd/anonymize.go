package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pilgrimlyieu/starwatch/internal/anonymize"
	"github.com/pilgrimlyieu/starwatch/internal/report"
)

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize",
	Short: "Replaces account identifiers in the event file with keyed tokens",
	Long: `Reads the unencrypted event CSV, replaces every victim_user with its
deterministic HMAC-SHA256 token, and writes the anonymized event CSV. The key
is taken from the environment and is never written anywhere.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(1)
		}

		events, err := report.ReadEvents(cfg.RawEventsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read event file: %v\n", err)
			os.Exit(1)
		}

		anonymized, err := anonymize.Events(cfg.AnonymizationKey, events)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to anonymize events: %v\n", err)
			os.Exit(1)
		}

		if err := report.WriteEvents(cfg.AnonymizedPath, anonymized); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write anonymized file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Anonymized %d events into %s\n", len(anonymized), cfg.AnonymizedPath)
	},
}

func init() {
	rootCmd.AddCommand(anonymizeCmd)
}
