package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pilgrimlyieu/starwatch/internal/gateway"
	"github.com/pilgrimlyieu/starwatch/internal/report"
	"github.com/pilgrimlyieu/starwatch/internal/usecase"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Crawls GitHub for the star events of a campaign",
	Long: `Collects the accounts that starred the victim repository after the attack
start, crawls each account's recent starring activity concurrently, and writes
the resulting star events to the unencrypted event CSV.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(1)
		}
		if cfg.GitHubToken == "" {
			fmt.Fprintln(os.Stderr, "Error: GitHub token environment variable is not set.")
			os.Exit(1)
		}

		githubGateway, err := gateway.NewGitHubGateway(cfg.GitHubToken, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		crawler := usecase.NewCrawler(githubGateway, logger)

		window := cfg.Window()
		candidates, err := crawler.Candidates(ctx, window)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to collect candidate accounts: %v\n", err)
			os.Exit(1)
		}
		events := crawler.CrawlAccounts(ctx, window, candidates)

		if err := report.WriteEvents(cfg.RawEventsPath, events); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write event file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d star events from %d candidate accounts to %s\n",
			len(events), len(candidates), cfg.RawEventsPath)

		noProfile, _ := cmd.Flags().GetBool("no-profile")
		if noProfile || len(candidates) == 0 {
			return
		}
		profiles := crawler.ProfileAccounts(ctx, window, candidates)
		summary := usecase.SummarizeProfiles(profiles, time.Now())
		fmt.Printf("Profiled %d accounts: median age %.0f days, median followers %.0f\n",
			summary.Accounts, summary.MedianAgeDays, summary.MedianFollowers)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().Bool("no-profile", false, "Skip the candidate account profile summary")
}
