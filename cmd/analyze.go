package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pilgrimlyieu/starwatch/internal/domain"
	"github.com/pilgrimlyieu/starwatch/internal/report"
	"github.com/pilgrimlyieu/starwatch/internal/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Aggregates the anonymized events into ranked and coverage tables",
	Long: `Reads the anonymized event CSV, ranks attacked owners and repositories,
cross-references the events against the configured awesome lists, and writes
the result tables to the output directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)

		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(1)
		}

		events, err := report.ReadEvents(cfg.AnonymizedPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read event file: %v\n", err)
			os.Exit(1)
		}
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
			os.Exit(1)
		}

		owners := usecase.OwnerCounts(events)
		repos := usecase.RepoCounts(events)
		if err := report.WriteOwnerStats(filepath.Join(cfg.OutputDir, "owners.csv"), owners); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write owner table: %v\n", err)
			os.Exit(1)
		}
		if err := report.WriteRepoStats(filepath.Join(cfg.OutputDir, "repos.csv"), repos); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write repository table: %v\n", err)
			os.Exit(1)
		}

		// Awesome-list cross-check. A malformed or unreadable list is skipped;
		// lists with no matching event produce no output at all.
		var summaries []domain.CoverageSummary
		for _, name := range sortedListNames(cfg.AwesomeFiles) {
			list, err := report.ReadReferenceList(name, cfg.AwesomeFiles[name])
			if err != nil {
				logger.Printf("Skipping reference list %s: %v", name, err)
				continue
			}
			summary, detail, ok := usecase.Coverage(events, list)
			if !ok {
				logger.Printf("Reference list %s had no matching events.", name)
				continue
			}
			detailPath := filepath.Join(cfg.OutputDir, "awesome_detail_"+safeName(name)+".csv")
			if err := report.WriteRepoStats(detailPath, detail); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write list detail: %v\n", err)
				os.Exit(1)
			}
			summaries = append(summaries, summary)
		}
		if len(summaries) > 0 {
			summaries = usecase.CompareLists(summaries)
			if err := report.WriteCoverage(filepath.Join(cfg.OutputDir, "awesome_summary.csv"), summaries); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write coverage summary: %v\n", err)
				os.Exit(1)
			}
		}

		campaign := usecase.Summarize(events)
		fmt.Printf("%d events across %d accounts (mean %.1f, median %.1f, max %.0f repos per account)\n",
			campaign.Events, campaign.Accounts,
			campaign.MeanPerAccount, campaign.MedianPerAccount, campaign.MaxPerAccount)

		report.PrintTopOwners(os.Stdout, owners, 20)
		report.PrintTopRepos(os.Stdout, repos, 20)
		if len(summaries) > 0 {
			report.PrintCoverage(os.Stdout, summaries)
		}
	},
}

// sortedListNames gives the awesome lists a deterministic processing order.
func sortedListNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func safeName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
