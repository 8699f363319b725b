package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/pilgrimlyieu/starwatch/internal/domain"
)

// PrintTopOwners renders the top n attacked owners as a terminal table.
func PrintTopOwners(w io.Writer, ranked []domain.OwnerStat, n int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"target_owner", "attacks"})
	for i, stat := range ranked {
		if i >= n {
			break
		}
		table.Append([]string{stat.Owner, strconv.Itoa(stat.Attacks)})
	}
	table.Render()
}

// PrintTopRepos renders the top n attacked repositories as a terminal table.
func PrintTopRepos(w io.Writer, ranked []domain.RepoStat, n int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"target_repo", "attacks"})
	for i, stat := range ranked {
		if i >= n {
			break
		}
		table.Append([]string{stat.Repo, strconv.Itoa(stat.Attacks)})
	}
	table.Render()
}

// PrintCoverage renders the cross-list comparison as a terminal table.
func PrintCoverage(w io.Writer, summaries []domain.CoverageSummary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"list", "attacks", "repos hit", "repos in list", "coverage %"})
	for _, s := range summaries {
		table.Append([]string{
			s.ListName,
			strconv.Itoa(s.TotalAttacks),
			strconv.Itoa(s.AttackedRepos),
			strconv.Itoa(s.TotalRepos),
			fmt.Sprintf("%.2f", s.CoveragePct),
		})
	}
	table.Render()
}
