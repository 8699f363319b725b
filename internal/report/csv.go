// Package report owns the tabular file formats of the pipeline: event CSVs,
// reference lists, and the aggregation output tables.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pilgrimlyieu/starwatch/internal/domain"
)

// Timestamp layouts accepted on read. Files written by this tool use RFC3339.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ReadEvents loads an event CSV with columns victim_user, target_repo,
// starred_at. Header names are matched case- and whitespace-insensitively;
// missing columns are a configuration error.
func ReadEvents(path string) ([]domain.StarEvent, error) {
	rows, header, err := readTable(path)
	if err != nil {
		return nil, err
	}
	userCol, repoCol, timeCol, err := requireColumns(header, path, "victim_user", "target_repo", "starred_at")
	if err != nil {
		return nil, err
	}

	events := make([]domain.StarEvent, 0, len(rows))
	for i, row := range rows {
		starredAt, err := parseTime(row[timeCol])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		events = append(events, domain.StarEvent{
			VictimUser: row[userCol],
			TargetRepo: row[repoCol],
			StarredAt:  starredAt,
		})
	}
	return events, nil
}

// WriteEvents writes an event CSV with RFC3339 UTC timestamps. Used for both
// the raw and the anonymized event file; the schema is identical.
func WriteEvents(path string, events []domain.StarEvent) error {
	records := make([][]string, 0, len(events)+1)
	records = append(records, []string{"victim_user", "target_repo", "starred_at"})
	for _, event := range events {
		records = append(records, []string{
			event.VictimUser,
			event.TargetRepo,
			event.StarredAt.UTC().Format(time.RFC3339),
		})
	}
	return writeTable(path, records)
}

// ReadReferenceList loads one curated list CSV with columns username and
// repository, combined into owner/repo entries in file order.
func ReadReferenceList(name, path string) (domain.ReferenceList, error) {
	rows, header, err := readTable(path)
	if err != nil {
		return domain.ReferenceList{}, err
	}
	userCol, repoCol, _, err := requireColumns(header, path, "username", "repository", "")
	if err != nil {
		return domain.ReferenceList{}, err
	}

	list := domain.ReferenceList{Name: name, Repos: make([]string, 0, len(rows))}
	for _, row := range rows {
		list.Repos = append(list.Repos, row[userCol]+"/"+row[repoCol])
	}
	return list, nil
}

// WriteOwnerStats writes the ranked owner table.
func WriteOwnerStats(path string, ranked []domain.OwnerStat) error {
	records := [][]string{{"target_owner", "attacks"}}
	for _, stat := range ranked {
		records = append(records, []string{stat.Owner, strconv.Itoa(stat.Attacks)})
	}
	return writeTable(path, records)
}

// WriteRepoStats writes a ranked repository table (used for the global
// ranking and for the per-list detail files).
func WriteRepoStats(path string, ranked []domain.RepoStat) error {
	records := [][]string{{"target_repo", "attacks"}}
	for _, stat := range ranked {
		records = append(records, []string{stat.Repo, strconv.Itoa(stat.Attacks)})
	}
	return writeTable(path, records)
}

// WriteCoverage writes the cross-list comparison table.
func WriteCoverage(path string, summaries []domain.CoverageSummary) error {
	records := [][]string{{"list_name", "total_attacks", "attacked_repos_count", "total_repos_in_list", "attack_coverage_pct"}}
	for _, s := range summaries {
		records = append(records, []string{
			s.ListName,
			strconv.Itoa(s.TotalAttacks),
			strconv.Itoa(s.AttackedRepos),
			strconv.Itoa(s.TotalRepos),
			strconv.FormatFloat(s.CoveragePct, 'f', 2, 64),
		})
	}
	return writeTable(path, records)
}

func readTable(path string) (rows [][]string, header map[string]int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", path)
	}

	header = make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return records[1:], header, nil
}

// requireColumns resolves up to three column names to indexes; an empty name
// is skipped. Any missing column is an error naming all the absentees.
func requireColumns(header map[string]int, path string, names ...string) (a, b, c int, err error) {
	indexes := make([]int, len(names))
	var missing []string
	for i, name := range names {
		if name == "" {
			indexes[i] = -1
			continue
		}
		idx, ok := header[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		indexes[i] = idx
	}
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%s is missing required columns: %s", path, strings.Join(missing, ", "))
	}
	return indexes[0], indexes[1], indexes[2], nil
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", value)
}

func writeTable(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	writer := csv.NewWriter(f)
	if err := writer.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
