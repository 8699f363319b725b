// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// AttackWindow describes one fake-star campaign to investigate: the victim
// repository, the moment the campaign started, and the crawl settings.
// It is built once from configuration and never mutated.
type AttackWindow struct {
	TargetRepo   string
	AttackStart  time.Time
	ExcludeUsers map[string]struct{}
	Concurrency  int
}

// StarEvent is one recorded instance of an account starring a repository.
// It is the atomic unit of evidence produced by the crawl.
type StarEvent struct {
	VictimUser string
	TargetRepo string
	StarredAt  time.Time
}

// Owner returns the repository owner, i.e. everything before the first slash
// of TargetRepo. A name without a slash is treated as owner-only.
func (e StarEvent) Owner() string {
	for i := 0; i < len(e.TargetRepo); i++ {
		if e.TargetRepo[i] == '/' {
			return e.TargetRepo[:i]
		}
	}
	return e.TargetRepo
}

// OwnerStat is the number of attack events counted against one repository owner.
type OwnerStat struct {
	Owner   string
	Attacks int
}

// RepoStat is the number of attack events counted against one repository.
type RepoStat struct {
	Repo    string
	Attacks int
}

// ReferenceList is a curated list of repositories (an "awesome list") to
// cross-reference against the detected attack targets. Repos holds the
// owner/repo full names in file order, duplicates included.
type ReferenceList struct {
	Name  string
	Repos []string
}

// CoverageSummary measures how much of one reference list was touched by the
// campaign. Emitted only for lists with at least one matching event.
type CoverageSummary struct {
	ListName      string
	TotalAttacks  int
	AttackedRepos int
	TotalRepos    int
	CoveragePct   float64
}

// AccountProfile holds public metadata about a candidate account, used to
// characterize the accounts behind a campaign.
type AccountProfile struct {
	Login     string
	CreatedAt time.Time
	Followers int
}
