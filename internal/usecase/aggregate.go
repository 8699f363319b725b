package usecase

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/pilgrimlyieu/starwatch/internal/domain"
)

// OwnerCounts groups events by repository owner and ranks owners by attack
// count, descending. Ties keep first-seen order. A target_repo without a
// slash counts the whole string as the owner.
func OwnerCounts(events []domain.StarEvent) []domain.OwnerStat {
	counts := make(map[string]int)
	var order []string
	for _, event := range events {
		owner := event.Owner()
		if _, ok := counts[owner]; !ok {
			order = append(order, owner)
		}
		counts[owner]++
	}

	ranked := make([]domain.OwnerStat, 0, len(order))
	for _, owner := range order {
		ranked = append(ranked, domain.OwnerStat{Owner: owner, Attacks: counts[owner]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Attacks > ranked[j].Attacks
	})
	return ranked
}

// RepoCounts groups events by full repository name and ranks repositories by
// attack count, descending. Ties keep first-seen order.
func RepoCounts(events []domain.StarEvent) []domain.RepoStat {
	counts := make(map[string]int)
	var order []string
	for _, event := range events {
		if _, ok := counts[event.TargetRepo]; !ok {
			order = append(order, event.TargetRepo)
		}
		counts[event.TargetRepo]++
	}

	ranked := make([]domain.RepoStat, 0, len(order))
	for _, repo := range order {
		ranked = append(ranked, domain.RepoStat{Repo: repo, Attacks: counts[repo]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Attacks > ranked[j].Attacks
	})
	return ranked
}

// Coverage cross-references the event set against one reference list. The
// returned detail holds per-repository attack counts restricted to the list's
// matches. ok is false when no event touched the list, in which case no
// summary should be emitted for it.
func Coverage(events []domain.StarEvent, list domain.ReferenceList) (summary domain.CoverageSummary, detail []domain.RepoStat, ok bool) {
	members := make(map[string]struct{}, len(list.Repos))
	for _, repo := range list.Repos {
		members[repo] = struct{}{}
	}

	var matched []domain.StarEvent
	for _, event := range events {
		if _, hit := members[event.TargetRepo]; hit {
			matched = append(matched, event)
		}
	}
	if len(matched) == 0 {
		return domain.CoverageSummary{}, nil, false
	}

	detail = RepoCounts(matched)
	summary = domain.CoverageSummary{
		ListName:      list.Name,
		TotalAttacks:  len(matched),
		AttackedRepos: len(detail),
		TotalRepos:    len(list.Repos),
		CoveragePct:   round2(float64(len(detail)) / float64(len(list.Repos)) * 100),
	}
	return summary, detail, true
}

// CompareLists orders coverage summaries for the cross-list comparison,
// descending by total attacks with first-seen order on ties.
func CompareLists(summaries []domain.CoverageSummary) []domain.CoverageSummary {
	ranked := make([]domain.CoverageSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalAttacks > ranked[j].TotalAttacks
	})
	return ranked
}

// CampaignSummary characterizes the volume of the campaign: how many distinct
// tokens (accounts) appear in the event set and how many repositories each
// one hit.
type CampaignSummary struct {
	Accounts         int
	Events           int
	MeanPerAccount   float64
	MedianPerAccount float64
	MaxPerAccount    float64
}

// Summarize computes the per-account volume distribution of the event set.
func Summarize(events []domain.StarEvent) CampaignSummary {
	counts := make(map[string]int)
	for _, event := range events {
		counts[event.VictimUser]++
	}
	summary := CampaignSummary{Accounts: len(counts), Events: len(events)}
	if len(counts) == 0 {
		return summary
	}

	values := make([]float64, 0, len(counts))
	for _, n := range counts {
		values = append(values, float64(n))
	}
	summary.MeanPerAccount, _ = stats.Mean(values)
	summary.MedianPerAccount, _ = stats.Median(values)
	summary.MaxPerAccount, _ = stats.Max(values)
	return summary
}

// ProfileSummary characterizes the accounts behind the campaign. Fake-star
// campaigns skew toward freshly created, follower-less accounts, so the
// median age is the headline number.
type ProfileSummary struct {
	Accounts        int
	MedianAgeDays   float64
	MedianFollowers float64
}

// SummarizeProfiles computes account age and follower medians as of now.
func SummarizeProfiles(profiles []domain.AccountProfile, now time.Time) ProfileSummary {
	summary := ProfileSummary{Accounts: len(profiles)}
	if len(profiles) == 0 {
		return summary
	}

	ages := make([]float64, 0, len(profiles))
	followers := make([]float64, 0, len(profiles))
	for _, profile := range profiles {
		ages = append(ages, now.Sub(profile.CreatedAt).Hours()/24)
		followers = append(followers, float64(profile.Followers))
	}
	summary.MedianAgeDays, _ = stats.Median(ages)
	summary.MedianFollowers, _ = stats.Median(followers)
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
