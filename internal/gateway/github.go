// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/pilgrimlyieu/starwatch/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// ListAttackStargazers returns the logins that starred the window's target
	// repository after the attack start, minus excluded accounts, deduplicated.
	ListAttackStargazers(ctx context.Context, window domain.AttackWindow) ([]string, error)
	// ListRecentStars returns the repositories one account starred at or after
	// the cutoff, newest first per the API ordering.
	ListRecentStars(ctx context.Context, login string, cutoff time.Time) ([]domain.StarEvent, error)
	// FetchAccountProfile returns public metadata for one account.
	FetchAccountProfile(ctx context.Context, login string) (domain.AccountProfile, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// accountProfileQuery fetches the account metadata used for campaign profiling.
type accountProfileQuery struct {
	User struct {
		CreatedAt githubv4.DateTime
		Followers struct {
			TotalCount int
		}
	} `graphql:"user(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// All requests share one HTTP client carrying the auth token and a secondary
// rate limit waiter.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// ListAttackStargazers scans the full stargazer history of the target
// repository. The stargazer endpoint carries no ordering guarantee, so every
// page is fetched and filtered inline; there is deliberately no early stop
// here, unlike ListRecentStars.
//
// A page failure terminates the scan and is reported as a *CrawlError next to
// the logins gathered so far, so callers can keep partial data.
func (g *GitHubGateway) ListAttackStargazers(ctx context.Context, window domain.AttackWindow) ([]string, error) {
	owner, name, err := splitRepo(window.TargetRepo)
	if err != nil {
		return nil, err
	}

	g.logger.Printf("Fetching stargazers of %s starred after %s...", window.TargetRepo, window.AttackStart.Format(time.RFC3339))
	opts := &github.ListOptions{PerPage: 100}
	seen := make(map[string]struct{})
	var logins []string
	page := 1
	for {
		gazers, resp, err := g.restClient.Activity.ListStargazers(ctx, owner, name, opts)
		if err != nil {
			return logins, newCrawlError(window.TargetRepo, page, err)
		}
		if len(gazers) == 0 {
			break
		}
		for _, gazer := range gazers {
			login := gazer.GetUser().GetLogin()
			if login == "" || gazer.StarredAt == nil {
				continue
			}
			if !gazer.StarredAt.After(window.AttackStart) {
				continue
			}
			if _, excluded := window.ExcludeUsers[login]; excluded {
				continue
			}
			if _, dup := seen[login]; dup {
				continue
			}
			seen[login] = struct{}{}
			logins = append(logins, login)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		page = resp.NextPage
		g.logger.Println("  Fetching next page of stargazers...")
	}
	g.logger.Printf("Completed stargazer scan: %d candidate accounts.", len(logins))
	return logins, nil
}

// ListRecentStars walks one account's starred repositories, newest first, and
// stops at the first entry older than the cutoff; the sorted-descending
// ordering of this endpoint is load-bearing. A 403 or 404 means a private,
// suspended, or otherwise unreadable account and yields zero events without
// an error. Other page failures return the partial events with a *CrawlError.
func (g *GitHubGateway) ListRecentStars(ctx context.Context, login string, cutoff time.Time) ([]domain.StarEvent, error) {
	opts := &github.ActivityListStarredOptions{
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var events []domain.StarEvent
	page := 1
	for {
		starred, resp, err := g.restClient.Activity.ListStarred(ctx, login, opts)
		if err != nil {
			cerr := newCrawlError(login, page, err)
			if cerr.Kind == KindForbidden || cerr.Kind == KindNotFound {
				g.logger.Printf("  Skipping unreadable account %s (%s).", login, cerr.Kind)
				return events, nil
			}
			return events, cerr
		}
		if len(starred) == 0 {
			return events, nil
		}
		for _, star := range starred {
			if star.StarredAt == nil {
				continue
			}
			starredAt := star.StarredAt.Time
			if starredAt.Before(cutoff) {
				// Remaining entries and pages are older still.
				return events, nil
			}
			fullName := star.GetRepository().GetFullName()
			if fullName == "" {
				continue
			}
			events = append(events, domain.StarEvent{
				VictimUser: login,
				TargetRepo: fullName,
				StarredAt:  starredAt,
			})
		}
		if resp.NextPage == 0 {
			return events, nil
		}
		opts.Page = resp.NextPage
		page = resp.NextPage
	}
}

// FetchAccountProfile fetches account creation time and follower count over GraphQL.
func (g *GitHubGateway) FetchAccountProfile(ctx context.Context, login string) (domain.AccountProfile, error) {
	var q accountProfileQuery
	variables := map[string]interface{}{
		"login": githubv4.String(login),
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return domain.AccountProfile{}, fmt.Errorf("failed to query profile of %s: %w", login, err)
	}
	return domain.AccountProfile{
		Login:     login,
		CreatedAt: q.User.CreatedAt.Time,
		Followers: q.User.Followers.TotalCount,
	}, nil
}

func splitRepo(fullName string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("target repository %q is not in owner/repo form", fullName)
	}
	return owner, name, nil
}
