// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pilgrimlyieu/starwatch/internal/domain"
	"github.com/pilgrimlyieu/starwatch/internal/gateway"
)

// Crawler is the use case for collecting the evidence of a fake-star campaign.
// It orchestrates the candidate scan and the bounded fan-out over accounts.
type Crawler struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
}

// NewCrawler creates a new Crawler instance.
func NewCrawler(fetcher gateway.Fetcher, logger *log.Logger) *Crawler {
	return &Crawler{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Candidates returns the accounts that starred the victim repository after
// the attack start. The gateway already deduplicates logins, so each account
// is crawled at most once downstream. A mid-scan page failure is logged and
// the candidates gathered so far are kept; only configuration-class errors
// (e.g. a malformed target repository) are returned.
func (c *Crawler) Candidates(ctx context.Context, window domain.AttackWindow) ([]string, error) {
	logins, err := c.fetcher.ListAttackStargazers(ctx, window)
	if err != nil {
		var cerr *gateway.CrawlError
		if !errors.As(err, &cerr) {
			return nil, err
		}
		c.logger.Printf("Stargazer scan ended early: %v. Continuing with %d candidates.", cerr, len(logins))
	}
	return logins, nil
}

// CrawlAccounts fetches the recent starring activity of every candidate with
// at most window.Concurrency crawls in flight and merges the results. Each
// account's events stay local to its task until the merge; one account's
// failure never aborts another's crawl, so the group never returns an error.
func (c *Crawler) CrawlAccounts(ctx context.Context, window domain.AttackWindow, logins []string) []domain.StarEvent {
	limit := window.Concurrency
	if limit <= 0 {
		limit = 10
	}
	c.logger.Printf("Crawling starring activity of %d accounts (%d concurrent)...", len(logins), limit)

	var (
		mu     sync.Mutex
		events []domain.StarEvent
		eg     errgroup.Group
	)
	eg.SetLimit(limit)
	for _, login := range logins {
		login := login
		eg.Go(func() error {
			found, err := c.fetcher.ListRecentStars(ctx, login, window.AttackStart)
			if err != nil {
				c.logger.Printf("Crawl of %s ended early: %v. Keeping %d events.", login, err, len(found))
			}
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			events = append(events, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait() // tasks absorb their own failures

	c.logger.Printf("Crawl complete: %d star events.", len(events))
	return events
}

// ProfileAccounts fetches public metadata for the candidate accounts, with the
// same concurrency bound as the activity crawl. Unreadable accounts are
// skipped.
func (c *Crawler) ProfileAccounts(ctx context.Context, window domain.AttackWindow, logins []string) []domain.AccountProfile {
	limit := window.Concurrency
	if limit <= 0 {
		limit = 10
	}

	var (
		mu       sync.Mutex
		profiles []domain.AccountProfile
		eg       errgroup.Group
	)
	eg.SetLimit(limit)
	for _, login := range logins {
		login := login
		eg.Go(func() error {
			profile, err := c.fetcher.FetchAccountProfile(ctx, login)
			if err != nil {
				c.logger.Printf("Profile of %s unavailable: %v", login, err)
				return nil
			}
			mu.Lock()
			profiles = append(profiles, profile)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return profiles
}
