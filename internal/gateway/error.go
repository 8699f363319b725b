package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v62/github"
)

// CrawlKind classifies why a paginated crawl stopped before exhausting the data.
type CrawlKind string

const (
	// KindTransport covers network failures, decode failures, and server errors.
	KindTransport CrawlKind = "transport"
	// KindForbidden covers 403 responses, including exhausted rate limits.
	KindForbidden CrawlKind = "forbidden"
	// KindNotFound covers 404 responses for missing or suspended accounts.
	KindNotFound CrawlKind = "not-found"
)

// CrawlError reports a failed page fetch. It is returned together with the
// partial results gathered before the failure, so callers can tell "no more
// data" from "the crawl stopped mid-way" and decide what to do with the rest.
type CrawlError struct {
	Subject string
	Page    int
	Kind    CrawlKind
	Err     error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl of %s stopped at page %d (%s): %v", e.Subject, e.Page, e.Kind, e.Err)
}

func (e *CrawlError) Unwrap() error { return e.Err }

func newCrawlError(subject string, page int, err error) *CrawlError {
	kind := KindTransport
	var rateErr *github.RateLimitError
	var errResp *github.ErrorResponse
	switch {
	case errors.As(err, &rateErr):
		kind = KindForbidden
	case errors.As(err, &errResp) && errResp.Response != nil:
		switch errResp.Response.StatusCode {
		case http.StatusForbidden:
			kind = KindForbidden
		case http.StatusNotFound:
			kind = KindNotFound
		}
	}
	return &CrawlError{Subject: subject, Page: page, Kind: kind, Err: err}
}
