package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilgrimlyieu/starwatch/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	graphqlClient := githubv4.NewEnterpriseClient(server.URL, server.Client())
	logger := log.New(io.Discard, "", 0)

	gateway := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}

	return gateway, server
}

func testWindow(attackStart time.Time) domain.AttackWindow {
	return domain.AttackWindow{
		TargetRepo:   "victim/repo",
		AttackStart:  attackStart,
		ExcludeUsers: map[string]struct{}{"goodbot": {}},
		Concurrency:  2,
	}
}

func TestGitHubGateway_ListAttackStargazers(t *testing.T) {
	attackStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("scans all pages and filters old, excluded, and duplicate logins", func(t *testing.T) {
		// The handler needs the server URL for the Link header, which only
		// exists after the server is up; requests start later still.
		var serverURL string
		handler := func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/repos/victim/repo/stargazers")
			if r.URL.Query().Get("page") == "2" {
				fmt.Fprint(w, `[
					{"starred_at": "2026-08-01T03:00:00Z", "user": {"login": "fresh1"}},
					{"starred_at": "2026-08-01T04:00:00Z", "user": {"login": "fresh2"}}
				]`)
				return
			}
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/victim/repo/stargazers?page=2>; rel="next"`, serverURL))
			fmt.Fprint(w, `[
				{"starred_at": "2026-08-01T01:00:00Z", "user": {"login": "fresh1"}},
				{"starred_at": "2026-07-31T23:00:00Z", "user": {"login": "old-timer"}},
				{"starred_at": "2026-08-01T02:00:00Z", "user": {"login": "goodbot"}}
			]`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()
		serverURL = server.URL

		logins, err := gateway.ListAttackStargazers(context.Background(), testWindow(attackStart))
		assert.NoError(t, err)
		assert.Equal(t, []string{"fresh1", "fresh2"}, logins)
	})

	t.Run("page failure returns partial logins with a classified error", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message": "Internal Server Error"}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		logins, err := gateway.ListAttackStargazers(context.Background(), testWindow(attackStart))
		assert.Empty(t, logins)

		var cerr *CrawlError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, KindTransport, cerr.Kind)
		assert.Equal(t, 1, cerr.Page)
	})

	t.Run("malformed target repository is a plain error", func(t *testing.T) {
		gateway, server := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		window := testWindow(attackStart)
		window.TargetRepo = "noslash"
		_, err := gateway.ListAttackStargazers(context.Background(), window)
		assert.Error(t, err)
		var cerr *CrawlError
		assert.False(t, errors.As(err, &cerr))
	})
}

func TestGitHubGateway_ListRecentStars(t *testing.T) {
	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("stops at the first entry older than the cutoff", func(t *testing.T) {
		var requests atomic.Int32
		var serverURL string
		handler := func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			assert.Contains(t, r.URL.Path, "/users/suspect/starred")
			assert.Equal(t, "created", r.URL.Query().Get("sort"))
			assert.Equal(t, "desc", r.URL.Query().Get("direction"))
			// A next page is advertised but must never be requested.
			w.Header().Set("Link", fmt.Sprintf(`<%s/users/suspect/starred?page=2>; rel="next"`, serverURL))
			fmt.Fprint(w, `[
				{"starred_at": "2026-08-01T03:00:00Z", "repo": {"full_name": "bar/repo1"}},
				{"starred_at": "2026-08-01T02:00:00Z", "repo": {"full_name": "bar/repo2"}},
				{"starred_at": "2026-08-01T01:00:00Z", "repo": {"full_name": "bar/repo3"}},
				{"starred_at": "2026-07-31T23:00:00Z", "repo": {"full_name": "too/old"}},
				{"starred_at": "2026-07-31T22:00:00Z", "repo": {"full_name": "even/older"}}
			]`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()
		serverURL = server.URL

		events, err := gateway.ListRecentStars(context.Background(), "suspect", cutoff)
		assert.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, "bar/repo1", events[0].TargetRepo)
		assert.Equal(t, "bar/repo3", events[2].TargetRepo)
		assert.Equal(t, "suspect", events[0].VictimUser)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("404 yields zero events and no error", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		events, err := gateway.ListRecentStars(context.Background(), "ghost", cutoff)
		assert.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("403 yields zero events and no error", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "Forbidden"}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		events, err := gateway.ListRecentStars(context.Background(), "private", cutoff)
		assert.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("mid-crawl server error keeps earlier pages", func(t *testing.T) {
		var serverURL string
		handler := func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "2" {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message": "Internal Server Error"}`)
				return
			}
			w.Header().Set("Link", fmt.Sprintf(`<%s/users/suspect/starred?page=2>; rel="next"`, serverURL))
			fmt.Fprint(w, `[{"starred_at": "2026-08-01T03:00:00Z", "repo": {"full_name": "bar/repo1"}}]`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()
		serverURL = server.URL

		events, err := gateway.ListRecentStars(context.Background(), "suspect", cutoff)
		require.Len(t, events, 1)

		var cerr *CrawlError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, KindTransport, cerr.Kind)
		assert.Equal(t, 2, cerr.Page)
	})
}

func TestGitHubGateway_FetchAccountProfile(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), "suspect")
			fmt.Fprint(w, `{"data":{"user":{"createdAt":"2026-07-20T00:00:00Z","followers":{"totalCount":2}}}}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		profile, err := gateway.FetchAccountProfile(context.Background(), "suspect")
		assert.NoError(t, err)
		assert.Equal(t, "suspect", profile.Login)
		assert.Equal(t, 2, profile.Followers)
		assert.Equal(t, time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC), profile.CreatedAt)
	})

	t.Run("graphql error is surfaced", func(t *testing.T) {
		handler := func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"errors":[{"message":"Something went wrong"}]}`)
		}
		gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
		defer server.Close()

		_, err := gateway.FetchAccountProfile(context.Background(), "suspect")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to query profile")
	})
}
