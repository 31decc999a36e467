package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "starsync/internal/errors"
	"starsync/internal/model"
)

// recordingSleeper replaces real waits and remembers what was requested.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// setupTestClient creates a httptest server and a client pointing to it.
func setupTestClient(t *testing.T, handler http.Handler) (*Client, *recordingSleeper) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client, err := NewClient("", server.URL, logger)
	require.NoError(t, err)

	sleeper := &recordingSleeper{}
	client.sleep = sleeper.sleep
	client.retry.BaseDelay = time.Millisecond
	return client, sleeper
}

// dropConnection closes the connection without writing a response.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		t.Error("response writer does not support hijacking")
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		t.Errorf("hijack failed: %v", err)
		return
	}
	conn.Close()
}

func setRateHeaders(w http.ResponseWriter, remaining int, reset time.Time) {
	w.Header().Set("X-RateLimit-Limit", "5000")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Used", strconv.Itoa(5000-remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}

func starredPage(startID, n int) string {
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		id := startID + i
		items = append(items, map[string]any{
			"starred_at": "2024-05-01T10:00:00Z",
			"repo": map[string]any{
				"id":               id,
				"name":             fmt.Sprintf("repo-%d", id),
				"full_name":        fmt.Sprintf("owner/repo-%d", id),
				"owner":            map[string]any{"login": "owner"},
				"html_url":         fmt.Sprintf("https://github.com/owner/repo-%d", id),
				"stargazers_count": 10,
				"topics":           []string{"go", "sync"},
			},
		})
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func TestClient_GetRepository_Retry(t *testing.T) {
	t.Run("succeeds on first try", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			assert.Equal(t, "/repos/test/repo", r.URL.Path)
			setRateHeaders(w, 4999, time.Now().Add(time.Hour))
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{"id": 1, "name": "repo", "owner": {"login": "test"}}`)
		})
		client, _ := setupTestClient(t, handler)

		repo, err := client.GetRepository(context.Background(), "test", "repo")

		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
		assert.Equal(t, "repo", repo.Name)
		assert.Equal(t, "test/repo", repo.FullName)
		require.NotNil(t, client.LastRate())
		assert.Equal(t, 4999, client.LastRate().Remaining)
	})

	t.Run("retries a dropped connection and succeeds", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&requestCount, 1) == 1 {
				dropConnection(t, w)
				return
			}
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{"id": 1, "name": "repo", "owner": {"login": "test"}}`)
		})
		client, _ := setupTestClient(t, handler)

		_, err := client.GetRepository(context.Background(), "test", "repo")

		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount), "should have made two requests")
	})

	t.Run("does not retry a well-formed server error", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, `{"message": "Service Unavailable"}`)
		})
		client, _ := setupTestClient(t, handler)

		_, err := client.GetRepository(context.Background(), "test", "repo")

		var upErr *custom_errors.UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, http.StatusServiceUnavailable, upErr.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
	})

	t.Run("surfaces 401 after a single request", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintln(w, `{"message": "Bad credentials"}`)
		})
		client, _ := setupTestClient(t, handler)

		_, err := client.GetRepository(context.Background(), "test", "repo")

		require.Error(t, err)
		assert.True(t, custom_errors.IsAuthError(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
	})

	t.Run("fails after max retries on persistent network errors", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			dropConnection(t, w)
		})
		client, _ := setupTestClient(t, handler)

		_, err := client.GetRepository(context.Background(), "test", "repo")

		require.Error(t, err)
		assert.True(t, isTransient(err), "network failures are not upstream responses")
		assert.Equal(t, int32(maxRetries), atomic.LoadInt32(&requestCount))
	})
}

func TestClient_RateLimit(t *testing.T) {
	t.Run("waits for the reset and retries the same request", func(t *testing.T) {
		var requestCount int32
		resetTime := time.Now().Add(30 * time.Second)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&requestCount, 1) == 1 {
				setRateHeaders(w, 0, resetTime)
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
				return
			}
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, `{"id": 1, "name": "repo", "owner": {"login": "test"}}`)
		})
		client, sleeper := setupTestClient(t, handler)

		_, err := client.GetRepository(context.Background(), "test", "repo")

		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount))
		delays := sleeper.recorded()
		require.Len(t, delays, 1)
		assert.Greater(t, delays[0], 29*time.Second, "should wait until reset plus buffer")
		assert.LessOrEqual(t, delays[0], 31*time.Second)
	})

	t.Run("gives up when the reset is more than an hour away", func(t *testing.T) {
		var requestCount int32
		resetTime := time.Now().Add(2 * time.Hour)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			setRateHeaders(w, 0, resetTime)
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
		})
		client, sleeper := setupTestClient(t, handler)

		_, err := client.GetRepository(context.Background(), "test", "repo")

		var rlErr *custom_errors.RateLimitExceededError
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, resetTime.Unix(), rlErr.Reset.Unix())
		assert.Empty(t, sleeper.recorded())
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
	})

	t.Run("waits when the reset is exactly an hour away", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&requestCount, 1) == 1 {
				setRateHeaders(w, 0, now.Add(time.Hour))
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
				return
			}
			fmt.Fprintln(w, `{"id": 1, "name": "repo", "owner": {"login": "test"}}`)
		})
		client, sleeper := setupTestClient(t, handler)
		client.now = func() time.Time { return now }

		_, err := client.GetRepository(context.Background(), "test", "repo")

		require.NoError(t, err)
		assert.Equal(t, []time.Duration{maxRateLimitWait + rateLimitBuffer}, sleeper.recorded())
		assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount))
	})

	t.Run("gives up when the reset has already passed", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setRateHeaders(w, 0, time.Now().Add(-time.Minute))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
		})
		client, _ := setupTestClient(t, handler)

		_, err := client.GetRepository(context.Background(), "test", "repo")

		var rlErr *custom_errors.RateLimitExceededError
		assert.ErrorAs(t, err, &rlErr)
	})

	t.Run("plain 403 with quota left is surfaced as is", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setRateHeaders(w, 100, time.Now().Add(time.Minute))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "Resource not accessible"}`)
		})
		client, sleeper := setupTestClient(t, handler)

		_, err := client.GetRepository(context.Background(), "test", "repo")

		var upErr *custom_errors.UpstreamError
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
		require.NotNil(t, upErr.Rate)
		assert.Equal(t, 100, upErr.Rate.Remaining)
		assert.Empty(t, sleeper.recorded())
	})
}

func TestClient_FetchAllStarred(t *testing.T) {
	t.Run("stops after a short page", func(t *testing.T) {
		pageSizes := []int{100, 100, 37}
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			assert.Equal(t, "/user/starred", r.URL.Path)
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			if page < 1 || page > len(pageSizes) {
				fmt.Fprint(w, `[]`)
				return
			}
			fmt.Fprint(w, starredPage((page-1)*100+1, pageSizes[page-1]))
		})
		client, sleeper := setupTestClient(t, handler)

		type call struct{ page, fetched int }
		var calls []call
		repos, err := client.FetchAllStarred(context.Background(), func(page, fetched int) {
			calls = append(calls, call{page, fetched})
		})

		require.NoError(t, err)
		assert.Len(t, repos, 237)
		assert.Equal(t, int32(3), atomic.LoadInt32(&requestCount))
		assert.Equal(t, []call{{1, 100}, {2, 200}, {3, 237}}, calls)
		assert.Equal(t, []time.Duration{pageDelay, pageDelay}, sleeper.recorded())

		first := repos[0]
		assert.Equal(t, int64(1), first.GithubRepoID)
		assert.Equal(t, "owner/repo-1", first.FullName)
		assert.Equal(t, []string{"go", "sync"}, first.Topics)
		require.NotNil(t, first.StarredAt)
		assert.Equal(t, 2024, first.StarredAt.Year())
	})

	t.Run("honors the page cap", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&requestCount, 1)
			fmt.Fprint(w, starredPage(int(n-1)*100+1, 100))
		})
		client, _ := setupTestClient(t, handler)
		client.maxPages = 2

		repos, err := client.FetchAllStarred(context.Background(), nil)

		require.NoError(t, err)
		assert.Len(t, repos, 200)
		assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount))
	})

	t.Run("fails when a page fails", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("page") == "2" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, starredPage(1, 100))
		})
		client, _ := setupTestClient(t, handler)

		repos, err := client.FetchAllStarred(context.Background(), nil)

		assert.Nil(t, repos)
		assert.ErrorContains(t, err, "page 2")
	})
}

func TestClient_Activity(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/r/commits":
			assert.Equal(t, "5", r.URL.Query().Get("per_page"))
			fmt.Fprint(w, `[
				{"sha": "abc", "html_url": "https://github.com/o/r/commit/abc", "author": {"login": "octocat"},
				 "commit": {"message": "feat: add sync\n\nLonger explanation.", "author": {"name": "Octo", "date": "2024-01-02T12:00:00Z"}}},
				{"sha": "def", "html_url": "https://github.com/o/r/commit/def",
				 "commit": {"message": "fix: typo", "author": {"name": "Someone", "date": "2024-01-01T12:00:00Z"}}}
			]`)
		case "/repos/o/r/issues":
			assert.Equal(t, "open", r.URL.Query().Get("state"))
			fmt.Fprint(w, `[
				{"number": 3, "title": "Bug", "body": "it breaks", "html_url": "https://github.com/o/r/issues/3", "user": {"login": "a"}, "created_at": "2024-02-01T00:00:00Z"},
				{"number": 2, "title": "A PR", "html_url": "https://github.com/o/r/pull/2", "user": {"login": "b"}, "pull_request": {"url": "https://api.github.com/repos/o/r/pulls/2"}},
				{"number": 1, "title": "Feature", "html_url": "https://github.com/o/r/issues/1", "user": {"login": "c"}, "created_at": "2024-01-01T00:00:00Z"}
			]`)
		case "/repos/o/r/pulls":
			fmt.Fprint(w, `[
				{"number": 2, "title": "A PR", "body": "changes", "html_url": "https://github.com/o/r/pull/2", "user": {"login": "b"}, "created_at": "2024-03-01T00:00:00Z"}
			]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client, _ := setupTestClient(t, handler)
	ctx := context.Background()

	t.Run("commits split subject and body", func(t *testing.T) {
		commits, err := client.ListRecentCommits(ctx, "o", "r", 5)

		require.NoError(t, err)
		require.Len(t, commits, 2)
		assert.Equal(t, model.ActivityCommit, commits[0].Type)
		assert.Equal(t, "feat: add sync", commits[0].Title)
		assert.Equal(t, "Longer explanation.", commits[0].Description)
		assert.Equal(t, "octocat", commits[0].Author)
		assert.Equal(t, "Someone", commits[1].Author, "falls back to the git author name")
	})

	t.Run("issues exclude pull requests", func(t *testing.T) {
		issues, err := client.ListOpenIssues(ctx, "o", "r", 5)

		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, "Bug", issues[0].Title)
		assert.Equal(t, "Feature", issues[1].Title)
		for _, issue := range issues {
			assert.Equal(t, model.ActivityIssue, issue.Type)
		}
	})

	t.Run("pull requests", func(t *testing.T) {
		pulls, err := client.ListOpenPullRequests(ctx, "o", "r", 5)

		require.NoError(t, err)
		require.Len(t, pulls, 1)
		assert.Equal(t, model.ActivityPullRequest, pulls[0].Type)
		assert.Equal(t, "https://github.com/o/r/pull/2", pulls[0].URL)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 10))
	assert.Equal(t, "hé", truncate("héllo", 2))
}

func TestClient_RateLimitStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rate_limit", r.URL.Path)
		fmt.Fprint(w, `{"resources": {"core": {"limit": 5000, "remaining": 4990, "reset": 1717243200}}}`)
	})
	client, _ := setupTestClient(t, handler)

	rate, err := client.RateLimit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5000, rate.Limit)
	assert.Equal(t, 4990, rate.Remaining)
	assert.Equal(t, 10, rate.Used)
	assert.Equal(t, int64(1717243200), rate.Reset.Unix())
}
