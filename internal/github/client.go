// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	custom_errors "starsync/internal/errors"
	"starsync/internal/model"
	"starsync/internal/retry"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com/"

	maxRetries       = 3
	retryBaseDelay   = 2 * time.Second
	maxPerPage       = 100
	defaultMaxPages  = 100
	pageDelay        = 100 * time.Millisecond
	rateLimitBuffer  = time.Second
	maxRateLimitWait = time.Hour
	maxBodyRunes     = 500
)

// Client is a wrapper around the go-github client bound to one user's credential.
type Client struct {
	gh     *github.Client
	logger *slog.Logger

	retry     retry.Policy
	maxPages  int
	pageDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time

	mu       sync.Mutex
	lastRate *custom_errors.RateLimit
}

// NewClient creates and configures a new Client instance.
// The provided token is used to create an authenticated http.Client; an empty
// baseURL selects the public API.
func NewClient(token, baseURL string, logger *slog.Logger) (*Client, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	gh := github.NewClient(httpClient)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		gh.BaseURL = u
	}

	return &Client{
		gh:     gh,
		logger: logger,
		retry: retry.Policy{
			MaxAttempts: maxRetries,
			BaseDelay:   retryBaseDelay,
			Retryable:   isTransient,
		},
		maxPages:  defaultMaxPages,
		pageDelay: pageDelay,
		sleep:     sleepContext,
		now:       time.Now,
	}, nil
}

// LastRate returns the most recent rate-limit snapshot seen in a response, if any.
func (c *Client) LastRate() *custom_errors.RateLimit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRate
}

// GetRepository fetches repository details and translates them to our internal model.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*model.Repository, error) {
	var repo *github.Repository
	err := c.call(ctx, "get_repository", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		repo, resp, err = c.gh.Repositories.Get(ctx, owner, name)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return toInternalRepository(repo), nil
}

// StarredPages yields the authenticated user's starred repositories one page
// at a time, stopping after a short page or the page cap.
func (c *Client) StarredPages(ctx context.Context) iter.Seq2[[]model.Repository, error] {
	return func(yield func([]model.Repository, error) bool) {
		for page := 1; page <= c.maxPages; page++ {
			if page > 1 {
				if err := c.sleep(ctx, c.pageDelay); err != nil {
					yield(nil, err)
					return
				}
			}

			c.logger.Debug("Fetching starred repositories page", "page", page)
			opts := &github.ActivityListStarredOptions{
				ListOptions: github.ListOptions{Page: page, PerPage: maxPerPage},
			}
			var starred []*github.StarredRepository
			err := c.call(ctx, "list_starred", func(ctx context.Context) (*github.Response, error) {
				var resp *github.Response
				var err error
				starred, resp, err = c.gh.Activity.ListStarred(ctx, "", opts)
				return resp, err
			})
			if err != nil {
				yield(nil, fmt.Errorf("failed to list starred repositories (page %d): %w", page, err))
				return
			}

			repos := make([]model.Repository, 0, len(starred))
			for _, s := range starred {
				repos = append(repos, toInternalStarred(s))
			}
			if !yield(repos, nil) {
				return
			}
			if len(starred) < maxPerPage {
				return
			}
		}
		c.logger.Warn("Stopped listing starred repositories at page cap", "max_pages", c.maxPages)
	}
}

// FetchAllStarred collects every starred repository, calling onPage after each
// page with the page number and the running total.
func (c *Client) FetchAllStarred(ctx context.Context, onPage func(page, fetched int)) ([]model.Repository, error) {
	var all []model.Repository
	page := 0
	for repos, err := range c.StarredPages(ctx) {
		if err != nil {
			return nil, err
		}
		page++
		all = append(all, repos...)
		if onPage != nil {
			onPage(page, len(all))
		}
	}
	return all, nil
}

// ListRecentCommits returns up to limit of the newest commits on the default branch.
func (c *Client) ListRecentCommits(ctx context.Context, owner, name string, limit int) ([]model.Activity, error) {
	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: perPage(limit)},
	}
	var commits []*github.RepositoryCommit
	err := c.call(ctx, "list_commits", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		commits, resp, err = c.gh.Repositories.ListCommits(ctx, owner, name, opts)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Activity, 0, len(commits))
	for _, commit := range commits {
		out = append(out, toCommitActivity(commit))
	}
	return out, nil
}

// ListOpenIssues returns up to limit of the newest open issues. The issues
// endpoint also lists pull requests; those are dropped.
func (c *Client) ListOpenIssues(ctx context.Context, owner, name string, limit int) ([]model.Activity, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage(limit)},
	}
	var issues []*github.Issue
	err := c.call(ctx, "list_issues", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		issues, resp, err = c.gh.Issues.ListByRepo(ctx, owner, name, opts)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Activity, 0, len(issues))
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		out = append(out, model.Activity{
			Type:        model.ActivityIssue,
			Title:       issue.GetTitle(),
			Description: truncate(issue.GetBody(), maxBodyRunes),
			URL:         issue.GetHTMLURL(),
			Author:      issue.GetUser().GetLogin(),
			DetectedAt:  issue.GetCreatedAt().Time,
		})
	}
	return out, nil
}

// ListOpenPullRequests returns up to limit of the newest open pull requests.
func (c *Client) ListOpenPullRequests(ctx context.Context, owner, name string, limit int) ([]model.Activity, error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage(limit)},
	}
	var pulls []*github.PullRequest
	err := c.call(ctx, "list_pulls", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		pulls, resp, err = c.gh.PullRequests.List(ctx, owner, name, opts)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Activity, 0, len(pulls))
	for _, pr := range pulls {
		out = append(out, model.Activity{
			Type:        model.ActivityPullRequest,
			Title:       pr.GetTitle(),
			Description: truncate(pr.GetBody(), maxBodyRunes),
			URL:         pr.GetHTMLURL(),
			Author:      pr.GetUser().GetLogin(),
			DetectedAt:  pr.GetCreatedAt().Time,
		})
	}
	return out, nil
}

// RateLimit reports the core quota for the client's credential.
func (c *Client) RateLimit(ctx context.Context) (*custom_errors.RateLimit, error) {
	var limits *github.RateLimits
	err := c.call(ctx, "rate_limit", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		limits, resp, err = c.gh.RateLimit.Get(ctx)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	core := limits.GetCore()
	if core == nil {
		return nil, errors.New("rate limit response has no core bucket")
	}
	return &custom_errors.RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset.Time,
		Used:      core.Limit - core.Remaining,
	}, nil
}

// call runs fn under the transient-failure retry policy. When the quota is
// exhausted and resets within the hour it waits for the reset and tries again;
// those waits do not consume retry attempts.
func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) (*github.Response, error)) error {
	// Rate limiting is handled here rather than by go-github's local guard.
	ctx = context.WithValue(ctx, github.BypassRateLimitCheck, true)

	for {
		err := c.retry.Do(ctx, func(ctx context.Context) error {
			resp, err := fn(ctx)
			c.recordRate(op, resp)
			return translateError(err)
		})
		if err == nil {
			return nil
		}

		var upErr *custom_errors.UpstreamError
		if !errors.As(err, &upErr) || !isQuotaExhausted(upErr) {
			return err
		}

		wait := upErr.Rate.Reset.Sub(c.now())
		if wait <= 0 || wait > maxRateLimitWait {
			return &custom_errors.RateLimitExceededError{Reset: upErr.Rate.Reset}
		}

		c.logger.Warn("GitHub rate limit exhausted, waiting for reset",
			"op", op, "reset", upErr.Rate.Reset, "wait", (wait + rateLimitBuffer).String())
		if err := c.sleep(ctx, wait+rateLimitBuffer); err != nil {
			return err
		}
	}
}

func (c *Client) recordRate(op string, resp *github.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	rate := parseRate(resp.Header)
	if rate == nil {
		return
	}
	c.mu.Lock()
	c.lastRate = rate
	c.mu.Unlock()
	c.logger.Debug("GitHub rate limit", "op", op, "remaining", rate.Remaining, "limit", rate.Limit, "reset", rate.Reset)
}

func isQuotaExhausted(e *custom_errors.UpstreamError) bool {
	if e.Rate == nil || e.Rate.Remaining != 0 {
		return false
	}
	return e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusTooManyRequests
}

// isTransient reports whether err is a network-level failure. Any well-formed
// upstream response is authoritative and is not retried.
func isTransient(err error) bool {
	var upErr *custom_errors.UpstreamError
	return !errors.As(err, &upErr)
}

// translateError maps go-github response errors to UpstreamError and leaves
// transport errors untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var rlErr *github.RateLimitError
	if errors.As(err, &rlErr) {
		return upstreamError(rlErr.Response, rlErr.Message)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return upstreamError(abuseErr.Response, abuseErr.Message)
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		return upstreamError(ghErr.Response, ghErr.Message)
	}
	return err
}

func upstreamError(resp *http.Response, message string) *custom_errors.UpstreamError {
	e := &custom_errors.UpstreamError{Message: message}
	if resp != nil {
		e.StatusCode = resp.StatusCode
		e.Rate = parseRate(resp.Header)
	}
	return e
}

// parseRate reads the X-RateLimit-* headers. It returns nil when they are absent.
func parseRate(h http.Header) *custom_errors.RateLimit {
	limit := h.Get("X-RateLimit-Limit")
	if limit == "" {
		return nil
	}
	rate := &custom_errors.RateLimit{}
	rate.Limit, _ = strconv.Atoi(limit)
	rate.Remaining, _ = strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	rate.Used, _ = strconv.Atoi(h.Get("X-RateLimit-Used"))
	if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		rate.Reset = time.Unix(reset, 0)
	}
	return rate
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func perPage(limit int) int {
	if limit <= 0 || limit > maxPerPage {
		return maxPerPage
	}
	return limit
}

// toInternalStarred translates a starred entry, keeping the time it was starred.
func toInternalStarred(s *github.StarredRepository) model.Repository {
	repo := toInternalRepository(s.GetRepository())
	if s.StarredAt != nil {
		starredAt := s.StarredAt.Time
		repo.StarredAt = &starredAt
	}
	return *repo
}

// toInternalRepository translates a github.Repository object to our internal model.Repository.
func toInternalRepository(r *github.Repository) *model.Repository {
	repo := &model.Repository{
		GithubRepoID:    r.GetID(),
		Owner:           r.GetOwner().GetLogin(),
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		Description:     r.Description,
		URL:             r.GetHTMLURL(),
		Language:        r.Language,
		ForksCount:      r.GetForksCount(),
		StarsCount:      r.GetStargazersCount(),
		OpenIssuesCount: r.GetOpenIssuesCount(),
		Topics:          r.Topics,
		RepoCreatedAt:   r.GetCreatedAt().Time,
		RepoUpdatedAt:   r.GetUpdatedAt().Time,
	}
	if repo.FullName == "" {
		repo.FullName = repo.Owner + "/" + repo.Name
	}
	if r.PushedAt != nil {
		pushedAt := r.PushedAt.Time
		repo.PushedAt = &pushedAt
	}
	return repo
}

// toCommitActivity translates a github.RepositoryCommit into an activity record.
func toCommitActivity(c *github.RepositoryCommit) model.Activity {
	title, body := splitCommitMessage(c.GetCommit().GetMessage())
	author := c.GetAuthor().GetLogin()
	if author == "" {
		author = c.GetCommit().GetAuthor().GetName()
	}
	return model.Activity{
		Type:        model.ActivityCommit,
		Title:       title,
		Description: truncate(body, maxBodyRunes),
		URL:         c.GetHTMLURL(),
		Author:      author,
		DetectedAt:  c.GetCommit().GetAuthor().GetDate().Time,
	}
}

// splitCommitMessage separates the subject line from the rest of the message.
func splitCommitMessage(msg string) (string, string) {
	subject, body, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	return strings.TrimSpace(subject), strings.TrimSpace(body)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
