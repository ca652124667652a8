// Package github fetches repository statistics from the GitHub API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the GitHub REST API base URL.
	BaseURL = "https://api.github.com"

	// DefaultTimeout bounds each request.
	DefaultTimeout = 10 * time.Second

	// RateLimit keeps bursts of dashboard refreshes well under the
	// unauthenticated limit.
	RateLimit = 5.0

	// TopLanguages is how many languages Stats reports.
	TopLanguages = 5

	userAgent = "citedash"
)

// Errors.
var (
	ErrInvalidURL   = errors.New("invalid GitHub URL format")
	ErrRepoNotFound = errors.New("repository not found (404)")
	ErrRateLimited  = errors.New("GitHub API rate limit exceeded")
	ErrUnauthorized = errors.New("GitHub API authentication failed")
	ErrAPIError     = errors.New("GitHub API error")
	ErrNetworkError = errors.New("network error connecting to GitHub")
)

// Client is a rate-limited GitHub API client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the token sent as a Bearer credential.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithRateLimit replaces the default request rate.
func WithRateLimit(limit rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithLogger logs degraded sub-requests.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a GitHub API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// urlPatterns for parsing GitHub URLs.
var (
	// Matches: https://github.com/owner/repo, https://github.com/owner/repo.git, github.com/owner/repo
	fullURLPattern = regexp.MustCompile(`^(?:https?://)?github\.com/([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?/?$`)
	// Matches: owner/repo
	shorthandPattern = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+)$`)

	lastPagePattern = regexp.MustCompile(`[?&]page=(\d+)[^>]*>;\s*rel="last"`)
)

// ParseGitHubURL parses a GitHub URL or owner/repo shorthand.
// Supported formats:
//   - https://github.com/owner/repo
//   - https://github.com/owner/repo.git
//   - github.com/owner/repo
//   - owner/repo
func ParseGitHubURL(input string) (owner, repo string, err error) {
	input = strings.TrimSpace(input)

	if matches := fullURLPattern.FindStringSubmatch(input); matches != nil {
		return matches[1], matches[2], nil
	}
	if matches := shorthandPattern.FindStringSubmatch(input); matches != nil {
		return matches[1], matches[2], nil
	}
	return "", "", ErrInvalidURL
}

// NormalizeGitHubURL normalizes a GitHub URL input to the canonical https form.
func NormalizeGitHubURL(input string) (string, error) {
	owner, repo, err := ParseGitHubURL(input)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo), nil
}

// Language is one entry of a repository's language breakdown.
type Language struct {
	Name       string  `json:"name"`
	Bytes      int64   `json:"bytes"`
	Percentage float64 `json:"percentage"` // One decimal place
}

// Stats is the repository summary shown next to a dashboard.
type Stats struct {
	Owner         string     `json:"owner"`
	Repo          string     `json:"repo"`
	URL           string     `json:"url"`
	Description   string     `json:"description,omitempty"`
	Language      string     `json:"language,omitempty"`
	License       string     `json:"license,omitempty"`
	DefaultBranch string     `json:"default_branch,omitempty"`
	Size          int        `json:"size"` // KiB
	Stars         int        `json:"stars"`
	Forks         int        `json:"forks"`
	OpenIssues    int        `json:"open_issues"`
	Contributors  int        `json:"contributors"`
	Languages     []Language `json:"languages"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type repoResponse struct {
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	HTMLURL       string    `json:"html_url"`
	DefaultBranch string    `json:"default_branch"`
	Size          int       `json:"size"`
	Stars         int       `json:"stargazers_count"`
	Forks         int       `json:"forks_count"`
	OpenIssues    int       `json:"open_issues_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	License       *struct {
		Name string `json:"name"`
	} `json:"license"`
}

// FetchStats fetches statistics for a GitHub URL or owner/repo shorthand.
func (c *Client) FetchStats(ctx context.Context, urlOrShorthand string) (*Stats, error) {
	owner, repo, err := ParseGitHubURL(urlOrShorthand)
	if err != nil {
		return nil, err
	}
	return c.FetchRepoStats(ctx, owner, repo)
}

// FetchRepoStats fetches the repository, its contributor count and its
// language breakdown concurrently. Only the repository request is
// required: contributor and language failures degrade to zero and empty.
func (c *Client) FetchRepoStats(ctx context.Context, owner, repo string) (*Stats, error) {
	var (
		info         repoResponse
		contributors int
		languages    = []Language{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, fmt.Sprintf("/repos/%s/%s", owner, repo), &info)
	})
	g.Go(func() error {
		n, err := c.fetchContributorCount(gctx, owner, repo)
		if err != nil {
			c.logger.Debug("contributors unavailable", zap.String("repo", owner+"/"+repo), zap.Error(err))
			return nil
		}
		contributors = n
		return nil
	})
	g.Go(func() error {
		var bytesByLang map[string]int64
		if err := c.getJSON(gctx, fmt.Sprintf("/repos/%s/%s/languages", owner, repo), &bytesByLang); err != nil {
			c.logger.Debug("languages unavailable", zap.String("repo", owner+"/"+repo), zap.Error(err))
			return nil
		}
		languages = TopLanguageShares(bytesByLang, TopLanguages)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Stats{
		Owner:         owner,
		Repo:          repo,
		URL:           info.HTMLURL,
		Description:   info.Description,
		Language:      info.Language,
		DefaultBranch: info.DefaultBranch,
		Size:          info.Size,
		Stars:         info.Stars,
		Forks:         info.Forks,
		OpenIssues:    info.OpenIssues,
		Contributors:  contributors,
		Languages:     languages,
		CreatedAt:     info.CreatedAt,
		UpdatedAt:     info.UpdatedAt,
	}
	if info.License != nil {
		s.License = info.License.Name
	}
	if s.URL == "" {
		s.URL = fmt.Sprintf("https://github.com/%s/%s", owner, repo)
	}
	return s, nil
}

// fetchContributorCount asks for one contributor per page and reads the
// total from the Link header's last page. Without a Link header every
// contributor fits on the page.
func (c *Client) fetchContributorCount(ctx context.Context, owner, repo string) (int, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contributors?per_page=1", owner, repo))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// 204 is returned for empty repositories.
	if resp.StatusCode == http.StatusNoContent {
		return 0, nil
	}
	if n, ok := LastPage(resp.Header.Get("Link")); ok {
		return n, nil
	}
	var page []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return 0, fmt.Errorf("%w: decoding contributors: %v", ErrAPIError, err)
	}
	return len(page), nil
}

// LastPage extracts the page number of the rel="last" link.
func LastPage(link string) (int, bool) {
	m := lastPagePattern.FindStringSubmatch(link)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// TopLanguageShares returns the n largest languages by bytes with their
// share of all bytes. Ties are broken by name.
func TopLanguageShares(bytesByLang map[string]int64, n int) []Language {
	var total int64
	langs := make([]Language, 0, len(bytesByLang))
	for name, b := range bytesByLang {
		total += b
		langs = append(langs, Language{Name: name, Bytes: b})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].Bytes != langs[j].Bytes {
			return langs[i].Bytes > langs[j].Bytes
		}
		return langs[i].Name < langs[j].Name
	})
	if len(langs) > n {
		langs = langs[:n]
	}
	if total > 0 {
		for i := range langs {
			langs[i].Percentage = math.Round(float64(langs[i].Bytes)/float64(total)*1000) / 10
		}
	}
	return langs
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrAPIError, err)
	}
	return nil
}

// get performs one rate-limited request and maps failure statuses to
// sentinel errors. The caller closes the body of a successful response.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, ErrRepoNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return nil, ErrRateLimited
		}
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}
}
