// Package github collects GitHub activity as skill evidence: owned
// repositories, push events and merged pull requests.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/httpcache"
)

const platform = "github"

// Client fetches GitHub activity via the REST API.
type Client struct {
	httpClient *http.Client
	cache      httpcache.Cacher
	logger     *slog.Logger
	baseURL    string
}

// Option configures a Client.
type Option func(*config)

type config struct {
	cache   httpcache.Cacher
	logger  *slog.Logger
	baseURL string
}

// WithHTTPCache sets the HTTP cache.
func WithHTTPCache(httpCache httpcache.Cacher) Option {
	return func(c *config) { c.cache = httpCache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// New creates a GitHub client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), baseURL: "https://api.github.com"}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cfg.cache,
		logger:     cfg.logger,
		baseURL:    cfg.baseURL,
	}, nil
}

// Platform returns the platform identifier.
func (c *Client) Platform() string { return platform }

// Describe identifies this adapter.
func (c *Client) Describe() evidence.Description {
	return evidence.Description{
		ID:         platform,
		Name:       "GitHub",
		Kind:       evidence.KindRepository,
		ProfileURL: "https://github.com/%s",
	}
}

// Validate checks that the username resolves to an existing account.
func (c *Client) Validate(ctx context.Context, creds evidence.Credentials) (bool, error) {
	if creds.Username == "" {
		return false, nil
	}

	_, err := c.get(ctx, creds, "/users/"+url.PathEscape(creds.Username))
	var httpErr *httpcache.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("github validate: %w", err)
	}
	return true, nil
}

type apiRepo struct {
	ID          int64    `json:"id"`
	FullName    string   `json:"full_name"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	SizeKB      int      `json:"size"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Watchers    int      `json:"watchers_count"`
	Private     bool     `json:"private"`
	Fork        bool     `json:"fork"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	PushedAt    string   `json:"pushed_at"`
}

type apiEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Commits []struct {
			Message string `json:"message"`
		} `json:"commits"`
	} `json:"payload"`
}

type searchResult struct {
	Items []struct {
		ID        int64  `json:"id"`
		Title     string `json:"title"`
		Body      string `json:"body"`
		CreatedAt string `json:"created_at"`
		ClosedAt  string `json:"closed_at"`
	} `json:"items"`
}

// Fetch retrieves the user's repositories, push events and merged pull
// requests. The three endpoints are fetched concurrently; a failure in
// any one fails the whole fetch so the caller can decide what to skip.
func (c *Client) Fetch(ctx context.Context, creds evidence.Credentials) ([]evidence.RawRecord, error) {
	if creds.Username == "" {
		return nil, evidence.ErrInvalidCredentials
	}
	user := url.PathEscape(creds.Username)
	c.logger.InfoContext(ctx, "fetching github activity", "username", creds.Username)

	var mu sync.Mutex
	var records []evidence.RawRecord
	add := func(recs []evidence.RawRecord) {
		mu.Lock()
		records = append(records, recs...)
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := c.fetchRepos(ctx, creds, user)
		if err != nil {
			return err
		}
		add(recs)
		return nil
	})
	g.Go(func() error {
		recs, err := c.fetchEvents(ctx, creds, user)
		if err != nil {
			return err
		}
		add(recs)
		return nil
	})
	g.Go(func() error {
		recs, err := c.fetchMergedPRs(ctx, creds, user)
		if err != nil {
			return err
		}
		add(recs)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("github fetch: %w", err)
	}
	return records, nil
}

func (c *Client) fetchRepos(ctx context.Context, creds evidence.Credentials, user string) ([]evidence.RawRecord, error) {
	body, err := c.get(ctx, creds, "/users/"+user+"/repos?sort=updated&per_page=100")
	if err != nil {
		return nil, err
	}

	var repos []apiRepo
	if err := json.Unmarshal(body, &repos); err != nil {
		return nil, fmt.Errorf("parse repos: %w", err)
	}

	records := make([]evidence.RawRecord, 0, len(repos))
	for i := range repos {
		r := &repos[i]
		if r.Fork {
			continue
		}
		created := parseTime(r.CreatedAt)
		records = append(records, evidence.RawRecord{
			ID:        fmt.Sprintf("repo_%d", r.ID),
			Type:      evidence.TypeProjectCreation,
			Timestamp: created,
			Metadata: map[string]any{
				"title":       r.Name,
				"description": r.Description,
				"language":    r.Language,
				"topics":      r.Topics,
				"size_kb":     r.SizeKB,
				"stars":       r.Stars,
				"forks":       r.Forks,
				"watchers":    r.Watchers,
				"private":     r.Private,
				"created_at":  r.CreatedAt,
				"updated_at":  r.UpdatedAt,
				"pushed":      r.PushedAt != "",
			},
		})
	}
	return records, nil
}

func (c *Client) fetchEvents(ctx context.Context, creds evidence.Credentials, user string) ([]evidence.RawRecord, error) {
	body, err := c.get(ctx, creds, "/users/"+user+"/events/public?per_page=100")
	if err != nil {
		return nil, err
	}

	var events []apiEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}

	var records []evidence.RawRecord
	for i := range events {
		ev := &events[i]
		if ev.Type != "PushEvent" {
			continue
		}
		title := ""
		if len(ev.Payload.Commits) > 0 {
			title = ev.Payload.Commits[0].Message
		}
		records = append(records, evidence.RawRecord{
			ID:        "event_" + ev.ID,
			Type:      evidence.TypeCodeCommit,
			Timestamp: parseTime(ev.CreatedAt),
			Metadata: map[string]any{
				"title":       title,
				"description": ev.Repo.Name,
				"commits":     len(ev.Payload.Commits),
			},
		})
	}
	return records, nil
}

func (c *Client) fetchMergedPRs(ctx context.Context, creds evidence.Credentials, user string) ([]evidence.RawRecord, error) {
	query := url.QueryEscape("author:" + creds.Username + " type:pr is:merged")
	body, err := c.get(ctx, creds, "/search/issues?q="+query+"&per_page=50")
	if err != nil {
		return nil, err
	}

	var result searchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse pull requests: %w", err)
	}

	records := make([]evidence.RawRecord, 0, len(result.Items))
	for i := range result.Items {
		pr := &result.Items[i]
		records = append(records, evidence.RawRecord{
			ID:        fmt.Sprintf("pr_%d", pr.ID),
			Type:      evidence.TypeOpenSource,
			Timestamp: parseTime(pr.CreatedAt),
			Metadata: map[string]any{
				"title":  pr.Title,
				"body":   pr.Body,
				"merged": true,
			},
		})
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, creds evidence.Credentials, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", httpcache.UserAgent)
	if creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	return httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
