// Package hackerrank collects HackerRank activity as skill evidence:
// recently solved challenges. Some endpoints need a browser session
// cookie, supplied through credentials or the auth package.
package hackerrank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skillscope-dev/skillscope/auth"
	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/httpcache"
)

const (
	platform = "hackerrank"
	domain   = "www.hackerrank.com"
)

// Client fetches HackerRank activity via the REST API.
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

// New creates a HackerRank client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), baseURL: "https://" + domain + "/rest"}
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
		Name:       "HackerRank",
		Kind:       evidence.KindCoding,
		ProfileURL: "https://www.hackerrank.com/profile/%s",
	}
}

type challengesResponse struct {
	Models []struct {
		CompletedAt string `json:"created_at"`
		Challenge   struct {
			Name string `json:"name"`
			Slug string `json:"slug"`
		} `json:"challenge"`
	} `json:"models"`
	Total int `json:"total"`
}

type profileResponse struct {
	Model struct {
		Username string `json:"username"`
	} `json:"model"`
}

// Validate checks the username and, when a session cookie is required,
// that one is available.
func (c *Client) Validate(ctx context.Context, creds evidence.Credentials) (bool, error) {
	if creds.Username == "" {
		return false, nil
	}

	body, err := c.get(ctx, creds, "/contests/master/hackers/"+url.PathEscape(creds.Username)+"/profile")
	var httpErr *httpcache.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusNotFound:
			return false, nil
		case http.StatusUnauthorized, http.StatusForbidden:
			return false, evidence.ErrAuthRequired
		}
	}
	if err != nil {
		return false, fmt.Errorf("hackerrank validate: %w", err)
	}

	var resp profileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("parse hackerrank profile: %w", err)
	}
	return resp.Model.Username != "", nil
}

// Fetch retrieves recently solved challenges.
func (c *Client) Fetch(ctx context.Context, creds evidence.Credentials) ([]evidence.RawRecord, error) {
	if creds.Username == "" {
		return nil, evidence.ErrInvalidCredentials
	}
	c.logger.InfoContext(ctx, "fetching hackerrank activity", "username", creds.Username)

	body, err := c.get(ctx, creds, "/hackers/"+url.PathEscape(creds.Username)+"/recent_challenges?limit=100")
	if err != nil {
		var httpErr *httpcache.HTTPError
		if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("hackerrank fetch: %w", evidence.ErrAuthRequired)
		}
		return nil, fmt.Errorf("hackerrank fetch: %w", err)
	}

	var resp challengesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse hackerrank challenges: %w", err)
	}

	records := make([]evidence.RawRecord, 0, len(resp.Models))
	for i, m := range resp.Models {
		ts, err := time.Parse(time.RFC3339, m.CompletedAt)
		if err != nil {
			c.logger.Debug("skipping challenge with bad timestamp", "slug", m.Challenge.Slug, "value", m.CompletedAt)
			continue
		}
		records = append(records, evidence.RawRecord{
			ID:        fmt.Sprintf("challenge_%s_%d", m.Challenge.Slug, i),
			Type:      evidence.TypeProblemSolving,
			Timestamp: ts,
			Metadata: map[string]any{
				"title":        m.Challenge.Name,
				"slug":         m.Challenge.Slug,
				"solved_total": resp.Total,
			},
		})
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, creds evidence.Credentials, path string) ([]byte, error) {
	// The session cookie is per-user, so the jar is built per request
	// rather than stored on the shared client.
	client := c.httpClient
	if len(creds.Cookies) > 0 {
		jar, err := auth.NewCookieJar(strings.TrimPrefix(domain, "www."), creds.Cookies)
		if err != nil {
			return nil, fmt.Errorf("build cookie jar: %w", err)
		}
		clone := *c.httpClient
		clone.Jar = jar
		client = &clone
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpcache.UserAgent)
	return httpcache.FetchURL(ctx, c.cache, client, req, c.logger)
}
