// Package devto collects dev.to activity as skill evidence: published
// articles with engagement counts.
package devto

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/httpcache"
)

const platform = "devto"

// Client fetches dev.to articles via the Forem API.
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

// New creates a dev.to client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), baseURL: "https://dev.to/api"}
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
		Name:       "DEV Community",
		Kind:       evidence.KindBlog,
		ProfileURL: "https://dev.to/%s",
	}
}

type apiArticle struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Tags           []string `json:"tag_list"`
	Reactions      int      `json:"positive_reactions_count"`
	Comments       int      `json:"comments_count"`
	ReadingMinutes int      `json:"reading_time_minutes"`
	PublishedAt    string   `json:"published_at"`
}

// Validate checks that the username has a dev.to presence. An account
// with zero articles still validates.
func (c *Client) Validate(ctx context.Context, creds evidence.Credentials) (bool, error) {
	if creds.Username == "" {
		return false, nil
	}
	_, err := c.articles(ctx, creds)
	if err != nil {
		return false, fmt.Errorf("devto validate: %w", err)
	}
	return true, nil
}

// Fetch retrieves the user's published articles.
func (c *Client) Fetch(ctx context.Context, creds evidence.Credentials) ([]evidence.RawRecord, error) {
	if creds.Username == "" {
		return nil, evidence.ErrInvalidCredentials
	}
	c.logger.InfoContext(ctx, "fetching devto articles", "username", creds.Username)

	articles, err := c.articles(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("devto fetch: %w", err)
	}

	records := make([]evidence.RawRecord, 0, len(articles))
	for i := range articles {
		a := &articles[i]
		ts, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			c.logger.Debug("skipping article with bad timestamp", "id", a.ID, "value", a.PublishedAt)
			continue
		}
		records = append(records, evidence.RawRecord{
			ID:        fmt.Sprintf("article_%d", a.ID),
			Type:      evidence.TypeArticle,
			Timestamp: ts,
			Metadata: map[string]any{
				"title":           a.Title,
				"description":     a.Description,
				"tags":            a.Tags,
				"reactions":       a.Reactions,
				"comments":        a.Comments,
				"reading_minutes": a.ReadingMinutes,
				"published_at":    ts,
			},
		})
	}
	return records, nil
}

func (c *Client) articles(ctx context.Context, creds evidence.Credentials) ([]apiArticle, error) {
	path := "/articles?username=" + url.QueryEscape(creds.Username) + "&per_page=100"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpcache.UserAgent)
	if creds.APIKey != "" {
		req.Header.Set("api-key", creds.APIKey)
	}

	body, err := httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
	if err != nil {
		return nil, err
	}

	var articles []apiArticle
	if err := json.Unmarshal(body, &articles); err != nil {
		return nil, fmt.Errorf("parse articles: %w", err)
	}
	return articles, nil
}
