// Package gitlab collects GitLab activity as skill evidence: owned
// projects and push events.
package gitlab

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

	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/httpcache"
)

const platform = "gitlab"

// Client fetches GitLab activity via the REST API (v4).
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

// New creates a GitLab client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), baseURL: "https://gitlab.com/api/v4"}
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
		Name:       "GitLab",
		Kind:       evidence.KindRepository,
		ProfileURL: "https://gitlab.com/%s",
	}
}

type apiUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type apiProject struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	Stars       int      `json:"star_count"`
	Forks       int      `json:"forks_count"`
	Visibility  string   `json:"visibility"`
	CreatedAt   string   `json:"created_at"`
	LastActive  string   `json:"last_activity_at"`
}

type apiEvent struct {
	ID         int64  `json:"id"`
	ActionName string `json:"action_name"`
	CreatedAt  string `json:"created_at"`
	PushData   struct {
		CommitTitle string `json:"commit_title"`
		CommitCount int    `json:"commit_count"`
	} `json:"push_data"`
}

// Validate checks that the username resolves to an existing account.
func (c *Client) Validate(ctx context.Context, creds evidence.Credentials) (bool, error) {
	if creds.Username == "" {
		return false, nil
	}
	_, err := c.userID(ctx, creds)
	if errors.Is(err, evidence.ErrInvalidCredentials) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Fetch retrieves the user's projects and push events.
func (c *Client) Fetch(ctx context.Context, creds evidence.Credentials) ([]evidence.RawRecord, error) {
	if creds.Username == "" {
		return nil, evidence.ErrInvalidCredentials
	}
	c.logger.InfoContext(ctx, "fetching gitlab activity", "username", creds.Username)

	id, err := c.userID(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("gitlab fetch: %w", err)
	}

	records, err := c.fetchProjects(ctx, creds, id)
	if err != nil {
		return nil, fmt.Errorf("gitlab fetch: %w", err)
	}
	events, err := c.fetchEvents(ctx, creds, id)
	if err != nil {
		return nil, fmt.Errorf("gitlab fetch: %w", err)
	}
	return append(records, events...), nil
}

func (c *Client) userID(ctx context.Context, creds evidence.Credentials) (int64, error) {
	body, err := c.get(ctx, creds, "/users?username="+url.QueryEscape(creds.Username))
	if err != nil {
		return 0, err
	}

	var users []apiUser
	if err := json.Unmarshal(body, &users); err != nil {
		return 0, fmt.Errorf("parse user lookup: %w", err)
	}
	if len(users) == 0 {
		return 0, evidence.ErrInvalidCredentials
	}
	return users[0].ID, nil
}

func (c *Client) fetchProjects(ctx context.Context, creds evidence.Credentials, userID int64) ([]evidence.RawRecord, error) {
	body, err := c.get(ctx, creds, fmt.Sprintf("/users/%d/projects?per_page=100", userID))
	if err != nil {
		return nil, err
	}

	var projects []apiProject
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("parse projects: %w", err)
	}

	records := make([]evidence.RawRecord, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		records = append(records, evidence.RawRecord{
			ID:        fmt.Sprintf("project_%d", p.ID),
			Type:      evidence.TypeProjectCreation,
			Timestamp: parseTime(p.CreatedAt),
			Metadata: map[string]any{
				"title":       p.Name,
				"description": p.Description,
				"topics":      p.Topics,
				"stars":       p.Stars,
				"forks":       p.Forks,
				"private":     p.Visibility == "private",
				"created_at":  p.CreatedAt,
				"updated_at":  p.LastActive,
			},
		})
	}
	return records, nil
}

func (c *Client) fetchEvents(ctx context.Context, creds evidence.Credentials, userID int64) ([]evidence.RawRecord, error) {
	body, err := c.get(ctx, creds, fmt.Sprintf("/users/%d/events?action=pushed&per_page=100", userID))
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
		if !strings.HasPrefix(ev.ActionName, "pushed") {
			continue
		}
		records = append(records, evidence.RawRecord{
			ID:        fmt.Sprintf("event_%d", ev.ID),
			Type:      evidence.TypeCodeCommit,
			Timestamp: parseTime(ev.CreatedAt),
			Metadata: map[string]any{
				"title":   ev.PushData.CommitTitle,
				"commits": ev.PushData.CommitCount,
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
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpcache.UserAgent)
	if creds.AccessToken != "" {
		req.Header.Set("PRIVATE-TOKEN", creds.AccessToken)
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
