// Package codeforces collects Codeforces activity as skill evidence:
// accepted submissions and contest rating changes.
package codeforces

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

const platform = "codeforces"

// Client fetches Codeforces activity via the public API.
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

// New creates a Codeforces client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), baseURL: "https://codeforces.com/api"}
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
		Name:       "Codeforces",
		Kind:       evidence.KindCoding,
		ProfileURL: "https://codeforces.com/profile/%s",
	}
}

type statusResponse struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  []apiSubmission `json:"result"`
}

type apiSubmission struct {
	ID      int64  `json:"id"`
	Seconds int64  `json:"creationTimeSeconds"`
	Verdict string `json:"verdict"`
	Lang    string `json:"programmingLanguage"`
	Problem struct {
		Name   string   `json:"name"`
		Rating int      `json:"rating"`
		Tags   []string `json:"tags"`
	} `json:"problem"`
}

type ratingResponse struct {
	Status  string      `json:"status"`
	Comment string      `json:"comment"`
	Result  []apiRating `json:"result"`
}

type apiRating struct {
	ContestID   int64  `json:"contestId"`
	ContestName string `json:"contestName"`
	Rank        int    `json:"rank"`
	Seconds     int64  `json:"ratingUpdateTimeSeconds"`
	OldRating   int    `json:"oldRating"`
	NewRating   int    `json:"newRating"`
}

// Validate checks that the handle resolves to an existing account.
func (c *Client) Validate(ctx context.Context, creds evidence.Credentials) (bool, error) {
	if creds.Username == "" {
		return false, nil
	}

	var resp ratingResponse
	err := c.get(ctx, "/user.rating?handle="+url.QueryEscape(creds.Username), &resp)
	if err != nil {
		var httpErr *httpcache.HTTPError
		// The API answers 400 with status FAILED for unknown handles.
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusBadRequest {
			return false, nil
		}
		return false, fmt.Errorf("codeforces validate: %w", err)
	}
	return resp.Status == "OK", nil
}

// Fetch retrieves accepted submissions and contest rating changes.
func (c *Client) Fetch(ctx context.Context, creds evidence.Credentials) ([]evidence.RawRecord, error) {
	if creds.Username == "" {
		return nil, evidence.ErrInvalidCredentials
	}
	handle := url.QueryEscape(creds.Username)
	c.logger.InfoContext(ctx, "fetching codeforces activity", "handle", creds.Username)

	var status statusResponse
	if err := c.get(ctx, "/user.status?handle="+handle+"&from=1&count=200", &status); err != nil {
		return nil, fmt.Errorf("codeforces fetch: %w", err)
	}
	if status.Status != "OK" {
		return nil, fmt.Errorf("codeforces fetch: %w: %s", evidence.ErrPlatformUnavailable, status.Comment)
	}

	var records []evidence.RawRecord
	for i := range status.Result {
		sub := &status.Result[i]
		if sub.Verdict != "OK" {
			continue
		}
		records = append(records, evidence.RawRecord{
			ID:        fmt.Sprintf("submission_%d", sub.ID),
			Type:      evidence.TypeProblemSolving,
			Timestamp: time.Unix(sub.Seconds, 0).UTC(),
			Metadata: map[string]any{
				"title":    sub.Problem.Name,
				"rating":   sub.Problem.Rating,
				"tags":     sub.Problem.Tags,
				"language": sub.Lang,
			},
		})
	}

	var rating ratingResponse
	if err := c.get(ctx, "/user.rating?handle="+handle, &rating); err != nil {
		return nil, fmt.Errorf("codeforces fetch: %w", err)
	}
	for i := range rating.Result {
		rc := &rating.Result[i]
		records = append(records, evidence.RawRecord{
			ID:        fmt.Sprintf("contest_%d", rc.ContestID),
			Type:      evidence.TypeCompetition,
			Timestamp: time.Unix(rc.Seconds, 0).UTC(),
			Metadata: map[string]any{
				"contest_name": rc.ContestName,
				"rank":         rc.Rank,
				"rating_delta": rc.NewRating - rc.OldRating,
				"new_rating":   rc.NewRating,
			},
		})
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpcache.UserAgent)

	body, err := httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse codeforces response: %w", err)
	}
	return nil
}
