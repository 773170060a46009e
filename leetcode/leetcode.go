// Package leetcode collects LeetCode activity as skill evidence:
// recently accepted submissions with solved-total context.
package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/httpcache"
)

const platform = "leetcode"

const graphQLQuery = `
query userActivity($username: String!) {
  matchedUser(username: $username) {
    username
    profile { ranking }
    submitStats {
      acSubmissionNum { difficulty count }
    }
  }
  recentAcSubmissionList(username: $username, limit: 100) {
    id
    title
    titleSlug
    timestamp
  }
}`

// Client fetches LeetCode activity via the GraphQL API.
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

// WithBaseURL overrides the GraphQL endpoint, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// New creates a LeetCode client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), baseURL: "https://leetcode.com/graphql"}
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
		Name:       "LeetCode",
		Kind:       evidence.KindCoding,
		ProfileURL: "https://leetcode.com/u/%s/",
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data struct {
		MatchedUser *struct {
			Username string `json:"username"`
			Profile  struct {
				Ranking int `json:"ranking"`
			} `json:"profile"`
			SubmitStats struct {
				ACSubmissionNum []struct {
					Difficulty string `json:"difficulty"`
					Count      int    `json:"count"`
				} `json:"acSubmissionNum"`
			} `json:"submitStats"`
		} `json:"matchedUser"`
		RecentAcSubmissionList []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			TitleSlug string `json:"titleSlug"`
			Timestamp string `json:"timestamp"`
		} `json:"recentAcSubmissionList"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Validate checks that the username resolves to an existing account.
func (c *Client) Validate(ctx context.Context, creds evidence.Credentials) (bool, error) {
	if creds.Username == "" {
		return false, nil
	}
	resp, err := c.query(ctx, creds)
	if err != nil {
		return false, err
	}
	return resp.Data.MatchedUser != nil && resp.Data.MatchedUser.Username != "", nil
}

// Fetch retrieves the user's recently accepted submissions. Each one
// becomes a problem-solving record carrying the account's solved total
// and ranking for scoring context.
func (c *Client) Fetch(ctx context.Context, creds evidence.Credentials) ([]evidence.RawRecord, error) {
	if creds.Username == "" {
		return nil, evidence.ErrInvalidCredentials
	}
	c.logger.InfoContext(ctx, "fetching leetcode activity", "username", creds.Username)

	resp, err := c.query(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("leetcode fetch: %w", err)
	}
	if resp.Data.MatchedUser == nil || resp.Data.MatchedUser.Username == "" {
		return nil, evidence.ErrInvalidCredentials
	}

	solvedTotal := 0
	for _, n := range resp.Data.MatchedUser.SubmitStats.ACSubmissionNum {
		if strings.EqualFold(n.Difficulty, "All") {
			solvedTotal = n.Count
		}
	}
	ranking := resp.Data.MatchedUser.Profile.Ranking

	records := make([]evidence.RawRecord, 0, len(resp.Data.RecentAcSubmissionList))
	for _, sub := range resp.Data.RecentAcSubmissionList {
		unix, err := strconv.ParseInt(sub.Timestamp, 10, 64)
		if err != nil {
			c.logger.Debug("skipping submission with bad timestamp", "id", sub.ID, "timestamp", sub.Timestamp)
			continue
		}
		records = append(records, evidence.RawRecord{
			ID:        "submission_" + sub.ID,
			Type:      evidence.TypeProblemSolving,
			Timestamp: time.Unix(unix, 0).UTC(),
			Metadata: map[string]any{
				"title":        sub.Title,
				"slug":         sub.TitleSlug,
				"solved_total": solvedTotal,
				"ranking":      ranking,
			},
		})
	}
	return records, nil
}

func (c *Client) query(ctx context.Context, creds evidence.Credentials) (*graphQLResponse, error) {
	jsonBody, err := json.Marshal(graphQLRequest{
		Query:     graphQLQuery,
		Variables: map[string]any{"username": creds.Username},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpcache.UserAgent)
	for name, value := range creds.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	body, err := httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
	if err != nil {
		return nil, err
	}

	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse leetcode response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("leetcode API error: %s", resp.Errors[0].Message)
	}
	return &resp, nil
}
