// Package medium collects Medium activity as skill evidence: published
// stories read from the author's RSS feed.
package medium

import (
	"context"
	"encoding/xml"
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

const platform = "medium"

// Client fetches Medium stories from the per-author RSS feed. Medium
// has no public JSON API for story listings; the feed is the only
// stable machine-readable surface.
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

// WithBaseURL overrides the feed base URL, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *config) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// New creates a Medium client.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default(), baseURL: "https://medium.com"}
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
		Name:       "Medium",
		Kind:       evidence.KindBlog,
		ProfileURL: "https://medium.com/@%s",
	}
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title      string   `xml:"title"`
	GUID       string   `xml:"guid"`
	PubDate    string   `xml:"pubDate"`
	Categories []string `xml:"category"`
	Encoded    string   `xml:"encoded"` // content:encoded, HTML body
}

// Validate checks that the author feed exists and parses.
func (c *Client) Validate(ctx context.Context, creds evidence.Credentials) (bool, error) {
	if creds.Username == "" {
		return false, nil
	}
	_, err := c.feed(ctx, creds)
	if err != nil {
		var httpErr *httpcache.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("medium validate: %w", err)
	}
	return true, nil
}

// Fetch retrieves the author's published stories.
func (c *Client) Fetch(ctx context.Context, creds evidence.Credentials) ([]evidence.RawRecord, error) {
	if creds.Username == "" {
		return nil, evidence.ErrInvalidCredentials
	}
	c.logger.InfoContext(ctx, "fetching medium stories", "username", creds.Username)

	feed, err := c.feed(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("medium fetch: %w", err)
	}

	records := make([]evidence.RawRecord, 0, len(feed.Channel.Items))
	for i := range feed.Channel.Items {
		item := &feed.Channel.Items[i]
		ts, err := time.Parse(time.RFC1123, item.PubDate)
		if err != nil {
			if ts, err = time.Parse(time.RFC1123Z, item.PubDate); err != nil {
				c.logger.Debug("skipping story with bad pubDate", "guid", item.GUID, "value", item.PubDate)
				continue
			}
		}
		// Feed bodies are HTML; approximate reading time from length
		// at roughly a thousand characters per minute.
		readingMinutes := len(item.Encoded) / 1000

		records = append(records, evidence.RawRecord{
			ID:        "story_" + storyID(item.GUID, i),
			Type:      evidence.TypeArticle,
			Timestamp: ts.UTC(),
			Metadata: map[string]any{
				"title":           item.Title,
				"tags":            item.Categories,
				"reading_minutes": readingMinutes,
				"published_at":    ts.UTC(),
			},
		})
	}
	return records, nil
}

func (c *Client) feed(ctx context.Context, creds evidence.Credentials) (*rssFeed, error) {
	feedURL := c.baseURL + "/feed/@" + url.PathEscape(creds.Username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml")
	req.Header.Set("User-Agent", httpcache.UserAgent)

	body, err := httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse medium feed: %w", err)
	}
	return &feed, nil
}

// storyID extracts the trailing path element of a Medium GUID URL, or
// falls back to the item index.
func storyID(guid string, index int) string {
	if idx := strings.LastIndex(guid, "/"); idx >= 0 && idx < len(guid)-1 {
		return guid[idx+1:]
	}
	if guid != "" {
		return guid
	}
	return fmt.Sprintf("%d", index)
}
