// Package custom adapts arbitrary JSON activity endpoints through a
// declarative configuration, so platforms without a dedicated adapter
// can still contribute evidence.
package custom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/httpcache"
)

// Config describes a custom platform: where to fetch activity records
// and how to read them. Validated on construction.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Config struct {
	ID       string            `koanf:"id"       validate:"required,lowercase,alphanum"`
	Name     string            `koanf:"name"     validate:"required"`
	Endpoint string            `koanf:"endpoint" validate:"required,url"`
	Headers  map[string]string `koanf:"headers"`

	// IDField and TimestampField name the JSON keys holding the record
	// identity and time. TypeField is optional; records without one get
	// DefaultType.
	IDField        string        `koanf:"id_field"        validate:"required"`
	TimestampField string        `koanf:"timestamp_field" validate:"required"`
	TimeFormat     string        `koanf:"time_format"` // defaults to RFC 3339
	TypeField      string        `koanf:"type_field"`
	DefaultType    evidence.Type `koanf:"default_type"`
}

// typeSynonyms maps loose activity-type labels found in custom feeds to
// canonical evidence types.
var typeSynonyms = map[string]evidence.Type{
	"commit":        evidence.TypeCodeCommit,
	"push":          evidence.TypeCodeCommit,
	"project":       evidence.TypeProjectCreation,
	"repository":    evidence.TypeProjectCreation,
	"deploy":        evidence.TypeDeployedApp,
	"deployment":    evidence.TypeDeployedApp,
	"release":       evidence.TypeDeployedApp,
	"article":       evidence.TypeArticle,
	"post":          evidence.TypeArticle,
	"blog_post":     evidence.TypeArticle,
	"problem":       evidence.TypeProblemSolving,
	"challenge":     evidence.TypeProblemSolving,
	"contest":       evidence.TypeCompetition,
	"review":        evidence.TypeCodeReview,
	"docs":          evidence.TypeDocumentation,
	"documentation": evidence.TypeDocumentation,
}

// Client fetches activity from a configured JSON endpoint.
type Client struct {
	httpClient *http.Client
	cache      httpcache.Cacher
	logger     *slog.Logger
	cfg        Config
}

// Option configures a Client.
type Option func(*options)

type options struct {
	cache  httpcache.Cacher
	logger *slog.Logger
}

// WithHTTPCache sets the HTTP cache.
func WithHTTPCache(httpCache httpcache.Cacher) Option {
	return func(o *options) { o.cache = httpCache }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

var validate = validator.New()

// New creates a custom platform adapter from a validated config.
func New(_ context.Context, cfg Config, opts ...Option) (*Client, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid custom platform config %q: %w", cfg.ID, err)
	}
	if cfg.DefaultType != "" && !cfg.DefaultType.Known() {
		return nil, fmt.Errorf("invalid custom platform config %q: unknown default type %q", cfg.ID, cfg.DefaultType)
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}

	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      o.cache,
		logger:     o.logger,
		cfg:        cfg,
	}, nil
}

// Platform returns the configured platform identifier.
func (c *Client) Platform() string { return c.cfg.ID }

// Describe identifies this adapter.
func (c *Client) Describe() evidence.Description {
	return evidence.Description{
		ID:   c.cfg.ID,
		Name: c.cfg.Name,
		Kind: evidence.KindCustom,
	}
}

// Validate checks that the endpoint answers.
func (c *Client) Validate(ctx context.Context, creds evidence.Credentials) (bool, error) {
	if _, err := c.fetchRaw(ctx, creds); err != nil {
		return false, fmt.Errorf("custom %s validate: %w", c.cfg.ID, err)
	}
	return true, nil
}

// Fetch retrieves the endpoint's activity objects and maps them to raw
// records using the configured field names. Objects whose timestamp
// does not parse are skipped with a log line; the normalizer drops
// anything else that is malformed.
func (c *Client) Fetch(ctx context.Context, creds evidence.Credentials) ([]evidence.RawRecord, error) {
	c.logger.InfoContext(ctx, "fetching custom platform activity", "platform", c.cfg.ID, "endpoint", c.cfg.Endpoint)

	body, err := c.fetchRaw(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("custom %s fetch: %w", c.cfg.ID, err)
	}

	var objects []map[string]any
	if err := json.Unmarshal(body, &objects); err != nil {
		return nil, fmt.Errorf("custom %s fetch: parse response: %w", c.cfg.ID, err)
	}

	records := make([]evidence.RawRecord, 0, len(objects))
	for _, obj := range objects {
		ts, err := time.Parse(c.cfg.TimeFormat, evidence.MetaString(obj, c.cfg.TimestampField))
		if err != nil {
			c.logger.Debug("skipping record with bad timestamp", "platform", c.cfg.ID, "error", err)
			continue
		}

		id := evidence.MetaString(obj, c.cfg.IDField)
		if id == "" {
			id = uuid.NewString()
		}

		records = append(records, evidence.RawRecord{
			ID:        id,
			Type:      c.recordType(obj),
			Timestamp: ts,
			Metadata:  obj,
		})
	}
	return records, nil
}

// recordType resolves the evidence type for one activity object: the
// type field through the synonym table, then the default type.
func (c *Client) recordType(obj map[string]any) evidence.Type {
	if c.cfg.TypeField != "" {
		label := strings.ToLower(strings.TrimSpace(evidence.MetaString(obj, c.cfg.TypeField)))
		if t, ok := typeSynonyms[label]; ok {
			return t
		}
		if t := evidence.Type(label); t.Known() {
			return t
		}
	}
	return c.cfg.DefaultType
}

func (c *Client) fetchRaw(ctx context.Context, creds evidence.Credentials) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpcache.UserAgent)
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	if creds.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	}
	return httpcache.FetchURL(ctx, c.cache, c.httpClient, req, c.logger)
}
