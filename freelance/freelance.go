// Package freelance turns manually supplied freelance project data into
// skill evidence. There is no freelance platform API to call; clients,
// budgets and reviews are entered by the user and passed in here.
package freelance

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/skillscope-dev/skillscope/evidence"
)

const platform = "freelance"

// Project is one completed or in-progress freelance engagement.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Project struct {
	ID           string // optional; a stable ID keeps analysis runs reproducible
	Title        string
	Description  string
	Client       string
	Budget       float64
	DurationDays int
	Technologies []string
	Status       string // "completed", "in_progress", ...
	ClientRating float64
	Review       string
	CompletedAt  time.Time
}

// Client adapts a static list of projects to the adapter contract.
type Client struct {
	logger   *slog.Logger
	projects []Project
}

// Option configures a Client.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	projects []Project
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithProjects supplies the freelance project data.
func WithProjects(projects []Project) Option {
	return func(c *config) { c.projects = projects }
}

// New creates a freelance adapter.
func New(_ context.Context, opts ...Option) (*Client, error) {
	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{logger: cfg.logger, projects: cfg.projects}, nil
}

// Platform returns the platform identifier.
func (c *Client) Platform() string { return platform }

// Describe identifies this adapter.
func (c *Client) Describe() evidence.Description {
	return evidence.Description{
		ID:   platform,
		Name: "Freelance Projects",
		Kind: evidence.KindFreelance,
	}
}

// Validate reports whether any project data was supplied. Credentials
// are not used; the data itself is the credential.
func (c *Client) Validate(_ context.Context, _ evidence.Credentials) (bool, error) {
	return len(c.projects) > 0, nil
}

// Fetch converts the supplied projects into raw records. Projects
// without an ID get a generated one.
func (c *Client) Fetch(ctx context.Context, _ evidence.Credentials) ([]evidence.RawRecord, error) {
	c.logger.InfoContext(ctx, "converting freelance projects", "count", len(c.projects))

	records := make([]evidence.RawRecord, 0, len(c.projects))
	for i := range c.projects {
		p := &c.projects[i]
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		records = append(records, evidence.RawRecord{
			ID:        "project_" + id,
			Type:      evidence.TypeFreelanceProject,
			Timestamp: p.CompletedAt,
			Metadata: map[string]any{
				"title":         p.Title,
				"description":   p.Description,
				"client":        p.Client,
				"budget":        p.Budget,
				"duration_days": p.DurationDays,
				"technologies":  p.Technologies,
				"status":        p.Status,
				"client_rating": p.ClientRating,
				"review":        p.Review,
			},
		})
	}
	return records, nil
}
