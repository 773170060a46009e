// Package skillscope constructs verified skill assessments from a
// developer's activity across coding, blogging and freelance platforms.
//
// Basic usage:
//
//	cache, err := httpcache.New(24 * time.Hour)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine, err := skillscope.NewWithDefaultAdapters(ctx, cache)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := engine.Analyze(ctx, "user-1", []skillscope.Source{
//	    {PlatformID: "github", Credentials: skillscope.Credentials{Username: "octocat"}},
//	    {PlatformID: "devto", Credentials: skillscope.Credentials{Username: "octocat"}},
//	})
//
// Callers that already hold raw activity records can skip the network
// entirely and run the deterministic pipeline:
//
//	result, err := engine.AnalyzeRecords(ctx, "user-1", records)
package skillscope

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/skillscope-dev/skillscope/codeforces"
	"github.com/skillscope-dev/skillscope/devto"
	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/github"
	"github.com/skillscope-dev/skillscope/gitlab"
	"github.com/skillscope-dev/skillscope/hackerrank"
	"github.com/skillscope-dev/skillscope/httpcache"
	"github.com/skillscope-dev/skillscope/insight"
	"github.com/skillscope-dev/skillscope/leetcode"
	"github.com/skillscope-dev/skillscope/medium"
	"github.com/skillscope-dev/skillscope/metrics"
	"github.com/skillscope-dev/skillscope/normalize"
	"github.com/skillscope-dev/skillscope/rebalance"
	"github.com/skillscope-dev/skillscope/skill"
)

type (
	// Credentials re-exports evidence.Credentials for convenience.
	Credentials = evidence.Credentials
	// RawRecord re-exports evidence.RawRecord for convenience.
	RawRecord = evidence.RawRecord
	// VerificationResult re-exports skill.VerificationResult for convenience.
	VerificationResult = skill.VerificationResult
)

// Re-export common errors.
var (
	ErrAuthRequired        = evidence.ErrAuthRequired
	ErrInvalidCredentials  = evidence.ErrInvalidCredentials
	ErrRateLimited         = evidence.ErrRateLimited
	ErrPlatformUnavailable = evidence.ErrPlatformUnavailable
	ErrUnknownPlatform     = evidence.ErrUnknownPlatform
)

// Source names one platform to collect evidence from and the
// credentials to use for it.
type Source struct {
	PlatformID  string
	Credentials evidence.Credentials
}

// Engine orchestrates evidence collection and skill construction.
// Create one with New or NewWithDefaultAdapters and reuse it; it is
// safe for concurrent use once all adapters are registered.
type Engine struct {
	logger      *slog.Logger
	now         func() time.Time
	metrics     *metrics.Metrics
	adapters    map[string]evidence.Adapter
	maxParallel int
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	logger      *slog.Logger
	now         func() time.Time
	metrics     *metrics.Metrics
	maxParallel int
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) { c.logger = logger }
}

// WithNow sets the clock used for recency scoring and timestamps.
// Tests pin this for deterministic output.
func WithNow(now func() time.Time) Option {
	return func(c *engineConfig) { c.now = now }
}

// WithMetrics attaches Prometheus collectors to the engine.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *engineConfig) { c.metrics = m }
}

// WithMaxParallel bounds concurrent platform fetches. Default 4.
func WithMaxParallel(n int) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.maxParallel = n
		}
	}
}

// New creates an empty Engine. Register adapters before calling Analyze.
func New(opts ...Option) *Engine {
	cfg := &engineConfig{logger: slog.Default(), now: time.Now, maxParallel: 4}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Engine{
		logger:      cfg.logger,
		now:         cfg.now,
		metrics:     cfg.metrics,
		adapters:    make(map[string]evidence.Adapter),
		maxParallel: cfg.maxParallel,
	}
}

// NewWithDefaultAdapters creates an Engine with every built-in network
// adapter registered, sharing one HTTP cache. Pass a nil cache to fetch
// uncached.
func NewWithDefaultAdapters(ctx context.Context, cache httpcache.Cacher, opts ...Option) (*Engine, error) {
	e := New(opts...)

	constructors := []func() (evidence.Adapter, error){
		func() (evidence.Adapter, error) {
			return github.New(ctx, github.WithLogger(e.logger), github.WithHTTPCache(cache))
		},
		func() (evidence.Adapter, error) {
			return gitlab.New(ctx, gitlab.WithLogger(e.logger), gitlab.WithHTTPCache(cache))
		},
		func() (evidence.Adapter, error) {
			return leetcode.New(ctx, leetcode.WithLogger(e.logger), leetcode.WithHTTPCache(cache))
		},
		func() (evidence.Adapter, error) {
			return codeforces.New(ctx, codeforces.WithLogger(e.logger), codeforces.WithHTTPCache(cache))
		},
		func() (evidence.Adapter, error) {
			return hackerrank.New(ctx, hackerrank.WithLogger(e.logger), hackerrank.WithHTTPCache(cache))
		},
		func() (evidence.Adapter, error) {
			return devto.New(ctx, devto.WithLogger(e.logger), devto.WithHTTPCache(cache))
		},
		func() (evidence.Adapter, error) {
			return medium.New(ctx, medium.WithLogger(e.logger), medium.WithHTTPCache(cache))
		},
	}
	for _, construct := range constructors {
		adapter, err := construct()
		if err != nil {
			return nil, err
		}
		if err := e.Register(adapter); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Register adds a platform adapter. Registering the same platform ID
// twice is an error.
func (e *Engine) Register(adapter evidence.Adapter) error {
	id := adapter.Platform()
	if _, exists := e.adapters[id]; exists {
		return fmt.Errorf("adapter %q already registered", id)
	}
	e.adapters[id] = adapter
	return nil
}

// Adapters lists the registered platforms, sorted by ID.
func (e *Engine) Adapters() []evidence.Description {
	out := make([]evidence.Description, 0, len(e.adapters))
	for _, a := range e.adapters {
		out = append(out, a.Describe())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Analyze collects evidence from every source concurrently and builds
// the verification result. A platform that fails to validate or fetch
// is skipped with a warning; the analysis proceeds on whatever evidence
// the remaining platforms produced. Analyze fails only when the context
// is canceled or no source names a registered platform.
func (e *Engine) Analyze(ctx context.Context, userID string, sources []Source) (*skill.VerificationResult, error) {
	started := e.now()

	var mu sync.Mutex
	perPlatform := make(map[string][]evidence.RawRecord)
	usable := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)

	for _, src := range sources {
		adapter, ok := e.adapters[src.PlatformID]
		if !ok {
			e.logger.WarnContext(ctx, "skipping unknown platform", "platform", src.PlatformID)
			continue
		}
		usable++

		g.Go(func() error {
			records, err := e.collect(gctx, adapter, src)
			if err != nil {
				// Recoverable per platform: log, count, move on.
				e.logger.WarnContext(gctx, "platform collection failed",
					"platform", src.PlatformID, "error", err)
				e.metrics.Fetch(src.PlatformID, "error")
				return nil
			}
			e.metrics.Fetch(src.PlatformID, "ok")
			e.metrics.Records(src.PlatformID, len(records))

			mu.Lock()
			perPlatform[src.PlatformID] = append(perPlatform[src.PlatformID], records...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if usable == 0 && len(sources) > 0 {
		return nil, fmt.Errorf("no usable sources: %w", evidence.ErrUnknownPlatform)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := e.AnalyzeRecords(ctx, userID, perPlatform)
	if err != nil {
		return nil, err
	}
	e.metrics.Analysis(e.now().Sub(started).Seconds())
	return result, nil
}

func (e *Engine) collect(ctx context.Context, adapter evidence.Adapter, src Source) ([]evidence.RawRecord, error) {
	ok, err := adapter.Validate(ctx, src.Credentials)
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if !ok {
		return nil, evidence.ErrInvalidCredentials
	}
	return adapter.Fetch(ctx, src.Credentials)
}

// AnalyzeRecords runs the pure scoring pipeline over pre-fetched raw
// records: normalize, rebalance, construct skills, derive insights.
// Given identical input and a pinned clock, the output is identical
// except for the run ID.
func (e *Engine) AnalyzeRecords(ctx context.Context, userID string, perPlatform map[string][]evidence.RawRecord) (*skill.VerificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := e.now()

	normalizer := normalize.New(normalize.WithLogger(e.logger), normalize.WithNow(e.now))

	// Platforms in sorted order so item order is stable run to run.
	platforms := make([]string, 0, len(perPlatform))
	for id := range perPlatform {
		platforms = append(platforms, id)
	}
	sort.Strings(platforms)

	var items []evidence.Item
	for _, id := range platforms {
		res := normalizer.Records(id, userID, perPlatform[id])
		e.metrics.Dropped(id, res.Dropped)
		items = append(items, res.Items...)
	}

	rebalance.Items(items)

	result := skill.Construct(userID, items, now)
	result.RunID = uuid.NewString()
	result.PlatformWeights = platformWeights(items)
	insight.Generate(result, items, now)

	e.logger.InfoContext(ctx, "analysis complete",
		"user", userID,
		"platforms", len(platforms),
		"items", len(items),
		"skills", len(result.Skills),
		"overall", result.OverallScore,
	)
	return result, nil
}

// platformWeights reports how much each platform's evidence counted:
// quality scaled by a volume factor that saturates at ten items, then
// normalized so the weights sum to 1.
func platformWeights(items []evidence.Item) map[string]float64 {
	if len(items) == 0 {
		return nil
	}

	type acc struct {
		quality float64
		count   int
	}
	byPlatform := make(map[string]*acc)
	for i := range items {
		a := byPlatform[items[i].PlatformID]
		if a == nil {
			a = &acc{}
			byPlatform[items[i].PlatformID] = a
		}
		a.quality += items[i].Quality()
		a.count++
	}

	weights := make(map[string]float64, len(byPlatform))
	total := 0.0
	for id, a := range byPlatform {
		avgQuality := a.quality / float64(a.count)
		w := (avgQuality / 10) * (1 + math.Min(float64(a.count)/10, 1))
		weights[id] = w
		total += w
	}
	if total > 0 {
		for id := range weights {
			weights[id] /= total
		}
	}
	return weights
}
