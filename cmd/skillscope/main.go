// Command skillscope builds a verified skill assessment from developer
// activity across platforms.
//
// Usage:
//
//	skillscope -user octocat -platforms github,devto
//	skillscope -config skillscope.yaml
//	skillscope -user octocat -records activity.json   # offline, no network
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/skillscope-dev/skillscope"
	"github.com/skillscope-dev/skillscope/auth"
	"github.com/skillscope-dev/skillscope/custom"
	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/freelance"
	"github.com/skillscope-dev/skillscope/httpcache"
)

// fileConfig is the YAML configuration shape.
type fileConfig struct {
	User    string `koanf:"user"`
	Sources []struct {
		Platform string            `koanf:"platform"`
		Username string            `koanf:"username"`
		Token    string            `koanf:"token"`
		APIKey   string            `koanf:"api_key"`
		Cookies  map[string]string `koanf:"cookies"`
	} `koanf:"sources"`
	Freelance struct {
		Projects []freelance.Project `koanf:"projects"`
	} `koanf:"freelance"`
	Custom []custom.Config `koanf:"custom"`
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	verbose := flag.Bool("v", false, "verbose logging (same as -debug)")
	noBrowser := flag.Bool("no-browser", false, "disable reading cookies from browser stores (enabled by default)")
	noCache := flag.Bool("no-cache", false, "disable HTTP caching (enabled by default with 24h TTL)")
	cacheTTL := flag.Duration("cache-ttl", 24*time.Hour, "cache time-to-live")
	configPath := flag.String("config", "", "YAML config file describing sources")
	recordsPath := flag.String("records", "", "JSON file of pre-fetched raw records; runs the pipeline offline")
	user := flag.String("user", "", "user ID the assessment is for")
	platforms := flag.String("platforms", "", "comma-separated platforms to fetch, using -user as the username on each")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug || *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *user != "" {
		cfg.User = *user
	}
	if cfg.User == "" {
		fmt.Fprintln(os.Stderr, "Usage: skillscope [options]")
		fmt.Fprintln(os.Stderr, "\nA user ID is required (-user or the config file's user key).")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	// Offline mode: score pre-fetched records, no adapters and no network.
	if *recordsPath != "" {
		engine := skillscope.New(skillscope.WithLogger(logger))
		perPlatform, err := loadRecords(*recordsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Records error: %v\n", err)
			os.Exit(1)
		}
		result, err := engine.AnalyzeRecords(ctx, cfg.User, perPlatform)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := outputJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var httpCache *httpcache.Cache
	if !*noCache {
		httpCache, err = httpcache.New(*cacheTTL)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without cache", "error", err)
		} else {
			defer func() {
				if err := httpCache.Close(); err != nil {
					logger.Warn("failed to close cache", "error", err)
				}
			}()
			logger.Debug("HTTP cache initialized", "ttl", cacheTTL.String())
		}
	}

	var cacher httpcache.Cacher
	if httpCache != nil {
		cacher = httpCache
	}
	engine, err := skillscope.NewWithDefaultAdapters(ctx, cacher, skillscope.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err) //nolint:gocritic // exitAfterDefer is acceptable in main
		os.Exit(1)
	}

	if len(cfg.Freelance.Projects) > 0 {
		adapter, err := freelance.New(ctx,
			freelance.WithLogger(logger),
			freelance.WithProjects(cfg.Freelance.Projects))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := engine.Register(adapter); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	for _, cc := range cfg.Custom {
		adapter, err := custom.New(ctx, cc, custom.WithLogger(logger), custom.WithHTTPCache(cacher))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := engine.Register(adapter); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	sources := buildSources(ctx, cfg, *platforms, *noBrowser, logger)
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no sources configured (use -platforms or a config file)")
		os.Exit(1)
	}

	result, err := engine.Analyze(ctx, cfg.User, sources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := outputJSON(result); err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the YAML config file, then lets SKILLSCOPE_*
// environment variables override scalar keys (SKILLSCOPE_USER etc.).
func loadConfig(path string) (*fileConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("SKILLSCOPE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SKILLSCOPE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg fileConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// buildSources merges config-file sources with -platforms, filling in
// cookies from the environment and browser stores when a cookie-auth
// platform has none configured.
func buildSources(ctx context.Context, cfg *fileConfig, platformsFlag string, noBrowser bool, logger *slog.Logger) []skillscope.Source {
	var sources []skillscope.Source

	cookieSources := []auth.Source{auth.EnvSource{}}
	if !noBrowser {
		cookieSources = append(cookieSources, auth.NewBrowserSource(logger))
	}

	for _, s := range cfg.Sources {
		creds := evidence.Credentials{
			Username:    s.Username,
			AccessToken: s.Token,
			APIKey:      s.APIKey,
			Cookies:     s.Cookies,
		}
		if len(creds.Cookies) == 0 {
			if cookies, err := auth.ChainSources(ctx, s.Platform, cookieSources...); err == nil && len(cookies) > 0 {
				creds.Cookies = cookies
				logger.Debug("using discovered cookies", "platform", s.Platform, "count", len(cookies))
			}
		}
		sources = append(sources, skillscope.Source{PlatformID: s.Platform, Credentials: creds})
	}

	if platformsFlag != "" {
		for _, id := range strings.Split(platformsFlag, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			creds := evidence.Credentials{Username: cfg.User}
			if cookies, err := auth.ChainSources(ctx, id, cookieSources...); err == nil && len(cookies) > 0 {
				creds.Cookies = cookies
			}
			sources = append(sources, skillscope.Source{PlatformID: id, Credentials: creds})
		}
	}
	return sources
}

// rawRecord is the JSON shape of one pre-fetched record in -records mode.
type rawRecord struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

func loadRecords(path string) (map[string][]evidence.RawRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path is the point
	if err != nil {
		return nil, err
	}

	var byPlatform map[string][]rawRecord
	if err := json.Unmarshal(data, &byPlatform); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make(map[string][]evidence.RawRecord, len(byPlatform))
	for platform, recs := range byPlatform {
		converted := make([]evidence.RawRecord, 0, len(recs))
		for _, r := range recs {
			converted = append(converted, evidence.RawRecord{
				ID:        r.ID,
				Type:      evidence.Type(r.Type),
				Timestamp: r.Timestamp,
				Metadata:  r.Metadata,
			})
		}
		out[platform] = converted
	}
	return out, nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
