// Package evidence defines the common types shared by platform adapters
// and the skill construction pipeline.
package evidence

import (
	"context"
	"errors"
	"time"
)

// Common errors returned by platform packages.
var (
	ErrAuthRequired        = errors.New("authentication required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrRateLimited         = errors.New("rate limited")
	ErrPlatformUnavailable = errors.New("platform unavailable")
	ErrUnknownPlatform     = errors.New("unknown platform")
)

// Type identifies the kind of activity an item is evidence of.
type Type string

// Canonical evidence types. Adapters must emit only these values.
const (
	TypeCodeCommit       Type = "code_commit"
	TypeProjectCreation  Type = "project_creation"
	TypeProblemSolving   Type = "problem_solving"
	TypeArticle          Type = "article_publication"
	TypeFreelanceProject Type = "freelance_project"
	TypeDeployedApp      Type = "deployed_app"
	TypeCompetition      Type = "competition_participation"
	TypeCodeReview       Type = "code_review"
	TypeDocumentation    Type = "documentation"
	TypeOpenSource       Type = "open_source_contribution"
)

// Known reports whether t is one of the canonical evidence types.
func (t Type) Known() bool {
	switch t {
	case TypeCodeCommit, TypeProjectCreation, TypeProblemSolving, TypeArticle,
		TypeFreelanceProject, TypeDeployedApp, TypeCompetition, TypeCodeReview,
		TypeDocumentation, TypeOpenSource:
		return true
	default:
		return false
	}
}

// RawRecord is one platform-native activity fact, pre-normalization.
// Metadata is platform-defined; the normalizer only reads the documented
// keys below and ignores everything else.
//
// Keys read per evidence type:
//
//	project_creation, deployed_app:  "size_kb", "stars", "forks", "watchers",
//	                                 "topics" ([]string), "language", "description",
//	                                 "private" (bool), "created_at", "updated_at",
//	                                 "pushed" (bool)
//	code_commit, code_review,
//	open_source_contribution:        "additions", "changed_files", "merged" (bool),
//	                                 "title", "body"
//	problem_solving:                 "difficulty" ("easy"|"medium"|"hard"),
//	                                 "solved_total", "rating", "language"
//	competition_participation:       "rating_delta", "new_rating", "rank",
//	                                 "contest_name"
//	article_publication,
//	documentation:                   "title", "description", "tags" ([]string),
//	                                 "reactions", "comments", "reading_minutes",
//	                                 "published_at" (time.Time)
//	freelance_project:               "title", "description", "client", "budget",
//	                                 "duration_days", "technologies" ([]string),
//	                                 "status", "client_rating", "review"
//
// Numeric metadata values may be int, int64 or float64.
type RawRecord struct {
	ID        string
	Type      Type
	Timestamp time.Time
	Metadata  map[string]any
}

// Item is one normalized, scored unit of proof of skill activity.
// All five scores are kept in [0,10]; use Clamp after any mutation.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Item struct {
	ID         string
	UserID     string
	PlatformID string
	Type       Type

	// Sub-scores in [0,10].
	ActivityFrequency float64
	Complexity        float64
	Originality       float64
	Consistency       float64
	Growth            float64

	TechStack   []string // lower-cased, deduplicated technology tags
	CreatedAt   time.Time
	RawMetadata map[string]any // retained for explanation/audit
}

// Clamp forces all five scores back into [0,10].
func (it *Item) Clamp() {
	it.ActivityFrequency = clamp10(it.ActivityFrequency)
	it.Complexity = clamp10(it.Complexity)
	it.Originality = clamp10(it.Originality)
	it.Consistency = clamp10(it.Consistency)
	it.Growth = clamp10(it.Growth)
}

// Quality is the mean of the four sub-scores (activity frequency excluded).
func (it *Item) Quality() float64 {
	return (it.Complexity + it.Originality + it.Consistency + it.Growth) / 4
}

func clamp10(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// Credentials carries whatever a platform needs to identify a user.
// The scoring pipeline never inspects credentials; only adapters do.
type Credentials struct {
	Username    string
	AccessToken string
	APIKey      string
	Cookies     map[string]string
	Extra       map[string]string
}

// Kind classifies a platform by the sort of evidence it produces.
type Kind string

// Platform kinds.
const (
	KindRepository Kind = "repository"
	KindCoding     Kind = "coding"
	KindBlog       Kind = "blog"
	KindFreelance  Kind = "freelance"
	KindCustom     Kind = "custom"
)

// Description identifies a platform adapter.
type Description struct {
	ID         string
	Name       string
	Kind       Kind
	ProfileURL string // template with %s for username, may be empty
}

// Adapter is the contract every platform package implements.
// Fetch performs the platform I/O and returns raw activity records;
// Validate reports whether the credentials look usable. Both are
// allowed to fail without affecting other platforms.
type Adapter interface {
	Platform() string
	Fetch(ctx context.Context, creds Credentials) ([]RawRecord, error)
	Validate(ctx context.Context, creds Credentials) (bool, error)
	Describe() Description
}

// MetaInt reads a numeric metadata value as int, tolerating the
// numeric types JSON decoding and hand-built maps produce.
func MetaInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// MetaFloat reads a numeric metadata value as float64.
func MetaFloat(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}

// MetaString reads a string metadata value.
func MetaString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// MetaBool reads a boolean metadata value.
func MetaBool(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// MetaStrings reads a string-slice metadata value, tolerating []any
// from JSON decoding.
func MetaStrings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// MetaTime reads a time metadata value, accepting time.Time or RFC 3339.
func MetaTime(m map[string]any, key string) time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}
		}
		return t
	default:
		return time.Time{}
	}
}
