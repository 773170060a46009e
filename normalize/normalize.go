// Package normalize converts raw platform activity records into scored,
// platform-agnostic evidence items.
package normalize

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/skillscope-dev/skillscope/evidence"
)

// Normalizer turns RawRecords from any platform into EvidenceItems.
// The zero value is not usable; call New.
type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = logger }
}

// WithNow sets the clock used for recency scoring. Tests pin this.
func WithNow(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Result holds normalized items plus a count of records that could not
// be normalized (missing timestamp). Dropping is diagnostic, not fatal.
type Result struct {
	Items   []evidence.Item
	Dropped int
}

// Records normalizes a batch of raw records from one platform.
// A record with no usable timestamp is dropped and counted; a record
// with an unrecognized evidence type is scored neutrally. A record with
// no metadata still yields an item with all sub-scores at the base 5.
func (n *Normalizer) Records(platformID, userID string, records []evidence.RawRecord) Result {
	var res Result
	res.Items = make([]evidence.Item, 0, len(records))

	for _, rec := range records {
		if rec.Timestamp.IsZero() {
			res.Dropped++
			n.logger.Debug("dropping record without timestamp", "platform", platformID, "id", rec.ID)
			continue
		}
		if rec.Type == "" {
			res.Dropped++
			n.logger.Debug("dropping record without evidence type", "platform", platformID, "id", rec.ID)
			continue
		}
		res.Items = append(res.Items, n.item(platformID, userID, rec))
	}

	if res.Dropped > 0 {
		n.logger.Warn("dropped malformed records", "platform", platformID, "dropped", res.Dropped)
	}
	return res
}

func (n *Normalizer) item(platformID, userID string, rec evidence.RawRecord) evidence.Item {
	meta := rec.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	it := evidence.Item{
		ID:                fmt.Sprintf("%s_%s_%s", platformID, rec.ID, userID),
		UserID:            userID,
		PlatformID:        platformID,
		Type:              rec.Type,
		ActivityFrequency: recencyScore(n.now().Sub(rec.Timestamp)),
		Complexity:        complexityScore(rec.Type, meta),
		Originality:       originalityScore(rec.Type, meta),
		Consistency:       consistencyScore(rec.Type, meta, n.now()),
		Growth:            growthScore(rec.Type, meta),
		TechStack:         ExtractTech(meta),
		CreatedAt:         rec.Timestamp,
		RawMetadata:       rec.Metadata,
	}
	it.Clamp()
	return it
}

// recencyScore is a step function over record age, not a smooth decay.
func recencyScore(age time.Duration) float64 {
	days := age.Hours() / 24
	switch {
	case days < 7:
		return 10
	case days < 30:
		return 8
	case days < 90:
		return 6
	default:
		return 4
	}
}

const base = 5.0

// complexityScore rewards signals of depth: payload size, reach,
// difficulty, budget. Bonuses are fixed per evidence type; more signal
// never lowers the score, and the result is capped at 10.
func complexityScore(t evidence.Type, m map[string]any) float64 {
	score := base
	switch t {
	case evidence.TypeProjectCreation, evidence.TypeDeployedApp:
		if evidence.MetaInt(m, "size_kb") > 1000 {
			score += 2
		}
		if evidence.MetaInt(m, "forks") > 10 {
			score++
		}
		if evidence.MetaInt(m, "stars") > 50 {
			score++
		}
		if len(evidence.MetaStrings(m, "topics")) > 3 {
			score++
		}
	case evidence.TypeCodeCommit, evidence.TypeCodeReview, evidence.TypeOpenSource:
		if evidence.MetaInt(m, "additions") > 500 {
			score += 2
		}
		if evidence.MetaInt(m, "changed_files") > 10 {
			score++
		}
		if evidence.MetaBool(m, "merged") {
			score++
		}
	case evidence.TypeProblemSolving:
		switch evidence.MetaString(m, "difficulty") {
		case "hard":
			score += 3
		case "medium":
			score += 2
		case "easy":
			score++
		}
		switch rating := evidence.MetaInt(m, "rating"); {
		case rating > 2000:
			score += 3
		case rating > 1600:
			score += 2
		case rating > 1200:
			score++
		}
	case evidence.TypeCompetition:
		switch rating := evidence.MetaInt(m, "new_rating"); {
		case rating > 2000:
			score += 3
		case rating > 1600:
			score += 2
		case rating > 1200:
			score++
		}
	case evidence.TypeArticle, evidence.TypeDocumentation:
		if len(evidence.MetaString(m, "description")) > 1000 {
			score += 2
		}
		if evidence.MetaInt(m, "reading_minutes") > 10 {
			score += 2
		}
		if len(evidence.MetaStrings(m, "tags")) > 5 {
			score++
		}
	case evidence.TypeFreelanceProject:
		if evidence.MetaFloat(m, "budget") > 1000 {
			score += 2
		}
		if evidence.MetaInt(m, "duration_days") > 30 {
			score++
		}
		if len(evidence.MetaStrings(m, "technologies")) > 5 {
			score++
		}
		if evidence.MetaFloat(m, "client_rating") >= 4 {
			score++
		}
	}
	return score
}

// originalityScore rewards public, described, tagged work and breadth
// of solved problems.
func originalityScore(t evidence.Type, m map[string]any) float64 {
	score := base
	switch t {
	case evidence.TypeProjectCreation, evidence.TypeDeployedApp:
		if _, ok := m["private"]; ok && !evidence.MetaBool(m, "private") {
			score++
		}
		if len(evidence.MetaString(m, "description")) > 100 {
			score++
		}
		if len(evidence.MetaStrings(m, "topics")) > 0 {
			score++
		}
	case evidence.TypeProblemSolving, evidence.TypeCompetition:
		switch solved := evidence.MetaInt(m, "solved_total"); {
		case solved > 500:
			score += 3
		case solved > 200:
			score += 2
		case solved > 50:
			score++
		}
	case evidence.TypeArticle, evidence.TypeDocumentation:
		if len(evidence.MetaString(m, "title")) > 50 {
			score++
		}
		if len(evidence.MetaString(m, "description")) > 500 {
			score++
		}
		if len(evidence.MetaStrings(m, "tags")) > 0 {
			score++
		}
	case evidence.TypeFreelanceProject:
		if len(evidence.MetaString(m, "description")) > 200 {
			score++
		}
		if evidence.MetaString(m, "client") != "" {
			score++
		}
		if evidence.MetaFloat(m, "client_rating") > 0 {
			score++
		}
	case evidence.TypeCodeCommit, evidence.TypeCodeReview, evidence.TypeOpenSource:
		if len(evidence.MetaString(m, "body")) > 200 {
			score++
		}
	}
	return score
}

// consistencyScore rewards sustained activity: long-lived repositories,
// stable ratings, regular publishing, completed client work.
func consistencyScore(t evidence.Type, m map[string]any, now time.Time) float64 {
	score := base
	switch t {
	case evidence.TypeProjectCreation, evidence.TypeDeployedApp:
		created := evidence.MetaTime(m, "created_at")
		updated := evidence.MetaTime(m, "updated_at")
		if !created.IsZero() && !updated.IsZero() &&
			updated.Sub(created) > 30*24*time.Hour && evidence.MetaBool(m, "pushed") {
			score += 2
		}
	case evidence.TypeProblemSolving, evidence.TypeCompetition:
		switch rating := evidence.MetaInt(m, "rating"); {
		case rating > 2000:
			score += 3
		case rating > 1600:
			score += 2
		case rating > 1200:
			score++
		}
	case evidence.TypeArticle, evidence.TypeDocumentation:
		if published := evidence.MetaTime(m, "published_at"); !published.IsZero() {
			days := now.Sub(published).Hours() / 24
			switch {
			case days < 30:
				score += 3
			case days < 90:
				score += 2
			case days < 180:
				score++
			}
		}
	case evidence.TypeFreelanceProject:
		if evidence.MetaString(m, "status") == "completed" {
			score += 3
		}
		if evidence.MetaFloat(m, "client_rating") >= 4 {
			score += 2
		}
	case evidence.TypeCodeCommit, evidence.TypeCodeReview, evidence.TypeOpenSource:
		if evidence.MetaBool(m, "merged") {
			score++
		}
	}
	return score
}

// growthScore rewards positive external feedback and upward trajectory.
func growthScore(t evidence.Type, m map[string]any) float64 {
	score := base
	switch t {
	case evidence.TypeProjectCreation, evidence.TypeDeployedApp:
		if evidence.MetaInt(m, "stars") > 0 {
			score++
		}
		if evidence.MetaInt(m, "forks") > 0 {
			score++
		}
		if evidence.MetaInt(m, "watchers") > 0 {
			score++
		}
	case evidence.TypeCompetition:
		switch delta := evidence.MetaInt(m, "rating_delta"); {
		case delta > 0:
			score += 3
		case delta > -50:
			score++
		}
	case evidence.TypeArticle, evidence.TypeDocumentation:
		if evidence.MetaInt(m, "reactions") > 10 {
			score += 2
		}
		if evidence.MetaInt(m, "comments") > 5 {
			score++
		}
	case evidence.TypeFreelanceProject:
		if evidence.MetaFloat(m, "budget") > 2000 {
			score += 2
		}
		if evidence.MetaFloat(m, "client_rating") >= 4.5 {
			score += 2
		}
		if len(evidence.MetaString(m, "review")) > 100 {
			score++
		}
	case evidence.TypeProblemSolving:
		if evidence.MetaInt(m, "solved_total") > 100 {
			score++
		}
	}
	return score
}
