// Package skill aggregates normalized evidence into per-technology
// skill assessments and an overall verification result.
package skill

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/skillscope-dev/skillscope/evidence"
)

// Confidence is a discrete trust tier for one constructed skill,
// expressed as a percentage so it can weight scores directly.
type Confidence int

// Confidence tiers, lowest to highest.
const (
	ConfidenceLow      Confidence = 40
	ConfidenceMedium   Confidence = 60
	ConfidenceHigh     Confidence = 75
	ConfidenceVeryHigh Confidence = 90
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceVeryHigh:
		return "VERY_HIGH"
	case ConfidenceHigh:
		return "HIGH"
	case ConfidenceMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Level is the overall confidence level across all evidence, derived
// from a multi-factor point system rather than per-skill tiers.
type Level string

// Overall confidence levels.
const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelVeryHigh Level = "VERY_HIGH"
)

// DataQuality signals how much the whole analysis can be trusted,
// distinct from per-skill confidence.
type DataQuality string

// Data quality grades.
const (
	QualityInsufficient DataQuality = "INSUFFICIENT"
	QualityLow          DataQuality = "LOW"
	QualityMedium       DataQuality = "MEDIUM"
	QualityHigh         DataQuality = "HIGH"
)

// ConstructedSkill is the per-technology aggregate. One exists only if
// at least one evidence item tags its technology.
type ConstructedSkill struct {
	Name          string
	Score         float64 // [0,100]
	Confidence    Confidence
	EvidenceCount int
	Platforms     []string
	Explanation   string
}

// VerificationResult is the top-level output of one analysis run. It is
// regenerated whole on every run, never patched incrementally.
//
//nolint:govet // fieldalignment: intentional layout for readability
type VerificationResult struct {
	RunID  string `json:",omitempty"`
	UserID string

	OverallScore    float64 // [0,100]
	ConfidenceLevel Level
	DataQuality     DataQuality

	Skills []ConstructedSkill // descending by score

	Strengths       []string
	Gaps            []string
	Recommendations []string

	// PlatformWeights records how much each platform's evidence counted
	// this run, normalized to sum to 1. Derived fresh from input.
	PlatformWeights map[string]float64 `json:",omitempty"`

	GeneratedAt time.Time
}

// Sub-score weights for the per-skill score.
const (
	weightComplexity  = 0.30
	weightOriginality = 0.25
	weightConsistency = 0.25
	weightGrowth      = 0.20
)

// Construct groups evidence by technology tag and builds the skill
// assessments and overall score. Insights (strengths, gaps,
// recommendations) are filled in by the insight package. Construct
// never fails: empty input yields a well-defined insufficient result.
func Construct(userID string, items []evidence.Item, now time.Time) *VerificationResult {
	res := &VerificationResult{
		UserID:          userID,
		ConfidenceLevel: LevelLow,
		DataQuality:     QualityInsufficient,
		GeneratedAt:     now,
	}
	if len(items) == 0 {
		return res
	}

	groups := GroupByTech(items)
	res.Skills = make([]ConstructedSkill, 0, len(groups))
	for _, name := range sortedKeys(groups) {
		res.Skills = append(res.Skills, constructOne(name, groups[name]))
	}
	sort.SliceStable(res.Skills, func(i, j int) bool {
		return res.Skills[i].Score > res.Skills[j].Score
	})

	res.OverallScore = overallScore(res.Skills)
	res.ConfidenceLevel = overallConfidence(items)
	res.DataQuality = assessDataQuality(items)
	return res
}

// GroupByTech indexes items by technology tag. An item with several
// tags belongs to several groups.
func GroupByTech(items []evidence.Item) map[string][]evidence.Item {
	groups := make(map[string][]evidence.Item)
	for _, it := range items {
		for _, tech := range it.TechStack {
			groups[tech] = append(groups[tech], it)
		}
	}
	return groups
}

func constructOne(name string, group []evidence.Item) ConstructedSkill {
	m := Measure(group)

	score := 10 * (weightComplexity*m.AvgComplexity +
		weightOriginality*m.AvgOriginality +
		weightConsistency*m.AvgConsistency +
		weightGrowth*m.AvgGrowth)
	score = math.Min(100, math.Max(0, score))

	conf := confidenceTier(m.Count, m.Quality, m.SpanDays)

	return ConstructedSkill{
		Name:          name,
		Score:         score,
		Confidence:    conf,
		EvidenceCount: m.Count,
		Platforms:     platformSet(group),
		Explanation:   explain(name, m, score, conf),
	}
}

// confidenceTier picks the first matching tier, top-down. All three
// factors must hold: volume, quality and time span (span bounds are
// inclusive).
func confidenceTier(count int, quality, spanDays float64) Confidence {
	switch {
	case count >= 10 && quality >= 7 && spanDays >= 90:
		return ConfidenceVeryHigh
	case count >= 5 && quality >= 6 && spanDays >= 30:
		return ConfidenceHigh
	case count >= 3 && quality >= 5 && spanDays >= 14:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// overallScore is the confidence- and volume-weighted mean of per-skill
// scores. Weight grows with the log of evidence count so a skill backed
// by 30 items does not drown one backed by 3.
func overallScore(skills []ConstructedSkill) float64 {
	var weighted, total float64
	for _, s := range skills {
		w := (float64(s.Confidence) / 100) * math.Log(float64(s.EvidenceCount)+1)
		weighted += s.Score * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// overallConfidence scores the entire evidence set on four factors:
// volume, quality, time span and platform diversity.
func overallConfidence(items []evidence.Item) Level {
	m := Measure(items)

	points := 0
	switch {
	case m.Count >= 20:
		points += 30
	case m.Count >= 10:
		points += 20
	case m.Count >= 5:
		points += 10
	}
	switch {
	case m.Quality >= 8:
		points += 30
	case m.Quality >= 6:
		points += 20
	case m.Quality >= 4:
		points += 10
	}
	switch {
	case m.SpanDays >= 180:
		points += 20
	case m.SpanDays >= 90:
		points += 15
	case m.SpanDays >= 30:
		points += 10
	}
	switch {
	case m.Platforms >= 3:
		points += 20
	case m.Platforms >= 2:
		points += 10
	}

	switch {
	case points >= 80:
		return LevelVeryHigh
	case points >= 60:
		return LevelHigh
	case points >= 40:
		return LevelMedium
	default:
		return LevelLow
	}
}

// assessDataQuality grades the evidence set as a whole. Span is
// normalized against a year so long-running histories grade higher.
func assessDataQuality(items []evidence.Item) DataQuality {
	m := Measure(items)
	spanFraction := math.Min(m.SpanDays/30/12, 1)

	switch {
	case m.Count < 5:
		return QualityInsufficient
	case m.Count < 20 || m.Platforms < 2 || spanFraction < 0.3:
		return QualityLow
	case m.Count < 50 || m.Platforms < 3 || spanFraction < 0.6 || m.Quality < 6:
		return QualityMedium
	default:
		return QualityHigh
	}
}

func explain(name string, m Metrics, score float64, conf Confidence) string {
	s := fmt.Sprintf("%s skill constructed from %d evidence items across %d platform(s)",
		name, m.Count, m.Platforms)
	switch {
	case m.AvgComplexity >= 8:
		s += ". High complexity work indicates advanced proficiency"
	case m.AvgComplexity >= 5:
		s += ". Moderate complexity work indicates intermediate proficiency"
	default:
		s += ". Basic complexity work indicates developing proficiency"
	}
	return s + fmt.Sprintf(". Score: %.0f/100, Confidence: %d%%", score, int(conf))
}

func platformSet(items []evidence.Item) []string {
	seen := make(map[string]bool)
	var platforms []string
	for _, it := range items {
		if !seen[it.PlatformID] {
			seen[it.PlatformID] = true
			platforms = append(platforms, it.PlatformID)
		}
	}
	sort.Strings(platforms)
	return platforms
}

func sortedKeys(m map[string][]evidence.Item) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
