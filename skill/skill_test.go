package skill

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/skillscope-dev/skillscope/evidence"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func jsItem(id string, daysAgo int, c, o, cons, g float64) evidence.Item {
	return evidence.Item{
		ID:          id,
		UserID:      "u1",
		PlatformID:  "github",
		Type:        evidence.TypeCodeCommit,
		Complexity:  c,
		Originality: o,
		Consistency: cons,
		Growth:      g,
		TechStack:   []string{"javascript"},
		CreatedAt:   now.Add(-time.Duration(daysAgo) * 24 * time.Hour),
	}
}

func TestConstructSingleSkillScenario(t *testing.T) {
	items := []evidence.Item{
		jsItem("a", 20, 8, 7, 8, 6),
		jsItem("b", 10, 7, 6, 8, 7),
		jsItem("c", 1, 8, 7, 8, 7),
	}
	items[1].PlatformID = "gitlab"

	res := Construct("u1", items, now)

	if len(res.Skills) != 1 {
		t.Fatalf("got %d skills, want 1", len(res.Skills))
	}
	s := res.Skills[0]
	if s.Name != "javascript" {
		t.Errorf("Name = %q, want javascript", s.Name)
	}
	// 10 * (0.30*avgC + 0.25*avgO + 0.25*avgCons + 0.20*avgG)
	// = 10 * (0.30*7.667 + 0.25*6.667 + 0.25*8 + 0.20*6.667) = 73.0
	if math.Abs(s.Score-73.0) > 1e-9 {
		t.Errorf("Score = %v, want 73.0", s.Score)
	}
	// 3 items, quality 7.25, span 19 days: clears every MEDIUM bound
	// but not the HIGH ones (5 items, 30 days).
	if s.Confidence != ConfidenceMedium {
		t.Errorf("Confidence = %v, want MEDIUM", s.Confidence)
	}
	if s.EvidenceCount != 3 {
		t.Errorf("EvidenceCount = %d, want 3", s.EvidenceCount)
	}
	if diff := cmp.Diff([]string{"github", "gitlab"}, s.Platforms); diff != "" {
		t.Errorf("Platforms mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(s.Explanation, "javascript skill constructed from 3 evidence items across 2 platform(s)") {
		t.Errorf("Explanation = %q, missing construction summary", s.Explanation)
	}
	if !strings.Contains(s.Explanation, "Confidence: 60%") {
		t.Errorf("Explanation = %q, missing confidence percent", s.Explanation)
	}

	// Single skill: overall score equals the skill score.
	if math.Abs(res.OverallScore-73.0) > 1e-9 {
		t.Errorf("OverallScore = %v, want 73.0", res.OverallScore)
	}
	if res.DataQuality != QualityInsufficient {
		t.Errorf("DataQuality = %v, want INSUFFICIENT below five items", res.DataQuality)
	}
}

func TestConstructEmptyInput(t *testing.T) {
	res := Construct("u1", nil, now)

	if res.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", res.UserID)
	}
	if len(res.Skills) != 0 {
		t.Errorf("Skills = %v, want none", res.Skills)
	}
	if res.OverallScore != 0 {
		t.Errorf("OverallScore = %v, want 0", res.OverallScore)
	}
	if res.ConfidenceLevel != LevelLow {
		t.Errorf("ConfidenceLevel = %v, want LOW", res.ConfidenceLevel)
	}
	if res.DataQuality != QualityInsufficient {
		t.Errorf("DataQuality = %v, want INSUFFICIENT", res.DataQuality)
	}
	if !res.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v, want %v", res.GeneratedAt, now)
	}
}

func TestConfidenceTierBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		quality  float64
		spanDays float64
		want     Confidence
	}{
		{"very high at exact span", 10, 7, 90, ConfidenceVeryHigh},
		{"one day short of very high", 10, 7, 89, ConfidenceHigh},
		{"quality short of very high", 10, 6.9, 120, ConfidenceHigh},
		{"count short of very high", 9, 8, 120, ConfidenceHigh},
		{"high at exact bounds", 5, 6, 30, ConfidenceHigh},
		{"medium at exact bounds", 3, 5, 14, ConfidenceMedium},
		{"span short of medium", 3, 5, 13, ConfidenceLow},
		{"single item", 1, 10, 0, ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := confidenceTier(tt.count, tt.quality, tt.spanDays); got != tt.want {
				t.Errorf("confidenceTier(%d, %v, %v) = %v, want %v",
					tt.count, tt.quality, tt.spanDays, got, tt.want)
			}
		})
	}
}

func TestConfidenceStrings(t *testing.T) {
	if got := ConfidenceVeryHigh.String(); got != "VERY_HIGH" {
		t.Errorf("VeryHigh.String() = %q", got)
	}
	if got := ConfidenceLow.String(); got != "LOW" {
		t.Errorf("Low.String() = %q", got)
	}
}

func TestConstructScoresBounded(t *testing.T) {
	// Max everything; score must stay within [0,100].
	var items []evidence.Item
	for i := range 30 {
		it := jsItem(string(rune('a'+i)), i*10, 10, 10, 10, 10)
		items = append(items, it)
	}

	res := Construct("u1", items, now)
	s := res.Skills[0]
	if s.Score < 0 || s.Score > 100 {
		t.Errorf("Score = %v, out of [0,100]", s.Score)
	}
	if s.Score != 100 {
		t.Errorf("Score = %v, want 100 for all-10 sub-scores", s.Score)
	}
	if res.OverallScore < 0 || res.OverallScore > 100 {
		t.Errorf("OverallScore = %v, out of [0,100]", res.OverallScore)
	}
}

func TestConstructScoreMonotonicUnderHighQualityEvidence(t *testing.T) {
	groups := [][]evidence.Item{
		{jsItem("a", 5, 2, 2, 2, 2)},
		{jsItem("a", 20, 8, 7, 8, 6), jsItem("b", 10, 7, 6, 8, 7)},
		{jsItem("a", 1, 10, 10, 10, 10), jsItem("b", 40, 9, 9, 9, 9)},
	}
	for _, group := range groups {
		before := Construct("u1", group, now).Skills[0].Score

		extra := jsItem("extra", 2, 10, 10, 10, 10)
		after := Construct("u1", append(group, extra), now).Skills[0].Score

		if after < before {
			t.Errorf("score dropped from %v to %v after adding an all-10 item to %d item(s)",
				before, after, len(group))
		}
	}
}

func TestConstructSortsSkillsByScore(t *testing.T) {
	strong := jsItem("s", 1, 9, 9, 9, 9)
	weak := jsItem("w", 1, 2, 2, 2, 2)
	weak.TechStack = []string{"css"}

	res := Construct("u1", []evidence.Item{weak, strong}, now)

	if len(res.Skills) != 2 {
		t.Fatalf("got %d skills, want 2", len(res.Skills))
	}
	if res.Skills[0].Name != "javascript" || res.Skills[1].Name != "css" {
		t.Errorf("order = [%s %s], want [javascript css]",
			res.Skills[0].Name, res.Skills[1].Name)
	}
}

func TestConstructMultiTagItemCountsInEachSkill(t *testing.T) {
	it := jsItem("x", 1, 8, 8, 8, 8)
	it.TechStack = []string{"javascript", "react"}

	res := Construct("u1", []evidence.Item{it}, now)
	if len(res.Skills) != 2 {
		t.Fatalf("got %d skills, want 2", len(res.Skills))
	}
	if res.Skills[0].Score != res.Skills[1].Score {
		t.Errorf("scores differ: %v vs %v", res.Skills[0].Score, res.Skills[1].Score)
	}
}

func TestOverallScoreWeighting(t *testing.T) {
	skills := []ConstructedSkill{
		{Name: "a", Score: 90, Confidence: ConfidenceVeryHigh, EvidenceCount: 30},
		{Name: "b", Score: 30, Confidence: ConfidenceLow, EvidenceCount: 1},
	}
	got := overallScore(skills)

	// The well-evidenced skill dominates but cannot be exceeded.
	if got <= 60 || got >= 90 {
		t.Errorf("overallScore = %v, want between the two skill scores, near the stronger", got)
	}

	wA := 0.90 * math.Log(31)
	wB := 0.40 * math.Log(2)
	want := (90*wA + 30*wB) / (wA + wB)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("overallScore = %v, want %v", got, want)
	}
}

func TestOverallConfidenceLevels(t *testing.T) {
	build := func(count, platforms int, quality float64, spanDays int) []evidence.Item {
		items := make([]evidence.Item, 0, count)
		for i := range count {
			it := evidence.Item{
				PlatformID:  "p" + string(rune('0'+i%platforms)),
				Type:        evidence.TypeCodeCommit,
				Complexity:  quality,
				Originality: quality,
				Consistency: quality,
				Growth:      quality,
				TechStack:   []string{"go"},
				CreatedAt:   now.Add(-time.Duration(i*spanDays/max(count-1, 1)) * 24 * time.Hour),
			}
			items = append(items, it)
		}
		return items
	}

	tests := []struct {
		name  string
		items []evidence.Item
		want  Level
	}{
		// 30+30+20+20 = 100 points.
		{"everything strong", build(25, 3, 9, 200), LevelVeryHigh},
		// 20+20+10+10 = 60 points.
		{"solid mid", build(10, 2, 6.5, 40), LevelHigh},
		// 10+10+10+10 = 40 points.
		{"modest", build(5, 2, 4.5, 30), LevelMedium},
		{"thin", build(2, 1, 3, 5), LevelLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overallConfidence(tt.items); got != tt.want {
				t.Errorf("overallConfidence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssessDataQuality(t *testing.T) {
	build := func(count, platforms, spanDays int, quality float64) []evidence.Item {
		items := make([]evidence.Item, 0, count)
		for i := range count {
			items = append(items, evidence.Item{
				PlatformID:  "p" + string(rune('0'+i%platforms)),
				Complexity:  quality,
				Originality: quality,
				Consistency: quality,
				Growth:      quality,
				CreatedAt:   now.Add(-time.Duration(i*spanDays/max(count-1, 1)) * 24 * time.Hour),
			})
		}
		return items
	}

	tests := []struct {
		name  string
		items []evidence.Item
		want  DataQuality
	}{
		{"too few items", build(4, 3, 300, 9), QualityInsufficient},
		{"one platform only", build(30, 1, 300, 9), QualityLow},
		{"short history", build(30, 3, 60, 9), QualityLow},
		{"decent but small", build(30, 3, 300, 7), QualityMedium},
		{"deep history", build(60, 3, 300, 7), QualityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := assessDataQuality(tt.items); got != tt.want {
				t.Errorf("assessDataQuality = %v, want %v", got, tt.want)
			}
		})
	}
}
