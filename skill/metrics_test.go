package skill

import (
	"math"
	"testing"
	"time"

	"github.com/skillscope-dev/skillscope/evidence"
)

func TestMeasureEmpty(t *testing.T) {
	m := Measure(nil)
	if m.Count != 0 || m.Quality != 0 || m.SpanDays != 0 || m.Frequency != 0 {
		t.Errorf("Measure(nil) = %+v, want zero value", m)
	}
}

func TestMeasureAverages(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []evidence.Item{
		{PlatformID: "github", Complexity: 8, Originality: 6, Consistency: 7, Growth: 5, CreatedAt: base},
		{PlatformID: "devto", Complexity: 6, Originality: 8, Consistency: 5, Growth: 7, CreatedAt: base.Add(14 * 24 * time.Hour)},
	}

	m := Measure(items)
	if m.Count != 2 {
		t.Errorf("Count = %d, want 2", m.Count)
	}
	if m.AvgComplexity != 7 || m.AvgOriginality != 7 || m.AvgConsistency != 6 || m.AvgGrowth != 6 {
		t.Errorf("averages = %v/%v/%v/%v, want 7/7/6/6",
			m.AvgComplexity, m.AvgOriginality, m.AvgConsistency, m.AvgGrowth)
	}
	if m.Quality != 6.5 {
		t.Errorf("Quality = %v, want 6.5", m.Quality)
	}
	if m.SpanDays != 14 {
		t.Errorf("SpanDays = %v, want 14", m.SpanDays)
	}
	if m.Platforms != 2 {
		t.Errorf("Platforms = %d, want 2", m.Platforms)
	}
	if got, want := m.Frequency, 2.0/14*7; math.Abs(got-want) > 1e-9 {
		t.Errorf("Frequency = %v, want %v", got, want)
	}
}

func TestMeasureZeroSpanFrequencyGuard(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []evidence.Item{
		{PlatformID: "github", CreatedAt: ts},
		{PlatformID: "github", CreatedAt: ts},
		{PlatformID: "github", CreatedAt: ts},
	}

	m := Measure(items)
	if m.SpanDays != 0 {
		t.Fatalf("SpanDays = %v, want 0", m.SpanDays)
	}
	// All items at the same instant: frequency degrades to the raw count
	// rather than dividing by zero.
	if m.Frequency != 3 {
		t.Errorf("Frequency = %v, want 3", m.Frequency)
	}
}

func TestMeasureUnorderedTimestamps(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []evidence.Item{
		{CreatedAt: base.Add(30 * 24 * time.Hour)},
		{CreatedAt: base},
		{CreatedAt: base.Add(10 * 24 * time.Hour)},
	}

	if m := Measure(items); m.SpanDays != 30 {
		t.Errorf("SpanDays = %v, want 30 regardless of input order", m.SpanDays)
	}
}
