package skill

import "github.com/skillscope-dev/skillscope/evidence"

// Metrics summarizes a set of evidence items.
type Metrics struct {
	Count          int
	AvgComplexity  float64
	AvgOriginality float64
	AvgConsistency float64
	AvgGrowth      float64
	Quality        float64 // mean of the four averages
	SpanDays       float64 // days between earliest and latest item
	Frequency      float64 // items per week over the span
	Platforms      int     // distinct platform count
}

// Measure computes aggregate metrics for a set of items. A single
// timestamp yields a zero span; frequency then degrades to the raw
// count instead of dividing by zero.
func Measure(items []evidence.Item) Metrics {
	var m Metrics
	if len(items) == 0 {
		return m
	}

	m.Count = len(items)
	earliest, latest := items[0].CreatedAt, items[0].CreatedAt
	platforms := make(map[string]bool)
	for _, it := range items {
		m.AvgComplexity += it.Complexity
		m.AvgOriginality += it.Originality
		m.AvgConsistency += it.Consistency
		m.AvgGrowth += it.Growth
		if it.CreatedAt.Before(earliest) {
			earliest = it.CreatedAt
		}
		if it.CreatedAt.After(latest) {
			latest = it.CreatedAt
		}
		platforms[it.PlatformID] = true
	}

	n := float64(m.Count)
	m.AvgComplexity /= n
	m.AvgOriginality /= n
	m.AvgConsistency /= n
	m.AvgGrowth /= n
	m.Quality = (m.AvgComplexity + m.AvgOriginality + m.AvgConsistency + m.AvgGrowth) / 4
	m.SpanDays = latest.Sub(earliest).Hours() / 24
	m.Platforms = len(platforms)

	if m.SpanDays > 0 {
		m.Frequency = n / m.SpanDays * 7
	} else {
		m.Frequency = n
	}
	return m
}
