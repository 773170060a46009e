// Package rebalance applies per-evidence-type score adjustments so that
// different kinds of activity are comparable across platforms.
package rebalance

import "github.com/skillscope-dev/skillscope/evidence"

// multipliers adjusts the four sub-scores per evidence type. A routine
// commit carries less signal per unit than a paid, client-reviewed
// delivery; types not listed stay at 1.0.
var multipliers = map[evidence.Type]float64{
	evidence.TypeCodeCommit:       0.9,
	evidence.TypeProjectCreation:  1.1,
	evidence.TypeProblemSolving:   1.0,
	evidence.TypeArticle:          0.8,
	evidence.TypeFreelanceProject: 1.2,
	evidence.TypeDeployedApp:      1.1,
	evidence.TypeCompetition:      0.9,
}

// Multiplier returns the adjustment factor for an evidence type.
func Multiplier(t evidence.Type) float64 {
	if m, ok := multipliers[t]; ok {
		return m
	}
	return 1.0
}

// Items rescales the complexity, originality, consistency and growth
// scores of every item in place and re-clamps them to [0,10]. Order,
// length and ids are unchanged. Not idempotent: apply exactly once per
// analysis run.
func Items(items []evidence.Item) []evidence.Item {
	for i := range items {
		m := Multiplier(items[i].Type)
		items[i].Complexity *= m
		items[i].Originality *= m
		items[i].Consistency *= m
		items[i].Growth *= m
		items[i].Clamp()
	}
	return items
}
