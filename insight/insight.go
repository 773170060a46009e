// Package insight derives strengths, gaps and recommendations from
// constructed skills and the underlying evidence.
package insight

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/skill"
)

// commonTech lists technologies most profiles are expected to show.
// Absence of one is only reported as a gap when adjacent technologies
// are present (see impliedBy).
var commonTech = []string{
	"javascript", "typescript", "python", "java", "react", "node.js",
	"html", "css", "sql", "git", "docker", "aws",
	"rest api", "graphql", "mongodb", "postgresql",
}

// impliedBy is a coarse adjacency table: working with any of the listed
// technologies implies the key should also appear. Heuristic only.
var impliedBy = map[string][]string{
	"javascript": {"html", "css", "react", "vue", "angular"},
	"react":      {"javascript", "typescript", "html", "css"},
	"node.js":    {"javascript", "express", "mongodb", "sql"},
	"python":     {"django", "flask", "sql", "machine learning"},
	"docker":     {"kubernetes", "aws", "azure", "linux"},
	"aws":        {"docker", "kubernetes", "lambda", "ec2"},
	"sql":        {"postgresql", "mysql", "mongodb", "database"},
	"html":       {"css", "javascript", "react"},
	"css":        {"html", "javascript", "react"},
}

// Generate fills the Strengths, Gaps and Recommendations of a
// verification result in place. It handles the empty-evidence case
// with a non-empty gap list so callers always get a complete result.
func Generate(res *skill.VerificationResult, items []evidence.Item, now time.Time) {
	if len(items) == 0 {
		res.Gaps = []string{"no evidence available to construct skills"}
		res.Recommendations = []string{"Connect platforms to demonstrate your skills"}
		return
	}

	res.Strengths = strengths(res.Skills)
	res.Gaps = gaps(res.Skills, items)
	res.Recommendations = recommendations(res.Skills, items, now)
}

// strengths returns the top five skills that are both strong and
// trustworthy, ranked by score weighted with confidence.
func strengths(skills []skill.ConstructedSkill) []string {
	var top []skill.ConstructedSkill
	for _, s := range skills {
		if s.Confidence >= skill.ConfidenceHigh && s.Score >= 70 {
			top = append(top, s)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Score*float64(top[i].Confidence) > top[j].Score*float64(top[j].Confidence)
	})
	if len(top) > 5 {
		top = top[:5]
	}

	out := make([]string, 0, len(top))
	for _, s := range top {
		out = append(out, fmt.Sprintf("%s (%.0f/100, confidence %d%%)", s.Name, s.Score, int(s.Confidence)))
	}
	return out
}

func gaps(skills []skill.ConstructedSkill, items []evidence.Item) []string {
	var out []string

	present := make(map[string]bool)
	for _, s := range skills {
		present[s.Name] = true
	}
	for _, tech := range commonTech {
		if !present[tech] && implied(tech, present) {
			out = append(out, tech)
		}
	}

	types := make(map[evidence.Type]bool)
	for _, it := range items {
		types[it.Type] = true
	}
	if !types[evidence.TypeCodeCommit] {
		out = append(out, "version control practices")
	}
	if !types[evidence.TypeFreelanceProject] {
		out = append(out, "freelance experience")
	}
	if !types[evidence.TypeDocumentation] {
		out = append(out, "documentation evidence")
	}
	return out
}

// implied reports whether the absent technology is suggested by any
// adjacent technology the profile does show.
func implied(tech string, present map[string]bool) bool {
	for _, related := range impliedBy[tech] {
		if present[related] {
			return true
		}
	}
	return false
}

func recommendations(skills []skill.ConstructedSkill, items []evidence.Item, now time.Time) []string {
	var out []string

	var weak []string
	for _, s := range skills {
		if s.Score < 50 {
			weak = append(weak, s.Name)
		}
	}
	if len(weak) > 0 {
		sort.Strings(weak)
		out = append(out, "Focus on improving: "+strings.Join(weak, ", "))
	}

	platforms := make(map[string]bool)
	for _, it := range items {
		platforms[it.PlatformID] = true
	}
	if len(platforms) < 3 {
		out = append(out, "Connect more platforms to demonstrate diverse skills")
	}

	recent := 0
	cutoff := now.Add(-30 * 24 * time.Hour)
	for _, it := range items {
		if it.CreatedAt.After(cutoff) {
			recent++
		}
	}
	if recent < 5 {
		out = append(out, "Increase recent activity to show current skills")
	}
	return out
}
