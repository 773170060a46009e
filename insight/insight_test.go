package insight

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/skill"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func item(platform string, typ evidence.Type, daysAgo int) evidence.Item {
	return evidence.Item{
		PlatformID: platform,
		Type:       typ,
		CreatedAt:  now.Add(-time.Duration(daysAgo) * 24 * time.Hour),
	}
}

func TestGenerateEmptyEvidence(t *testing.T) {
	res := &skill.VerificationResult{UserID: "u1"}
	Generate(res, nil, now)

	if diff := cmp.Diff([]string{"no evidence available to construct skills"}, res.Gaps); diff != "" {
		t.Errorf("Gaps mismatch (-want +got):\n%s", diff)
	}
	if len(res.Recommendations) == 0 {
		t.Error("empty evidence should still produce a recommendation")
	}
	if len(res.Strengths) != 0 {
		t.Errorf("Strengths = %v, want none", res.Strengths)
	}
}

func TestStrengthsFilteringAndFormat(t *testing.T) {
	skills := []skill.ConstructedSkill{
		{Name: "typescript", Score: 85, Confidence: skill.ConfidenceVeryHigh},
		{Name: "react", Score: 75, Confidence: skill.ConfidenceHigh},
		{Name: "css", Score: 90, Confidence: skill.ConfidenceMedium},  // confidence too low
		{Name: "docker", Score: 60, Confidence: skill.ConfidenceHigh}, // score too low
	}

	got := strengths(skills)
	want := []string{
		"typescript (85/100, confidence 90%)",
		"react (75/100, confidence 75%)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("strengths mismatch (-want +got):\n%s", diff)
	}
}

func TestStrengthsCapsAtFive(t *testing.T) {
	var skills []skill.ConstructedSkill
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		skills = append(skills, skill.ConstructedSkill{
			Name: name, Score: 80, Confidence: skill.ConfidenceHigh,
		})
	}
	if got := strengths(skills); len(got) != 5 {
		t.Errorf("got %d strengths, want 5", len(got))
	}
}

func TestGapsAdjacentTech(t *testing.T) {
	// react present without javascript: javascript is implied missing.
	skills := []skill.ConstructedSkill{{Name: "react", Score: 80}}
	items := []evidence.Item{
		item("github", evidence.TypeCodeCommit, 5),
		item("github", evidence.TypeFreelanceProject, 5),
		item("github", evidence.TypeDocumentation, 5),
	}

	got := gaps(skills, items)
	found := false
	for _, g := range got {
		if g == "javascript" {
			found = true
		}
	}
	if !found {
		t.Errorf("gaps = %v, want javascript implied by react", got)
	}

	// rust present alone implies nothing from the common list.
	got = gaps([]skill.ConstructedSkill{{Name: "rust"}}, items)
	for _, g := range got {
		if g == "javascript" || g == "react" {
			t.Errorf("gaps = %v, rust should imply no frontend gap", got)
		}
	}
}

func TestGapsEvidenceCategories(t *testing.T) {
	items := []evidence.Item{
		item("devto", evidence.TypeArticle, 5),
	}

	got := gaps(nil, items)
	wantContains := []string{"version control practices", "freelance experience"}
	for _, want := range wantContains {
		found := false
		for _, g := range got {
			if g == want {
				found = true
			}
		}
		if !found {
			t.Errorf("gaps = %v, missing %q", got, want)
		}
	}

	// With commits and freelance work present, neither gap appears.
	items = []evidence.Item{
		item("github", evidence.TypeCodeCommit, 5),
		item("freelance", evidence.TypeFreelanceProject, 5),
		item("github", evidence.TypeDocumentation, 5),
	}
	got = gaps(nil, items)
	for _, g := range got {
		if g == "version control practices" || g == "freelance experience" {
			t.Errorf("gaps = %v, unexpected category gap", got)
		}
	}
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name   string
		skills []skill.ConstructedSkill
		items  []evidence.Item
		want   []string
	}{
		{
			name:   "weak skills trigger focus advice",
			skills: []skill.ConstructedSkill{{Name: "css", Score: 30}, {Name: "aws", Score: 45}},
			items: []evidence.Item{
				item("a", evidence.TypeCodeCommit, 1), item("b", evidence.TypeCodeCommit, 2),
				item("c", evidence.TypeCodeCommit, 3), item("d", evidence.TypeCodeCommit, 4),
				item("e", evidence.TypeCodeCommit, 5),
			},
			want: []string{"Focus on improving: aws, css"},
		},
		{
			name:   "few platforms trigger connect advice",
			skills: []skill.ConstructedSkill{{Name: "go", Score: 80}},
			items: []evidence.Item{
				item("github", evidence.TypeCodeCommit, 1), item("github", evidence.TypeCodeCommit, 2),
				item("github", evidence.TypeCodeCommit, 3), item("github", evidence.TypeCodeCommit, 4),
				item("github", evidence.TypeCodeCommit, 5),
			},
			want: []string{"Connect more platforms to demonstrate diverse skills"},
		},
		{
			name:   "stale activity triggers recency advice",
			skills: []skill.ConstructedSkill{{Name: "go", Score: 80}},
			items: []evidence.Item{
				item("a", evidence.TypeCodeCommit, 100), item("b", evidence.TypeCodeCommit, 110),
				item("c", evidence.TypeCodeCommit, 120), item("d", evidence.TypeCodeCommit, 130),
				item("e", evidence.TypeCodeCommit, 140),
			},
			want: []string{"Increase recent activity to show current skills"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recommendations(tt.skills, tt.items, now)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("recommendations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenerateFillsResult(t *testing.T) {
	res := &skill.VerificationResult{
		UserID: "u1",
		Skills: []skill.ConstructedSkill{
			{Name: "javascript", Score: 82, Confidence: skill.ConfidenceHigh},
		},
	}
	items := []evidence.Item{
		item("github", evidence.TypeCodeCommit, 1),
		item("gitlab", evidence.TypeCodeCommit, 2),
		item("devto", evidence.TypeArticle, 3),
		item("freelance", evidence.TypeFreelanceProject, 4),
		item("github", evidence.TypeDocumentation, 5),
	}
	Generate(res, items, now)

	if len(res.Strengths) != 1 || !strings.HasPrefix(res.Strengths[0], "javascript (82/100") {
		t.Errorf("Strengths = %v", res.Strengths)
	}
	// Three or more platforms, five recent items, no weak skill: no
	// recommendations fire.
	if len(res.Recommendations) != 0 {
		t.Errorf("Recommendations = %v, want none", res.Recommendations)
	}
}
