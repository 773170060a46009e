package evidence

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTypeKnown(t *testing.T) {
	for _, typ := range []Type{
		TypeCodeCommit, TypeProjectCreation, TypeProblemSolving, TypeArticle,
		TypeFreelanceProject, TypeDeployedApp, TypeCompetition, TypeCodeReview,
		TypeDocumentation, TypeOpenSource,
	} {
		if !typ.Known() {
			t.Errorf("Known(%q) = false, want true", typ)
		}
	}

	for _, typ := range []Type{"", "commit", "CODE_COMMIT", "webinar"} {
		if typ.Known() {
			t.Errorf("Known(%q) = true, want false", typ)
		}
	}
}

func TestClamp(t *testing.T) {
	it := Item{
		ActivityFrequency: 12,
		Complexity:        -1,
		Originality:       10,
		Consistency:       0,
		Growth:            10.0001,
	}
	it.Clamp()

	want := Item{
		ActivityFrequency: 10,
		Complexity:        0,
		Originality:       10,
		Consistency:       0,
		Growth:            10,
	}
	if diff := cmp.Diff(want, it); diff != "" {
		t.Errorf("Clamp mismatch (-want +got):\n%s", diff)
	}
}

func TestQuality(t *testing.T) {
	it := Item{Complexity: 8, Originality: 6, Consistency: 7, Growth: 5, ActivityFrequency: 10}
	if got, want := it.Quality(), 6.5; got != want {
		t.Errorf("Quality() = %v, want %v (activity frequency must be excluded)", got, want)
	}
}

func TestMetaHelpers(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := map[string]any{
		"int":     7,
		"int64":   int64(8),
		"float":   9.5,
		"str":     "hello",
		"bool":    true,
		"strs":    []string{"a", "b"},
		"anys":    []any{"c", 1, "d"},
		"time":    ts,
		"timestr": "2026-03-01T12:00:00Z",
	}

	if got := MetaInt(m, "int"); got != 7 {
		t.Errorf("MetaInt(int) = %d, want 7", got)
	}
	if got := MetaInt(m, "int64"); got != 8 {
		t.Errorf("MetaInt(int64) = %d, want 8", got)
	}
	if got := MetaInt(m, "float"); got != 9 {
		t.Errorf("MetaInt(float) = %d, want 9", got)
	}
	if got := MetaInt(m, "str"); got != 0 {
		t.Errorf("MetaInt(str) = %d, want 0", got)
	}
	if got := MetaFloat(m, "float"); got != 9.5 {
		t.Errorf("MetaFloat(float) = %v, want 9.5", got)
	}
	if got := MetaString(m, "str"); got != "hello" {
		t.Errorf("MetaString(str) = %q, want hello", got)
	}
	if !MetaBool(m, "bool") {
		t.Error("MetaBool(bool) = false, want true")
	}
	if diff := cmp.Diff([]string{"a", "b"}, MetaStrings(m, "strs")); diff != "" {
		t.Errorf("MetaStrings(strs) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c", "d"}, MetaStrings(m, "anys")); diff != "" {
		t.Errorf("MetaStrings(anys) mismatch (-want +got):\n%s", diff)
	}
	if got := MetaTime(m, "time"); !got.Equal(ts) {
		t.Errorf("MetaTime(time) = %v, want %v", got, ts)
	}
	if got := MetaTime(m, "timestr"); !got.Equal(ts) {
		t.Errorf("MetaTime(timestr) = %v, want %v", got, ts)
	}
	if got := MetaTime(m, "missing"); !got.IsZero() {
		t.Errorf("MetaTime(missing) = %v, want zero", got)
	}
}
