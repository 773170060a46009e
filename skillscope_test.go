package skillscope

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"github.com/skillscope-dev/skillscope/evidence"
	"github.com/skillscope-dev/skillscope/skill"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fakeAdapter serves canned records or a canned failure.
type fakeAdapter struct {
	id      string
	records []evidence.RawRecord
	fetchEr error
	valid   bool
}

func (f *fakeAdapter) Platform() string { return f.id }

func (f *fakeAdapter) Describe() evidence.Description {
	return evidence.Description{ID: f.id, Name: f.id, Kind: evidence.KindCustom}
}

func (f *fakeAdapter) Validate(context.Context, evidence.Credentials) (bool, error) {
	return f.valid, nil
}

func (f *fakeAdapter) Fetch(context.Context, evidence.Credentials) ([]evidence.RawRecord, error) {
	if f.fetchEr != nil {
		return nil, f.fetchEr
	}
	return f.records, nil
}

func commitRecord(id string, daysAgo int, lang string) evidence.RawRecord {
	return evidence.RawRecord{
		ID:        id,
		Type:      evidence.TypeCodeCommit,
		Timestamp: fixedNow.Add(-time.Duration(daysAgo) * 24 * time.Hour),
		Metadata:  map[string]any{"title": "update " + lang + " module", "language": lang},
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	e := New(WithNow(fixedClock))
	if err := e.Register(&fakeAdapter{id: "github"}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := e.Register(&fakeAdapter{id: "github"}); err == nil {
		t.Error("duplicate Register should fail")
	}
}

func TestAdaptersSorted(t *testing.T) {
	e := New(WithNow(fixedClock))
	for _, id := range []string{"gitlab", "devto", "github"} {
		if err := e.Register(&fakeAdapter{id: id}); err != nil {
			t.Fatalf("Register(%s): %v", id, err)
		}
	}

	var ids []string
	for _, d := range e.Adapters() {
		ids = append(ids, d.ID)
	}
	if diff := cmp.Diff([]string{"devto", "github", "gitlab"}, ids); diff != "" {
		t.Errorf("Adapters order mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeRecordsDeterministic(t *testing.T) {
	e := New(WithNow(fixedClock))
	records := map[string][]evidence.RawRecord{
		"github": {
			commitRecord("c1", 3, "go"),
			commitRecord("c2", 40, "go"),
		},
		"gitlab": {
			commitRecord("c3", 10, "python"),
		},
	}

	first, err := e.AnalyzeRecords(context.Background(), "u1", records)
	if err != nil {
		t.Fatalf("AnalyzeRecords: %v", err)
	}
	second, err := e.AnalyzeRecords(context.Background(), "u1", records)
	if err != nil {
		t.Fatalf("AnalyzeRecords: %v", err)
	}

	if first.RunID == second.RunID {
		t.Error("run IDs should differ between runs")
	}
	diff := cmp.Diff(first, second,
		cmpopts.IgnoreFields(skill.VerificationResult{}, "RunID"))
	if diff != "" {
		t.Errorf("results differ across identical runs (-first +second):\n%s", diff)
	}
}

func TestAnalyzeRecordsEmptyInput(t *testing.T) {
	e := New(WithNow(fixedClock))

	res, err := e.AnalyzeRecords(context.Background(), "u1", nil)
	if err != nil {
		t.Fatalf("AnalyzeRecords: %v", err)
	}
	if res.OverallScore != 0 {
		t.Errorf("OverallScore = %v, want 0", res.OverallScore)
	}
	if res.ConfidenceLevel != skill.LevelLow {
		t.Errorf("ConfidenceLevel = %v, want LOW", res.ConfidenceLevel)
	}
	if res.DataQuality != skill.QualityInsufficient {
		t.Errorf("DataQuality = %v, want INSUFFICIENT", res.DataQuality)
	}
	if len(res.Gaps) == 0 {
		t.Error("empty analysis should still explain the gap")
	}
	if res.RunID == "" {
		t.Error("RunID should be assigned even for empty input")
	}
}

func TestAnalyzeRecordsPlatformWeightsSumToOne(t *testing.T) {
	e := New(WithNow(fixedClock))
	records := map[string][]evidence.RawRecord{
		"github": {commitRecord("a", 1, "go"), commitRecord("b", 2, "go"), commitRecord("c", 3, "go")},
		"devto": {{
			ID: "art1", Type: evidence.TypeArticle,
			Timestamp: fixedNow.Add(-5 * 24 * time.Hour),
			Metadata:  map[string]any{"title": "Testing in Go", "tags": []string{"go", "testing"}},
		}},
	}

	res, err := e.AnalyzeRecords(context.Background(), "u1", records)
	if err != nil {
		t.Fatalf("AnalyzeRecords: %v", err)
	}
	if len(res.PlatformWeights) != 2 {
		t.Fatalf("PlatformWeights = %v, want entries for both platforms", res.PlatformWeights)
	}
	sum := 0.0
	for platform, w := range res.PlatformWeights {
		if w <= 0 || w > 1 {
			t.Errorf("weight[%s] = %v, out of (0,1]", platform, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
	// Three commits outweigh one article.
	if res.PlatformWeights["github"] <= res.PlatformWeights["devto"] {
		t.Errorf("weights = %v, github should dominate on volume", res.PlatformWeights)
	}
}

func TestAnalyzePartialPlatformFailure(t *testing.T) {
	e := New(WithNow(fixedClock))
	working := &fakeAdapter{
		id:    "github",
		valid: true,
		records: []evidence.RawRecord{
			commitRecord("c1", 1, "go"),
			commitRecord("c2", 2, "go"),
			commitRecord("c3", 3, "go"),
		},
	}
	broken := &fakeAdapter{id: "gitlab", valid: true, fetchEr: errors.New("upstream down")}
	for _, a := range []evidence.Adapter{working, broken} {
		if err := e.Register(a); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	res, err := e.Analyze(context.Background(), "u1", []Source{
		{PlatformID: "github"},
		{PlatformID: "gitlab"},
	})
	if err != nil {
		t.Fatalf("Analyze should tolerate one failing platform: %v", err)
	}
	if len(res.Skills) == 0 {
		t.Fatal("expected skills from the working platform")
	}
	for _, s := range res.Skills {
		for _, p := range s.Platforms {
			if p == "gitlab" {
				t.Errorf("skill %s credits the failed platform", s.Name)
			}
		}
	}
}

func TestAnalyzeSkipsInvalidCredentials(t *testing.T) {
	e := New(WithNow(fixedClock))
	rejected := &fakeAdapter{id: "github", valid: false, records: []evidence.RawRecord{commitRecord("c1", 1, "go")}}
	if err := e.Register(rejected); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := e.Analyze(context.Background(), "u1", []Source{{PlatformID: "github"}})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Skills) != 0 {
		t.Errorf("Skills = %v, want none when credentials rejected", res.Skills)
	}
}

func TestAnalyzeUnknownPlatformOnly(t *testing.T) {
	e := New(WithNow(fixedClock))

	_, err := e.Analyze(context.Background(), "u1", []Source{{PlatformID: "mystery"}})
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("err = %v, want ErrUnknownPlatform", err)
	}
}

func TestAnalyzeCanceledContext(t *testing.T) {
	e := New(WithNow(fixedClock))
	if err := e.Register(&fakeAdapter{id: "github", valid: true}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Analyze(ctx, "u1", []Source{{PlatformID: "github"}}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAnalyzeFanOutConcurrency(t *testing.T) {
	e := New(WithNow(fixedClock), WithMaxParallel(8))

	sources := make([]Source, 0, 6)
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5", "p6"} {
		a := &fakeAdapter{id: id, valid: true, records: []evidence.RawRecord{commitRecord(id+"_c", 1, "go")}}
		if err := e.Register(a); err != nil {
			t.Fatalf("Register: %v", err)
		}
		sources = append(sources, Source{PlatformID: id})
	}

	res, err := e.Analyze(context.Background(), "u1", sources)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.PlatformWeights) != 6 {
		t.Errorf("got %d platform weights, want 6", len(res.PlatformWeights))
	}
	// goleak's TestMain verifies the fan-out goroutines all exited.
}
