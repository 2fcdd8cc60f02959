package scoring

import (
	"testing"

	"github.com/leadforge/leadforge-backend/internal/model"
)

func benchmarkLead() *model.Lead {
	return &model.Lead{
		AvgViews:       100_000,
		Followers:      500_000,
		PostsPerWeek:   5,
		KeywordMatches: 8,
		Category:       "fitness",
	}
}

func TestScoreAtBenchmarkIsGradeA(t *testing.T) {
	e := NewEngine()
	res := e.Score(benchmarkLead())

	if res.Composite < 99.9 {
		t.Fatalf("expected composite ~100 at benchmark, got %f", res.Composite)
	}
	if res.Grade != model.GradeA {
		t.Errorf("expected grade A, got %s", res.Grade)
	}
	if res.Partial {
		t.Error("expected complete result with all metrics present")
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	e := NewEngine()
	lead := &model.Lead{
		AvgViews:       12_500,
		Followers:      40_000,
		PostsPerWeek:   3,
		KeywordMatches: 4,
		Category:       "travel",
	}

	first := e.Score(lead)
	for i := 0; i < 10; i++ {
		again := e.Score(lead)
		if again != first {
			t.Fatalf("score changed between calls: %+v vs %+v", first, again)
		}
	}
}

func TestScoreIgnoresPriorScore(t *testing.T) {
	e := NewEngine()
	lead := benchmarkLead()
	lead.Score = 12
	lead.Grade = model.GradeD

	res := e.Score(lead)
	if res.Grade != model.GradeA {
		t.Errorf("stored score leaked into computation, got grade %s", res.Grade)
	}
}

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  model.Grade
	}{
		{79, model.GradeB},
		{80, model.GradeA},
		{59.9, model.GradeC},
		{60, model.GradeB},
		{40, model.GradeC},
		{39.9, model.GradeD},
		{0, model.GradeD},
		{100, model.GradeA},
	}
	for _, c := range cases {
		if got := model.GradeForScore(c.score); got != c.want {
			t.Errorf("GradeForScore(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestMissingMetricsScoreZeroAndFlagPartial(t *testing.T) {
	e := NewEngine()

	res := e.Score(&model.Lead{})
	if !res.Partial {
		t.Error("expected partial flag with no metrics")
	}
	if res.Composite != 0 {
		t.Errorf("expected composite 0, got %f", res.Composite)
	}
	if res.Grade != model.GradeD {
		t.Errorf("expected grade D, got %s", res.Grade)
	}

	// One missing metric still produces a usable score.
	lead := benchmarkLead()
	lead.PostsPerWeek = 0
	res = e.Score(lead)
	if !res.Partial {
		t.Error("expected partial flag with missing cadence")
	}
	if res.Activity != 0 {
		t.Errorf("missing cadence should contribute zero, got %f", res.Activity)
	}
	if res.Composite <= 0 {
		t.Error("remaining metrics should still contribute")
	}
}

func TestSubScoresStayInRange(t *testing.T) {
	e := NewEngine()
	lead := &model.Lead{
		AvgViews:       5_000_000, // far above benchmark
		Followers:      20_000_000,
		PostsPerWeek:   40,
		KeywordMatches: 100,
	}
	res := e.Score(lead)
	for name, v := range map[string]float64{
		"influence": res.Influence,
		"activity":  res.Activity,
		"relevance": res.Relevance,
		"composite": res.Composite,
	} {
		if v < 0 || v > 100 {
			t.Errorf("%s out of range: %f", name, v)
		}
	}
}
