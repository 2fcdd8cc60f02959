// internal/scoring/engine.go
package scoring

import (
	"math"

	"github.com/leadforge/leadforge-backend/internal/model"
)

// ScoreResult carries the sub-scores and the derived grade for one lead.
// Partial is set when any raw metric was missing; the result is still usable.
type ScoreResult struct {
	Influence float64
	Activity  float64
	Relevance float64
	Composite float64
	Grade     model.Grade
	Partial   bool
}

const (
	weightInfluence = 0.4
	weightActivity  = 0.3
	weightRelevance = 0.3
)

// Engine computes lead scores against fixed benchmark curves. Scoring is a
// pure function of the lead's raw metrics: identical inputs always produce
// identical results, regardless of call order or prior scores.
type Engine struct {
	BenchViews     float64
	BenchFollowers float64
	BenchPostsWeek float64

	// Expected keyword matches per category; DefaultMatches applies when a
	// category has no entry.
	ExpectedMatches map[string]float64
	DefaultMatches  float64
}

func NewEngine() *Engine {
	return &Engine{
		BenchViews:     100_000,
		BenchFollowers: 500_000,
		BenchPostsWeek: 5,
		DefaultMatches: 8,
	}
}

func (e *Engine) Score(lead *model.Lead) ScoreResult {
	var res ScoreResult

	res.Influence = e.influence(lead.AvgViews, float64(lead.Followers), &res.Partial)
	res.Activity = e.activity(lead.PostsPerWeek, &res.Partial)
	res.Relevance = e.relevance(lead.Category, float64(lead.KeywordMatches), &res.Partial)

	res.Composite = clamp(weightInfluence*res.Influence +
		weightActivity*res.Activity +
		weightRelevance*res.Relevance)
	res.Grade = model.GradeForScore(res.Composite)
	return res
}

// influence log-normalizes reach metrics so the benchmark maps to 100 and
// each order of magnitude below it falls off smoothly.
func (e *Engine) influence(views, followers float64, partial *bool) float64 {
	viewsPart := logRatio(views, e.BenchViews, partial)
	followersPart := logRatio(followers, e.BenchFollowers, partial)
	return clamp(0.6*viewsPart + 0.4*followersPart)
}

func (e *Engine) activity(postsPerWeek float64, partial *bool) float64 {
	return logRatio(postsPerWeek, e.BenchPostsWeek, partial)
}

func (e *Engine) relevance(category string, matches float64, partial *bool) float64 {
	if matches <= 0 {
		*partial = true
		return 0
	}
	expected := e.DefaultMatches
	if v, ok := e.ExpectedMatches[category]; ok && v > 0 {
		expected = v
	}
	return clamp(100 * math.Min(1, matches/expected))
}

// logRatio maps value onto [0,100] with log1p against the benchmark,
// saturating at the benchmark. A missing value contributes zero and marks
// the result partial.
func logRatio(value, benchmark float64, partial *bool) float64 {
	if value <= 0 {
		*partial = true
		return 0
	}
	r := math.Log1p(value) / math.Log1p(benchmark)
	return clamp(100 * math.Min(1, r))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
