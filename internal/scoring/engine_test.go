package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/aetherscore/internal/analysis"
	"github.com/rewired-gh/aetherscore/internal/drawsource"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

func assertDenseRanks(t *testing.T, scores []models.AetherScore, size int) {
	t.Helper()
	require.Len(t, scores, size)
	seen := make(map[int]bool, size)
	for i, s := range scores {
		assert.Equal(t, i+1, s.Rank)
		assert.False(t, seen[s.Number], "number %d ranked twice", s.Number)
		seen[s.Number] = true
		assert.GreaterOrEqual(t, s.Number, 1)
		assert.LessOrEqual(t, s.Number, size)
		assert.False(t, math.IsNaN(s.Score) || math.IsInf(s.Score, 0), "number %d score %v", s.Number, s.Score)
		if i > 0 {
			assert.GreaterOrEqual(t, scores[i-1].Score, s.Score)
		}
	}
}

func TestEngineScore_DenseRanks(t *testing.T) {
	draws := drawsource.Synthetic(220, 5)
	e := NewEngine(tuning.Default())

	r := e.Score(Input{
		Draws:      draws,
		TargetDate: draws[len(draws)-1].Date.AddDate(0, 0, 3),
		Weights:    models.BaselineWeights(),
	})

	assertDenseRanks(t, r.Main, models.MainMax)
	assertDenseRanks(t, r.Stars, models.StarMax)
	for _, s := range r.Main {
		assert.NotEmpty(t, s.Justification)
	}
}

func TestEngineScore_Deterministic(t *testing.T) {
	draws := drawsource.Synthetic(180, 9)
	e := NewEngine(tuning.Default())
	profile := &models.HistoricalSuccessProfile{SampleSize: 80, HotAndOverdue: 0.1, HotAndMomentum: 0.2, HotZoneAndCluster: 0.3}
	in := Input{
		Draws:      draws,
		TargetDate: date(2021, time.May, 4),
		Weights:    models.BaselineWeights(),
		Profile:    profile,
		Regime:     models.RegimeVolatile,
	}
	assert.Equal(t, e.Score(in), e.Score(in))
}

func TestEngineScore_EmptyHistory(t *testing.T) {
	e := NewEngine(tuning.Default())
	r := e.Score(Input{TargetDate: date(2024, time.October, 4), Weights: models.BaselineWeights()})

	assertDenseRanks(t, r.Main, models.MainMax)
	assertDenseRanks(t, r.Stars, models.StarMax)
	// only the popularity penalty separates numbers; unpopular numbers lead
	assert.Equal(t, 0.0, r.Main[0].Score)
	assert.Equal(t, 32, r.Main[0].Number)
}

func TestEngineScore_PostDormancyBonus(t *testing.T) {
	low := []int{1, 2, 3, 4, 5}
	high := []int{46, 47, 48, 49, 50}
	var draws []models.Draw
	for i := 0; i < 62; i++ {
		main := low
		if i%30 == 0 {
			main = high
		}
		draws = append(draws, models.Draw{Date: epoch.AddDate(0, 0, 7*i), Main: main, Stars: []int{1, 2}})
	}
	e := NewEngine(tuning.Default())
	r := e.Score(Input{Draws: draws, TargetDate: epoch.AddDate(0, 0, 7*62), Weights: models.BaselineWeights()})

	byNumber := make(map[int]models.AetherScore)
	for _, s := range r.Main {
		byNumber[s.Number] = s
	}
	assert.InDelta(t, 25.0, byNumber[50].Breakdown.PostDormancy, 1e-9)
	assert.Contains(t, byNumber[50].Justification, "post-dormancy +25.0")
	assert.Zero(t, byNumber[1].Breakdown.PostDormancy)
}

func TestEngineScore_CalendarContext(t *testing.T) {
	draws := drawsource.Synthetic(150, 21)
	e := NewEngine(tuning.Default())
	score := func(target time.Time) map[int]models.AetherScore {
		out := make(map[int]models.AetherScore)
		for _, s := range e.Score(Input{Draws: draws, TargetDate: target, Weights: models.BaselineWeights()}).Main {
			out[s.Number] = s
		}
		return out
	}

	christmas := score(date(2017, time.December, 22))
	regular := score(date(2017, time.October, 6))

	assert.Equal(t, -20.0, christmas[25].Breakdown.Contextual)
	assert.Zero(t, regular[25].Breakdown.Contextual)
	assert.Contains(t, christmas[25].Justification, "christmas -20.0")
	assert.InDelta(t, PopularityPenalty(25, 0.5, tuning.Default()), christmas[25].Breakdown.Popularity, 1e-9)
	assert.InDelta(t, PopularityPenalty(25, 0.3, tuning.Default()), regular[25].Breakdown.Popularity, 1e-9)
}

func TestComboBonus(t *testing.T) {
	e := NewEngine(tuning.Default())
	profile := &models.HistoricalSuccessProfile{HotAndOverdue: 0.1, HotAndMomentum: 0.04, HotZoneAndCluster: 0.2}
	all := models.FactorFlags{IsHot: true, IsOverdue: true, HasMomentum: true, IsInHotZone: true, HasClusterStrength: true}

	assert.InDelta(t, 13.0, e.comboBonus(profile, all), 1e-9)
	assert.Zero(t, e.comboBonus(profile, models.FactorFlags{IsHot: true}))
	assert.Zero(t, e.comboBonus(nil, all))
}

func TestMembershipFlags(t *testing.T) {
	tbl := tuning.Default()
	draws := repeated(60, epoch, []int{1, 2, 3, 4, 5})
	p := analysis.AnalyzePatterns(draws, tbl)
	ms := NewMembership(p, analysis.AnalyzeSeasonal(draws, tbl), analysis.AnalyzeMetaPatterns(draws, tbl), 3, tbl)

	f := ms.Flags(1)
	assert.True(t, f.IsHot)
	assert.False(t, f.IsCold)
	assert.False(t, f.IsOverdue)
	assert.True(t, f.IsInHotZone)
	assert.False(t, f.HasMomentum)
	assert.True(t, f.HasClusterStrength)
	assert.True(t, f.IsSeasonalHot)
	assert.True(t, f.IsCompanionHot)
	assert.True(t, f.HasStability)

	f = ms.Flags(6)
	assert.True(t, f.IsCold)
	assert.False(t, f.HasClusterStrength)

	f = ms.Flags(45)
	assert.False(t, f.IsHot)
	assert.False(t, f.IsInHotZone)
	assert.False(t, f.IsSeasonalHot)
}
