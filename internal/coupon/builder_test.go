package coupon

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/aetherscore/internal/analysis"
	"github.com/rewired-gh/aetherscore/internal/drawsource"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/scoring"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

func TestCombinations(t *testing.T) {
	var got [][]int
	Combinations(5, 3, func(idx []int) {
		got = append(got, append([]int(nil), idx...))
	})
	require.Len(t, got, 10)
	assert.Equal(t, []int{0, 1, 2}, got[0])
	assert.Equal(t, []int{0, 1, 3}, got[1])
	assert.Equal(t, []int{2, 3, 4}, got[9])

	count := 0
	Combinations(20, 5, func([]int) { count++ })
	assert.Equal(t, Binomial(20, 5), count)
	assert.Equal(t, 15504, count)

	calls := 0
	Combinations(3, 4, func([]int) { calls++ })
	Combinations(3, 0, func([]int) { calls++ })
	assert.Zero(t, calls)

	assert.Equal(t, 66, Binomial(12, 2))
	assert.Zero(t, Binomial(3, 5))
}

func sequentialRankings(mainCount int) models.Rankings {
	var r models.Rankings
	for i := 1; i <= mainCount; i++ {
		r.Main = append(r.Main, models.AetherScore{Number: i, Score: float64(100 - i), Rank: i})
	}
	for i := 1; i <= models.StarMax; i++ {
		r.Stars = append(r.Stars, models.AetherScore{Number: i, Rank: i})
	}
	return r
}

func assertValidCoupons(t *testing.T, coupons []models.Coupon) {
	t.Helper()
	seen := make(map[string]bool)
	for _, c := range coupons {
		require.Len(t, c.Main, models.MainCount)
		require.Len(t, c.Stars, models.StarCount)
		d := models.Draw{Date: time.Now(), Main: c.Main, Stars: c.Stars}
		assert.NoError(t, d.Validate())
		k := fmt.Sprint(c.Main, c.Stars)
		assert.False(t, seen[k], "duplicate coupon %s", k)
		seen[k] = true
	}
}

func TestBuild_FromEngineScores(t *testing.T) {
	tbl := tuning.Default()
	draws := drawsource.Synthetic(200, 17)
	patterns := analysis.AnalyzePatterns(draws, tbl)
	r := scoring.NewEngine(tbl).Score(scoring.Input{
		Draws:      draws,
		Patterns:   patterns,
		TargetDate: draws[len(draws)-1].Date.AddDate(0, 0, 4),
		Weights:    models.BaselineWeights(),
	})

	coupons := NewBuilder(tbl, rand.New(rand.NewPCG(3, 4))).Build(r, patterns.Delta)
	require.NotEmpty(t, coupons)
	assert.LessOrEqual(t, len(coupons), 10)
	assertValidCoupons(t, coupons)

	top := make(map[int]bool)
	for _, n := range models.TopNumbers(r.Main, tbl.CouponPool) {
		top[n] = true
	}
	for i, c := range coupons {
		for _, n := range c.Main {
			assert.True(t, top[n], "coupon %d uses %d outside the pool", i, n)
		}
		if i > 0 {
			assert.GreaterOrEqual(t, coupons[i-1].MainScore, c.MainScore)
			assert.GreaterOrEqual(t, coupons[i-1].StarScore, c.StarScore)
		}
	}
}

func TestBuild_StructuralFilter(t *testing.T) {
	tbl := tuning.Default()
	coupons := NewBuilder(tbl, nil).Build(sequentialRankings(20), analysis.DeltaStats{Average: 4})

	require.Len(t, coupons, 10)
	assertValidCoupons(t, coupons)
	b := NewBuilder(tbl, nil)
	for _, c := range coupons {
		assert.True(t, b.structurallyValid(c.Main), "coupon %v", c.Main)
	}
	assert.NotEqual(t, []int{1, 2, 3, 4, 5}, coupons[0].Main)
}

func TestBuild_RandomFallback(t *testing.T) {
	tbl := tuning.Default()
	tbl.CouponPool = 5

	coupons := NewBuilder(tbl, rand.New(rand.NewPCG(9, 9))).Build(sequentialRankings(5), analysis.DeltaStats{})

	// the only 5-subset of 1..5 fails the filter, and the fallback cannot
	// produce a second distinct set
	require.Len(t, coupons, 1)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, coupons[0].Main)
}

func TestBuild_DeterministicWithSeed(t *testing.T) {
	tbl := tuning.Default()
	tbl.CouponPool = 7
	r := sequentialRankings(7)

	a := NewBuilder(tbl, rand.New(rand.NewPCG(1, 1))).Build(r, analysis.DeltaStats{})
	b := NewBuilder(tbl, rand.New(rand.NewPCG(1, 1))).Build(r, analysis.DeltaStats{})
	assert.Equal(t, a, b)
	assertValidCoupons(t, a)
}

func TestStarCombos(t *testing.T) {
	b := NewBuilder(tuning.Default(), nil)
	stars := b.starCombos(sequentialRankings(0).Stars)

	require.Len(t, stars, 10)
	assert.Equal(t, []int{1, 8}, stars[0].nums)
	assert.Equal(t, 25.0, stars[0].score)
}

func TestMainBonus(t *testing.T) {
	b := NewBuilder(tuning.Default(), nil)
	tests := []struct {
		name  string
		nums  []int
		delta float64
		want  float64
	}{
		// odd 3, sum 119, spread 32, zones 4, gap 8 vs 8
		{"everything", []int{7, 14, 23, 36, 39}, 8, 70},
		// odd 0, sum 30, spread 8, one zone
		{"nothing", []int{2, 4, 6, 8, 10}, 0, 0},
		// odd 2, gap 2.5 vs 5
		{"parity only", []int{1, 2, 4, 6, 11}, 5, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.mainBonus(tt.nums, analysis.DeltaStats{Average: tt.delta}))
		})
	}
}
