package analysis

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/aetherscore/internal/drawsource"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

func identicalDraws(n int) []models.Draw {
	draws := make([]models.Draw, n)
	date := time.Date(2020, time.January, 3, 0, 0, 0, 0, time.UTC)
	for i := range draws {
		draws[i] = models.Draw{Date: date.AddDate(0, 0, 7*i), Main: []int{1, 2, 3, 4, 5}, Stars: []int{1, 2}}
	}
	return draws
}

func drawAt(day int, main []int, stars []int) models.Draw {
	return models.Draw{
		Date:  time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Main:  main,
		Stars: stars,
	}
}

func TestRecencyWeight(t *testing.T) {
	for _, n := range []int{1, 2, 10, 137} {
		w := RecencyWeights(n, 0.2)
		assert.Equal(t, 1.0, w[n-1], "n=%d", n)
		for i := n - 1; i > 0; i-- {
			assert.LessOrEqual(t, w[i-1], w[i], "n=%d i=%d", n, i)
		}
	}
	assert.InDelta(t, math.Exp(-9.0/2.0), RecencyWeight(0, 10, 0.2), 1e-12)
}

func TestAnalyzePatterns_Empty(t *testing.T) {
	res := AnalyzePatterns(nil, tuning.Default())

	require.Len(t, res.Main, models.MainMax)
	require.Len(t, res.Stars, models.StarMax)
	assert.Equal(t, 0, res.DrawCount)
	assert.NotNil(t, res.CompanionPairs)
	assert.NotNil(t, res.TopPatterns)
	assert.NotNil(t, res.Delta.Distribution)
	assert.Len(t, res.Zones.Totals, 5)
	for i, s := range res.Main {
		assert.Equal(t, i+1, s.Number)
		assert.Zero(t, s.Frequency)
		assert.False(t, s.IsOverdue)
		assert.NotNil(t, s.Companions)
	}
}

func TestAnalyzePatterns_IdenticalDraws(t *testing.T) {
	res := AnalyzePatterns(identicalDraws(60), tuning.Default())

	for n := 1; n <= 5; n++ {
		s := res.MainStat(n)
		assert.Equal(t, 0, s.CurrentDormancy, "number %d", n)
		assert.Equal(t, 60, s.Count)
		assert.InDelta(t, 1.0, s.AverageDormancy, 1e-9)
		assert.False(t, s.IsOverdue)
		// four companions, each seen in the last draw
		assert.Equal(t, 40.0, s.ClusterStrength)
	}
	for n := 6; n <= models.MainMax; n++ {
		s := res.MainStat(n)
		assert.Equal(t, 60, s.CurrentDormancy, "number %d", n)
		assert.Zero(t, s.AverageDormancy, "number %d", n)
		assert.False(t, s.IsOverdue, "never-seen number %d must not be overdue", n)
		assert.Zero(t, s.ClusterStrength)
	}

	assert.Equal(t, 1.0, res.Repetition.RepeatRate)
	assert.Equal(t, 5.0, res.Repetition.AverageShared)
	assert.InDelta(t, 1.0, res.Delta.Average, 1e-9)
	assert.InDelta(t, 1.0, res.Delta.Distribution[1], 1e-9)
	assert.Equal(t, 0, res.Zones.HotZone)
	assert.Equal(t, 1.0, res.Zones.ConcentrationRate)
	assert.Equal(t, 4, res.Spread.Min)
	assert.Equal(t, 4, res.Spread.Max)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, res.LastDraw)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, res.HotNumbers(5))
}

func TestAnalyzePatterns_WeightedDormancy(t *testing.T) {
	filler := [][]int{{10, 11, 12, 13, 14}, {20, 21, 22, 23, 24}}
	draws := []models.Draw{
		drawAt(0, []int{7, 30, 31, 32, 33}, []int{1, 2}),
		drawAt(3, filler[0], []int{3, 4}),
		drawAt(7, []int{7, 40, 41, 42, 43}, []int{1, 2}),
		drawAt(10, filler[1], []int{3, 4}),
		drawAt(14, filler[0], []int{3, 4}),
		drawAt(17, []int{7, 44, 45, 46, 47}, []int{5, 6}),
	}
	res := AnalyzePatterns(draws, tuning.Default())

	w2 := RecencyWeight(2, 6, 0.2)
	w5 := RecencyWeight(5, 6, 0.2)
	want := (2*w2 + 3*w5) / (w2 + w5)
	s := res.MainStat(7)
	assert.InDelta(t, want, s.AverageDormancy, 1e-12)
	assert.Equal(t, 0, s.CurrentDormancy)
	assert.Equal(t, 3, s.Count)

	s = res.MainStat(20)
	assert.Equal(t, 2, s.CurrentDormancy)
	assert.False(t, s.IsOverdue)

	s = res.MainStat(10)
	assert.Equal(t, 1, s.CurrentDormancy)
	assert.InDelta(t, 3.0, s.AverageDormancy, 1e-12)
}

func TestAnalyzePatterns_Momentum(t *testing.T) {
	draws := make([]models.Draw, 0, 30)
	for i := 0; i < 5; i++ {
		draws = append(draws, drawAt(i, []int{10, 11, 12, 13, 14}, []int{1, 2}))
	}
	for i := 5; i < 30; i++ {
		draws = append(draws, drawAt(i, []int{1, 11, 12, 13, 14}, []int{1, 2}))
	}
	res := AnalyzePatterns(draws, tuning.Default())

	// never seen historically: recentFreq x 100
	assert.InDelta(t, 100.0, res.MainStat(1).Momentum, 1e-9)
	// vanished recently: ratio 0
	assert.InDelta(t, -100.0, res.MainStat(10).Momentum, 1e-9)
	// steady
	assert.InDelta(t, 0.0, res.MainStat(11).Momentum, 1e-9)
	assert.Zero(t, res.MainStat(50).Momentum)
}

func TestAnalyzePatterns_Idempotent(t *testing.T) {
	draws := drawsource.Synthetic(240, 42)
	tbl := tuning.Default()

	a, err := json.Marshal(AnalyzePatterns(draws, tbl))
	require.NoError(t, err)
	b, err := json.Marshal(AnalyzePatterns(draws, tbl))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAnalyzePatterns_TopPatternsSorted(t *testing.T) {
	res := AnalyzePatterns(drawsource.Synthetic(200, 3), tuning.Default())

	require.NotEmpty(t, res.TopPatterns)
	assert.LessOrEqual(t, len(res.TopPatterns), 10)
	for i := 1; i < len(res.TopPatterns); i++ {
		assert.GreaterOrEqual(t, res.TopPatterns[i-1].Deviation, res.TopPatterns[i].Deviation)
	}
	assert.LessOrEqual(t, len(res.CompanionPairs), 10)
	for _, p := range res.CompanionPairs {
		assert.Less(t, p.A, p.B)
	}
}

func TestZoneOf(t *testing.T) {
	tbl := tuning.Default()
	tests := []struct {
		n    int
		want int
	}{
		{1, 0}, {10, 0}, {11, 1}, {25, 2}, {40, 3}, {41, 4}, {50, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZoneOf(tt.n, tbl), "ZoneOf(%d)", tt.n)
	}
}

func TestRankHelpers(t *testing.T) {
	res := AnalyzePatterns(identicalDraws(10), tuning.Default())

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, res.HotNumbers(10))
	assert.Equal(t, []int{6, 7, 8}, res.ColdNumbers(3))
	assert.InDelta(t, 4.0, res.MeanClusterStrength(), 1e-9)
}

func TestWelford(t *testing.T) {
	var w Welford
	assert.Zero(t, w.StdDev())
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		w.Add(v)
	}
	assert.Equal(t, 8, w.Count)
	assert.InDelta(t, 5.0, w.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), w.StdDev(), 1e-12)
}
