package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

func TestAnalyzeMetaPatterns_Empty(t *testing.T) {
	res := AnalyzeMetaPatterns(nil, tuning.Default())

	assert.Zero(t, res.Windows)
	require.Len(t, res.Numbers, models.MainMax)
	for _, n := range res.Numbers {
		assert.Equal(t, StateNeutral, n.CurrentState)
		assert.NotNil(t, n.Transitions)
	}
}

func TestAnalyzeMetaPatterns_Stable(t *testing.T) {
	res := AnalyzeMetaPatterns(identicalDraws(60), tuning.Default())

	assert.Equal(t, 4, res.Windows)
	assert.Empty(t, res.TransitionTotals)
	for _, n := range res.Numbers {
		assert.Equal(t, 1.0, n.Stability, "number %d", n.Number)
		assert.Zero(t, n.Changes)
	}
	assert.Equal(t, StateHot, res.Number(1).CurrentState)
	assert.Equal(t, StateHot, res.Number(17).CurrentState)
	assert.Equal(t, StateNeutral, res.Number(18).CurrentState)
	assert.Equal(t, StateCold, res.Number(50).CurrentState)
	assert.Zero(t, res.DormancyBreakEvents)
	assert.Zero(t, res.SpreadRepeatCorrelation)
}

func TestAnalyzeMetaPatterns_Transitions(t *testing.T) {
	draws := identicalDraws(30)
	for i := 0; i < 30; i++ {
		draws = append(draws, drawAt(i, []int{46, 47, 48, 49, 50}, []int{1, 2}))
	}
	res := AnalyzeMetaPatterns(draws, tuning.Default())

	assert.Equal(t, 4, res.Windows)
	assert.Equal(t, StateHot, res.Number(50).CurrentState)
	assert.Equal(t, 1, res.Number(50).Changes)
	assert.InDelta(t, 2.0/3.0, res.Number(50).Stability, 1e-9)
	assert.Equal(t, 1, res.Number(50).Transitions["cold->hot"])
	assert.Equal(t, StateNeutral, res.Number(13).CurrentState)
	assert.Positive(t, res.TransitionTotals["hot->neutral"])
	assert.Equal(t, StateCold, res.Number(45).CurrentState)
	assert.Equal(t, 1.0, res.Number(45).Stability)
}

func TestAnalyzeMetaPatterns_BreakActivity(t *testing.T) {
	var draws []models.Draw
	draws = append(draws, drawAt(0, []int{8, 9, 30, 31, 32}, []int{1, 2}))
	for i := 1; i < 20; i++ {
		draws = append(draws, drawAt(i, []int{1, 2, 3, 4, 5}, []int{1, 2}))
	}
	draws = append(draws, drawAt(20, []int{9, 40, 41, 42, 43}, []int{1, 2}))
	draws = append(draws, drawAt(21, []int{1, 2, 3, 4, 8}, []int{1, 2}))
	for i := 22; i < 25; i++ {
		draws = append(draws, drawAt(i, []int{1, 2, 3, 4, 5}, []int{1, 2}))
	}
	res := AnalyzeMetaPatterns(draws, tuning.Default())

	assert.Equal(t, 2, res.DormancyBreakEvents)
	assert.Equal(t, 1, res.Number(9).BreakEvents)
	assert.InDelta(t, 0.2, res.Number(9).BreakCompanionActivity, 1e-9)
	assert.Equal(t, 1, res.Number(8).BreakEvents)
	assert.InDelta(t, 0.8, res.Number(8).BreakCompanionActivity, 1e-9)
	assert.InDelta(t, 0.5, res.AvgBreakCompanionActivity, 1e-9)
}

func TestWindowEnds(t *testing.T) {
	tests := []struct {
		name            string
		n, window, step int
		want            []int
	}{
		{"shorter than window", 12, 30, 10, []int{12}},
		{"exact steps", 50, 30, 10, []int{30, 40, 50}},
		{"ragged tail", 55, 30, 10, []int{30, 40, 50, 55}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, windowEnds(tt.n, tt.window, tt.step))
		})
	}
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, pearson([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)
	assert.Zero(t, pearson([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.Zero(t, pearson(nil, nil))
}
