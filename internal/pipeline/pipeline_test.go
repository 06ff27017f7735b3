package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/aetherscore/internal/backtest"
	"github.com/rewired-gh/aetherscore/internal/drawsource"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newRunner() *Runner {
	return New(DefaultConfig(), backtest.DefaultConfig(), tuning.Default(), nil)
}

func TestNextDrawDate(t *testing.T) {
	tests := []struct {
		name string
		last time.Time
		days []time.Weekday
		want time.Time
	}{
		{"friday to tuesday", date(2024, time.March, 1), DrawDays, date(2024, time.March, 5)},
		{"tuesday to friday", date(2024, time.March, 5), DrawDays, date(2024, time.March, 8)},
		{"same weekday next week", date(2024, time.March, 5), []time.Weekday{time.Tuesday}, date(2024, time.March, 12)},
		{"off-schedule last draw", date(2024, time.March, 6), []time.Weekday{time.Friday}, date(2024, time.March, 8)},
		{"across year end", date(2024, time.December, 31), DrawDays, date(2025, time.January, 3)},
		{"no draw days", date(2024, time.March, 1), nil, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDrawDate(tt.last, tt.days))
		})
	}
}

func TestByWeekday(t *testing.T) {
	draws := drawsource.Synthetic(11, 5)
	tue := ByWeekday(draws, time.Tuesday)
	fri := ByWeekday(draws, time.Friday)

	assert.Len(t, tue, 6)
	assert.Len(t, fri, 5)
	for _, d := range tue {
		assert.Equal(t, time.Tuesday, d.Date.Weekday())
	}
	assert.Empty(t, ByWeekday(draws, time.Monday))
}

func TestRun_ThreePipelines(t *testing.T) {
	draws := drawsource.Synthetic(240, 3)
	var events []Progress

	bundles, err := newRunner().Run(context.Background(), draws, func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)
	require.Len(t, bundles, 3)

	assert.Equal(t, Aggregate, bundles[0].Pipeline)
	assert.Equal(t, Tuesday, bundles[1].Pipeline)
	assert.Equal(t, Friday, bundles[2].Pipeline)
	assert.Equal(t, 240, bundles[0].DrawCount)
	assert.Equal(t, 120, bundles[1].DrawCount)
	assert.Equal(t, 120, bundles[2].DrawCount)

	assert.Len(t, bundles[0].Log, 140)
	assert.Len(t, bundles[1].Log, 20)
	assert.Len(t, bundles[2].Log, 20)

	ids := map[string]bool{}
	for _, b := range bundles {
		require.NotEmpty(t, b.RunID)
		ids[b.RunID] = true

		assert.Len(t, b.Analysis.Scores.Main, models.MainMax)
		assert.Len(t, b.Analysis.Scores.Stars, models.StarMax)
		assert.NotNil(t, b.Timing)
		assert.InDelta(t, 1.0, b.Analysis.Weights.Sum(), 1e-9)
		assert.LessOrEqual(t, len(b.Analysis.Coupons), 10)
		assert.NotEmpty(t, b.Analysis.Coupons)
		for _, c := range b.Analysis.Coupons {
			d := models.Draw{Date: b.NextDrawDate, Main: c.Main, Stars: c.Stars}
			assert.NoError(t, d.Validate())
		}
	}
	assert.Len(t, ids, 3)

	last := draws[len(draws)-1].Date
	assert.Equal(t, NextDrawDate(last, DrawDays), bundles[0].NextDrawDate)
	assert.Equal(t, time.Tuesday, bundles[1].NextDrawDate.Weekday())
	assert.Equal(t, time.Friday, bundles[2].NextDrawDate.Weekday())
	assert.True(t, bundles[1].NextDrawDate.After(bundles[1].LastDrawDate))

	require.NotEmpty(t, events)
	assert.Equal(t, 100.0, events[len(events)-1].Percentage)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Percentage, events[i-1].Percentage)
	}
}

func TestRun_Deterministic(t *testing.T) {
	draws := drawsource.Synthetic(130, 9)
	a, err := newRunner().Run(context.Background(), draws, nil)
	require.NoError(t, err)
	b, err := newRunner().Run(context.Background(), draws, nil)
	require.NoError(t, err)

	for i := range a {
		assert.NotEqual(t, a[i].RunID, b[i].RunID)
		assert.Equal(t, a[i].Log, b[i].Log)
		assert.Equal(t, a[i].Analysis.Coupons, b[i].Analysis.Coupons)
		assert.Equal(t, a[i].Analysis.Weights, b[i].Analysis.Weights)
		assert.Equal(t, a[i].Analysis.Scores, b[i].Analysis.Scores)
	}
}

func TestRun_ShortHistory(t *testing.T) {
	bundles, err := newRunner().Run(context.Background(), drawsource.Synthetic(40, 4), nil)
	require.NoError(t, err)
	for _, b := range bundles {
		assert.Empty(t, b.Log)
		assert.Zero(t, b.Success.TotalProfiles)
		assert.InDelta(t, 1.0, b.Analysis.Weights.Sum(), 1e-9)
		assert.Equal(t, "flat", b.Insight.Trend)
	}
}

func TestRun_EmptyHistory(t *testing.T) {
	bundles, err := newRunner().Run(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, bundles, 3)
	for _, b := range bundles {
		assert.Zero(t, b.DrawCount)
		assert.True(t, b.NextDrawDate.IsZero())
		assert.Len(t, b.Analysis.Scores.Main, models.MainMax)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bundles, err := newRunner().Run(ctx, drawsource.Synthetic(200, 1), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, bundles)
}

func TestProgressTracker_Throttles(t *testing.T) {
	var got []Progress
	p := newProgressTracker(map[string]float64{Aggregate: 0.4, Tuesday: 0.3, Friday: 0.3}, 0.001, func(pr Progress) {
		got = append(got, pr)
	})

	p.report(Aggregate, 0.5)
	p.report(Aggregate, 1)
	p.report(Tuesday, 1)
	p.report(Friday, 1)
	p.report(Friday, 1)

	require.Len(t, got, 2)
	assert.InDelta(t, 20.0, got[0].Percentage, 1e-9)
	assert.Equal(t, Progress{Stage: Friday, Percentage: 100}, got[1])
}

func TestProgressTracker_Weighted(t *testing.T) {
	var got []Progress
	p := newProgressTracker(map[string]float64{Aggregate: 0.4, Tuesday: 0.3, Friday: 0.3}, 0, func(pr Progress) {
		got = append(got, pr)
	})

	p.report(Tuesday, 1)
	p.report(Aggregate, 0.5)

	require.Len(t, got, 2)
	assert.InDelta(t, 30.0, got[0].Percentage, 1e-9)
	assert.InDelta(t, 50.0, got[1].Percentage, 1e-9)

	var nilTracker *progressTracker
	assert.NotPanics(t, func() { nilTracker.report(Aggregate, 1) })
}
