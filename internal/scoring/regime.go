package scoring

import (
	"math"

	"github.com/rewired-gh/aetherscore/internal/analysis"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

// ShiftSignal compares the latest window of draws with the one before it.
type ShiftSignal struct {
	Shifted      bool    `json:"shifted"`
	SpreadChange float64 `json:"spreadChange"`
	RepeatChange float64 `json:"repeatChange"`
}

func windowSpreadAndRepeat(draws []models.Draw) (spread, repeat float64) {
	if len(draws) == 0 {
		return 0, 0
	}
	repeats := 0
	for i, d := range draws {
		spread += float64(d.Spread())
		if i > 0 && d.SharedMain(draws[i-1]) > 0 {
			repeats++
		}
	}
	spread /= float64(len(draws))
	if len(draws) > 1 {
		repeat = float64(repeats) / float64(len(draws)-1)
	}
	return spread, repeat
}

func relativeChange(prev, cur float64) float64 {
	if prev == 0 {
		if cur == 0 {
			return 0
		}
		return 1
	}
	return math.Abs(cur-prev) / prev
}

// DetectShift flags a regime shift when the average spread or the repeat rate
// of the last ShiftWindow draws moved past its threshold relative to the
// preceding ShiftWindow draws. Shorter histories never shift.
func DetectShift(draws []models.Draw, t tuning.Table) ShiftSignal {
	w := t.ShiftWindow
	if len(draws) < 2*w {
		return ShiftSignal{}
	}
	recent := draws[len(draws)-w:]
	previous := draws[len(draws)-2*w : len(draws)-w]

	rs, rr := windowSpreadAndRepeat(recent)
	ps, pr := windowSpreadAndRepeat(previous)

	sig := ShiftSignal{
		SpreadChange: relativeChange(ps, rs),
		RepeatChange: relativeChange(pr, rr),
	}
	sig.Shifted = sig.SpreadChange > t.SpreadShiftThreshold || sig.RepeatChange > t.RepeatShiftThreshold
	return sig
}

// ClassifyRegime labels the dynamics ahead of a draw in targetMonth.
func ClassifyRegime(timing *analysis.PatternTimingAnalysis, targetMonth int, t tuning.Table) models.Regime {
	if timing == nil {
		return models.RegimeBalanced
	}
	if timing.AvgHotStreakDuration > t.HotStreakThreshold {
		return models.RegimeHotStreak
	}
	v := timing.TransitionInto(targetMonth)
	switch {
	case v > t.VolatileThreshold:
		return models.RegimeVolatile
	case v < t.StableThreshold:
		return models.RegimeStable
	}
	return models.RegimeBalanced
}
