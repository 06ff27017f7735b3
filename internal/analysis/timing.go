package analysis

import (
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

// SpreadSummary is the distribution of spreads at dormancy breaks.
type SpreadSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
}

// PatternTimingAnalysis is the Pattern Timing Analyzer output.
type PatternTimingAnalysis struct {
	Windows int `json:"windows"`
	// Hot-streak durations are counted in consecutive analyzer windows.
	StreakCount          int     `json:"streakCount"`
	AvgHotStreakDuration float64 `json:"avgHotStreakDuration"`
	MaxHotStreakDuration int     `json:"maxHotStreakDuration"`

	DormancyBreakSpread SpreadSummary `json:"dormancyBreakSpread"`

	// SeasonalTransitions maps a destination month to the top-set
	// dissimilarity between the previous month and it.
	SeasonalTransitions map[int]float64 `json:"seasonalTransitions"`

	RhythmStdDev      float64 `json:"rhythmStdDev"`
	RhythmConsistency float64 `json:"rhythmConsistency"`
}

// TransitionInto returns the dissimilarity of the transition into month.
func (p *PatternTimingAnalysis) TransitionInto(month int) float64 {
	return p.SeasonalTransitions[month]
}

// AnalyzeTiming computes streak, break, seasonal volatility and rhythm statistics.
func AnalyzeTiming(draws []models.Draw, t tuning.Table) *PatternTimingAnalysis {
	res := &PatternTimingAnalysis{SeasonalTransitions: make(map[int]float64, 12)}
	hotStreaks(res, draws, t)
	res.DormancyBreakSpread = breakSpread(draws, t)
	seasonalVolatility(res, AnalyzeSeasonal(draws, t), t)
	res.RhythmStdDev = rhythmStdDev(draws)
	res.RhythmConsistency = 1 / (1 + res.RhythmStdDev)
	return res
}

// hotStreaks re-runs the Pattern Analyzer over a sliding window of the
// trailing lookback and measures how long numbers stay in the hot set.
func hotStreaks(res *PatternTimingAnalysis, draws []models.Draw, t tuning.Table) {
	lookback := draws
	if len(lookback) > t.TimingLookback {
		lookback = lookback[len(lookback)-t.TimingLookback:]
	}
	if len(lookback) < t.TimingWindow {
		return
	}

	run := make([]int, models.MainMax+1)
	var durations []int
	for start := 0; start+t.TimingWindow <= len(lookback); start += t.TimingStep {
		res.Windows++
		hot := make([]bool, models.MainMax+1)
		for _, n := range AnalyzePatterns(lookback[start:start+t.TimingWindow], t).HotNumbers(t.HotSetSize) {
			hot[n] = true
		}
		for n := 1; n <= models.MainMax; n++ {
			if hot[n] {
				run[n]++
			} else if run[n] > 0 {
				durations = append(durations, run[n])
				run[n] = 0
			}
		}
	}
	for n := 1; n <= models.MainMax; n++ {
		if run[n] > 0 {
			durations = append(durations, run[n])
		}
	}

	res.StreakCount = len(durations)
	if len(durations) == 0 {
		return
	}
	sum := 0
	for _, d := range durations {
		sum += d
		if d > res.MaxHotStreakDuration {
			res.MaxHotStreakDuration = d
		}
	}
	res.AvgHotStreakDuration = float64(sum) / float64(len(durations))
}

func breakSpread(draws []models.Draw, t tuning.Table) SpreadSummary {
	lastSeen := make([]int, models.MainMax+1)
	for i := range lastSeen {
		lastSeen[i] = -1
	}
	var w Welford
	for i, d := range draws {
		broke := false
		for _, n := range d.Main {
			if lastSeen[n] >= 0 && i-lastSeen[n] >= t.DormancyBreakGap {
				broke = true
			}
			lastSeen[n] = i
		}
		if broke {
			w.Add(float64(d.Spread()))
		}
	}
	return SpreadSummary{Count: w.Count, Mean: w.Mean, StdDev: w.StdDev()}
}

func seasonalVolatility(res *PatternTimingAnalysis, s *SeasonalAnalysis, t tuning.Table) {
	for to := 1; to <= 12; to++ {
		from := (to+10)%12 + 1
		a := s.TopForMonth(from, t.HotSetSize)
		b := s.TopForMonth(to, t.HotSetSize)
		if a == nil || b == nil {
			res.SeasonalTransitions[to] = t.NeutralVolatility
			continue
		}
		res.SeasonalTransitions[to] = jaccardDistance(a, b)
	}
}

func jaccardDistance(a, b []int) float64 {
	set := make(map[int]bool, len(a))
	for _, n := range a {
		set[n] = true
	}
	inter := 0
	union := len(set)
	for _, n := range b {
		if set[n] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return 1 - float64(inter)/float64(union)
}

// rhythmStdDev averages the per-number standard deviation of recurrence gaps.
func rhythmStdDev(draws []models.Draw) float64 {
	gaps := make([]Welford, models.MainMax+1)
	lastSeen := make([]int, models.MainMax+1)
	for i := range lastSeen {
		lastSeen[i] = -1
	}
	for i, d := range draws {
		for _, n := range d.Main {
			if lastSeen[n] >= 0 {
				gaps[n].Add(float64(i - lastSeen[n]))
			}
			lastSeen[n] = i
		}
	}
	sum, counted := 0.0, 0
	for n := 1; n <= models.MainMax; n++ {
		if gaps[n].Count >= 2 {
			sum += gaps[n].StdDev()
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted)
}
