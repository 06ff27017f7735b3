package analysis

import (
	"math"
	"sort"

	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

// NumberState is the rolling hot/cold classification of a number.
type NumberState string

const (
	StateHot     NumberState = "hot"
	StateNeutral NumberState = "neutral"
	StateCold    NumberState = "cold"
)

// MetaNumberStats tracks one number's state history.
type MetaNumberStats struct {
	Number       int            `json:"number"`
	CurrentState NumberState    `json:"currentState"`
	Transitions  map[string]int `json:"transitions"`
	Changes      int            `json:"changes"`
	// Stability is 1 - changes/(windows-1).
	Stability              float64 `json:"stability"`
	BreakEvents            int     `json:"breakEvents"`
	BreakCompanionActivity float64 `json:"breakCompanionActivity"`
}

// MetaPatternAnalysis is the Meta-Pattern Analyzer output.
type MetaPatternAnalysis struct {
	Windows                   int               `json:"windows"`
	Numbers                   []MetaNumberStats `json:"numbers"`
	TransitionTotals          map[string]int    `json:"transitionTotals"`
	DormancyBreakEvents       int               `json:"dormancyBreakEvents"`
	AvgBreakCompanionActivity float64           `json:"avgBreakCompanionActivity"`
	SpreadRepeatCorrelation   float64           `json:"spreadRepeatCorrelation"`
}

// Number returns the stats of main number n.
func (m *MetaPatternAnalysis) Number(n int) MetaNumberStats {
	return m.Numbers[n-1]
}

func transitionKey(from, to NumberState) string {
	return string(from) + "->" + string(to)
}

// AnalyzeMetaPatterns classifies every number in rolling windows and counts
// state transitions, then derives the dormancy-break and spread signals.
func AnalyzeMetaPatterns(draws []models.Draw, t tuning.Table) *MetaPatternAnalysis {
	res := &MetaPatternAnalysis{
		Numbers:          make([]MetaNumberStats, models.MainMax),
		TransitionTotals: map[string]int{},
	}
	for i := range res.Numbers {
		res.Numbers[i] = MetaNumberStats{Number: i + 1, CurrentState: StateNeutral, Transitions: map[string]int{}}
	}
	if len(draws) == 0 {
		return res
	}

	ends := windowEnds(len(draws), t.MetaWindow, t.MetaStep)
	res.Windows = len(ends)
	var prev []NumberState
	for _, end := range ends {
		start := end - t.MetaWindow
		if start < 0 {
			start = 0
		}
		states := classifyWindow(draws[start:end], t)
		if prev != nil {
			for i := range states {
				if states[i] != prev[i] {
					key := transitionKey(prev[i], states[i])
					res.Numbers[i].Transitions[key]++
					res.Numbers[i].Changes++
					res.TransitionTotals[key]++
				}
			}
		}
		prev = states
	}
	for i := range res.Numbers {
		res.Numbers[i].CurrentState = prev[i]
		if res.Windows > 1 {
			res.Numbers[i].Stability = 1 - float64(res.Numbers[i].Changes)/float64(res.Windows-1)
		} else {
			res.Numbers[i].Stability = 1
		}
	}

	breakActivity(res, draws, t)
	res.SpreadRepeatCorrelation = spreadRepeatCorrelation(draws)
	return res
}

// windowEnds lists exclusive end indices of rolling windows; the last window
// always ends at n.
func windowEnds(n, window, step int) []int {
	if n <= window {
		return []int{n}
	}
	var ends []int
	for e := window; e <= n; e += step {
		ends = append(ends, e)
	}
	if ends[len(ends)-1] != n {
		ends = append(ends, n)
	}
	return ends
}

func classifyWindow(draws []models.Draw, t tuning.Table) []NumberState {
	counts := make([]int, models.MainMax+1)
	for _, d := range draws {
		for _, n := range d.Main {
			counts[n]++
		}
	}
	order := make([]int, models.MainMax)
	for i := range order {
		order[i] = i + 1
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	states := make([]NumberState, models.MainMax)
	for rank, n := range order {
		pct := 1 - float64(rank)/float64(models.MainMax-1)
		switch {
		case pct >= t.HotPercentile:
			states[n-1] = StateHot
		case pct <= t.ColdPercentile:
			states[n-1] = StateCold
		default:
			states[n-1] = StateNeutral
		}
	}
	return states
}

// breakActivity measures how many of a number's companions show up in the
// draws right after it breaks a long absence.
func breakActivity(res *MetaPatternAnalysis, draws []models.Draw, t tuning.Table) {
	ones := make([]float64, len(draws))
	for i := range ones {
		ones[i] = 1
	}
	pairs := companionMatrix(draws, ones)
	companions := make([][]int, models.MainMax+1)
	for n := 1; n <= models.MainMax; n++ {
		var cands []int
		for c := 1; c <= models.MainMax; c++ {
			if c != n && pairs.count[n][c] > 0 {
				cands = append(cands, c)
			}
		}
		sort.SliceStable(cands, func(a, b int) bool { return pairs.count[n][cands[a]] > pairs.count[n][cands[b]] })
		if len(cands) > t.ClusterCompanions {
			cands = cands[:t.ClusterCompanions]
		}
		companions[n] = cands
	}

	lastSeen := make([]int, models.MainMax+1)
	for i := range lastSeen {
		lastSeen[i] = -1
	}
	activitySum := make([]float64, models.MainMax+1)
	var total float64
	for i, d := range draws {
		for _, n := range d.Main {
			if lastSeen[n] >= 0 && i-lastSeen[n] >= t.DormancyBreakGap && i+1 < len(draws) && len(companions[n]) > 0 {
				end := i + t.BreakActivityLookahead
				if end >= len(draws) {
					end = len(draws) - 1
				}
				active := 0
				for _, c := range companions[n] {
					for j := i + 1; j <= end; j++ {
						if draws[j].HasMain(c) {
							active++
							break
						}
					}
				}
				a := float64(active) / float64(len(companions[n]))
				activitySum[n] += a
				res.Numbers[n-1].BreakEvents++
				res.DormancyBreakEvents++
				total += a
			}
			lastSeen[n] = i
		}
	}
	for n := 1; n <= models.MainMax; n++ {
		if ev := res.Numbers[n-1].BreakEvents; ev > 0 {
			res.Numbers[n-1].BreakCompanionActivity = activitySum[n] / float64(ev)
		}
	}
	if res.DormancyBreakEvents > 0 {
		res.AvgBreakCompanionActivity = total / float64(res.DormancyBreakEvents)
	}
}

func spreadRepeatCorrelation(draws []models.Draw) float64 {
	if len(draws) < 3 {
		return 0
	}
	xs := make([]float64, 0, len(draws)-1)
	ys := make([]float64, 0, len(draws)-1)
	for i := 1; i < len(draws); i++ {
		xs = append(xs, float64(draws[i].Spread()))
		ys = append(ys, float64(draws[i].SharedMain(draws[i-1])))
	}
	return pearson(xs, ys)
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n == 0 {
		return 0
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}
