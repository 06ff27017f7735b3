// Package analysis computes recency-weighted statistics over a prefix of
// draws. Every function here is pure: the same draw slice yields the same
// result, and nothing is cached between calls.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

// NumberStats is the per-number statistics bundle.
type NumberStats struct {
	Number          int     `json:"number"`
	Frequency       float64 `json:"frequency"`
	Count           int     `json:"count"`
	CurrentDormancy int     `json:"currentDormancy"`
	AverageDormancy float64 `json:"averageDormancy"`
	IsOverdue       bool    `json:"isOverdue"`
	Momentum        float64 `json:"momentum"`
	ClusterStrength float64 `json:"clusterStrength"`
	// CompanionAffinity is the pair weight shared with the most recent draw.
	CompanionAffinity float64 `json:"companionAffinity"`
	Companions        []int   `json:"companions"`
	Zone              int     `json:"zone"`
}

type ZoneStats struct {
	Totals            []float64 `json:"totals"`
	HotZone           int       `json:"hotZone"`
	ColdZone          int       `json:"coldZone"`
	ConcentrationRate float64   `json:"concentrationRate"`
}

type SpreadStats struct {
	Average float64 `json:"average"`
	Min     int     `json:"min"`
	Max     int     `json:"max"`
}

// CompanionPair is a weighted co-occurrence of two main numbers (A < B).
type CompanionPair struct {
	A      int     `json:"a"`
	B      int     `json:"b"`
	Weight float64 `json:"weight"`
	Count  int     `json:"count"`
}

type StarPatternStats struct {
	AverageSum      float64 `json:"averageSum"`
	MixedParityRate float64 `json:"mixedParityRate"`
}

type RepetitionStats struct {
	RepeatRate    float64 `json:"repeatRate"`
	AverageShared float64 `json:"averageShared"`
}

// DeltaStats describes the gaps between consecutive sorted main numbers.
type DeltaStats struct {
	Average      float64         `json:"average"`
	Distribution map[int]float64 `json:"distribution"`
}

// PatternFinding is one statistically deviant observation.
type PatternFinding struct {
	Kind        string  `json:"kind"`
	Number      int     `json:"number"`
	Partner     int     `json:"partner,omitempty"`
	Deviation   float64 `json:"deviation"`
	Description string  `json:"description"`
}

// PatternAnalysis is the full Pattern Analyzer output.
type PatternAnalysis struct {
	DrawCount      int              `json:"drawCount"`
	Main           []NumberStats    `json:"main"`
	Stars          []NumberStats    `json:"stars"`
	Zones          ZoneStats        `json:"zones"`
	Spread         SpreadStats      `json:"spread"`
	CompanionPairs []CompanionPair  `json:"companionPairs"`
	StarPatterns   StarPatternStats `json:"starPatterns"`
	Repetition     RepetitionStats  `json:"repetition"`
	Delta          DeltaStats       `json:"delta"`
	TopPatterns    []PatternFinding `json:"topPatterns"`
	LastDraw       []int            `json:"lastDraw"`
}

// RecencyWeight is exp((i-(n-1)) / (n*decay)). The last index weighs exactly 1.
func RecencyWeight(i, n int, decay float64) float64 {
	if n <= 0 || decay <= 0 {
		return 1
	}
	return math.Exp(float64(i-(n-1)) / (float64(n) * decay))
}

// RecencyWeights returns the weight of every index of a slice of length n.
func RecencyWeights(n int, decay float64) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = RecencyWeight(i, n, decay)
	}
	return w
}

// ZoneOf maps a main number to its 0-based zone.
func ZoneOf(n int, t tuning.Table) int {
	z := (n - 1) / t.ZoneWidth
	if z >= t.ZoneCount {
		z = t.ZoneCount - 1
	}
	if z < 0 {
		z = 0
	}
	return z
}

func mainNumbers(d models.Draw) []int { return d.Main }
func starNumbers(d models.Draw) []int { return d.Stars }

func newPatternAnalysis(t tuning.Table) *PatternAnalysis {
	res := &PatternAnalysis{
		Main:           make([]NumberStats, models.MainMax),
		Stars:          make([]NumberStats, models.StarMax),
		Zones:          ZoneStats{Totals: make([]float64, t.ZoneCount)},
		CompanionPairs: []CompanionPair{},
		Delta:          DeltaStats{Distribution: map[int]float64{}},
		TopPatterns:    []PatternFinding{},
		LastDraw:       []int{},
	}
	for i := range res.Main {
		res.Main[i] = NumberStats{Number: i + 1, Companions: []int{}, Zone: ZoneOf(i+1, t)}
	}
	for i := range res.Stars {
		res.Stars[i] = NumberStats{Number: i + 1, Companions: []int{}}
	}
	return res
}

// AnalyzePatterns computes the Pattern Analyzer bundle. An empty slice yields
// a fully populated zero result.
func AnalyzePatterns(draws []models.Draw, t tuning.Table) *PatternAnalysis {
	res := newPatternAnalysis(t)
	n := len(draws)
	res.DrawCount = n
	if n == 0 {
		return res
	}
	weights := RecencyWeights(n, t.RecencyDecay)

	poolStats(res.Main, draws, weights, mainNumbers)
	poolStats(res.Stars, draws, weights, starNumbers)
	momentum(res.Main, draws, t.MomentumRecentWindow, mainNumbers)
	momentum(res.Stars, draws, t.MomentumRecentWindow, starNumbers)

	pairs := companionMatrix(draws, weights)
	res.LastDraw = draws[n-1].SortedMain()
	res.CompanionPairs = topPairs(pairs, t.TopCompanionPairs)
	companionsAndClusters(res, pairs, t)

	res.Zones = zoneStats(draws, weights, t)
	res.Spread = spreadStats(draws, weights)
	res.StarPatterns = starPatternStats(draws, weights)
	res.Repetition = repetitionStats(draws)
	res.Delta = deltaStats(draws, weights)
	res.TopPatterns = topPatterns(res, draws, t)
	return res
}

// poolStats fills frequency and dormancy for one number pool.
func poolStats(stats []NumberStats, draws []models.Draw, weights []float64, numbersOf func(models.Draw) []int) {
	size := len(stats)
	lastSeen := make([]int, size+1)
	for i := range lastSeen {
		lastSeen[i] = -1
	}
	gapSum := make([]float64, size+1)
	gapWeight := make([]float64, size+1)

	for i, d := range draws {
		w := weights[i]
		for _, num := range numbersOf(d) {
			if num < 1 || num > size {
				continue
			}
			s := &stats[num-1]
			s.Frequency += w
			s.Count++
			// the gap is weighted by the draw where it ended
			if lastSeen[num] >= 0 {
				gapSum[num] += float64(i-lastSeen[num]) * w
				gapWeight[num] += w
			}
			lastSeen[num] = i
		}
	}

	n := len(draws)
	for num := 1; num <= size; num++ {
		s := &stats[num-1]
		if lastSeen[num] < 0 {
			s.CurrentDormancy = n
		} else {
			s.CurrentDormancy = n - 1 - lastSeen[num]
		}
		if gapWeight[num] > 0 {
			s.AverageDormancy = gapSum[num] / gapWeight[num]
		}
		// never-recurring numbers have no average and are never overdue
		s.IsOverdue = s.AverageDormancy > 0 && float64(s.CurrentDormancy) > s.AverageDormancy
	}
}

func momentum(stats []NumberStats, draws []models.Draw, recentWindow int, numbersOf func(models.Draw) []int) {
	n := len(draws)
	rw := recentWindow
	if rw > n {
		rw = n
	}
	if rw <= 0 {
		return
	}
	split := n - rw
	recent := make([]int, len(stats)+1)
	historical := make([]int, len(stats)+1)
	for i, d := range draws {
		for _, num := range numbersOf(d) {
			if num < 1 || num > len(stats) {
				continue
			}
			if i >= split {
				recent[num]++
			} else {
				historical[num]++
			}
		}
	}
	for num := 1; num <= len(stats); num++ {
		recentFreq := float64(recent[num]) / float64(rw)
		histFreq := 0.0
		if split > 0 {
			histFreq = float64(historical[num]) / float64(split)
		}
		if histFreq > 0 {
			stats[num-1].Momentum = (recentFreq/histFreq - 1) * 100
		} else {
			stats[num-1].Momentum = recentFreq * 100
		}
	}
}

type pairMatrix struct {
	weight [models.MainMax + 1][models.MainMax + 1]float64
	count  [models.MainMax + 1][models.MainMax + 1]int
	total  float64
}

func companionMatrix(draws []models.Draw, weights []float64) *pairMatrix {
	m := &pairMatrix{}
	for i, d := range draws {
		w := weights[i]
		m.total += w
		for a := 0; a < len(d.Main); a++ {
			for b := a + 1; b < len(d.Main); b++ {
				x, y := d.Main[a], d.Main[b]
				if x < 1 || y < 1 || x > models.MainMax || y > models.MainMax {
					continue
				}
				m.weight[x][y] += w
				m.weight[y][x] += w
				m.count[x][y]++
				m.count[y][x]++
			}
		}
	}
	return m
}

func topPairs(m *pairMatrix, k int) []CompanionPair {
	var pairs []CompanionPair
	for a := 1; a <= models.MainMax; a++ {
		for b := a + 1; b <= models.MainMax; b++ {
			if m.count[a][b] > 0 {
				pairs = append(pairs, CompanionPair{A: a, B: b, Weight: m.weight[a][b], Count: m.count[a][b]})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Weight > pairs[j].Weight
	})
	if len(pairs) > k {
		pairs = pairs[:k]
	}
	if pairs == nil {
		pairs = []CompanionPair{}
	}
	return pairs
}

func companionsAndClusters(res *PatternAnalysis, m *pairMatrix, t tuning.Table) {
	for i := range res.Main {
		num := i + 1
		candidates := make([]int, 0, models.MainMax)
		for c := 1; c <= models.MainMax; c++ {
			if c != num && m.weight[num][c] > 0 {
				candidates = append(candidates, c)
			}
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			return m.weight[num][candidates[a]] > m.weight[num][candidates[b]]
		})
		if len(candidates) > t.ClusterCompanions {
			candidates = candidates[:t.ClusterCompanions]
		}
		res.Main[i].Companions = candidates

		cluster := 0.0
		for _, c := range candidates {
			gap := res.Main[c-1].CurrentDormancy
			if gap < t.ClusterLookback {
				cluster += float64(t.ClusterLookback - gap)
			}
		}
		res.Main[i].ClusterStrength = cluster

		affinity := 0.0
		for _, l := range res.LastDraw {
			if l != num {
				affinity += m.weight[num][l]
			}
		}
		res.Main[i].CompanionAffinity = affinity
	}
}

func zoneStats(draws []models.Draw, weights []float64, t tuning.Table) ZoneStats {
	z := ZoneStats{Totals: make([]float64, t.ZoneCount)}
	concentrated := 0
	for i, d := range draws {
		perZone := make([]int, t.ZoneCount)
		for _, num := range d.Main {
			zone := ZoneOf(num, t)
			z.Totals[zone] += weights[i]
			perZone[zone]++
		}
		for _, c := range perZone {
			if c >= 3 {
				concentrated++
				break
			}
		}
	}
	for i := range z.Totals {
		if z.Totals[i] > z.Totals[z.HotZone] {
			z.HotZone = i
		}
		if z.Totals[i] < z.Totals[z.ColdZone] {
			z.ColdZone = i
		}
	}
	if len(draws) > 0 {
		z.ConcentrationRate = float64(concentrated) / float64(len(draws))
	}
	return z
}

func spreadStats(draws []models.Draw, weights []float64) SpreadStats {
	s := SpreadStats{Min: math.MaxInt}
	var sum, wsum float64
	for i, d := range draws {
		sp := d.Spread()
		sum += float64(sp) * weights[i]
		wsum += weights[i]
		if sp < s.Min {
			s.Min = sp
		}
		if sp > s.Max {
			s.Max = sp
		}
	}
	if wsum > 0 {
		s.Average = sum / wsum
	}
	if s.Min == math.MaxInt {
		s.Min = 0
	}
	return s
}

func starPatternStats(draws []models.Draw, weights []float64) StarPatternStats {
	var s StarPatternStats
	var sum, wsum float64
	mixed := 0
	for i, d := range draws {
		total, odd := 0, 0
		for _, st := range d.Stars {
			total += st
			if st%2 == 1 {
				odd++
			}
		}
		sum += float64(total) * weights[i]
		wsum += weights[i]
		if odd == 1 {
			mixed++
		}
	}
	if wsum > 0 {
		s.AverageSum = sum / wsum
	}
	if len(draws) > 0 {
		s.MixedParityRate = float64(mixed) / float64(len(draws))
	}
	return s
}

func repetitionStats(draws []models.Draw) RepetitionStats {
	var r RepetitionStats
	if len(draws) < 2 {
		return r
	}
	repeats, shared := 0, 0
	for i := 1; i < len(draws); i++ {
		c := draws[i].SharedMain(draws[i-1])
		shared += c
		if c > 0 {
			repeats++
		}
	}
	pairs := float64(len(draws) - 1)
	r.RepeatRate = float64(repeats) / pairs
	r.AverageShared = float64(shared) / pairs
	return r
}

func deltaStats(draws []models.Draw, weights []float64) DeltaStats {
	d := DeltaStats{Distribution: map[int]float64{}}
	var sum, wsum float64
	for i, dr := range draws {
		sorted := dr.SortedMain()
		for j := 1; j < len(sorted); j++ {
			delta := sorted[j] - sorted[j-1]
			sum += float64(delta) * weights[i]
			wsum += weights[i]
			d.Distribution[delta] += weights[i]
		}
	}
	if wsum > 0 {
		d.Average = sum / wsum
		for k, v := range d.Distribution {
			d.Distribution[k] = v / wsum
		}
	}
	return d
}

func topPatterns(res *PatternAnalysis, draws []models.Draw, t tuning.Table) []PatternFinding {
	var findings []PatternFinding

	mean, std := frequencyMoments(res.Main)
	if std > 0 {
		for _, s := range res.Main {
			z := (s.Frequency - mean) / std
			kind, label := "hot", "above"
			if z < 0 {
				kind, label = "cold", "below"
			}
			findings = append(findings, PatternFinding{
				Kind:        kind,
				Number:      s.Number,
				Deviation:   math.Abs(z),
				Description: fmt.Sprintf("number %d weighted frequency %.2f is %.2f sd %s the mean", s.Number, s.Frequency, math.Abs(z), label),
			})
		}
	}

	for _, s := range res.Main {
		if s.IsOverdue {
			ratio := float64(s.CurrentDormancy) / s.AverageDormancy
			findings = append(findings, PatternFinding{
				Kind:        "overdue",
				Number:      s.Number,
				Deviation:   ratio - 1,
				Description: fmt.Sprintf("number %d absent for %d draws against an average gap of %.1f", s.Number, s.CurrentDormancy, s.AverageDormancy),
			})
		}
		if len(draws) > t.MomentumRecentWindow && math.Abs(s.Momentum) >= 50 {
			findings = append(findings, PatternFinding{
				Kind:        "momentum",
				Number:      s.Number,
				Deviation:   math.Abs(s.Momentum) / 100,
				Description: fmt.Sprintf("number %d recent rate changed by %.0f%%", s.Number, s.Momentum),
			})
		}
	}

	// a random 5-of-50 draw contains a given pair with probability 10/1225
	expectedPair := float64(len(draws)) * 10.0 / 1225.0
	if expectedPair > 0 {
		for _, p := range res.CompanionPairs {
			dev := float64(p.Count)/expectedPair - 1
			if dev <= 0 {
				continue
			}
			findings = append(findings, PatternFinding{
				Kind:        "companion",
				Number:      p.A,
				Partner:     p.B,
				Deviation:   dev,
				Description: fmt.Sprintf("pair %d-%d drawn together %d times (expected %.1f)", p.A, p.B, p.Count, expectedPair),
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Deviation > findings[j].Deviation
	})
	if len(findings) > t.TopPatterns {
		findings = findings[:t.TopPatterns]
	}
	if findings == nil {
		findings = []PatternFinding{}
	}
	return findings
}

func frequencyMoments(stats []NumberStats) (mean, std float64) {
	if len(stats) == 0 {
		return 0, 0
	}
	for _, s := range stats {
		mean += s.Frequency
	}
	mean /= float64(len(stats))
	for _, s := range stats {
		std += (s.Frequency - mean) * (s.Frequency - mean)
	}
	std = math.Sqrt(std / float64(len(stats)))
	return mean, std
}

// HotNumbers returns the k main numbers with the highest weighted frequency,
// ties broken by the lower number.
func (p *PatternAnalysis) HotNumbers(k int) []int {
	return rankBy(p.Main, k, func(a, b NumberStats) bool { return a.Frequency > b.Frequency })
}

// ColdNumbers returns the k main numbers with the lowest weighted frequency.
func (p *PatternAnalysis) ColdNumbers(k int) []int {
	return rankBy(p.Main, k, func(a, b NumberStats) bool { return a.Frequency < b.Frequency })
}

// TopCompanionAffinity returns the k numbers most co-drawn with the last draw.
func (p *PatternAnalysis) TopCompanionAffinity(k int) []int {
	return rankBy(p.Main, k, func(a, b NumberStats) bool { return a.CompanionAffinity > b.CompanionAffinity })
}

// MeanClusterStrength averages cluster strength over the main pool.
func (p *PatternAnalysis) MeanClusterStrength() float64 {
	if len(p.Main) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range p.Main {
		sum += s.ClusterStrength
	}
	return sum / float64(len(p.Main))
}

// MainStat returns the stats of main number n.
func (p *PatternAnalysis) MainStat(n int) NumberStats {
	return p.Main[n-1]
}

func rankBy(stats []NumberStats, k int, less func(a, b NumberStats) bool) []int {
	sorted := append([]NumberStats(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if k > len(sorted) {
		k = len(sorted)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = sorted[i].Number
	}
	return out
}
