package analysis

import (
	"sort"

	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

// SeasonalAnalysis holds recency-weighted frequency maps per calendar month
// (1-12) and quarter (1-4).
type SeasonalAnalysis struct {
	Monthly     map[int]map[int]float64 `json:"monthly"`
	Quarterly   map[int]map[int]float64 `json:"quarterly"`
	StarMonthly map[int]map[int]float64 `json:"starMonthly"`
	MonthDraws  map[int]int             `json:"monthDraws"`
}

// QuarterOf maps a month to its quarter.
func QuarterOf(month int) int {
	return (month-1)/3 + 1
}

func newFrequencyMap(keys, pool int) map[int]map[int]float64 {
	m := make(map[int]map[int]float64, keys)
	for k := 1; k <= keys; k++ {
		inner := make(map[int]float64, pool)
		for n := 1; n <= pool; n++ {
			inner[n] = 0
		}
		m[k] = inner
	}
	return m
}

// AnalyzeSeasonal builds the per-month and per-quarter maps.
func AnalyzeSeasonal(draws []models.Draw, t tuning.Table) *SeasonalAnalysis {
	s := &SeasonalAnalysis{
		Monthly:     newFrequencyMap(12, models.MainMax),
		Quarterly:   newFrequencyMap(4, models.MainMax),
		StarMonthly: newFrequencyMap(12, models.StarMax),
		MonthDraws:  make(map[int]int, 12),
	}
	for m := 1; m <= 12; m++ {
		s.MonthDraws[m] = 0
	}
	weights := RecencyWeights(len(draws), t.RecencyDecay)
	for i, d := range draws {
		month := int(d.Date.Month())
		quarter := QuarterOf(month)
		s.MonthDraws[month]++
		for _, n := range d.Main {
			s.Monthly[month][n] += weights[i]
			s.Quarterly[quarter][n] += weights[i]
		}
		for _, n := range d.Stars {
			s.StarMonthly[month][n] += weights[i]
		}
	}
	return s
}

// Blend returns 0.7 x month share + 0.3 x quarter share for number n, where a
// share is the number's weight divided by the period's total weight.
func (s *SeasonalAnalysis) Blend(month, n int) float64 {
	return 0.7*share(s.Monthly[month], n) + 0.3*share(s.Quarterly[QuarterOf(month)], n)
}

func share(m map[int]float64, n int) float64 {
	// summed in key order so results are bit-for-bit repeatable
	total := 0.0
	for k := 1; k <= len(m); k++ {
		total += m[k]
	}
	if total <= 0 {
		return 0
	}
	return m[n] / total
}

// TopForMonth returns the k main numbers with the highest weight in month,
// ties broken by the lower number. Months without draws yield nil.
func (s *SeasonalAnalysis) TopForMonth(month, k int) []int {
	if s.MonthDraws[month] == 0 {
		return nil
	}
	freq := s.Monthly[month]
	nums := make([]int, 0, len(freq))
	for n := 1; n <= models.MainMax; n++ {
		nums = append(nums, n)
	}
	sort.SliceStable(nums, func(i, j int) bool { return freq[nums[i]] > freq[nums[j]] })
	if k > len(nums) {
		k = len(nums)
	}
	return nums[:k]
}
