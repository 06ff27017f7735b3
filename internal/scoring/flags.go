package scoring

import (
	"sort"

	"github.com/rewired-gh/aetherscore/internal/analysis"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

// Membership evaluates factor-membership flags of main numbers against one
// training window. The engine's combo bonus and the backtester's winner
// profiles both read flags from here.
type Membership struct {
	patterns    *analysis.PatternAnalysis
	meta        *analysis.MetaPatternAnalysis
	hot         [models.MainMax + 1]bool
	cold        [models.MainMax + 1]bool
	seasonal    [models.MainMax + 1]bool
	companion   [models.MainMax + 1]bool
	meanCluster float64
	stableAt    float64
}

// NewMembership prepares flag lookups for draws in targetMonth.
func NewMembership(p *analysis.PatternAnalysis, s *analysis.SeasonalAnalysis, m *analysis.MetaPatternAnalysis, targetMonth int, t tuning.Table) *Membership {
	ms := &Membership{
		patterns:    p,
		meta:        m,
		meanCluster: p.MeanClusterStrength(),
		stableAt:    t.HotPercentile,
	}
	if p.DrawCount > 0 {
		mark(&ms.hot, p.HotNumbers(t.HotSetSize))
		mark(&ms.cold, p.ColdNumbers(t.HotSetSize))
		mark(&ms.companion, p.TopCompanionAffinity(t.HotSetSize))
	}
	if s != nil {
		mark(&ms.seasonal, seasonalTop(s, targetMonth, t.HotSetSize))
	}
	return ms
}

// seasonalTop ranks numbers by their blended month/quarter share.
func seasonalTop(s *analysis.SeasonalAnalysis, month, k int) []int {
	blend := make([]float64, models.MainMax+1)
	seen := false
	for n := 1; n <= models.MainMax; n++ {
		blend[n] = s.Blend(month, n)
		if blend[n] > 0 {
			seen = true
		}
	}
	if !seen {
		return nil
	}
	nums := make([]int, models.MainMax)
	for i := range nums {
		nums[i] = i + 1
	}
	sort.SliceStable(nums, func(i, j int) bool { return blend[nums[i]] > blend[nums[j]] })
	return nums[:k]
}

func mark(set *[models.MainMax + 1]bool, nums []int) {
	for _, n := range nums {
		set[n] = true
	}
}

// Flags returns the factor flags of main number n.
func (ms *Membership) Flags(n int) models.FactorFlags {
	st := ms.patterns.MainStat(n)
	f := models.FactorFlags{
		IsHot:              ms.hot[n],
		IsCold:             ms.cold[n],
		IsOverdue:          st.IsOverdue,
		IsInHotZone:        ms.patterns.DrawCount > 0 && st.Zone == ms.patterns.Zones.HotZone,
		HasMomentum:        st.Momentum > 0,
		HasClusterStrength: st.ClusterStrength > ms.meanCluster,
		IsSeasonalHot:      ms.seasonal[n],
		IsCompanionHot:     ms.companion[n],
	}
	if ms.meta != nil && ms.meta.Windows > 0 {
		f.HasStability = ms.meta.Number(n).Stability >= ms.stableAt
	}
	return f
}
