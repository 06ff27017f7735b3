package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rewired-gh/aetherscore/internal/analysis"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

// Input is everything the engine needs to score one target draw. Nil analyses
// are computed from Draws.
type Input struct {
	Draws      []models.Draw
	Patterns   *analysis.PatternAnalysis
	Seasonal   *analysis.SeasonalAnalysis
	Meta       *analysis.MetaPatternAnalysis
	Membership *Membership
	TargetDate time.Time
	Weights    models.WeightConfiguration
	Profile    *models.HistoricalSuccessProfile
	Regime     models.Regime
}

// Engine computes Aether scores.
type Engine struct {
	table tuning.Table
}

func NewEngine(t tuning.Table) *Engine {
	return &Engine{table: t}
}

func (e *Engine) complete(in *Input) {
	if in.Patterns == nil {
		in.Patterns = analysis.AnalyzePatterns(in.Draws, e.table)
	}
	if in.Seasonal == nil {
		in.Seasonal = analysis.AnalyzeSeasonal(in.Draws, e.table)
	}
	if in.Meta == nil {
		in.Meta = analysis.AnalyzeMetaPatterns(in.Draws, e.table)
	}
	if in.Membership == nil {
		in.Membership = NewMembership(in.Patterns, in.Seasonal, in.Meta, int(in.TargetDate.Month()), e.table)
	}
}

// Score ranks every main number and every star for the target date.
func (e *Engine) Score(in Input) models.Rankings {
	e.complete(&in)
	return models.Rankings{
		Main:  e.scoreMain(in),
		Stars: e.scoreStars(in.Patterns),
	}
}

func scaled(v, top float64) float64 {
	if top <= 0 {
		return 0
	}
	return v / top * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (e *Engine) scoreMain(in Input) []models.AetherScore {
	t := e.table
	p := in.Patterns
	month := int(in.TargetDate.Month())
	ctx := CalendarContextOf(in.TargetDate)
	popWeight := PopularityWeight(ctx, in.Regime, t)

	blend := make([]float64, models.MainMax+1)
	var maxFreq, maxAff, maxCluster, maxBlend, maxZone float64
	for n := 1; n <= models.MainMax; n++ {
		s := p.MainStat(n)
		maxFreq = math.Max(maxFreq, s.Frequency)
		maxAff = math.Max(maxAff, s.CompanionAffinity)
		maxCluster = math.Max(maxCluster, s.ClusterStrength)
		blend[n] = in.Seasonal.Blend(month, n)
		maxBlend = math.Max(maxBlend, blend[n])
	}
	for _, z := range p.Zones.Totals {
		maxZone = math.Max(maxZone, z)
	}

	scores := make([]models.AetherScore, 0, models.MainMax)
	for n := 1; n <= models.MainMax; n++ {
		s := p.MainStat(n)
		var b models.ScoreBreakdown
		b.Frequency = scaled(s.Frequency, maxFreq)
		if s.AverageDormancy > 0 {
			b.Dormancy = math.Min(float64(s.CurrentDormancy)/s.AverageDormancy, 3) / 3 * 100
		}
		if s.Zone < len(p.Zones.Totals) {
			b.Zone = scaled(p.Zones.Totals[s.Zone], maxZone)
		}
		b.Companion = scaled(s.CompanionAffinity, maxAff)
		b.Seasonal = scaled(blend[n], maxBlend)
		if p.DrawCount > 0 {
			b.Momentum = clamp((s.Momentum+100)/3, 0, 100)
		}
		b.ClusterStrength = scaled(s.ClusterStrength, maxCluster)
		if in.Meta != nil && in.Meta.Windows > 0 {
			b.Stability = in.Meta.Number(n).Stability * 100
		}

		weighted := 0.0
		for _, f := range models.Factors {
			weighted += b.Factor(f) * in.Weights.Get(f)
		}

		if s.CurrentDormancy < t.PostDormancyMaxCurrent && s.AverageDormancy > t.PostDormancyMinAverage {
			b.PostDormancy = t.PostDormancyNumerator / float64(s.CurrentDormancy+1)
		}
		b.Combo = e.comboBonus(in.Profile, in.Membership.Flags(n))
		b.Contextual = ContextualBoost(n, in.TargetDate, ctx)
		b.Popularity = PopularityPenalty(n, popWeight, t)

		total := weighted + b.PostDormancy + b.Combo + b.Contextual - b.Popularity
		scores = append(scores, models.AetherScore{
			Number:        n,
			Score:         total,
			Breakdown:     b,
			Justification: justifyMain(b, in.Weights, ctx),
		})
	}
	rank(scores)
	return scores
}

func (e *Engine) comboBonus(profile *models.HistoricalSuccessProfile, f models.FactorFlags) float64 {
	if profile == nil {
		return 0
	}
	t := e.table
	bonus := 0.0
	if profile.HotAndOverdue > t.ComboRateThreshold && f.IsHot && f.IsOverdue {
		bonus += profile.HotAndOverdue * t.ComboMultiplier
	}
	if profile.HotAndMomentum > t.ComboRateThreshold && f.IsHot && f.HasMomentum {
		bonus += profile.HotAndMomentum * t.ComboMultiplier
	}
	if profile.HotZoneAndCluster > t.ComboRateThreshold && f.IsInHotZone && f.HasClusterStrength {
		bonus += profile.HotZoneAndCluster * t.ZoneClusterComboMultiplier
	}
	return bonus
}

func (e *Engine) scoreStars(p *analysis.PatternAnalysis) []models.AetherScore {
	mean := 0.0
	for _, s := range p.Stars {
		mean += s.Frequency
	}
	if len(p.Stars) > 0 {
		mean /= float64(len(p.Stars))
	}

	scores := make([]models.AetherScore, 0, len(p.Stars))
	for _, s := range p.Stars {
		var b models.ScoreBreakdown
		if mean > 0 {
			b.Frequency = (s.Frequency - mean) / mean * 100
		}
		if s.AverageDormancy > 0 {
			b.Dormancy = float64(s.CurrentDormancy) / s.AverageDormancy * 100
		}
		scores = append(scores, models.AetherScore{
			Number:        s.Number,
			Score:         0.6*b.Frequency + 0.4*b.Dormancy,
			Breakdown:     b,
			Justification: fmt.Sprintf("frequency deviation %+.1f%%, dormancy ratio %.0f%%", b.Frequency, b.Dormancy),
		})
	}
	rank(scores)
	return scores
}

// rank sorts by descending score, keeping enumeration order on ties, and
// assigns dense ranks from 1.
func rank(scores []models.AetherScore) {
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	for i := range scores {
		scores[i].Rank = i + 1
	}
}

func justifyMain(b models.ScoreBreakdown, w models.WeightConfiguration, ctx models.CalendarContext) string {
	type part struct {
		f models.Factor
		v float64
	}
	parts := make([]part, 0, len(models.Factors))
	for _, f := range models.Factors {
		parts = append(parts, part{f, b.Factor(f) * w.Get(f)})
	}
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].v > parts[j].v })

	var sb strings.Builder
	for i, pt := range parts[:3] {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s %.1f", pt.f, pt.v)
	}
	if b.PostDormancy > 0 {
		fmt.Fprintf(&sb, "; post-dormancy %+.1f", b.PostDormancy)
	}
	if b.Combo > 0 {
		fmt.Fprintf(&sb, "; combo %+.1f", b.Combo)
	}
	if b.Contextual != 0 {
		fmt.Fprintf(&sb, "; %s %+.1f", ctx, b.Contextual)
	}
	if b.Popularity > 0 {
		fmt.Fprintf(&sb, "; popularity -%.1f", b.Popularity)
	}
	return sb.String()
}
