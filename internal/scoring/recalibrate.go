package scoring

import (
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

const recalibrationEpsilon = 1e-6

// BuildProfile aggregates winner profiles into factor hit rates.
func BuildProfile(profiles []models.WinnerProfile) models.HistoricalSuccessProfile {
	p := models.HistoricalSuccessProfile{SampleSize: len(profiles)}
	if len(profiles) == 0 {
		return p
	}
	var hot, cold, overdue, zone, mom, cluster, seasonal, companion, stability int
	var hotOverdue, hotMomentum, zoneCluster int
	for _, wp := range profiles {
		f := wp.Flags
		count(&hot, f.IsHot)
		count(&cold, f.IsCold)
		count(&overdue, f.IsOverdue)
		count(&zone, f.IsInHotZone)
		count(&mom, f.HasMomentum)
		count(&cluster, f.HasClusterStrength)
		count(&seasonal, f.IsSeasonalHot)
		count(&companion, f.IsCompanionHot)
		count(&stability, f.HasStability)
		count(&hotOverdue, f.IsHot && f.IsOverdue)
		count(&hotMomentum, f.IsHot && f.HasMomentum)
		count(&zoneCluster, f.IsInHotZone && f.HasClusterStrength)
	}
	n := float64(len(profiles))
	p.Hot = float64(hot) / n
	p.Cold = float64(cold) / n
	p.Overdue = float64(overdue) / n
	p.HotZone = float64(zone) / n
	p.Momentum = float64(mom) / n
	p.ClusterStrength = float64(cluster) / n
	p.Seasonal = float64(seasonal) / n
	p.Companion = float64(companion) / n
	p.Stability = float64(stability) / n
	p.HotAndOverdue = float64(hotOverdue) / n
	p.HotAndMomentum = float64(hotMomentum) / n
	p.HotZoneAndCluster = float64(zoneCluster) / n
	return p
}

func count(c *int, ok bool) {
	if ok {
		*c++
	}
}

// Recalibrate derives weights from a hit profile. Below minSample winners the
// baseline weights are returned. Companion and stability keep their baseline
// share; the rest of the pool follows each factor's share of the hit rates.
func Recalibrate(p models.HistoricalSuccessProfile, minSample int) models.WeightConfiguration {
	base := models.BaselineWeights()
	if p.SampleSize < minSample {
		return base
	}

	rates := map[models.Factor]float64{
		models.FactorFrequency:       p.Hot + recalibrationEpsilon,
		models.FactorDormancy:        p.Overdue + recalibrationEpsilon,
		models.FactorZone:            p.HotZone + recalibrationEpsilon,
		models.FactorMomentum:        p.Momentum + recalibrationEpsilon,
		models.FactorClusterStrength: p.ClusterStrength + recalibrationEpsilon,
		models.FactorSeasonal:        p.Seasonal + recalibrationEpsilon,
	}
	total := 0.0
	for _, f := range models.Factors {
		total += rates[f]
	}

	w := models.WeightConfiguration{
		Companion: base.Companion,
		Stability: base.Stability,
	}
	pool := 1 - base.Companion - base.Stability
	for _, f := range models.Factors {
		if r, ok := rates[f]; ok {
			w.Set(f, pool*r/total)
		}
	}
	return w
}

// AdjustForSeasonality shifts weight toward momentum in volatile months and
// toward frequency in stable ones. The total weight is preserved.
func AdjustForSeasonality(w models.WeightConfiguration, dissimilarity float64, t tuning.Table) models.WeightConfiguration {
	var adj tuning.Adjustment
	switch {
	case dissimilarity > t.VolatileThreshold:
		adj = t.VolatileAdjust
	case dissimilarity < t.StableThreshold:
		adj = t.StableAdjust
	default:
		return w
	}
	total := w.Sum()
	out := models.WeightConfiguration{
		Frequency:       w.Frequency * adj.Frequency,
		Dormancy:        w.Dormancy * adj.Dormancy,
		Zone:            w.Zone * adj.Zone,
		Companion:       w.Companion * adj.Companion,
		Seasonal:        w.Seasonal * adj.Seasonal,
		Momentum:        w.Momentum * adj.Momentum,
		ClusterStrength: w.ClusterStrength * adj.ClusterStrength,
		Stability:       w.Stability * adj.Stability,
	}
	return out.Normalized(total)
}
