package models

// Factor names a weighted scoring factor.
type Factor string

const (
	FactorFrequency       Factor = "frequency"
	FactorDormancy        Factor = "dormancy"
	FactorZone            Factor = "zone"
	FactorCompanion       Factor = "companion"
	FactorSeasonal        Factor = "seasonal"
	FactorMomentum        Factor = "momentum"
	FactorClusterStrength Factor = "clusterStrength"
	FactorStability       Factor = "stability"
)

// Factors lists the weighted factors in canonical order.
var Factors = []Factor{
	FactorFrequency,
	FactorDormancy,
	FactorZone,
	FactorCompanion,
	FactorSeasonal,
	FactorMomentum,
	FactorClusterStrength,
	FactorStability,
}

// WeightConfiguration holds the eight non-negative factor weights.
type WeightConfiguration struct {
	Frequency       float64 `json:"frequency"`
	Dormancy        float64 `json:"dormancy"`
	Zone            float64 `json:"zone"`
	Companion       float64 `json:"companion"`
	Seasonal        float64 `json:"seasonal"`
	Momentum        float64 `json:"momentum"`
	ClusterStrength float64 `json:"clusterStrength"`
	Stability       float64 `json:"stability"`
}

// BaselineWeights is the starting and fallback weight vector.
func BaselineWeights() WeightConfiguration {
	return WeightConfiguration{
		Frequency:       0.25,
		Dormancy:        0.20,
		Zone:            0.10,
		Companion:       0.05,
		Seasonal:        0.10,
		Momentum:        0.15,
		ClusterStrength: 0.10,
		Stability:       0.05,
	}
}

// Get returns the weight of f.
func (w WeightConfiguration) Get(f Factor) float64 {
	switch f {
	case FactorFrequency:
		return w.Frequency
	case FactorDormancy:
		return w.Dormancy
	case FactorZone:
		return w.Zone
	case FactorCompanion:
		return w.Companion
	case FactorSeasonal:
		return w.Seasonal
	case FactorMomentum:
		return w.Momentum
	case FactorClusterStrength:
		return w.ClusterStrength
	case FactorStability:
		return w.Stability
	}
	return 0
}

// Set assigns the weight of f.
func (w *WeightConfiguration) Set(f Factor, v float64) {
	switch f {
	case FactorFrequency:
		w.Frequency = v
	case FactorDormancy:
		w.Dormancy = v
	case FactorZone:
		w.Zone = v
	case FactorCompanion:
		w.Companion = v
	case FactorSeasonal:
		w.Seasonal = v
	case FactorMomentum:
		w.Momentum = v
	case FactorClusterStrength:
		w.ClusterStrength = v
	case FactorStability:
		w.Stability = v
	}
}

// Sum is the total of all eight weights.
func (w WeightConfiguration) Sum() float64 {
	s := 0.0
	for _, f := range Factors {
		s += w.Get(f)
	}
	return s
}

// Normalized rescales the weights so they add up to total.
// A zero vector is returned unchanged.
func (w WeightConfiguration) Normalized(total float64) WeightConfiguration {
	sum := w.Sum()
	if sum <= 0 {
		return w
	}
	out := w
	for _, f := range Factors {
		out.Set(f, w.Get(f)/sum*total)
	}
	return out
}
