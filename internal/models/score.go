package models

// ScoreBreakdown holds the named contributions to one number's score.
// The eight weighted factors are raw 0-100 values before weighting.
type ScoreBreakdown struct {
	Frequency       float64 `json:"frequency"`
	Dormancy        float64 `json:"dormancy"`
	Zone            float64 `json:"zone"`
	Companion       float64 `json:"companion"`
	Seasonal        float64 `json:"seasonal"`
	Momentum        float64 `json:"momentum"`
	ClusterStrength float64 `json:"clusterStrength"`
	Stability       float64 `json:"stability"`

	PostDormancy float64 `json:"postDormancy"`
	Combo        float64 `json:"combo"`
	Contextual   float64 `json:"contextual"`
	Popularity   float64 `json:"popularity"`
}

// Factor returns the raw value of a weighted factor.
func (b ScoreBreakdown) Factor(f Factor) float64 {
	switch f {
	case FactorFrequency:
		return b.Frequency
	case FactorDormancy:
		return b.Dormancy
	case FactorZone:
		return b.Zone
	case FactorCompanion:
		return b.Companion
	case FactorSeasonal:
		return b.Seasonal
	case FactorMomentum:
		return b.Momentum
	case FactorClusterStrength:
		return b.ClusterStrength
	case FactorStability:
		return b.Stability
	}
	return 0
}

// AetherScore is one ranked number.
type AetherScore struct {
	Number        int            `json:"number"`
	Score         float64        `json:"score"`
	Rank          int            `json:"rank"`
	Breakdown     ScoreBreakdown `json:"breakdown"`
	Justification string         `json:"justification"`
}

// Rankings is the engine output for both pools, each sorted by rank.
type Rankings struct {
	Main  []AetherScore `json:"main"`
	Stars []AetherScore `json:"stars"`
}

// TopNumbers returns the first k numbers of a ranked list.
func TopNumbers(scores []AetherScore, k int) []int {
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = scores[i].Number
	}
	return out
}

// RankOf returns the rank of n in a ranked list, or 0 when absent.
func RankOf(scores []AetherScore, n int) int {
	for _, s := range scores {
		if s.Number == n {
			return s.Rank
		}
	}
	return 0
}

// Coupon pairs five main numbers with two stars.
type Coupon struct {
	Main      []int   `json:"main"`
	Stars     []int   `json:"stars"`
	MainScore float64 `json:"mainScore"`
	StarScore float64 `json:"starScore"`
}
