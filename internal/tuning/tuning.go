// Package tuning holds every threshold and constant used by the analyzers,
// the score engine and the coupon builder, so they can be recalibrated and
// tested from one place.
package tuning

import "fmt"

// Adjustment multiplies selected weights before renormalization.
type Adjustment struct {
	Frequency       float64 `mapstructure:"frequency" json:"frequency"`
	Dormancy        float64 `mapstructure:"dormancy" json:"dormancy"`
	Zone            float64 `mapstructure:"zone" json:"zone"`
	Companion       float64 `mapstructure:"companion" json:"companion"`
	Seasonal        float64 `mapstructure:"seasonal" json:"seasonal"`
	Momentum        float64 `mapstructure:"momentum" json:"momentum"`
	ClusterStrength float64 `mapstructure:"cluster_strength" json:"clusterStrength"`
	Stability       float64 `mapstructure:"stability" json:"stability"`
}

// Table is the single tuning table.
type Table struct {
	// Pattern analyzer
	RecencyDecay         float64 `mapstructure:"recency_decay"`
	ZoneCount            int     `mapstructure:"zone_count"`
	ZoneWidth            int     `mapstructure:"zone_width"`
	MomentumRecentWindow int     `mapstructure:"momentum_recent_window"`
	ClusterLookback      int     `mapstructure:"cluster_lookback"`
	ClusterCompanions    int     `mapstructure:"cluster_companions"`
	TopCompanionPairs    int     `mapstructure:"top_companion_pairs"`
	TopPatterns          int     `mapstructure:"top_patterns"`

	// Hot/cold split
	HotSetSize     int     `mapstructure:"hot_set_size"`
	HotPercentile  float64 `mapstructure:"hot_percentile"`
	ColdPercentile float64 `mapstructure:"cold_percentile"`

	// Meta-pattern analyzer
	MetaWindow             int `mapstructure:"meta_window"`
	MetaStep               int `mapstructure:"meta_step"`
	DormancyBreakGap       int `mapstructure:"dormancy_break_gap"`
	BreakActivityLookahead int `mapstructure:"break_activity_lookahead"`

	// Pattern timing analyzer
	TimingLookback int `mapstructure:"timing_lookback"`
	TimingWindow   int `mapstructure:"timing_window"`
	TimingStep     int `mapstructure:"timing_step"`

	// Regime
	VolatileThreshold    float64 `mapstructure:"volatile_threshold"`
	StableThreshold      float64 `mapstructure:"stable_threshold"`
	NeutralVolatility    float64 `mapstructure:"neutral_volatility"`
	HotStreakThreshold   float64 `mapstructure:"hot_streak_threshold"`
	ShiftWindow          int     `mapstructure:"shift_window"`
	SpreadShiftThreshold float64 `mapstructure:"spread_shift_threshold"`
	RepeatShiftThreshold float64 `mapstructure:"repeat_shift_threshold"`

	// Aether score bonuses and penalties
	PostDormancyMaxCurrent     int     `mapstructure:"post_dormancy_max_current"`
	PostDormancyMinAverage     float64 `mapstructure:"post_dormancy_min_average"`
	PostDormancyNumerator      float64 `mapstructure:"post_dormancy_numerator"`
	ComboRateThreshold         float64 `mapstructure:"combo_rate_threshold"`
	ComboMultiplier            float64 `mapstructure:"combo_multiplier"`
	ZoneClusterComboMultiplier float64 `mapstructure:"zone_cluster_combo_multiplier"`
	PopularityBase             float64 `mapstructure:"popularity_base"`
	PopularityHoliday          float64 `mapstructure:"popularity_holiday"`
	PopularityRegime           float64 `mapstructure:"popularity_regime"`
	PopularityScale            float64 `mapstructure:"popularity_scale"`

	// Coupon builder
	DeltaTolerance float64 `mapstructure:"delta_tolerance"`
	CouponPool     int     `mapstructure:"coupon_pool"`
	CouponCount    int     `mapstructure:"coupon_count"`

	VolatileAdjust Adjustment `mapstructure:"volatile_adjust"`
	StableAdjust   Adjustment `mapstructure:"stable_adjust"`
}

func neutral() Adjustment {
	return Adjustment{1, 1, 1, 1, 1, 1, 1, 1}
}

// Default returns the reference tuning.
func Default() Table {
	volatile := neutral()
	volatile.Momentum = 1.3
	volatile.ClusterStrength = 1.3
	volatile.Frequency = 0.8
	volatile.Seasonal = 0.8

	stable := neutral()
	stable.Frequency = 1.2
	stable.Seasonal = 1.2
	stable.Momentum = 0.85

	return Table{
		RecencyDecay:         0.2,
		ZoneCount:            5,
		ZoneWidth:            10,
		MomentumRecentWindow: 25,
		ClusterLookback:      10,
		ClusterCompanions:    5,
		TopCompanionPairs:    10,
		TopPatterns:          10,

		HotSetSize:     10,
		HotPercentile:  0.67,
		ColdPercentile: 0.33,

		MetaWindow:             30,
		MetaStep:               10,
		DormancyBreakGap:       15,
		BreakActivityLookahead: 3,

		TimingLookback: 200,
		TimingWindow:   30,
		TimingStep:     10,

		VolatileThreshold:    0.6,
		StableThreshold:      0.3,
		NeutralVolatility:    0.45,
		HotStreakThreshold:   4.0,
		ShiftWindow:          50,
		SpreadShiftThreshold: 0.15,
		RepeatShiftThreshold: 0.25,

		PostDormancyMaxCurrent:     5,
		PostDormancyMinAverage:     20,
		PostDormancyNumerator:      50,
		ComboRateThreshold:         0.05,
		ComboMultiplier:            50,
		ZoneClusterComboMultiplier: 40,
		PopularityBase:             0.3,
		PopularityHoliday:          0.5,
		PopularityRegime:           0.6,
		PopularityScale:            40,

		DeltaTolerance: 1.5,
		CouponPool:     20,
		CouponCount:    10,

		VolatileAdjust: volatile,
		StableAdjust:   stable,
	}
}

// Validate checks that the table is usable.
func (t Table) Validate() error {
	if t.RecencyDecay <= 0 {
		return fmt.Errorf("recency_decay must be positive")
	}
	if t.ZoneCount < 1 || t.ZoneWidth < 1 {
		return fmt.Errorf("zone_count and zone_width must be at least 1")
	}
	if t.ZoneCount*t.ZoneWidth < 50 {
		return fmt.Errorf("zones must cover the main range 1-50")
	}
	if t.MomentumRecentWindow < 1 {
		return fmt.Errorf("momentum_recent_window must be at least 1")
	}
	if t.HotSetSize < 1 || t.HotSetSize > 50 {
		return fmt.Errorf("hot_set_size must be between 1 and 50")
	}
	if t.ColdPercentile >= t.HotPercentile {
		return fmt.Errorf("cold_percentile must be below hot_percentile")
	}
	if t.MetaWindow < 2 || t.MetaStep < 1 {
		return fmt.Errorf("meta_window must be at least 2 and meta_step at least 1")
	}
	if t.TimingWindow < 2 || t.TimingStep < 1 || t.TimingLookback < t.TimingWindow {
		return fmt.Errorf("timing_lookback must cover timing_window and timing_step must be at least 1")
	}
	if t.StableThreshold >= t.VolatileThreshold {
		return fmt.Errorf("stable_threshold must be below volatile_threshold")
	}
	if t.ShiftWindow < 1 {
		return fmt.Errorf("shift_window must be at least 1")
	}
	if t.CouponPool < 5 || t.CouponPool > 50 {
		return fmt.Errorf("coupon_pool must be between 5 and 50")
	}
	if t.CouponCount < 1 {
		return fmt.Errorf("coupon_count must be at least 1")
	}
	return nil
}
