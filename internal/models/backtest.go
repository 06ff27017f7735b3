package models

import "time"

// FactorFlags records which factors a number satisfied against a training window.
type FactorFlags struct {
	IsHot              bool `json:"isHot"`
	IsCold             bool `json:"isCold"`
	IsOverdue          bool `json:"isOverdue"`
	IsInHotZone        bool `json:"isInHotZone"`
	HasMomentum        bool `json:"hasMomentum"`
	HasClusterStrength bool `json:"hasClusterStrength"`
	IsSeasonalHot      bool `json:"isSeasonalHot"`
	IsCompanionHot     bool `json:"isCompanionHot"`
	HasStability       bool `json:"hasStability"`
}

// WinnerProfile is the factor snapshot of one actual winning number.
type WinnerProfile struct {
	DrawIndex int         `json:"drawIndex"`
	DrawDate  time.Time   `json:"drawDate"`
	Number    int         `json:"number"`
	Flags     FactorFlags `json:"flags"`

	// Context from the draw immediately preceding the target.
	PrevSpread int `json:"prevSpread"`
	PrevSum    int `json:"prevSum"`
}

// HistoricalSuccessProfile holds the share of winner profiles matching each
// factor. All rates are fractions in [0,1].
type HistoricalSuccessProfile struct {
	SampleSize int `json:"sampleSize"`

	Hot             float64 `json:"hot"`
	Cold            float64 `json:"cold"`
	Overdue         float64 `json:"overdue"`
	HotZone         float64 `json:"hotZone"`
	Momentum        float64 `json:"momentum"`
	ClusterStrength float64 `json:"clusterStrength"`
	Seasonal        float64 `json:"seasonal"`
	Companion       float64 `json:"companion"`
	Stability       float64 `json:"stability"`

	HotAndOverdue     float64 `json:"hotAndOverdue"`
	HotAndMomentum    float64 `json:"hotAndMomentum"`
	HotZoneAndCluster float64 `json:"hotZoneAndCluster"`
}

// PerformanceLogItem is one backtested draw.
type PerformanceLogItem struct {
	DrawIndex         int             `json:"drawIndex"`
	DrawDate          time.Time       `json:"drawDate"`
	ForecastMain      []int           `json:"forecastMain"`
	ForecastStars     []int           `json:"forecastStars"`
	ActualMain        []int           `json:"actualMain"`
	ActualStars       []int           `json:"actualStars"`
	MainHits          int             `json:"mainHits"`
	StarHits          int             `json:"starHits"`
	BaselineForecast  []int           `json:"baselineForecast"`
	BaselineHits      int             `json:"baselineHits"`
	Context           CalendarContext `json:"context"`
	Regime            Regime          `json:"regime"`
	AverageWinnerRank float64         `json:"averageWinnerRank"`
}

// EventKind distinguishes backtest audit markers.
type EventKind string

const (
	EventWeightCalibration EventKind = "Weight Calibration"
	EventRegimeShift       EventKind = "Regime Shift Detected"
)

// BacktestEvent is an audit marker; it never drives control flow.
type BacktestEvent struct {
	DrawIndex int       `json:"drawIndex"`
	DrawDate  time.Time `json:"drawDate"`
	Kind      EventKind `json:"kind"`
}

// TimelineBucket averages a contiguous slice of the performance log.
type TimelineBucket struct {
	Bucket          int       `json:"bucket"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	Draws           int       `json:"draws"`
	AvgMainHits     float64   `json:"avgMainHits"`
	AvgStarHits     float64   `json:"avgStarHits"`
	AvgBaselineHits float64   `json:"avgBaselineHits"`
	AvgWinnerRank   float64   `json:"avgWinnerRank"`
}

// ContextPerformance aggregates hits for one calendar context.
type ContextPerformance struct {
	Context         CalendarContext `json:"context"`
	Draws           int             `json:"draws"`
	AvgMainHits     float64         `json:"avgMainHits"`
	AvgStarHits     float64         `json:"avgStarHits"`
	AvgBaselineHits float64         `json:"avgBaselineHits"`
}

// ABComparison compares the engine forecast against the frequency baseline.
type ABComparison struct {
	EngineWins   int     `json:"engineWins"`
	BaselineWins int     `json:"baselineWins"`
	Ties         int     `json:"ties"`
	EngineAvg    float64 `json:"engineAvg"`
	BaselineAvg  float64 `json:"baselineAvg"`
	Lift         float64 `json:"lift"`
}

// PerformanceBreakdown splits backtest results by context and A/B arm.
type PerformanceBreakdown struct {
	ByContext []ContextPerformance `json:"byContext"`
	AB        ABComparison         `json:"ab"`
}

// HistoricalSuccessAnalysis summarises what kind of number actually won.
type HistoricalSuccessAnalysis struct {
	Profile         HistoricalSuccessProfile `json:"profile"`
	TotalProfiles   int                      `json:"totalProfiles"`
	StrongestFactor string                   `json:"strongestFactor"`
	WeakestFactor   string                   `json:"weakestFactor"`
	AvgPrevSpread   float64                  `json:"avgPrevSpread"`
	AvgPrevSum      float64                  `json:"avgPrevSum"`
}
