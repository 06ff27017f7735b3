package pipeline

import (
	"time"

	"github.com/rewired-gh/aetherscore/internal/analysis"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/scoring"
)

// AnalysisResult is the forward-looking forecast built from a pipeline's
// full history.
type AnalysisResult struct {
	Scores   models.Rankings            `json:"scores"`
	Patterns *analysis.PatternAnalysis  `json:"patterns"`
	Coupons  []models.Coupon            `json:"coupons"`
	Weights  models.WeightConfiguration `json:"weights"`
	Regime   models.Regime              `json:"regime"`
	Shift    scoring.ShiftSignal        `json:"shift"`
}

// Bundle is the completion payload of one pipeline.
type Bundle struct {
	RunID        string                           `json:"runId"`
	Pipeline     string                           `json:"pipeline"`
	DrawCount    int                              `json:"drawCount"`
	Analysis     AnalysisResult                   `json:"analysis"`
	Success      models.HistoricalSuccessAnalysis `json:"success"`
	Timing       *analysis.PatternTimingAnalysis  `json:"timing"`
	Log          []models.PerformanceLogItem      `json:"log"`
	Events       []models.BacktestEvent           `json:"events"`
	Timeline     []models.TimelineBucket          `json:"timeline"`
	Breakdown    models.PerformanceBreakdown      `json:"breakdown"`
	Insight      models.ForecastInsight           `json:"insight"`
	Validation   models.ContextValidation         `json:"validation"`
	LastDrawDate time.Time                        `json:"lastDrawDate"`
	NextDrawDate time.Time                        `json:"nextDrawDate"`
}

// Record is the storage summary of the bundle.
func (b *Bundle) Record(createdAt time.Time) *models.RunRecord {
	return &models.RunRecord{
		ID:           b.RunID,
		Pipeline:     b.Pipeline,
		CreatedAt:    createdAt,
		DrawCount:    b.DrawCount,
		LastDrawDate: b.LastDrawDate,
		NextDrawDate: b.NextDrawDate,
		Regime:       b.Analysis.Regime,
		Weights:      b.Analysis.Weights,
		AvgMainHits:  b.Insight.AvgMainHits,
		Lift:         b.Insight.Lift,
	}
}

// Progress is one aggregated progress event.
type Progress struct {
	Stage      string  `json:"stage"`
	Percentage float64 `json:"percentage"`
}
