package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rewired-gh/aetherscore/internal/models"
)

// Recorder exports backtest progress and accuracy, labelled by pipeline.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	drawsBacktested *prometheus.CounterVec
	calibrations    *prometheus.CounterVec
	regimeShifts    *prometheus.CounterVec
	mainHits        *prometheus.HistogramVec
	winnerRank      *prometheus.GaugeVec
	runDuration     *prometheus.HistogramVec
	runErrors       *prometheus.CounterVec
}

// NewRecorder registers the collectors with reg. Pass
// prometheus.DefaultRegisterer to serve them from promhttp.Handler.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		drawsBacktested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aether_backtest_draws_total",
				Help: "Total number of draws forecast and scored by the backtester",
			},
			[]string{"pipeline"},
		),
		calibrations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aether_weight_calibrations_total",
				Help: "Total number of weight recalibrations",
			},
			[]string{"pipeline"},
		),
		regimeShifts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aether_regime_shifts_total",
				Help: "Total number of detected regime shifts",
			},
			[]string{"pipeline"},
		),
		mainHits: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aether_forecast_main_hits",
				Help:    "Main-number hits of the top forecast per backtested draw",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
			[]string{"pipeline"},
		),
		winnerRank: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aether_average_winner_rank",
				Help: "Average rank of the actual winners in the latest backtested draw",
			},
			[]string{"pipeline"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aether_pipeline_duration_seconds",
				Help:    "Duration of complete pipeline runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pipeline"},
		),
		runErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aether_pipeline_errors_total",
				Help: "Total number of failed runs",
			},
			[]string{"pipeline"},
		),
	}
}

// RecordStep records one backtested draw.
func (r *Recorder) RecordStep(pipeline string, item models.PerformanceLogItem) {
	if r == nil {
		return
	}
	r.drawsBacktested.WithLabelValues(pipeline).Inc()
	r.mainHits.WithLabelValues(pipeline).Observe(float64(item.MainHits))
	r.winnerRank.WithLabelValues(pipeline).Set(item.AverageWinnerRank)
}

// RecordEvent counts calibration and regime shift markers.
func (r *Recorder) RecordEvent(pipeline string, ev models.BacktestEvent) {
	if r == nil {
		return
	}
	switch ev.Kind {
	case models.EventWeightCalibration:
		r.calibrations.WithLabelValues(pipeline).Inc()
	case models.EventRegimeShift:
		r.regimeShifts.WithLabelValues(pipeline).Inc()
	}
}

// RecordRun records the wall time of a finished pipeline run.
func (r *Recorder) RecordRun(pipeline string, d time.Duration) {
	if r == nil {
		return
	}
	r.runDuration.WithLabelValues(pipeline).Observe(d.Seconds())
}

// RecordError counts a failed run.
func (r *Recorder) RecordError(pipeline string) {
	if r == nil {
		return
	}
	r.runErrors.WithLabelValues(pipeline).Inc()
}
