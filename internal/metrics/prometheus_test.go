package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/aetherscore/internal/models"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RecordStep("aggregate", models.PerformanceLogItem{MainHits: 2, AverageWinnerRank: 21.4})
	r.RecordStep("aggregate", models.PerformanceLogItem{MainHits: 0, AverageWinnerRank: 30})
	r.RecordStep("tuesday", models.PerformanceLogItem{MainHits: 1, AverageWinnerRank: 12})
	r.RecordEvent("aggregate", models.BacktestEvent{Kind: models.EventWeightCalibration})
	r.RecordEvent("aggregate", models.BacktestEvent{Kind: models.EventRegimeShift})
	r.RecordEvent("friday", models.BacktestEvent{Kind: models.EventRegimeShift})
	r.RecordRun("aggregate", 1500*time.Millisecond)
	r.RecordError("friday")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.drawsBacktested.WithLabelValues("aggregate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.drawsBacktested.WithLabelValues("tuesday")))
	assert.Equal(t, 30.0, testutil.ToFloat64(r.winnerRank.WithLabelValues("aggregate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.calibrations.WithLabelValues("aggregate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.regimeShifts.WithLabelValues("aggregate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.regimeShifts.WithLabelValues("friday")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runErrors.WithLabelValues("friday")))

	expected := `
# HELP aether_weight_calibrations_total Total number of weight recalibrations
# TYPE aether_weight_calibrations_total counter
aether_weight_calibrations_total{pipeline="aggregate"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "aether_weight_calibrations_total"))

	n, err := testutil.GatherAndCount(reg, "aether_forecast_main_hits")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordStep("aggregate", models.PerformanceLogItem{})
		r.RecordEvent("aggregate", models.BacktestEvent{Kind: models.EventRegimeShift})
		r.RecordRun("aggregate", time.Second)
		r.RecordError("aggregate")
	})
}
