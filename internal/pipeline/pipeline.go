// Package pipeline runs the full analysis for the aggregate history and for
// each draw weekday concurrently, and delivers one bundle per pipeline.
package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/aetherscore/internal/analysis"
	"github.com/rewired-gh/aetherscore/internal/backtest"
	"github.com/rewired-gh/aetherscore/internal/coupon"
	"github.com/rewired-gh/aetherscore/internal/logger"
	"github.com/rewired-gh/aetherscore/internal/metrics"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/scoring"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

const (
	Aggregate = "aggregate"
	Tuesday   = "tuesday"
	Friday    = "friday"
)

type Config struct {
	AggregateWeight   float64 `mapstructure:"aggregate_weight"`
	TuesdayWeight     float64 `mapstructure:"tuesday_weight"`
	FridayWeight      float64 `mapstructure:"friday_weight"`
	ProgressPerSecond float64 `mapstructure:"progress_per_second"`
	CouponSeed        uint64  `mapstructure:"coupon_seed"`
}

func DefaultConfig() Config {
	return Config{
		AggregateWeight:   0.4,
		TuesdayWeight:     0.3,
		FridayWeight:      0.3,
		ProgressPerSecond: 10,
		CouponSeed:        1,
	}
}

// lane describes one pipeline: which draws it sees and which weekdays its
// next draw can fall on.
type lane struct {
	name   string
	weight float64
	days   []time.Weekday
	filter func([]models.Draw) []models.Draw
}

func (c Config) lanes() []lane {
	return []lane{
		{
			name:   Aggregate,
			weight: c.AggregateWeight,
			days:   DrawDays,
			filter: func(d []models.Draw) []models.Draw { return d },
		},
		{
			name:   Tuesday,
			weight: c.TuesdayWeight,
			days:   []time.Weekday{time.Tuesday},
			filter: func(d []models.Draw) []models.Draw { return ByWeekday(d, time.Tuesday) },
		},
		{
			name:   Friday,
			weight: c.FridayWeight,
			days:   []time.Weekday{time.Friday},
			filter: func(d []models.Draw) []models.Draw { return ByWeekday(d, time.Friday) },
		},
	}
}

// Runner executes the three pipelines. It holds no per-run state.
type Runner struct {
	config   Config
	backtest backtest.Config
	table    tuning.Table
	recorder *metrics.Recorder
}

// New builds a Runner. recorder may be nil.
func New(config Config, bt backtest.Config, t tuning.Table, recorder *metrics.Recorder) *Runner {
	return &Runner{
		config:   config,
		backtest: bt,
		table:    t,
		recorder: recorder,
	}
}

// Run executes all pipelines concurrently over draws, which must be sorted by
// date. progress may be nil. Any failure, including a panic, cancels the
// other pipelines and is returned as the single error; no bundles are
// returned in that case.
func (r *Runner) Run(ctx context.Context, draws []models.Draw, progress func(Progress)) ([]*Bundle, error) {
	lanes := r.config.lanes()
	weights := make(map[string]float64, len(lanes))
	for _, s := range lanes {
		weights[s.name] = s.weight
	}
	tracker := newProgressTracker(weights, r.config.ProgressPerSecond, progress)

	bundles := make([]*Bundle, len(lanes))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range lanes {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Pipeline %s panicked: %v\n%s", s.name, rec, debug.Stack())
					err = fmt.Errorf("pipeline %s panicked: %v", s.name, rec)
				}
				if err != nil {
					r.recorder.RecordError(s.name)
				}
			}()
			b, err := r.runOne(gctx, s, i, draws, tracker)
			if err != nil {
				return fmt.Errorf("pipeline %s: %w", s.name, err)
			}
			bundles[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundles, nil
}

func (r *Runner) runOne(ctx context.Context, s lane, idx int, all []models.Draw, tracker *progressTracker) (*Bundle, error) {
	start := time.Now()
	draws := s.filter(all)
	logger.Info("Pipeline %s started with %d draws", s.name, len(draws))

	runner := backtest.New(r.backtest, r.table, backtest.Hooks{
		OnProgress: func(done, total int) {
			tracker.report(s.name, float64(done)/float64(total))
		},
		OnStep: func(item models.PerformanceLogItem) {
			r.recorder.RecordStep(s.name, item)
		},
		OnEvent: func(ev models.BacktestEvent) {
			r.recorder.RecordEvent(s.name, ev)
		},
	})
	res, err := runner.Run(ctx, draws)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		RunID:      uuid.NewString(),
		Pipeline:   s.name,
		DrawCount:  len(draws),
		Success:    res.Success,
		Log:        res.Log,
		Events:     res.Events,
		Timeline:   res.Timeline,
		Breakdown:  res.Breakdown,
		Insight:    backtest.Insight(res),
		Validation: backtest.Validate(res.Log),
	}
	if len(draws) > 0 {
		b.LastDrawDate = draws[len(draws)-1].Date
		b.NextDrawDate = NextDrawDate(b.LastDrawDate, s.days)
	}

	b.Analysis, b.Timing = r.forecast(draws, b.NextDrawDate, res, r.couponRNG(idx))

	tracker.report(s.name, 1)
	r.recorder.RecordRun(s.name, time.Since(start))
	logger.Info("Pipeline %s finished in %s: %d draws backtested, regime %s", s.name, time.Since(start).Round(time.Millisecond), len(res.Log), b.Analysis.Regime)
	return b, nil
}

// forecast scores the next draw from the full history with the weights the
// backtest converged on.
func (r *Runner) forecast(draws []models.Draw, target time.Time, res *backtest.Result, rng *rand.Rand) (AnalysisResult, *analysis.PatternTimingAnalysis) {
	month := int(target.Month())
	patterns := analysis.AnalyzePatterns(draws, r.table)
	seasonal := analysis.AnalyzeSeasonal(draws, r.table)
	meta := analysis.AnalyzeMetaPatterns(draws, r.table)
	timing := analysis.AnalyzeTiming(draws, r.table)
	regime := scoring.ClassifyRegime(timing, month, r.table)

	var profile *models.HistoricalSuccessProfile
	if res.Success.TotalProfiles > 0 {
		p := res.Success.Profile
		profile = &p
	}
	weights := scoring.AdjustForSeasonality(res.Weights, timing.TransitionInto(month), r.table)
	scores := scoring.NewEngine(r.table).Score(scoring.Input{
		Draws:      draws,
		Patterns:   patterns,
		Seasonal:   seasonal,
		Meta:       meta,
		Membership: scoring.NewMembership(patterns, seasonal, meta, month, r.table),
		TargetDate: target,
		Weights:    weights,
		Profile:    profile,
		Regime:     regime,
	})

	return AnalysisResult{
		Scores:   scores,
		Patterns: patterns,
		Coupons:  coupon.NewBuilder(r.table, rng).Build(scores, patterns.Delta),
		Weights:  weights,
		Regime:   regime,
		Shift:    scoring.DetectShift(draws, r.table),
	}, timing
}

// couponRNG gives every pipeline its own deterministic stream.
func (r *Runner) couponRNG(idx int) *rand.Rand {
	return rand.New(rand.NewPCG(r.config.CouponSeed, uint64(idx)))
}
