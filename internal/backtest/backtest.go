// Package backtest replays history draw by draw: it trains on everything
// before a draw, forecasts it, scores the forecast against the real result
// and periodically recalibrates the factor weights from what actually won.
package backtest

import (
	"context"

	"github.com/rewired-gh/aetherscore/internal/analysis"
	"github.com/rewired-gh/aetherscore/internal/logger"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/scoring"
	"github.com/rewired-gh/aetherscore/internal/tuning"
)

type Config struct {
	InitialWindowSize         int `mapstructure:"initial_window_size"`
	CalibrationInterval       int `mapstructure:"calibration_interval"`
	MinProfilesForCalibration int `mapstructure:"min_profiles_for_calibration"`
	ProfileWindow             int `mapstructure:"profile_window"`
	MinProfileSample          int `mapstructure:"min_profile_sample"`
	YieldInterval             int `mapstructure:"yield_interval"`
	ForecastMain              int `mapstructure:"forecast_main"`
	ForecastStar              int `mapstructure:"forecast_star"`
	TimelineBuckets           int `mapstructure:"timeline_buckets"`
}

func DefaultConfig() Config {
	return Config{
		InitialWindowSize:         100,
		CalibrationInterval:       20,
		MinProfilesForCalibration: 20,
		ProfileWindow:             250,
		MinProfileSample:          50,
		YieldInterval:             10,
		ForecastMain:              10,
		ForecastStar:              5,
		TimelineBuckets:           10,
	}
}

// Hooks observe a run. Any of them may be nil.
type Hooks struct {
	OnProgress func(done, total int)
	OnStep     func(item models.PerformanceLogItem)
	OnEvent    func(ev models.BacktestEvent)
}

// Result is everything a completed backtest produces.
type Result struct {
	Log       []models.PerformanceLogItem      `json:"log"`
	Events    []models.BacktestEvent           `json:"events"`
	Profiles  []models.WinnerProfile           `json:"-"`
	Timeline  []models.TimelineBucket          `json:"timeline"`
	Breakdown models.PerformanceBreakdown      `json:"breakdown"`
	Success   models.HistoricalSuccessAnalysis `json:"success"`
	Weights   models.WeightConfiguration       `json:"weights"`
}

// Runner executes backtests. A Runner holds no per-run state and may be
// shared by concurrent runs.
type Runner struct {
	config Config
	table  tuning.Table
	engine *scoring.Engine
	hooks  Hooks
}

func New(config Config, t tuning.Table, hooks Hooks) *Runner {
	return &Runner{
		config: config,
		table:  t,
		engine: scoring.NewEngine(t),
		hooks:  hooks,
	}
}

// EmptyResult is returned when there is not enough history to backtest.
func EmptyResult() *Result {
	return &Result{
		Log:       []models.PerformanceLogItem{},
		Events:    []models.BacktestEvent{},
		Profiles:  []models.WinnerProfile{},
		Timeline:  []models.TimelineBucket{},
		Breakdown: models.PerformanceBreakdown{ByContext: []models.ContextPerformance{}},
		Success:   AnalyzeSuccess(nil),
		Weights:   models.BaselineWeights(),
	}
}

// state is the mutable part of one run, owned by its loop.
type state struct {
	weights   models.WeightConfiguration
	profile   *models.HistoricalSuccessProfile
	profiles  []models.WinnerProfile
	shifted   bool
	log       []models.PerformanceLogItem
	events    []models.BacktestEvent
	cycleStep int
}

// Run walks forward from the initial window to the last draw. Cancellation
// discards all progress and returns ctx.Err().
func (r *Runner) Run(ctx context.Context, draws []models.Draw) (*Result, error) {
	cfg := r.config
	if len(draws) < cfg.InitialWindowSize+1 {
		logger.Debug("Backtest skipped: %d draws, need %d", len(draws), cfg.InitialWindowSize+1)
		return EmptyResult(), nil
	}

	total := len(draws) - cfg.InitialWindowSize
	st := &state{
		weights:  models.BaselineWeights(),
		profiles: make([]models.WinnerProfile, 0, total*models.MainCount),
		log:      make([]models.PerformanceLogItem, 0, total),
		events:   []models.BacktestEvent{},
	}

	for i := cfg.InitialWindowSize; i < len(draws); i++ {
		r.step(st, draws, i)

		st.cycleStep++
		if st.cycleStep%cfg.YieldInterval == 0 || i == len(draws)-1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if r.hooks.OnProgress != nil {
				r.hooks.OnProgress(st.cycleStep, total)
			}
		}
	}

	res := &Result{
		Log:      st.log,
		Events:   st.events,
		Profiles: st.profiles,
		Success:  AnalyzeSuccess(st.profiles),
		Weights:  scoring.Recalibrate(scoring.BuildProfile(r.trailing(st.profiles)), cfg.MinProfileSample),
	}
	res.Timeline = Timeline(res.Log, cfg.TimelineBuckets)
	res.Breakdown = Breakdown(res.Log)
	logger.Debug("Backtest finished: %d draws, %d events, %d winner profiles", len(res.Log), len(res.Events), len(res.Profiles))
	return res, nil
}

// trailing keeps the last ProfileWindow profiles when that window still
// holds enough winners, and the full history otherwise.
func (r *Runner) trailing(profiles []models.WinnerProfile) []models.WinnerProfile {
	if len(profiles) > r.config.ProfileWindow {
		tail := profiles[len(profiles)-r.config.ProfileWindow:]
		if len(tail) >= r.config.MinProfileSample {
			return tail
		}
	}
	return profiles
}

func (r *Runner) step(st *state, draws []models.Draw, i int) {
	cfg := r.config
	training := draws[:i]
	target := draws[i]

	if k := i - cfg.InitialWindowSize; k > 0 && k%cfg.CalibrationInterval == 0 && len(st.profiles) >= cfg.MinProfilesForCalibration {
		hp := scoring.BuildProfile(r.trailing(st.profiles))
		st.profile = &hp
		st.weights = scoring.Recalibrate(hp, cfg.MinProfileSample)
		r.emit(st, models.BacktestEvent{DrawIndex: i, DrawDate: target.Date, Kind: models.EventWeightCalibration})
		logger.Debug("Calibrated weights at draw %d from %d profiles", i, hp.SampleSize)
	}

	shift := scoring.DetectShift(training, r.table)
	if shift.Shifted && !st.shifted {
		r.emit(st, models.BacktestEvent{DrawIndex: i, DrawDate: target.Date, Kind: models.EventRegimeShift})
		logger.Debug("Regime shift at draw %d: spread %.2f repeat %.2f", i, shift.SpreadChange, shift.RepeatChange)
	}
	st.shifted = shift.Shifted

	month := int(target.Date.Month())
	patterns := analysis.AnalyzePatterns(training, r.table)
	seasonal := analysis.AnalyzeSeasonal(training, r.table)
	meta := analysis.AnalyzeMetaPatterns(training, r.table)
	timing := analysis.AnalyzeTiming(training, r.table)
	regime := scoring.ClassifyRegime(timing, month, r.table)
	membership := scoring.NewMembership(patterns, seasonal, meta, month, r.table)

	rankings := r.engine.Score(scoring.Input{
		Draws:      training,
		Patterns:   patterns,
		Seasonal:   seasonal,
		Meta:       meta,
		Membership: membership,
		TargetDate: target.Date,
		Weights:    scoring.AdjustForSeasonality(st.weights, timing.TransitionInto(month), r.table),
		Profile:    st.profile,
		Regime:     regime,
	})

	item := models.PerformanceLogItem{
		DrawIndex:        i,
		DrawDate:         target.Date,
		ForecastMain:     models.TopNumbers(rankings.Main, cfg.ForecastMain),
		ForecastStars:    models.TopNumbers(rankings.Stars, cfg.ForecastStar),
		ActualMain:       target.SortedMain(),
		ActualStars:      append([]int(nil), target.Stars...),
		BaselineForecast: patterns.HotNumbers(cfg.ForecastMain),
		Context:          scoring.CalendarContextOf(target.Date),
		Regime:           regime,
	}
	item.MainHits = hits(item.ForecastMain, target.Main)
	item.StarHits = hits(item.ForecastStars, target.Stars)
	item.BaselineHits = hits(item.BaselineForecast, target.Main)
	item.AverageWinnerRank = averageRank(rankings.Main, target.Main)
	st.log = append(st.log, item)
	if r.hooks.OnStep != nil {
		r.hooks.OnStep(item)
	}

	prev := training[len(training)-1]
	for _, n := range target.Main {
		st.profiles = append(st.profiles, models.WinnerProfile{
			DrawIndex:  i,
			DrawDate:   target.Date,
			Number:     n,
			Flags:      membership.Flags(n),
			PrevSpread: prev.Spread(),
			PrevSum:    prev.Sum(),
		})
	}
}

func (r *Runner) emit(st *state, ev models.BacktestEvent) {
	st.events = append(st.events, ev)
	if r.hooks.OnEvent != nil {
		r.hooks.OnEvent(ev)
	}
}

func hits(forecast, actual []int) int {
	c := 0
	for _, f := range forecast {
		for _, a := range actual {
			if f == a {
				c++
				break
			}
		}
	}
	return c
}

func averageRank(ranked []models.AetherScore, actual []int) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0
	for _, n := range actual {
		sum += models.RankOf(ranked, n)
	}
	return float64(sum) / float64(len(actual))
}

