package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/aetherscore/internal/backtest"
	"github.com/rewired-gh/aetherscore/internal/config"
	"github.com/rewired-gh/aetherscore/internal/drawsource"
	"github.com/rewired-gh/aetherscore/internal/logger"
	"github.com/rewired-gh/aetherscore/internal/metrics"
	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/pipeline"
	"github.com/rewired-gh/aetherscore/internal/storage"
	"github.com/rewired-gh/aetherscore/internal/telegram"
)

var (
	configPath    string
	syntheticSize int
	syntheticSeed uint64
	jsonOutput    bool
	noSave        bool
	exportRunID   string
	exportOut     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "aetherscore",
		Short:         "Multi-factor lottery number scoring with walk-forward backtesting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().IntVar(&syntheticSize, "synthetic", 0, "Use N generated draws instead of the configured source")
	rootCmd.PersistentFlags().Uint64Var(&syntheticSeed, "seed", 1, "Seed for --synthetic")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the aggregate, Tuesday and Friday pipelines and print the forecast",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result bundles as JSON")
	analyzeCmd.Flags().BoolVar(&noSave, "no-save", false, "Do not persist the runs")

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run the pipelines and print backtest performance",
		RunE:  runBacktest,
	}
	backtestCmd.Flags().BoolVar(&noSave, "no-save", false, "Do not persist the runs")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write a performance log as CSV",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "Stored run id; a fresh aggregate backtest runs when empty")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		RunE:  runList,
	}

	rootCmd.AddCommand(analyzeCmd, backtestCmd, exportCmd, runsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the collaborators every subcommand shares.
type app struct {
	cfg      *config.Config
	store    *storage.Storage
	recorder *metrics.Recorder
	notifier *telegram.Client
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if configPath != "" {
		logger.Info("Configuration loaded from %s", configPath)
	}

	store, err := storage.New(cfg.Storage.MaxRuns, cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	// max_runs may have been lowered since the last run
	if err := store.RotateRuns(); err != nil {
		logger.Warn("Failed to rotate stored runs: %v", err)
	}
	a := &app{cfg: cfg, store: store}

	if cfg.Metrics.Enabled {
		a.recorder = metrics.NewRecorder(prometheus.DefaultRegisterer)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("Serving metrics on %s", cfg.Metrics.ListenAddr)
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
	}

	if cfg.Telegram.Enabled {
		a.notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Warn("Telegram disabled: %v", err)
		} else {
			a.notifier.ListenForCommands(ctx)
			logger.Info("Telegram client initialized successfully")
		}
	} else {
		logger.Debug("Telegram notifications disabled")
	}
	return a, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Error("Failed to close storage: %v", err)
	}
}

// loadDraws reads history from --synthetic, the configured file or URL, or
// what an earlier run stored, in that order. Fresh history is stored.
func (a *app) loadDraws(ctx context.Context) ([]models.Draw, error) {
	src := a.cfg.Source
	var draws []models.Draw
	var err error
	switch {
	case syntheticSize > 0:
		logger.Info("Generating %d synthetic draws (seed %d)", syntheticSize, syntheticSeed)
		return drawsource.Synthetic(syntheticSize, syntheticSeed), nil
	case src.Path != "":
		draws, err = drawsource.LoadFile(src.Path)
	case src.URL != "":
		client := drawsource.NewClient(src.Timeout, src.MaxRetries, src.RetryDelayBase)
		draws, err = client.Fetch(ctx, src.URL)
	default:
		draws, err = a.store.LoadDraws()
		if err == nil && len(draws) == 0 {
			err = fmt.Errorf("no draws: set source.path or source.url, or pass --synthetic")
		}
		return draws, err
	}
	if err != nil {
		return nil, err
	}
	if err := a.store.SaveDraws(draws); err != nil {
		logger.Warn("Failed to store draws: %v", err)
	}
	logger.Info("Loaded %s draws", humanize.Comma(int64(len(draws))))
	return draws, nil
}

func (a *app) runner() *pipeline.Runner {
	return pipeline.New(a.cfg.Pipeline, a.cfg.Backtest, a.cfg.Analysis, a.recorder)
}

// runPipelines submits one request to a worker and waits for its terminal
// message, echoing progress to stderr.
func (a *app) runPipelines(ctx context.Context, draws []models.Draw) ([]*pipeline.Bundle, error) {
	w := pipeline.NewWorker(a.runner(), 16)
	go w.Serve(ctx)
	defer w.Close()

	id, err := w.Submit(ctx, draws)
	if err != nil {
		return nil, err
	}
	for msg := range w.Messages() {
		if msg.RequestID != id {
			continue
		}
		switch msg.Kind {
		case pipeline.MessageProgress:
			fmt.Fprintf(os.Stderr, "\r%-10s %5.1f%%", msg.Progress.Stage, msg.Progress.Percentage)
		case pipeline.MessageComplete:
			fmt.Fprintln(os.Stderr)
			a.persist(msg.Bundles)
			return msg.Bundles, nil
		case pipeline.MessageError:
			fmt.Fprintln(os.Stderr)
			runErr := errors.New(msg.Error)
			if a.notifier != nil {
				if sendErr := a.notifier.SendError(runErr); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
			return nil, runErr
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("worker stopped without a result")
}

func (a *app) persist(bundles []*pipeline.Bundle) {
	now := time.Now()
	if !noSave {
		for _, b := range bundles {
			if err := a.store.SaveRun(b.Record(now), b.Log, b.Events); err != nil {
				logger.Warn("Failed to store run %s: %v", b.RunID, err)
				continue
			}
			logger.Info("Stored %s run %s", b.Pipeline, b.RunID)
		}
	}
	if a.notifier != nil {
		if err := a.notifier.Send(bundles, now); err != nil {
			logger.Error("Failed to send Telegram notification: %v", err)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	draws, err := a.loadDraws(ctx)
	if err != nil {
		return err
	}
	bundles, err := a.runPipelines(ctx, draws)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(bundles)
	}
	for _, b := range bundles {
		printForecast(out, b)
	}
	return nil
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	draws, err := a.loadDraws(ctx)
	if err != nil {
		return err
	}
	bundles, err := a.runPipelines(ctx, draws)
	if err != nil {
		return err
	}
	for _, b := range bundles {
		printPerformance(cmd.OutOrStdout(), b)
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	var log []models.PerformanceLogItem
	if exportRunID != "" {
		if _, err := a.store.GetRun(exportRunID); err != nil {
			return err
		}
		if log, err = a.store.LoadLog(exportRunID); err != nil {
			return err
		}
		events, err := a.store.LoadEvents(exportRunID)
		if err != nil {
			return err
		}
		for _, ev := range events {
			logger.Debug("Run %s: %s at draw %d (%s)", exportRunID, ev.Kind, ev.DrawIndex, ev.DrawDate.Format(models.DateLayout))
		}
	} else {
		draws, err := a.loadDraws(ctx)
		if err != nil {
			return err
		}
		res, err := backtest.New(a.cfg.Backtest, a.cfg.Analysis, backtest.Hooks{}).Run(ctx, draws)
		if err != nil {
			return err
		}
		log = res.Log
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}
	if err := backtest.ExportCSV(w, log); err != nil {
		return err
	}
	logger.Info("Exported %s log rows", humanize.Comma(int64(len(log))))
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	runs, err := a.store.ListRuns()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No stored runs")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %-9s  %s  %s draws  %s hits  lift %s%%  next %s\n",
			r.ID, r.Pipeline, humanize.Time(r.CreatedAt),
			humanize.Comma(int64(r.DrawCount)),
			decimal.NewFromFloat(r.AvgMainHits).StringFixed(2),
			decimal.NewFromFloat(r.Lift).StringFixed(1),
			r.NextDrawDate.Format(models.DateLayout))
	}
	return nil
}

func printForecast(w io.Writer, b *pipeline.Bundle) {
	fmt.Fprintf(w, "== %s (%s draws, next %s, regime %s)\n",
		b.Pipeline, humanize.Comma(int64(b.DrawCount)), b.NextDrawDate.Format("Mon 2006-01-02"), b.Analysis.Regime)
	fmt.Fprintf(w, "top main:  %s\n", joinNumbers(models.TopNumbers(b.Analysis.Scores.Main, 10)))
	fmt.Fprintf(w, "top stars: %s\n", joinNumbers(models.TopNumbers(b.Analysis.Scores.Stars, 5)))
	for i, s := range b.Analysis.Scores.Main {
		if i == 3 {
			break
		}
		fmt.Fprintf(w, "  #%d %2d  %s  %s\n", s.Rank, s.Number, decimal.NewFromFloat(s.Score).StringFixed(2), s.Justification)
	}
	for i, c := range b.Analysis.Coupons {
		fmt.Fprintf(w, "  %s coupon: %s + %s\n", humanize.Ordinal(i+1), joinNumbers(c.Main), joinNumbers(c.Stars))
	}
	fmt.Fprintln(w)
}

func printPerformance(w io.Writer, b *pipeline.Bundle) {
	in := b.Insight
	fmt.Fprintf(w, "== %s: %s\n", b.Pipeline, in.Summary)
	if in.Draws == 0 {
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "  backtested %s draws, %d events, avg winner rank %s, strongest factor %s\n",
		humanize.Comma(int64(in.Draws)), len(b.Events),
		decimal.NewFromFloat(in.AvgWinnerRank).StringFixed(1), in.BestFactor)
	ab := b.Breakdown.AB
	fmt.Fprintf(w, "  engine %d / baseline %d / ties %d\n", ab.EngineWins, ab.BaselineWins, ab.Ties)
	for _, c := range b.Validation.Contexts {
		fmt.Fprintf(w, "  %-10s %4d draws  %s hits  %+.2f vs regular\n",
			c.Context, c.Draws, decimal.NewFromFloat(c.AvgMainHits).StringFixed(2), c.Delta)
	}
	fmt.Fprintf(w, "  birthday share %s (expected %s)\n",
		decimal.NewFromFloat(b.Validation.BirthdayShare).StringFixed(3),
		decimal.NewFromFloat(b.Validation.ExpectedBirthdayShare).StringFixed(3))
	fmt.Fprintln(w)
}

func joinNumbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " ")
}
