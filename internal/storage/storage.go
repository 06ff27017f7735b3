// Package storage provides SQLite-backed persistence for draws, backtest runs,
// performance logs and events.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rewired-gh/aetherscore/internal/models"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db      *sql.DB
	maxRuns int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/aetherscore/data.db.
func New(maxRuns int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "aetherscore", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Storage{db: db, maxRuns: maxRuns}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS draws (
			draw_date  TEXT PRIMARY KEY,
			main       TEXT NOT NULL,
			stars      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id             TEXT PRIMARY KEY,
			pipeline       TEXT NOT NULL,
			created_at     INTEGER NOT NULL,
			draw_count     INTEGER NOT NULL,
			last_draw_date TEXT NOT NULL,
			next_draw_date TEXT NOT NULL,
			regime         TEXT NOT NULL,
			weights        TEXT NOT NULL,
			avg_main_hits  REAL NOT NULL,
			lift           REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS performance_log (
			run_id              TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			draw_index          INTEGER NOT NULL,
			draw_date           TEXT NOT NULL,
			forecast_main       TEXT NOT NULL,
			forecast_stars      TEXT NOT NULL,
			actual_main         TEXT NOT NULL,
			actual_stars        TEXT NOT NULL,
			main_hits           INTEGER NOT NULL,
			star_hits           INTEGER NOT NULL,
			baseline_forecast   TEXT NOT NULL,
			baseline_hits       INTEGER NOT NULL,
			context             TEXT NOT NULL,
			regime              TEXT NOT NULL,
			average_winner_rank REAL NOT NULL,
			PRIMARY KEY (run_id, draw_index)
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_events (
			run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			draw_index INTEGER NOT NULL,
			draw_date  TEXT NOT NULL,
			kind       TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveDraws upserts validated draws keyed by date.
func (s *Storage) SaveDraws(draws []models.Draw) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range draws {
		d := &draws[i]
		if err := d.Validate(); err != nil {
			return err
		}
		main, err := json.Marshal(d.SortedMain())
		if err != nil {
			return fmt.Errorf("failed to marshal main numbers: %w", err)
		}
		stars, err := json.Marshal(d.Stars)
		if err != nil {
			return fmt.Errorf("failed to marshal stars: %w", err)
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO draws (draw_date, main, stars) VALUES (?,?,?)`,
			d.Date.Format(models.DateLayout), string(main), string(stars)); err != nil {
			return fmt.Errorf("failed to insert draw: %w", err)
		}
	}
	return tx.Commit()
}

// LoadDraws returns every stored draw in date order.
func (s *Storage) LoadDraws() ([]models.Draw, error) {
	rows, err := s.db.Query(`SELECT draw_date, main, stars FROM draws ORDER BY draw_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query draws: %w", err)
	}
	defer rows.Close()

	draws := []models.Draw{}
	for rows.Next() {
		var date, main, stars string
		if err := rows.Scan(&date, &main, &stars); err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		var d models.Draw
		if d.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(main), &d.Main); err != nil {
			return nil, fmt.Errorf("failed to unmarshal main numbers: %w", err)
		}
		if err := json.Unmarshal([]byte(stars), &d.Stars); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stars: %w", err)
		}
		draws = append(draws, d)
	}
	return draws, rows.Err()
}

// SaveRun stores a run with its log and events in one transaction, then
// rotates the oldest runs out beyond maxRuns.
func (s *Storage) SaveRun(run *models.RunRecord, log []models.PerformanceLogItem, events []models.BacktestEvent) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	weights, err := json.Marshal(run.Weights)
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO runs
			(id, pipeline, created_at, draw_count, last_draw_date, next_draw_date,
			 regime, weights, avg_main_hits, lift)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Pipeline, run.CreatedAt.UnixNano(), run.DrawCount,
		run.LastDrawDate.Format(models.DateLayout), run.NextDrawDate.Format(models.DateLayout),
		run.Regime.String(), string(weights), run.AvgMainHits, run.Lift,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, it := range log {
		_, err := tx.Exec(`
			INSERT INTO performance_log
				(run_id, draw_index, draw_date, forecast_main, forecast_stars, actual_main,
				 actual_stars, main_hits, star_hits, baseline_forecast, baseline_hits,
				 context, regime, average_winner_rank)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			run.ID, it.DrawIndex, it.DrawDate.Format(models.DateLayout),
			ints(it.ForecastMain), ints(it.ForecastStars), ints(it.ActualMain), ints(it.ActualStars),
			it.MainHits, it.StarHits, ints(it.BaselineForecast), it.BaselineHits,
			string(it.Context), it.Regime.String(), it.AverageWinnerRank,
		)
		if err != nil {
			return fmt.Errorf("failed to insert log item: %w", err)
		}
	}

	for i, ev := range events {
		_, err := tx.Exec(`
			INSERT INTO backtest_events (run_id, seq, draw_index, draw_date, kind)
			VALUES (?,?,?,?,?)`,
			run.ID, i, ev.DrawIndex, ev.DrawDate.Format(models.DateLayout), string(ev.Kind),
		)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if s.maxRuns > 0 {
		if _, err := tx.Exec(`
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY created_at DESC LIMIT ?
			)`, s.maxRuns); err != nil {
			return fmt.Errorf("failed to enforce run cap: %w", err)
		}
	}

	return tx.Commit()
}

const runCols = `id, pipeline, created_at, draw_count, last_draw_date, next_draw_date,
	regime, weights, avg_main_hits, lift`

// GetRun loads one run summary by id.
func (s *Storage) GetRun(id string) (*models.RunRecord, error) {
	row := s.db.QueryRow(`SELECT `+runCols+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns returns stored runs, newest first.
func (s *Storage) ListRuns() ([]*models.RunRecord, error) {
	rows, err := s.db.Query(`SELECT ` + runCols + ` FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()
	runs := []*models.RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadLog returns the performance log of a run in draw order.
func (s *Storage) LoadLog(runID string) ([]models.PerformanceLogItem, error) {
	rows, err := s.db.Query(`
		SELECT draw_index, draw_date, forecast_main, forecast_stars, actual_main,
		       actual_stars, main_hits, star_hits, baseline_forecast, baseline_hits,
		       context, regime, average_winner_rank
		FROM performance_log WHERE run_id = ? ORDER BY draw_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance log: %w", err)
	}
	defer rows.Close()

	log := []models.PerformanceLogItem{}
	for rows.Next() {
		var it models.PerformanceLogItem
		var date, fm, fs, am, as, bf, ctx, regime string
		err := rows.Scan(
			&it.DrawIndex, &date, &fm, &fs, &am, &as, &it.MainHits, &it.StarHits,
			&bf, &it.BaselineHits, &ctx, &regime, &it.AverageWinnerRank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log item: %w", err)
		}
		if it.DrawDate, err = parseDate(date); err != nil {
			return nil, err
		}
		for _, f := range []struct {
			src string
			dst *[]int
		}{{fm, &it.ForecastMain}, {fs, &it.ForecastStars}, {am, &it.ActualMain}, {as, &it.ActualStars}, {bf, &it.BaselineForecast}} {
			if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
				return nil, fmt.Errorf("failed to unmarshal number list: %w", err)
			}
		}
		it.Context = models.CalendarContext(ctx)
		_ = it.Regime.UnmarshalText([]byte(regime))
		log = append(log, it)
	}
	return log, rows.Err()
}

// LoadEvents returns the audit events of a run in emission order.
func (s *Storage) LoadEvents(runID string) ([]models.BacktestEvent, error) {
	rows, err := s.db.Query(`
		SELECT draw_index, draw_date, kind FROM backtest_events
		WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.BacktestEvent{}
	for rows.Next() {
		var ev models.BacktestEvent
		var date, kind string
		if err := rows.Scan(&ev.DrawIndex, &date, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if ev.DrawDate, err = parseDate(date); err != nil {
			return nil, err
		}
		ev.Kind = models.EventKind(kind)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RotateRuns keeps at most maxRuns newest runs by created_at.
// Cascading deletes remove their log rows and events.
func (s *Storage) RotateRuns() error {
	_, err := s.db.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC LIMIT ?
		)`, s.maxRuns)
	if err != nil {
		return fmt.Errorf("failed to rotate runs: %w", err)
	}
	return nil
}

func scanRun(scan func(...any) error) (*models.RunRecord, error) {
	var r models.RunRecord
	var createdAtNano int64
	var last, next, regime, weights string
	err := scan(
		&r.ID, &r.Pipeline, &createdAtNano, &r.DrawCount, &last, &next,
		&regime, &weights, &r.AvgMainHits, &r.Lift,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdAtNano)
	if r.LastDrawDate, err = parseDate(last); err != nil {
		return nil, err
	}
	if r.NextDrawDate, err = parseDate(next); err != nil {
		return nil, err
	}
	_ = r.Regime.UnmarshalText([]byte(regime))
	if err := json.Unmarshal([]byte(weights), &r.Weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	return &r, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	return t, nil
}

func ints(nums []int) string {
	if nums == nil {
		nums = []int{}
	}
	b, _ := json.Marshal(nums)
	return string(b)
}
