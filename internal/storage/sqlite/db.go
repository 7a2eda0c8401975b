// Package sqlite stores the history of report runs.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fieldreport/internal/domain"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const (
	KindTerritory = "territory"
	KindSurveyors = "surveyors"
)

var ErrNoRuns = errors.New("no stored runs")

type Run struct {
	ID        string
	Kind      string
	Source    string
	CreatedAt time.Time
}

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS report_runs (
		id         TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		source     TEXT DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_report_runs_kind_created ON report_runs(kind, created_at);

	CREATE TABLE IF NOT EXISTS district_summaries (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id         TEXT NOT NULL,
		name           TEXT NOT NULL,
		closed         INTEGER NOT NULL DEFAULT 0,
		off_plan       INTEGER NOT NULL DEFAULT 0,
		in_progress    INTEGER NOT NULL DEFAULT 0,
		open           INTEGER NOT NULL DEFAULT 0,
		planned        INTEGER NOT NULL DEFAULT 0,
		total          INTEGER NOT NULL,
		completed      INTEGER NOT NULL,
		remaining      INTEGER NOT NULL,
		completion_pct REAL NOT NULL,
		status         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ds_run ON district_summaries(run_id);

	CREATE TABLE IF NOT EXISTS surveyor_summaries (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id          TEXT NOT NULL,
		surveyor        TEXT NOT NULL,
		submissions     INTEGER NOT NULL,
		span_hours      REAL NOT NULL,
		rate            REAL,
		mean_quality    REAL NOT NULL,
		quality_std_dev REAL NOT NULL,
		tier            TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ss_run ON surveyor_summaries(run_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func insertRun(tx *sql.Tx, kind, source string, at time.Time) (Run, error) {
	run := Run{ID: uuid.NewString(), Kind: kind, Source: source, CreatedAt: at.UTC()}
	_, err := tx.Exec(
		`INSERT INTO report_runs (id, kind, source, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Kind, run.Source, run.CreatedAt,
	)
	return run, err
}

// InsertDistrictRun stores one territory run and its summaries atomically.
func InsertDistrictRun(db *sql.DB, source string, at time.Time, summaries []domain.DistrictSummary) (Run, error) {
	tx, err := db.Begin()
	if err != nil {
		return Run{}, err
	}
	defer tx.Rollback()

	run, err := insertRun(tx, KindTerritory, source, at)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO district_summaries (run_id, name, closed, off_plan, in_progress, open, planned, total, completed, remaining, completion_pct, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return Run{}, err
	}
	defer stmt.Close()

	for _, s := range summaries {
		_, err := stmt.Exec(
			run.ID, s.Name,
			s.Counts[domain.CounterClosed], s.Counts[domain.CounterOffPlan], s.Counts[domain.CounterInProgress],
			s.Counts[domain.CounterOpen], s.Counts[domain.CounterPlanned],
			s.Total, s.Completed, s.Remaining, s.CompletionPct, string(s.Status),
		)
		if err != nil {
			return Run{}, fmt.Errorf("insert district %s: %w", s.Name, err)
		}
	}
	return run, tx.Commit()
}

// InsertSurveyorRun stores one surveyor run. An absent rate is stored as NULL.
func InsertSurveyorRun(db *sql.DB, source string, at time.Time, summaries []domain.SurveyorSummary) (Run, error) {
	tx, err := db.Begin()
	if err != nil {
		return Run{}, err
	}
	defer tx.Rollback()

	run, err := insertRun(tx, KindSurveyors, source, at)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO surveyor_summaries (run_id, surveyor, submissions, span_hours, rate, mean_quality, quality_std_dev, tier)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return Run{}, err
	}
	defer stmt.Close()

	for _, s := range summaries {
		var rate sql.NullFloat64
		if s.SubmissionsPerHour != nil {
			rate = sql.NullFloat64{Float64: *s.SubmissionsPerHour, Valid: true}
		}
		_, err := stmt.Exec(run.ID, s.Surveyor, s.Submissions, s.SpanHours, rate, s.MeanQuality, s.QualityStdDev, string(s.Tier))
		if err != nil {
			return Run{}, fmt.Errorf("insert surveyor %s: %w", s.Surveyor, err)
		}
	}
	return run, tx.Commit()
}

// LatestRun returns the most recent run of kind, or ErrNoRuns.
func LatestRun(db *sql.DB, kind string) (Run, error) {
	var run Run
	err := db.QueryRow(
		`SELECT id, kind, source, created_at FROM report_runs WHERE kind = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		kind,
	).Scan(&run.ID, &run.Kind, &run.Source, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	return run, err
}

func ListRuns(db *sql.DB, kind string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT id, kind, source, created_at FROM report_runs WHERE kind = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		kind, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Kind, &run.Source, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func GetDistrictSummaries(db *sql.DB, runID string) ([]domain.DistrictSummary, error) {
	rows, err := db.Query(
		`SELECT name, closed, off_plan, in_progress, open, planned, total, completed, remaining, completion_pct, status
		 FROM district_summaries WHERE run_id = ? ORDER BY name`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DistrictSummary
	for rows.Next() {
		var s domain.DistrictSummary
		var status string
		if err := rows.Scan(
			&s.Name,
			&s.Counts[domain.CounterClosed], &s.Counts[domain.CounterOffPlan], &s.Counts[domain.CounterInProgress],
			&s.Counts[domain.CounterOpen], &s.Counts[domain.CounterPlanned],
			&s.Total, &s.Completed, &s.Remaining, &s.CompletionPct, &status,
		); err != nil {
			return nil, err
		}
		s.Status = domain.Label(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetLatestDistrictRun returns the previous territory run, or ErrNoRuns.
func GetLatestDistrictRun(db *sql.DB) (Run, []domain.DistrictSummary, error) {
	run, err := LatestRun(db, KindTerritory)
	if err != nil {
		return Run{}, nil, err
	}
	summaries, err := GetDistrictSummaries(db, run.ID)
	return run, summaries, err
}

func GetSurveyorSummaries(db *sql.DB, runID string) ([]domain.SurveyorSummary, error) {
	rows, err := db.Query(
		`SELECT surveyor, submissions, span_hours, rate, mean_quality, quality_std_dev, tier
		 FROM surveyor_summaries WHERE run_id = ? ORDER BY surveyor`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SurveyorSummary
	for rows.Next() {
		var s domain.SurveyorSummary
		var rate sql.NullFloat64
		var tier string
		if err := rows.Scan(&s.Surveyor, &s.Submissions, &s.SpanHours, &rate, &s.MeanQuality, &s.QualityStdDev, &tier); err != nil {
			return nil, err
		}
		if rate.Valid {
			r := rate.Float64
			s.SubmissionsPerHour = &r
		}
		s.Tier = domain.Label(tier)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetLatestSurveyorRun returns the previous surveyor run, or ErrNoRuns.
func GetLatestSurveyorRun(db *sql.DB) (Run, []domain.SurveyorSummary, error) {
	run, err := LatestRun(db, KindSurveyors)
	if err != nil {
		return Run{}, nil, err
	}
	summaries, err := GetSurveyorSummaries(db, run.ID)
	return run, summaries, err
}
