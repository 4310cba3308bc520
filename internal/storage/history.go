package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zheng/schemagraph/internal/rules"
	"github.com/zheng/schemagraph/pkg/logging"
)

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunSummary is one stored validation run
type RunSummary struct {
	RunID     string        `json:"runId"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Source    string        `json:"source"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
}

// SaveReport stores a validation report. source names what was validated.
func (db *DB) SaveReport(report *rules.Report, source string) error {
	if report == nil {
		return errors.New("nil report")
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO validation_runs (run_id, started_at, duration_ms, source, passed, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt.UTC().Format(timeLayout), report.Duration.Milliseconds(),
		source, report.Passed, report.Failed, len(report.Skipped),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", report.RunID, err)
	}

	for _, r := range report.Results {
		_, err := tx.Exec(
			`INSERT INTO rule_results (run_id, rule_name, passed, message, duration_us) VALUES (?, ?, ?, ?, ?)`,
			report.RunID, r.RuleName, r.Passed, r.Message, r.Duration.Microseconds(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert result %s: %w", r.RuleName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logging.Debug(subsystem, "saved validation run %s (%d results)", report.RunID, len(report.Results))
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(
		`SELECT run_id, started_at, duration_ms, source, passed, failed, skipped
		 FROM validation_runs
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r          RunSummary
			startedAt  string
			durationMS int64
		)
		if err := rows.Scan(&r.RunID, &startedAt, &durationMS, &r.Source, &r.Passed, &r.Failed, &r.Skipped); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(timeLayout, startedAt)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunResults returns the rule results of one run, sorted by rule name.
func (db *DB) GetRunResults(runID string) ([]rules.Result, error) {
	var exists int
	err := db.conn.QueryRow(`SELECT 1 FROM validation_runs WHERE run_id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT rule_name, passed, message, duration_us FROM rule_results WHERE run_id = ? ORDER BY rule_name`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []rules.Result
	for rows.Next() {
		var (
			r  rules.Result
			us int64
		)
		if err := rows.Scan(&r.RuleName, &r.Passed, &r.Message, &us); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(us) * time.Microsecond
		results = append(results, r)
	}
	return results, rows.Err()
}
