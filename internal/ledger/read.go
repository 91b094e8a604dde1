package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// defaultListLimit bounds history queries when the caller gives no limit.
const defaultListLimit = 20

// OutcomeFilter narrows outcome queries. Zero-valued fields match
// everything.
type OutcomeFilter struct {
	Status string
	Reason string
}

// Runs returns the most recent runs, newest first. UUIDv7 run IDs sort by
// creation time, so the id ordering is the time ordering.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, model, base_url, dry_run, rewritten, skipped, failed
		FROM runs
		ORDER BY id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the newest run. ok is false on an empty ledger.
func (l *Ledger) LatestRun(ctx context.Context) (Run, bool, error) {
	runs, err := l.Runs(ctx, 1)
	if err != nil {
		return Run{}, false, err
	}
	if len(runs) == 0 {
		return Run{}, false, nil
	}
	return runs[0], true, nil
}

// Outcomes returns a run's outcome rows in stable path order.
// All filter values are parameterized, never interpolated.
func (l *Ledger) Outcomes(ctx context.Context, runID string, filter OutcomeFilter) ([]Record, error) {
	query := `
		SELECT run_id, path, transaction_id, out_path, status, reason, steps, target_cell, digest_before, digest_after, duration_ms, recorded_at
		FROM outcomes
		WHERE run_id = ?`
	args := []any{runID}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Reason != "" {
		query += " AND reason = ?"
		args = append(args, filter.Reason)
	}
	query += " ORDER BY path COLLATE BINARY ASC"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// History returns every recorded outcome for one document path, newest
// run first.
func (l *Ledger) History(ctx context.Context, path string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, path, transaction_id, out_path, status, reason, steps, target_cell, digest_before, digest_after, duration_ms, recorded_at
		FROM outcomes
		WHERE path = ?
		ORDER BY run_id COLLATE BINARY DESC
		LIMIT ?
	`, path, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return records, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var startedAt string
	var finishedAt sql.NullString
	var dryRun int

	if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Model, &run.BaseURL, &dryRun, &run.Rewritten, &run.Skipped, &run.Failed); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	run.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if finishedAt.Valid && finishedAt.String != "" {
		run.FinishedAt, err = parseTime(finishedAt.String)
		if err != nil {
			return Run{}, fmt.Errorf("scan run: %w", err)
		}
	}
	run.DryRun = dryRun != 0
	return run, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var rec Record
	var durationMS int64
	var recordedAt string

	if err := rows.Scan(&rec.RunID, &rec.Path, &rec.TransactionID, &rec.OutPath, &rec.Status, &rec.Reason, &rec.Steps, &rec.TargetCell, &rec.DigestBefore, &rec.DigestAfter, &durationMS, &recordedAt); err != nil {
		return Record{}, fmt.Errorf("scan outcome: %w", err)
	}

	rec.Duration = time.Duration(durationMS) * time.Millisecond
	var err error
	rec.RecordedAt, err = parseTime(recordedAt)
	if err != nil {
		return Record{}, fmt.Errorf("scan outcome: %w", err)
	}
	return rec, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
