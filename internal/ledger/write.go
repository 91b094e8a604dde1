package ledger

import (
	"context"
	"fmt"
	"time"
)

// Run is one batch invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is still open
	Model      string
	BaseURL    string
	DryRun     bool
	Rewritten  int
	Skipped    int
	Failed     int
}

// Record is one per-document outcome row.
type Record struct {
	RunID         string
	Path          string
	TransactionID string
	OutPath       string
	Status        string
	Reason        string
	Steps         int
	TargetCell    int
	DigestBefore  string
	DigestAfter   string
	Duration      time.Duration
	RecordedAt    time.Time
}

// BeginRun inserts the run row at batch start.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - re-beginning a run is
// silently ignored.
func (l *Ledger) BeginRun(ctx context.Context, run Run) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, model, base_url, dry_run)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		formatTime(run.StartedAt),
		run.Model,
		run.BaseURL,
		boolToInt(run.DryRun),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordOutcome inserts one document outcome.
// Uses ON CONFLICT(run_id, path) DO NOTHING for idempotency - recording
// the same document twice within a run is silently ignored.
func (l *Ledger) RecordOutcome(ctx context.Context, rec Record) error {
	recordedAt := rec.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO outcomes
		(run_id, path, transaction_id, out_path, status, reason, steps, target_cell, digest_before, digest_after, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, path) DO NOTHING
	`,
		rec.RunID,
		rec.Path,
		rec.TransactionID,
		rec.OutPath,
		rec.Status,
		rec.Reason,
		rec.Steps,
		rec.TargetCell,
		rec.DigestBefore,
		rec.DigestAfter,
		rec.Duration.Milliseconds(),
		formatTime(recordedAt),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// FinishRun closes the run row with its final counts.
func (l *Ledger) FinishRun(ctx context.Context, runID string, finishedAt time.Time, rewritten, skipped, failed int) error {
	_, err := l.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, rewritten = ?, skipped = ?, failed = ?
		WHERE id = ?
	`,
		formatTime(finishedAt),
		rewritten,
		skipped,
		failed,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// formatTime encodes a timestamp as RFC 3339 UTC text.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
