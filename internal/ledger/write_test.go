package ledger

import (
	"context"
	"testing"
	"time"
)

func TestBeginRun_Idempotent(t *testing.T) {
	l := createTestLedger(t)
	ctx := context.Background()

	run := createTestRun("run-001")
	if err := l.BeginRun(ctx, run); err != nil {
		t.Fatalf("first BeginRun() failed: %v", err)
	}
	if err := l.BeginRun(ctx, run); err != nil {
		t.Fatalf("second BeginRun() failed: %v", err)
	}

	var count int
	if err := l.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 run row, got %d", count)
	}
}

func TestRecordOutcome_Idempotent(t *testing.T) {
	l := createTestLedger(t)
	ctx := context.Background()

	if err := l.BeginRun(ctx, createTestRun("run-001")); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	rec := createTestRecord("run-001", "/data/a.ipynb", "rewritten")
	if err := l.RecordOutcome(ctx, rec); err != nil {
		t.Fatalf("first RecordOutcome() failed: %v", err)
	}

	// Second write with different values is silently ignored; the first
	// row wins.
	dup := rec
	dup.Status = "failed"
	if err := l.RecordOutcome(ctx, dup); err != nil {
		t.Fatalf("second RecordOutcome() failed: %v", err)
	}

	records, err := l.Outcomes(ctx, "run-001", OutcomeFilter{})
	if err != nil {
		t.Fatalf("Outcomes() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 outcome row, got %d", len(records))
	}
	if records[0].Status != "rewritten" {
		t.Errorf("expected first write to win, got status %q", records[0].Status)
	}
}

func TestRecordOutcome_RoundTripsFields(t *testing.T) {
	l := createTestLedger(t)
	ctx := context.Background()

	if err := l.BeginRun(ctx, createTestRun("run-001")); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	rec := createTestRecord("run-001", "/data/a.ipynb", "skipped")
	rec.Reason = "empty_trace"
	rec.OutPath = ""
	rec.DigestAfter = ""
	if err := l.RecordOutcome(ctx, rec); err != nil {
		t.Fatalf("RecordOutcome() failed: %v", err)
	}

	records, err := l.Outcomes(ctx, "run-001", OutcomeFilter{})
	if err != nil {
		t.Fatalf("Outcomes() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 row, got %d", len(records))
	}

	got := records[0]
	if got.Path != rec.Path || got.Status != rec.Status || got.Reason != rec.Reason {
		t.Errorf("identity fields mismatch: %+v", got)
	}
	if got.TransactionID != rec.TransactionID {
		t.Errorf("transaction_id = %q, expected %q", got.TransactionID, rec.TransactionID)
	}
	if got.Steps != rec.Steps || got.TargetCell != rec.TargetCell {
		t.Errorf("trace fields mismatch: %+v", got)
	}
	if got.DigestBefore != rec.DigestBefore || got.DigestAfter != "" {
		t.Errorf("digest fields mismatch: %+v", got)
	}
	if got.Duration != rec.Duration {
		t.Errorf("duration = %v, expected %v", got.Duration, rec.Duration)
	}
	if !got.RecordedAt.Equal(rec.RecordedAt) {
		t.Errorf("recorded_at = %v, expected %v", got.RecordedAt, rec.RecordedAt)
	}
}

func TestFinishRun_SetsCounts(t *testing.T) {
	l := createTestLedger(t)
	ctx := context.Background()

	if err := l.BeginRun(ctx, createTestRun("run-001")); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	finished := testStart.Add(time.Minute)
	if err := l.FinishRun(ctx, "run-001", finished, 7, 2, 1); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}

	run, ok, err := l.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun() failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a run")
	}
	if run.Rewritten != 7 || run.Skipped != 2 || run.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, expected 7/2/1", run.Rewritten, run.Skipped, run.Failed)
	}
	if !run.FinishedAt.Equal(finished) {
		t.Errorf("finished_at = %v, expected %v", run.FinishedAt, finished)
	}
	if !run.StartedAt.Equal(testStart) {
		t.Errorf("started_at = %v, expected %v", run.StartedAt, testStart)
	}
}
