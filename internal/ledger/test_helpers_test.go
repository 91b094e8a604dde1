package ledger

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestLedger creates a fresh on-disk ledger for testing.
func createTestLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// testStart is a fixed instant so timestamp round-trips are exact.
var testStart = time.Date(2026, 8, 23, 10, 0, 0, 123456789, time.UTC)

// createTestRun creates a run row with minimal required fields.
func createTestRun(id string) Run {
	return Run{
		ID:        id,
		StartedAt: testStart,
		Model:     "qwen3-30b-a3b-instruct-2507",
		BaseURL:   "https://dashscope.aliyuncs.com/compatible-mode/v1",
	}
}

// createTestRecord creates an outcome row with minimal required fields.
func createTestRecord(runID, path, status string) Record {
	return Record{
		RunID:         runID,
		Path:          path,
		TransactionID: "txn-" + runID,
		OutPath:       path,
		Status:        status,
		Steps:         2,
		TargetCell:    4,
		DigestBefore:  "digest-before",
		DigestAfter:   "digest-after",
		Duration:      1500 * time.Millisecond,
		RecordedAt:    testStart.Add(time.Second),
	}
}
