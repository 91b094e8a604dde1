package ledger

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDv7Generator_ValidFormat(t *testing.T) {
	gen := UUIDv7Generator{}
	id := gen.Generate()

	if len(id) != 36 {
		t.Errorf("expected 36-character hyphenated UUID, got %d characters", len(id))
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("Generate() returned unparseable id %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("expected version 7, got %d", parsed.Version())
	}
}

func TestUUIDv7Generator_Uniqueness(t *testing.T) {
	gen := UUIDv7Generator{}
	const iterations = 1000

	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := gen.Generate()
		if seen[id] {
			t.Fatalf("id %s generated twice", id)
		}
		seen[id] = true
	}
}

// Run listing orders by id with BINARY collation, so consecutive ids must
// sort in generation order.
func TestUUIDv7Generator_SortsByCreation(t *testing.T) {
	gen := UUIDv7Generator{}

	prev := gen.Generate()
	for i := 0; i < 10; i++ {
		next := gen.Generate()
		if next <= prev {
			t.Fatalf("id %q does not sort after %q", next, prev)
		}
		prev = next
	}
}

func TestFixedGenerator_Sequential(t *testing.T) {
	gen := NewFixedGenerator("run-001", "run-002", "run-003")

	for _, expected := range []string{"run-001", "run-002", "run-003"} {
		if id := gen.Generate(); id != expected {
			t.Errorf("Generate() = %q, expected %q", id, expected)
		}
	}
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	gen := NewFixedGenerator("run-001")
	gen.Generate()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on exhausted generator")
		}
	}()
	gen.Generate()
}

func TestFixedGenerator_EmptyIDs(t *testing.T) {
	gen := NewFixedGenerator()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic when no ids provided")
		}
	}()
	gen.Generate()
}
