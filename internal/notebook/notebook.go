package notebook

import (
	"encoding/json"
	"strings"
)

// CellKind classifies a cell by the role marker on its first line.
// The zero value is KindOther so unclassified content stays inert.
type CellKind int

const (
	// KindOther covers cells with no recognized role marker, including the
	// leading task-metadata cell.
	KindOther CellKind = iota

	// KindInstruction is the user's task statement.
	KindInstruction

	// KindToolCall is a recorded tool invocation (fenced JSON body).
	KindToolCall

	// KindToolResult is the recorded output of the preceding tool call.
	KindToolResult

	// KindReasoning is assistant reasoning text, the sole mutable kind.
	KindReasoning
)

// String returns the lowercase name used in logs and CLI output.
func (k CellKind) String() string {
	switch k {
	case KindInstruction:
		return "instruction"
	case KindToolCall:
		return "tool_call"
	case KindToolResult:
		return "tool_result"
	case KindReasoning:
		return "reasoning"
	default:
		return "other"
	}
}

// Role markers recognized on the first line of a cell's text.
const (
	markerInstruction = "**[user]**"
	markerReasoning   = "**[assistant]**"
	markerToolCall    = "**[tool_call]**"
	markerToolResult  = "**[tool_output]**"
)

// classifyKind maps a cell's first line to its kind.
// Anything unrecognized (including "**[metadata]**") is KindOther.
func classifyKind(text string) CellKind {
	firstLine, _, _ := strings.Cut(text, "\n")
	switch strings.TrimSpace(firstLine) {
	case markerInstruction:
		return KindInstruction
	case markerReasoning:
		return KindReasoning
	case markerToolCall:
		return KindToolCall
	case markerToolResult:
		return KindToolResult
	default:
		return KindOther
	}
}

// Cell is one ordered unit of a document. Everything except the text of a
// KindReasoning cell is immutable input; CellType, ID, Metadata, and Source
// round-trip verbatim.
type Cell struct {
	Kind     CellKind
	CellType string
	ID       string // optional; present in nbformat >= 4.5 files
	Metadata json.RawMessage
	Source   []string
}

// Text returns the cell's full textual content (source entries joined).
func (c *Cell) Text() string {
	if len(c.Source) == 1 {
		return c.Source[0]
	}
	return strings.Join(c.Source, "")
}

// Marker returns the cell's first line, the role marker for classified cells.
func (c *Cell) Marker() string {
	firstLine, _, _ := strings.Cut(c.Text(), "\n")
	return firstLine
}

// clone deep-copies the cell so mutations never alias the source document.
func (c *Cell) clone() Cell {
	out := Cell{
		Kind:     c.Kind,
		CellType: c.CellType,
		ID:       c.ID,
	}
	if c.Metadata != nil {
		out.Metadata = append(json.RawMessage(nil), c.Metadata...)
	}
	if c.Source != nil {
		out.Source = append([]string(nil), c.Source...)
	}
	return out
}

// Document is an ordered sequence of cells plus the notebook envelope
// fields that ride along untouched.
type Document struct {
	Cells         []Cell
	Metadata      json.RawMessage
	NBFormat      int
	NBFormatMinor int
}

// Clone returns a deep copy sharing no cell-level state with the receiver.
func (d *Document) Clone() *Document {
	out := &Document{
		NBFormat:      d.NBFormat,
		NBFormatMinor: d.NBFormatMinor,
	}
	if d.Metadata != nil {
		out.Metadata = append(json.RawMessage(nil), d.Metadata...)
	}
	out.Cells = make([]Cell, len(d.Cells))
	for i := range d.Cells {
		out.Cells[i] = d.Cells[i].clone()
	}
	return out
}
