package trace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/rescribe/internal/notebook"
)

// ExtractionErrorCode categorizes extraction failures.
type ExtractionErrorCode string

const (
	// ErrCodeNoInstruction indicates no instruction cell precedes the
	// document's tool calls and reasoning.
	ErrCodeNoInstruction ExtractionErrorCode = "NO_INSTRUCTION_FOUND"

	// ErrCodeEmptyTrace indicates the instruction is followed by reasoning
	// with no tool steps in between. Such documents are skipped, not
	// rewritten.
	ErrCodeEmptyTrace ExtractionErrorCode = "EMPTY_TRACE"

	// ErrCodeMalformedToolCall indicates a tool call cell whose body could
	// not be decoded.
	ErrCodeMalformedToolCall ExtractionErrorCode = "MALFORMED_TOOL_CALL"

	// ErrCodeNoReasoning indicates the document ends without a reasoning
	// cell, leaving nothing to rewrite.
	ErrCodeNoReasoning ExtractionErrorCode = "NO_REASONING_CELL"
)

// ExtractionError reports why a document yielded no usable trace.
type ExtractionError struct {
	// Code identifies the failure category.
	Code ExtractionErrorCode

	// Message is a human-readable description.
	Message string

	// Cell is the offending cell index, or -1 when the problem is not tied
	// to a single cell.
	Cell int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Cell >= 0 {
		msg = fmt.Sprintf("%s: cell %d: %s", e.Code, e.Cell, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsNoInstruction returns true if the error is a missing-instruction error.
// Uses errors.As to handle wrapped errors.
func IsNoInstruction(err error) bool {
	return extractionCode(err) == ErrCodeNoInstruction
}

// IsEmptyTrace returns true if the error marks a document with no tool
// steps between instruction and reasoning.
func IsEmptyTrace(err error) bool {
	return extractionCode(err) == ErrCodeEmptyTrace
}

// IsMalformedToolCall returns true if the error is an undecodable tool call.
func IsMalformedToolCall(err error) bool {
	return extractionCode(err) == ErrCodeMalformedToolCall
}

// IsNoReasoning returns true if the error marks a document with no
// reasoning cell to rewrite.
func IsNoReasoning(err error) bool {
	return extractionCode(err) == ErrCodeNoReasoning
}

func extractionCode(err error) ExtractionErrorCode {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func newNoInstructionError() *ExtractionError {
	return &ExtractionError{
		Code:    ErrCodeNoInstruction,
		Message: "no instruction cell precedes the document's actions",
		Cell:    -1,
	}
}

func newEmptyTraceError(cell int) *ExtractionError {
	return &ExtractionError{
		Code:    ErrCodeEmptyTrace,
		Message: "no tool steps between instruction and reasoning",
		Cell:    cell,
	}
}

func newMalformedToolCallError(cell int, err error) *ExtractionError {
	return &ExtractionError{
		Code:    ErrCodeMalformedToolCall,
		Message: "undecodable tool call",
		Cell:    cell,
		Err:     err,
	}
}

func newNoReasoningError() *ExtractionError {
	return &ExtractionError{
		Code:    ErrCodeNoReasoning,
		Message: "document has no reasoning cell to rewrite",
		Cell:    -1,
	}
}

// Extract walks the document's cells once and builds its ActionTrace.
//
// The scan starts at the first instruction cell. Tool calls open steps and
// each result closes the most recent open call; a call still open when the
// next instruction or the reasoning boundary arrives stays Pending. The
// first reasoning cell after the instruction bounds the trace and becomes
// TargetCell. Results with no open call are ignored, as are cells of other
// kinds.
func Extract(doc *notebook.Document) (*ActionTrace, error) {
	instr := -1
	for i := range doc.Cells {
		kind := doc.Cells[i].Kind
		if kind == notebook.KindInstruction {
			instr = i
			break
		}
		if kind == notebook.KindToolCall || kind == notebook.KindReasoning {
			return nil, newNoInstructionError()
		}
	}
	if instr < 0 {
		return nil, newNoInstructionError()
	}

	tr := &ActionTrace{
		Instruction: cellBody(&doc.Cells[instr]),
		TargetCell:  -1,
	}

	var open *Step
	for i := instr + 1; i < len(doc.Cells); i++ {
		cell := &doc.Cells[i]
		switch cell.Kind {
		case notebook.KindInstruction:
			// A later instruction closes any open call; results after it
			// must not pair backward across the boundary.
			open = nil

		case notebook.KindToolCall:
			name, args, err := decodeToolCall(cellBody(cell))
			if err != nil {
				return nil, newMalformedToolCallError(i, err)
			}
			tr.Steps = append(tr.Steps, Step{ToolName: name, Arguments: args, Pending: true})
			open = &tr.Steps[len(tr.Steps)-1]

		case notebook.KindToolResult:
			if open != nil {
				open.Result = cellBody(cell)
				open.Pending = false
				open = nil
			}

		case notebook.KindReasoning:
			tr.TargetCell = i
			if len(tr.Steps) == 0 {
				return nil, newEmptyTraceError(i)
			}
			return tr, nil
		}
	}

	return nil, newNoReasoningError()
}

// cellBody returns a cell's text with the role marker line and the blank
// separator stripped.
func cellBody(cell *notebook.Cell) string {
	_, rest, found := strings.Cut(cell.Text(), "\n")
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}
