package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// supportedNBFormat is the only major notebook format version accepted.
const supportedNBFormat = 4

// ParseError reports a structural violation in a notebook document.
// Cell is the offending cell index, or -1 when the problem is not tied to
// a single cell.
type ParseError struct {
	Reason string
	Cell   int
	Err    error
}

func (e *ParseError) Error() string {
	msg := "malformed document: " + e.Reason
	if e.Cell >= 0 {
		msg = fmt.Sprintf("malformed document: cell %d: %s", e.Cell, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is (or wraps) a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Wire shapes. Field order here defines serialization order and matches the
// upstream producer's key order exactly; do not reorder.
type notebookJSON struct {
	Cells         []cellJSON      `json:"cells"`
	Metadata      json.RawMessage `json:"metadata"`
	NBFormat      int             `json:"nbformat"`
	NBFormatMinor int             `json:"nbformat_minor"`
}

type cellJSON struct {
	CellType string          `json:"cell_type"`
	ID       string          `json:"id,omitempty"`
	Metadata json.RawMessage `json:"metadata"`
	Source   []string        `json:"source"`
}

// Parse decodes raw notebook JSON into a Document, classifying each cell's
// kind from its role marker. Unknown fields, missing required fields, and
// unsupported format versions fail with a *ParseError.
func Parse(raw []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var nb notebookJSON
	if err := dec.Decode(&nb); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Cell: -1, Err: err}
	}
	if dec.More() {
		return nil, &ParseError{Reason: "trailing data after notebook object", Cell: -1}
	}

	if nb.NBFormat != supportedNBFormat {
		return nil, &ParseError{
			Reason: fmt.Sprintf("unsupported nbformat %d (want %d)", nb.NBFormat, supportedNBFormat),
			Cell:   -1,
		}
	}
	if nb.Cells == nil {
		return nil, &ParseError{Reason: "missing cells list", Cell: -1}
	}
	if len(nb.Metadata) == 0 {
		return nil, &ParseError{Reason: "missing notebook metadata", Cell: -1}
	}

	doc := &Document{
		Metadata:      nb.Metadata,
		NBFormat:      nb.NBFormat,
		NBFormatMinor: nb.NBFormatMinor,
		Cells:         make([]Cell, len(nb.Cells)),
	}
	for i, cj := range nb.Cells {
		if cj.CellType == "" {
			return nil, &ParseError{Reason: "missing cell_type", Cell: i}
		}
		if len(cj.Metadata) == 0 {
			return nil, &ParseError{Reason: "missing cell metadata", Cell: i}
		}
		if cj.Source == nil {
			return nil, &ParseError{Reason: "missing cell source", Cell: i}
		}
		cell := Cell{
			CellType: cj.CellType,
			ID:       cj.ID,
			Metadata: cj.Metadata,
			Source:   cj.Source,
		}
		cell.Kind = classifyKind(cell.Text())
		doc.Cells[i] = cell
	}

	return doc, nil
}

// Serialize writes the canonical on-disk encoding: two-space indent, no
// HTML escaping, no trailing newline. For any document in that encoding
// that has not had reasoning content replaced, Serialize(Parse(raw))
// reproduces raw byte for byte.
func Serialize(doc *Document) ([]byte, error) {
	nb := notebookJSON{
		Cells:         make([]cellJSON, len(doc.Cells)),
		Metadata:      doc.Metadata,
		NBFormat:      doc.NBFormat,
		NBFormatMinor: doc.NBFormatMinor,
	}
	for i := range doc.Cells {
		c := &doc.Cells[i]
		nb.Cells[i] = cellJSON{
			CellType: c.CellType,
			ID:       c.ID,
			Metadata: c.Metadata,
			Source:   c.Source,
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nb); err != nil {
		return nil, fmt.Errorf("serialize notebook: %w", err)
	}

	// Encoder.Encode appends a newline the upstream format does not carry.
	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return out, nil
}
