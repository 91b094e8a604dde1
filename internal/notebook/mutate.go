package notebook

import (
	"fmt"
	"strings"
)

// ReplaceReasoning returns a new Document whose cell at cellIndex carries
// newText as its reasoning content. The cell's role marker line, kind, id,
// metadata, and position are preserved; every other cell is a deep copy of
// the input. The receiver document is never modified, so callers holding it
// still see the prior content.
//
// Replacing the same cell twice with the same text yields the same document
// as replacing it once.
func ReplaceReasoning(doc *Document, cellIndex int, newText string) (*Document, error) {
	if cellIndex < 0 || cellIndex >= len(doc.Cells) {
		return nil, fmt.Errorf("replace reasoning: cell index %d out of range (document has %d cells)", cellIndex, len(doc.Cells))
	}
	target := &doc.Cells[cellIndex]
	if target.Kind != KindReasoning {
		return nil, fmt.Errorf("replace reasoning: cell %d is %s, not reasoning", cellIndex, target.Kind)
	}

	out := doc.Clone()
	cell := &out.Cells[cellIndex]
	marker := cell.Marker()
	cell.Source = []string{marker + "\n\n" + strings.TrimRight(newText, "\n")}
	return out, nil
}
