// Package testutil provides deterministic notebook fixtures for tests.
//
// Builders emit documents in the canonical on-disk shape so codec,
// extraction, prompt, and transaction tests share one fixture vocabulary
// instead of each test hand-rolling JSON.
package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/rescribe/internal/notebook"
)

// NotebookBuilder accumulates cells and produces either a parsed Document
// or canonical serialized bytes.
type NotebookBuilder struct {
	cells []string
}

// NewNotebook creates an empty builder.
func NewNotebook() *NotebookBuilder {
	return &NotebookBuilder{}
}

// Metadata appends a task-metadata cell (classified as Other).
func (b *NotebookBuilder) Metadata(taskJSON string) *NotebookBuilder {
	b.cells = append(b.cells, "**[metadata]**\n\n```json\n"+taskJSON+"\n```")
	return b
}

// Instruction appends a user instruction cell.
func (b *NotebookBuilder) Instruction(text string) *NotebookBuilder {
	b.cells = append(b.cells, "**[user]**\n\n"+text)
	return b
}

// Reasoning appends an assistant reasoning cell.
func (b *NotebookBuilder) Reasoning(text string) *NotebookBuilder {
	b.cells = append(b.cells, "**[assistant]**\n\n"+text)
	return b
}

// ToolCall appends a tool call cell. argumentsJSON is the literal JSON for
// the arguments field (an object, a quoted string, or empty for none).
func (b *NotebookBuilder) ToolCall(toolName, argumentsJSON string) *NotebookBuilder {
	body := fmt.Sprintf("{\n  \"tool_name\": %q", toolName)
	if argumentsJSON != "" {
		body += ",\n  \"arguments\": " + argumentsJSON
	}
	body += "\n}"
	b.cells = append(b.cells, "**[tool_call]**\n\n```json\n"+body+"\n```")
	return b
}

// ToolResult appends a tool output cell with the given body text.
func (b *NotebookBuilder) ToolResult(body string) *NotebookBuilder {
	b.cells = append(b.cells, "**[tool_output]**\n\n"+body)
	return b
}

// Attachments appends a tool output cell in the upstream attachments shape.
func (b *NotebookBuilder) Attachments(srcs ...string) *NotebookBuilder {
	body := "**Attachments:**\n\n```json\n["
	for i, src := range srcs {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf("\n  {\n    \"type\": \"screenshot\",\n    \"src\": %q\n  }", src)
	}
	body += "\n]\n```"
	return b.ToolResult(body)
}

// Cell appends a cell with arbitrary text (no role marker, so Other unless
// the text starts with one).
func (b *NotebookBuilder) Cell(text string) *NotebookBuilder {
	b.cells = append(b.cells, text)
	return b
}

// Build returns the parsed Document.
func (b *NotebookBuilder) Build() *notebook.Document {
	doc := &notebook.Document{
		Metadata:      json.RawMessage("{}"),
		NBFormat:      4,
		NBFormatMinor: 4,
		Cells:         make([]notebook.Cell, len(b.cells)),
	}
	for i, text := range b.cells {
		cell := notebook.Cell{
			CellType: "markdown",
			Metadata: json.RawMessage("{}"),
			Source:   []string{text},
		}
		doc.Cells[i] = cell
	}
	// Round-trip through the codec so kinds are classified exactly the way
	// production parsing classifies them.
	raw, err := notebook.Serialize(doc)
	if err != nil {
		panic(fmt.Sprintf("testutil: serialize fixture: %v", err))
	}
	parsed, err := notebook.Parse(raw)
	if err != nil {
		panic(fmt.Sprintf("testutil: parse fixture: %v", err))
	}
	return parsed
}

// BuildRaw returns the canonical serialized bytes of the document.
func (b *NotebookBuilder) BuildRaw() []byte {
	raw, err := notebook.Serialize(b.Build())
	if err != nil {
		panic(fmt.Sprintf("testutil: serialize fixture: %v", err))
	}
	return raw
}
