// Package notebook provides the in-memory document model for cell-based
// notebooks and the codec between that model and the on-disk JSON form.
//
// A Document is an ordered list of Cells. Each cell's kind (Instruction,
// ToolCall, ToolResult, Reasoning, Other) is decided exactly once, at parse
// time, from the role marker on the first line of the cell's text; nothing
// downstream re-infers it.
//
// The codec is deliberately strict and deliberately narrow:
//   - Parse rejects unknown fields, missing required fields, and unsupported
//     nbformat versions with a *ParseError.
//   - Serialize writes the canonical encoding (two-space indent, no HTML
//     escaping, no trailing newline) and is the exact inverse of Parse for
//     any document already in that encoding.
//
// The only permitted mutation is ReplaceReasoning, which returns a new
// Document with cell-level copies; callers holding the prior value keep it
// unmodified.
package notebook
