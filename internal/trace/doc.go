// Package trace extracts the linear action sequence from a parsed notebook
// document: the initiating user instruction plus the ordered tool steps that
// follow it, bounded by the reasoning cell the rewrite targets.
//
// Extraction is a pure scan over the cell sequence. The same document always
// yields a structurally equal trace, and nothing here mutates the document.
package trace
