// Package llm wraps the external text-generation service behind a single
// synchronous call with an explicit timeout.
//
// Every failure is classified into a coded *GenerationError before it
// crosses the package boundary, so callers branch on failure codes instead
// of transport details. Configuration is injected per call; nothing here
// reads ambient process state.
package llm
