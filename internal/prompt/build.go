package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rescribe/internal/trace"
)

// DefaultMaxResultLength caps how much of a step result is quoted into the
// prompt before truncation kicks in.
const DefaultMaxResultLength = 500

// pendingResult is quoted for steps whose call recorded no output.
const pendingResult = "[no result recorded]"

// Options tunes rendering. The zero value uses defaults.
type Options struct {
	// MaxResultLength is the per-result cap in characters. Zero means
	// DefaultMaxResultLength.
	MaxResultLength int
}

// Build renders the trace into the single prompt for the generation
// service: the restated goal, then every step in order with its arguments
// and result, then the writing instruction.
func Build(tr *trace.ActionTrace, opts Options) string {
	maxResult := opts.MaxResultLength
	if maxResult <= 0 {
		maxResult = DefaultMaxResultLength
	}

	var b strings.Builder
	b.WriteString("You are revising the reasoning notes of a computer-use assistant. The session below already happened; every step is fixed.\n\n")
	b.WriteString("Goal: ")
	b.WriteString(tr.Instruction)
	b.WriteString("\n\nSteps taken:\n")
	for i, step := range tr.Steps {
		fmt.Fprintf(&b, "%d. %s(%s)\n", i+1, step.ToolName, formatArgs(step.Arguments))
		result := pendingResult
		if !step.Pending {
			result = truncate(step.Result, maxResult)
		}
		fmt.Fprintf(&b, "   Result: %s\n", result)
	}
	b.WriteString("\nWrite the reasoning the assistant should have recorded before executing these steps. Use first person and future intent, as if the steps were planned but not yet run. Explain why each step is necessary and how it advances the goal. Return only the reasoning text, with no headings, lists, or markdown.\n")

	return norm.NFC.String(b.String())
}

// formatArgs joins arguments in document order. Named arguments render as
// name=value; a bare value renders alone.
func formatArgs(args []trace.Arg) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a.Name == "" {
			parts = append(parts, a.Value)
			continue
		}
		parts = append(parts, a.Name+"="+a.Value)
	}
	return strings.Join(parts, ", ")
}

// truncate trims s to max characters and marks how much was cut. The
// retained prefix is never rewritten.
func truncate(s string, max int) string {
	total := utf8.RuneCountInString(s)
	if total <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + fmt.Sprintf("... [truncated %d chars]", total-max)
}
