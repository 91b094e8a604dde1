package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rescribe/internal/notebook"
	"github.com/roach88/rescribe/internal/trace"
)

// TraceArg is one rendered call argument.
type TraceArg struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

// TraceStep is one tool step in the trace report.
type TraceStep struct {
	Tool      string     `json:"tool"`
	Arguments []TraceArg `json:"arguments,omitempty"`
	Result    string     `json:"result,omitempty"`
	Pending   bool       `json:"pending,omitempty"`
}

// TraceResult holds the extracted trace for one document.
type TraceResult struct {
	Path        string      `json:"path"`
	Instruction string      `json:"instruction"`
	Steps       []TraceStep `json:"steps"`
	TargetCell  int         `json:"target_cell"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <file>",
		Short: "Show the extracted action trace of a notebook",
		Long: `Extract and print the action trace of one recorded notebook.

Shows the instruction that initiated the session, the tool steps taken
for it in document order, and the reasoning cell a rewrite would target.
No service call is made and nothing is written.

Examples:
  rescribe trace session.ipynb
  rescribe trace session.ipynb --format json
  rescribe trace session.ipynb --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runTrace(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	tr, err := extractTrace(path)
	if err != nil {
		return outputContentError(formatter, err)
	}

	result := TraceResult{
		Path:        path,
		Instruction: tr.Instruction,
		Steps:       make([]TraceStep, 0, len(tr.Steps)),
		TargetCell:  tr.TargetCell,
	}
	for _, step := range tr.Steps {
		args := make([]TraceArg, 0, len(step.Arguments))
		for _, a := range step.Arguments {
			args = append(args, TraceArg{Name: a.Name, Value: a.Value})
		}
		result.Steps = append(result.Steps, TraceStep{
			Tool:      step.ToolName,
			Arguments: args,
			Result:    step.Result,
			Pending:   step.Pending,
		})
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// extractTrace loads one document and extracts its trace. Missing files
// are command errors; content problems come back as plain errors for the
// caller to classify.
func extractTrace(path string) (*trace.ActionTrace, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%s: file not found: %s", ErrCodeNotFound, path)}
		}
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%s: failed to read %s", ErrCodeReadFailed, path), Err: err}
	}

	doc, err := notebook.Parse(raw)
	if err != nil {
		return nil, err
	}
	return trace.Extract(doc)
}

// outputContentError reports a parse or extraction failure. Command-level
// problems (missing file) keep their exit code; content problems exit 1.
func outputContentError(formatter *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		_ = formatter.Error(ErrCodeReadFailed, exitErr.Error(), nil)
		return exitErr
	}

	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitFailure, "trace extraction failed", err)
}

// outputTraceJSON outputs the trace as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for: %s\n", result.Path)
	fmt.Fprintf(w, "Instruction: %s\n", result.Instruction)
	fmt.Fprintf(w, "Target cell: %d\n", result.TargetCell)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Steps ===")
	if len(result.Steps) == 0 {
		fmt.Fprintln(w, "  (no steps)")
		return nil
	}
	for i, step := range result.Steps {
		formatTraceStep(w, i+1, step, verbose)
	}
	return nil
}

// formatTraceStep formats a single step for text output.
func formatTraceStep(w io.Writer, n int, step TraceStep, verbose bool) {
	suffix := ""
	if step.Pending {
		suffix = " (pending)"
	}
	fmt.Fprintf(w, "  [%d] %s(%s)%s\n", n, step.Tool, formatTraceArgs(step.Arguments), suffix)

	if step.Result == "" {
		return
	}
	result := step.Result
	if !verbose {
		result = truncateResult(result)
	}
	for _, line := range strings.Split(result, "\n") {
		fmt.Fprintf(w, "      -> %s\n", line)
	}
}

// formatTraceArgs renders arguments in recorded order.
func formatTraceArgs(args []TraceArg) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a.Name == "" {
			parts = append(parts, a.Value)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", a.Name, a.Value))
	}
	return strings.Join(parts, ", ")
}

// truncateResult caps a result at its first line and 100 characters for
// the non-verbose listing.
func truncateResult(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	if len(s) > 100 {
		s = s[:100] + "..."
	}
	return s
}
