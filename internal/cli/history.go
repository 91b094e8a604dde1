package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rescribe/internal/ledger"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Config string
	Ledger string
	Run    string
	Path   string
	Status string
	Reason string
	Limit  int
}

// RunSummary is one run row in history output.
type RunSummary struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Model      string `json:"model"`
	BaseURL    string `json:"base_url,omitempty"`
	DryRun     bool   `json:"dry_run,omitempty"`
	Rewritten  int    `json:"rewritten"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

// OutcomeSummary is one outcome row in history output.
type OutcomeSummary struct {
	RunID         string `json:"run_id"`
	Path          string `json:"path"`
	TransactionID string `json:"transaction_id,omitempty"`
	OutPath       string `json:"out_path,omitempty"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	Steps         int    `json:"steps"`
	TargetCell    int    `json:"target_cell"`
	DurationMS    int64  `json:"duration_ms"`
	RecordedAt    string `json:"recorded_at"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past rewrite runs from the ledger",
		Long: `Read the outcome ledger and show past rewrite runs.

With no selector, lists recent runs newest first. --run shows the
per-document outcomes of one run ("latest" selects the most recent);
--path shows every recorded outcome for one document across runs.
--status and --reason narrow the outcomes of a run.

Examples:
  rescribe history --ledger runs.db
  rescribe history --ledger runs.db --run latest
  rescribe history --ledger runs.db --run 0190a57e-... --status failed
  rescribe history --ledger runs.db --path recordings/session.ipynb
  rescribe history --ledger runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML config (default rescribe.yaml if present)")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "path to the SQLite ledger (overrides config)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show outcomes of this run id, or \"latest\"")
	cmd.Flags().StringVar(&opts.Path, "path", "", "show recorded outcomes for this document path")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter run outcomes by status (rewritten|skipped|failed)")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "filter run outcomes by reason")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows to return (default 20)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Run != "" && opts.Path != "" {
		return NewExitError(ExitCommandError, "cannot combine --run and --path")
	}
	if (opts.Status != "" || opts.Reason != "") && opts.Run == "" {
		return NewExitError(ExitCommandError, "--status and --reason require --run")
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": failed to load config", err)
	}
	ledgerPath := cfg.Ledger
	if opts.Ledger != "" {
		ledgerPath = opts.Ledger
	}
	if ledgerPath == "" {
		return NewExitError(ExitCommandError, "no ledger configured: pass --ledger or set it in the config")
	}

	led, err := ledger.Open(ledgerPath)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to open ledger", err)
	}
	defer led.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case opts.Path != "":
		return historyForPath(ctx, led, opts, cmd)
	case opts.Run != "":
		return historyForRun(ctx, led, opts, cmd)
	default:
		return historyRuns(ctx, led, opts, cmd)
	}
}

// historyRuns lists recent runs.
func historyRuns(ctx context.Context, led *ledger.Ledger, opts *HistoryOptions, cmd *cobra.Command) error {
	runs, err := led.Runs(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to read runs", err)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, runSummaryFor(run))
	}

	if opts.Format == "json" {
		return outputHistoryJSON(cmd, map[string]any{"runs": summaries})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "=== Runs ===")
	if len(summaries) == 0 {
		fmt.Fprintln(w, "  (no runs recorded)")
		return nil
	}
	for i, run := range summaries {
		formatRunSummary(w, i+1, run)
	}
	return nil
}

// historyForRun lists the outcomes of one run.
func historyForRun(ctx context.Context, led *ledger.Ledger, opts *HistoryOptions, cmd *cobra.Command) error {
	runID := opts.Run
	if runID == "latest" {
		run, ok, err := led.LatestRun(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to read latest run", err)
		}
		if !ok {
			return NewExitError(ExitCommandError, "ledger has no runs")
		}
		runID = run.ID
	}

	filter := ledger.OutcomeFilter{Status: opts.Status, Reason: opts.Reason}
	records, err := led.Outcomes(ctx, runID, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to read outcomes", err)
	}

	summaries := make([]OutcomeSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, outcomeSummaryFor(rec))
	}

	if opts.Format == "json" {
		return outputHistoryJSON(cmd, map[string]any{"run_id": runID, "outcomes": summaries})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "=== Outcomes: %s ===\n", runID)
	if len(summaries) == 0 {
		fmt.Fprintln(w, "  (no matching outcomes)")
		return nil
	}
	for i, out := range summaries {
		fmt.Fprintf(w, "  [%d] %-9s %s%s\n", i+1, out.Status, out.Path, outcomeDetail(out))
	}
	return nil
}

// historyForPath lists every recorded outcome for one document.
func historyForPath(ctx context.Context, led *ledger.Ledger, opts *HistoryOptions, cmd *cobra.Command) error {
	records, err := led.History(ctx, opts.Path, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to read history", err)
	}

	summaries := make([]OutcomeSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, outcomeSummaryFor(rec))
	}

	if opts.Format == "json" {
		return outputHistoryJSON(cmd, map[string]any{"path": opts.Path, "history": summaries})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "=== History: %s ===\n", opts.Path)
	if len(summaries) == 0 {
		fmt.Fprintln(w, "  (no recorded outcomes)")
		return nil
	}
	for i, out := range summaries {
		fmt.Fprintf(w, "  [%d] %-9s run %s%s at %s\n",
			i+1, out.Status, out.RunID, outcomeDetail(out), out.RecordedAt)
	}
	return nil
}

// runSummaryFor converts a ledger run row for output.
func runSummaryFor(run ledger.Run) RunSummary {
	s := RunSummary{
		ID:        run.ID,
		StartedAt: run.StartedAt.Format(time.RFC3339),
		Model:     run.Model,
		BaseURL:   run.BaseURL,
		DryRun:    run.DryRun,
		Rewritten: run.Rewritten,
		Skipped:   run.Skipped,
		Failed:    run.Failed,
	}
	if !run.FinishedAt.IsZero() {
		s.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	}
	return s
}

// outcomeSummaryFor converts a ledger outcome row for output.
func outcomeSummaryFor(rec ledger.Record) OutcomeSummary {
	return OutcomeSummary{
		RunID:         rec.RunID,
		Path:          rec.Path,
		TransactionID: rec.TransactionID,
		OutPath:       rec.OutPath,
		Status:        rec.Status,
		Reason:        rec.Reason,
		Steps:         rec.Steps,
		TargetCell:    rec.TargetCell,
		DurationMS:    rec.Duration.Milliseconds(),
		RecordedAt:    rec.RecordedAt.Format(time.RFC3339),
	}
}

// outcomeDetail renders the parenthesized tail of one outcome line,
// matching the rewrite report format.
func outcomeDetail(out OutcomeSummary) string {
	return documentDetail(DocumentReport{
		Path:       out.Path,
		Status:     out.Status,
		Reason:     out.Reason,
		OutPath:    out.OutPath,
		Steps:      out.Steps,
		TargetCell: out.TargetCell,
		DurationMS: out.DurationMS,
	})
}

// formatRunSummary formats one run for text output.
func formatRunSummary(w io.Writer, n int, run RunSummary) {
	fmt.Fprintf(w, "  [%d] %s\n", n, run.ID)

	line := fmt.Sprintf("      %s  model %s  %d rewritten, %d skipped, %d failed",
		run.StartedAt, run.Model, run.Rewritten, run.Skipped, run.Failed)
	if run.DryRun {
		line += " (dry-run)"
	}
	if run.FinishedAt == "" {
		line += " (unfinished)"
	}
	fmt.Fprintln(w, line)
}

// outputHistoryJSON outputs a history payload as JSON.
func outputHistoryJSON(cmd *cobra.Command, data any) error {
	response := CLIResponse{
		Status: "ok",
		Data:   data,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}
