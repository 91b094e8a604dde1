package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rescribe/internal/config"
	"github.com/roach88/rescribe/internal/ledger"
	"github.com/roach88/rescribe/internal/llm"
	"github.com/roach88/rescribe/internal/rewrite"
)

// RewriteOptions holds flags for the rewrite command.
type RewriteOptions struct {
	*RootOptions
	Config  string
	Out     string
	DryRun  bool
	Ledger  string
	Model   string
	Timeout int

	// Generator allows overriding the generation client (for testing).
	// If nil, defaults to llm.NewClient().
	Generator rewrite.Generator

	// IDGen allows overriding the run/transaction id generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	IDGen ledger.IDGenerator
}

// DocumentReport is one per-document entry in the run report.
type DocumentReport struct {
	Path       string `json:"path"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	OutPath    string `json:"out_path,omitempty"`
	Steps      int    `json:"steps"`
	TargetCell int    `json:"target_cell"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RewriteSummary aggregates a whole run.
type RewriteSummary struct {
	RunID     string           `json:"run_id"`
	Target    string           `json:"target"`
	DryRun    bool             `json:"dry_run,omitempty"`
	Total     int              `json:"total"`
	Rewritten int              `json:"rewritten"`
	Skipped   int              `json:"skipped"`
	Failed    int              `json:"failed"`
	Documents []DocumentReport `json:"documents"`
}

// NewRewriteCommand creates the rewrite command.
func NewRewriteCommand(rootOpts *RootOptions) *cobra.Command {
	return newRewriteCommand(&RewriteOptions{RootOptions: rootOpts})
}

// newRewriteCommand builds the command from prepared options. Tests use it
// to inject a fake generator and fixed ids.
func newRewriteCommand(opts *RewriteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite <path>",
		Short: "Regenerate reasoning cells in notebooks",
		Long: `Rewrite the assistant reasoning cell of recorded notebooks.

The path may be a single .ipynb file or a directory, which is walked
recursively for *.ipynb files in stable sorted order. Each document is
processed independently: its instruction and tool actions are extracted,
a replacement explanation is generated, and the reasoning cell is spliced
back in an atomic save. A document that cannot be processed is skipped or
failed with a reason; it never blocks the rest of the batch.

The API key is read from DASHSCOPE_API_KEY, optionally loaded from the
nearest .env file.

Examples:
  rescribe rewrite session.ipynb
  rescribe rewrite ./recordings --out ./rewritten
  rescribe rewrite ./recordings --dry-run --format json
  rescribe rewrite ./recordings --ledger runs.db --model qwen3-max`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML config (default rescribe.yaml if present)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write rewritten documents under this directory instead of in place")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "extract and build prompts without calling the service or writing")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "record outcomes in this SQLite ledger (overrides config)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "generation model (overrides config)")
	cmd.Flags().IntVar(&opts.Timeout, "timeout", 0, "generation timeout in seconds (overrides config)")

	return cmd
}

func runRewrite(opts *RewriteOptions, target string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": failed to load config", err)
	}
	if opts.Model != "" {
		cfg.Model = opts.Model
	}
	if opts.Timeout > 0 {
		cfg.TimeoutSeconds = opts.Timeout
	}
	ledgerPath := cfg.Ledger
	if opts.Ledger != "" {
		ledgerPath = opts.Ledger
	}

	// Dry runs never call the service, so the key is not required.
	apiKey := ""
	if !opts.DryRun {
		apiKey, err = resolveAPIKey()
		if err != nil {
			return WrapExitError(ExitCommandError, ErrCodeCredentials+": missing credentials", err)
		}
	}

	docs, err := DiscoverNotebooks(target)
	if err != nil {
		return err
	}

	baseDir := filepath.Dir(target)
	if info, statErr := os.Stat(target); statErr == nil && info.IsDir() {
		baseDir = target
	}

	gen := opts.IDGen
	if gen == nil {
		gen = ledger.UUIDv7Generator{}
	}
	runID := gen.Generate()
	startedAt := time.Now()
	slog.Info("run starting", "run_id", runID, "documents", len(docs), "dry_run", opts.DryRun)

	// Ledger writes use a background context so an interrupt still leaves
	// a finalized run row.
	ledgerCtx := context.Background()
	var led *ledger.Ledger
	if ledgerPath != "" {
		led, err = ledger.Open(ledgerPath)
		if err != nil {
			return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to open ledger", err)
		}
		defer func() {
			if closeErr := led.Close(); closeErr != nil {
				slog.Error("error closing ledger", "error", closeErr)
			}
		}()

		run := ledger.Run{
			ID:        runID,
			StartedAt: startedAt,
			Model:     effectiveModel(cfg),
			BaseURL:   effectiveBaseURL(cfg),
			DryRun:    opts.DryRun,
		}
		if err := led.BeginRun(ledgerCtx, run); err != nil {
			return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to begin run", err)
		}
	}

	generator := opts.Generator
	if generator == nil {
		generator = llm.NewClient()
	}
	runner := &rewrite.Runner{
		Generator:     generator,
		Config:        cfg.ServiceConfig(apiKey),
		PromptOptions: cfg.PromptOptions(),
		DryRun:        opts.DryRun,
		OutDir:        opts.Out,
		BaseDir:       baseDir,
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping after current document", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	summary := RewriteSummary{
		RunID:     runID,
		Target:    target,
		DryRun:    opts.DryRun,
		Total:     len(docs),
		Documents: make([]DocumentReport, 0, len(docs)),
	}

	for _, path := range docs {
		if ctx.Err() != nil {
			slog.Warn("run interrupted", "completed", len(summary.Documents), "total", len(docs))
			break
		}

		txnID := gen.Generate()
		slog.Debug("transaction starting", "path", path, "transaction_id", txnID)
		outcome := runner.Process(ctx, path)

		switch outcome.Status {
		case rewrite.StatusRewritten:
			summary.Rewritten++
		case rewrite.StatusSkipped:
			summary.Skipped++
		case rewrite.StatusFailed:
			summary.Failed++
		}
		summary.Documents = append(summary.Documents, reportFor(outcome))

		if led != nil {
			rec := ledger.Record{
				RunID:         runID,
				Path:          outcome.Path,
				TransactionID: txnID,
				OutPath:       outcome.OutPath,
				Status:        string(outcome.Status),
				Reason:        string(outcome.Reason),
				Steps:         outcome.Steps,
				TargetCell:    outcome.TargetCell,
				DigestBefore:  outcome.DigestBefore,
				DigestAfter:   outcome.DigestAfter,
				Duration:      outcome.Duration,
			}
			if err := led.RecordOutcome(ledgerCtx, rec); err != nil {
				slog.Error("failed to record outcome", "path", path, "error", err)
			}
		}
	}

	if led != nil {
		err := led.FinishRun(ledgerCtx, runID, time.Now(), summary.Rewritten, summary.Skipped, summary.Failed)
		if err != nil {
			slog.Error("failed to finish run", "run_id", runID, "error", err)
		}
	}
	slog.Info("run finished", "run_id", runID,
		"rewritten", summary.Rewritten, "skipped", summary.Skipped, "failed", summary.Failed)

	if opts.Format == "json" {
		if err := outputRewriteJSON(cmd, summary); err != nil {
			return err
		}
	} else {
		outputRewriteText(cmd, summary)
	}

	if summary.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d document(s) failed", summary.Failed))
	}
	return nil
}

// loadConfig loads the named config file, or the default one when path is
// empty.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

// effectiveModel resolves the model the run will actually request.
func effectiveModel(cfg *config.Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return llm.DefaultModel
}

// effectiveBaseURL resolves the endpoint the run will actually call.
func effectiveBaseURL(cfg *config.Config) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return llm.DefaultBaseURL
}

// reportFor converts one outcome into its report entry.
func reportFor(out rewrite.Outcome) DocumentReport {
	rep := DocumentReport{
		Path:       out.Path,
		Status:     string(out.Status),
		Reason:     string(out.Reason),
		OutPath:    out.OutPath,
		Steps:      out.Steps,
		TargetCell: out.TargetCell,
		DurationMS: out.Duration.Milliseconds(),
	}
	if out.Err != nil {
		rep.Error = out.Err.Error()
	}
	return rep
}

// outputRewriteJSON outputs the run summary as JSON.
func outputRewriteJSON(cmd *cobra.Command, summary RewriteSummary) error {
	response := CLIResponse{
		Status: "ok",
		Data:   summary,
		RunID:  summary.RunID,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputRewriteText outputs the run summary as text.
func outputRewriteText(cmd *cobra.Command, summary RewriteSummary) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Rewrite run: %s\n", summary.RunID)
	fmt.Fprintf(w, "Target: %s\n", summary.Target)
	if summary.DryRun {
		fmt.Fprintln(w, "Mode: dry-run")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Documents ===")
	if len(summary.Documents) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		for i, doc := range summary.Documents {
			fmt.Fprintf(w, "  [%d] %-9s %s%s\n", i+1, doc.Status, doc.Path, documentDetail(doc))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Summary ===")
	fmt.Fprintf(w, "  Total:     %d\n", summary.Total)
	fmt.Fprintf(w, "  Rewritten: %d\n", summary.Rewritten)
	fmt.Fprintf(w, "  Skipped:   %d\n", summary.Skipped)
	fmt.Fprintf(w, "  Failed:    %d\n", summary.Failed)
}

// documentDetail renders the parenthesized tail of one document line.
func documentDetail(doc DocumentReport) string {
	switch doc.Status {
	case string(rewrite.StatusRewritten):
		detail := fmt.Sprintf(" (%d step(s), cell %d, %.2fs)",
			doc.Steps, doc.TargetCell, float64(doc.DurationMS)/1000)
		if doc.OutPath != "" && doc.OutPath != doc.Path {
			detail += " -> " + doc.OutPath
		}
		return detail
	case string(rewrite.StatusFailed):
		if doc.Error != "" {
			return fmt.Sprintf(" (%s): %s", doc.Reason, doc.Error)
		}
		return fmt.Sprintf(" (%s)", doc.Reason)
	default:
		return fmt.Sprintf(" (%s)", doc.Reason)
	}
}
