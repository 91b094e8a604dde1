package rewrite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/rescribe/internal/llm"
	"github.com/roach88/rescribe/internal/notebook"
	"github.com/roach88/rescribe/internal/prompt"
	"github.com/roach88/rescribe/internal/trace"
)

// Status is the terminal classification of one document.
type Status string

const (
	// StatusRewritten means the document was fully rewritten and saved.
	StatusRewritten Status = "rewritten"

	// StatusSkipped means the document was deliberately left untouched.
	StatusSkipped Status = "skipped"

	// StatusFailed means a stage failed; the document was left untouched.
	StatusFailed Status = "failed"
)

// Reason explains a skip or failure. Values are stable identifiers used in
// reports and the run ledger.
type Reason string

const (
	ReasonMalformedDocument Reason = "malformed_document"
	ReasonNoInstruction     Reason = "no_instruction_found"
	ReasonEmptyTrace        Reason = "empty_trace"
	ReasonNoReasoningCell   Reason = "no_reasoning_cell"
	ReasonMalformedToolCall Reason = "malformed_tool_call"
	ReasonAuthFailure       Reason = "auth_failure"
	ReasonRateLimited       Reason = "rate_limited"
	ReasonTimeout           Reason = "timeout"
	ReasonEmptyResponse     Reason = "empty_response"
	ReasonServiceError      Reason = "service_error"
	ReasonRewriteDeclined   Reason = "rewrite_declined"
	ReasonReadError         Reason = "read_error"
	ReasonWriteError        Reason = "write_error"
	ReasonInternalError     Reason = "internal_error"
	ReasonDryRun            Reason = "dry_run"
)

// Outcome is the per-document result the driver aggregates.
type Outcome struct {
	// Path is the source document.
	Path string

	// OutPath is where the rewritten document was written. Equal to Path
	// unless an output directory redirects it; empty when nothing was
	// written.
	OutPath string

	// Status is the terminal classification.
	Status Status

	// Reason explains a skip or failure; empty for rewritten documents.
	Reason Reason

	// Steps is the extracted step count, 0 when extraction never ran or
	// failed.
	Steps int

	// TargetCell is the reasoning cell index the rewrite targeted, -1 when
	// unknown.
	TargetCell int

	// DigestBefore and DigestAfter identify the document content loaded
	// and written. DigestAfter is empty when nothing was written.
	DigestBefore string
	DigestAfter  string

	// Duration is wall time spent on this document.
	Duration time.Duration

	// Err is the underlying error for skips and failures that carry one.
	Err error
}

// Generator produces replacement text for a prompt. *llm.Client satisfies
// it; tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, cfg llm.Config, promptText string) (string, error)
}

// Runner executes one transaction per document. Fields are read-only
// during Process, so a single Runner serves a whole batch.
type Runner struct {
	// Generator performs the outbound generation call.
	Generator Generator

	// Config is handed to the Generator on every call.
	Config llm.Config

	// PromptOptions tune prompt rendering.
	PromptOptions prompt.Options

	// DryRun stops after the prompt is built; no generation call, no
	// write.
	DryRun bool

	// OutDir, when set, receives rewritten documents instead of replacing
	// sources in place. The source's path relative to BaseDir is mirrored
	// under it.
	OutDir string

	// BaseDir anchors relative paths in OutDir mode.
	BaseDir string
}

// Process runs the full pipeline for the document at path: load, extract,
// prompt, generate, rewrite, save. Any failure aborts with the on-disk
// file untouched; only a completed pipeline replaces it, atomically.
func (r *Runner) Process(ctx context.Context, path string) Outcome {
	start := time.Now()
	out := Outcome{Path: path, TargetCell: -1}

	finish := func() Outcome {
		out.Duration = time.Since(start)
		return out
	}
	fail := func(reason Reason, err error) Outcome {
		out.Status = StatusFailed
		out.Reason = reason
		out.Err = err
		slog.Error("document failed", "path", path, "reason", string(reason), "error", err)
		return finish()
	}
	skip := func(reason Reason, err error) Outcome {
		out.Status = StatusSkipped
		out.Reason = reason
		out.Err = err
		slog.Info("document skipped", "path", path, "reason", string(reason))
		return finish()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fail(ReasonReadError, err)
	}
	out.DigestBefore = notebook.Digest(raw)

	doc, err := notebook.Parse(raw)
	if err != nil {
		return skip(ReasonMalformedDocument, err)
	}
	slog.Debug("document loaded", "path", path, "cells", len(doc.Cells))

	tr, err := trace.Extract(doc)
	if err != nil {
		return skip(extractionReason(err), err)
	}
	out.Steps = len(tr.Steps)
	out.TargetCell = tr.TargetCell
	slog.Debug("trace extracted", "path", path, "steps", out.Steps, "target_cell", tr.TargetCell)

	promptText := prompt.Build(tr, r.PromptOptions)

	if r.DryRun {
		return skip(ReasonDryRun, nil)
	}

	text, err := r.Generator.Generate(ctx, r.Config, promptText)
	if err != nil {
		return fail(generationReason(err), err)
	}
	slog.Debug("explanation generated", "path", path, "chars", len(text))

	newDoc, err := Rewrite(doc, tr.TargetCell, text)
	if err != nil {
		if IsDeclined(err) {
			return skip(ReasonRewriteDeclined, err)
		}
		return fail(ReasonInternalError, err)
	}

	updated, err := notebook.Serialize(newDoc)
	if err != nil {
		return fail(ReasonWriteError, err)
	}

	dest := r.destination(path)
	if err := writeAtomic(dest, updated); err != nil {
		return fail(ReasonWriteError, err)
	}
	out.OutPath = dest
	out.DigestAfter = notebook.Digest(updated)
	out.Status = StatusRewritten
	slog.Info("document rewritten", "path", path, "dest", dest, "steps", out.Steps, "target_cell", out.TargetCell)
	return finish()
}

// destination resolves where a rewritten document lands. In-place unless
// OutDir redirects it; then the path relative to BaseDir is mirrored under
// OutDir, falling back to the bare filename for paths outside BaseDir.
func (r *Runner) destination(path string) string {
	if r.OutDir == "" {
		return path
	}
	rel := filepath.Base(path)
	if r.BaseDir != "" {
		if candidate, err := filepath.Rel(r.BaseDir, path); err == nil && !strings.HasPrefix(candidate, "..") {
			rel = candidate
		}
	}
	return filepath.Join(r.OutDir, rel)
}

// extractionReason maps extraction errors onto report reasons.
func extractionReason(err error) Reason {
	switch {
	case trace.IsEmptyTrace(err):
		return ReasonEmptyTrace
	case trace.IsNoInstruction(err):
		return ReasonNoInstruction
	case trace.IsNoReasoning(err):
		return ReasonNoReasoningCell
	case trace.IsMalformedToolCall(err):
		return ReasonMalformedToolCall
	default:
		return ReasonInternalError
	}
}

// generationReason maps generation failures onto report reasons.
func generationReason(err error) Reason {
	switch {
	case llm.IsAuthFailure(err):
		return ReasonAuthFailure
	case llm.IsRateLimited(err):
		return ReasonRateLimited
	case llm.IsTimeout(err):
		return ReasonTimeout
	case llm.IsEmptyResponse(err):
		return ReasonEmptyResponse
	default:
		return ReasonServiceError
	}
}
