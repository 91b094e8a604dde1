package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rescribe/internal/schema"
)

// FileValidation is the validation result for one file.
type FileValidation struct {
	Path   string                   `json:"path"`
	Valid  bool                     `json:"valid"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// ValidationReport aggregates validation across all discovered files.
type ValidationReport struct {
	Valid   bool             `json:"valid"`
	Total   int              `json:"total"`
	Invalid int              `json:"invalid"`
	Files   []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Check notebooks against the document schema",
		Long: `Validate notebook files against the recorded-session document schema.

The path may be a single .ipynb file or a directory, which is walked
recursively. Each file is checked structurally: cell list shape, cell
types, field sets, and format version. Validation is stricter than the
rewrite pipeline's own parser and reports every violation it finds, not
just the first.

Examples:
  rescribe validate session.ipynb
  rescribe validate ./recordings
  rescribe validate ./recordings --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateNotebooks(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidateNotebooks(opts *RootOptions, target string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	docs, err := DiscoverNotebooks(target)
	if err != nil {
		return err
	}
	formatter.VerboseLog("Found %d notebook file(s) in %s", len(docs), target)

	validator, err := schema.NewValidator()
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeGeneric+": failed to build validator", err)
	}

	report := ValidationReport{
		Valid: true,
		Total: len(docs),
		Files: make([]FileValidation, 0, len(docs)),
	}
	for _, path := range docs {
		file := validateFile(validator, path)
		if !file.Valid {
			report.Invalid++
			report.Valid = false
		}
		report.Files = append(report.Files, file)
	}

	if formatter.Format == "json" {
		if err := outputValidationJSON(cmd, report); err != nil {
			return err
		}
	} else {
		outputValidationText(cmd, report)
	}

	if report.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d file(s)", report.Invalid))
	}
	return nil
}

// validateFile checks one file. A read failure is reported as a
// validation error rather than aborting the batch.
func validateFile(validator *schema.Validator, path string) FileValidation {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileValidation{
			Path: path,
			Errors: []schema.ValidationError{{
				Field:   "file",
				Message: err.Error(),
				Code:    ErrCodeReadFailed,
			}},
		}
	}

	errs := validator.Validate(path, raw)
	return FileValidation{
		Path:   path,
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// outputValidationJSON outputs the report as JSON.
func outputValidationJSON(cmd *cobra.Command, report ValidationReport) error {
	response := CLIResponse{
		Status: "ok",
		Data:   report,
	}
	if !report.Valid {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    schema.ErrSchemaViolation,
			Message: fmt.Sprintf("%d of %d file(s) invalid", report.Invalid, report.Total),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputValidationText outputs the report as text.
func outputValidationText(cmd *cobra.Command, report ValidationReport) {
	w := cmd.OutOrStdout()

	for _, file := range report.Files {
		if file.Valid {
			fmt.Fprintf(w, "✓ %s\n", file.Path)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", file.Path)
		for _, e := range file.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d file(s) checked, %d invalid\n", report.Total, report.Invalid)
}
