package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rescribe/internal/prompt"
)

// PromptOptions holds flags for the prompt command.
type PromptOptions struct {
	*RootOptions
	Config string
}

// PromptResult holds the rendered prompt for one document.
type PromptResult struct {
	Path   string `json:"path"`
	Prompt string `json:"prompt"`
	Chars  int    `json:"chars"`
}

// NewPromptCommand creates the prompt command.
func NewPromptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PromptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "prompt <file>",
		Short: "Show the prompt a rewrite would send",
		Long: `Build and print the exact prompt the rewrite command would send to
the generation service for one notebook, without calling it.

Prompt construction is deterministic: the same document always renders
the same prompt. Tool results longer than the configured threshold are
truncated the same way the rewrite pipeline truncates them.

Examples:
  rescribe prompt session.ipynb
  rescribe prompt session.ipynb --config rescribe.yaml
  rescribe prompt session.ipynb --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML config (default rescribe.yaml if present)")

	return cmd
}

func runPrompt(opts *PromptOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": failed to load config", err)
	}

	tr, err := extractTrace(path)
	if err != nil {
		return outputContentError(formatter, err)
	}

	text := prompt.Build(tr, cfg.PromptOptions())

	if opts.Format == "json" {
		response := CLIResponse{
			Status: "ok",
			Data: PromptResult{
				Path:   path,
				Prompt: text,
				Chars:  len(text),
			},
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	}

	// Raw prompt text so the output can be piped or diffed directly.
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
