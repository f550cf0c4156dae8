package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formexpr/pkg/functions"
	"github.com/goliatone/go-formexpr/pkg/report"
	"github.com/goliatone/go-formexpr/pkg/validation"
)

// NewCheckCmd creates the "check" subcommand.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <path>...",
		Short: "Lint form definitions without running them",
		Long: "Lint form definitions for unknown functions, malformed expressions, " +
			"ignored validation clauses, dangling references and dependency cycles.",
		Args: cobra.MinimumNArgs(1),
		RunE: runCheck,
	}

	cmd.Flags().String("format", "text", "Output format: text | markdown")
	cmd.Flags().Bool("strict", false, "Treat warnings as errors")
	cmd.Flags().Bool("openapi", false, "Inputs are OpenAPI documents (files or URLs)")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	rawFormat, _ := cmd.Flags().GetString("format")
	strict, _ := cmd.Flags().GetBool("strict")
	openapi, _ := cmd.Flags().GetBool("openapi")

	format, err := report.ParseFormat(rawFormat)
	if err != nil {
		return exitError(exitInputParse, "%v", err)
	}
	_, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	reg := functions.Builtin()
	var entries []report.Entry
	for _, path := range args {
		if err := statInput(path, openapi); err != nil {
			return err
		}
		forms, err := readForms(cmd.Context(), path, openapi)
		if err != nil {
			logger.WithField("path", path).WithError(err).Debug("definition rejected")
			entries = append(entries, report.Entry{Source: path, Report: validation.Report{
				FormID: filepath.Base(path),
				Issues: []validation.Issue{{Message: err.Error(), Severity: validation.SeverityError}},
			}})
			continue
		}
		for _, f := range forms {
			entries = append(entries, report.Entry{Source: f.Source, Report: validation.Lint(f.Form, reg)})
		}
	}

	renderer, err := report.New(report.WithGlobalData(map[string]any{"tool": cmd.Root().Name()}))
	if err != nil {
		return err
	}
	if err := renderer.Render(cmd.OutOrStdout(), format, entries); err != nil {
		return err
	}

	var errs, warnings int
	for _, entry := range entries {
		n := len(entry.Report.Errors())
		errs += n
		warnings += len(entry.Report.Issues) - n
	}
	if errs > 0 || (strict && warnings > 0) {
		return exitError(exitValidation, "check failed: %d error(s), %d warning(s)", errs, warnings)
	}
	return nil
}
