package cli

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formexpr/pkg/form"
	"github.com/goliatone/go-formexpr/pkg/functions"
	"github.com/goliatone/go-formexpr/pkg/prompt"
)

// NewFillCmd creates the "fill" subcommand. Prompt options are applied after
// the flag-derived ones.
func NewFillCmd(options ...prompt.Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill <path>",
		Short: "Fill a form interactively and print the submitted values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd, args, options)
		},
	}

	cmd.Flags().String("form", "", "Form id when the input defines several forms")
	cmd.Flags().String("format", "json", "Output format: json | form | pretty")
	cmd.Flags().String("instance", "", "Instance id excluded from uniqueness checks (default: new UUID)")
	cmd.Flags().StringArray("set", nil, "Stored value as name=value; opens the form in edit mode (repeatable)")
	cmd.Flags().Bool("openapi", false, "Input is an OpenAPI document (file or URL)")

	return cmd
}

func runFill(cmd *cobra.Command, args []string, extra []prompt.Option) error {
	path := args[0]
	formID, _ := cmd.Flags().GetString("form")
	rawFormat, _ := cmd.Flags().GetString("format")
	instance, _ := cmd.Flags().GetString("instance")
	pairs, _ := cmd.Flags().GetStringArray("set")
	openapi, _ := cmd.Flags().GetBool("openapi")
	ctx := cmd.Context()

	format, err := prompt.ParseOutputFormat(rawFormat)
	if err != nil {
		return exitError(exitInputParse, "%v", err)
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	stored, err := parseAssignments(pairs)
	if err != nil {
		return err
	}
	if err := statInput(path, openapi); err != nil {
		return err
	}
	forms, err := readForms(ctx, path, openapi)
	if err != nil {
		return exitError(exitInputParse, "%v", err)
	}
	def, err := pickForm(forms, formID)
	if err != nil {
		return err
	}

	ev, err := cfg.Evaluator(logger)
	if err != nil {
		return exitError(exitInputParse, "%v", err)
	}
	if instance == "" {
		instance = uuid.NewString()
	}
	opts := []form.Option{
		form.WithEvaluator(ev),
		form.WithDebounce(cfg.Debounce),
		form.WithInstanceID(instance),
		form.WithLogger(logger),
	}
	if cfg.Precedence {
		opts = append(opts, form.WithPrecedence())
	}
	if len(stored) > 0 {
		opts = append(opts, form.WithInitialValues(stored))
	}
	backend, err := cfg.Backend(cmd)
	if err != nil {
		return exitError(exitRuntime, "%v", err)
	}
	if backend != nil {
		defer backend.Close()
		opts = append(opts, form.WithBackend(backend))
	}

	session, err := form.New(def, opts...)
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}
	defer session.Close()

	filler := prompt.New(append([]prompt.Option{
		prompt.WithOutput(cmd.ErrOrStderr()),
		prompt.WithOutputFormat(format),
		prompt.WithLogger(logger),
	}, extra...)...)

	values, err := filler.Fill(ctx, session)
	if err != nil {
		var invalid *form.ValidationErrors
		switch {
		case errors.Is(err, prompt.ErrAborted):
			return exitError(exitRuntime, "aborted")
		case errors.As(err, &invalid), errors.Is(err, prompt.ErrAttemptsExhausted):
			return exitError(exitValidation, "%v", err)
		default:
			return err
		}
	}

	data, err := filler.Serialize(values)
	if err != nil {
		return fmt.Errorf("encoding values: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if backend != nil && backend.sql != nil {
		record := make(map[string]string, len(values))
		for name, value := range values {
			record[name] = functions.ToString(value)
		}
		if err := backend.sql.Record(ctx, def.ID, instance, record); err != nil {
			return exitError(exitRuntime, "recording submission: %v", err)
		}
		logger.WithFields(logrus.Fields{"form": def.ID, "instance": instance}).Info("submission recorded")
	}
	return nil
}
