package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formexpr/pkg/eval"
	"github.com/goliatone/go-formexpr/pkg/functions"
)

// NewEvalCmd creates the "eval" subcommand.
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate one expression against field values",
		Example: `  formexpr eval 'CONCAT(first, " ", last)' --set first=Ada --set last=Lovelace
  formexpr eval 'ROUND(amount * 1.2, 2)' --set amount=10 --json`,
		Args: cobra.ExactArgs(1),
		RunE: runEval,
	}

	cmd.Flags().StringArray("set", nil, "Field value as name=value (repeatable)")
	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

type evalOutput struct {
	Value any    `json:"value"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func runEval(cmd *cobra.Command, args []string) error {
	pairs, _ := cmd.Flags().GetStringArray("set")
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	values, err := parseAssignments(pairs)
	if err != nil {
		return err
	}
	ev, err := cfg.Evaluator(logger)
	if err != nil {
		return exitError(exitInputParse, "%v", err)
	}

	res := ev.Evaluate(args[0], eval.Scope{Values: functions.Values(values)})

	if asJSON {
		payload := evalOutput{Value: res.Value, OK: res.OK}
		if res.Err != nil {
			payload.Error = res.Err.Error()
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintln(out, functions.ToString(res.Value))
	}

	if !res.OK {
		return exitError(exitEvaluation, "evaluation failed: %v", res.Err)
	}
	return nil
}

// parseAssignments turns name=value pairs into field values. Numbers and
// booleans are recognised; everything else stays a string.
func parseAssignments(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, exitError(exitInputParse, "invalid --set %q: want name=value", pair)
		}
		values[name] = inferValue(raw)
	}
	return values, nil
}

func inferValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && trimmed != "" {
		return n
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}
