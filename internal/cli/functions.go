package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formexpr/pkg/functions"
)

// NewFunctionsCmd creates the "functions" subcommand.
func NewFunctionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "functions [name]",
		Short: "List the built-in expression functions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFunctions,
	}

	cmd.Flags().String("category", "", "Only list one category (String, Number, Date, ...)")

	return cmd
}

func runFunctions(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	out := cmd.OutOrStdout()
	reg := functions.Builtin()

	if len(args) == 1 {
		def, ok := reg.Lookup(args[0])
		if !ok {
			return exitError(exitInputParse, "unknown function %q", args[0])
		}
		fmt.Fprintf(out, "%s\n  category: %s\n  arity:    %s\n", def.Syntax, def.Category, arity(def))
		if def.Description != "" {
			fmt.Fprintf(out, "\n%s\n", def.Description)
		}
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tSYNTAX")
	listed := 0
	for _, def := range reg.Definitions() {
		if category != "" && !strings.EqualFold(string(def.Category), category) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Name, def.Category, def.Syntax)
		listed++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if listed == 0 {
		return exitError(exitInputParse, "no functions in category %q", category)
	}
	return nil
}

func arity(def functions.Definition) string {
	switch {
	case def.MaxArgs == functions.Variadic:
		return fmt.Sprintf("%d+", def.MinArgs)
	case def.MinArgs == def.MaxArgs:
		return fmt.Sprint(def.MinArgs)
	default:
		return fmt.Sprintf("%d-%d", def.MinArgs, def.MaxArgs)
	}
}
