package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formexpr/pkg/prompt"
)

// NewRootCmd assembles the formexpr command tree. Prompt options reach the
// fill command.
func NewRootCmd(version string, fillOptions ...prompt.Option) *cobra.Command {
	root := &cobra.Command{
		Use:   "formexpr",
		Short: "Evaluate and check approval form expressions",
		Long:  "formexpr evaluates form expressions, lints form definitions and fills forms interactively.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
		Version:      version,
	}
	root.SetVersionTemplate(fmt.Sprintf("formexpr version %s\n", version))

	root.PersistentFlags().String("config", "", "Config file (default formexpr.yaml in . or $HOME/.formexpr)")
	root.PersistentFlags().Bool("verbose", false, "Enable verbose/debug logging")
	root.PersistentFlags().String("log-format", "", "Log format: text | json (overrides config)")

	root.AddCommand(NewEvalCmd())
	root.AddCommand(NewCheckCmd())
	root.AddCommand(NewFillCmd(fillOptions...))
	root.AddCommand(NewFunctionsCmd())
	return root
}

// setup loads configuration and a logger from the persistent flags.
func setup(cmd *cobra.Command) (*Config, logrus.FieldLogger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, nil, exitError(exitInputParse, "%v", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logger.Level = "debug"
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Logger.Format = format
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Logger)
	if err != nil {
		return nil, nil, exitError(exitInputParse, "%v", err)
	}
	return cfg, logger, nil
}

func newLogger(out io.Writer, cfg Logger) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("config: logger level: %w", err)
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return nil, fmt.Errorf("config: unknown log format %q", cfg.Format)
	}
	return l, nil
}
