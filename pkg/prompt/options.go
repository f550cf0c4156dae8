package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// OutputFormat controls how submitted values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits one name=value line per field.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// ParseOutputFormat maps a flag value onto an OutputFormat.
func ParseOutputFormat(raw string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return OutputFormatJSON, nil
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
		return f, nil
	default:
		return "", fmt.Errorf("prompt: unknown output format %q", raw)
	}
}

// DefaultAttempts bounds how often one field is asked again after a
// validation failure.
const DefaultAttempts = 3

// Option configures a Filler.
type Option func(*Filler)

// WithDriver overrides the prompt driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithOutput sets where the default survey driver prints notices.
func WithOutput(out io.Writer) Option {
	return func(f *Filler) {
		if out != nil {
			f.out = out
		}
	}
}

// WithOutputFormat selects the serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(f *Filler) {
		if format != "" {
			f.format = format
		}
	}
}

// WithAttempts overrides DefaultAttempts.
func WithAttempts(n int) Option {
	return func(f *Filler) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}
