package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formexpr/pkg/eval"
	"github.com/goliatone/go-formexpr/pkg/form"
	"github.com/goliatone/go-formexpr/pkg/functions"
	"github.com/goliatone/go-formexpr/pkg/unique"
	"github.com/goliatone/go-formexpr/pkg/validation"
)

// envPrefix namespaces environment overrides, e.g. FORMEXPR_USER_EMAIL.
const envPrefix = "FORMEXPR"

// Config is the CLI configuration read from formexpr.yaml and the environment.
type Config struct {
	User       functions.User
	Timezone   string
	Debounce   time.Duration
	Precedence bool
	Logger     Logger
	Unique     Unique
}

// Logger controls the CLI log output.
type Logger struct {
	Level  string
	Format string
}

// Unique selects the uniqueness backend. HTTP wins when both are set.
type Unique struct {
	HTTP   UniqueHTTP
	SQLite UniqueSQLite
}

type UniqueHTTP struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

type UniqueSQLite struct {
	Path  string
	Table string
}

// LoadConfig reads configPath, or formexpr.{yaml,json,toml} from the working
// directory and $HOME/.formexpr when configPath is empty. A missing default
// file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("formexpr")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.formexpr")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	return &Config{
		User:       getUserConfig(v),
		Timezone:   getStringOrDefault(v, "timezone", "UTC"),
		Debounce:   getDurationOrDefault(v, "debounce", form.DefaultDebounce),
		Precedence: getBoolOrDefault(v, "precedence", false),
		Logger: Logger{
			Level:  getStringOrDefault(v, "logger.level", "warn"),
			Format: getStringOrDefault(v, "logger.format", "text"),
		},
		Unique: Unique{
			HTTP: UniqueHTTP{
				URL:     v.GetString("unique.http.url"),
				Headers: v.GetStringMapString("unique.http.headers"),
				Timeout: getDurationOrDefault(v, "unique.http.timeout", 5*time.Second),
			},
			SQLite: UniqueSQLite{
				Path:  v.GetString("unique.sqlite.path"),
				Table: v.GetString("unique.sqlite.table"),
			},
		},
	}, nil
}

func getUserConfig(v *viper.Viper) functions.User {
	return functions.User{
		ID:         v.GetString("user.id"),
		Name:       v.GetString("user.name"),
		Email:      v.GetString("user.email"),
		Department: v.GetString("user.department"),
		Role:       v.GetString("user.role"),
		SBU:        v.GetString("user.sbu"),
		Branch:     v.GetString("user.branch"),
		Corporate:  v.GetString("user.corporate"),
	}
}

// getDurationOrDefault returns duration from config or default value
func getDurationOrDefault(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	if v.IsSet(key) {
		return v.GetDuration(key)
	}
	return defaultValue
}

// getStringOrDefault returns string from config or default value
func getStringOrDefault(v *viper.Viper, key string, defaultValue string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return defaultValue
}

// getBoolOrDefault returns bool from config or default value
func getBoolOrDefault(v *viper.Viper, key string, defaultValue bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return defaultValue
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Evaluator builds an evaluator carrying the configured user and time zone.
func (c *Config) Evaluator(logger logrus.FieldLogger) (*eval.Evaluator, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return eval.New(
		eval.WithUser(c.User),
		eval.WithLocation(loc),
		eval.WithLogger(logger),
	), nil
}

// backend is a uniqueness backend plus the hooks the fill command needs.
type backend struct {
	validation.UniquenessBackend
	sql   *unique.SQLBackend
	close func() error
}

func (b *backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// Backend opens the configured uniqueness backend. It returns nil when none
// is configured.
func (c *Config) Backend(cmd *cobra.Command) (*backend, error) {
	switch {
	case c.Unique.HTTP.URL != "":
		opts := []unique.HTTPOption{}
		for key, value := range c.Unique.HTTP.Headers {
			opts = append(opts, unique.WithHeader(key, value))
		}
		if c.Unique.HTTP.Timeout > 0 {
			opts = append(opts, unique.WithHTTPClient(httpClient(c.Unique.HTTP.Timeout)))
		}
		b, err := unique.NewHTTPBackend(c.Unique.HTTP.URL, opts...)
		if err != nil {
			return nil, err
		}
		return &backend{UniquenessBackend: b}, nil

	case c.Unique.SQLite.Path != "":
		db, err := sql.Open("sqlite", c.Unique.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("config: open sqlite %s: %w", c.Unique.SQLite.Path, err)
		}
		db.SetMaxOpenConns(1)
		var opts []unique.SQLOption
		if c.Unique.SQLite.Table != "" {
			opts = append(opts, unique.WithTable(c.Unique.SQLite.Table))
		}
		b, err := unique.NewSQLBackend(db, opts...)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := b.EnsureSchema(cmd.Context()); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &backend{UniquenessBackend: b, sql: b, close: db.Close}, nil
	}
	return nil, nil
}

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
