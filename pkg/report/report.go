package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formexpr/pkg/validation"
)

//go:embed templates/*.tpl
var embedded embed.FS

// Format selects the template used to render a lint summary.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a user supplied name onto a Format.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("report: unknown format %q", raw)
	}
}

func (f Format) template() string {
	if f == FormatMarkdown {
		return "lint.md.tpl"
	}
	return "lint.txt.tpl"
}

// Entry pairs a lint report with the file it was read from.
type Entry struct {
	Source string
	Report validation.Report
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	templates fs.FS
	globals   map[string]any
}

// WithTemplates overrides the embedded templates. The filesystem must hold
// lint.txt.tpl and lint.md.tpl at its root.
func WithTemplates(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithGlobalData seeds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// Renderer executes the lint templates. Compiled templates are cached.
type Renderer struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

var registerFilters sync.Once

// New builds a Renderer over the embedded templates unless overridden.
func New(options ...Option) (*Renderer, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.templates == nil {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, fmt.Errorf("report: open embedded templates: %w", err)
		}
		cfg.templates = sub
	}

	set := pongo2.NewSet("formexpr-report", pongo2.NewFSLoader(cfg.templates))
	set.Options.TrimBlocks = true
	set.Options.LStripBlocks = true
	if len(cfg.globals) > 0 {
		set.Globals.Update(pongo2.Context(cfg.globals))
	}

	var err error
	registerFilters.Do(func() {
		if !pongo2.FilterExists("mdescape") {
			err = pongo2.RegisterFilter("mdescape", filterMarkdownEscape)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("report: register filters: %w", err)
	}

	return &Renderer{set: set, templates: make(map[string]*pongo2.Template)}, nil
}

// Render writes the summary of entries to out in the given format.
func (r *Renderer) Render(out io.Writer, format Format, entries []Entry) error {
	if r == nil || r.set == nil {
		return errors.New("report: renderer is nil")
	}
	tmpl, err := r.template(format.template())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(summarize(entries), &buf); err != nil {
		return fmt.Errorf("report: execute %s: %w", format.template(), err)
	}
	_, err = out.Write(buf.Bytes())
	return err
}

func (r *Renderer) template(name string) (*pongo2.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := r.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("report: load template %q: %w", name, err)
	}
	r.templates[name] = tmpl
	return tmpl, nil
}

type formView struct {
	FormID   string
	Source   string
	Errors   int
	Warnings int
	Issues   []issueView
}

type issueView struct {
	Severity string
	Location string
	Message  string
}

// summarize flattens entries into a template context. Errors sort before
// warnings within a form.
func summarize(entries []Entry) pongo2.Context {
	forms := make([]formView, 0, len(entries))
	var errorCount, warningCount int
	for _, entry := range entries {
		view := formView{FormID: entry.Report.FormID, Source: entry.Source}
		issues := append([]validation.Issue(nil), entry.Report.Issues...)
		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].Severity == validation.SeverityError && issues[j].Severity != validation.SeverityError
		})
		for _, issue := range issues {
			if issue.Severity == validation.SeverityError {
				view.Errors++
			} else {
				view.Warnings++
			}
			view.Issues = append(view.Issues, issueView{
				Severity: string(issue.Severity),
				Location: location(issue),
				Message:  issue.Message,
			})
		}
		errorCount += view.Errors
		warningCount += view.Warnings
		forms = append(forms, view)
	}
	return pongo2.Context{
		"forms":    forms,
		"total":    len(forms),
		"errors":   errorCount,
		"warnings": warningCount,
	}
}

func location(issue validation.Issue) string {
	switch {
	case issue.Path != "":
		return issue.Path
	case issue.Field != "":
		return issue.Field
	default:
		return "form"
	}
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`")

func filterMarkdownEscape(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(markdownEscaper.Replace(in.String())), nil
}
