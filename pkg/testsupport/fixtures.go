package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formexpr/pkg/definition"
	"github.com/goliatone/go-formexpr/pkg/model"
	pkgopenapi "github.com/goliatone/go-formexpr/pkg/openapi"
)

// FixedNow is the instant shared by clock-dependent fixtures.
var FixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

// FixedClock returns a clock frozen at now.
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// LoadDocument reads a fixture and builds an openapi.Document using a file
// source.
func LoadDocument(t *testing.T, path string) pkgopenapi.Document {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath returns a Document without requiring testing.T.
func LoadDocumentFromPath(path string) (pkgopenapi.Document, error) {
	if path == "" {
		return pkgopenapi.Document{}, errors.New("testsupport: document path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("testsupport: read document: %w", err)
	}
	doc, err := pkgopenapi.NewDocument(pkgopenapi.SourceFromFile(path), data)
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	return doc, nil
}

// MustLoadForm parses a single-form definition file.
func MustLoadForm(t *testing.T, path string) model.Form {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	forms, err := definition.Parse(data, path)
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if len(forms) != 1 {
		t.Fatalf("%s: expected one form, got %d", path, len(forms))
	}
	return forms[0].Normalize()
}

// Backend is an in-memory uniqueness backend. Values listed as taken are
// reported as duplicates; Gate holds every lookup until Release.
type Backend struct {
	mu    sync.Mutex
	taken map[string]bool
	err   error
	gate  chan struct{}
	calls int
}

// NewBackend reports the given values as already used.
func NewBackend(taken ...string) *Backend {
	b := &Backend{taken: make(map[string]bool, len(taken))}
	for _, value := range taken {
		b.taken[value] = true
	}
	return b
}

// Gate blocks lookups until Release is called.
func (b *Backend) Gate() *Backend {
	b.gate = make(chan struct{})
	return b
}

// Fail makes every lookup return err.
func (b *Backend) Fail(err error) *Backend {
	b.err = err
	return b
}

// Release unblocks gated lookups.
func (b *Backend) Release() {
	if b.gate != nil {
		close(b.gate)
	}
}

// Calls reports how many lookups completed.
func (b *Backend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// CheckUnique implements validation.UniquenessBackend.
func (b *Backend) CheckUnique(ctx context.Context, _, _, value, _ string) (bool, error) {
	if b.gate != nil {
		select {
		case <-b.gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return false, b.err
	}
	return !b.taken[value], nil
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
