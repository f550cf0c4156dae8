package loader

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	pkgopenapi "github.com/goliatone/go-formexpr/pkg/openapi"
)

const payload = `{"openapi": "3.0.0"}`

func TestLoaderSources(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "claims.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	l := New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithFileSystem(fstest.MapFS{"forms/claims.json": {Data: []byte(payload)}}),
		pkgopenapi.WithHTTPFallback(0),
	))

	remote, err := pkgopenapi.SourceFromURL(srv.URL + "/claims.json")
	if err != nil {
		t.Fatalf("SourceFromURL returned error: %v", err)
	}
	for _, src := range []pkgopenapi.Source{
		pkgopenapi.SourceFromFile(path),
		pkgopenapi.SourceFromFS("forms/claims.json"),
		remote,
	} {
		doc, err := l.Load(ctx, src)
		if err != nil {
			t.Fatalf("%s: Load returned error: %v", src.Kind(), err)
		}
		if string(doc.Raw()) != payload || doc.Location() != src.Location() {
			t.Fatalf("%s: unexpected document %q from %s", src.Kind(), doc.Raw(), doc.Location())
		}
	}

	missing, _ := pkgopenapi.SourceFromURL(srv.URL + "/missing")
	if _, err := l.Load(ctx, missing); err == nil {
		t.Fatalf("expected error for 404 response")
	}
	if _, err := l.Load(ctx, pkgopenapi.SourceFromFile(filepath.Join(dir, "absent.json"))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoaderOfflineByDefault(t *testing.T) {
	t.Parallel()

	l := New(pkgopenapi.NewLoaderOptions())
	src, err := pkgopenapi.SourceFromURL("https://example.com/claims.json")
	if err != nil {
		t.Fatalf("SourceFromURL returned error: %v", err)
	}
	if _, err := l.Load(context.Background(), src); !errors.Is(err, ErrRemoteDisabled) {
		t.Fatalf("expected ErrRemoteDisabled, got %v", err)
	}
	if _, err := l.Load(context.Background(), pkgopenapi.SourceFromFS("claims.json")); !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("expected ErrUnsupportedSource without a filesystem, got %v", err)
	}
	if _, err := l.Load(context.Background(), nil); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestLoaderRejectsOversizedDocuments(t *testing.T) {
	t.Parallel()

	big := bytes.Repeat([]byte(" "), maxDocumentSize+1)
	l := New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithFileSystem(fstest.MapFS{"big.yaml": {Data: big}}),
	))
	if _, err := l.Load(context.Background(), pkgopenapi.SourceFromFS("big.yaml")); !errors.Is(err, ErrDocumentTooLarge) {
		t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
	}
}

func TestLoaderHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithFileSystem(fstest.MapFS{"claims.json": {Data: []byte(payload)}}),
	))
	if _, err := l.Load(ctx, pkgopenapi.SourceFromFS("claims.json")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
