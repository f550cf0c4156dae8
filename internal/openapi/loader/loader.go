package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	pkgopenapi "github.com/goliatone/go-formexpr/pkg/openapi"
)

// maxDocumentSize bounds every document regardless of where it comes from.
const maxDocumentSize = 8 << 20

var (
	// ErrNoSource is returned for a nil Source.
	ErrNoSource = errors.New("openapi loader: no source")
	// ErrRemoteDisabled is returned for URL sources when no HTTP client was
	// configured.
	ErrRemoteDisabled = errors.New("openapi loader: remote documents disabled")
	// ErrUnsupportedSource is returned for source kinds the loader has no
	// fetcher for.
	ErrUnsupportedSource = errors.New("openapi loader: unsupported source")
	// ErrDocumentTooLarge is returned when a document exceeds maxDocumentSize.
	ErrDocumentTooLarge = errors.New("openapi loader: document too large")
)

// fetcher opens the payload behind one source location.
type fetcher func(ctx context.Context, location string) (io.ReadCloser, error)

// Loader reads API documents that carry form definitions. Each source kind
// maps to a fetcher; URL sources only get one when HTTP was enabled.
type Loader struct {
	fetchers map[pkgopenapi.SourceKind]fetcher
}

var _ pkgopenapi.Loader = (*Loader)(nil)

// New constructs a Loader from resolved options.
func New(options pkgopenapi.LoaderOptions) *Loader {
	l := &Loader{fetchers: map[pkgopenapi.SourceKind]fetcher{
		pkgopenapi.SourceKindFile: openFile,
	}}
	if options.FileSystem != nil {
		l.fetchers[pkgopenapi.SourceKindFS] = openFS(options.FileSystem)
	}
	if client := remoteClient(options); client != nil {
		l.fetchers[pkgopenapi.SourceKindURL] = openURL(client, options.RequestTimeout)
	}
	return l
}

func remoteClient(options pkgopenapi.LoaderOptions) *http.Client {
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if clone.Timeout == 0 {
			clone.Timeout = options.RequestTimeout
		}
		return &clone
	case options.AllowHTTPFallback:
		return &http.Client{Timeout: options.RequestTimeout}
	}
	return nil
}

// Load reads the document behind src.
func (l *Loader) Load(ctx context.Context, src pkgopenapi.Source) (pkgopenapi.Document, error) {
	if src == nil {
		return pkgopenapi.Document{}, ErrNoSource
	}
	open, ok := l.fetchers[src.Kind()]
	if !ok {
		if src.Kind() == pkgopenapi.SourceKindURL {
			return pkgopenapi.Document{}, fmt.Errorf("%w: %s", ErrRemoteDisabled, src.Location())
		}
		return pkgopenapi.Document{}, fmt.Errorf("%w: %s %s", ErrUnsupportedSource, src.Kind(), src.Location())
	}
	if src.Location() == "" {
		return pkgopenapi.Document{}, fmt.Errorf("openapi loader: %s source has no location", src.Kind())
	}
	if err := ctx.Err(); err != nil {
		return pkgopenapi.Document{}, err
	}

	body, err := open(ctx, src.Location())
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("openapi loader: open %s: %w", src.Location(), err)
	}
	defer func() {
		_ = body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(body, maxDocumentSize+1))
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("openapi loader: read %s: %w", src.Location(), err)
	}
	if len(data) > maxDocumentSize {
		return pkgopenapi.Document{}, fmt.Errorf("%w: %s", ErrDocumentTooLarge, src.Location())
	}
	return pkgopenapi.NewDocument(src, data)
}

func openFile(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func openFS(files fs.FS) fetcher {
	return func(_ context.Context, name string) (io.ReadCloser, error) {
		return files.Open(name)
	}
}

// openURL fetches a document from a workflow or gateway service. The
// request context is bounded by timeout when set.
func openURL(client *http.Client, timeout time.Duration) fetcher {
	return func(ctx context.Context, url string) (io.ReadCloser, error) {
		cancel := context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			cancel()
			return nil, err
		}
		req.Header.Set("Accept", "application/yaml, application/json;q=0.9, */*;q=0.5")

		resp, err := client.Do(req)
		if err != nil {
			cancel()
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
	}
}

// cancelOnClose releases the request deadline once the body is drained.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
