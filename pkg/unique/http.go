package unique

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// ErrBackendUnavailable reports an open circuit breaker.
var ErrBackendUnavailable = errors.New("unique: backend unavailable")

// HTTPOption customises an HTTPBackend.
type HTTPOption func(*HTTPBackend)

// WithHTTPClient swaps the client used for lookups.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(b *HTTPBackend) {
		if client != nil {
			b.client = client
		}
	}
}

// WithHeader adds a header to every lookup, typically Authorization.
func WithHeader(key, value string) HTTPOption {
	return func(b *HTTPBackend) {
		b.headers.Set(key, value)
	}
}

// WithBreakerSettings replaces the circuit breaker configuration.
func WithBreakerSettings(settings gobreaker.Settings) HTTPOption {
	return func(b *HTTPBackend) {
		b.settings = settings
	}
}

// HTTPBackend asks the workflow service whether a value is already used:
//
//	GET {base}/api/workflows/{formId}/fields/{field}/unique?value=..&excludeInstanceId=..
//
// The service answers `{"unique": true|false}`. Lookups go through a circuit
// breaker so a failing service is not hammered on every keystroke.
type HTTPBackend struct {
	base     string
	client   *http.Client
	headers  http.Header
	settings gobreaker.Settings
	breaker  *gobreaker.CircuitBreaker
}

type uniqueResponse struct {
	Unique *bool `json:"unique"`
}

// NewHTTPBackend builds a backend rooted at base.
func NewHTTPBackend(base string, opts ...HTTPOption) (*HTTPBackend, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, errors.New("unique: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("unique: parse base url: %w", err)
	}

	b := &HTTPBackend{
		base:    base,
		client:  &http.Client{Timeout: 10 * time.Second},
		headers: make(http.Header),
		settings: gobreaker.Settings{
			Name:        "unique:" + base,
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.breaker = gobreaker.NewCircuitBreaker(b.settings)
	return b, nil
}

// State exposes the breaker state for diagnostics.
func (b *HTTPBackend) State() string {
	return b.breaker.State().String()
}

// CheckUnique implements validation.UniquenessBackend.
func (b *HTTPBackend) CheckUnique(ctx context.Context, formID, field, value, excludeInstanceID string) (bool, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.lookup(ctx, formID, field, value, excludeInstanceID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		return false, err
	}
	return out.(bool), nil
}

func (b *HTTPBackend) lookup(ctx context.Context, formID, field, value, excludeInstanceID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/workflows/%s/fields/%s/unique",
		b.base, url.PathEscape(formID), url.PathEscape(field))
	query := url.Values{"value": {value}}
	if excludeInstanceID != "" {
		query.Set("excludeInstanceId", excludeInstanceID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("unique: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range b.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("unique: request %s: %w", field, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("unique: %s returned %d: %s", field, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload uniqueResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("unique: decode response: %w", err)
	}
	if payload.Unique == nil {
		return false, errors.New("unique: response is missing the unique flag")
	}
	return *payload.Unique, nil
}
