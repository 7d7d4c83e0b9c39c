package pms

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/hostbridge/hostbridge/internal/instrumentation"
)

const (
	// maxAttempts is the total number of attempts per request: the initial
	// attempt plus up to 3 retries.
	maxAttempts = 4

	// initialRetryInterval is the delay before the first retry; subsequent
	// delays grow exponentially.
	initialRetryInterval = 500 * time.Millisecond

	// requestTimeout bounds each individual request, including retries of
	// the response body read.
	requestTimeout = 30 * time.Second
)

// Transport is the shared resilient HTTP layer for all upstream calls,
// resource and token requests alike. It maintains a keep-alive connection
// pool to the upstream host and retries transient failures: transport
// errors (no response at all), 429, and any 5xx. Other 4xx responses are
// permanent and propagate immediately as *APIError.
type Transport struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// NewTransport creates a Transport for the given resource API base URL.
func NewTransport(baseURL string, logger *slog.Logger) (*Transport, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, &APIError{Method: "CONFIG", Path: baseURL, Err: err}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Transport{
		baseURL: parsed,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// SetMetrics attaches a metrics recorder. Every attempt against the upstream
// is recorded with method, path, and status.
func (t *Transport) SetMetrics(m *instrumentation.Metrics) {
	t.metrics = m
}

// JSON issues a JSON request against the resource API. The path is resolved
// relative to the base URL; body, if non-nil, is sent as a JSON document.
// The bearer token, when non-empty, is attached as an Authorization header.
func (t *Transport) JSON(ctx context.Context, method, path string, query url.Values, body []byte, bearer string) ([]byte, error) {
	target := t.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if body != nil {
		header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		header.Set("Authorization", "Bearer "+bearer)
	}

	return t.do(ctx, method, path, target.String(), header, body)
}

// PostForm issues a form-encoded POST against an absolute URL. Used for the
// OAuth token endpoint, which is not part of the resource API but shares the
// same retry policy.
func (t *Transport) PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	return t.do(ctx, http.MethodPost, rawURL, rawURL, header, []byte(form.Encode()))
}

// do executes the request with the retry policy. A fresh *http.Request is
// built per attempt so the body can be replayed.
func (t *Transport) do(ctx context.Context, method, path, rawURL string, header http.Header, payload []byte) ([]byte, error) {
	attempt := 0

	operation := func() ([]byte, error) {
		attempt++

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
		if err != nil {
			return nil, backoff.Permanent(&APIError{Method: method, Path: path, Err: err})
		}
		for k, vs := range header {
			req.Header[k] = vs
		}

		start := time.Now()
		resp, err := t.httpClient.Do(req)
		if err != nil {
			// No response at all: retryable.
			t.record(ctx, method, path, 0, time.Since(start))
			return nil, &APIError{Method: method, Path: path, Err: err}
		}
		defer resp.Body.Close()

		respBody, readErr := io.ReadAll(resp.Body)
		t.record(ctx, method, path, resp.StatusCode, time.Since(start))
		if readErr != nil {
			return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Err: readErr}
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			t.logger.Warn("retryable upstream response",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt))
			return nil, &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: respBody}
		}
		if resp.StatusCode >= 400 {
			return nil, backoff.Permanent(&APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: respBody})
		}

		return respBody, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initialRetryInterval

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(maxAttempts))
}

func (t *Transport) record(ctx context.Context, method, path string, status int, duration time.Duration) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordUpstreamRequest(ctx, method, normalizePath(path), status, duration)
}

// normalizePath collapses resource ids to keep metric label cardinality low:
// "/reservations/abc123" becomes "/reservations/:id".
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i := 2; i < len(segments); i += 2 {
		if segments[i] != "" {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}
