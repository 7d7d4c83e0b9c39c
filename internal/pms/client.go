package pms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hostbridge/hostbridge/internal/logging"
)

const (
	// defaultPageSize is the page size used by ListAll when the caller does
	// not specify a limit.
	defaultPageSize = 100

	// maxPages bounds pagination defensively. The stopping rule alone would
	// let a misbehaving upstream that never returns a short page grow memory
	// without bound.
	maxPages = 1000
)

// Client provides verb-oriented access to the upstream resource API. Every
// call obtains a fresh access token from the TokenManager and attaches it as
// a bearer credential before delegating to the Transport.
//
// Upstream errors are logged with method and path context and returned
// unchanged; classification into user-facing error kinds happens in the tool
// adapters.
type Client struct {
	transport *Transport
	auth      *TokenManager
	logger    *slog.Logger
}

// NewClient creates a resource client on top of the given transport and
// token manager.
func NewClient(transport *Transport, auth *TokenManager, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		transport: transport,
		auth:      auth,
		logger:    logger,
	}
}

// Get fetches a resource. The decoded JSON body is returned as-is.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (any, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post creates a resource with the given JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (any, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Put replaces a resource with the given JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (any, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, path string) (any, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (any, error) {
	token, err := c.auth.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire access token: %w", err)
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
	}

	raw, err := c.transport.JSON(ctx, method, path, query, payload, token)
	if err != nil {
		c.logger.Error("upstream request failed",
			logging.Method(method),
			logging.Path(path),
			logging.Err(err))
		return nil, err
	}

	if len(raw) == 0 {
		return nil, nil
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &APIError{Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return parsed, nil
}

// ListAll walks a paged collection to exhaustion and returns the
// concatenated items in upstream order.
//
// It repeatedly issues Get with an increasing skip (starting from the
// query's skip, or 0) and a fixed limit (the query's limit, or 100). Each
// page contributes the body's "results" array when present, otherwise the
// whole body. Pagination stops as soon as a page holds fewer items than the
// requested limit: a short page is the end-of-data signal. An upstream whose
// true final page holds exactly limit items therefore costs one extra short
// request; that behavior is load-bearing for compatibility and must not be
// "fixed" here.
func (c *Client) ListAll(ctx context.Context, path string, query url.Values) ([]any, error) {
	skip := 0
	if v := query.Get("skip"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("invalid skip value %q", v)
		}
		skip = parsed
	}
	limit := defaultPageSize
	if v := query.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid limit value %q", v)
		}
		limit = parsed
	}

	items := []any{}
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		q.Set("skip", strconv.Itoa(skip))
		q.Set("limit", strconv.Itoa(limit))

		body, err := c.Get(ctx, path, q)
		if err != nil {
			return nil, err
		}

		pageItems := extractItems(body)
		items = append(items, pageItems...)
		if len(pageItems) < limit {
			return items, nil
		}
		skip += limit
	}

	return nil, &APIError{Method: http.MethodGet, Path: path,
		Err: fmt.Errorf("pagination aborted after %d pages", maxPages)}
}

// extractItems pulls the item list out of a page body: the "results" field
// when the body is an object carrying one, the body itself when it already
// is an array, and a single-element list otherwise.
func extractItems(body any) []any {
	switch v := body.(type) {
	case map[string]any:
		if results, ok := v["results"].([]any); ok {
			return results
		}
		return []any{v}
	case []any:
		return v
	case nil:
		return nil
	default:
		return []any{v}
	}
}
