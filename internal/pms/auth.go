package pms

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hostbridge/hostbridge/internal/instrumentation"
	"github.com/hostbridge/hostbridge/internal/logging"
)

// maxExpiryBufferMs caps the early-expiry buffer at 5 minutes.
const maxExpiryBufferMs = 300_000

// Credentials holds the OAuth client-credentials configuration.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Scope        string
}

// TokenManager owns the OAuth access token for the upstream platform:
// acquisition, caching, expiry tracking, and single-flight refresh
// coordination. Consumers only see AccessToken.
type TokenManager struct {
	creds     Credentials
	tokenURL  string
	transport *Transport
	logger    *slog.Logger
	metrics   *instrumentation.Metrics

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// NewTokenManager creates a TokenManager that requests tokens from tokenURL
// through the given transport.
func NewTokenManager(tokenURL string, creds Credentials, transport *Transport, logger *slog.Logger) *TokenManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenManager{
		creds:     creds,
		tokenURL:  tokenURL,
		transport: transport,
		logger:    logger,
	}
}

// SetMetrics attaches a metrics recorder for token refresh outcomes.
func (m *TokenManager) SetMetrics(metrics *instrumentation.Metrics) {
	m.metrics = metrics
}

// AccessToken returns a valid access token, refreshing it if necessary.
//
// A cached token still inside its validity window is returned without any
// network call. Otherwise callers join a single in-flight refresh: N
// concurrent callers during an expiry window produce exactly one upstream
// token request and all observe the same outcome, success or failure. The
// in-flight marker clears once the shared refresh settles, so a failure is
// not sticky and the next call attempts a fresh refresh.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	if token, ok := m.cached(); ok {
		return token, nil
	}

	v, err, _ := m.group.Do("access_token", func() (interface{}, error) {
		// A refresh that completed while this caller was waiting for the
		// singleflight slot already repopulated the cache.
		if token, ok := m.cached(); ok {
			return token, nil
		}
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// cached returns the current token if it is still within its validity window.
func (m *TokenManager) cached() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != "" && time.Now().Before(m.expiresAt) {
		return m.token, true
	}
	return "", false
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// refresh issues a client-credentials grant and caches the result.
func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"scope":         {m.creds.Scope},
		"client_id":     {m.creds.ClientID},
		"client_secret": {m.creds.ClientSecret},
	}

	body, err := m.transport.PostForm(ctx, m.tokenURL, form)
	if err != nil {
		m.recordRefresh(ctx, logging.StatusError)
		m.logger.Error("token refresh failed", logging.Err(err))
		return "", err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		m.recordRefresh(ctx, logging.StatusError)
		return "", &APIError{Method: "POST", Path: m.tokenURL, Err: err}
	}
	if resp.AccessToken == "" {
		m.recordRefresh(ctx, logging.StatusError)
		return "", &APIError{Method: "POST", Path: m.tokenURL, Body: body, Err: errMissingAccessToken}
	}

	now := time.Now()
	expiresAt := tokenExpiry(now, resp.ExpiresIn)

	m.mu.Lock()
	m.token = resp.AccessToken
	m.expiresAt = expiresAt
	m.mu.Unlock()

	m.recordRefresh(ctx, logging.StatusSuccess)
	m.logger.Debug("access token refreshed",
		slog.String("token", logging.SanitizeToken(resp.AccessToken)),
		slog.Time("expires_at", expiresAt))

	return resp.AccessToken, nil
}

func (m *TokenManager) recordRefresh(ctx context.Context, status string) {
	if m.metrics != nil {
		m.metrics.RecordTokenRefresh(ctx, status)
	}
}

// tokenExpiry computes when a token issued now with the given lifetime (in
// seconds) should be considered expired. The validity window is shortened by
// 10% of the lifetime, capped at 5 minutes, so a token is never presented
// when it could expire mid-request.
func tokenExpiry(now time.Time, expiresIn int64) time.Time {
	bufferMs := min(int64(maxExpiryBufferMs), expiresIn*100)
	return now.Add(time.Duration(expiresIn)*time.Second - time.Duration(bufferMs)*time.Millisecond)
}
