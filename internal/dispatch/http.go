package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hostbridge/hostbridge/internal/instrumentation"
	"github.com/hostbridge/hostbridge/internal/logging"
	"github.com/hostbridge/hostbridge/internal/server"
)

const (
	// DefaultHTTPAddr is the default address for the envelope endpoint.
	DefaultHTTPAddr = ":8080"

	// maxEnvelopeBytes bounds inbound request bodies.
	maxEnvelopeBytes = 1 << 20

	httpReadHeaderTimeout = 10 * time.Second
	httpWriteTimeout      = 60 * time.Second
	httpIdleTimeout       = 120 * time.Second
)

// HTTPServerConfig holds configuration for the envelope HTTP server.
type HTTPServerConfig struct {
	// Addr is the address to bind to (e.g., ":8080").
	Addr string

	// Dispatcher handles decoded envelopes.
	Dispatcher *Dispatcher

	// AllowedOrigins is the CORS allow-list. Empty disables CORS.
	AllowedOrigins []string

	// HealthChecker registers /healthz and /readyz when set.
	HealthChecker *server.HealthChecker

	// Metrics records inbound request metrics when set.
	Metrics *instrumentation.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// HTTPServer exposes the envelope endpoint at POST /mcp alongside the
// health probes.
type HTTPServer struct {
	httpServer *http.Server
	addr       string
	logger     *slog.Logger
}

// NewHTTPServer creates the envelope HTTP server.
func NewHTTPServer(config HTTPServerConfig) (*HTTPServer, error) {
	if config.Dispatcher == nil {
		return nil, fmt.Errorf("a dispatcher is required for the HTTP server")
	}
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", envelopeHandler(config.Dispatcher, config.Metrics, logger))
	if config.HealthChecker != nil {
		config.HealthChecker.RegisterHealthEndpoints(mux)
	}

	var handler http.Handler = mux
	if len(config.AllowedOrigins) > 0 {
		handler = server.CORSMiddleware(config.AllowedOrigins)(handler)
	}

	return &HTTPServer{
		addr:   config.Addr,
		logger: logger,
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           handler,
			ReadHeaderTimeout: httpReadHeaderTimeout,
			WriteTimeout:      httpWriteTimeout,
			IdleTimeout:       httpIdleTimeout,
		},
	}, nil
}

// StartWithReadySignal starts the server and closes ready once the listener
// is bound. Blocks until the server stops.
func (s *HTTPServer) StartWithReadySignal(ready chan<- struct{}) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("http server listen on %s: %w", s.addr, err)
	}

	s.logger.Info("starting http server", "addr", s.addr)
	close(ready)
	return s.httpServer.Serve(listener)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured address.
func (s *HTTPServer) Addr() string {
	return s.addr
}

// envelopeHandler decodes one envelope per POST request and writes the
// dispatcher's response with the HTTP status the dispatcher chose.
func envelopeHandler(d *Dispatcher, metrics *instrumentation.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		reqLogger := logger.With(logging.RequestID(requestID))

		status := http.StatusOK
		defer func() {
			if metrics != nil {
				metrics.RecordHTTPRequest(r.Context(), r.Method, "/mcp", status, time.Since(start))
			}
		}()

		if r.Method != http.MethodPost {
			status = http.StatusMethodNotAllowed
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", status)
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxEnvelopeBytes))
		if err != nil {
			status = http.StatusBadRequest
			reqLogger.Warn("failed to read request body", logging.Err(err))
			http.Error(w, "failed to read request body", status)
			return
		}

		var response any
		status, response = d.Handle(r.Context(), payload)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", requestID)
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			reqLogger.Warn("failed to encode response", logging.Err(err))
		}

		reqLogger.Debug("handled envelope",
			slog.Int("http_status", status),
			slog.Duration(logging.KeyDuration, time.Since(start)))
	})
}
