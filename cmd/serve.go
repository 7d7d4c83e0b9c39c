package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hostbridge/hostbridge/configs"
	"github.com/hostbridge/hostbridge/internal/config"
	"github.com/hostbridge/hostbridge/internal/dispatch"
	"github.com/hostbridge/hostbridge/internal/instrumentation"
	"github.com/hostbridge/hostbridge/internal/pms"
	"github.com/hostbridge/hostbridge/internal/server"
	"github.com/hostbridge/hostbridge/internal/tools/message_tools"
	"github.com/hostbridge/hostbridge/internal/tools/property_tools"
	"github.com/hostbridge/hostbridge/internal/tools/reservation_tools"
)

const serverStartupTimeout = 5 * time.Second

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		transport      string
		httpAddr       string
		yolo           bool
		clientID       string
		clientSecret   string
		scope          string
		apiURL         string
		tokenURL       string
		allowedOrigins []string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP gateway",
		Long: `Start the Model Context Protocol (MCP) gateway exposing property-management
tools (listings, reservations, guest messaging) for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: HTTP transport serving the envelope endpoint at POST /mcp

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (reservation creation, guest messaging).

Upstream Configuration:
  OAuth client credentials are required:
    --client-id and --client-secret flags
    OR PMS_CLIENT_ID and PMS_CLIENT_SECRET env vars
  The API base URL and token endpoint default to the hosted platform and can
  be overridden with --api-url/--token-url or PMS_API_URL/PMS_TOKEN_URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// Flags take precedence over environment variables.
			if clientID != "" {
				cfg.ClientID = clientID
			}
			if clientSecret != "" {
				cfg.ClientSecret = clientSecret
			}
			if scope != "" {
				cfg.Scope = scope
			}
			if apiURL != "" {
				cfg.APIURL = apiURL
			}
			if tokenURL != "" {
				cfg.TokenURL = tokenURL
			}
			if cmd.Flags().Changed("http-addr") {
				cfg.HTTPAddr = httpAddr
			}
			if len(allowedOrigins) > 0 {
				cfg.AllowedOrigins = allowedOrigins
			}

			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}
			if !cmd.Flags().Changed("metrics-addr") && cfg.MetricsAddr != "" {
				metricsConfig.Addr = cfg.MetricsAddr
			}

			return runServe(transport, debugMode, yolo, cfg, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport). Can also use HOSTBRIDGE_HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (reservation creation, guest messaging). Default is read-only mode.")
	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth client ID for the property-management platform. Can also use PMS_CLIENT_ID env var.")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth client secret for the property-management platform. Can also use PMS_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&scope, "scope", "", "OAuth scope requested with the client-credentials grant. Can also use PMS_SCOPE env var.")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Base URL of the upstream property-management API. Can also use PMS_API_URL env var.")
	cmd.Flags().StringVar(&tokenURL, "token-url", "", "OAuth token endpoint of the upstream platform. Can also use PMS_TOKEN_URL env var.")
	cmd.Flags().StringSliceVar(&allowedOrigins, "allowed-origins", nil, "Origins permitted by the CORS middleware (comma-separated). Can also use HOSTBRIDGE_ALLOWED_ORIGINS env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use HOSTBRIDGE_METRICS_ADDR env var.")

	return cmd
}

func runServe(transport string, debugMode, yolo bool, cfg config.Config, metricsConfig MetricsConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(debugMode)
	slog.SetDefault(logger)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil && transport != "stdio" {
			logger.Error("error during instrumentation shutdown", "error", err)
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm the metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			logger.Info("metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(serverStartupTimeout):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	// Wire the upstream client: resilient transport, token manager, REST client
	upstream, err := pms.NewTransport(cfg.APIURL, logger)
	if err != nil {
		return fmt.Errorf("failed to create upstream transport: %w", err)
	}
	tokenManager := pms.NewTokenManager(cfg.TokenURL, pms.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scope:        cfg.Scope,
	}, upstream, logger)
	client := pms.NewClient(upstream, tokenManager, logger)

	serverContext := server.NewServerContext(shutdownCtx, client)
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		upstream.SetMetrics(provider.Metrics())
		tokenManager.SetMetrics(provider.Metrics())
	}
	defer func() {
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("error during metrics server shutdown", "error", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil && transport != "stdio" {
			logger.Error("error during server context shutdown", "error", err)
		}
	}()

	// readOnly is the inverse of yolo
	readOnly := !yolo
	if transport != "stdio" {
		if readOnly {
			logger.Info("starting server in READ-ONLY mode (use --yolo to enable write operations)")
		} else {
			logger.Info("starting server with WRITE operations enabled (--yolo flag is set)")
		}
	}

	// Create MCP server and register all tools
	mcpSrv := mcpserver.NewMCPServer("hostbridge", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runHTTPServer(shutdownCtx, cfg, serverContext, client, readOnly, provider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// runHTTPServer serves the envelope endpoint at POST /mcp together with the
// health probes, and blocks until shutdown.
func runHTTPServer(ctx context.Context, cfg config.Config, sc *server.ServerContext, client *pms.Client, readOnly bool, provider *instrumentation.Provider, logger *slog.Logger) error {
	dispatcher := dispatch.New(client, json.RawMessage(configs.Manifest), readOnly, logger)
	if provider.Enabled() {
		dispatcher.SetMetrics(provider.Metrics())
	}

	healthChecker := server.NewHealthChecker(sc)

	httpServer, err := dispatch.NewHTTPServer(dispatch.HTTPServerConfig{
		Addr:           cfg.HTTPAddr,
		Dispatcher:     dispatcher,
		AllowedOrigins: cfg.AllowedOrigins,
		HealthChecker:  healthChecker,
		Metrics:        provider.Metrics(),
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	httpReady := make(chan struct{})
	httpErr := make(chan error, 1)
	go func() {
		if err := httpServer.StartWithReadySignal(httpReady); err != nil && err != http.ErrServerClosed {
			httpErr <- err
		}
		close(httpErr)
	}()

	select {
	case <-httpReady:
		logger.Info("http server started", "addr", httpServer.Addr())
	case err := <-httpErr:
		return fmt.Errorf("http server failed to start: %w", err)
	case <-time.After(serverStartupTimeout):
		return fmt.Errorf("http server startup timed out")
	}

	<-ctx.Done()
	healthChecker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during http server shutdown: %w", err)
	}
	return <-httpErr
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Properties",
			register: func() error {
				return property_tools.RegisterPropertyTools(mcpSrv, ctx)
			},
		},
		{
			name: "Reservations",
			register: func() error {
				return reservation_tools.RegisterReservationTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Messages",
			register: func() error {
				return message_tools.RegisterMessageTools(mcpSrv, ctx, readOnly)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

// newLogger builds the process logger. Logs always go to stderr so the stdio
// transport keeps stdout clean for the MCP protocol.
func newLogger(debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
