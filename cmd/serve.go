package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/outlookctl/internal/instrumentation"
	"github.com/teemow/outlookctl/internal/logging"
	"github.com/teemow/outlookctl/internal/server"
	"github.com/teemow/outlookctl/internal/tools/calendar_tools"
	"github.com/teemow/outlookctl/internal/tools/mail_tools"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled starts the metrics and health server.
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd(o *rootOptions) *cobra.Command {
	var (
		yolo          bool
		metricsConfig MetricsConfig
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server over stdio.

The server exposes the mail and calendar operations as tools. Every tool
call opens its own session on the configured backend and closes it before
returning; calls are handled one at a time.

Tools that change the mailbox are only available with --yolo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics") && os.Getenv("METRICS_ENABLED") == "true" {
				metricsConfig.Enabled = true
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsConfig.Addr = addr
				}
			}
			return runServe(o, yolo, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (mark read, categories, move, delete). Default is read-only mode.")
	cmd.Flags().BoolVar(&metricsConfig.Enabled, "metrics", false, "Serve Prometheus metrics and health endpoints on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsConfig.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(o *rootOptions, yolo bool, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	backend, err := o.newBackend()
	if err != nil {
		return err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrConfig.Backend = backend.Name()
	instrConfig.ReadOnly = !yolo
	if metricsConfig.Enabled {
		instrConfig.Enabled = true
	}
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation config: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			o.logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	serverContext, err := server.NewServerContext(shutdownCtx, backend, o.sessionOptions(provider.Metrics()))
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	if provider.Enabled() {
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(o.logger, instrConfig.AuditLogging))
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			o.logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	if metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
			Health:                  server.NewHealthChecker(serverContext),
			Logger:                  o.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				o.logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				o.logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	mcpSrv := mcpserver.NewMCPServer("outlookctl", version,
		mcpserver.WithToolCapabilities(true),
	)

	// readOnly is the inverse of yolo
	readOnly := !yolo
	if readOnly {
		o.logger.Info("starting server in read-only mode (use --yolo to enable write operations)")
	} else {
		o.logger.Info("starting server with write operations enabled")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	o.logger.Info("serving MCP over stdio", slog.String("backend", backend.Name()))
	return runStdioServer(shutdownCtx, mcpSrv)
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Mail",
			register: func() error {
				return mail_tools.RegisterMailTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, ctx, readOnly)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}
