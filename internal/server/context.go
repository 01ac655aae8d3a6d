package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teemow/outlookctl/internal/instrumentation"
	"github.com/teemow/outlookctl/internal/logging"
	"github.com/teemow/outlookctl/internal/outlook"
)

// ErrShuttingDown is returned for calls made after Shutdown.
var ErrShuttingDown = errors.New("server is shutting down")

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	backend outlook.Backend
	opts    outlook.Options
	audit   *instrumentation.AuditLogger

	// calls serializes sessions; the store is not safe for concurrent use.
	calls sync.Mutex

	sessions atomic.Int64
	failures atomic.Int64

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context opening sessions on backend.
func NewServerContext(ctx context.Context, backend outlook.Backend, opts outlook.Options) (*ServerContext, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		backend: backend,
		opts:    opts,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Backend returns the backend sessions are opened on.
func (sc *ServerContext) Backend() outlook.Backend {
	return sc.backend
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.opts.Logger
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.opts.Metrics
}

// SetAuditLogger sets the audit logger used for tool invocations.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.audit = al
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.audit
}

// WithSession opens a session, runs fn with it and closes it. Calls
// are serialized so that one session exists at a time, and a session
// is opened, used and closed on the calling goroutine.
func (sc *ServerContext) WithSession(ctx context.Context, fn func(*outlook.Session) error) error {
	if sc.IsShutdown() {
		return ErrShuttingDown
	}

	sc.calls.Lock()
	defer sc.calls.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	session, err := outlook.Open(ctx, sc.backend, sc.opts)
	if err != nil {
		sc.failures.Add(1)
		return err
	}
	sc.sessions.Add(1)

	// A failed close can mean lost changes; it fails an otherwise
	// successful call.
	err = fn(session)
	if cerr := session.Close(); cerr != nil {
		if err == nil {
			return cerr
		}
		sc.opts.Logger.Warn("failed to close session", logging.Err(cerr))
	}
	return err
}

// SessionStats returns the number of sessions opened and the number of
// failed attempts to open one.
func (sc *ServerContext) SessionStats() (opened, failed int64) {
	return sc.sessions.Load(), sc.failures.Load()
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
