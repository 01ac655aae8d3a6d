package outlook

import (
	"context"
	"log/slog"

	"github.com/teemow/outlookctl/internal/instrumentation"
	"github.com/teemow/outlookctl/internal/logging"
)

// Registry tracks acquired handles and releases them in reverse
// acquisition order. A Registry is owned by one session and is not
// safe for concurrent use.
type Registry struct {
	ctx     context.Context
	handles []Handle
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewRegistry creates an empty registry. logger and metrics may be nil.
func NewRegistry(ctx context.Context, logger *slog.Logger, metrics *instrumentation.Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		ctx:     ctx,
		logger:  logger,
		metrics: metrics,
	}
}

// Track appends h to the registry and returns it unchanged.
func Track[H Handle](r *Registry, h H) H {
	r.add(h)
	return h
}

func (r *Registry) add(h Handle) {
	if h == nil {
		return
	}
	r.handles = append(r.handles, h)
	r.metrics.RecordHandleAcquired(r.ctx)
}

// Len returns the number of handles currently tracked.
func (r *Registry) Len() int {
	return len(r.handles)
}

// ReleaseAll releases every tracked handle, newest first, and empties
// the registry. Release failures are logged and swallowed. It returns
// the number of handles it attempted to release, so a second call
// returns zero.
func (r *Registry) ReleaseAll() int {
	n := len(r.handles)
	for i := n - 1; i >= 0; i-- {
		r.release(r.handles[i])
		r.handles[i] = nil
	}
	r.handles = r.handles[:0]
	return n
}

func (r *Registry) release(h Handle) {
	err := h.Release()
	r.metrics.RecordHandleReleased(r.ctx, err == nil)
	if err != nil {
		r.logger.Debug("handle release failed", logging.Err(err))
	}
}

// Borrow records h as acquired without tracking it. The caller owns h
// and must give it back with releaseNow.
func Borrow[H Handle](r *Registry, h H) H {
	r.metrics.RecordHandleAcquired(r.ctx)
	return h
}

// adopt tracks a borrowed handle without counting it again.
func (r *Registry) adopt(h Handle) {
	if h == nil {
		return
	}
	r.handles = append(r.handles, h)
}

// releaseNow releases a borrowed handle immediately, swallowing errors.
// It is used for handles whose lifetime ends inside a traversal step.
func (r *Registry) releaseNow(h Handle) {
	if h == nil {
		return
	}
	r.release(h)
}
