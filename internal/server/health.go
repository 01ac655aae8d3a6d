package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Health status constants for health check responses.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker serves liveness and readiness probes.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a new HealthChecker. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

func (h *HealthChecker) isServerShuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse adds uptime and session counters.
type DetailedHealthResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	Backend        string `json:"backend,omitempty"`
	SessionsOpened int64  `json:"sessionsOpened"`
	SessionsFailed int64  `json:"sessionsFailed"`
}

// status returns the overall status and the individual checks.
func (h *HealthChecker) status() (string, map[string]string) {
	checks := map[string]string{
		"ready":    healthStatusOK,
		"shutdown": healthStatusOK,
	}
	status := healthStatusOK
	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		status = healthStatusNotReady
	}
	if h.isServerShuttingDown() {
		checks["shutdown"] = healthStatusShuttingDown
		if status == healthStatusOK {
			status = healthStatusShuttingDown
		}
	}
	if h.serverContext != nil {
		checks["backend"] = h.serverContext.Backend().Name()
	}
	return status, checks
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// LivenessHandler returns the /healthz handler. It succeeds while the
// process is running.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler returns the /readyz handler.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, checks := h.status()
		code := http.StatusOK
		if status != healthStatusOK {
			status = healthStatusNotReady
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, HealthResponse{Status: status, Checks: checks})
	})
}

// DetailedHealthHandler returns the /healthz/detailed handler.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, _ := h.status()
		resp := DetailedHealthResponse{
			Status: status,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if h.serverContext != nil {
			resp.Backend = h.serverContext.Backend().Name()
			resp.SessionsOpened, resp.SessionsFailed = h.serverContext.SessionStats()
		}
		code := http.StatusOK
		if status != healthStatusOK {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
