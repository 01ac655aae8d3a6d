// Package server provides the MCP server context and the metrics and
// health HTTP endpoints for outlookctl.
//
// # Key Components
//
// ServerContext opens a mailbox session for each tool call and closes it
// when the call returns. Calls are serialized: the automation store is
// single threaded and owns every handle a session acquires.
//
// MetricsServer exposes Prometheus metrics on a dedicated port together
// with a /healthz probe. HealthChecker provides liveness and readiness
// handlers that report the shutdown state of the ServerContext.
package server
