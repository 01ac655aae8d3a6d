// Package instrumentation provides OpenTelemetry instrumentation for outlookctl.
//
// This package enables comprehensive observability through:
//   - OpenTelemetry metrics for mailbox operations, handle lifecycle and MCP tools
//   - Distributed tracing for mailbox operations and tool invocations
//   - Audit logging of MCP tool calls
//
// # Metrics
//
// Mailbox Metrics:
//   - outlook_operations_total: Counter of mailbox operations by operation, status
//   - outlook_operation_duration_seconds: Histogram of mailbox operation durations
//   - outlook_free_busy_queries_total: Counter of free/busy lookups by status
//   - outlook_sessions_active: Gauge of open mailbox sessions
//
// Handle Metrics:
//   - outlook_handles_acquired_total: Counter of store handles acquired
//   - outlook_handles_released_total: Counter of store handles released by result
//   - outlook_handles_open: Gauge of store handles currently held
//
// Enumeration Metrics:
//   - outlook_items_skipped_total: Counter of items dropped from enumerations
//   - outlook_folders_skipped_total: Counter of folder subtrees skipped
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of tool invocations by tool, status
//   - mcp_tool_duration_seconds: Histogram of tool execution durations
//
// Exported telemetry carries the process resource: service name, version and
// instance, plus outlook.backend and outlook.read_only. The prometheus
// exporter writes to a registry owned by the Provider (see Gatherer).
//
// # Tracing
//
// Spans are created for:
//   - MCP tool invocations (tool.<name>)
//   - Mailbox operations (outlook.<area>.<action>)
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - OUTLOOKCTL_INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - OUTLOOKCTL_METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout)
//   - OUTLOOKCTL_TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces and metrics
//   - OTEL_SERVICE_NAME: Service name (default: outlookctl)
//
// # Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordOutlookOperation(ctx, "mail.list", "success", time.Since(start))
package instrumentation
