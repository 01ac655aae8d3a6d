package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
	attrTool      = "tool"
	attrDomain    = "domain"
)

// Metrics provides methods for recording observability metrics. All
// methods are safe on a nil or zero Metrics.
type Metrics struct {
	activeSessions metric.Int64UpDownCounter

	// Outlook store metrics
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram
	freeBusyTotal     metric.Int64Counter

	// Handle lifecycle metrics
	handlesAcquired metric.Int64Counter
	handlesReleased metric.Int64Counter
	handlesOpen     metric.Int64UpDownCounter

	// Enumeration metrics
	itemsSkipped   metric.Int64Counter
	foldersSkipped metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.activeSessions, err = meter.Int64UpDownCounter(
		"outlook_sessions_active",
		metric.WithDescription("Number of open mailbox sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outlook_sessions_active gauge: %w", err)
	}

	m.operationsTotal, err = meter.Int64Counter(
		"outlook_operations_total",
		metric.WithDescription("Total number of mailbox operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outlook_operations_total counter: %w", err)
	}

	m.operationDuration, err = meter.Float64Histogram(
		"outlook_operation_duration_seconds",
		metric.WithDescription("Mailbox operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outlook_operation_duration_seconds histogram: %w", err)
	}

	m.freeBusyTotal, err = meter.Int64Counter(
		"outlook_free_busy_queries_total",
		metric.WithDescription("Total number of free/busy queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outlook_free_busy_queries_total counter: %w", err)
	}

	m.handlesAcquired, err = meter.Int64Counter(
		"outlook_handles_acquired_total",
		metric.WithDescription("Total number of store handles acquired"),
		metric.WithUnit("{handle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outlook_handles_acquired_total counter: %w", err)
	}

	m.handlesReleased, err = meter.Int64Counter(
		"outlook_handles_released_total",
		metric.WithDescription("Total number of store handles released"),
		metric.WithUnit("{handle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outlook_handles_released_total counter: %w", err)
	}

	m.handlesOpen, err = meter.Int64UpDownCounter(
		"outlook_handles_open",
		metric.WithDescription("Number of store handles currently held"),
		metric.WithUnit("{handle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outlook_handles_open gauge: %w", err)
	}

	m.itemsSkipped, err = meter.Int64Counter(
		"outlook_items_skipped_total",
		metric.WithDescription("Total number of items skipped during enumeration"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outlook_items_skipped_total counter: %w", err)
	}

	m.foldersSkipped, err = meter.Int64Counter(
		"outlook_folders_skipped_total",
		metric.WithDescription("Total number of folder subtrees skipped during traversal"),
		metric.WithUnit("{folder}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outlook_folders_skipped_total counter: %w", err)
	}

	// MCP Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordOutlookOperation records a mailbox operation with its status and duration.
//
// Parameters:
//   - operation: dotted operation name (mail.list, calendar.free_busy, ...)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordOutlookOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.operationsTotal == nil || m.operationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.operationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordFreeBusyQuery records a free/busy lookup. The attendee's domain
// is only attached when detailed labels are enabled.
func (m *Metrics) RecordFreeBusyQuery(ctx context.Context, email, status string) {
	if m == nil || m.freeBusyTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrDomain, ExtractUserDomain(email)))
	}

	m.freeBusyTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordHandleAcquired records a handle taken from the store.
func (m *Metrics) RecordHandleAcquired(ctx context.Context) {
	if m == nil || m.handlesAcquired == nil || m.handlesOpen == nil {
		return // Instrumentation not initialized
	}

	m.handlesAcquired.Add(ctx, 1)
	m.handlesOpen.Add(ctx, 1)
}

// RecordHandleReleased records a handle given back to the store. ok is
// false when the release itself failed.
func (m *Metrics) RecordHandleReleased(ctx context.Context, ok bool) {
	if m == nil || m.handlesReleased == nil || m.handlesOpen == nil {
		return // Instrumentation not initialized
	}

	result := ResultOK
	if !ok {
		result = ResultFailed
	}
	m.handlesReleased.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
	m.handlesOpen.Add(ctx, -1)
}

// RecordItemSkipped records an item dropped from an enumeration.
func (m *Metrics) RecordItemSkipped(ctx context.Context, operation string) {
	if m == nil || m.itemsSkipped == nil {
		return // Instrumentation not initialized
	}

	m.itemsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOperation, operation)))
}

// RecordFolderSkipped records a folder subtree that could not be walked.
func (m *Metrics) RecordFolderSkipped(ctx context.Context) {
	if m == nil || m.foldersSkipped == nil {
		return // Instrumentation not initialized
	}

	m.foldersSkipped.Add(ctx, 1)
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
//
// Parameters:
//   - toolName: Name of the MCP tool (e.g., "outlook_list_mail", "outlook_find_slots")
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the tool execution
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IncrementActiveSessions increments the open sessions counter.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return // Instrumentation not initialized
	}

	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the open sessions counter.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return // Instrumentation not initialized
	}

	m.activeSessions.Add(ctx, -1)
}
