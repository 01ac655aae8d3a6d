package instrumentation

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns Metrics backed by a manual reader.
func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

// sumOf returns the total of an int64 sum metric across all attribute sets.
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, not an int64 sum", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_HandleLifecycle(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordHandleAcquired(ctx)
	m.RecordHandleAcquired(ctx)
	m.RecordHandleAcquired(ctx)
	m.RecordHandleReleased(ctx, true)
	m.RecordHandleReleased(ctx, false)

	if got := sumOf(t, reader, "outlook_handles_acquired_total"); got != 3 {
		t.Errorf("acquired = %d, want 3", got)
	}
	if got := sumOf(t, reader, "outlook_handles_released_total"); got != 2 {
		t.Errorf("released = %d, want 2", got)
	}
	if got := sumOf(t, reader, "outlook_handles_open"); got != 1 {
		t.Errorf("open = %d, want 1", got)
	}
}

func TestMetrics_RecordOutlookOperation(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordOutlookOperation(ctx, "mail.list", StatusSuccess, 20*time.Millisecond)
	m.RecordOutlookOperation(ctx, "calendar.free_busy", StatusError, 5*time.Millisecond)

	if got := sumOf(t, reader, "outlook_operations_total"); got != 2 {
		t.Errorf("operations = %d, want 2", got)
	}
}

func TestMetrics_SkipCounters(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordItemSkipped(ctx, "mail.list")
	m.RecordItemSkipped(ctx, "mail.list")
	m.RecordFolderSkipped(ctx)

	if got := sumOf(t, reader, "outlook_items_skipped_total"); got != 2 {
		t.Errorf("items skipped = %d, want 2", got)
	}
	if got := sumOf(t, reader, "outlook_folders_skipped_total"); got != 1 {
		t.Errorf("folders skipped = %d, want 1", got)
	}
}

func TestMetrics_RecordFreeBusyQuery_DetailedLabels(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, true)

	m.RecordFreeBusyQuery(ctx, "alice@contoso.com", StatusSuccess)
	m.RecordFreeBusyQuery(ctx, "bob@fabrikam.com", StatusError)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect: %v", err)
	}
	domains := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "outlook_free_busy_queries_total" {
				continue
			}
			for _, dp := range metric.Data.(metricdata.Sum[int64]).DataPoints {
				if v, ok := dp.Attributes.Value(attrDomain); ok {
					domains[v.AsString()] = true
				}
			}
		}
	}
	if !domains["contoso.com"] || !domains["fabrikam.com"] {
		t.Errorf("expected both attendee domains as labels, got %v", domains)
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordToolInvocation(ctx, "outlook_list_mail", StatusSuccess, 100*time.Millisecond)
	m.RecordToolInvocation(ctx, "outlook_find_slots", StatusError, 500*time.Millisecond)

	if got := sumOf(t, reader, "mcp_tool_invocations_total"); got != 2 {
		t.Errorf("tool invocations = %d, want 2", got)
	}
}

func TestMetrics_ActiveSessions(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.IncrementActiveSessions(ctx)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)

	if got := sumOf(t, reader, "outlook_sessions_active"); got != 1 {
		t.Errorf("active sessions = %d, want 1", got)
	}
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil even when disabled")
	}

	// All these should not panic even with nil underlying metrics
	metrics.RecordOutlookOperation(ctx, "mail.list", StatusSuccess, 200*time.Millisecond)
	metrics.RecordFreeBusyQuery(ctx, "alice@contoso.com", StatusSuccess)
	metrics.RecordHandleAcquired(ctx)
	metrics.RecordHandleReleased(ctx, true)
	metrics.RecordItemSkipped(ctx, "mail.list")
	metrics.RecordFolderSkipped(ctx)
	metrics.RecordToolInvocation(ctx, "test_tool", StatusSuccess, 100*time.Millisecond)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordHandleAcquired(ctx)
	m.RecordHandleReleased(ctx, false)
	m.RecordItemSkipped(ctx, "calendar.list")
	m.RecordOutlookOperation(ctx, "calendar.list", StatusError, time.Millisecond)
}
