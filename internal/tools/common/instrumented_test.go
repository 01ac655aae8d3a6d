package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/outlookctl/internal/backend/fixture"
	"github.com/teemow/outlookctl/internal/instrumentation"
	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/server"
)

func newServerContext(t *testing.T, metrics *instrumentation.Metrics) *server.ServerContext {
	t.Helper()
	backend := fixture.New("../../backend/fixture/testdata/mailbox.yaml", fixture.Options{})
	sc, err := server.NewServerContext(context.Background(), backend, outlook.Options{Metrics: metrics})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestInstrumentedToolHandler_Success(t *testing.T) {
	sc := newServerContext(t, nil)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	result, err := InstrumentedToolHandler("test_tool", true, sc, handler)(context.Background(), request(nil))
	require.NoError(t, err)
	assert.True(t, called)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
}

func TestInstrumentedToolHandler_Error(t *testing.T) {
	sc := newServerContext(t, nil)

	expectedErr := errors.New("test error")
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, expectedErr
	}

	_, err := InstrumentedToolHandler("test_tool", true, sc, handler)(context.Background(), request(nil))
	assert.Equal(t, expectedErr, err)
}

func TestInstrumentedToolHandler_ErrorResultWithMetrics(t *testing.T) {
	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)
	sc := newServerContext(t, metrics)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		time.Sleep(time.Millisecond)
		return mcp.NewToolResultError("error message"), nil
	}

	result, err := InstrumentedToolHandler("outlook_read_mail", true, sc, handler)(context.Background(), request(nil))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestInstrumentedToolHandler_Audit(t *testing.T) {
	sc := newServerContext(t, nil)
	var buf bytes.Buffer
	sc.SetAuditLogger(instrumentation.NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}

	_, err := InstrumentedToolHandler("outlook_list_mail", true, sc, handler)(context.Background(), request(map[string]interface{}{"folder": "Archive"}))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tool_executed")
	assert.Contains(t, buf.String(), "folder=Archive")
	assert.NotContains(t, buf.String(), "tool_audit", "read-only tools are not audited in full")

	buf.Reset()
	_, err = InstrumentedToolHandler("outlook_delete_mail", false, sc, handler)(context.Background(), request(map[string]interface{}{"id": "m-1"}))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tool_executed")
	assert.Contains(t, buf.String(), "tool_audit")
	assert.Contains(t, buf.String(), "m-1")
}
