package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/outlookctl/internal/instrumentation"
	"github.com/teemow/outlookctl/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging. Mutating tools (readOnly false) are additionally
// written to the audit stream with full details.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", true, sc, handler))
func InstrumentedToolHandler(toolName string, readOnly bool, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		folder := StringArg(args, "folder")
		id := StringArg(args, "id")

		attrs := instrumentation.NewSpanAttributeBuilder().
			WithBackend(sc.Backend().Name()).
			WithFolder(folder).
			WithReadOnly(readOnly)
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs.Build()...)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithBackend(sc.Backend().Name()).
			WithTarget(folder, id).
			WithReadOnly(readOnly)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			instrumentation.AddSpanEvent(span, "tool_error_result")
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)

		if al := sc.AuditLogger(); al != nil {
			al.LogToolInvocation(invocation)
			if !readOnly {
				al.LogToolAudit(invocation)
			}
		}

		return result, err
	}
}
