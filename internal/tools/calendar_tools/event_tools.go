package calendar_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/server"
	"github.com/teemow/outlookctl/internal/tools/common"
)

// RegisterEventTools registers the event tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listEventsTool := mcp.NewTool("outlook_list_events",
		mcp.WithDescription("List calendar events starting in a time range, recurring occurrences included, in start order"),
		mcp.WithString("start",
			mcp.Description("Start of the range (RFC3339 or YYYY-MM-DD, default: today 00:00)"),
		),
		mcp.WithString("end",
			mcp.Description("End of the range (RFC3339 or YYYY-MM-DD, default: one month after start)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events to return (default: 50)"),
		),
		mcp.WithBoolean("full",
			mcp.Description("Include body, attendees, organizer and recurrence (default: false)"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandler("outlook_list_events", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	getEventTool := mcp.NewTool("outlook_get_event",
		mcp.WithDescription("Get the details of a calendar event"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry ID of the event"),
		),
	)
	s.AddTool(getEventTool, common.InstrumentedToolHandler("outlook_get_event", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	deleteEventTool := mcp.NewTool("outlook_delete_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry ID of the event to delete"),
		),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandler("outlook_delete_event", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

type eventList struct {
	Count  int         `json:"count"`
	Start  time.Time   `json:"start"`
	End    time.Time   `json:"end"`
	Events interface{} `json:"events"`
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	start, err := common.TimeArg(args, "start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := common.TimeArg(args, "end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, err := common.IntArg(args, "limit", defaultEventLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	full := common.BoolArg(args, "full", false)

	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		start, end := s.EventWindow(start, end)
		out := eventList{Start: start, End: end}
		if full {
			events, err := s.ListEventsFull(ctx, start, end, limit)
			out.Count, out.Events = len(events), events
			return out, err
		}
		events, err := s.ListEvents(ctx, start, end, limit)
		out.Count, out.Events = len(events), events
		return out, err
	})
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredStringArg(request.GetArguments(), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		return s.GetEvent(ctx, id)
	})
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredStringArg(request.GetArguments(), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		if err := s.DeleteEvent(ctx, id); err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": id, "deleted": true}, nil
	})
}
