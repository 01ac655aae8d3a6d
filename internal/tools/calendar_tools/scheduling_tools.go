package calendar_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/outlookctl/internal/availability"
	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/server"
	"github.com/teemow/outlookctl/internal/tools/batch"
	"github.com/teemow/outlookctl/internal/tools/common"
)

// RegisterSchedulingTools registers scheduling and availability tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	freeBusyTool := mcp.NewTool("outlook_free_busy",
		mcp.WithDescription("Get the busy periods of a person over a time range"),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("Email address or name that resolves to a recipient"),
		),
		mcp.WithString("start",
			mcp.Description("Start of the range (RFC3339 or YYYY-MM-DD, default: today 00:00)"),
		),
		mcp.WithString("end",
			mcp.Description("End of the range (RFC3339 or YYYY-MM-DD, default: one day after start)"),
		),
	)
	s.AddTool(freeBusyTool, common.InstrumentedToolHandler("outlook_free_busy", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFreeBusy(ctx, request, sc)
		}))

	findSlotsTool := mcp.NewTool("outlook_find_slots",
		mcp.WithDescription("Find meeting slots within business hours on weekdays when every attendee is free"),
		mcp.WithString("attendees",
			mcp.Required(),
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("start",
			mcp.Description("Start of the search (RFC3339 or YYYY-MM-DD, default: tomorrow 00:00)"),
		),
		mcp.WithString("end",
			mcp.Description("End of the search (RFC3339 or YYYY-MM-DD, default: five weekdays after start)"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Meeting duration in minutes (default: 60)"),
		),
		mcp.WithBoolean("includeSelf",
			mcp.Description("Also require the current user to be free (default: true)"),
		),
	)
	s.AddTool(findSlotsTool, common.InstrumentedToolHandler("outlook_find_slots", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindSlots(ctx, request, sc)
		}))

	return nil
}

func handleFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	email, err := common.RequiredStringArg(args, "email")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, end, err := timeRange(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		start, end := s.FreeBusyWindow(start, end)
		return s.FreeBusy(ctx, email, start, end)
	})
}

type slotList struct {
	Count     int                          `json:"count"`
	Start     time.Time                    `json:"start"`
	End       time.Time                    `json:"end"`
	Attendees []string                     `json:"attendees"`
	Slots     []availability.AvailableSlot `json:"slots"`
}

func handleFindSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	attendees, err := batch.ParseStringOrArray(args["attendees"], "attendees")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, end, err := timeRange(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	minutes, err := common.IntArg(args, "durationMinutes", defaultDurationMinutes)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if minutes <= 0 {
		return mcp.NewToolResultError("durationMinutes must be positive"), nil
	}
	includeSelf := common.BoolArg(args, "includeSelf", true)

	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		start, end := s.SlotWindow(start, end)
		slots, err := s.FindSlots(ctx, attendees, start, end, time.Duration(minutes)*time.Minute, includeSelf)
		if err != nil {
			return nil, err
		}
		return slotList{Count: len(slots), Start: start, End: end, Attendees: attendees, Slots: slots}, nil
	})
}

// timeRange reads the optional start and end arguments.
func timeRange(args map[string]interface{}) (time.Time, time.Time, error) {
	start, err := common.TimeArg(args, "start")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := common.TimeArg(args, "end")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
