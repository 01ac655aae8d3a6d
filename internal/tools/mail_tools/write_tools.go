package mail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/server"
	"github.com/teemow/outlookctl/internal/tools/batch"
	"github.com/teemow/outlookctl/internal/tools/common"
)

// RegisterWriteTools registers the tools that change the mailbox.
func RegisterWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	markReadTool := mcp.NewTool("outlook_mark_read",
		mcp.WithDescription("Mark one or more messages read or unread"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Entry ID (string), comma-separated entry IDs or array of entry IDs"),
		),
		mcp.WithBoolean("read",
			mcp.Description("true marks read, false marks unread (default: true)"),
		),
	)
	s.AddTool(markReadTool, common.InstrumentedToolHandler("outlook_mark_read", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMarkRead(ctx, request, sc)
		}))

	setCategoriesTool := mcp.NewTool("outlook_set_categories",
		mcp.WithDescription("Replace the categories of a message; an empty list clears them"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry ID of the message"),
		),
		mcp.WithString("categories",
			mcp.Description("Categories separated by commas or semicolons"),
		),
	)
	s.AddTool(setCategoriesTool, common.InstrumentedToolHandler("outlook_set_categories", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSetCategories(ctx, request, sc)
		}))

	moveMailTool := mcp.NewTool("outlook_move_mail",
		mcp.WithDescription("Move one or more messages to another folder"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Entry ID (string), comma-separated entry IDs or array of entry IDs"),
		),
		mcp.WithString("folder",
			mcp.Required(),
			mcp.Description("Target folder name or alias"),
		),
	)
	s.AddTool(moveMailTool, common.InstrumentedToolHandler("outlook_move_mail", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMoveMail(ctx, request, sc)
		}))

	deleteMailTool := mcp.NewTool("outlook_delete_mail",
		mcp.WithDescription("Delete one or more messages; messages outside Deleted Items are moved there"),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Entry ID (string), comma-separated entry IDs or array of entry IDs"),
		),
	)
	s.AddTool(deleteMailTool, common.InstrumentedToolHandler("outlook_delete_mail", false, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteMail(ctx, request, sc)
		}))

	return nil
}

func handleMarkRead(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	ids, err := batch.ParseStringOrArray(args["ids"], "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	read := common.BoolArg(args, "read", true)
	state := "read"
	if !read {
		state = "unread"
	}

	results := common.RunBatch(ctx, sc, ids, func(ctx context.Context, s *outlook.Session, id string) (string, error) {
		if err := s.SetRead(ctx, id, read); err != nil {
			return "", err
		}
		return "marked " + state, nil
	})
	return common.BatchResult(results), nil
}

func handleSetCategories(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredStringArg(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	categories := outlook.ParseCategories(common.StringArg(args, "categories"))

	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		if err := s.SetCategories(ctx, id, categories); err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": id, "categories": categories}, nil
	})
}

func handleMoveMail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	ids, err := batch.ParseStringOrArray(args["ids"], "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	folder, err := common.RequiredStringArg(args, "folder")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := common.RunBatch(ctx, sc, ids, func(ctx context.Context, s *outlook.Session, id string) (string, error) {
		if err := s.MoveMail(ctx, id, folder); err != nil {
			return "", err
		}
		return fmt.Sprintf("moved to %s", folder), nil
	})
	return common.BatchResult(results), nil
}

func handleDeleteMail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ids, err := batch.ParseStringOrArray(request.GetArguments()["ids"], "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := common.RunBatch(ctx, sc, ids, func(ctx context.Context, s *outlook.Session, id string) (string, error) {
		if err := s.DeleteMail(ctx, id); err != nil {
			return "", err
		}
		return "deleted", nil
	})
	return common.BatchResult(results), nil
}
