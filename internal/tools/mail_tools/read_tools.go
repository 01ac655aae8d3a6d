package mail_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/server"
	"github.com/teemow/outlookctl/internal/tools/common"
)

// RegisterReadTools registers the read-only mail tools.
func RegisterReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listFoldersTool := mcp.NewTool("outlook_list_folders",
		mcp.WithDescription("List all mail folders with their full path, item count and unread count"),
	)
	s.AddTool(listFoldersTool, common.InstrumentedToolHandler("outlook_list_folders", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListFolders(ctx, request, sc)
		}))

	listMailTool := mcp.NewTool("outlook_list_mail",
		mcp.WithDescription("List messages in a folder, newest first"),
		mcp.WithString("folder",
			mcp.Description("Folder name or alias such as 'inbox', 'sent' or 'Projects' (default: inbox)"),
		),
		mcp.WithBoolean("unreadOnly",
			mcp.Description("Only return unread messages (default: false)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default: 20)"),
		),
		mcp.WithBoolean("full",
			mcp.Description("Include bodies, recipients and attachments (default: false)"),
		),
	)
	s.AddTool(listMailTool, common.InstrumentedToolHandler("outlook_list_mail", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMail(ctx, request, sc)
		}))

	searchMailTool := mcp.NewTool("outlook_search_mail",
		mcp.WithDescription("Search messages in a folder by text, sender and received date"),
		mcp.WithString("query",
			mcp.Description("Text to find in the subject or body"),
		),
		mcp.WithString("from",
			mcp.Description("Sender address or part of it"),
		),
		mcp.WithString("after",
			mcp.Description("Only messages received after this time (RFC3339 or YYYY-MM-DD)"),
		),
		mcp.WithString("before",
			mcp.Description("Only messages received before this time (RFC3339 or YYYY-MM-DD)"),
		),
		mcp.WithString("folder",
			mcp.Description("Folder name or alias (default: inbox)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default: 20)"),
		),
	)
	s.AddTool(searchMailTool, common.InstrumentedToolHandler("outlook_search_mail", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchMail(ctx, request, sc)
		}))

	readMailTool := mcp.NewTool("outlook_read_mail",
		mcp.WithDescription("Read a message including body, recipients and attachments"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry ID of the message"),
		),
	)
	s.AddTool(readMailTool, common.InstrumentedToolHandler("outlook_read_mail", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReadMail(ctx, request, sc)
		}))

	conversationTool := mcp.NewTool("outlook_conversation",
		mcp.WithDescription("List the messages of a message's conversation across inbox, sent items and drafts, oldest first"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry ID of any message in the conversation"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default: 50)"),
		),
		mcp.WithBoolean("full",
			mcp.Description("Include bodies, recipients and attachments (default: false)"),
		),
	)
	s.AddTool(conversationTool, common.InstrumentedToolHandler("outlook_conversation", true, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleConversation(ctx, request, sc)
		}))

	return nil
}

// listResult wraps a list of records with its size.
type listResult struct {
	Count    int         `json:"count"`
	Folder   string      `json:"folder,omitempty"`
	Messages interface{} `json:"messages"`
}

func handleListFolders(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		folders, err := s.ListFolders(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"count": len(folders), "folders": folders}, nil
	})
}

func handleListMail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	limit, err := common.IntArg(args, "limit", defaultListLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := outlook.ListOptions{
		Folder:     common.StringArg(args, "folder"),
		UnreadOnly: common.BoolArg(args, "unreadOnly", false),
		Limit:      limit,
	}
	full := common.BoolArg(args, "full", false)

	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		if full {
			msgs, err := s.ListMailFull(ctx, opts)
			return listResult{Count: len(msgs), Folder: opts.Folder, Messages: msgs}, err
		}
		msgs, err := s.ListMail(ctx, opts)
		return listResult{Count: len(msgs), Folder: opts.Folder, Messages: msgs}, err
	})
}

func handleSearchMail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	limit, err := common.IntArg(args, "limit", defaultListLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	criteria := outlook.SearchCriteria{
		Text: common.StringArg(args, "query"),
		From: common.StringArg(args, "from"),
	}
	for name, dst := range map[string]**time.Time{"after": &criteria.After, "before": &criteria.Before} {
		t, err := common.TimeArg(args, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !t.IsZero() {
			*dst = &t
		}
	}
	folder := common.StringArg(args, "folder")

	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		msgs, err := s.SearchMail(ctx, folder, criteria, limit)
		return listResult{Count: len(msgs), Folder: folder, Messages: msgs}, err
	})
}

func handleReadMail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredStringArg(request.GetArguments(), "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		return s.ReadMail(ctx, id)
	})
}

func handleConversation(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredStringArg(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, err := common.IntArg(args, "limit", defaultConversationLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	full := common.BoolArg(args, "full", false)

	return common.RunInSession(ctx, sc, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
		if full {
			msgs, err := s.ConversationFull(ctx, id, limit)
			return listResult{Count: len(msgs), Messages: msgs}, err
		}
		msgs, err := s.Conversation(ctx, id, limit)
		return listResult{Count: len(msgs), Messages: msgs}, err
	})
}
