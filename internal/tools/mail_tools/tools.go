package mail_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/outlookctl/internal/server"
)

// Default result sizes.
const (
	defaultListLimit         = 20
	defaultConversationLimit = 50
)

// RegisterMailTools registers all mail tools with the MCP server
func RegisterMailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterReadTools(s, sc); err != nil {
		return fmt.Errorf("failed to register mail read tools: %w", err)
	}

	if !readOnly {
		if err := RegisterWriteTools(s, sc); err != nil {
			return fmt.Errorf("failed to register mail write tools: %w", err)
		}
	}

	return nil
}
