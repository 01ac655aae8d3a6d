package calendar_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/outlookctl/internal/server"
)

// Defaults of the calendar tools.
const (
	defaultEventLimit      = 50
	defaultDurationMinutes = 60
)

// RegisterCalendarTools registers all calendar tools with the MCP server.
// Tools that change the calendar are only registered when readOnly is false.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Register event tools
	if err := RegisterEventTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	// Register scheduling tools
	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	return nil
}
