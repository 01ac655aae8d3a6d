package cmd

import (
	"context"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/outlookctl/internal/backend/fixture"
	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/server"
)

func TestRegisterAllTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     int
	}{
		{name: "read-only", readOnly: true, want: 9},
		{name: "with write tools", readOnly: false, want: 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := server.NewServerContext(context.Background(), fixture.New("", fixture.Options{}), outlook.Options{})
			require.NoError(t, err)
			defer sc.Shutdown()

			mcpSrv := mcpserver.NewMCPServer("outlookctl-test", "0.0.0", mcpserver.WithToolCapabilities(true))
			require.NoError(t, registerAllTools(mcpSrv, sc, tt.readOnly))
			assert.Len(t, mcpSrv.ListTools(), tt.want)
		})
	}
}

func TestGenerateDocs(t *testing.T) {
	doc, err := generateDocs()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "# MCP Tools Reference"))
	for _, section := range []string{"## Calendar Tools", "## Mail Tools", "## Scheduling Tools", "## Read-Only Mode"} {
		assert.Contains(t, doc, section)
	}
	assert.Contains(t, doc, "### outlook_find_slots\n")
	assert.Contains(t, doc, "### outlook_delete_mail *(write)*")
	assert.Less(t, strings.Index(doc, "## Calendar Tools\n\n"), strings.Index(doc, "## Mail Tools\n\n"))
}

func TestGetCategoryFromToolName(t *testing.T) {
	tests := map[string]string{
		"outlook_list_mail":    "Mail Tools",
		"outlook_delete_event": "Calendar Tools",
		"outlook_free_busy":    "Scheduling Tools",
		"something_else":       "Other",
	}
	for name, want := range tests {
		assert.Equal(t, want, getCategoryFromToolName(name), name)
	}
}
