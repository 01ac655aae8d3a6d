package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/outlookctl/internal/backend/fixture"
	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/server"
)

func newGenerateDocsCmd(o *rootOptions) *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		Args: cobra.NoArgs,
		// Documentation needs no configured backend.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := generateDocs()
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err := fmt.Fprint(o.out, markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(o.errOut, "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Output file (default: stdout)")

	return cmd
}

// generateDocs renders the documentation of every tool, write tools
// included. No session is opened, so the backend is never used.
func generateDocs() (string, error) {
	backend := fixture.New("", fixture.Options{})
	serverContext, err := server.NewServerContext(context.Background(), backend, outlook.Options{})
	if err != nil {
		return "", fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("outlookctl", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext, false); err != nil {
		return "", err
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}

	return generateToolsMarkdown(tools), nil
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running outlookctl as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	// Group tools by category
	toolsByCategory := groupToolsByCategory(tools)

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	// Read-only mode note
	sb.WriteString("## Read-Only Mode\n\n")
	sb.WriteString("The server starts in read-only mode. Tools that change the mailbox or calendar are marked *(write)* below and are only registered when `outlookctl serve` runs with `--yolo`.\n\n")

	// Generate documentation for each category
	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))

		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)

	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}

	return categories
}

// writeTools are only registered with --yolo.
var writeTools = map[string]bool{
	"outlook_mark_read":      true,
	"outlook_set_categories": true,
	"outlook_move_mail":      true,
	"outlook_delete_mail":    true,
	"outlook_delete_event":   true,
}

func getCategoryFromToolName(name string) string {
	switch name {
	case "outlook_list_events", "outlook_get_event", "outlook_delete_event":
		return "Calendar Tools"
	case "outlook_free_busy", "outlook_find_slots":
		return "Scheduling Tools"
	}
	if strings.HasPrefix(name, "outlook_") {
		return "Mail Tools"
	}
	return "Other"
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder

	// Tool name
	if writeTools[tool.Name] {
		sb.WriteString(fmt.Sprintf("### %s *(write)*\n\n", tool.Name))
	} else {
		sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))
	}

	// Description
	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	// Input schema
	if tool.InputSchema.Properties != nil && len(tool.InputSchema.Properties) > 0 {
		sb.WriteString("**Arguments:**\n")

		// Sort properties for consistent output
		propNames := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)

		for _, name := range propNames {
			prop := tool.InputSchema.Properties[name]
			isRequired := contains(tool.InputSchema.Required, name)

			requiredStr := "optional"
			if isRequired {
				requiredStr = "required"
			}

			// Get property type and description from the property map
			propMap, ok := prop.(map[string]interface{})
			if !ok {
				continue
			}

			propType := getPropertyType(propMap)

			sb.WriteString(fmt.Sprintf("- `%s` (%s): ", name, requiredStr))

			// Get description
			if desc, ok := propMap["description"].(string); ok {
				sb.WriteString(desc)
			} else {
				sb.WriteString(fmt.Sprintf("%s parameter", propType))
			}

			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func getPropertyType(prop map[string]interface{}) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
