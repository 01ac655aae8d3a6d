// Package calendar_tools provides MCP (Model Context Protocol) tools for the
// Outlook calendar.
//
// The event tools list, read and delete appointments of the default calendar.
// The scheduling tools report the busy periods of a recipient and search for
// meeting slots that every attendee has free. Every call runs in its own
// outlook.Session obtained from the server context.
package calendar_tools
