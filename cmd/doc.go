// Package cmd implements the command-line interface for outlookctl.
//
// Mail commands: folders, list, search, read, conversation, mark-read,
// mark-unread, categories, move, delete, open and is-deleted.
// Calendar commands: events, event, delete-event, open-event, free-busy
// and find-slots.
//
// Every mail and calendar command opens one session on the configured
// backend and prints a result envelope as JSON or text. serve starts the
// MCP server and generate-docs prints the reference of its tools.
package cmd
