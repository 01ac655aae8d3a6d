// Package common provides shared utilities for MCP tool implementations:
// argument parsing, result rendering and the instrumentation wrapper
// applied to every registered tool.
package common
