package common

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/outlookctl/internal/outlook"
)

// StringArg returns a trimmed string argument, or "" when it is missing
// or not a string.
func StringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// RequiredStringArg returns a non-empty string argument.
func RequiredStringArg(args map[string]interface{}, name string) (string, error) {
	v := StringArg(args, name)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// IntArg returns an integer argument or def when it is missing. JSON
// numbers arrive as float64 and must be whole.
func IntArg(args map[string]interface{}, name string, def int) (int, error) {
	switch v := args[name].(type) {
	case nil:
		return def, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be a whole number", name)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		if v == "" {
			return def, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number", name)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

// BoolArg returns a boolean argument or def when it is missing.
func BoolArg(args map[string]interface{}, name string, def bool) bool {
	switch v := args[name].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// TimeArg parses an optional time argument. A missing argument yields
// the zero time.
func TimeArg(args map[string]interface{}, name string) (time.Time, error) {
	v := StringArg(args, name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := outlook.ParseTime(v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// ErrorResult renders err as a tool error prefixed with its error code.
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", outlook.ErrorCode(err), err))
}

// JSONResult renders v as indented JSON.
func JSONResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
