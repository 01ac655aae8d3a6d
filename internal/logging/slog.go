package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyBackend   = "backend"
	KeySession   = "session_id"
	KeyFolder    = "folder"
	KeyItem      = "item_id"
	KeyUserHash  = "user_hash"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithSession returns a logger tagged with a mailbox session.
func WithSession(logger *slog.Logger, id, backend string) *slog.Logger {
	return logger.With(slog.String(KeySession, id), slog.String(KeyBackend, backend))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Folder returns a slog attribute for a folder name or path.
func Folder(name string) slog.Attr {
	return slog.String(KeyFolder, name)
}

// Item returns a slog attribute for an item entry ID.
func Item(id string) slog.Attr {
	return slog.String(KeyItem, id)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email for logging purposes.
// Addresses are compared case-insensitively, so they are lowercased first.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(email)))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user email.
//
// Usage:
//
//	logger.Info("free/busy loaded", logging.UserHash(attendee))
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// ExtractDomain extracts the domain part from an email address.
func ExtractDomain(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// Domain returns a slog attribute for the email domain (lower cardinality than full email).
func Domain(email string) slog.Attr {
	return slog.String("user_domain", ExtractDomain(email))
}
