// Package logging provides structured logging utilities for outlookctl.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Build the process logger from configuration and install it:
//
//	logger, err := logging.New(os.Stderr, "debug", logging.FormatJSON)
//	slog.SetDefault(logger)
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "mail.list")
//	logger.Info("listing mail", logging.Folder("Inbox"))
//
// Attendee addresses are hashed before they are logged:
//
//	logger.Debug("free/busy loaded", logging.UserHash(email))
//
// Logs always go to stderr; stdout carries command output only.
package logging
