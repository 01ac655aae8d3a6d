package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// Always use these helpers when recording metrics or span attributes
// derived from attendee addresses.

// ExtractUserDomain extracts the lowercased domain part of an email address.
//
// Example:
//
//	ExtractUserDomain("jane@Contoso.com")  // "contoso.com"
//	ExtractUserDomain("invalid")           // "unknown"
//	ExtractUserDomain("")                  // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return strings.ToLower(parts[1])
	}

	return "unknown"
}
