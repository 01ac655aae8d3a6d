package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

// Test constants to reduce string repetition and satisfy goconst
const (
	testEmail    = "jane@contoso.com"
	testDomain   = "contoso.com"
	testToolList = "outlook_list_mail"
	testToolMove = "outlook_move_mail"
	testItemID   = "00000000AB12"
)

func attrMap(attrs []slog.Attr) map[string]slog.Value {
	m := make(map[string]slog.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation(testToolList)

	if ti.Tool != testToolList {
		t.Errorf("Tool = %q, want %q", ti.Tool, testToolList)
	}
	if ti.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	ti.CompleteSuccess()

	if !ti.Success {
		t.Error("Success should be true")
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}
	if ti.Status() != StatusSuccess {
		t.Errorf("Status = %q, want %q", ti.Status(), StatusSuccess)
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation(testToolMove)
	ti.CompleteWithError(errors.New("outlook: folder not found"))

	if ti.Success {
		t.Error("Success should be false")
	}
	if ti.Error != "outlook: folder not found" {
		t.Errorf("Error = %q", ti.Error)
	}
	if ti.Status() != StatusError {
		t.Errorf("Status = %q, want %q", ti.Status(), StatusError)
	}
}

func TestToolInvocation_UserDomain(t *testing.T) {
	ti := NewToolInvocation(testToolList).WithUser(testEmail)
	if got := ti.UserDomain(); got != testDomain {
		t.Errorf("UserDomain = %q, want %q", got, testDomain)
	}
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation(testToolMove).
		WithUser(testEmail).
		WithBackend("fixture").
		WithTarget("Archive", testItemID).
		WithReadOnly(false).
		CompleteSuccess()

	m := attrMap(ti.LogAttrs())

	if m["tool"].String() != testToolMove {
		t.Errorf("tool = %q", m["tool"].String())
	}
	if m["user_domain"].String() != testDomain {
		t.Errorf("user_domain = %q", m["user_domain"].String())
	}
	if m["backend"].String() != "fixture" {
		t.Errorf("backend = %q", m["backend"].String())
	}
	if m["folder"].String() != "Archive" {
		t.Errorf("folder = %q", m["folder"].String())
	}
	if _, ok := m["user"]; ok {
		t.Error("LogAttrs must not include the full address")
	}
	if _, ok := m["item_id"]; ok {
		t.Error("LogAttrs must not include the item ID")
	}
}

func TestToolInvocation_LogAttrs_MinimalFields(t *testing.T) {
	ti := NewToolInvocation(testToolList).CompleteSuccess()
	m := attrMap(ti.LogAttrs())

	for _, key := range []string{"backend", "folder", "trace_id", "error"} {
		if _, ok := m[key]; ok {
			t.Errorf("unexpected attribute %q", key)
		}
	}
}

func TestToolInvocation_LogAuditAttrs(t *testing.T) {
	ti := NewToolInvocation(testToolMove).
		WithUser(testEmail).
		WithTarget("Archive", testItemID).
		CompleteWithError(errors.New("boom"))

	m := attrMap(ti.LogAuditAttrs())

	if m["user"].String() != testEmail {
		t.Errorf("user = %q, want %q", m["user"].String(), testEmail)
	}
	if m["item_id"].String() != testItemID {
		t.Errorf("item_id = %q, want %q", m["item_id"].String(), testItemID)
	}
	if m["error"].String() != "boom" {
		t.Errorf("error = %q", m["error"].String())
	}
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation(testToolList).WithSpanContext(context.Background())
	if ti.TraceID != "" || ti.SpanID != "" {
		t.Errorf("expected empty trace context, got %q/%q", ti.TraceID, ti.SpanID)
	}
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("invalid log line: %v", err)
		}
		out = append(out, rec)
	}
	return out
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogToolInvocation(NewToolInvocation(testToolList).WithUser(testEmail).CompleteSuccess())
	al.LogToolInvocation(NewToolInvocation(testToolMove).WithUser(testEmail).CompleteWithError(errors.New("x")))

	lines := logLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if lines[0]["msg"] != "tool_executed" || lines[0]["level"] != "INFO" {
		t.Errorf("unexpected success line: %v", lines[0])
	}
	if lines[1]["msg"] != "tool_failed" || lines[1]["level"] != "WARN" {
		t.Errorf("unexpected failure line: %v", lines[1])
	}
	if _, ok := lines[0]["user"]; ok {
		t.Error("full address logged without IncludePII")
	}
}

func TestAuditLogger_IncludePII(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{
		Enabled:    true,
		IncludePII: true,
	})

	al.LogToolInvocation(NewToolInvocation(testToolList).WithUser(testEmail).CompleteSuccess())

	lines := logLines(t, &buf)
	if len(lines) != 1 || lines[0]["user"] != testEmail {
		t.Errorf("expected full address with IncludePII, got %v", lines)
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	al.SetEnabled(false)

	al.LogToolInvocation(NewToolInvocation(testToolList).CompleteSuccess())
	al.LogToolAudit(NewToolInvocation(testToolMove).CompleteSuccess())

	if buf.Len() != 0 {
		t.Errorf("expected no output when disabled, got %q", buf.String())
	}
}

func TestAuditLogger_LogToolAudit(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogToolAudit(NewToolInvocation(testToolMove).WithUser(testEmail).WithTarget("", testItemID).CompleteSuccess())

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["msg"] != "tool_audit" || lines[0]["item_id"] != testItemID {
		t.Errorf("unexpected audit line: %v", lines[0])
	}
}
