package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/teemow/outlookctl/internal/availability"
	"github.com/teemow/outlookctl/internal/config"
	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/tools/batch"
)

// Envelope is printed by every command.
type Envelope struct {
	Success  bool        `json:"success"`
	Command  string      `json:"command"`
	Data     interface{} `json:"data"`
	Error    *ErrorInfo  `json:"error"`
	Metadata Metadata    `json:"metadata"`
}

// ErrorInfo describes a failed command.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metadata describes the result.
type Metadata struct {
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// actionResult reports a change to a single item.
type actionResult struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

type categoriesResult struct {
	ID         string   `json:"id"`
	Categories []string `json:"categories"`
}

type deletedResult struct {
	ID             string `json:"id"`
	InDeletedItems bool   `json:"inDeletedItems"`
}

func (o *rootOptions) succeed(command string, data interface{}) error {
	return o.print(Envelope{
		Success:  true,
		Command:  command,
		Data:     data,
		Metadata: Metadata{Count: countOf(data), Timestamp: o.now().UTC()},
	})
}

// fail prints err and returns errReported.
func (o *rootOptions) fail(command string, err error) error {
	return o.failWith(command, nil, outlook.ErrorCode(err), err.Error())
}

// invalid prints a rejected argument and returns errReported.
func (o *rootOptions) invalid(command string, err error) error {
	return o.failWith(command, nil, "INVALID_ARGUMENT", err.Error())
}

func (o *rootOptions) failWith(command string, data interface{}, code, message string) error {
	if perr := o.print(Envelope{
		Command:  command,
		Data:     data,
		Error:    &ErrorInfo{Code: code, Message: message},
		Metadata: Metadata{Count: countOf(data), Timestamp: o.now().UTC()},
	}); perr != nil {
		return perr
	}
	return errReported
}

func (o *rootOptions) print(env Envelope) error {
	format := config.OutputJSON
	if o.cfg != nil {
		format = o.cfg.Output
	}
	if format == config.OutputText {
		return writeText(o.out, env)
	}
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// countOf returns the number of records in data.
func countOf(data interface{}) int {
	switch d := data.(type) {
	case nil:
		return 0
	case batch.BatchResult:
		return d.Total
	case availability.FreeBusyResult:
		return len(d.BusySlots)
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return v.Len()
	case reflect.Ptr:
		if v.IsNil() {
			return 0
		}
	}
	return 1
}

const timeFormat = "2006-01-02 15:04"

// textWriter renders envelopes for people.
type textWriter struct {
	w    io.Writer
	bold lipgloss.Style
	dim  lipgloss.Style
	fail lipgloss.Style
	err  error
}

func writeText(w io.Writer, env Envelope) error {
	r := lipgloss.NewRenderer(w)
	t := &textWriter{
		w:    w,
		bold: r.NewStyle().Bold(true),
		dim:  r.NewStyle().Faint(true),
		fail: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
	if env.Error != nil {
		t.line("%s %s", t.fail.Render("Error ["+env.Error.Code+"]:"), env.Error.Message)
	}
	if env.Data != nil {
		t.data(env.Data)
	}
	return t.err
}

func (t *textWriter) line(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *textWriter) data(data interface{}) {
	switch d := data.(type) {
	case []outlook.FolderInfo:
		for _, f := range d {
			t.line("%s  %s", pad(f.FullPath, 48), t.dim.Render(fmt.Sprintf("%d unread / %d", f.UnreadCount, f.ItemCount)))
		}
	case []outlook.MessageSummary:
		for _, m := range d {
			t.summary(m)
		}
	case []outlook.Message:
		for i, m := range d {
			if i > 0 {
				t.line("")
			}
			t.message(m)
		}
	case outlook.Message:
		t.message(d)
	case []outlook.EventSummary:
		for _, ev := range d {
			t.eventSummary(ev)
		}
	case []outlook.Event:
		for i, ev := range d {
			if i > 0 {
				t.line("")
			}
			t.event(ev)
		}
	case outlook.Event:
		t.event(d)
	case availability.FreeBusyResult:
		t.line("%s  %s - %s", t.bold.Render(d.Email), d.RangeStart.Local().Format(timeFormat), d.RangeEnd.Local().Format(timeFormat))
		if len(d.BusySlots) == 0 {
			t.line("  free")
		}
		for _, s := range d.BusySlots {
			t.line("  %s - %s  %s", s.Start.Local().Format(timeFormat), s.End.Local().Format("15:04"), s.Status)
		}
	case []availability.AvailableSlot:
		if len(d) == 0 {
			t.line("no common slots")
		}
		for _, s := range d {
			t.line("%s - %s  %s", s.Start.Local().Format(timeFormat), s.End.Local().Format("15:04"), t.dim.Render(strings.Join(s.Attendees, ", ")))
		}
	case batch.BatchResult:
		for _, r := range d.Results {
			if r.Status == batch.StatusSuccess {
				t.line("%s  %s", pad(r.ID, 24), r.Result)
			} else {
				t.line("%s  %s %s", pad(r.ID, 24), t.fail.Render(r.Code), r.Error)
			}
		}
		t.line("%s", t.dim.Render(fmt.Sprintf("%d of %d succeeded", d.Successful, d.Total)))
	case actionResult:
		t.line("%s  %s", d.ID, d.Action)
	case categoriesResult:
		t.line("%s  %s", d.ID, strings.Join(d.Categories, ", "))
	case deletedResult:
		t.line("%s  in deleted items: %t", d.ID, d.InDeletedItems)
	case string:
		t.line("%s", d)
	default:
		raw, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			t.err = err
			return
		}
		t.line("%s", raw)
	}
}

func (t *textWriter) summary(m outlook.MessageSummary) {
	marker := " "
	subject := m.Subject
	if m.IsUnread {
		marker = "*"
		subject = t.bold.Render(subject)
	}
	t.line("%s %s  %s  %s  %s", marker, m.ReceivedTime.Local().Format(timeFormat), pad(sender(m), 28), subject, t.dim.Render(m.EntryID))
}

func (t *textWriter) message(m outlook.Message) {
	t.line("%s", t.bold.Render(m.Subject))
	t.field("From", sender(m.MessageSummary))
	t.field("To", strings.Join(m.To, ", "))
	t.field("Cc", strings.Join(m.Cc, ", "))
	t.field("Received", m.ReceivedTime.Local().Format(timeFormat))
	t.field("Folder", m.Folder)
	t.field("Categories", strings.Join(m.Categories, ", "))
	for _, a := range m.Attachments {
		t.field("Attachment", fmt.Sprintf("%s (%d bytes)", a.FileName, a.Size))
	}
	t.field("ID", m.EntryID)
	if m.Body != "" {
		t.line("")
		t.line("%s", strings.TrimRight(m.Body, "\r\n"))
	}
}

func (t *textWriter) eventSummary(ev outlook.EventSummary) {
	when := ev.Start.Local().Format(timeFormat) + " - " + ev.End.Local().Format("15:04")
	if ev.IsAllDay {
		when = pad(ev.Start.Local().Format("2006-01-02")+" all day", len(when))
	}
	where := ""
	if ev.Location != "" {
		where = "  @ " + ev.Location
	}
	t.line("%s  %s%s  %s", when, ev.Subject, where, t.dim.Render(ev.EntryID))
}

func (t *textWriter) event(ev outlook.Event) {
	t.line("%s", t.bold.Render(ev.Subject))
	t.field("When", ev.Start.Local().Format(timeFormat)+" - "+ev.End.Local().Format(timeFormat))
	t.field("Location", ev.Location)
	t.field("Organizer", ev.Organizer)
	t.field("Attendees", strings.Join(ev.Attendees, ", "))
	t.field("Recurrence", ev.RecurrencePattern)
	t.field("ID", ev.EntryID)
	if ev.Body != "" {
		t.line("")
		t.line("%s", strings.TrimRight(ev.Body, "\r\n"))
	}
}

// field prints a labelled value; empty values are skipped.
func (t *textWriter) field(label, value string) {
	if value == "" {
		return
	}
	t.line("%s %s", t.dim.Render(pad(label+":", 12)), value)
}

func sender(m outlook.MessageSummary) string {
	if m.SenderName != "" {
		return m.SenderName
	}
	return m.SenderEmail
}

// pad truncates or pads s to width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}
