package calendar_tools

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/outlookctl/internal/availability"
	"github.com/teemow/outlookctl/internal/backend/fixture"
	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/server"
)

const testdata = "../../backend/fixture/testdata"

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"mailbox.yaml", "bob.ics"} {
		src, err := os.Open(filepath.Join(testdata, name))
		require.NoError(t, err)
		dst, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		_, err = io.Copy(dst, src)
		require.NoError(t, err)
		require.NoError(t, src.Close())
		require.NoError(t, dst.Close())
	}
	backend := fixture.New(filepath.Join(dir, "mailbox.yaml"), fixture.Options{Writeback: true})
	sc, err := server.NewServerContext(context.Background(), backend, outlook.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error), sc *server.ServerContext, args map[string]interface{}) (*mcp.CallToolResult, string) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	result, err := handler(context.Background(), req, sc)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return result, text.Text
}

// firstWeek spans Monday 2025-03-03 to Saturday 2025-03-08.
var firstWeek = map[string]interface{}{"start": "2025-03-03T00:00:00Z", "end": "2025-03-08T00:00:00Z"}

func subjects(t *testing.T, text string) []string {
	t.Helper()
	var out struct {
		Count  int                    `json:"count"`
		Events []outlook.EventSummary `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	require.Len(t, out.Events, out.Count)
	var s []string
	for _, ev := range out.Events {
		s = append(s, ev.Subject)
	}
	return s
}

func TestRegisterCalendarTools(t *testing.T) {
	sc := newServerContext(t)

	for _, tt := range []struct {
		readOnly bool
		want     []string
	}{
		{true, []string{"outlook_find_slots", "outlook_free_busy", "outlook_get_event", "outlook_list_events"}},
		{false, []string{"outlook_delete_event", "outlook_find_slots", "outlook_free_busy", "outlook_get_event", "outlook_list_events"}},
	} {
		s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
		require.NoError(t, RegisterCalendarTools(s, sc, tt.readOnly))
		var names []string
		for name := range s.ListTools() {
			names = append(names, name)
		}
		sort.Strings(names)
		assert.Equal(t, tt.want, names, "readOnly=%v", tt.readOnly)
	}
}

func TestHandleListEvents(t *testing.T) {
	sc := newServerContext(t)

	result, text := call(t, handleListEvents, sc, firstWeek)
	assert.False(t, result.IsError, text)
	assert.Equal(t, []string{"Team standup", "Sprint planning", "Lunch"}, subjects(t, text))

	args := map[string]interface{}{"start": "2025-03-03T00:00:00Z", "end": "2025-03-18T00:00:00Z", "limit": 2.0}
	_, text = call(t, handleListEvents, sc, args)
	assert.Equal(t, []string{"Team standup", "Sprint planning"}, subjects(t, text))

	args = map[string]interface{}{"start": "2025-03-09T00:00:00Z", "end": "2025-03-18T00:00:00Z", "full": true}
	_, text = call(t, handleListEvents, sc, args)
	var full struct {
		Events []outlook.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &full))
	require.Len(t, full.Events, 2, "two standup occurrences")
	for _, ev := range full.Events {
		assert.Equal(t, "Weekly", ev.RecurrencePattern)
		assert.Equal(t, time.Monday, ev.Start.Weekday())
	}
}

func TestHandleListEvents_InvalidRange(t *testing.T) {
	sc := newServerContext(t)

	result, text := call(t, handleListEvents, sc, map[string]interface{}{"start": "soon"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "start")
}

func TestHandleGetEvent(t *testing.T) {
	sc := newServerContext(t)

	_, text := call(t, handleGetEvent, sc, map[string]interface{}{"id": "e-planning"})
	var ev outlook.Event
	require.NoError(t, json.Unmarshal([]byte(text), &ev))
	assert.Equal(t, "Sprint planning", ev.Subject)
	assert.Equal(t, []string{"bob@contoso.com"}, ev.Attendees)
	assert.False(t, ev.IsRecurring)

	result, text := call(t, handleGetEvent, sc, map[string]interface{}{"id": "m-budget"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "WRONG_ITEM_CLASS")
}

func TestHandleDeleteEvent(t *testing.T) {
	sc := newServerContext(t)

	result, text := call(t, handleDeleteEvent, sc, map[string]interface{}{"id": "e-planning"})
	assert.False(t, result.IsError, text)

	_, text = call(t, handleListEvents, sc, firstWeek)
	assert.Equal(t, []string{"Team standup", "Lunch"}, subjects(t, text))

	result, text = call(t, handleDeleteEvent, sc, map[string]interface{}{"id": "nope"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "NOT_FOUND")
}

func TestHandleFreeBusy(t *testing.T) {
	sc := newServerContext(t)

	args := map[string]interface{}{"email": "carol@contoso.com", "start": "2025-03-03T00:00:00Z", "end": "2025-03-04T00:00:00Z"}
	result, text := call(t, handleFreeBusy, sc, args)
	require.False(t, result.IsError, text)

	var res availability.FreeBusyResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	require.Len(t, res.BusySlots, 1)
	slot := res.BusySlots[0]
	assert.True(t, slot.Start.Equal(time.Date(2025, 3, 3, 13, 0, 0, 0, time.UTC)), slot.Start)
	assert.True(t, slot.End.Equal(time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC)), slot.End)
	assert.Equal(t, availability.OutOfOffice, slot.Status)
}

func TestHandleFreeBusy_Errors(t *testing.T) {
	sc := newServerContext(t)

	result, text := call(t, handleFreeBusy, sc, map[string]interface{}{"email": "ghost@contoso.com"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "RECIPIENT_UNRESOLVED")

	result, text = call(t, handleFreeBusy, sc, map[string]interface{}{"email": "ghost"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "RECIPIENT_UNRESOLVED")

	result, text = call(t, handleFreeBusy, sc, nil)
	assert.True(t, result.IsError)
	assert.Equal(t, "email is required", text)
}

func TestHandleFindSlots(t *testing.T) {
	sc := newServerContext(t)

	args := map[string]interface{}{
		"attendees": []interface{}{"bob@contoso.com"},
		"start":     "2025-03-03T00:00:00Z",
		"end":       "2025-03-04T00:00:00Z",
	}
	result, text := call(t, handleFindSlots, sc, args)
	require.False(t, result.IsError, text)

	var out slotList
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	require.NotEmpty(t, out.Slots)
	assert.Len(t, out.Slots, out.Count)

	morning := availability.FreeBusySlot{
		Start: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
	}
	for _, slot := range out.Slots {
		assert.Equal(t, 60, slot.DurationMinutes)
		assert.False(t, morning.Overlaps(slot.Start, slot.End), "bob is busy from 09:00 to 10:00")
		assert.Contains(t, slot.Attendees, "me@contoso.com", "the current user is included by default")
	}
}

func TestHandleFindSlots_EmptyWindow(t *testing.T) {
	sc := newServerContext(t)

	args := map[string]interface{}{
		"attendees": "bob@contoso.com",
		"start":     "2025-03-04T00:00:00Z",
		"end":       "2025-03-03T00:00:00Z",
	}
	result, text := call(t, handleFindSlots, sc, args)
	require.False(t, result.IsError, text)

	var out slotList
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Empty(t, out.Slots)
}

func TestHandleFindSlots_Errors(t *testing.T) {
	sc := newServerContext(t)

	result, text := call(t, handleFindSlots, sc, map[string]interface{}{"attendees": "bob@contoso.com", "durationMinutes": 0.0})
	assert.True(t, result.IsError)
	assert.Equal(t, "durationMinutes must be positive", text)

	result, text = call(t, handleFindSlots, sc, map[string]interface{}{"attendees": "ghost@contoso.com", "includeSelf": false})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "RECIPIENT_UNRESOLVED")

	result, _ = call(t, handleFindSlots, sc, map[string]interface{}{})
	assert.True(t, result.IsError)
}
