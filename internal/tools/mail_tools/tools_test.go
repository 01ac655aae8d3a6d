package mail_tools

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/outlookctl/internal/backend/fixture"
	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/server"
	"github.com/teemow/outlookctl/internal/tools/batch"
)

const testdata = "../../backend/fixture/testdata"

// newServerContext serves a private copy of the fixture mailbox with
// writeback enabled, so changes are visible to later calls.
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

type messageList struct {
	Count    int                      `json:"count"`
	Messages []outlook.MessageSummary `json:"messages"`
}

func listOf(t *testing.T, text string) messageList {
	t.Helper()
	var l messageList
	require.NoError(t, json.Unmarshal([]byte(text), &l))
	require.Len(t, l.Messages, l.Count)
	return l
}

func ids(l messageList) []string {
	out := make([]string, 0, len(l.Messages))
	for _, m := range l.Messages {
		out = append(out, m.EntryID)
	}
	return out
}

func TestRegisterMailTools(t *testing.T) {
	sc := newServerContext(t)

	for _, tt := range []struct {
		readOnly bool
		want     []string
	}{
		{true, []string{"outlook_conversation", "outlook_list_folders", "outlook_list_mail", "outlook_read_mail", "outlook_search_mail"}},
		{false, []string{
			"outlook_conversation", "outlook_delete_mail", "outlook_list_folders", "outlook_list_mail",
			"outlook_mark_read", "outlook_move_mail", "outlook_read_mail", "outlook_search_mail", "outlook_set_categories",
		}},
	} {
		s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
		require.NoError(t, RegisterMailTools(s, sc, tt.readOnly))
		var names []string
		for name := range s.ListTools() {
			names = append(names, name)
		}
		sort.Strings(names)
		assert.Equal(t, tt.want, names, "readOnly=%v", tt.readOnly)
	}
}

func TestHandleListFolders(t *testing.T) {
	sc := newServerContext(t)
	result, text := call(t, handleListFolders, sc, nil)
	assert.False(t, result.IsError)

	var out struct {
		Count   int                  `json:"count"`
		Folders []outlook.FolderInfo `json:"folders"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.Equal(t, 7, out.Count)
	assert.Equal(t, outlook.FolderInfo{Name: "Inbox", FullPath: "Mailbox/Inbox", ItemCount: 3, UnreadCount: 2}, out.Folders[0])
}

func TestHandleListMail(t *testing.T) {
	sc := newServerContext(t)

	_, text := call(t, handleListMail, sc, nil)
	assert.Equal(t, []string{"m-budget", "m-lunch", "m-launch"}, ids(listOf(t, text)))

	_, text = call(t, handleListMail, sc, map[string]interface{}{"unreadOnly": true, "limit": 1.0})
	assert.Equal(t, []string{"m-budget"}, ids(listOf(t, text)))

	_, text = call(t, handleListMail, sc, map[string]interface{}{"folder": "alpha", "full": true})
	var full struct {
		Messages []outlook.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &full))
	require.Len(t, full.Messages, 1)
	assert.Equal(t, "Alpha", full.Messages[0].Folder)
}

func TestHandleListMail_Errors(t *testing.T) {
	sc := newServerContext(t)

	result, text := call(t, handleListMail, sc, map[string]interface{}{"folder": "Nope"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "FOLDER_NOT_FOUND")

	result, text = call(t, handleListMail, sc, map[string]interface{}{"limit": "lots"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "limit must be a number")
}

func TestHandleSearchMail(t *testing.T) {
	sc := newServerContext(t)

	_, text := call(t, handleSearchMail, sc, map[string]interface{}{"query": "launch"})
	assert.Equal(t, []string{"m-launch"}, ids(listOf(t, text)))

	_, text = call(t, handleSearchMail, sc, map[string]interface{}{"from": "alice", "after": "2025-03-02T00:00:00Z"})
	assert.Equal(t, []string{"m-budget"}, ids(listOf(t, text)))

	result, text := call(t, handleSearchMail, sc, map[string]interface{}{"before": "yesterday"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "before")
}

func TestHandleReadMail(t *testing.T) {
	sc := newServerContext(t)

	_, text := call(t, handleReadMail, sc, map[string]interface{}{"id": "m-budget"})
	var msg outlook.Message
	require.NoError(t, json.Unmarshal([]byte(text), &msg))
	assert.Equal(t, "Budget 2025", msg.Subject)
	assert.Equal(t, []string{"Finance", "Q1"}, msg.Categories)
	assert.Equal(t, []outlook.Attachment{{FileName: "budget.xlsx", Size: 20480}}, msg.Attachments)

	result, text := call(t, handleReadMail, sc, map[string]interface{}{"id": "e-standup"})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "WRONG_ITEM_CLASS")

	result, text = call(t, handleReadMail, sc, nil)
	assert.True(t, result.IsError)
	assert.Equal(t, "id is required", text)
}

func TestHandleConversation(t *testing.T) {
	sc := newServerContext(t)

	_, text := call(t, handleConversation, sc, map[string]interface{}{"id": "m-launch-draft"})
	assert.Equal(t, []string{"m-launch", "m-launch-reply", "m-launch-draft"}, ids(listOf(t, text)))

	_, text = call(t, handleConversation, sc, map[string]interface{}{"id": "m-launch", "limit": 2.0})
	assert.Equal(t, []string{"m-launch", "m-launch-reply"}, ids(listOf(t, text)))
}

func batchOf(t *testing.T, text string) batch.BatchResult {
	t.Helper()
	var br batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(text), &br))
	return br
}

func TestHandleMarkRead(t *testing.T) {
	sc := newServerContext(t)

	result, text := call(t, handleMarkRead, sc, map[string]interface{}{"ids": []interface{}{"m-budget", "m-lunch"}})
	assert.False(t, result.IsError)
	assert.Equal(t, 2, batchOf(t, text).Successful)

	_, text = call(t, handleListMail, sc, map[string]interface{}{"unreadOnly": true})
	assert.Empty(t, ids(listOf(t, text)))

	_, text = call(t, handleMarkRead, sc, map[string]interface{}{"ids": "m-launch", "read": false})
	assert.Equal(t, "marked unread", batchOf(t, text).Results[0].Result)
}

func TestHandleSetCategories(t *testing.T) {
	sc := newServerContext(t)

	result, _ := call(t, handleSetCategories, sc, map[string]interface{}{"id": "m-lunch", "categories": "Personal; Friday"})
	assert.False(t, result.IsError)

	_, text := call(t, handleReadMail, sc, map[string]interface{}{"id": "m-lunch"})
	var msg outlook.Message
	require.NoError(t, json.Unmarshal([]byte(text), &msg))
	assert.Equal(t, []string{"Personal", "Friday"}, msg.Categories)
}

func TestHandleMoveMail(t *testing.T) {
	sc := newServerContext(t)

	result, text := call(t, handleMoveMail, sc, map[string]interface{}{"ids": "m-lunch", "folder": "Archive"})
	assert.False(t, result.IsError, text)

	_, text = call(t, handleListMail, sc, map[string]interface{}{"folder": "archive"})
	assert.Equal(t, []string{"m-lunch"}, ids(listOf(t, text)))

	result, text = call(t, handleMoveMail, sc, map[string]interface{}{"ids": "m-budget", "folder": "Nope"})
	assert.True(t, result.IsError, "every item failed")
	assert.Equal(t, "FOLDER_NOT_FOUND", batchOf(t, text).Results[0].Code)

	result, text = call(t, handleMoveMail, sc, map[string]interface{}{"ids": "m-budget"})
	assert.True(t, result.IsError)
	assert.Equal(t, "folder is required", text)
}

func TestHandleDeleteMail(t *testing.T) {
	sc := newServerContext(t)

	result, text := call(t, handleDeleteMail, sc, map[string]interface{}{"ids": "m-launch, nope"})
	assert.False(t, result.IsError, "partial failure is not a tool error")
	br := batchOf(t, text)
	assert.Equal(t, 1, br.Successful)
	assert.Equal(t, 1, br.Failed)
	assert.Equal(t, "NOT_FOUND", br.Results[1].Code)

	_, text = call(t, handleListMail, sc, map[string]interface{}{"folder": "deleted"})
	assert.Equal(t, []string{"m-launch"}, ids(listOf(t, text)))

	result, text = call(t, handleDeleteMail, sc, map[string]interface{}{})
	assert.True(t, result.IsError)
	assert.Equal(t, "ids is required", text)
}
