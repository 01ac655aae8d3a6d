package common

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/server"
	"github.com/teemow/outlookctl/internal/tools/batch"
)

// RunInSession runs fn in a fresh session and renders its result as
// JSON. Failures become tool errors carrying their error code.
func RunInSession(ctx context.Context, sc *server.ServerContext, fn func(ctx context.Context, s *outlook.Session) (interface{}, error)) (*mcp.CallToolResult, error) {
	var out interface{}
	err := sc.WithSession(ctx, func(s *outlook.Session) error {
		var err error
		out, err = fn(ctx, s)
		return err
	})
	if err != nil {
		return ErrorResult(err), nil
	}
	return JSONResult(out)
}

// RunBatch applies fn to every id. Each chunk of ids gets its own
// session so that a large batch never accumulates more than a chunk's
// worth of handles. A chunk whose session cannot be opened fails all
// of its ids.
func RunBatch(ctx context.Context, sc *server.ServerContext, ids []string, fn func(ctx context.Context, s *outlook.Session, id string) (string, error)) []batch.Result {
	results := make([]batch.Result, 0, len(ids))
	for _, chunk := range batch.Chunks(ids, batch.DefaultChunkSize) {
		var chunkResults []batch.Result
		err := sc.WithSession(ctx, func(s *outlook.Session) error {
			chunkResults = batch.ProcessBatch(ctx, chunk, func(ctx context.Context, id string) (string, error) {
				return fn(ctx, s, id)
			})
			return nil
		})
		if err != nil {
			for _, id := range chunk {
				chunkResults = append(chunkResults, batch.NewErrorResult(id, err))
			}
		}
		results = append(results, chunkResults...)
	}
	return results
}

// BatchResult renders batch results. The tool result is an error only
// when every item failed.
func BatchResult(results []batch.Result) *mcp.CallToolResult {
	summary := batch.Summarize(results)
	text := batch.FormatResults(results)
	if summary.Total > 0 && summary.Successful == 0 {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}
