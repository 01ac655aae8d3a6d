package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teemow/outlookctl/internal/outlook"
)

// Result status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultChunkSize bounds the number of items handled by one session.
const DefaultChunkSize = 50

// Result represents the result of a single operation in a batch
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult represents the aggregated results of a batch operation
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses a parameter that is a single string, a
// comma separated string or an array of strings. Duplicates are
// dropped, keeping the first occurrence.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var raw []string
	switch v := param.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			raw = append(raw, strings.TrimSpace(part))
		}
		if len(raw) == 1 && raw[0] == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			raw = append(raw, strings.TrimSpace(str))
		}
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		raw = v
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	seen := make(map[string]bool, len(raw))
	result := make([]string, 0, len(raw))
	for i, s := range raw {
		if s == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		result = append(result, s)
	}
	return result, nil
}

// Summarize aggregates results.
func Summarize(results []Result) BatchResult {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FormatResults creates a formatted JSON string from batch results
func FormatResults(results []Result) string {
	jsonBytes, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(jsonBytes)
}

// ProcessBatch executes fn on each id and collects the results. Once
// ctx is done the remaining ids fail with the context error.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
		} else {
			results = append(results, NewSuccessResult(id, res))
		}
	}
	return results
}

// Chunks splits ids into consecutive runs of at most size ids.
func Chunks(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// NewErrorResult creates an error result carrying the error code.
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Code:   outlook.ErrorCode(err),
		Error:  err.Error(),
	}
}
