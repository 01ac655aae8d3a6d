package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/outlookctl/internal/availability"
	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/tools/batch"
)

func TestCountOf(t *testing.T) {
	var nilMessage *outlook.Message
	tests := []struct {
		name string
		data interface{}
		want int
	}{
		{name: "nil", data: nil, want: 0},
		{name: "slice", data: []outlook.MessageSummary{{}, {}}, want: 2},
		{name: "empty slice", data: []availability.AvailableSlot{}, want: 0},
		{name: "batch", data: batch.BatchResult{Total: 4, Successful: 1}, want: 4},
		{name: "free busy", data: availability.FreeBusyResult{BusySlots: make([]availability.FreeBusySlot, 3)}, want: 3},
		{name: "nil pointer", data: nilMessage, want: 0},
		{name: "single record", data: outlook.Message{}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countOf(tt.data))
		})
	}
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab   ", pad("ab", 5))
	assert.Equal(t, "abcde", pad("abcde", 5))
	assert.Equal(t, "abcd…", pad("abcdefgh", 5))
}

func TestWriteText_Batch(t *testing.T) {
	var buf bytes.Buffer
	res := batch.Summarize([]batch.Result{
		batch.NewSuccessResult("m-1", "moved"),
		batch.NewErrorResult("m-2", outlook.ErrNotFound),
	})

	require.NoError(t, writeText(&buf, Envelope{Success: true, Command: "move", Data: res}))
	out := buf.String()
	assert.Contains(t, out, "m-1")
	assert.Contains(t, out, "moved")
	assert.Contains(t, out, "NOT_FOUND")
	assert.Contains(t, out, "1 of 2 succeeded")
}

func TestWriteText_FreeBusy(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, writeText(&buf, Envelope{Data: availability.FreeBusyResult{
		Email:      "carol@contoso.com",
		RangeStart: start,
		RangeEnd:   start.AddDate(0, 0, 1),
		BusySlots:  []availability.FreeBusySlot{},
	}}))
	assert.Contains(t, buf.String(), "carol@contoso.com")
	assert.Contains(t, buf.String(), "  free")
}
