package outlook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-03-03T09:30:00Z", time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)},
		{"2025-03-03T09:30:00+02:00", time.Date(2025, 3, 3, 7, 30, 0, 0, time.UTC)},
		{"2025-03-03T09:30:15", time.Date(2025, 3, 3, 9, 30, 15, 0, berlin)},
		{"2025-03-03T09:30", time.Date(2025, 3, 3, 9, 30, 0, 0, berlin)},
		{" 2025-03-03 09:30 ", time.Date(2025, 3, 3, 9, 30, 0, 0, berlin)},
		{"2025-03-03", time.Date(2025, 3, 3, 0, 0, 0, 0, berlin)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in, berlin)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
			assert.Equal(t, berlin, got.Location())
		})
	}

	_, err := ParseTime("next tuesday", berlin)
	assert.Error(t, err)
}

func TestSession_FreeBusyWindow(t *testing.T) {
	now := time.Date(2025, 3, 5, 15, 30, 0, 0, time.UTC)
	s := &Session{now: func() time.Time { return now }}

	start, end := s.FreeBusyWindow(time.Time{}, time.Time{})
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC), end)

	given := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	start, end = s.FreeBusyWindow(given, time.Time{})
	assert.Equal(t, given, start)
	assert.Equal(t, given.AddDate(0, 0, 1), end)
}

func TestSession_SlotWindow(t *testing.T) {
	// Friday afternoon: the search starts Saturday 00:00 and covers
	// five weekdays.
	now := time.Date(2025, 3, 7, 15, 30, 0, 0, time.UTC)
	s := &Session{now: func() time.Time { return now }}

	start, end := s.SlotWindow(time.Time{}, time.Time{})
	assert.Equal(t, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), end)

	explicitEnd := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	_, end = s.SlotWindow(time.Time{}, explicitEnd)
	assert.Equal(t, explicitEnd, end)
}
