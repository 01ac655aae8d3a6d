package availability

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nine = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2025, 3, 3, h, m, 0, 0, time.UTC)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []FreeBusySlot
	}{
		{
			name: "busy then tentative",
			raw:  "0022110000",
			want: []FreeBusySlot{
				{Start: at(10, 0), End: at(11, 0), Status: Busy},
				{Start: at(11, 0), End: at(12, 0), Status: Tentative},
			},
		},
		{
			name: "all free",
			raw:  "00000000",
			want: nil,
		},
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
		{
			name: "run reaching the end",
			raw:  "0333",
			want: []FreeBusySlot{
				{Start: at(9, 30), End: at(11, 0), Status: OutOfOffice},
			},
		},
		{
			name: "adjacent statuses stay separate",
			raw:  "21",
			want: []FreeBusySlot{
				{Start: at(9, 0), End: at(9, 30), Status: Busy},
				{Start: at(9, 30), End: at(10, 0), Status: Tentative},
			},
		},
		{
			name: "unknown characters are free",
			raw:  "2x2",
			want: []FreeBusySlot{
				{Start: at(9, 0), End: at(9, 30), Status: Busy},
				{Start: at(10, 0), End: at(10, 30), Status: Busy},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw, nine, 30*time.Minute)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_InvalidInterval(t *testing.T) {
	assert.Empty(t, Decode("222", nine, 0))
}

func TestDecodeWindow(t *testing.T) {
	raw := "0022110000" + "2222"

	got := DecodeWindow(raw, nine, at(14, 0), 30*time.Minute)
	require.Len(t, got, 2)
	assert.Equal(t, at(12, 0), got[1].End, "ticks after the window are dropped")

	short := DecodeWindow("22", nine, at(17, 0), 30*time.Minute)
	assert.Equal(t, []FreeBusySlot{{Start: at(9, 0), End: at(10, 0), Status: Busy}}, short)

	assert.Nil(t, DecodeWindow(raw, at(14, 0), nine, 30*time.Minute))
}

func TestStatus_Text(t *testing.T) {
	for _, s := range []Status{Free, Tentative, Busy, OutOfOffice} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("Away")))
	assert.Equal(t, "Status(9)", Status(9).String())
}

func TestFreeBusySlot_Overlaps(t *testing.T) {
	slot := FreeBusySlot{Start: at(10, 0), End: at(11, 0), Status: Busy}

	assert.True(t, slot.Overlaps(at(10, 30), at(11, 30)))
	assert.True(t, slot.Overlaps(at(9, 0), at(12, 0)))
	assert.False(t, slot.Overlaps(at(11, 0), at(12, 0)), "end is exclusive")
	assert.False(t, slot.Overlaps(at(9, 0), at(10, 0)), "start is exclusive on the other side")
}

func TestBusinessHours_Validate(t *testing.T) {
	assert.NoError(t, DefaultBusinessHours.Validate())
	assert.NoError(t, BusinessHours{StartHour: 0, EndHour: 24}.Validate())
	assert.ErrorIs(t, BusinessHours{StartHour: 17, EndHour: 9}.Validate(), ErrInvalidHours)
	assert.ErrorIs(t, BusinessHours{StartHour: 9, EndHour: 9}.Validate(), ErrInvalidHours)
	assert.ErrorIs(t, BusinessHours{StartHour: -1, EndHour: 9}.Validate(), ErrInvalidHours)
	assert.ErrorIs(t, BusinessHours{StartHour: 9, EndHour: 25}.Validate(), ErrInvalidHours)
}

// encode renders slots back into a free/busy string of n ticks.
func encode(slots []FreeBusySlot, start time.Time, interval time.Duration, n int) string {
	out := []byte(strings.Repeat("0", n))
	for _, slot := range slots {
		c := byte('0' + slot.Status)
		for t := slot.Start; t.Before(slot.End); t = t.Add(interval) {
			out[int(t.Sub(start)/interval)] = c
		}
	}
	return string(out)
}

func randomFreeBusy(r *rand.Rand, alphabet string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b)
}

func TestDecode_BusyOnlyCoversEveryTick(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	interval := 15 * time.Minute

	for i := 0; i < 500; i++ {
		raw := randomFreeBusy(r, "123", 1+r.Intn(96))

		slots := Decode(raw, nine, interval)
		require.NotEmpty(t, slots, raw)

		var total time.Duration
		for j, slot := range slots {
			require.NotEqual(t, Free, slot.Status, raw)
			require.True(t, slot.End.After(slot.Start), raw)
			total += slot.End.Sub(slot.Start)
			if j > 0 {
				prev := slots[j-1]
				require.Equal(t, prev.End, slot.Start, "%s: slots must be contiguous", raw)
				require.NotEqual(t, prev.Status, slot.Status, "%s: run split at %d", raw, j)
			}
		}
		require.Equal(t, time.Duration(len(raw))*interval, total, raw)
		assert.Equal(t, nine, slots[0].Start)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	interval := 30 * time.Minute

	for i := 0; i < 500; i++ {
		raw := randomFreeBusy(r, "0123", r.Intn(64))

		slots := Decode(raw, nine, interval)
		assert.Equal(t, raw, encode(slots, nine, interval, len(raw)))

		again := Decode(encode(slots, nine, interval, len(raw)), nine, interval)
		assert.Equal(t, slots, again, "decoding is stable under re-encoding")

		for j := 1; j < len(slots); j++ {
			if slots[j-1].End.Equal(slots[j].Start) {
				assert.NotEqual(t, slots[j-1].Status, slots[j].Status, "%s: adjacent runs share a status", raw)
			}
		}
	}
}
