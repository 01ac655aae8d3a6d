package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	self    string
	selfErr error
	busy    map[string][]FreeBusySlot
	queried []string
}

func (f *fakeSource) FreeBusy(_ context.Context, email string, start, end time.Time) (FreeBusyResult, error) {
	f.queried = append(f.queried, email)
	slots, ok := f.busy[strings.ToLower(email)]
	if !ok {
		return FreeBusyResult{}, fmt.Errorf("unknown attendee %s", email)
	}
	return FreeBusyResult{Email: email, RangeStart: start, RangeEnd: end, BusySlots: slots}, nil
}

func (f *fakeSource) CurrentUser(context.Context) (string, error) {
	return f.self, f.selfErr
}

func busy(start, end time.Time) FreeBusySlot {
	return FreeBusySlot{Start: start, End: end, Status: Busy}
}

func starts(slots []AvailableSlot) []time.Time {
	out := make([]time.Time, len(slots))
	for i, s := range slots {
		out[i] = s.Start
	}
	return out
}

func TestSweep_TwoAttendees(t *testing.T) {
	w := Window{Start: at(9, 0), End: at(17, 0), Duration: time.Hour, Interval: DefaultInterval, Hours: DefaultBusinessHours}
	slots := Sweep(w, []string{"a", "b"}, [][]FreeBusySlot{
		{busy(at(9, 0), at(10, 0))},
		{busy(at(15, 0), at(17, 0))},
	})

	assert.Equal(t, []time.Time{at(10, 0), at(11, 0), at(12, 0), at(13, 0), at(14, 0)}, starts(slots))
	for _, s := range slots {
		assert.Equal(t, 60, s.DurationMinutes)
		assert.Equal(t, s.Start.Add(time.Hour), s.End)
		assert.Equal(t, []string{"a", "b"}, s.Attendees)
	}
}

func TestSweep_StepsByInterval(t *testing.T) {
	w := Window{Start: at(9, 0), End: at(11, 0), Duration: time.Hour, Interval: DefaultInterval, Hours: DefaultBusinessHours}
	slots := Sweep(w, nil, [][]FreeBusySlot{{busy(at(9, 0), at(9, 30))}})

	assert.Equal(t, []time.Time{at(9, 30)}, starts(slots), "10:30-11:30 would leave the window")
}

func TestSweep_ClampsToBusinessHours(t *testing.T) {
	start := time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 4, 11, 0, 0, 0, time.UTC)
	w := Window{Start: start, End: end, Duration: 4 * time.Hour, Interval: DefaultInterval, Hours: DefaultBusinessHours}

	slots := Sweep(w, nil, nil)
	assert.Equal(t, []time.Time{at(9, 0), at(13, 0)}, starts(slots), "Tuesday 09:00-13:00 ends after the window")
}

func TestSweep_SkipsWeekends(t *testing.T) {
	saturday := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	w := Window{Start: saturday, End: monday, Duration: time.Hour, Interval: DefaultInterval, Hours: DefaultBusinessHours}

	slots := Sweep(w, nil, nil)
	assert.Equal(t, []time.Time{at(9, 0), at(10, 0), at(11, 0)}, starts(slots))
}

func TestSweep_Degenerate(t *testing.T) {
	assert.Empty(t, Sweep(Window{Start: at(9, 0), End: at(17, 0), Interval: DefaultInterval, Hours: DefaultBusinessHours}, nil, nil))
	assert.Empty(t, Sweep(Window{Start: at(9, 0), End: at(17, 0), Duration: time.Hour, Hours: DefaultBusinessHours}, nil, nil))
	assert.Empty(t, Sweep(Window{Start: at(17, 0), End: at(9, 0), Duration: time.Hour, Interval: DefaultInterval, Hours: DefaultBusinessHours}, nil, nil))
}

func TestSweep_Properties(t *testing.T) {
	start := time.Date(2025, 3, 6, 7, 30, 0, 0, time.UTC) // Thursday
	end := start.AddDate(0, 0, 6)
	attendees := [][]FreeBusySlot{
		{busy(start.Add(2*time.Hour), start.Add(4*time.Hour)), busy(start.Add(26*time.Hour), start.Add(27*time.Hour))},
		{busy(start.Add(5*time.Hour), start.Add(5*time.Hour+30*time.Minute)), busy(start.AddDate(0, 0, 4), start.AddDate(0, 0, 4).Add(9*time.Hour))},
		{},
	}

	for _, d := range []time.Duration{30 * time.Minute, time.Hour, 90 * time.Minute, 3 * time.Hour} {
		t.Run(d.String(), func(t *testing.T) {
			w := Window{Start: start, End: end, Duration: d, Interval: DefaultInterval, Hours: DefaultBusinessHours}
			slots := Sweep(w, []string{"a", "b", "c"}, attendees)
			require.NotEmpty(t, slots)

			for i, s := range slots {
				assert.Equal(t, d, s.End.Sub(s.Start))
				assert.False(t, isWeekend(s.Start), "slot on a weekend: %s", s.Start)
				assert.GreaterOrEqual(t, s.Start.Hour(), DefaultBusinessHours.StartHour)
				assert.False(t, s.End.After(atHour(s.Start, DefaultBusinessHours.EndHour)), "slot after hours: %s", s.End)
				assert.False(t, s.Start.Before(start))
				assert.False(t, s.End.After(end))
				for _, b := range attendees {
					for _, slot := range b {
						assert.False(t, slot.Overlaps(s.Start, s.End), "slot %s overlaps busy %s", s.Start, slot.Start)
					}
				}
				if i > 0 {
					assert.False(t, s.Start.Before(slots[i-1].End), "slots overlap at %s", s.Start)
				}
			}

			assert.Equal(t, slots, Sweep(w, []string{"a", "b", "c"}, attendees), "sweep is deterministic")
		})
	}
}

func TestFinder_FindCommonSlots(t *testing.T) {
	src := &fakeSource{
		self: "Me@Contoso.com",
		busy: map[string][]FreeBusySlot{
			"bob@contoso.com": {busy(at(9, 0), at(10, 0))},
			"me@contoso.com":  {busy(at(15, 0), at(17, 0))},
		},
	}
	f := NewFinder(src, 0, DefaultBusinessHours, nil)

	slots, err := f.FindCommonSlots(context.Background(), Request{
		Attendees:   []string{"bob@contoso.com", "me@contoso.com"},
		Start:       at(9, 0),
		End:         at(17, 0),
		Duration:    time.Hour,
		IncludeSelf: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bob@contoso.com", "me@contoso.com"}, src.queried, "own address is not queried twice")
	assert.Len(t, slots, 5)
}

func TestFinder_SelfLookupFailure(t *testing.T) {
	src := &fakeSource{
		selfErr: errors.New("profile unavailable"),
		busy:    map[string][]FreeBusySlot{"bob@contoso.com": nil},
	}
	f := NewFinder(src, DefaultInterval, DefaultBusinessHours, nil)

	slots, err := f.FindCommonSlots(context.Background(), Request{
		Attendees:   []string{"bob@contoso.com"},
		Start:       at(9, 0),
		End:         at(11, 0),
		Duration:    time.Hour,
		IncludeSelf: true,
	})
	require.NoError(t, err)
	assert.Len(t, slots, 2)
	assert.Equal(t, []string{"bob@contoso.com"}, src.queried)
}

func TestFinder_Errors(t *testing.T) {
	src := &fakeSource{busy: map[string][]FreeBusySlot{}}
	ctx := context.Background()

	_, err := NewFinder(src, DefaultInterval, DefaultBusinessHours, nil).FindCommonSlots(ctx, Request{
		Attendees: []string{"ghost@nowhere"},
		Start:     at(9, 0),
		End:       at(17, 0),
		Duration:  time.Hour,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost@nowhere")

	_, err = NewFinder(src, DefaultInterval, DefaultBusinessHours, nil).FindCommonSlots(ctx, Request{Duration: -time.Minute})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = NewFinder(src, DefaultInterval, BusinessHours{StartHour: 18, EndHour: 8}, nil).FindCommonSlots(ctx, Request{Duration: time.Hour})
	assert.ErrorIs(t, err, ErrInvalidHours)
}

func TestMergeAttendees(t *testing.T) {
	in := []string{"a@x.com", "B@x.com"}

	assert.Equal(t, []string{"a@x.com", "B@x.com"}, MergeAttendees(in, "b@X.com"))
	assert.Equal(t, []string{"a@x.com", "B@x.com", "c@x.com"}, MergeAttendees(in, "c@x.com"))
	assert.Equal(t, []string{"a@x.com", "B@x.com"}, MergeAttendees(in, ""))
	assert.Len(t, in, 2, "input is not modified")
	assert.Equal(t, []string{"me@x.com"}, MergeAttendees(nil, "me@x.com"))
}

func TestDefaultSearchWindow(t *testing.T) {
	wednesday := time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC)
	start, end := DefaultSearchWindow(wednesday)
	assert.Equal(t, time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), end)

	saturday := time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC)
	start, end = DefaultSearchWindow(saturday)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), end)
}
