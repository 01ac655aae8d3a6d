package availability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/outlookctl/internal/logging"
)

// Source supplies free/busy data for attendees.
type Source interface {
	// FreeBusy returns the busy slots of email over [start, end).
	FreeBusy(ctx context.Context, email string, start, end time.Time) (FreeBusyResult, error)

	// CurrentUser returns the caller's own address.
	CurrentUser(ctx context.Context) (string, error)
}

// Request describes a common slot search.
type Request struct {
	Attendees   []string
	Start       time.Time
	End         time.Time
	Duration    time.Duration
	IncludeSelf bool
}

// Finder searches free/busy data for slots every attendee can attend.
type Finder struct {
	source   Source
	interval time.Duration
	hours    BusinessHours
	logger   *slog.Logger
}

// NewFinder creates a Finder. A zero interval uses DefaultInterval.
func NewFinder(source Source, interval time.Duration, hours BusinessHours, logger *slog.Logger) *Finder {
	if interval == 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{source: source, interval: interval, hours: hours, logger: logger}
}

// FindCommonSlots resolves the attendee list, loads each attendee's busy
// slots and sweeps the window for free slots. Any attendee whose
// free/busy data cannot be loaded fails the whole search.
func (f *Finder) FindCommonSlots(ctx context.Context, req Request) ([]AvailableSlot, error) {
	if req.Duration <= 0 || f.interval <= 0 {
		return nil, ErrInvalidDuration
	}
	if err := f.hours.Validate(); err != nil {
		return nil, err
	}

	attendees := req.Attendees
	if req.IncludeSelf {
		self, err := f.source.CurrentUser(ctx)
		if err != nil {
			f.logger.Warn("could not determine own address, searching without it", logging.Err(err))
		} else {
			attendees = MergeAttendees(attendees, self)
		}
	}

	busy := make([][]FreeBusySlot, 0, len(attendees))
	for _, a := range attendees {
		res, err := f.source.FreeBusy(ctx, a, req.Start, req.End)
		if err != nil {
			return nil, fmt.Errorf("failed to get free/busy for %s: %w", a, err)
		}
		busy = append(busy, res.BusySlots)
	}

	return Sweep(Window{
		Start:    req.Start,
		End:      req.End,
		Duration: req.Duration,
		Interval: f.interval,
		Hours:    f.hours,
	}, attendees, busy), nil
}

// Window parameterizes Sweep.
type Window struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Interval time.Duration
	Hours    BusinessHours
}

// Sweep walks the window in Interval steps and greedily places
// non-overlapping slots of Duration that lie inside business hours on a
// weekday and overlap no busy slot of any attendee. busy holds one slot
// list per attendee.
func Sweep(w Window, attendees []string, busy [][]FreeBusySlot) []AvailableSlot {
	var slots []AvailableSlot
	if w.Duration <= 0 || w.Interval <= 0 {
		return slots
	}

	cur := w.Start
	for !cur.Add(w.Duration).After(w.End) {
		if isWeekend(cur) {
			cur = nextDayAt(cur, w.Hours.StartHour)
			continue
		}
		dayStart := atHour(cur, w.Hours.StartHour)
		if cur.Before(dayStart) {
			cur = dayStart
			continue
		}
		slotEnd := cur.Add(w.Duration)
		if slotEnd.After(atHour(cur, w.Hours.EndHour)) {
			cur = nextDayAt(cur, w.Hours.StartHour)
			continue
		}

		if allFree(busy, cur, slotEnd) {
			slots = append(slots, AvailableSlot{
				Start:           cur,
				End:             slotEnd,
				DurationMinutes: int(w.Duration / time.Minute),
				Attendees:       append([]string(nil), attendees...),
			})
			cur = slotEnd
		} else {
			cur = cur.Add(w.Interval)
		}
	}
	return slots
}

func allFree(busy [][]FreeBusySlot, start, end time.Time) bool {
	for _, slots := range busy {
		for _, b := range slots {
			if b.Overlaps(start, end) {
				return false
			}
		}
	}
	return true
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// atHour returns hour:00 on t's calendar day in t's location.
func atHour(t time.Time, hour int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, t.Location())
}

// nextDayAt returns hour:00 on the calendar day after t.
func nextDayAt(t time.Time, hour int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, hour, 0, 0, 0, t.Location())
}

// MergeAttendees appends self to attendees unless an address equal to it
// ignoring case is already present. The input slice is not modified.
func MergeAttendees(attendees []string, self string) []string {
	out := append([]string(nil), attendees...)
	if self == "" {
		return out
	}
	for _, a := range attendees {
		if strings.EqualFold(a, self) {
			return out
		}
	}
	return append(out, self)
}

// DefaultSearchWindow returns the window used when find-slots is called
// without bounds: from midnight tomorrow until five weekdays later.
func DefaultSearchWindow(now time.Time) (time.Time, time.Time) {
	start := nextDayAt(now, 0)
	return start, AddWeekdays(start, 5)
}

// AddWeekdays advances t by n weekdays, skipping Saturdays and Sundays.
func AddWeekdays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if !isWeekend(t) {
			n--
		}
	}
	return t
}
