package outlook

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/outlookctl/internal/availability"
)

// inputTimeLayouts are accepted by ParseTime, most specific first.
var inputTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses a user supplied time. Values without an offset are
// interpreted in loc; the result is always expressed in loc, the zone
// store filters are written in.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected RFC3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD)", s)
}

func (s *Session) today() time.Time {
	now := s.now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// FreeBusyWindow defaults a zero start to today 00:00 and a zero end to
// one day after start.
func (s *Session) FreeBusyWindow(start, end time.Time) (time.Time, time.Time) {
	if start.IsZero() {
		start = s.today()
	}
	if end.IsZero() {
		end = start.AddDate(0, 0, 1)
	}
	return start, end
}

// SlotWindow defaults a zero start to tomorrow 00:00 and a zero end to
// five weekdays after start.
func (s *Session) SlotWindow(start, end time.Time) (time.Time, time.Time) {
	if start.IsZero() {
		start, _ = availability.DefaultSearchWindow(s.now())
	}
	if end.IsZero() {
		end = availability.AddWeekdays(start, 5)
	}
	return start, end
}
