package availability

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidDuration is returned for non-positive durations or intervals.
	ErrInvalidDuration = errors.New("availability: duration must be positive")

	// ErrInvalidHours is returned for business hours outside 0-24 or inverted.
	ErrInvalidHours = errors.New("availability: invalid business hours")
)

// DefaultInterval is the free/busy granularity used when none is configured.
const DefaultInterval = 30 * time.Minute

// Status is the availability of one free/busy tick.
type Status int

const (
	Free Status = iota
	Tentative
	Busy
	OutOfOffice
)

// StatusFromChar decodes one free/busy character. Unknown characters are Free.
func StatusFromChar(c byte) Status {
	switch c {
	case '1':
		return Tentative
	case '2':
		return Busy
	case '3':
		return OutOfOffice
	default:
		return Free
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Free:
		return "Free"
	case Tentative:
		return "Tentative"
	case Busy:
		return "Busy"
	case OutOfOffice:
		return "OutOfOffice"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for _, v := range []Status{Free, Tentative, Busy, OutOfOffice} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("availability: unknown status %q", text)
}

// FreeBusySlot is a half-open interval [Start, End) with one status.
type FreeBusySlot struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status Status    `json:"status"`
}

// Overlaps reports whether the slot intersects [start, end).
func (s FreeBusySlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && s.End.After(start)
}

// FreeBusyResult holds the busy slots of one attendee over a range.
type FreeBusyResult struct {
	Email      string         `json:"email"`
	RangeStart time.Time      `json:"rangeStart"`
	RangeEnd   time.Time      `json:"rangeEnd"`
	BusySlots  []FreeBusySlot `json:"busySlots"`
}

// AvailableSlot is a meeting slot free for every attendee.
type AvailableSlot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"durationMinutes"`
	Attendees       []string  `json:"attendees"`
}

// BusinessHours bounds the part of each weekday searched for slots.
type BusinessHours struct {
	StartHour int
	EndHour   int
}

// DefaultBusinessHours is 09:00 to 17:00.
var DefaultBusinessHours = BusinessHours{StartHour: 9, EndHour: 17}

// Validate checks that the hours describe a non-empty part of a day.
func (h BusinessHours) Validate() error {
	if h.StartHour < 0 || h.EndHour > 24 || h.StartHour >= h.EndHour {
		return fmt.Errorf("%w: %02d:00-%02d:00", ErrInvalidHours, h.StartHour, h.EndHour)
	}
	return nil
}
