package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/teemow/outlookctl/internal/availability"
	"github.com/teemow/outlookctl/internal/logging"
	"github.com/teemow/outlookctl/internal/outlook"
)

// calendarEvent is a possibly recurring busy period.
type calendarEvent struct {
	uid     string
	start   time.Time
	end     time.Time
	rrule   string
	exdates []time.Time
	status  availability.Status
}

// occurrences expands rule starting at dtstart into the occurrence
// starts within [from, to], excluding exdates.
func occurrences(rule string, dtstart time.Time, exdates []time.Time, from, to time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid RRULE %q: %w", rule, err)
	}
	r.DTStart(dtstart)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(ex.In(dtstart.Location()))
	}

	starts := set.Between(from.In(dtstart.Location()), to.In(dtstart.Location()), true)
	if len(starts) > maxOccurrences {
		starts = starts[:maxOccurrences]
	}
	return starts, nil
}

// periods returns the busy periods of ev that intersect [from, to).
func (ev calendarEvent) periods(from, to time.Time) ([]availability.FreeBusySlot, error) {
	dur := ev.end.Sub(ev.start)
	if ev.rrule == "" {
		if ev.start.Before(to) && ev.end.After(from) {
			return []availability.FreeBusySlot{{Start: ev.start, End: ev.end, Status: ev.status}}, nil
		}
		return nil, nil
	}
	// Occurrences starting before from may still overlap it.
	starts, err := occurrences(ev.rrule, ev.start, ev.exdates, from.Add(-dur), to)
	if err != nil {
		return nil, err
	}
	out := make([]availability.FreeBusySlot, 0, len(starts))
	for _, st := range starts {
		end := st.Add(dur)
		if st.Before(to) && end.After(from) {
			out = append(out, availability.FreeBusySlot{Start: st, End: end, Status: ev.status})
		}
	}
	return out, nil
}

// freeBusy renders the free/busy string of a recipient from start on,
// one character per interval. A character holds the strongest status
// of any period overlapping its interval.
func (s *Store) freeBusy(address string, rd *RecipientData, start time.Time, interval time.Duration) (string, error) {
	events, err := s.calendarEvents(address, rd)
	if err != nil {
		return "", fmt.Errorf("%w: %w", outlook.ErrExternalFault, err)
	}

	end := start.Add(freeBusyHorizon)
	ticks := make([]availability.Status, int(freeBusyHorizon/interval))
	for _, ev := range events {
		slots, err := ev.periods(start, end)
		if err != nil {
			s.logger.Warn("skipping event with invalid recurrence",
				logging.Item(ev.uid), logging.Err(err))
			continue
		}
		for _, slot := range slots {
			first := int(slot.Start.Sub(start) / interval)
			if first < 0 {
				first = 0
			}
			for i := first; i < len(ticks); i++ {
				if !start.Add(time.Duration(i) * interval).Before(slot.End) {
					break
				}
				if slot.Status > ticks[i] {
					ticks[i] = slot.Status
				}
			}
		}
	}

	var b strings.Builder
	b.Grow(len(ticks))
	for _, st := range ticks {
		b.WriteByte(byte('0' + st))
	}
	return b.String(), nil
}

// calendarEvents returns the events behind a recipient's free/busy
// data: its iCalendar source, or the mailbox calendar for the user.
func (s *Store) calendarEvents(address string, rd *RecipientData) ([]calendarEvent, error) {
	switch {
	case rd != nil && rd.ICS != "":
		return parseCalendar([]byte(rd.ICS))
	case rd != nil && rd.Calendar != "":
		path := rd.Calendar
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(s.backend.path), path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read calendar of %s: %w", address, err)
		}
		return parseCalendar(data)
	case s.isUser(address):
		return s.ownEvents(), nil
	default:
		return nil, nil
	}
}

// ownEvents converts the appointments of the calendar folder.
func (s *Store) ownEvents() []calendarEvent {
	cal := s.kinds[outlook.FolderCalendar]
	if cal == nil {
		return nil
	}
	var out []calendarEvent
	for _, d := range cal.Items {
		if d.itemClass() != outlook.ClassAppointment {
			continue
		}
		status := parseBusyStatus(d.BusyStatus)
		if status == availability.Free {
			continue
		}
		out = append(out, calendarEvent{
			uid:     d.ID,
			start:   d.Start,
			end:     d.End,
			rrule:   d.RRule,
			exdates: d.ExDates,
			status:  status,
		})
	}
	return out
}

func parseBusyStatus(s string) availability.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return availability.Free
	case "tentative":
		return availability.Tentative
	case "oof", "outofoffice", "out_of_office":
		return availability.OutOfOffice
	default:
		return availability.Busy
	}
}

// parseCalendar extracts busy periods from an iCalendar document.
// Events without a usable start are skipped.
func parseCalendar(data []byte) ([]calendarEvent, error) {
	if len(data) == 0 {
		return nil, errors.New("empty calendar")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var out []calendarEvent
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil || !end.After(start) {
			end = start.Add(24 * time.Hour)
		}
		ev := calendarEvent{start: start, end: end, status: eventStatus(ve)}
		if ev.status == availability.Free {
			continue
		}
		if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
			ev.uid = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
			ev.rrule = p.Value
		}
		for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
			for _, part := range strings.Split(p.Value, ",") {
				if t, err := parseICSTime(strings.TrimSpace(part), start.Location()); err == nil {
					ev.exdates = append(ev.exdates, t)
				}
			}
		}
		out = append(out, ev)
	}
	return out, nil
}

// eventStatus maps the busy status of an event. The Microsoft busy
// status property wins over TRANSP and STATUS.
func eventStatus(ve *ical.VEvent) availability.Status {
	if p := ve.GetProperty(ical.ComponentProperty("X-MICROSOFT-CDO-BUSYSTATUS")); p != nil {
		return parseBusyStatus(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentProperty("TRANSP")); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		return availability.Free
	}
	if p := ve.GetProperty(ical.ComponentProperty("STATUS")); p != nil {
		switch strings.ToUpper(p.Value) {
		case "TENTATIVE":
			return availability.Tentative
		case "CANCELLED":
			return availability.Free
		}
	}
	return availability.Busy
}

func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
