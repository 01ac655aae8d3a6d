package availability

import "time"

// Decode turns a free/busy string into its non-Free runs. Each byte of
// raw covers one interval starting at start; consecutive ticks with the
// same status form one slot.
func Decode(raw string, start time.Time, interval time.Duration) []FreeBusySlot {
	var slots []FreeBusySlot
	if interval <= 0 || raw == "" {
		return slots
	}

	runStart := 0
	runStatus := StatusFromChar(raw[0])
	for i := 1; i <= len(raw); i++ {
		if i < len(raw) {
			if s := StatusFromChar(raw[i]); s == runStatus {
				continue
			}
		}
		if runStatus != Free {
			slots = append(slots, FreeBusySlot{
				Start:  start.Add(time.Duration(runStart) * interval),
				End:    start.Add(time.Duration(i) * interval),
				Status: runStatus,
			})
		}
		if i < len(raw) {
			runStart = i
			runStatus = StatusFromChar(raw[i])
		}
	}
	return slots
}

// DecodeWindow decodes only the ticks that fall inside [start, end).
// A string shorter than the window is decoded as far as it goes.
func DecodeWindow(raw string, start, end time.Time, interval time.Duration) []FreeBusySlot {
	if interval <= 0 || !end.After(start) {
		return nil
	}
	ticks := int(end.Sub(start) / interval)
	if ticks > len(raw) {
		ticks = len(raw)
	}
	return Decode(raw[:ticks], start, interval)
}
