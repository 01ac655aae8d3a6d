package ole

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/outlookctl/internal/outlook"
)

// Name is the backend name used in configuration.
const Name = "ole"

// progID is the automation server started or attached to by Open.
const progID = "Outlook.Application"

// Automation constants not covered by the outlook package.
const (
	olMailItem        = 0
	olAppointmentItem = 1
	olFolderClass     = 2
)

// Options configures a Backend.
type Options struct {
	Logger *slog.Logger
}

// Backend opens stores on the local Outlook installation.
type Backend struct {
	opts Options
}

// New creates a Backend.
func New(opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Backend{opts: opts}
}

// Name implements outlook.Backend.
func (b *Backend) Name() string {
	return Name
}

// itemTypeClass maps a folder's DefaultItemType to an ItemClass.
func itemTypeClass(t int) outlook.ItemClass {
	switch t {
	case olMailItem:
		return outlook.ClassMail
	case olAppointmentItem:
		return outlook.ClassAppointment
	default:
		return outlook.ClassOther
	}
}

// recurrenceName maps an OlRecurrenceType to its display name.
func recurrenceName(t int) (string, error) {
	switch t {
	case 0:
		return "Daily", nil
	case 1:
		return "Weekly", nil
	case 2, 3:
		return "Monthly", nil
	case 5, 6:
		return "Yearly", nil
	default:
		return "", fmt.Errorf("%w: recurrence type %d", outlook.ErrExternalFault, t)
	}
}

// trimFreeBusy drops the characters Outlook reports for the part of the
// day before start. The string it returns begins at midnight of start.
func trimFreeBusy(fb string, start time.Time, intervalMinutes int) string {
	if intervalMinutes <= 0 {
		return fb
	}
	midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	skip := int(start.Sub(midnight) / (time.Duration(intervalMinutes) * time.Minute))
	if skip >= len(fb) {
		return ""
	}
	return fb[skip:]
}

// exhaustionMarkers are fragments of the error Outlook raises when the
// per-session limit of open items is reached.
var exhaustionMarkers = []string{
	"limited the number of items you can open",
	"too many items open",
}

// classify wraps an automation error in the matching outlook sentinel.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, m := range exhaustionMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %s: %w", outlook.ErrResourceExhausted, op, err)
		}
	}
	if errors.Is(err, outlook.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", outlook.ErrExternalFault, op, err)
}
