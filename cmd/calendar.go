package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/tools/batch"
)

const (
	defaultEventLimit      = 50
	defaultDurationMinutes = 60
)

func newCalendarCmds(o *rootOptions) []*cobra.Command {
	return []*cobra.Command{
		newEventsCmd(o),
		newEventCmd(o),
		newDeleteEventCmd(o),
		newOpenEventCmd(o),
		newFreeBusyCmd(o),
		newFindSlotsCmd(o),
	}
}

// rangeFlags holds the --start and --end flags of a command.
type rangeFlags struct {
	start, end string
}

func (r *rangeFlags) register(cmd *cobra.Command, startDefault, endDefault string) {
	cmd.Flags().StringVar(&r.start, "start", "", "Start of the range (RFC3339 or YYYY-MM-DD, default: "+startDefault+")")
	cmd.Flags().StringVar(&r.end, "end", "", "End of the range (RFC3339 or YYYY-MM-DD, default: "+endDefault+")")
}

func (r *rangeFlags) parse() (time.Time, time.Time, error) {
	start, err := timeFlag("start", r.start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := timeFlag("end", r.end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func newEventsCmd(o *rootOptions) *cobra.Command {
	var (
		window rangeFlags
		limit  int
		full   bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List calendar events in start order, recurring occurrences included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window.parse()
			if err != nil {
				return o.invalid(cmd.Name(), err)
			}
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				start, end := s.EventWindow(start, end)
				if full {
					return s.ListEventsFull(ctx, start, end, limit)
				}
				return s.ListEvents(ctx, start, end, limit)
			})
		},
	}

	window.register(cmd, "today 00:00", "one month after start")
	cmd.Flags().IntVar(&limit, "limit", defaultEventLimit, "Maximum number of events")
	cmd.Flags().BoolVar(&full, "full", false, "Include body, attendees, organizer and recurrence")

	return cmd
}

func newEventCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "event ID",
		Short: "Show the details of a calendar event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				return s.GetEvent(ctx, args[0])
			})
		},
	}
}

func newDeleteEventCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-event ID",
		Short: "Delete a calendar event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				if err := s.DeleteEvent(ctx, args[0]); err != nil {
					return nil, err
				}
				return actionResult{ID: args[0], Action: "deleted"}, nil
			})
		},
	}
}

func newOpenEventCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open-event ID",
		Short: "Display a calendar event in Outlook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				if err := s.OpenItem(ctx, args[0], outlook.ClassAppointment); err != nil {
					return nil, err
				}
				return actionResult{ID: args[0], Action: "opened"}, nil
			})
		},
	}
}

func newFreeBusyCmd(o *rootOptions) *cobra.Command {
	var window rangeFlags

	cmd := &cobra.Command{
		Use:   "free-busy EMAIL",
		Short: "Show the busy periods of a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window.parse()
			if err != nil {
				return o.invalid(cmd.Name(), err)
			}
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				start, end := s.FreeBusyWindow(start, end)
				return s.FreeBusy(ctx, args[0], start, end)
			})
		},
	}

	window.register(cmd, "today 00:00", "one day after start")

	return cmd
}

func newFindSlotsCmd(o *rootOptions) *cobra.Command {
	var (
		window      rangeFlags
		minutes     int
		includeSelf bool
	)

	cmd := &cobra.Command{
		Use:   "find-slots ATTENDEE...",
		Short: "Find meeting slots in business hours when every attendee is free",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attendees, err := batch.ParseStringOrArray(args, "ATTENDEE")
			if err != nil {
				return o.invalid(cmd.Name(), err)
			}
			start, end, err := window.parse()
			if err != nil {
				return o.invalid(cmd.Name(), err)
			}
			duration := time.Duration(minutes) * time.Minute
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				start, end := s.SlotWindow(start, end)
				return s.FindSlots(ctx, attendees, start, end, duration, includeSelf)
			})
		},
	}

	window.register(cmd, "tomorrow 00:00", "five weekdays after start")
	cmd.Flags().IntVar(&minutes, "duration", defaultDurationMinutes, "Meeting duration in minutes")
	cmd.Flags().BoolVar(&includeSelf, "include-self", true, "Also require the current user to be free")

	return cmd
}
