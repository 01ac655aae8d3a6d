package outlook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/outlookctl/internal/availability"
	"github.com/teemow/outlookctl/internal/instrumentation"
	"github.com/teemow/outlookctl/internal/logging"
)

// Options configures a Session.
type Options struct {
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
	Interval time.Duration
	Hours    availability.BusinessHours
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Session owns a Store and every handle acquired through it. A Session
// must be used from the goroutine that opened it and closed exactly once.
type Session struct {
	id       string
	store    Store
	reg      *Registry
	folders  *FolderResolver
	finder   *availability.Finder
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	interval time.Duration
	now      func() time.Time
	closed   bool
}

// Open opens a store from backend and returns a session owning it.
func Open(ctx context.Context, backend Backend, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = availability.DefaultInterval
	}
	if opts.Hours == (availability.BusinessHours{}) {
		opts.Hours = availability.DefaultBusinessHours
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	store, err := backend.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", backend.Name(), err)
	}

	id := uuid.NewString()
	logger := logging.WithSession(opts.Logger, id, backend.Name())
	reg := NewRegistry(ctx, logger, opts.Metrics)
	Track(reg, store)

	s := &Session{
		id:       id,
		store:    store,
		reg:      reg,
		folders:  NewFolderResolver(store, reg, logger, opts.Metrics),
		logger:   logger,
		metrics:  opts.Metrics,
		interval: opts.Interval,
		now:      opts.Now,
	}
	s.finder = availability.NewFinder(s, opts.Interval, opts.Hours, logger)
	opts.Metrics.IncrementActiveSessions(ctx)
	logger.Debug("session opened")
	return s, nil
}

// ID returns the session identifier used in logs and spans.
func (s *Session) ID() string {
	return s.id
}

// Close flushes buffered changes, then releases every handle the
// session acquired, the store last. Handles are released even when the
// flush fails; the flush error is returned. Calling Close again is a
// no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if f, ok := s.store.(Flusher); ok {
		if ferr := f.Flush(); ferr != nil {
			err = fmt.Errorf("failed to save changes: %w", ferr)
			s.logger.Warn("changes were not saved", logging.Err(ferr))
		}
	}
	n := s.reg.ReleaseAll()
	s.metrics.DecrementActiveSessions(s.reg.ctx)
	s.logger.Debug("session closed", slog.Int("released", n))
	return err
}

// begin starts a span and returns a function that records the outcome.
func (s *Session) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error) error) {
	start := time.Now()
	attrs = append(attrs, attribute.String(instrumentation.SpanAttrSession, s.id))
	ctx, span := instrumentation.StartOutlookSpan(ctx, op, attrs...)
	return ctx, func(err error) error {
		defer span.End()
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
			s.logger.Debug("operation failed", logging.Operation(op), logging.Err(err))
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		s.metrics.RecordOutlookOperation(ctx, op, status, time.Since(start))
		return err
	}
}

func (s *Session) check() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// ResolveFolder resolves a folder name, alias or the inbox when name is empty.
func (s *Session) ResolveFolder(ctx context.Context, name string) (ref *FolderRef, err error) {
	_, done := s.begin(ctx, "folder.resolve", attribute.String(instrumentation.SpanAttrFolder, name))
	defer func() { err = done(err) }()
	if err = s.check(); err != nil {
		return nil, err
	}
	return s.folders.Resolve(name)
}

// ListFolders lists every mail folder below the mailbox root.
func (s *Session) ListFolders(ctx context.Context) (folders []FolderInfo, err error) {
	_, done := s.begin(ctx, "folder.list")
	defer func() { err = done(err) }()
	if err = s.check(); err != nil {
		return nil, err
	}
	return s.folders.List()
}

// ListOptions selects the mail returned by ListMail.
type ListOptions struct {
	Folder     string
	UnreadOnly bool
	Limit      int
}

// ListMail returns mail summaries, newest first.
func (s *Session) ListMail(ctx context.Context, opts ListOptions) (out []MessageSummary, err error) {
	_, done := s.begin(ctx, "mail.list", attribute.String(instrumentation.SpanAttrFolder, opts.Folder))
	defer func() { err = done(err) }()
	return listMail(s, opts, mapMessageSummary)
}

// ListMailFull returns full mail records, newest first.
func (s *Session) ListMailFull(ctx context.Context, opts ListOptions) (out []Message, err error) {
	_, done := s.begin(ctx, "mail.list_full", attribute.String(instrumentation.SpanAttrFolder, opts.Folder))
	defer func() { err = done(err) }()
	return listMail(s, opts, mapMessage)
}

func listMail[T any](s *Session, opts ListOptions, mapFn func(Item, string) (T, error)) ([]T, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	ref, items, err := s.folderItems(opts.Folder)
	if err != nil {
		return nil, err
	}
	q := Query{SortKey: PropReceivedTime, Descending: true, Class: ClassMail, Limit: opts.Limit}
	if opts.UnreadOnly {
		q.Filter = UnreadFilter()
	}
	name := ref.Name()
	return Enumerate(NewCursor(s.reg, s.logger, s.metrics, "mail.list"), items, q, func(it Item) (T, error) {
		return mapFn(it, name)
	})
}

// SearchMail returns mail in folder matching criteria, newest first.
func (s *Session) SearchMail(ctx context.Context, folder string, criteria SearchCriteria, limit int) (out []MessageSummary, err error) {
	_, done := s.begin(ctx, "mail.search", attribute.String(instrumentation.SpanAttrFolder, folder))
	defer func() { err = done(err) }()
	if err = s.check(); err != nil {
		return nil, err
	}
	ref, items, err := s.folderItems(folder)
	if err != nil {
		return nil, err
	}
	q := Query{
		SortKey:    PropReceivedTime,
		Descending: true,
		Filter:     criteria.Filter(),
		Class:      ClassMail,
		Limit:      limit,
	}
	name := ref.Name()
	return Enumerate(NewCursor(s.reg, s.logger, s.metrics, "mail.search"), items, q, func(it Item) (MessageSummary, error) {
		return mapMessageSummary(it, name)
	})
}

// ReadMail returns the full record of one mail item.
func (s *Session) ReadMail(ctx context.Context, id string) (msg Message, err error) {
	_, done := s.begin(ctx, "mail.read")
	defer func() { err = done(err) }()
	item, err := s.itemOfClass(id, ClassMail)
	if err != nil {
		return Message{}, err
	}
	folder := ""
	if parent, perr := item.Parent(); perr == nil {
		Track(s.reg, parent)
		folder = optional(parent.Name())
	}
	return mapMessage(item, folder)
}

// Conversation returns the mail sharing the conversation topic of id
// across the inbox, sent items and drafts, oldest first.
func (s *Session) Conversation(ctx context.Context, id string, limit int) (out []MessageSummary, err error) {
	_, done := s.begin(ctx, "mail.conversation")
	defer func() { err = done(err) }()
	return conversation(s, id, limit, mapMessageSummary, func(m MessageSummary) MessageSummary { return m })
}

// ConversationFull is Conversation returning full records.
func (s *Session) ConversationFull(ctx context.Context, id string, limit int) (out []Message, err error) {
	_, done := s.begin(ctx, "mail.conversation_full")
	defer func() { err = done(err) }()
	return conversation(s, id, limit, mapMessage, func(m Message) MessageSummary { return m.MessageSummary })
}

var conversationFolders = []FolderKind{FolderInbox, FolderSent, FolderDrafts}

func conversation[T any](s *Session, id string, limit int, mapFn func(Item, string) (T, error), summary func(T) MessageSummary) ([]T, error) {
	item, err := s.itemOfClass(id, ClassMail)
	if err != nil {
		return nil, err
	}
	mail, ok := item.(MailItem)
	if !ok {
		return nil, fmt.Errorf("%w: item %s has no mail fields", ErrWrongItemClass, id)
	}
	topic, err := mail.ConversationTopic()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read conversation topic: %w", ErrExternalFault, err)
	}
	out := []T{}
	if topic == "" {
		return out, nil
	}

	seen := make(map[string]bool)
	cursor := NewCursor(s.reg, s.logger, s.metrics, "mail.conversation")
	for _, kind := range conversationFolders {
		ref, err := s.folders.Default(kind)
		if err != nil {
			s.logger.Debug("skipping conversation folder", logging.Folder(kind.String()), logging.Err(err))
			continue
		}
		items, err := ref.Folder.Items()
		if err != nil {
			s.logger.Debug("skipping conversation folder", logging.Folder(kind.String()), logging.Err(err))
			continue
		}
		Track(s.reg, items)
		name := ref.Name()
		recs, err := Enumerate(cursor, items, Query{Filter: ConversationFilter(topic), Class: ClassMail}, func(it Item) (T, error) {
			return mapFn(it, name)
		})
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			eid := summary(r).EntryID
			if seen[eid] {
				continue
			}
			seen[eid] = true
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return summary(out[i]).ReceivedTime.Before(summary(out[j]).ReceivedTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SetRead marks a mail item read or unread.
func (s *Session) SetRead(ctx context.Context, id string, read bool) (err error) {
	_, done := s.begin(ctx, "mail.set_read")
	defer func() { err = done(err) }()
	m, err := s.mutableMail(id)
	if err != nil {
		return err
	}
	if err := m.SetUnread(!read); err != nil {
		return fmt.Errorf("%w: failed to set unread flag: %w", ErrExternalFault, err)
	}
	return s.save(m)
}

// Categories returns the categories assigned to a mail item.
func (s *Session) Categories(ctx context.Context, id string) (cats []string, err error) {
	_, done := s.begin(ctx, "mail.categories")
	defer func() { err = done(err) }()
	item, err := s.itemOfClass(id, ClassMail)
	if err != nil {
		return nil, err
	}
	mail, ok := item.(MailItem)
	if !ok {
		return nil, fmt.Errorf("%w: item %s has no mail fields", ErrWrongItemClass, id)
	}
	raw, err := mail.Categories()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read categories: %w", ErrExternalFault, err)
	}
	return ParseCategories(raw), nil
}

// SetCategories replaces the categories of a mail item.
func (s *Session) SetCategories(ctx context.Context, id string, categories []string) (err error) {
	_, done := s.begin(ctx, "mail.set_categories")
	defer func() { err = done(err) }()
	m, err := s.mutableMail(id)
	if err != nil {
		return err
	}
	if err := m.SetCategories(strings.Join(categories, ", ")); err != nil {
		return fmt.Errorf("%w: failed to set categories: %w", ErrExternalFault, err)
	}
	return s.save(m)
}

// MoveMail moves a mail item to the named folder.
func (s *Session) MoveMail(ctx context.Context, id, folder string) (err error) {
	_, done := s.begin(ctx, "mail.move", attribute.String(instrumentation.SpanAttrFolder, folder))
	defer func() { err = done(err) }()
	m, err := s.mutableMail(id)
	if err != nil {
		return err
	}
	target, err := s.folders.Resolve(folder)
	if err != nil {
		return err
	}
	if err := m.Move(target.Folder); err != nil {
		return fmt.Errorf("%w: failed to move to %s: %w", ErrExternalFault, target.Name(), err)
	}
	return nil
}

// DeleteMail deletes a mail item.
func (s *Session) DeleteMail(ctx context.Context, id string) (err error) {
	_, done := s.begin(ctx, "mail.delete")
	defer func() { err = done(err) }()
	m, err := s.mutableMail(id)
	if err != nil {
		return err
	}
	if err := m.Delete(); err != nil {
		return fmt.Errorf("%w: failed to delete: %w", ErrExternalFault, err)
	}
	return nil
}

// IsInDeletedItems reports whether a mail item sits in the Deleted Items folder.
func (s *Session) IsInDeletedItems(ctx context.Context, id string) (deleted bool, err error) {
	_, done := s.begin(ctx, "mail.is_deleted")
	defer func() { err = done(err) }()
	item, err := s.itemOfClass(id, ClassMail)
	if err != nil {
		return false, err
	}
	parent, err := item.Parent()
	if err != nil {
		return false, fmt.Errorf("%w: failed to read parent folder: %w", ErrExternalFault, err)
	}
	Track(s.reg, parent)
	deletedRef, err := s.folders.Default(FolderDeleted)
	if err != nil {
		return false, err
	}
	parentID, err := parent.EntryID()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExternalFault, err)
	}
	deletedID, err := deletedRef.Folder.EntryID()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExternalFault, err)
	}
	return parentID == deletedID, nil
}

// OpenItem shows an item of the given class in the external UI. The
// item handle is handed to the UI and is not released by the session.
func (s *Session) OpenItem(ctx context.Context, id string, class ItemClass) (err error) {
	_, done := s.begin(ctx, "item.open")
	defer func() { err = done(err) }()
	if err = s.check(); err != nil {
		return err
	}
	item, err := s.store.ItemByID(id)
	if err != nil {
		return fmt.Errorf("item %s: %w", id, err)
	}
	Borrow(s.reg, item)
	got, err := item.Class()
	if err == nil && got != class {
		err = fmt.Errorf("%w: item %s is %s, not %s", ErrWrongItemClass, id, got, class)
	}
	if err != nil {
		s.reg.releaseNow(item)
		return err
	}
	d, ok := item.(Displayable)
	if !ok {
		s.reg.releaseNow(item)
		return fmt.Errorf("%w: item %s cannot be displayed", ErrExternalFault, id)
	}
	if err := d.Display(); err != nil {
		s.reg.releaseNow(item)
		return fmt.Errorf("%w: failed to display %s: %w", ErrExternalFault, id, err)
	}
	return nil
}

// EventWindow returns start and end, defaulting a zero start to today
// 00:00 and a zero end to one month after start.
func (s *Session) EventWindow(start, end time.Time) (time.Time, time.Time) {
	if start.IsZero() {
		y, m, d := s.now().Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, s.now().Location())
	}
	if end.IsZero() {
		end = start.AddDate(0, 1, 0)
	}
	return start, end
}

// ListEvents returns appointments starting within [start, end], recurring
// occurrences included, in start order.
func (s *Session) ListEvents(ctx context.Context, start, end time.Time, limit int) (out []EventSummary, err error) {
	_, done := s.begin(ctx, "calendar.list")
	defer func() { err = done(err) }()
	return listEvents(s, start, end, limit, mapEventSummary)
}

// ListEventsFull is ListEvents returning full records.
func (s *Session) ListEventsFull(ctx context.Context, start, end time.Time, limit int) (out []Event, err error) {
	_, done := s.begin(ctx, "calendar.list_full")
	defer func() { err = done(err) }()
	return listEvents(s, start, end, limit, mapEvent)
}

func listEvents[T any](s *Session, start, end time.Time, limit int, mapFn func(Item) (T, error)) ([]T, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	start, end = s.EventWindow(start, end)
	ref, err := s.folders.Default(FolderCalendar)
	if err != nil {
		return nil, err
	}
	items, err := ref.Folder.Items()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open calendar items: %w", ErrExternalFault, err)
	}
	Track(s.reg, items)
	q := Query{
		SortKey:            PropStart,
		Filter:             StartWindowFilter(start, end),
		IncludeRecurrences: true,
		Class:              ClassAppointment,
		Limit:              limit,
	}
	return Enumerate(NewCursor(s.reg, s.logger, s.metrics, "calendar.list"), items, q, mapFn)
}

// GetEvent returns the full record of one appointment.
func (s *Session) GetEvent(ctx context.Context, id string) (ev Event, err error) {
	_, done := s.begin(ctx, "calendar.get")
	defer func() { err = done(err) }()
	item, err := s.itemOfClass(id, ClassAppointment)
	if err != nil {
		return Event{}, err
	}
	return mapEvent(item)
}

// DeleteEvent deletes an appointment.
func (s *Session) DeleteEvent(ctx context.Context, id string) (err error) {
	_, done := s.begin(ctx, "calendar.delete")
	defer func() { err = done(err) }()
	item, err := s.itemOfClass(id, ClassAppointment)
	if err != nil {
		return err
	}
	m, ok := item.(Mutable)
	if !ok {
		return fmt.Errorf("%w: item %s cannot be changed", ErrExternalFault, id)
	}
	if err := m.Delete(); err != nil {
		return fmt.Errorf("%w: failed to delete: %w", ErrExternalFault, err)
	}
	return nil
}

// FreeBusy returns the busy slots of email over [start, end).
func (s *Session) FreeBusy(ctx context.Context, email string, start, end time.Time) (res availability.FreeBusyResult, err error) {
	ctx, done := s.begin(ctx, "calendar.free_busy", attribute.String(instrumentation.SpanAttrAttendeeDomain, instrumentation.ExtractUserDomain(email)))
	defer func() {
		err = done(err)
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		s.metrics.RecordFreeBusyQuery(ctx, email, status)
	}()
	if err = s.check(); err != nil {
		return res, err
	}

	rcpt, err := s.store.ResolveRecipient(email)
	switch {
	case err == nil:
	case errors.Is(err, ErrResourceExhausted), errors.Is(err, ErrExternalFault), errors.Is(err, ErrRecipientUnresolved):
		return res, fmt.Errorf("failed to resolve %s: %w", email, err)
	default:
		return res, fmt.Errorf("%w: failed to resolve %s: %w", ErrExternalFault, email, err)
	}
	Track(s.reg, rcpt)
	if !rcpt.Resolved() {
		return res, fmt.Errorf("%w: %s", ErrRecipientUnresolved, email)
	}

	raw, err := rcpt.FreeBusy(start, int(s.interval/time.Minute))
	if err != nil {
		return res, fmt.Errorf("%w: failed to query free/busy for %s: %w", ErrExternalFault, email, err)
	}
	slots := availability.DecodeWindow(raw, start, end, s.interval)
	if slots == nil {
		slots = []availability.FreeBusySlot{}
	}
	return availability.FreeBusyResult{
		Email:      email,
		RangeStart: start,
		RangeEnd:   end,
		BusySlots:  slots,
	}, nil
}

// CurrentUser returns the address of the signed-in user.
func (s *Session) CurrentUser(_ context.Context) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	return s.store.CurrentUserAddress()
}

// FindSlots searches [start, end) for slots of duration that every
// attendee, and the caller when includeSelf is set, has free.
func (s *Session) FindSlots(ctx context.Context, attendees []string, start, end time.Time, duration time.Duration, includeSelf bool) (out []availability.AvailableSlot, err error) {
	ctx, done := s.begin(ctx, "calendar.find_slots", attribute.Int(instrumentation.SpanAttrAttendeeCount, len(attendees)))
	defer func() { err = done(err) }()
	if err = s.check(); err != nil {
		return nil, err
	}
	out, err = s.finder.FindCommonSlots(ctx, availability.Request{
		Attendees:   attendees,
		Start:       start,
		End:         end,
		Duration:    duration,
		IncludeSelf: includeSelf,
	})
	if err == nil && out == nil {
		out = []availability.AvailableSlot{}
	}
	return out, err
}

// folderItems resolves a folder and acquires its item collection.
func (s *Session) folderItems(name string) (*FolderRef, ItemCollection, error) {
	ref, err := s.folders.Resolve(name)
	if err != nil {
		return nil, nil, err
	}
	items, err := ref.Folder.Items()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to open items of %s: %w", ErrExternalFault, ref.Name(), err)
	}
	return ref, Track(s.reg, items), nil
}

// itemOfClass acquires an item and checks its class.
func (s *Session) itemOfClass(id string, class ItemClass) (Item, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	item, err := s.store.ItemByID(id)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", id, err)
	}
	Track(s.reg, item)
	got, err := item.Class()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read class of %s: %w", ErrExternalFault, id, err)
	}
	if got != class {
		return nil, fmt.Errorf("%w: item %s is %s, not %s", ErrWrongItemClass, id, got, class)
	}
	return item, nil
}

func (s *Session) mutableMail(id string) (Mutable, error) {
	item, err := s.itemOfClass(id, ClassMail)
	if err != nil {
		return nil, err
	}
	m, ok := item.(Mutable)
	if !ok {
		return nil, fmt.Errorf("%w: item %s cannot be changed", ErrExternalFault, id)
	}
	return m, nil
}

func (s *Session) save(m Mutable) error {
	if err := m.Save(); err != nil {
		return fmt.Errorf("%w: failed to save: %w", ErrExternalFault, err)
	}
	return nil
}

// ErrorCode maps an error to the stable code reported to callers.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFolderNotFound):
		return "FOLDER_NOT_FOUND"
	case errors.Is(err, ErrRecipientUnresolved):
		return "RECIPIENT_UNRESOLVED"
	case errors.Is(err, ErrUnsupportedFilter):
		return "UNSUPPORTED_FILTER"
	case errors.Is(err, ErrResourceExhausted):
		return "RESOURCE_EXHAUSTED"
	case errors.Is(err, ErrWrongItemClass):
		return "WRONG_ITEM_CLASS"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrExternalFault):
		return "EXTERNAL_FAULT"
	case errors.Is(err, availability.ErrInvalidDuration), errors.Is(err, availability.ErrInvalidHours):
		return "INVALID_ARGUMENT"
	default:
		return "ERROR"
	}
}
