package fixture

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/teemow/outlookctl/internal/logging"
	"github.com/teemow/outlookctl/internal/outlook"
)

type folder struct {
	handle
	d *FolderData
}

func (f *folder) Name() (string, error) {
	if err := f.live(); err != nil {
		return "", err
	}
	return f.d.Name, nil
}

func (f *folder) EntryID() (string, error) {
	if err := f.live(); err != nil {
		return "", err
	}
	return f.d.ID, nil
}

func (f *folder) Parent() (outlook.Folder, error) {
	if err := f.live(); err != nil {
		return nil, err
	}
	if f.d.parent == nil {
		return nil, fmt.Errorf("%w: %s is the mailbox root", outlook.ErrNotFound, f.d.Name)
	}
	return f.store.folder(f.d.parent)
}

func (f *folder) Folders() (outlook.FolderCollection, error) {
	if err := f.live(); err != nil {
		return nil, err
	}
	h, err := f.store.acquire("folders")
	if err != nil {
		return nil, err
	}
	return &folderCollection{handle: h, list: append([]*FolderData(nil), f.d.Folders...)}, nil
}

func (f *folder) Items() (outlook.ItemCollection, error) {
	if err := f.live(); err != nil {
		return nil, err
	}
	h, err := f.store.acquire("items")
	if err != nil {
		return nil, err
	}
	c := &itemCollection{handle: h, base: append([]*ItemData(nil), f.d.Items...)}
	c.entries = c.expand()
	return c, nil
}

func (f *folder) DefaultItemClass() (outlook.ItemClass, error) {
	if err := f.live(); err != nil {
		return outlook.ClassOther, err
	}
	return f.d.defaultClass(), nil
}

func (f *folder) UnreadCount() (int, error) {
	if err := f.live(); err != nil {
		return 0, err
	}
	n := 0
	for _, it := range f.d.Items {
		if it.Unread {
			n++
		}
	}
	return n, nil
}

type folderCollection struct {
	handle
	list []*FolderData
}

func (c *folderCollection) Count() (int, error) {
	if err := c.live(); err != nil {
		return 0, err
	}
	return len(c.list), nil
}

func (c *folderCollection) Folder(index int) (outlook.Folder, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	if index < 1 || index > len(c.list) {
		return nil, outlook.ErrEndOfCollection
	}
	return c.store.folder(c.list[index-1])
}

// entry is one element of an item collection. Occurrences of a
// recurring appointment share the series' data but carry their own times.
type entry struct {
	d          *ItemData
	start, end time.Time
	occurrence bool
}

type itemCollection struct {
	handle
	base        []*ItemData
	entries     []entry
	recurrences bool
}

// Count reports an unbounded size while recurrences are included; the
// caller has to stop at outlook.ErrEndOfCollection.
func (c *itemCollection) Count() (int, error) {
	if err := c.live(); err != nil {
		return 0, err
	}
	if c.recurrences {
		return math.MaxInt32, nil
	}
	return len(c.entries), nil
}

func (c *itemCollection) Item(index int) (outlook.Item, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	if index < 1 || index > len(c.entries) {
		return nil, outlook.ErrEndOfCollection
	}
	return c.store.item(c.entries[index-1])
}

var sortKeys = map[string]func(entry) time.Time{
	"[receivedtime]": func(e entry) time.Time { return e.d.Received },
	"[start]":        func(e entry) time.Time { return e.start },
	"[end]":          func(e entry) time.Time { return e.end },
}

func (c *itemCollection) Sort(key string, descending bool) error {
	if err := c.live(); err != nil {
		return err
	}
	if strings.EqualFold(key, "[Subject]") {
		sort.SliceStable(c.entries, func(i, j int) bool {
			a, b := strings.ToLower(c.entries[i].d.Subject), strings.ToLower(c.entries[j].d.Subject)
			if descending {
				return a > b
			}
			return a < b
		})
		return nil
	}
	get, ok := sortKeys[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("%w: cannot sort by %s", outlook.ErrExternalFault, key)
	}
	sort.SliceStable(c.entries, func(i, j int) bool {
		if descending {
			return get(c.entries[i]).After(get(c.entries[j]))
		}
		return get(c.entries[i]).Before(get(c.entries[j]))
	})
	return nil
}

func (c *itemCollection) Restrict(filter string) (outlook.ItemCollection, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	match, err := compileFilter(filter, c.store.backend.opts.Location)
	if err != nil {
		return nil, err
	}
	h, err := c.store.acquire("items")
	if err != nil {
		return nil, err
	}
	out := &itemCollection{handle: h, recurrences: c.recurrences}
	seen := make(map[*ItemData]bool)
	for _, e := range c.entries {
		if !match(e) {
			continue
		}
		out.entries = append(out.entries, e)
		if !seen[e.d] {
			seen[e.d] = true
			out.base = append(out.base, e.d)
		}
	}
	return out, nil
}

// SetIncludeRecurrences expands recurring appointments into their
// occurrences. The collection order is reset.
func (c *itemCollection) SetIncludeRecurrences(include bool) error {
	if err := c.live(); err != nil {
		return err
	}
	if include == c.recurrences {
		return nil
	}
	c.recurrences = include
	c.entries = c.expand()
	return nil
}

func (c *itemCollection) expand() []entry {
	out := make([]entry, 0, len(c.base))
	for _, d := range c.base {
		if !c.recurrences || d.RRule == "" || d.itemClass() != outlook.ClassAppointment {
			out = append(out, entry{d: d, start: d.Start, end: d.End})
			continue
		}
		starts, err := occurrences(d.RRule, d.Start, d.ExDates, d.Start, c.store.horizon(d.Start))
		if err != nil {
			c.store.logger.Warn("invalid recurrence rule, using the series only",
				logging.Item(d.ID), logging.Err(err))
			out = append(out, entry{d: d, start: d.Start, end: d.End})
			continue
		}
		dur := d.End.Sub(d.Start)
		for _, st := range starts {
			out = append(out, entry{d: d, start: st, end: st.Add(dur), occurrence: true})
		}
	}
	return out
}

func (s *Store) horizon(from time.Time) time.Time {
	now := s.backend.opts.Now()
	if now.After(from) {
		from = now
	}
	return from.Add(recurrenceHorizon)
}

type item struct {
	handle
	entry
}

func (i *item) Class() (outlook.ItemClass, error) {
	if err := i.live(); err != nil {
		return outlook.ClassOther, err
	}
	return i.d.itemClass(), nil
}

func (i *item) EntryID() (string, error) {
	if err := i.live(); err != nil {
		return "", err
	}
	return i.d.ID, nil
}

func (i *item) Parent() (outlook.Folder, error) {
	if err := i.live(); err != nil {
		return nil, err
	}
	if i.d.folder == nil {
		return nil, fmt.Errorf("%w: item %s was deleted", outlook.ErrNotFound, i.d.ID)
	}
	return i.store.folder(i.d.folder)
}

func (i *item) Subject() (string, error) { return i.d.Subject, i.live() }
func (i *item) SenderName() (string, error) { return i.d.FromName, i.live() }
func (i *item) SenderAddress() (string, error) { return i.d.From, i.live() }
func (i *item) ReceivedTime() (time.Time, error) { return i.d.Received, i.live() }
func (i *item) Unread() (bool, error) { return i.d.Unread, i.live() }
func (i *item) Categories() (string, error) { return i.d.Categories, i.live() }
func (i *item) AttachmentCount() (int, error) { return len(i.d.Attachments), i.live() }
func (i *item) Body() (string, error) { return i.d.Body, i.live() }
func (i *item) HTMLBody() (string, error) { return i.d.HTMLBody, i.live() }
func (i *item) Start() (time.Time, error) { return i.start, i.live() }
func (i *item) End() (time.Time, error) { return i.end, i.live() }
func (i *item) Location() (string, error) { return i.d.Location, i.live() }
func (i *item) AllDay() (bool, error) { return i.d.AllDay, i.live() }
func (i *item) Recurring() (bool, error) { return i.d.RRule != "", i.live() }
func (i *item) Organizer() (string, error) { return i.d.Organizer, i.live() }
func (i *item) Attendees() ([]string, error) { return i.d.Attendees, i.live() }
func (i *item) ConversationTopic() (string, error) { return i.d.topic(), i.live() }

func (i *item) Recipients() ([]outlook.RecipientEntry, error) {
	if err := i.live(); err != nil {
		return nil, err
	}
	out := make([]outlook.RecipientEntry, 0, len(i.d.To)+len(i.d.Cc))
	for _, a := range i.d.To {
		out = append(out, outlook.RecipientEntry{Type: outlook.RecipientTo, Address: a})
	}
	for _, a := range i.d.Cc {
		out = append(out, outlook.RecipientEntry{Type: outlook.RecipientCc, Address: a})
	}
	return out, nil
}

func (i *item) Attachments() ([]outlook.Attachment, error) {
	if err := i.live(); err != nil {
		return nil, err
	}
	out := make([]outlook.Attachment, 0, len(i.d.Attachments))
	for _, a := range i.d.Attachments {
		out = append(out, outlook.Attachment{FileName: a.Name, Size: a.Size})
	}
	return out, nil
}

func (i *item) RecurrenceType() (string, error) {
	if err := i.live(); err != nil {
		return "", err
	}
	if i.d.RRule == "" {
		return "", fmt.Errorf("%w: item %s is not recurring", outlook.ErrNotFound, i.d.ID)
	}
	r, err := rrule.StrToRRule(i.d.RRule)
	if err != nil {
		return "", fmt.Errorf("%w: %w", outlook.ErrExternalFault, err)
	}
	switch r.OrigOptions.Freq {
	case rrule.DAILY:
		return "Daily", nil
	case rrule.WEEKLY:
		return "Weekly", nil
	case rrule.MONTHLY:
		return "Monthly", nil
	case rrule.YEARLY:
		return "Yearly", nil
	default:
		return "", fmt.Errorf("%w: unsupported frequency in %q", outlook.ErrExternalFault, i.d.RRule)
	}
}

func (i *item) Save() error {
	if err := i.live(); err != nil {
		return err
	}
	if i.d.folder == nil {
		return fmt.Errorf("%w: item %s was deleted", outlook.ErrNotFound, i.d.ID)
	}
	i.store.dirty = true
	return nil
}

func (i *item) Delete() error {
	if err := i.live(); err != nil {
		return err
	}
	if i.d.folder == nil {
		return fmt.Errorf("%w: item %s was deleted", outlook.ErrNotFound, i.d.ID)
	}
	i.store.deleteItem(i.d)
	return nil
}

func (i *item) Move(target outlook.Folder) error {
	if err := i.live(); err != nil {
		return err
	}
	f, ok := target.(*folder)
	if !ok || f.store != i.store {
		return fmt.Errorf("%w: target folder belongs to another store", outlook.ErrExternalFault)
	}
	if err := f.live(); err != nil {
		return err
	}
	if i.d.folder == nil {
		return fmt.Errorf("%w: item %s was deleted", outlook.ErrNotFound, i.d.ID)
	}
	i.store.moveItem(i.d, f.d)
	return nil
}

func (i *item) SetUnread(unread bool) error {
	if err := i.live(); err != nil {
		return err
	}
	i.d.Unread = unread
	return nil
}

func (i *item) SetCategories(categories string) error {
	if err := i.live(); err != nil {
		return err
	}
	i.d.Categories = categories
	return nil
}

// Display has no UI to show the item in; it logs the request and keeps
// the handle open as the UI would.
func (i *item) Display() error {
	if err := i.live(); err != nil {
		return err
	}
	i.store.displayed++
	i.store.logger.Info("item displayed", logging.Item(i.d.ID), slog.String("subject", i.d.Subject))
	return nil
}

var replyPrefix = regexp.MustCompile(`(?i)^\s*((re|fw|fwd|aw|wg|sv|vs|tr)\s*:\s*)+`)

// topic returns the conversation topic: the explicit one, or the
// subject without reply and forward prefixes.
func (d *ItemData) topic() string {
	if d.Topic != "" {
		return d.Topic
	}
	return strings.TrimSpace(replyPrefix.ReplaceAllString(d.Subject, ""))
}

type recipient struct {
	handle
	address  string
	resolved bool
	d        *RecipientData
}

func (r *recipient) Resolved() bool {
	return r.resolved && !r.released
}

func (r *recipient) Address() (string, error) {
	return r.address, r.live()
}

func (r *recipient) FreeBusy(start time.Time, intervalMinutes int) (string, error) {
	if err := r.live(); err != nil {
		return "", err
	}
	if !r.resolved {
		return "", fmt.Errorf("%w: %s", outlook.ErrRecipientUnresolved, r.address)
	}
	if intervalMinutes <= 0 {
		return "", fmt.Errorf("%w: interval must be positive", outlook.ErrExternalFault)
	}
	return r.store.freeBusy(r.address, r.d, start, time.Duration(intervalMinutes)*time.Minute)
}
