//go:build windows

package ole

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/teemow/outlookctl/internal/logging"
	"github.com/teemow/outlookctl/internal/outlook"
)

// Open attaches to a running Outlook or starts one, and returns a store
// over its MAPI namespace. The calling goroutine stays locked to its
// thread until the store is released.
func (b *Backend) Open(ctx context.Context) (outlook.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runtime.LockOSThread()
	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		// S_FALSE: the thread already had an apartment.
		if !errors.As(err, &oleErr) || oleErr.Code() != 1 {
			runtime.UnlockOSThread()
			return nil, classify("initialize COM", err)
		}
	}

	s, err := b.open()
	if err != nil {
		ole.CoUninitialize()
		runtime.UnlockOSThread()
		return nil, err
	}
	return s, nil
}

func (b *Backend) open() (*store, error) {
	unknown, err := oleutil.GetActiveObject(progID)
	if err != nil {
		b.opts.Logger.Debug("no running Outlook, starting one", logging.Err(err))
		unknown, err = oleutil.CreateObject(progID)
		if err != nil {
			return nil, classify("start Outlook", err)
		}
	}
	app, err := unknown.QueryInterface(ole.IID_IDispatch)
	unknown.Release()
	if err != nil {
		return nil, classify("query Outlook application", err)
	}

	ns, err := callDisp(app, "GetNamespace", "MAPI")
	if err != nil {
		app.Release()
		return nil, classify("open MAPI namespace", err)
	}
	return &store{
		app:    app,
		ns:     ns,
		logger: b.opts.Logger.With(slog.String(logging.KeyBackend, Name)),
	}, nil
}

// dispHandle is embedded in every handle type.
type dispHandle struct {
	disp     *ole.IDispatch
	kind     string
	released bool
}

func (h *dispHandle) Release() error {
	if h.released {
		return fmt.Errorf("%w: %s handle released twice", outlook.ErrExternalFault, h.kind)
	}
	h.released = true
	h.disp.Release()
	return nil
}

func (h *dispHandle) live() error {
	if h.released {
		return fmt.Errorf("%w: %s handle used after release", outlook.ErrExternalFault, h.kind)
	}
	return nil
}

func (h *dispHandle) get(name string, args ...interface{}) (interface{}, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	v, err := oleutil.GetProperty(h.disp, name, args...)
	if err != nil {
		return nil, classify("get "+name, err)
	}
	defer v.Clear()
	return v.Value(), nil
}

func (h *dispHandle) getString(name string) (string, error) {
	v, err := h.get(name)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

func (h *dispHandle) getInt(name string) (int, error) {
	v, err := h.get(name)
	if err != nil {
		return 0, err
	}
	return toInt(v), nil
}

func (h *dispHandle) getBool(name string) (bool, error) {
	v, err := h.get(name)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

func (h *dispHandle) getTime(name string) (time.Time, error) {
	v, err := h.get(name)
	if err != nil {
		return time.Time{}, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s is not a date", outlook.ErrExternalFault, name)
	}
	return asLocal(t), nil
}

func (h *dispHandle) getDisp(name string, args ...interface{}) (*ole.IDispatch, error) {
	if err := h.live(); err != nil {
		return nil, err
	}
	v, err := oleutil.GetProperty(h.disp, name, args...)
	if err != nil {
		return nil, classify("get "+name, err)
	}
	d := v.ToIDispatch()
	if d == nil {
		return nil, fmt.Errorf("%w: %s is empty", outlook.ErrNotFound, name)
	}
	return d, nil
}

func (h *dispHandle) put(name string, value interface{}) error {
	if err := h.live(); err != nil {
		return err
	}
	v, err := oleutil.PutProperty(h.disp, name, value)
	if err != nil {
		return classify("set "+name, err)
	}
	v.Clear()
	return nil
}

func (h *dispHandle) call(name string, args ...interface{}) error {
	if err := h.live(); err != nil {
		return err
	}
	v, err := oleutil.CallMethod(h.disp, name, args...)
	if err != nil {
		return classify(name, err)
	}
	v.Clear()
	return nil
}

func callDisp(d *ole.IDispatch, name string, args ...interface{}) (*ole.IDispatch, error) {
	v, err := oleutil.CallMethod(d, name, args...)
	if err != nil {
		return nil, err
	}
	out := v.ToIDispatch()
	if out == nil {
		return nil, fmt.Errorf("%w: %s returned nothing", outlook.ErrNotFound, name)
	}
	return out, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int16:
		return int(n)
	case uint8:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// asLocal reinterprets a DATE value, which carries no zone, as local time.
func asLocal(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}

type store struct {
	app      *ole.IDispatch
	ns       *ole.IDispatch
	logger   *slog.Logger
	released bool
}

func (s *store) Release() error {
	if s.released {
		return fmt.Errorf("%w: store released twice", outlook.ErrExternalFault)
	}
	s.released = true
	s.ns.Release()
	s.app.Release()
	ole.CoUninitialize()
	runtime.UnlockOSThread()
	return nil
}

func (s *store) live() error {
	if s.released {
		return fmt.Errorf("%w: store already released", outlook.ErrExternalFault)
	}
	return nil
}

func (s *store) DefaultFolder(kind outlook.FolderKind) (outlook.Folder, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	d, err := callDisp(s.ns, "GetDefaultFolder", kind.DefaultFolderID())
	if err != nil {
		return nil, classify("open "+kind.String()+" folder", err)
	}
	return newFolder(d), nil
}

func (s *store) ItemByID(id string) (outlook.Item, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	d, err := callDisp(s.ns, "GetItemFromID", id)
	if err != nil {
		if classified := classify("open item", err); errors.Is(classified, outlook.ErrResourceExhausted) {
			return nil, classified
		}
		return nil, fmt.Errorf("%w: entry %s: %w", outlook.ErrNotFound, id, err)
	}
	return newItem(d), nil
}

func (s *store) ResolveRecipient(address string) (outlook.Recipient, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	d, err := callDisp(s.ns, "CreateRecipient", address)
	if err != nil {
		return nil, classify("create recipient", err)
	}
	r := &recipient{dispHandle: dispHandle{disp: d, kind: "recipient"}, address: address}
	v, err := oleutil.CallMethod(d, "Resolve")
	if err != nil {
		s.logger.Debug("recipient did not resolve", logging.Err(err))
		return r, nil
	}
	r.resolved, _ = v.Value().(bool)
	v.Clear()
	return r, nil
}

func (s *store) CurrentUserAddress() (string, error) {
	if err := s.live(); err != nil {
		return "", err
	}
	user := dispHandle{kind: "recipient"}
	var err error
	if user.disp, err = (&dispHandle{disp: s.ns, kind: "namespace"}).getDisp("CurrentUser"); err != nil {
		return "", err
	}
	defer user.Release()

	entry := dispHandle{kind: "address entry"}
	if entry.disp, err = user.getDisp("AddressEntry"); err != nil {
		return "", err
	}
	defer entry.Release()
	return smtpAddress(&entry)
}

// smtpAddress returns the SMTP address of an address entry, looking
// through Exchange entries to their primary address.
func smtpAddress(entry *dispHandle) (string, error) {
	if ex, err := callDisp(entry.disp, "GetExchangeUser"); err == nil {
		exUser := dispHandle{disp: ex, kind: "exchange user"}
		defer exUser.Release()
		if addr, err := exUser.getString("PrimarySmtpAddress"); err == nil && addr != "" {
			return addr, nil
		}
	}
	return entry.getString("Address")
}

type folder struct {
	dispHandle
}

func newFolder(d *ole.IDispatch) *folder {
	return &folder{dispHandle{disp: d, kind: "folder"}}
}

func (f *folder) Name() (string, error) { return f.getString("Name") }
func (f *folder) EntryID() (string, error) { return f.getString("EntryID") }
func (f *folder) UnreadCount() (int, error) { return f.getInt("UnReadItemCount") }

// Parent returns ErrNotFound for the mailbox root, whose parent is the
// namespace rather than a folder.
func (f *folder) Parent() (outlook.Folder, error) {
	d, err := f.getDisp("Parent")
	if err != nil {
		return nil, err
	}
	p := newFolder(d)
	class, err := p.getInt("Class")
	if err != nil || class != olFolderClass {
		p.Release()
		return nil, fmt.Errorf("%w: folder has no parent folder", outlook.ErrNotFound)
	}
	return p, nil
}

func (f *folder) Folders() (outlook.FolderCollection, error) {
	d, err := f.getDisp("Folders")
	if err != nil {
		return nil, err
	}
	return &folderCollection{dispHandle{disp: d, kind: "folder collection"}}, nil
}

func (f *folder) Items() (outlook.ItemCollection, error) {
	d, err := f.getDisp("Items")
	if err != nil {
		return nil, err
	}
	return newItemCollection(d), nil
}

func (f *folder) DefaultItemClass() (outlook.ItemClass, error) {
	t, err := f.getInt("DefaultItemType")
	if err != nil {
		return outlook.ClassOther, err
	}
	return itemTypeClass(t), nil
}

type folderCollection struct {
	dispHandle
}

func (c *folderCollection) Count() (int, error) { return c.getInt("Count") }

func (c *folderCollection) Folder(index int) (outlook.Folder, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	d, err := callDisp(c.disp, "Item", index)
	if err != nil {
		return nil, classify("open folder", err)
	}
	return newFolder(d), nil
}

type itemCollection struct {
	dispHandle
}

func newItemCollection(d *ole.IDispatch) *itemCollection {
	return &itemCollection{dispHandle{disp: d, kind: "item collection"}}
}

func (c *itemCollection) Count() (int, error) { return c.getInt("Count") }

func (c *itemCollection) Item(index int) (outlook.Item, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	d, err := callDisp(c.disp, "Item", index)
	if err != nil {
		if errors.Is(err, outlook.ErrNotFound) {
			return nil, outlook.ErrEndOfCollection
		}
		return nil, classify("open item", err)
	}
	return newItem(d), nil
}

func (c *itemCollection) Sort(key string, descending bool) error {
	return c.call("Sort", key, descending)
}

func (c *itemCollection) Restrict(filter string) (outlook.ItemCollection, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	d, err := callDisp(c.disp, "Restrict", filter)
	if err != nil {
		return nil, classify("restrict", err)
	}
	return newItemCollection(d), nil
}

func (c *itemCollection) SetIncludeRecurrences(include bool) error {
	return c.put("IncludeRecurrences", include)
}

type item struct {
	dispHandle
}

func newItem(d *ole.IDispatch) *item {
	return &item{dispHandle{disp: d, kind: "item"}}
}

func (i *item) Class() (outlook.ItemClass, error) {
	tag, err := i.getInt("Class")
	if err != nil {
		return outlook.ClassOther, err
	}
	return outlook.ClassFromTag(tag), nil
}

func (i *item) EntryID() (string, error) { return i.getString("EntryID") }
func (i *item) Subject() (string, error) { return i.getString("Subject") }
func (i *item) SenderName() (string, error) { return i.getString("SenderName") }
func (i *item) ReceivedTime() (time.Time, error) { return i.getTime("ReceivedTime") }
func (i *item) Unread() (bool, error) { return i.getBool("UnRead") }
func (i *item) Categories() (string, error) { return i.getString("Categories") }
func (i *item) ConversationTopic() (string, error) { return i.getString("ConversationTopic") }
func (i *item) Body() (string, error) { return i.getString("Body") }
func (i *item) HTMLBody() (string, error) { return i.getString("HTMLBody") }
func (i *item) Start() (time.Time, error) { return i.getTime("Start") }
func (i *item) End() (time.Time, error) { return i.getTime("End") }
func (i *item) Location() (string, error) { return i.getString("Location") }
func (i *item) AllDay() (bool, error) { return i.getBool("AllDayEvent") }
func (i *item) Recurring() (bool, error) { return i.getBool("IsRecurring") }
func (i *item) Organizer() (string, error) { return i.getString("Organizer") }

func (i *item) Parent() (outlook.Folder, error) {
	d, err := i.getDisp("Parent")
	if err != nil {
		return nil, err
	}
	return newFolder(d), nil
}

// SenderAddress returns the SMTP address of the sender. Exchange
// senders carry a directory name in SenderEmailAddress.
func (i *item) SenderAddress() (string, error) {
	kind, err := i.getString("SenderEmailType")
	if err == nil && kind == "EX" {
		if d, err := i.getDisp("Sender"); err == nil {
			entry := dispHandle{disp: d, kind: "address entry"}
			addr, err := smtpAddress(&entry)
			entry.Release()
			if err == nil && addr != "" {
				return addr, nil
			}
		}
	}
	return i.getString("SenderEmailAddress")
}

func (i *item) AttachmentCount() (int, error) {
	d, err := i.getDisp("Attachments")
	if err != nil {
		return 0, err
	}
	atts := dispHandle{disp: d, kind: "attachments"}
	defer atts.Release()
	return atts.getInt("Count")
}

// eachChild calls fn with every element of the collection property name.
func (i *item) eachChild(name string, fn func(*dispHandle) error) error {
	d, err := i.getDisp(name)
	if err != nil {
		return err
	}
	coll := dispHandle{disp: d, kind: name}
	defer coll.Release()

	n, err := coll.getInt("Count")
	if err != nil {
		return err
	}
	for idx := 1; idx <= n; idx++ {
		cd, err := callDisp(coll.disp, "Item", idx)
		if err != nil {
			return classify("open "+name, err)
		}
		child := dispHandle{disp: cd, kind: name}
		err = fn(&child)
		child.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

func (i *item) Recipients() ([]outlook.RecipientEntry, error) {
	var out []outlook.RecipientEntry
	err := i.eachChild("Recipients", func(r *dispHandle) error {
		typ, err := r.getInt("Type")
		if err != nil {
			return err
		}
		addr, err := r.getString("Address")
		if err != nil {
			return err
		}
		out = append(out, outlook.RecipientEntry{Type: outlook.RecipientType(typ), Address: addr})
		return nil
	})
	return out, err
}

func (i *item) Attachments() ([]outlook.Attachment, error) {
	var out []outlook.Attachment
	err := i.eachChild("Attachments", func(a *dispHandle) error {
		name, err := a.getString("FileName")
		if err != nil {
			return err
		}
		size, err := a.getInt("Size")
		if err != nil {
			return err
		}
		out = append(out, outlook.Attachment{FileName: name, Size: size})
		return nil
	})
	return out, err
}

func (i *item) Attendees() ([]string, error) {
	var out []string
	err := i.eachChild("Recipients", func(r *dispHandle) error {
		addr, err := r.getString("Address")
		if err != nil {
			return err
		}
		out = append(out, addr)
		return nil
	})
	return out, err
}

func (i *item) RecurrenceType() (string, error) {
	if err := i.live(); err != nil {
		return "", err
	}
	d, err := callDisp(i.disp, "GetRecurrencePattern")
	if err != nil {
		return "", classify("read recurrence", err)
	}
	pattern := dispHandle{disp: d, kind: "recurrence pattern"}
	defer pattern.Release()
	t, err := pattern.getInt("RecurrenceType")
	if err != nil {
		return "", err
	}
	return recurrenceName(t)
}

func (i *item) Save() error { return i.call("Save") }
func (i *item) Delete() error { return i.call("Delete") }
func (i *item) Display() error { return i.call("Display") }

func (i *item) SetUnread(unread bool) error { return i.put("UnRead", unread) }
func (i *item) SetCategories(categories string) error { return i.put("Categories", categories) }

// Move moves the item to target. Outlook returns the moved copy, which
// is released here.
func (i *item) Move(target outlook.Folder) error {
	if err := i.live(); err != nil {
		return err
	}
	f, ok := target.(*folder)
	if !ok {
		return fmt.Errorf("%w: move target is not an automation folder", outlook.ErrExternalFault)
	}
	if err := f.live(); err != nil {
		return err
	}
	moved, err := callDisp(i.disp, "Move", f.disp)
	if err != nil {
		return classify("move item", err)
	}
	moved.Release()
	return nil
}

type recipient struct {
	dispHandle
	address  string
	resolved bool
}

func (r *recipient) Resolved() bool { return r.resolved }

func (r *recipient) Address() (string, error) {
	if err := r.live(); err != nil {
		return "", err
	}
	return r.address, nil
}

// FreeBusy queries Outlook, which reports from midnight of start's day,
// and trims the string to begin at start.
func (r *recipient) FreeBusy(start time.Time, intervalMinutes int) (string, error) {
	if err := r.live(); err != nil {
		return "", err
	}
	local := start.In(time.Local)
	v, err := oleutil.CallMethod(r.disp, "FreeBusy", local, intervalMinutes, true)
	if err != nil {
		return "", classify("query free/busy", err)
	}
	defer v.Clear()
	fb, _ := v.Value().(string)
	return trimFreeBusy(fb, local, intervalMinutes), nil
}
