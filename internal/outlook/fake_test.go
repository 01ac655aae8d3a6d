package outlook

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// fakeStore is an in-memory Store that counts outstanding handles and
// fails on double release.
type fakeStore struct {
	open        int
	acquired    int
	maxOpen     int
	peak        int
	released    bool
	doubleFrees int

	user       string
	userErr    error
	resolveErr error

	flushErr error
	flushes  int
	// openAtFlush is the number of handles still held when Flush ran.
	openAtFlush int

	defaults   map[FolderKind]*fakeFolderData
	items      map[string]*fakeItemData
	recipients map[string]*fakeRecipientData
	filters    map[string]func(*fakeItemData) bool
	displayed  []string
	lastMove   string
}

type fakeFolderData struct {
	id         string
	name       string
	class      ItemClass
	parent     *fakeFolderData
	children   []*fakeFolderData
	items      []*fakeItemData
	foldersErr error
	nameErr    error
}

type fakeItemData struct {
	id          string
	class       ItemClass
	classErr    error
	loadErr     error
	folder      *fakeFolderData
	subject     string
	sender      string
	senderAddr  string
	received    time.Time
	unread      bool
	categories  string
	topic       string
	body        string
	recipients  []RecipientEntry
	attachments []Attachment
	start       time.Time
	end         time.Time
	location    string
	recurring   bool
	recurrence  string
	displayErr  error
	saves       int
}

type fakeRecipientData struct {
	address  string
	resolved bool
	freeBusy string
	err      error
	start    time.Time
	interval int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		user:       "me@contoso.com",
		defaults:   map[FolderKind]*fakeFolderData{},
		items:      map[string]*fakeItemData{},
		recipients: map[string]*fakeRecipientData{},
		filters:    map[string]func(*fakeItemData) bool{},
	}
}

// addFolder creates a folder under parent; a nil parent makes a root.
func (s *fakeStore) addFolder(parent *fakeFolderData, name string, class ItemClass) *fakeFolderData {
	f := &fakeFolderData{id: "F-" + name, name: name, class: class, parent: parent}
	if parent != nil {
		f.id = parent.id + "/" + name
		parent.children = append(parent.children, f)
	}
	return f
}

func (s *fakeStore) addItem(f *fakeFolderData, d *fakeItemData) *fakeItemData {
	d.folder = f
	f.items = append(f.items, d)
	s.items[d.id] = d
	return d
}

func (s *fakeStore) removeItem(d *fakeItemData) {
	f := d.folder
	for i, it := range f.items {
		if it == d {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	d.folder = nil
}

type fakeHandle struct {
	store    *fakeStore
	released bool
}

func (h *fakeHandle) Release() error {
	if h.released {
		h.store.doubleFrees++
		return errors.New("fake: handle released twice")
	}
	h.released = true
	h.store.open--
	return nil
}

func (s *fakeStore) handle() (*fakeHandle, error) {
	if s.maxOpen > 0 && s.open >= s.maxOpen {
		return nil, ErrResourceExhausted
	}
	s.open++
	s.acquired++
	s.peak = max(s.peak, s.open)
	return &fakeHandle{store: s}, nil
}

func (s *fakeStore) Release() error {
	if s.released {
		return errors.New("fake: store released twice")
	}
	s.released = true
	return nil
}

func (s *fakeStore) Flush() error {
	if s.released {
		return errors.New("fake: flush after release")
	}
	s.flushes++
	s.openAtFlush = s.open
	return s.flushErr
}

func (s *fakeStore) DefaultFolder(kind FolderKind) (Folder, error) {
	d, ok := s.defaults[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no %s folder", ErrNotFound, kind)
	}
	return s.folder(d)
}

func (s *fakeStore) folder(d *fakeFolderData) (Folder, error) {
	h, err := s.handle()
	if err != nil {
		return nil, err
	}
	return &fakeFolder{fakeHandle: h, d: d}, nil
}

func (s *fakeStore) ItemByID(id string) (Item, error) {
	d, ok := s.items[id]
	if !ok || d.folder == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.item(d)
}

func (s *fakeStore) item(d *fakeItemData) (Item, error) {
	h, err := s.handle()
	if err != nil {
		return nil, err
	}
	return &fakeItem{fakeHandle: h, d: d}, nil
}

func (s *fakeStore) ResolveRecipient(address string) (Recipient, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	d, ok := s.recipients[address]
	if !ok {
		d = &fakeRecipientData{address: address}
	}
	h, err := s.handle()
	if err != nil {
		return nil, err
	}
	return &fakeRecipient{fakeHandle: h, d: d}, nil
}

func (s *fakeStore) CurrentUserAddress() (string, error) {
	return s.user, s.userErr
}

type fakeFolder struct {
	*fakeHandle
	d *fakeFolderData
}

func (f *fakeFolder) Name() (string, error) {
	return f.d.name, f.d.nameErr
}

func (f *fakeFolder) EntryID() (string, error) {
	return f.d.id, nil
}

func (f *fakeFolder) Parent() (Folder, error) {
	if f.d.parent == nil {
		return nil, ErrNotFound
	}
	return f.store.folder(f.d.parent)
}

func (f *fakeFolder) Folders() (FolderCollection, error) {
	if f.d.foldersErr != nil {
		return nil, f.d.foldersErr
	}
	h, err := f.store.handle()
	if err != nil {
		return nil, err
	}
	return &fakeFolders{fakeHandle: h, list: f.d.children}, nil
}

func (f *fakeFolder) Items() (ItemCollection, error) {
	h, err := f.store.handle()
	if err != nil {
		return nil, err
	}
	return &fakeItems{fakeHandle: h, list: append([]*fakeItemData(nil), f.d.items...)}, nil
}

func (f *fakeFolder) DefaultItemClass() (ItemClass, error) {
	return f.d.class, nil
}

func (f *fakeFolder) UnreadCount() (int, error) {
	n := 0
	for _, it := range f.d.items {
		if it.unread {
			n++
		}
	}
	return n, nil
}

type fakeFolders struct {
	*fakeHandle
	list []*fakeFolderData
}

func (c *fakeFolders) Count() (int, error) {
	return len(c.list), nil
}

func (c *fakeFolders) Folder(index int) (Folder, error) {
	if index < 1 || index > len(c.list) {
		return nil, ErrEndOfCollection
	}
	return c.store.folder(c.list[index-1])
}

type fakeItems struct {
	*fakeHandle
	list        []*fakeItemData
	recurrences bool
	sortedBy    string
}

func (c *fakeItems) Count() (int, error) {
	if c.recurrences {
		return math.MaxInt32, nil
	}
	return len(c.list), nil
}

func (c *fakeItems) Item(index int) (Item, error) {
	if index < 1 || index > len(c.list) {
		return nil, ErrEndOfCollection
	}
	d := c.list[index-1]
	if d.loadErr != nil {
		return nil, d.loadErr
	}
	return c.store.item(d)
}

func (c *fakeItems) Sort(key string, descending bool) error {
	var get func(*fakeItemData) time.Time
	switch key {
	case PropReceivedTime:
		get = func(d *fakeItemData) time.Time { return d.received }
	case PropStart:
		get = func(d *fakeItemData) time.Time { return d.start }
	default:
		return fmt.Errorf("fake: cannot sort by %s", key)
	}
	sort.SliceStable(c.list, func(i, j int) bool {
		if descending {
			return get(c.list[i]).After(get(c.list[j]))
		}
		return get(c.list[i]).Before(get(c.list[j]))
	})
	c.sortedBy = key
	return nil
}

func (c *fakeItems) Restrict(filter string) (ItemCollection, error) {
	match, ok := c.store.filters[filter]
	if !ok {
		return nil, fmt.Errorf("fake: unsupported filter %q", filter)
	}
	h, err := c.store.handle()
	if err != nil {
		return nil, err
	}
	out := &fakeItems{fakeHandle: h, recurrences: c.recurrences, sortedBy: c.sortedBy}
	for _, d := range c.list {
		if match(d) {
			out.list = append(out.list, d)
		}
	}
	return out, nil
}

func (c *fakeItems) SetIncludeRecurrences(include bool) error {
	c.recurrences = include
	return nil
}

type fakeItem struct {
	*fakeHandle
	d *fakeItemData
}

func (i *fakeItem) Class() (ItemClass, error) { return i.d.class, i.d.classErr }
func (i *fakeItem) EntryID() (string, error) { return i.d.id, nil }
func (i *fakeItem) Subject() (string, error) { return i.d.subject, nil }
func (i *fakeItem) SenderName() (string, error) { return i.d.sender, nil }
func (i *fakeItem) SenderAddress() (string, error) { return i.d.senderAddr, nil }
func (i *fakeItem) ReceivedTime() (time.Time, error) { return i.d.received, nil }
func (i *fakeItem) Unread() (bool, error) { return i.d.unread, nil }
func (i *fakeItem) Categories() (string, error) { return i.d.categories, nil }
func (i *fakeItem) ConversationTopic() (string, error) { return i.d.topic, nil }
func (i *fakeItem) AttachmentCount() (int, error) { return len(i.d.attachments), nil }
func (i *fakeItem) Body() (string, error) { return i.d.body, nil }
func (i *fakeItem) HTMLBody() (string, error) { return "", nil }
func (i *fakeItem) Recipients() ([]RecipientEntry, error) {
	return i.d.recipients, nil
}
func (i *fakeItem) Attachments() ([]Attachment, error) { return i.d.attachments, nil }
func (i *fakeItem) Start() (time.Time, error) { return i.d.start, nil }
func (i *fakeItem) End() (time.Time, error) { return i.d.end, nil }
func (i *fakeItem) Location() (string, error) { return i.d.location, nil }
func (i *fakeItem) AllDay() (bool, error) { return false, nil }
func (i *fakeItem) Recurring() (bool, error) { return i.d.recurring, nil }
func (i *fakeItem) Organizer() (string, error) { return i.d.senderAddr, nil }
func (i *fakeItem) Attendees() ([]string, error) { return nil, nil }

func (i *fakeItem) RecurrenceType() (string, error) {
	if i.d.recurrence == "" {
		return "", errors.New("fake: no pattern")
	}
	return i.d.recurrence, nil
}

func (i *fakeItem) Parent() (Folder, error) {
	if i.d.folder == nil {
		return nil, ErrNotFound
	}
	return i.store.folder(i.d.folder)
}

func (i *fakeItem) Save() error {
	i.d.saves++
	return nil
}

func (i *fakeItem) Delete() error {
	i.store.removeItem(i.d)
	delete(i.store.items, i.d.id)
	return nil
}

func (i *fakeItem) Move(target Folder) error {
	f, ok := target.(*fakeFolder)
	if !ok {
		return errors.New("fake: foreign folder")
	}
	i.store.removeItem(i.d)
	i.store.addItem(f.d, i.d)
	i.store.lastMove = f.d.name
	return nil
}

func (i *fakeItem) SetUnread(unread bool) error {
	i.d.unread = unread
	return nil
}

func (i *fakeItem) SetCategories(categories string) error {
	i.d.categories = categories
	return nil
}

func (i *fakeItem) Display() error {
	if i.d.displayErr != nil {
		return i.d.displayErr
	}
	i.store.displayed = append(i.store.displayed, i.d.id)
	return nil
}

type fakeRecipient struct {
	*fakeHandle
	d *fakeRecipientData
}

func (r *fakeRecipient) Resolved() bool { return r.d.resolved }
func (r *fakeRecipient) Address() (string, error) { return r.d.address, nil }

func (r *fakeRecipient) FreeBusy(start time.Time, intervalMinutes int) (string, error) {
	r.d.start = start
	r.d.interval = intervalMinutes
	return r.d.freeBusy, r.d.err
}

type fakeBackend struct {
	store *fakeStore
	err   error
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Open(context.Context) (Store, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.store, nil
}

// mailbox is the standard fixture used by the folder and session tests:
//
//	Mailbox
//	├── Inbox (mail)
//	│   └── Projects (mail)
//	│       └── Alpha (mail)
//	├── Sent Items (mail)
//	├── Drafts (mail)
//	├── Deleted Items (mail)
//	├── Calendar (appointment)
//	└── Archive (mail)
type mailbox struct {
	store    *fakeStore
	root     *fakeFolderData
	inbox    *fakeFolderData
	projects *fakeFolderData
	alpha    *fakeFolderData
	sent     *fakeFolderData
	drafts   *fakeFolderData
	deleted  *fakeFolderData
	calendar *fakeFolderData
	archive  *fakeFolderData
}

func newMailbox() *mailbox {
	s := newFakeStore()
	m := &mailbox{store: s}
	m.root = s.addFolder(nil, "Mailbox", ClassOther)
	m.inbox = s.addFolder(m.root, "Inbox", ClassMail)
	m.projects = s.addFolder(m.inbox, "Projects", ClassMail)
	m.alpha = s.addFolder(m.projects, "Alpha", ClassMail)
	m.sent = s.addFolder(m.root, "Sent Items", ClassMail)
	m.drafts = s.addFolder(m.root, "Drafts", ClassMail)
	m.deleted = s.addFolder(m.root, "Deleted Items", ClassMail)
	m.calendar = s.addFolder(m.root, "Calendar", ClassAppointment)
	m.archive = s.addFolder(m.root, "Archive", ClassMail)

	s.defaults[FolderInbox] = m.inbox
	s.defaults[FolderSent] = m.sent
	s.defaults[FolderDrafts] = m.drafts
	s.defaults[FolderDeleted] = m.deleted
	s.defaults[FolderCalendar] = m.calendar
	return m
}

func newMail(id, subject string, received time.Time) *fakeItemData {
	return &fakeItemData{id: id, class: ClassMail, subject: subject, received: received}
}

func newAppointment(id, subject string, start, end time.Time) *fakeItemData {
	return &fakeItemData{id: id, class: ClassAppointment, subject: subject, start: start, end: end}
}
