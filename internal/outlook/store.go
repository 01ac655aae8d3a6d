package outlook

import (
	"context"
	"time"
)

// Handle is an opaque reference to an object owned by the external store.
// A handle must be released exactly once and never used afterwards.
type Handle interface {
	Release() error
}

// Backend opens a Store. Each call returns an independent store whose
// handles must all be released on the goroutine that opened it.
type Backend interface {
	Name() string
	Open(ctx context.Context) (Store, error)
}

// Store is the root of the external object model.
type Store interface {
	Handle

	// DefaultFolder acquires one of the well-known root folders.
	DefaultFolder(kind FolderKind) (Folder, error)

	// ItemByID acquires an item by entry id. Unknown or stale ids
	// return an error matching ErrNotFound.
	ItemByID(id string) (Item, error)

	// ResolveRecipient acquires a recipient for an address. Check
	// Resolved before querying free/busy data.
	ResolveRecipient(address string) (Recipient, error)

	// CurrentUserAddress returns the address of the signed-in user.
	CurrentUserAddress() (string, error)
}

// Flusher is implemented by stores that buffer saved changes. Session
// calls Flush before releasing any handle so a failed write is
// returned instead of being swallowed as a release failure.
type Flusher interface {
	Flush() error
}

// Nameable is implemented by handles with a display name.
type Nameable interface {
	Name() (string, error)
}

// Folder is a folder handle.
type Folder interface {
	Handle
	Nameable

	EntryID() (string, error)
	// Parent acquires the parent folder. The mailbox root has no
	// parent folder and returns ErrNotFound.
	Parent() (Folder, error)
	Folders() (FolderCollection, error)
	Items() (ItemCollection, error)
	DefaultItemClass() (ItemClass, error)
	UnreadCount() (int, error)
}

// FolderCollection is a 1-based indexed collection of child folders.
type FolderCollection interface {
	Handle

	Count() (int, error)
	Folder(index int) (Folder, error)
}

// Sortable is implemented by collections that can be ordered in place.
type Sortable interface {
	Sort(key string, descending bool) error
}

// ItemCollection is a 1-based indexed collection of items.
type ItemCollection interface {
	Handle
	Sortable

	// Count may overstate the size of a collection that expands
	// recurrences; Item then returns ErrEndOfCollection.
	Count() (int, error)
	Item(index int) (Item, error)
	// Restrict returns a new collection holding the items matching
	// filter. The receiver stays valid and must still be released.
	Restrict(filter string) (ItemCollection, error)
	SetIncludeRecurrences(include bool) error
}

// Item is an item handle. Class is read once at the boundary and
// decides which capability interfaces the item is expected to satisfy.
type Item interface {
	Handle

	Class() (ItemClass, error)
	EntryID() (string, error)
	Parent() (Folder, error)
}

// Recipient is a recipient handle.
type Recipient interface {
	Handle

	Resolved() bool
	Address() (string, error)
	// FreeBusy returns one status character per interval, the first
	// covering [start, start+interval).
	FreeBusy(start time.Time, intervalMinutes int) (string, error)
}

// MailItem exposes the summary fields of a mail item.
type MailItem interface {
	Subject() (string, error)
	SenderName() (string, error)
	SenderAddress() (string, error)
	ReceivedTime() (time.Time, error)
	Unread() (bool, error)
	Categories() (string, error)
	ConversationTopic() (string, error)
	AttachmentCount() (int, error)
}

// MailContent exposes the fields only read for full records.
type MailContent interface {
	Body() (string, error)
	HTMLBody() (string, error)
	Recipients() ([]RecipientEntry, error)
	Attachments() ([]Attachment, error)
}

// TimeRanged is implemented by items with a start and end.
type TimeRanged interface {
	Start() (time.Time, error)
	End() (time.Time, error)
}

// AppointmentItem exposes the summary fields of an appointment.
type AppointmentItem interface {
	TimeRanged

	Subject() (string, error)
	Location() (string, error)
	AllDay() (bool, error)
	Recurring() (bool, error)
}

// AppointmentContent exposes the fields only read for full records.
type AppointmentContent interface {
	Body() (string, error)
	Organizer() (string, error)
	Attendees() ([]string, error)
	RecurrenceType() (string, error)
}

// Mutable is implemented by items that can be changed.
type Mutable interface {
	Save() error
	Delete() error
	Move(target Folder) error
	SetUnread(unread bool) error
	SetCategories(categories string) error
}

// Displayable is implemented by items that can be shown in the
// external UI. After Display succeeds the UI owns the handle.
type Displayable interface {
	Display() error
}

// RecipientType classifies a message recipient.
type RecipientType int

const (
	RecipientTo  RecipientType = 1
	RecipientCc  RecipientType = 2
	RecipientBcc RecipientType = 3
)

// RecipientEntry is a recipient address copied from a message.
type RecipientEntry struct {
	Type    RecipientType
	Address string
}

// Attachment describes a message attachment.
type Attachment struct {
	FileName string `json:"fileName"`
	Size     int    `json:"size"`
}
