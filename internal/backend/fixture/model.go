package fixture

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/outlookctl/internal/outlook"
)

// Mailbox is the on-disk layout of a fixture mailbox file.
type Mailbox struct {
	// User is the address of the signed-in user.
	User string `yaml:"user"`

	// MaxOpenHandles overrides the backend's handle ceiling when set.
	MaxOpenHandles int `yaml:"max_open_handles,omitempty"`

	Folders    []*FolderData    `yaml:"folders"`
	Recipients []*RecipientData `yaml:"recipients,omitempty"`
}

// FolderData is a folder and its subtree.
type FolderData struct {
	ID      string        `yaml:"id,omitempty"`
	Name    string        `yaml:"name"`
	Kind    string        `yaml:"kind,omitempty"`
	Class   string        `yaml:"class,omitempty"`
	Items   []*ItemData   `yaml:"items,omitempty"`
	Folders []*FolderData `yaml:"folders,omitempty"`

	parent *FolderData
}

// ItemData is a mail item or an appointment.
type ItemData struct {
	ID    string `yaml:"id"`
	Class string `yaml:"class,omitempty"`

	Subject     string           `yaml:"subject,omitempty"`
	Body        string           `yaml:"body,omitempty"`
	HTMLBody    string           `yaml:"html_body,omitempty"`
	Categories  string           `yaml:"categories,omitempty"`
	FromName    string           `yaml:"from_name,omitempty"`
	From        string           `yaml:"from,omitempty"`
	To          []string         `yaml:"to,omitempty"`
	Cc          []string         `yaml:"cc,omitempty"`
	Received    time.Time        `yaml:"received,omitempty"`
	Unread      bool             `yaml:"unread,omitempty"`
	Topic       string           `yaml:"topic,omitempty"`
	Attachments []AttachmentData `yaml:"attachments,omitempty"`

	Start      time.Time   `yaml:"start,omitempty"`
	End        time.Time   `yaml:"end,omitempty"`
	Location   string      `yaml:"location,omitempty"`
	AllDay     bool        `yaml:"all_day,omitempty"`
	Organizer  string      `yaml:"organizer,omitempty"`
	Attendees  []string    `yaml:"attendees,omitempty"`
	RRule      string      `yaml:"rrule,omitempty"`
	ExDates    []time.Time `yaml:"exdates,omitempty"`
	BusyStatus string      `yaml:"busy_status,omitempty"`

	folder *FolderData
}

// AttachmentData describes an attachment.
type AttachmentData struct {
	Name string `yaml:"name"`
	Size int    `yaml:"size"`
}

// RecipientData is a directory entry. Calendar names an iCalendar file
// relative to the mailbox file; ICS holds one inline.
type RecipientData struct {
	Address    string `yaml:"address"`
	Unresolved bool   `yaml:"unresolved,omitempty"`
	Calendar   string `yaml:"calendar,omitempty"`
	ICS        string `yaml:"ics,omitempty"`
}

func parseClass(s string) (outlook.ItemClass, error) {
	switch strings.ToLower(s) {
	case "", "mail":
		return outlook.ClassMail, nil
	case "appointment":
		return outlook.ClassAppointment, nil
	case "other":
		return outlook.ClassOther, nil
	default:
		return outlook.ClassOther, fmt.Errorf("unknown item class %q", s)
	}
}

// itemClass is the class of an item; an empty class defaults to the
// class of its folder.
func (d *ItemData) itemClass() outlook.ItemClass {
	if d.Class == "" && d.folder != nil {
		return d.folder.defaultClass()
	}
	c, _ := parseClass(d.Class)
	return c
}

func (f *FolderData) defaultClass() outlook.ItemClass {
	c, _ := parseClass(f.Class)
	return c
}

func (f *FolderData) path() string {
	if f.parent == nil {
		return f.Name
	}
	return f.parent.path() + "/" + f.Name
}

// link sets parent pointers, fills missing folder ids and validates
// the tree. It returns the folders by kind and the items by id.
func (m *Mailbox) link() (map[outlook.FolderKind]*FolderData, map[string]*ItemData, error) {
	kinds := make(map[outlook.FolderKind]*FolderData)
	items := make(map[string]*ItemData)

	var walk func(parent, f *FolderData) error
	walk = func(parent, f *FolderData) error {
		f.parent = parent
		if f.Name == "" {
			return fmt.Errorf("folder without name under %q", parent.path())
		}
		if f.ID == "" {
			f.ID = "folder:" + f.path()
		}
		if _, err := parseClass(f.Class); err != nil {
			return fmt.Errorf("folder %s: %w", f.path(), err)
		}
		if f.Kind != "" {
			kind, ok := outlook.ParseFolderKind(f.Kind)
			if !ok {
				return fmt.Errorf("folder %s: unknown kind %q", f.path(), f.Kind)
			}
			if _, dup := kinds[kind]; dup {
				return fmt.Errorf("folder %s: duplicate kind %q", f.path(), f.Kind)
			}
			kinds[kind] = f
		}
		for _, it := range f.Items {
			if it.ID == "" {
				return fmt.Errorf("item without id in %s", f.path())
			}
			if _, dup := items[it.ID]; dup {
				return fmt.Errorf("duplicate item id %q", it.ID)
			}
			if _, err := parseClass(it.Class); err != nil {
				return fmt.Errorf("item %s: %w", it.ID, err)
			}
			it.folder = f
			items[it.ID] = it
		}
		for _, child := range f.Folders {
			if err := walk(f, child); err != nil {
				return err
			}
		}
		return nil
	}

	if len(m.Folders) != 1 {
		return nil, nil, fmt.Errorf("mailbox must have exactly one root folder, got %d", len(m.Folders))
	}
	if err := walk(nil, m.Folders[0]); err != nil {
		return nil, nil, err
	}
	return kinds, items, nil
}

func (m *Mailbox) recipient(address string) *RecipientData {
	for _, r := range m.Recipients {
		if strings.EqualFold(r.Address, address) {
			return r
		}
	}
	return nil
}

func removeItem(f *FolderData, d *ItemData) {
	for i, it := range f.Items {
		if it == d {
			f.Items = append(f.Items[:i], f.Items[i+1:]...)
			return
		}
	}
}
