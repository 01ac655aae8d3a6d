package outlook

import "fmt"

// ItemClass is the closed set of item kinds this package distinguishes.
type ItemClass int

const (
	ClassOther ItemClass = iota
	ClassMail
	ClassAppointment
)

// Numeric class tags used by the automation interface.
const (
	olMail        = 43
	olAppointment = 26
)

// ClassFromTag maps an automation item class tag to an ItemClass.
func ClassFromTag(tag int) ItemClass {
	switch tag {
	case olMail:
		return ClassMail
	case olAppointment:
		return ClassAppointment
	default:
		return ClassOther
	}
}

// String implements fmt.Stringer.
func (c ItemClass) String() string {
	switch c {
	case ClassMail:
		return "mail"
	case ClassAppointment:
		return "appointment"
	default:
		return "other"
	}
}

// FolderKind identifies a well-known root folder.
type FolderKind int

const (
	FolderInbox FolderKind = iota
	FolderSent
	FolderDrafts
	FolderDeleted
	FolderOutbox
	FolderJunk
	FolderCalendar
	FolderContacts
)

// DefaultFolderID returns the automation interface identifier for the kind.
func (k FolderKind) DefaultFolderID() int {
	switch k {
	case FolderInbox:
		return 6
	case FolderSent:
		return 5
	case FolderDrafts:
		return 16
	case FolderDeleted:
		return 3
	case FolderOutbox:
		return 4
	case FolderJunk:
		return 23
	case FolderCalendar:
		return 9
	case FolderContacts:
		return 10
	default:
		return 0
	}
}

// String implements fmt.Stringer.
func (k FolderKind) String() string {
	switch k {
	case FolderInbox:
		return "inbox"
	case FolderSent:
		return "sent"
	case FolderDrafts:
		return "drafts"
	case FolderDeleted:
		return "deleted"
	case FolderOutbox:
		return "outbox"
	case FolderJunk:
		return "junk"
	case FolderCalendar:
		return "calendar"
	case FolderContacts:
		return "contacts"
	default:
		return fmt.Sprintf("FolderKind(%d)", int(k))
	}
}

// ParseFolderKind parses the canonical kind names returned by String.
func ParseFolderKind(s string) (FolderKind, bool) {
	for k := FolderInbox; k <= FolderContacts; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}
