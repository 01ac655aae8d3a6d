package outlook

import "errors"

var (
	// ErrNotFound is returned when an entry id or object cannot be resolved.
	ErrNotFound = errors.New("outlook: not found")

	// ErrFolderNotFound is returned when no alias or folder name matches.
	ErrFolderNotFound = errors.New("outlook: folder not found")

	// ErrRecipientUnresolved is returned when the directory cannot
	// resolve an address to a single recipient.
	ErrRecipientUnresolved = errors.New("outlook: recipient unresolved")

	// ErrUnsupportedFilter is returned when the store rejects a filter expression.
	ErrUnsupportedFilter = errors.New("outlook: unsupported filter")

	// ErrResourceExhausted is returned when the store refuses to hand
	// out more open handles.
	ErrResourceExhausted = errors.New("outlook: too many open items")

	// ErrExternalFault wraps any other failure of the automation interface.
	ErrExternalFault = errors.New("outlook: external fault")

	// ErrWrongItemClass is returned when an item is not of the class an
	// operation requires.
	ErrWrongItemClass = errors.New("outlook: wrong item class")

	// ErrEndOfCollection is returned by indexed access past the last item.
	ErrEndOfCollection = errors.New("outlook: end of collection")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("outlook: session closed")
)
