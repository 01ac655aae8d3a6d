package fixture

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/outlookctl/internal/logging"
	"github.com/teemow/outlookctl/internal/outlook"
)

// Store is an outlook.Store over an in-memory mailbox. It is not safe
// for concurrent use.
type Store struct {
	backend *Backend
	mailbox *Mailbox
	kinds   map[outlook.FolderKind]*FolderData
	items   map[string]*ItemData
	logger  *slog.Logger

	maxOpen   int
	open      int
	acquired  int
	displayed int
	dirty     bool
	released  bool
}

// OpenHandles returns the number of handles not yet released.
func (s *Store) OpenHandles() int {
	return s.open
}

// Acquired returns the number of handles handed out so far.
func (s *Store) Acquired() int {
	return s.acquired
}

// Flush writes saved mutations back to the mailbox file when writeback
// is enabled. It implements outlook.Flusher.
func (s *Store) Flush() error {
	if s.released {
		return fmt.Errorf("%w: store already released", outlook.ErrExternalFault)
	}
	if !s.dirty || !s.backend.opts.Writeback {
		return nil
	}
	if err := Save(s.backend.path, s.mailbox); err != nil {
		return fmt.Errorf("%w: %w", outlook.ErrExternalFault, err)
	}
	s.dirty = false
	s.logger.Debug("mailbox written back", slog.String("path", s.backend.path))
	return nil
}

// Release releases the store. Changes not written by Flush are
// discarded.
func (s *Store) Release() error {
	if s.released {
		return fmt.Errorf("%w: store released twice", outlook.ErrExternalFault)
	}
	s.released = true
	if leaked := s.open - s.displayed; leaked > 0 {
		s.logger.Warn("store released with open handles", slog.Int("open", leaked))
	}
	if s.dirty && s.backend.opts.Writeback {
		s.logger.Warn("store released with unsaved changes", slog.String("path", s.backend.path))
	}
	return nil
}

func (s *Store) acquire(kind string) (handle, error) {
	if s.released {
		return handle{}, fmt.Errorf("%w: store already released", outlook.ErrExternalFault)
	}
	if s.open >= s.maxOpen {
		return handle{}, fmt.Errorf("%w: %d handles open", outlook.ErrResourceExhausted, s.open)
	}
	s.open++
	s.acquired++
	return handle{store: s, kind: kind}, nil
}

// DefaultFolder implements outlook.Store.
func (s *Store) DefaultFolder(kind outlook.FolderKind) (outlook.Folder, error) {
	d, ok := s.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no %s folder", outlook.ErrNotFound, kind)
	}
	return s.folder(d)
}

func (s *Store) folder(d *FolderData) (outlook.Folder, error) {
	h, err := s.acquire("folder")
	if err != nil {
		return nil, err
	}
	return &folder{handle: h, d: d}, nil
}

// ItemByID implements outlook.Store.
func (s *Store) ItemByID(id string) (outlook.Item, error) {
	d, ok := s.items[id]
	if !ok || d.folder == nil {
		return nil, fmt.Errorf("%w: entry %s", outlook.ErrNotFound, id)
	}
	return s.item(entry{d: d, start: d.Start, end: d.End})
}

func (s *Store) item(e entry) (outlook.Item, error) {
	h, err := s.acquire("item")
	if err != nil {
		return nil, err
	}
	return &item{handle: h, entry: e}, nil
}

// ResolveRecipient implements outlook.Store. Unknown addresses yield
// an unresolved recipient, not an error.
func (s *Store) ResolveRecipient(address string) (outlook.Recipient, error) {
	h, err := s.acquire("recipient")
	if err != nil {
		return nil, err
	}
	r := &recipient{handle: h, address: address}
	switch d := s.mailbox.recipient(address); {
	case d != nil:
		r.d = d
		r.resolved = !d.Unresolved
	case s.isUser(address):
		r.resolved = true
	}
	return r, nil
}

// CurrentUserAddress implements outlook.Store.
func (s *Store) CurrentUserAddress() (string, error) {
	if s.mailbox.User == "" {
		return "", fmt.Errorf("%w: mailbox has no user", outlook.ErrNotFound)
	}
	return s.mailbox.User, nil
}

func (s *Store) isUser(address string) bool {
	return s.mailbox.User != "" && strings.EqualFold(s.mailbox.User, address)
}

// deleteItem moves d to the deleted items folder, or removes it for
// good when it already is there.
func (s *Store) deleteItem(d *ItemData) {
	trash := s.kinds[outlook.FolderDeleted]
	removeItem(d.folder, d)
	if trash == nil || d.folder == trash {
		d.folder = nil
		delete(s.items, d.ID)
	} else {
		d.folder = trash
		trash.Items = append(trash.Items, d)
	}
	s.dirty = true
	s.logger.Debug("item deleted", logging.Item(d.ID))
}

func (s *Store) moveItem(d *ItemData, target *FolderData) {
	removeItem(d.folder, d)
	d.folder = target
	target.Items = append(target.Items, d)
	s.dirty = true
	s.logger.Debug("item moved", logging.Item(d.ID), logging.Folder(target.path()))
}

// handle is embedded in every handle type. It is released exactly once.
type handle struct {
	store    *Store
	kind     string
	released bool
}

func (h *handle) Release() error {
	if h.released {
		return fmt.Errorf("%w: %s handle released twice", outlook.ErrExternalFault, h.kind)
	}
	h.released = true
	h.store.open--
	return nil
}

func (h *handle) live() error {
	if h.released {
		return fmt.Errorf("%w: %s handle used after release", outlook.ErrExternalFault, h.kind)
	}
	return nil
}
