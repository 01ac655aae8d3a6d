package fixture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teemow/outlookctl/internal/logging"
	"github.com/teemow/outlookctl/internal/outlook"
)

// Name is the backend name used in configuration.
const Name = "fixture"

// DefaultMaxOpenHandles is the handle ceiling used when none is configured.
const DefaultMaxOpenHandles = 256

const (
	// maxOccurrences caps the expansion of one recurring appointment.
	maxOccurrences = 5000

	// recurrenceHorizon bounds open-ended recurrence rules.
	recurrenceHorizon = 2 * 365 * 24 * time.Hour

	// freeBusyHorizon is the span covered by a free/busy string.
	freeBusyHorizon = 42 * 24 * time.Hour
)

// Options configures a Backend.
type Options struct {
	// MaxOpenHandles is the number of handles a store hands out before
	// failing with outlook.ErrResourceExhausted. Zero uses the mailbox
	// file's value or DefaultMaxOpenHandles.
	MaxOpenHandles int

	// Writeback saves changed mailboxes back to the file when the session closes.
	Writeback bool

	// Location is used to interpret times in filters. Defaults to time.Local.
	Location *time.Location

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Backend opens stores backed by a YAML mailbox file.
type Backend struct {
	path string
	opts Options
}

// New creates a Backend reading the mailbox file at path.
func New(path string, opts Options) *Backend {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Backend{path: path, opts: opts}
}

// Name implements outlook.Backend.
func (b *Backend) Name() string {
	return Name
}

// Open loads the mailbox file and returns a store over it.
func (b *Backend) Open(ctx context.Context) (outlook.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mb, err := Load(b.path)
	if err != nil {
		return nil, err
	}
	kinds, items, err := mb.link()
	if err != nil {
		return nil, fmt.Errorf("invalid mailbox %s: %w", b.path, err)
	}

	limit := b.opts.MaxOpenHandles
	if limit == 0 {
		limit = mb.MaxOpenHandles
	}
	if limit == 0 {
		limit = DefaultMaxOpenHandles
	}

	return &Store{
		backend: b,
		mailbox: mb,
		kinds:   kinds,
		items:   items,
		maxOpen: limit,
		logger:  b.opts.Logger.With(slog.String(logging.KeyBackend, Name)),
	}, nil
}

// Load reads and parses a mailbox file.
func Load(path string) (*Mailbox, error) {
	if path == "" {
		return nil, errors.New("fixture mailbox path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mailbox: %w", err)
	}
	var mb Mailbox
	if err := yaml.Unmarshal(data, &mb); err != nil {
		return nil, fmt.Errorf("failed to parse mailbox %s: %w", path, err)
	}
	return &mb, nil
}

// Save writes a mailbox file atomically through a temp file and rename.
func Save(path string, mb *Mailbox) error {
	if path == "" {
		return errors.New("fixture mailbox path is empty")
	}
	data, err := yaml.Marshal(mb)
	if err != nil {
		return fmt.Errorf("failed to encode mailbox: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".outlookctl-mailbox-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write mailbox: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write mailbox: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to set mailbox permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace mailbox: %w", err)
	}
	return nil
}
