package outlook

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/teemow/outlookctl/internal/instrumentation"
	"github.com/teemow/outlookctl/internal/logging"
)

// Query describes a single enumeration over an item collection.
type Query struct {
	// SortKey is a property reference such as "[ReceivedTime]". Empty
	// leaves the collection order unchanged.
	SortKey    string
	Descending bool

	// Filter is passed to Restrict when non-empty.
	Filter string

	// IncludeRecurrences expands recurring appointments. The store
	// requires it to be set, and the collection sorted, before Restrict.
	IncludeRecurrences bool

	// Class selects the items that produce records. Items of any other
	// class are skipped and do not count against Limit.
	Class ItemClass

	// Limit caps the number of records produced. Zero means no limit.
	Limit int
}

// Cursor enumerates item collections by 1-based index, releasing each
// item as soon as it has been mapped.
type Cursor struct {
	reg       *Registry
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
	operation string
}

// NewCursor creates a cursor whose collection handles are owned by reg.
// operation labels log lines and metrics.
func NewCursor(reg *Registry, logger *slog.Logger, metrics *instrumentation.Metrics, operation string) *Cursor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cursor{reg: reg, logger: logger, metrics: metrics, operation: operation}
}

// Enumerate applies q to items and maps every matching item with fn.
// Items that fail to load or map are skipped. The returned slice never
// shares state with the collection; calling Enumerate again re-reads it.
func Enumerate[T any](c *Cursor, items ItemCollection, q Query, fn func(Item) (T, error)) ([]T, error) {
	items, err := c.prepare(items, q)
	if err != nil {
		return nil, err
	}

	count, err := items.Count()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to count items: %w", ErrExternalFault, err)
	}

	var out []T
	for i := 1; i <= count; i++ {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		item, err := items.Item(i)
		if errors.Is(err, ErrEndOfCollection) {
			break
		}
		if errors.Is(err, ErrResourceExhausted) {
			return nil, err
		}
		if err != nil {
			c.skip(i, err)
			continue
		}
		Borrow(c.reg, item)
		rec, ok, err := visitItem(c, item, q.Class, fn)
		if err != nil {
			c.skip(i, err)
			continue
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// visitItem maps one item and releases it regardless of the outcome.
func visitItem[T any](c *Cursor, item Item, want ItemClass, fn func(Item) (T, error)) (rec T, ok bool, err error) {
	defer c.reg.releaseNow(item)

	class, err := item.Class()
	if err != nil {
		return rec, false, err
	}
	if class != want {
		return rec, false, nil
	}
	rec, err = fn(item)
	if err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// prepare applies sorting, recurrence expansion and filtering in the
// order the store requires and returns the collection to iterate.
func (c *Cursor) prepare(items ItemCollection, q Query) (ItemCollection, error) {
	if q.IncludeRecurrences {
		if err := items.SetIncludeRecurrences(true); err != nil {
			return nil, fmt.Errorf("%w: failed to include recurrences: %w", ErrExternalFault, err)
		}
		if err := c.sort(items, q); err != nil {
			return nil, err
		}
		return c.restrict(items, q.Filter)
	}

	items, err := c.restrict(items, q.Filter)
	if err != nil {
		return nil, err
	}
	if err := c.sort(items, q); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Cursor) sort(items ItemCollection, q Query) error {
	if q.SortKey == "" {
		return nil
	}
	if err := items.Sort(q.SortKey, q.Descending); err != nil {
		return fmt.Errorf("%w: failed to sort by %s: %w", ErrExternalFault, q.SortKey, err)
	}
	return nil
}

func (c *Cursor) restrict(items ItemCollection, filter string) (ItemCollection, error) {
	if filter == "" {
		return items, nil
	}
	restricted, err := items.Restrict(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrUnsupportedFilter, filter, err)
	}
	return Track(c.reg, restricted), nil
}

func (c *Cursor) skip(index int, err error) {
	c.metrics.RecordItemSkipped(c.reg.ctx, c.operation)
	c.logger.Debug("skipping unreadable item",
		logging.Operation(c.operation),
		slog.Int("index", index),
		logging.Err(err))
}
