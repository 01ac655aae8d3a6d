package outlook

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/outlookctl/internal/instrumentation"
	"github.com/teemow/outlookctl/internal/logging"
)

// FolderRef is a resolved folder. The handle is owned by the session
// registry that resolved it.
type FolderRef struct {
	Folder Folder
	Kind   *FolderKind

	name     string
	resolver *FolderResolver
}

// Name returns the display name read at resolution time.
func (f *FolderRef) Name() string {
	return f.name
}

// Path returns the slash separated path from the mailbox root. It is
// computed on each call by walking parent folders.
func (f *FolderRef) Path() (string, error) {
	parts := []string{f.name}
	cur, err := f.Folder.Parent()
	if err == nil {
		Borrow(f.resolver.reg, cur)
	}
	for err == nil {
		name, nerr := cur.Name()
		next, perr := cur.Parent()
		f.resolver.reg.releaseNow(cur)
		if perr == nil {
			Borrow(f.resolver.reg, next)
		}
		if nerr != nil {
			if perr == nil {
				f.resolver.reg.releaseNow(next)
			}
			return "", fmt.Errorf("failed to read folder name: %w", nerr)
		}
		parts = append(parts, name)
		cur, err = next, perr
	}
	if !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("failed to read parent folder: %w", err)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/"), nil
}

// FolderInfo describes a mail folder.
type FolderInfo struct {
	Name        string `json:"name"`
	FullPath    string `json:"fullPath"`
	ItemCount   int    `json:"itemCount"`
	UnreadCount int    `json:"unreadCount"`
}

// FolderResolver maps folder names to folder handles.
type FolderResolver struct {
	store   Store
	reg     *Registry
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewFolderResolver creates a resolver whose handles are owned by reg.
func NewFolderResolver(store Store, reg *Registry, logger *slog.Logger, metrics *instrumentation.Metrics) *FolderResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &FolderResolver{store: store, reg: reg, logger: logger, metrics: metrics}
}

// Resolve returns the folder for name. An empty name resolves to the
// inbox, a known alias to its well-known folder, and anything else to
// the first folder in pre-order under the mailbox root whose name
// matches case-insensitively.
func (r *FolderResolver) Resolve(name string) (*FolderRef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return r.Default(FolderInbox)
	}
	if kind, ok := LookupAlias(name); ok {
		return r.Default(kind)
	}

	root, err := r.mailboxRoot()
	if err != nil {
		return nil, err
	}

	var found Folder
	var foundName string
	err = r.walk(root, func(f Folder, fname, _ string) bool {
		if strings.EqualFold(fname, name) {
			found, foundName = f, fname
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %q", ErrFolderNotFound, name)
	}
	if found != root {
		r.reg.adopt(found)
	}
	return &FolderRef{Folder: found, name: foundName, resolver: r}, nil
}

// Default acquires a well-known root folder.
func (r *FolderResolver) Default(kind FolderKind) (*FolderRef, error) {
	f, err := r.store.DefaultFolder(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s folder: %w", kind, err)
	}
	Track(r.reg, f)
	name, err := f.Name()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s folder name: %w", kind, err)
	}
	k := kind
	return &FolderRef{Folder: f, Kind: &k, name: name, resolver: r}, nil
}

// List returns every mail folder under the mailbox root in pre-order.
func (r *FolderResolver) List() ([]FolderInfo, error) {
	root, err := r.mailboxRoot()
	if err != nil {
		return nil, err
	}

	var result []FolderInfo
	err = r.walk(root, func(f Folder, name, path string) bool {
		class, err := f.DefaultItemClass()
		if err != nil || class != ClassMail {
			return false
		}
		info, err := r.folderInfo(f, name, path)
		if err != nil {
			r.logger.Debug("skipping folder counts", logging.Folder(path), logging.Err(err))
			return false
		}
		result = append(result, info)
		return false
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *FolderResolver) folderInfo(f Folder, name, path string) (FolderInfo, error) {
	items, err := f.Items()
	if err != nil {
		return FolderInfo{}, err
	}
	Borrow(r.reg, items)
	count, err := items.Count()
	r.reg.releaseNow(items)
	if err != nil {
		return FolderInfo{}, err
	}
	unread, err := f.UnreadCount()
	if err != nil {
		return FolderInfo{}, err
	}
	return FolderInfo{Name: name, FullPath: path, ItemCount: count, UnreadCount: unread}, nil
}

// mailboxRoot acquires the parent of the inbox.
func (r *FolderResolver) mailboxRoot() (Folder, error) {
	inbox, err := r.Default(FolderInbox)
	if err != nil {
		return nil, err
	}
	root, err := inbox.Folder.Parent()
	if err != nil {
		return nil, fmt.Errorf("failed to open mailbox root: %w", err)
	}
	return Track(r.reg, root), nil
}

type walkFrame struct {
	folder   Folder
	path     string
	children FolderCollection
	count    int
	next     int
	owned    bool
}

// walk visits root and its descendants in pre-order with an explicit
// stack. visit returns true to stop; the folder it stopped on is left
// unreleased for the caller. Every other handle acquired by the walk
// is released when its subtree is finished. Subtrees that fail to open
// are skipped unless the store ran out of handles.
func (r *FolderResolver) walk(root Folder, visit func(f Folder, name, path string) bool) error {
	rootName, err := root.Name()
	if err != nil {
		return fmt.Errorf("%w: failed to read mailbox root name: %w", ErrExternalFault, err)
	}
	if visit(root, rootName, rootName) {
		return nil
	}

	stack := []*walkFrame{{folder: root, path: rootName}}
	pop := func() {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r.reg.releaseNow(top.children)
		if top.owned {
			r.reg.releaseNow(top.folder)
		}
	}
	abort := func(err error) error {
		for len(stack) > 0 {
			pop()
		}
		return err
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.children == nil {
			children, err := top.folder.Folders()
			if err == nil {
				Borrow(r.reg, children)
				top.count, err = children.Count()
				top.children = children
			}
			if err != nil {
				if errors.Is(err, ErrResourceExhausted) {
					return abort(err)
				}
				r.skipSubtree(top.path, err)
				pop()
				continue
			}
		}
		if top.next >= top.count {
			pop()
			continue
		}
		top.next++

		child, err := top.children.Folder(top.next)
		if errors.Is(err, ErrResourceExhausted) {
			return abort(err)
		}
		if err != nil {
			r.skipSubtree(fmt.Sprintf("%s/#%d", top.path, top.next), err)
			continue
		}
		Borrow(r.reg, child)
		name, err := child.Name()
		if err != nil {
			r.reg.releaseNow(child)
			r.skipSubtree(fmt.Sprintf("%s/#%d", top.path, top.next), err)
			continue
		}
		path := top.path + "/" + name
		if visit(child, name, path) {
			return abort(nil)
		}
		stack = append(stack, &walkFrame{folder: child, path: path, owned: true})
	}
	return nil
}

func (r *FolderResolver) skipSubtree(path string, err error) {
	r.metrics.RecordFolderSkipped(r.reg.ctx)
	r.logger.Debug("skipping folder subtree", logging.Folder(path), logging.Err(err))
}
