package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/joshuapare/bufheap/internal/logger"
	"github.com/joshuapare/bufheap/pkg/types"
)

// FileExt is the extension of registry backing files.
const FileExt = ".cache"

// ErrBadName is returned for names that cannot be used as a file name stem.
var ErrBadName = errors.New("store: invalid registry name")

// Registry hands out one Store per name, each backed by a file
// "<name>#<n>.cache" in a directory. Names are case-insensitive.
//
// A host constructs one Registry at startup and passes it to the code that
// needs named stores. Close tears down every store and deletes its file.
type Registry struct {
	dir  string
	opts Options

	mu     sync.Mutex
	fold   cases.Caser // not safe for concurrent use; guarded by mu
	stores map[string]*registryEntry
	seq    int
	closed bool
}

type registryEntry struct {
	name  string
	path  string
	store *Store
}

// NewRegistry returns a registry creating stores in dir with opts.
func NewRegistry(dir string, opts Options) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.Wrap(types.ErrKindIO, "create registry dir", err)
	}
	return &Registry{
		dir:    dir,
		opts:   opts,
		fold:   cases.Fold(),
		stores: make(map[string]*registryEntry),
	}, nil
}

// Dir returns the directory holding the backing files.
func (r *Registry) Dir() string { return r.dir }

func (r *Registry) key(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `#/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%q: %w", name, ErrBadName)
	}
	return r.fold.String(name), nil
}

// Get returns the store for name, creating it on first use. Backing files
// for name left behind by an earlier process are deleted first.
func (r *Registry) Get(name string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, types.ErrClosed
	}
	key, err := r.key(name)
	if err != nil {
		return nil, err
	}
	if e, ok := r.stores[key]; ok {
		return e.store, nil
	}

	r.removeOrphans(key)
	path := filepath.Join(r.dir, fmt.Sprintf("%s#%d%s", key, r.seq, FileExt))
	r.seq++
	s, err := Create(path, r.opts)
	if err != nil {
		return nil, err
	}
	r.stores[key] = &registryEntry{name: name, path: path, store: s}
	logger.Debug("registry: store created", "name", name, "path", path)
	return s, nil
}

// removeOrphans deletes "<key>#*.cache" files that no live store owns.
func (r *Registry) removeOrphans(key string) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		logger.Warn("registry: scan for orphans", "dir", r.dir, "error", err)
		return
	}
	prefix := key + "#"
	for _, de := range entries {
		n := de.Name()
		if de.IsDir() || !strings.HasSuffix(n, FileExt) {
			continue
		}
		stem := strings.TrimSuffix(n, FileExt)
		if !strings.HasPrefix(r.fold.String(stem), prefix) {
			continue
		}
		p := filepath.Join(r.dir, n)
		if err := os.Remove(p); err != nil {
			logger.Warn("registry: remove orphan", "path", p, "error", err)
			continue
		}
		logger.Info("registry: removed orphaned store file", "path", p)
	}
}

// Remove closes the store for name and deletes its file. Removing an unknown
// name is a no-op.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, err := r.key(name)
	if err != nil {
		return err
	}
	e, ok := r.stores[key]
	if !ok {
		return nil
	}
	delete(r.stores, key)
	return e.teardown()
}

func (e *registryEntry) teardown() error {
	err := e.store.Close()
	if rerr := os.Remove(e.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
		err = errors.Join(err, types.Wrap(types.ErrKindIO, "remove store file", rerr))
	}
	return err
}

// Names returns the names of the live stores as first passed to Get, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.stores))
	for _, e := range r.stores {
		out = append(out, e.name)
	}
	sort.Strings(out)
	return out
}

// Close closes every store and deletes its file.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	for key, e := range r.stores {
		if err := e.teardown(); err != nil {
			errs = append(errs, fmt.Errorf("store %q: %w", e.name, err))
		}
		delete(r.stores, key)
	}
	return errors.Join(errs...)
}
