package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DirPrefix marks directories owned by a Manager so Sweep never touches
// anything else living under the same root.
const DirPrefix = "req-"

// maxAttempts bounds how many fresh names Acquire tries after a collision.
const maxAttempts = 8

// ErrNameExhausted is returned when every generated name already exists.
var ErrNameExhausted = errors.New("workspace: could not allocate a unique directory name")

// NameFunc generates a candidate workspace name.
type NameFunc func() string

// Option configures a Manager.
type Option func(*Manager)

// WithNameFunc overrides the default UUIDv7 name generator.
func WithNameFunc(fn NameFunc) Option {
	return func(m *Manager) {
		m.newName = fn
	}
}

// Manager hands out private per-request directories under a single root.
type Manager struct {
	root    string
	newName NameFunc
}

// NewManager creates the root directory if needed and returns a Manager for it.
func NewManager(root string, opts ...Option) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace: root directory is required")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create workspace root %s: %w", root, err)
	}

	m := &Manager{
		root:    root,
		newName: defaultName,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Root returns the directory workspaces are created in.
func (m *Manager) Root() string {
	return m.root
}

// Acquire creates a new uniquely named workspace directory. The caller owns it
// and must call Release on every exit path.
func (m *Manager) Acquire(ctx context.Context) (*Workspace, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := filepath.Join(m.root, DirPrefix+m.newName())
		// Mkdir, not MkdirAll: an existing directory must surface as a collision.
		err := os.Mkdir(dir, 0o700)
		if err == nil {
			return &Workspace{path: dir}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create workspace: %w", err)
		}
	}
	return nil, ErrNameExhausted
}

// Sweep removes workspace directories left behind by a previous process,
// e.g. after a crash. Only entries carrying DirPrefix and older than
// olderThan are removed. It returns the number of directories removed.
func (m *Manager) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, fmt.Errorf("failed to read workspace root: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), DirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.root, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Workspace is a directory exclusively owned by one request.
type Workspace struct {
	path string
	once sync.Once
	err  error
}

// Path returns the workspace directory.
func (w *Workspace) Path() string {
	return w.path
}

// Join returns a path inside the workspace.
func (w *Workspace) Join(name string) string {
	return filepath.Join(w.path, name)
}

// Release deletes the workspace and everything in it. Safe to call more than once.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.path)
	})
	return w.err
}

func defaultName() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
