// Package vfs is a small mountable virtual filesystem used to stage scene
// documents and their assets before the loader parses them.
//
// The root is an in-memory filesystem. Directories created on the root can
// have another backend mounted on top of them; paths under a mount point are
// resolved against the longest matching mount.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

var (
	// ErrNotFound indicates that a path does not exist.
	ErrNotFound = errors.New("vfs: not found")
	// ErrExists indicates that a path already exists.
	ErrExists = errors.New("vfs: already exists")
	// ErrNotDir indicates that a mount target is not a directory.
	ErrNotDir = errors.New("vfs: not a directory")
	// ErrBusy indicates that a mount point already has a backend.
	ErrBusy = errors.New("vfs: mount point busy")
	// ErrInvalid indicates an invalid (non-absolute or empty) path.
	ErrInvalid = errors.New("vfs: invalid path")
)

// NewMemFS returns a fresh in-memory backend suitable for Mount.
func NewMemFS() afero.Fs { return afero.NewMemMapFs() }

type mount struct {
	prefix string
	fs     afero.Fs
}

// FS is the virtual filesystem. It is safe for concurrent use.
type FS struct {
	mu     sync.RWMutex
	root   afero.Fs
	mounts []mount // sorted by descending prefix length
}

// New returns a filesystem with an empty in-memory root.
func New() *FS {
	return &FS{root: afero.NewMemMapFs()}
}

// Mkdir creates a directory on the filesystem that owns path.
func (f *FS) Mkdir(p string) error {
	p, err := clean(p)
	if err != nil {
		return err
	}
	backend, rel := f.resolve(p)
	if ok, _ := afero.Exists(backend, rel); ok {
		return fmt.Errorf("vfs: mkdir %s: %w", p, ErrExists)
	}
	if err := backend.MkdirAll(rel, 0o755); err != nil {
		return fmt.Errorf("vfs: mkdir %s: %w", p, err)
	}
	return nil
}

// Mount attaches backend at dir. dir must be an existing directory and must
// not already be a mount point.
func (f *FS) Mount(backend afero.Fs, dir string) error {
	if backend == nil {
		return fmt.Errorf("vfs: mount %s: nil backend: %w", dir, ErrInvalid)
	}
	dir, err := clean(dir)
	if err != nil {
		return err
	}

	owner, rel := f.resolve(dir)
	isDir, err := afero.DirExists(owner, rel)
	if err != nil {
		return fmt.Errorf("vfs: mount %s: %w", dir, err)
	}
	if !isDir {
		if ok, _ := afero.Exists(owner, rel); ok {
			return fmt.Errorf("vfs: mount %s: %w", dir, ErrNotDir)
		}
		return fmt.Errorf("vfs: mount %s: %w", dir, ErrNotFound)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mounts {
		if m.prefix == dir {
			return fmt.Errorf("vfs: mount %s: %w", dir, ErrBusy)
		}
	}
	f.mounts = append(f.mounts, mount{prefix: dir, fs: backend})
	sort.SliceStable(f.mounts, func(i, j int) bool {
		return len(f.mounts[i].prefix) > len(f.mounts[j].prefix)
	})
	return nil
}

// Unmount detaches the backend mounted at dir.
func (f *FS) Unmount(dir string) error {
	dir, err := clean(dir)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.mounts {
		if m.prefix == dir {
			f.mounts = append(f.mounts[:i], f.mounts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("vfs: unmount %s: %w", dir, ErrNotFound)
}

// WriteFile writes data to p, creating parent directories inside the owning
// backend as needed. Existing files are truncated.
func (f *FS) WriteFile(p string, data []byte) error {
	p, err := clean(p)
	if err != nil {
		return err
	}
	backend, rel := f.resolve(p)
	if dir := path.Dir(rel); dir != "/" {
		if err := backend.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("vfs: write %s: %w", p, err)
		}
	}
	if err := afero.WriteFile(backend, rel, data, 0o644); err != nil {
		return fmt.Errorf("vfs: write %s: %w", p, err)
	}
	return nil
}

// ReadFile returns the contents of p.
func (f *FS) ReadFile(p string) ([]byte, error) {
	p, err := clean(p)
	if err != nil {
		return nil, err
	}
	backend, rel := f.resolve(p)
	b, err := afero.ReadFile(backend, rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("vfs: read %s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("vfs: read %s: %w", p, err)
	}
	return b, nil
}

// Stat returns file info for p.
func (f *FS) Stat(p string) (fs.FileInfo, error) {
	p, err := clean(p)
	if err != nil {
		return nil, err
	}
	backend, rel := f.resolve(p)
	info, err := backend.Stat(rel)
	if err != nil {
		return nil, fmt.Errorf("vfs: stat %s: %w", p, ErrNotFound)
	}
	return info, nil
}

// ReadDir lists the names in directory p, sorted.
func (f *FS) ReadDir(p string) ([]string, error) {
	p, err := clean(p)
	if err != nil {
		return nil, err
	}
	backend, rel := f.resolve(p)
	infos, err := afero.ReadDir(backend, rel)
	if err != nil {
		return nil, fmt.Errorf("vfs: readdir %s: %w", p, ErrNotFound)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

// resolve returns the backend owning p and the path relative to it.
func (f *FS) resolve(p string) (afero.Fs, string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, m := range f.mounts {
		if p == m.prefix {
			return m.fs, "/"
		}
		if strings.HasPrefix(p, m.prefix+"/") {
			return m.fs, p[len(m.prefix):]
		}
	}
	return f.root, p
}

func clean(p string) (string, error) {
	if p == "" || !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalid, p)
	}
	return path.Clean(p), nil
}
