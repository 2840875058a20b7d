// Package fstest builds in-memory trees for tests and injects filesystem
// failures that cannot be provoked reliably on a real disk (tests often run
// as root, where permission bits are ignored).
package fstest

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// Tree describes files to create: keys are absolute slash paths, values are
// contents. A key ending in "/" creates an empty directory; a value
// starting with "->" creates a symlink to the rest of the value.
type Tree map[string]string

// NewMemFS returns a memfs populated with t.
func NewMemFS(t Tree) (billy.Filesystem, error) {
	fsys := memfs.New()
	if err := Populate(fsys, t); err != nil {
		return nil, err
	}
	return fsys, nil
}

// Populate writes t into fsys. Entries are created in sorted order so
// parents always exist first.
func Populate(fsys billy.Filesystem, t Tree) error {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		content := t[p]
		name := filepath.FromSlash(p)
		switch {
		case strings.HasSuffix(p, "/"):
			if err := fsys.MkdirAll(name, 0o755); err != nil {
				return err
			}
		case strings.HasPrefix(content, "->"):
			if err := fsys.Symlink(strings.TrimPrefix(content, "->"), name); err != nil {
				return err
			}
		default:
			if err := fsys.MkdirAll(filepath.Dir(name), 0o755); err != nil {
				return err
			}
			if err := util.WriteFile(fsys, name, []byte(content), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

// Op is a filesystem operation a FaultyFS can fail.
type Op int

const (
	OpOpen Op = iota
	OpRead
	OpReadDir
	OpLstat
	OpStat
)

type fault struct {
	op   Op
	path string
}

// FaultyFS wraps a filesystem and fails selected operations on selected
// paths.
type FaultyFS struct {
	billy.Filesystem

	mu     sync.RWMutex
	faults map[fault]error
}

// NewFaulty wraps base.
func NewFaulty(base billy.Filesystem) *FaultyFS {
	return &FaultyFS{Filesystem: base, faults: make(map[fault]error)}
}

// Fail makes op on path return err. A nil err means fs.ErrPermission.
func (f *FaultyFS) Fail(op Op, path string, err error) *FaultyFS {
	if err == nil {
		err = fs.ErrPermission
	}
	f.mu.Lock()
	f.faults[fault{op: op, path: filepath.Clean(path)}] = err
	f.mu.Unlock()
	return f
}

func (f *FaultyFS) check(op Op, path string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err, ok := f.faults[fault{op: op, path: filepath.Clean(path)}]; ok {
		return &fs.PathError{Op: opName(op), Path: path, Err: err}
	}
	return nil
}

func opName(op Op) string {
	switch op {
	case OpOpen:
		return "open"
	case OpRead:
		return "read"
	case OpReadDir:
		return "readdir"
	case OpLstat:
		return "lstat"
	default:
		return "stat"
	}
}

func (f *FaultyFS) Open(filename string) (billy.File, error) {
	if err := f.check(OpOpen, filename); err != nil {
		return nil, err
	}
	file, err := f.Filesystem.Open(filename)
	if err != nil {
		return nil, err
	}
	if err := f.check(OpRead, filename); err != nil {
		return &failingFile{File: file, err: err}, nil
	}
	return file, nil
}

func (f *FaultyFS) ReadDir(path string) ([]os.FileInfo, error) {
	if err := f.check(OpReadDir, path); err != nil {
		return nil, err
	}
	return f.Filesystem.ReadDir(path)
}

func (f *FaultyFS) Lstat(filename string) (os.FileInfo, error) {
	if err := f.check(OpLstat, filename); err != nil {
		return nil, err
	}
	return f.Filesystem.Lstat(filename)
}

func (f *FaultyFS) Stat(filename string) (os.FileInfo, error) {
	if err := f.check(OpStat, filename); err != nil {
		return nil, err
	}
	return f.Filesystem.Stat(filename)
}

// failingFile returns some bytes and then fails, like a disk error in the
// middle of a file.
type failingFile struct {
	billy.File
	err  error
	read bool
}

func (f *failingFile) Read(p []byte) (int, error) {
	if !f.read {
		f.read = true
		n, err := f.File.Read(p[:min(len(p), 1)])
		if err != nil && !errors.Is(err, io.EOF) {
			return n, err
		}
		return n, nil
	}
	return 0, f.err
}
