package walker

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"dirdupe/internal/errs"
	"dirdupe/internal/tree"
)

// FS is the part of a billy filesystem the walker needs. osfs.Default
// satisfies it for the real disk.
type FS interface {
	billy.Basic
	billy.Dir
	billy.Symlink
}

// Option configures a Walker.
type Option func(*Walker)

// WithExclude skips entries matching any of the patterns. A pattern ending
// in "/" names a directory anywhere in the tree; other patterns match the
// base name, or the path relative to the root when they contain "/".
func WithExclude(patterns []string) Option {
	return func(w *Walker) {
		w.exclusions = patterns
	}
}

// WithLogger sets the logger used to report unreadable entries.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Walker builds node trees from a filesystem. Symbolic links below a root
// are recorded, never followed.
type Walker struct {
	fs         FS
	exclusions []string
	logger     *slog.Logger
}

// New returns a Walker reading from fsys.
func New(fsys FS, opts ...Option) *Walker {
	w := &Walker{
		fs:     fsys,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// BuildAll builds one tree per root, concurrently. Trees are returned in
// root order.
func (w *Walker) BuildAll(ctx context.Context, roots []string) ([]*tree.Node, error) {
	result := make([]*tree.Node, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			node, err := w.Build(gctx, root)
			if err != nil {
				return err
			}
			result[i] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Build walks root and returns its tree with sizes set and digests unset.
// Only a failure on the root itself is returned as an error; unreadable
// entries below it become Unreadable nodes.
func (w *Walker) Build(ctx context.Context, root string) (*tree.Node, error) {
	root = filepath.Clean(root)

	// The root was named explicitly, so a symlinked root is followed once
	info, err := w.fs.Stat(root)
	if err != nil {
		return nil, errs.Config("invalid root %s: %v", root, err)
	}

	node := &tree.Node{Path: root, Name: filepath.Base(root)}
	switch {
	case info.IsDir():
		node.Kind = tree.Dir
		if err := w.fill(ctx, root, node); err != nil {
			return nil, err
		}
	case info.Mode().IsRegular():
		node.Kind = tree.File
		node.Size = info.Size()
	default:
		return nil, errs.Config("invalid root %s: not a regular file or directory", root)
	}
	return node, nil
}

// fill lists dir and attaches its children to node.
func (w *Walker) fill(ctx context.Context, root string, node *tree.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := w.fs.ReadDir(node.Path)
	if err != nil {
		w.markUnreadable(node, errs.IO("readdir", node.Path, err))
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, info := range entries {
		path := filepath.Join(node.Path, info.Name())

		// Get relative path for matching
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s against %s: %w", path, root, err)
		}
		if shouldExclude(relPath, info, w.exclusions) {
			continue
		}

		child := &tree.Node{Path: path, Name: info.Name()}
		mode := info.Mode()
		switch {
		case mode&fs.ModeSymlink != 0:
			child.Kind = tree.Symlink
			target, err := w.fs.Readlink(path)
			if err != nil {
				w.markUnreadable(child, errs.IO("readlink", path, err))
			}
			child.Target = target
		case mode.IsDir():
			child.Kind = tree.Dir
			if err := w.fill(ctx, root, child); err != nil {
				return err
			}
		case mode.IsRegular():
			child.Kind = tree.File
			child.Size = info.Size()
		default:
			// devices, sockets and pipes: reading a pipe would block
			child.Kind = tree.File
			w.markUnreadable(child, errs.IO("scan", path, fmt.Errorf("unsupported file type %s", mode.Type())))
		}

		node.AddChild(child)
		node.Size += child.Size
	}
	return nil
}

func (w *Walker) markUnreadable(n *tree.Node, err error) {
	n.State = tree.Unreadable
	n.Size = 0
	n.Err = err
	w.logger.Warn("skipping unreadable entry", "path", n.Path, "error", err)
}

func shouldExclude(relPath string, info os.FileInfo, exclusions []string) bool {
	for _, pattern := range exclusions {
		// Handle directory exclusions (patterns ending with /)
		if strings.HasSuffix(pattern, "/") {
			if !info.IsDir() {
				continue
			}
			dirPattern := strings.TrimSuffix(pattern, "/")
			if matched, _ := filepath.Match(dirPattern, info.Name()); matched {
				return true
			}
			// Also try the relative path for nested patterns like a/b/
			if strings.Contains(dirPattern, "/") {
				if matched, _ := filepath.Match(dirPattern, filepath.ToSlash(relPath)); matched {
					return true
				}
			}
			continue
		}

		// Handle file pattern exclusions
		matched, err := filepath.Match(pattern, info.Name())
		if err == nil && matched {
			return true
		}
		// Also try matching against the full relative path for patterns with /
		if strings.Contains(pattern, "/") {
			matched, err := filepath.Match(pattern, filepath.ToSlash(relPath))
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}
