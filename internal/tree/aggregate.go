package tree

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"dirdupe/internal/errs"
	"dirdupe/internal/hash"
	"dirdupe/internal/pool"
)

// Stats summarises an aggregation pass.
type Stats struct {
	Files         int
	Dirs          int
	Symlinks      int
	Unreadable    int
	Indeterminate int
	Bytes         int64
	// Errors holds the IO and digest failures recorded on nodes, in
	// traversal order.
	Errors []error
}

// Aggregate assigns a digest to every node of the given trees.
//
// All file jobs are submitted before any result is awaited, so a single
// worker can never starve behind a wait. Each directory then waits only on
// its own children and hashes their digests in name order. A file that
// fails to digest turns itself and all of its ancestors Indeterminate;
// unrelated subtrees still complete.
func Aggregate(ctx context.Context, roots []*Node, p *pool.Pool, h *hash.Hasher) (Stats, error) {
	// Submit every file up front
	for _, root := range roots {
		root.Walk(func(n *Node) bool {
			if n.Kind == File && n.State == Pending {
				n.job = p.Submit(ctx, n.Path)
			}
			return true
		})
	}

	// Roots are independent: fold them concurrently
	g := new(errgroup.Group)
	for _, root := range roots {
		g.Go(func() error {
			fold(root, h)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate digests: %w", err)
	}

	var stats Stats
	for _, root := range roots {
		collect(root, &stats)
	}
	return stats, nil
}

// fold computes n's digest after its children's, in post-order.
func fold(n *Node, h *hash.Hasher) {
	switch n.Kind {
	case File:
		if n.job == nil {
			return
		}
		d, err := n.job.Wait()
		n.job = nil
		if err != nil {
			n.State = Indeterminate
			n.Err = errs.Digest(n.Path, err)
			return
		}
		n.Digest = d
		n.State = Complete

	case Symlink:
		if n.State == Pending {
			n.Digest = h.HashSymlink(n.Target)
			n.State = Complete
		}

	case Dir:
		if n.State != Pending {
			return
		}
		entries := make([]hash.Entry, 0, len(n.Children))
		determinate := true
		for _, c := range n.Children {
			fold(c, h)
			if !c.Comparable() {
				determinate = false
				continue
			}
			entries = append(entries, hash.Entry{Name: c.Name, Tag: c.Kind.Tag(), Digest: c.Digest})
		}
		if !determinate {
			n.State = Indeterminate
			return
		}
		n.Digest = h.HashDir(entries)
		n.State = Complete
	}
}

func collect(root *Node, stats *Stats) {
	root.Walk(func(n *Node) bool {
		switch n.Kind {
		case File:
			stats.Files++
			stats.Bytes += n.Size
		case Dir:
			stats.Dirs++
		case Symlink:
			stats.Symlinks++
		}
		switch n.State {
		case Unreadable:
			stats.Unreadable++
		case Indeterminate:
			stats.Indeterminate++
		}
		if n.Err != nil {
			stats.Errors = append(stats.Errors, n.Err)
		}
		return true
	})
}
