// Package dupes turns digested trees into groups of duplicate files and
// directories.
package dupes

import (
	"sort"

	"dirdupe/internal/hash"
	"dirdupe/internal/tree"
)

// Group is a set of at least two entries of the same kind with identical
// content.
type Group struct {
	Kind   tree.Kind
	Size   int64
	Digest hash.Digest
	// Paths is sorted, so indices are stable across runs.
	Paths []string
}

// Reclaimable returns the bytes freed by keeping a single copy.
func (g Group) Reclaimable() int64 {
	if len(g.Paths) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Paths)-1)
}

// Options controls which groups Resolve reports.
type Options struct {
	// MinSize drops groups whose common size is below it. It is applied
	// after digesting, so small files still count towards their parents.
	MinSize int64
}

type key struct {
	kind   tree.Kind
	size   int64
	digest hash.Digest
}

// Resolve groups the complete files and directories of roots by content and
// keeps only topmost duplicates: an entry is dropped when one of its
// ancestors is itself duplicated anywhere in the scan.
//
// Groups are ordered by size descending, then by first path.
func Resolve(roots []*tree.Node, opts Options) []Group {
	buckets := make(map[key][]*tree.Node)
	for _, root := range roots {
		root.Walk(func(n *tree.Node) bool {
			if n.Comparable() && (n.Kind == tree.File || n.Kind == tree.Dir) {
				k := key{kind: n.Kind, size: n.Size, digest: n.Digest}
				buckets[k] = append(buckets[k], n)
			}
			return true
		})
	}

	// Every node that is duplicated somewhere
	duplicated := make(map[*tree.Node]bool)
	for k, nodes := range buckets {
		if len(nodes) < 2 {
			delete(buckets, k)
			continue
		}
		for _, n := range nodes {
			duplicated[n] = true
		}
	}

	var groups []Group
	for k, nodes := range buckets {
		var paths []string
		for _, n := range nodes {
			if !covered(n, duplicated) {
				paths = append(paths, n.Path)
			}
		}
		if len(paths) < 2 || k.size < opts.MinSize {
			continue
		}
		sort.Strings(paths)
		groups = append(groups, Group{
			Kind:   k.kind,
			Size:   k.size,
			Digest: k.digest,
			Paths:  paths,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Size != groups[j].Size {
			return groups[i].Size > groups[j].Size
		}
		return groups[i].Paths[0] < groups[j].Paths[0]
	})
	return groups
}

// covered reports whether an ancestor of n is a duplicate.
func covered(n *tree.Node, duplicated map[*tree.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if duplicated[p] {
			return true
		}
	}
	return false
}

// Summary holds the statistics printed after a scan.
type Summary struct {
	Groups int
	Paths  int
	// Reclaimable is the space freed by keeping one copy of every group.
	Reclaimable int64
}

// Summarize computes statistics over groups.
func Summarize(groups []Group) Summary {
	var s Summary
	for _, g := range groups {
		s.Groups++
		s.Paths += len(g.Paths)
		s.Reclaimable += g.Reclaimable()
	}
	return s
}
