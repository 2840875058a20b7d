package tree

import (
	"dirdupe/internal/hash"
	"dirdupe/internal/pool"
)

// Kind is the type of filesystem entry a node stands for.
type Kind int

const (
	File Kind = iota
	Dir
	Symlink
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Dir:
		return "directory"
	case Symlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Tag returns the tag the kind contributes to a parent's digest.
func (k Kind) Tag() hash.Tag {
	switch k {
	case Dir:
		return hash.TagDir
	case Symlink:
		return hash.TagSymlink
	default:
		return hash.TagFile
	}
}

// State tracks how far a node got through digesting.
type State int

const (
	// Pending nodes have no digest yet.
	Pending State = iota
	// Complete nodes carry a digest.
	Complete
	// Unreadable nodes could not be stat'ed or listed while building.
	Unreadable
	// Indeterminate nodes failed to digest, themselves or below them.
	Indeterminate
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Complete:
		return "complete"
	case Unreadable:
		return "unreadable"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// Node is one entry of a scanned tree.
type Node struct {
	Path   string
	Name   string
	Kind   Kind
	Size   int64
	Digest hash.Digest
	State  State
	Err    error
	// Target is the link text of a Symlink node.
	Target string

	Parent   *Node
	Children []*Node

	job *pool.Job
}

// AddChild appends c to n's children and sets its parent. Callers append
// in name order.
func (n *Node) AddChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// Comparable reports whether the node's digest can be used to find
// duplicates.
func (n *Node) Comparable() bool {
	return n.State == Complete
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the node at path inside n's subtree, or nil.
func (n *Node) Find(path string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Path == path {
			found = c
			return false
		}
		return true
	})
	return found
}
