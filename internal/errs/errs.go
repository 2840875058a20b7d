// Package errs classifies the failures a detection run can meet.
//
// IO and digest errors are recovered locally and recorded on the affected
// tree nodes; configuration errors are fatal and surface before any
// traversal begins.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure. Kinds are strings so they read
// well in logs.
type Kind string

const (
	// KindIO marks an entry that could not be listed or stat'ed.
	KindIO Kind = "IO_ERROR"

	// KindDigest marks a file whose content could not be read to the end.
	KindDigest Kind = "DIGEST_ERROR"

	// KindConfig marks an invalid scan configuration.
	KindConfig Kind = "CONFIG_ERROR"
)

// Error is a classified failure, optionally tied to a path.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Op != "":
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IO wraps err as an IO error for path.
func IO(op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// Digest wraps err as a digest error for path.
func Digest(path string, err error) *Error {
	return &Error{Kind: KindDigest, Op: "digest", Path: path, Err: err}
}

// Config builds a configuration error from a format string.
func Config(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsIO(err error) bool     { return KindOf(err) == KindIO }
func IsDigest(err error) bool { return KindOf(err) == KindDigest }
func IsConfig(err error) bool { return KindOf(err) == KindConfig }
