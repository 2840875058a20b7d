package detect

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"

	"dirdupe/internal/errs"
	"dirdupe/internal/hash"
	"dirdupe/internal/walker"
)

// ScanConfig is the input of a detection run.
type ScanConfig struct {
	// Roots are scanned independently and compared with each other.
	Roots []string
	// MinSize drops reported groups smaller than this many bytes.
	MinSize int64
	// Workers is the number of files digested concurrently.
	Workers int
	// Algorithm names a registered digest algorithm; empty means the
	// default.
	Algorithm string
	// Exclude lists glob patterns of entries to leave out of the scan.
	Exclude []string
}

// NewScanConfig returns a config for roots with a single worker and the
// default algorithm.
func NewScanConfig(roots ...string) ScanConfig {
	return ScanConfig{
		Roots:     roots,
		Workers:   1,
		Algorithm: hash.DefaultAlgorithm,
	}
}

// Validate normalises the roots against fsys and checks every setting. A nil
// fsys means the local disk. All failures are ConfigErrors.
func (c *ScanConfig) Validate(fsys walker.FS) error {
	_, err := c.validate(fsys)
	return err
}

// validate is Validate returning the roots dropped for being nested in, or
// equal to, another root.
func (c *ScanConfig) validate(fsys walker.FS) ([]string, error) {
	if fsys == nil {
		fsys = osfs.Default
	}

	if len(c.Roots) == 0 {
		return nil, errs.Config("no root paths given")
	}
	if c.Workers <= 0 {
		return nil, errs.Config("worker count must be positive, got %d", c.Workers)
	}
	if c.MinSize < 0 {
		return nil, errs.Config("minimum size must not be negative, got %d", c.MinSize)
	}
	if _, err := hash.Lookup(c.Algorithm); err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(c.Roots))
	for _, root := range c.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errs.Config("invalid root %s: %v", root, err)
		}
		info, err := fsys.Stat(abs)
		if err != nil {
			return nil, errs.Config("invalid root %s: %v", root, err)
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil, errs.Config("invalid root %s: not a regular file or directory", root)
		}
		roots = append(roots, abs)
	}

	kept, dropped := dropNested(roots)
	c.Roots = kept
	return dropped, nil
}

// dropNested removes repeated roots and roots inside another root, keeping
// the order of the rest.
func dropNested(roots []string) (kept, dropped []string) {
	seen := make(map[string]bool)
	for _, root := range roots {
		if seen[root] {
			dropped = append(dropped, root)
			continue
		}
		seen[root] = true

		nested := false
		for _, other := range roots {
			if other != root && within(other, root) {
				nested = true
				break
			}
		}
		if nested {
			dropped = append(dropped, root)
			continue
		}
		kept = append(kept, root)
	}
	return kept, dropped
}

// within reports whether path lies below dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
