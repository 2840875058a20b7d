package hash

import (
	"crypto/sha256"
	gohash "hash"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"

	"dirdupe/internal/errs"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = "blake2b"

// Algorithm describes a digest function.
type Algorithm struct {
	Name string
	// Size is the raw digest width in bytes.
	Size int
	// Cryptographic is false for fast checksums that only tolerate
	// accidental collisions.
	Cryptographic bool
	New           func() gohash.Hash
}

var algorithms = map[string]*Algorithm{
	"blake2b": {
		Name:          "blake2b",
		Size:          blake2b.Size,
		Cryptographic: true,
		New: func() gohash.Hash {
			// only fails for keys longer than 64 bytes
			h, _ := blake2b.New512(nil)
			return h
		},
	},
	"sha256": {
		Name:          "sha256",
		Size:          sha256.Size,
		Cryptographic: true,
		New:           sha256.New,
	},
	"xxh64": {
		Name:          "xxh64",
		Size:          8,
		Cryptographic: false,
		New:           func() gohash.Hash { return xxhash.New() },
	},
}

// Lookup returns the algorithm registered under name. An empty name
// selects DefaultAlgorithm.
func Lookup(name string) (*Algorithm, error) {
	if name == "" {
		name = DefaultAlgorithm
	}
	alg, ok := algorithms[strings.ToLower(name)]
	if !ok {
		return nil, errs.Config("unsupported hash algorithm %q (available: %s)",
			name, strings.Join(Names(), ", "))
	}
	return alg, nil
}

// Names lists the registered algorithm names in sorted order.
func Names() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
