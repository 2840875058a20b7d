package hash

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/go-git/go-billy/v5"
)

const bufferSize = 32 * 1024 // 32KB buffer for streaming

// Digest is the lowercase hex encoding of a raw digest.
type Digest string

// Bytes decodes the digest back to its raw form.
func (d Digest) Bytes() []byte {
	b, _ := hex.DecodeString(string(d))
	return b
}

// Tag identifies the kind of a directory entry inside a directory digest.
type Tag byte

const (
	TagFile    Tag = 'f'
	TagDir     Tag = 'd'
	TagSymlink Tag = 'l'
)

// Entry is one child of a directory as seen by HashDir.
type Entry struct {
	Name   string
	Tag    Tag
	Digest Digest
}

// Hasher computes file, symlink and directory digests with one algorithm.
type Hasher struct {
	alg     *Algorithm
	bufSize int
}

// New returns a Hasher for alg.
func New(alg *Algorithm) *Hasher {
	return &Hasher{alg: alg, bufSize: bufferSize}
}

// HashFile computes the digest of a file using streaming for large files
func (h *Hasher) HashFile(fs billy.Basic, path string) (Digest, error) {
	file, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	d, err := h.HashReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return d, nil
}

// HashReader digests r in fixed-size chunks.
func (h *Hasher) HashReader(r io.Reader) (Digest, error) {
	sum := h.alg.New()
	buf := make([]byte, h.bufSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			sum.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return Digest(hex.EncodeToString(sum.Sum(nil))), nil
}

// HashDir computes a directory digest from its children. The entries are
// ordered by name before hashing, so the caller's order does not matter.
// Each entry contributes its name length, name, tag and raw digest.
func (h *Hasher) HashDir(entries []Entry) Digest {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	sum := h.alg.New()
	var lenBuf [4]byte
	for _, e := range sorted {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(e.Name)))
		sum.Write(lenBuf[:])
		sum.Write([]byte(e.Name))
		sum.Write([]byte{byte(e.Tag)})
		sum.Write(e.Digest.Bytes())
	}
	return Digest(hex.EncodeToString(sum.Sum(nil)))
}

// EmptyDir is the digest shared by every empty directory.
func (h *Hasher) EmptyDir() Digest {
	return h.HashDir(nil)
}

// HashSymlink digests the target text of a symbolic link.
func (h *Hasher) HashSymlink(target string) Digest {
	sum := h.alg.New()
	sum.Write([]byte("symlink\x00"))
	sum.Write([]byte(target))
	return Digest(hex.EncodeToString(sum.Sum(nil)))
}
