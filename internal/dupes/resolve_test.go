package dupes

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirdupe/internal/fstest"
	"dirdupe/internal/hash"
	"dirdupe/internal/pool"
	"dirdupe/internal/tree"
	"dirdupe/internal/walker"
)

// scan builds and digests the trees of roots in an in-memory filesystem.
func scan(t *testing.T, files fstest.Tree, roots ...string) []*tree.Node {
	t.Helper()
	fsys, err := fstest.NewMemFS(files)
	require.NoError(t, err)
	return scanFS(t, fsys, roots...)
}

func scanFS(t *testing.T, fsys walker.FS, roots ...string) []*tree.Node {
	t.Helper()
	ctx := context.Background()

	nodes, err := walker.New(fsys).BuildAll(ctx, roots)
	require.NoError(t, err)

	alg, err := hash.Lookup("")
	require.NoError(t, err)
	h := hash.New(alg)

	p, err := pool.New(2, func(path string) (hash.Digest, error) {
		return h.HashFile(fsys, path)
	})
	require.NoError(t, err)
	defer p.Close()

	_, err = tree.Aggregate(ctx, nodes, p, h)
	require.NoError(t, err)
	return nodes
}

func TestResolve_IdenticalSubtrees(t *testing.T) {
	roots := scan(t, fstest.Tree{
		"/a/x/f1": "first file",
		"/a/x/f2": "second",
		"/b/y/f1": "first file",
		"/b/y/f2": "second",
	}, "/a", "/b")

	groups := Resolve(roots, Options{})

	require.Len(t, groups, 1)
	assert.Equal(t, tree.Dir, groups[0].Kind)
	assert.Equal(t, []string{"/a/x", "/b/y"}, groups[0].Paths)
	assert.Equal(t, int64(len("first file")+len("second")), groups[0].Size)
}

func TestResolve_RenamedFileIsNotDuplicateDirectory(t *testing.T) {
	roots := scan(t, fstest.Tree{
		"/a/d/file.txt":  "x",
		"/b/d/other.txt": "x",
	}, "/a", "/b")

	groups := Resolve(roots, Options{})

	// Only the files themselves match
	require.Len(t, groups, 1)
	assert.Equal(t, tree.File, groups[0].Kind)
	assert.Equal(t, []string{"/a/d/file.txt", "/b/d/other.txt"}, groups[0].Paths)
}

func TestResolve_Topmost(t *testing.T) {
	// /r/d1 and /r/d2 match, and so do their subdirectories s
	roots := scan(t, fstest.Tree{
		"/r/d1/s/f": "payload",
		"/r/d1/g":   "other",
		"/r/d2/s/f": "payload",
		"/r/d2/g":   "other",
	}, "/r")

	groups := Resolve(roots, Options{})

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"/r/d1", "/r/d2"}, groups[0].Paths)
	for _, g := range groups {
		for _, p := range g.Paths {
			assert.NotContains(t, p, "/s")
		}
	}
}

func TestResolve_CoveredAcrossGroups(t *testing.T) {
	// /r/c/f has the same content as the files inside the duplicate
	// directories, but its partners are covered, so no file group remains
	roots := scan(t, fstest.Tree{
		"/r/a/x/f": "same",
		"/r/b/x/f": "same",
		"/r/c/f":   "same",
		"/r/c/g":   "unique",
	}, "/r")

	groups := Resolve(roots, Options{})

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"/r/a", "/r/b"}, groups[0].Paths)
}

func TestResolve_MinimumSize(t *testing.T) {
	files := fstest.Tree{
		"/a/d/f": strings.Repeat("x", 50),
		"/b/d/f": strings.Repeat("x", 50),
	}

	roots := scan(t, files, "/a", "/b")
	assert.Empty(t, Resolve(roots, Options{MinSize: 100}))

	roots = scan(t, files, "/a", "/b")
	groups := Resolve(roots, Options{MinSize: 10})
	require.Len(t, groups, 1)
	assert.Equal(t, int64(50), groups[0].Size)
}

func TestResolve_EmptyDirectories(t *testing.T) {
	files := fstest.Tree{
		"/a/empty/":      "",
		"/b/deep/empty/": "",
		"/b/deep/f":      "content",
	}

	roots := scan(t, files, "/a", "/b")
	groups := Resolve(roots, Options{})
	require.Len(t, groups, 1)
	assert.Equal(t, int64(0), groups[0].Size)
	assert.Equal(t, []string{"/a/empty", "/b/deep/empty"}, groups[0].Paths)

	roots = scan(t, files, "/a", "/b")
	assert.Empty(t, Resolve(roots, Options{MinSize: 1}))
}

func TestResolve_Ordering(t *testing.T) {
	roots := scan(t, fstest.Tree{
		"/r/small1": "ab",
		"/r/small2": "ab",
		"/r/big1":   "abcdef",
		"/r/big2":   "abcdef",
		"/r/mid/c":  "xyz",
		"/r/a":      "xyz",
	}, "/r")

	groups := Resolve(roots, Options{})

	require.Len(t, groups, 3)
	assert.Equal(t, []string{"/r/big1", "/r/big2"}, groups[0].Paths)
	assert.Equal(t, []string{"/r/a", "/r/mid/c"}, groups[1].Paths)
	assert.Equal(t, []string{"/r/small1", "/r/small2"}, groups[2].Paths)
}

func TestResolve_Idempotent(t *testing.T) {
	files := fstest.Tree{
		"/a/x/1": "one", "/a/x/2": "two", "/a/z": "zz",
		"/b/x/1": "one", "/b/x/2": "two", "/b/z": "zz",
		"/b/q/1": "one",
	}

	first := Resolve(scan(t, files, "/a", "/b"), Options{})
	second := Resolve(scan(t, files, "/a", "/b"), Options{})

	assert.Equal(t, first, second)
}

func TestResolve_UnreadableFileExcluded(t *testing.T) {
	base, err := fstest.NewMemFS(fstest.Tree{
		"/a/bad/locked": "secret",
		"/a/bad/f":      "shared",
		"/b/bad/locked": "secret",
		"/b/bad/f":      "shared",
		"/a/good/g":     "fine",
		"/b/good/g":     "fine",
	})
	require.NoError(t, err)
	fsys := fstest.NewFaulty(base).Fail(fstest.OpOpen, "/a/bad/locked", nil)

	groups := Resolve(scanFS(t, fsys, "/a", "/b"), Options{})

	var paths []string
	for _, g := range groups {
		paths = append(paths, g.Paths...)
	}
	assert.ElementsMatch(t, []string{"/a/good", "/b/good", "/a/bad/f", "/b/bad/f"}, paths)
}

func TestResolve_SymlinksNotReported(t *testing.T) {
	roots := scan(t, fstest.Tree{
		"/r/l1": "->target",
		"/r/l2": "->target",
	}, "/r")

	assert.Empty(t, Resolve(roots, Options{}))
}

func TestSummarize(t *testing.T) {
	groups := []Group{
		{Size: 10, Paths: []string{"/a", "/b", "/c"}},
		{Size: 4, Paths: []string{"/d", "/e"}},
	}

	s := Summarize(groups)

	assert.Equal(t, 2, s.Groups)
	assert.Equal(t, 5, s.Paths)
	assert.Equal(t, int64(24), s.Reclaimable)
	assert.Equal(t, Summary{}, Summarize(nil))
}
