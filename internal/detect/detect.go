// Package detect runs a complete duplicate detection: it builds the trees of
// the configured roots, digests them on a worker pool and resolves the
// duplicate groups.
package detect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	"dirdupe/internal/dupes"
	"dirdupe/internal/errs"
	"dirdupe/internal/hash"
	"dirdupe/internal/pool"
	"dirdupe/internal/tree"
	"dirdupe/internal/walker"
)

// Reporter follows the digest phase of a run. Advance is called from worker
// goroutines and must be safe for concurrent use.
type Reporter interface {
	Start(files int)
	Advance(path string, err error)
	Finish()
}

type nopReporter struct{}

func (nopReporter) Start(int)             {}
func (nopReporter) Advance(string, error) {}
func (nopReporter) Finish()               {}

// Option configures a run.
type Option func(*options)

type options struct {
	fs       walker.FS
	logger   *slog.Logger
	progress Reporter
}

// WithFS scans fsys instead of the local disk.
func WithFS(fsys walker.FS) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithLogger sets the logger of the run.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress reports digest progress to r.
func WithProgress(r Reporter) Option {
	return func(o *options) {
		if r != nil {
			o.progress = r
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		fs:       osfs.Default,
		logger:   slog.New(slog.DiscardHandler),
		progress: nopReporter{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ScanResult holds the digested trees of a run.
type ScanResult struct {
	RunID string
	// Roots are the trees in the order of the normalised config roots.
	Roots []*tree.Node
	Stats tree.Stats
	// Algorithm is the name of the digest algorithm used.
	Algorithm string
}

// Result is the outcome of Run.
type Result struct {
	RunID  string
	Groups []dupes.Group
	Stats  tree.Stats
}

// Scan validates cfg, builds a tree per root and digests every node.
// Unreadable entries and failed digests are recorded in the trees and in
// the stats; only an invalid config or a cancelled ctx fail the scan.
func Scan(ctx context.Context, cfg ScanConfig, opts ...Option) (*ScanResult, error) {
	o := newOptions(opts)
	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID)

	dropped, err := cfg.validate(o.fs)
	if err != nil {
		return nil, err
	}
	for _, root := range dropped {
		logger.Warn("ignoring root contained in another root", "root", root)
	}

	alg, err := hash.Lookup(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	h := hash.New(alg)

	logger.Info("building trees", "roots", cfg.Roots, "exclude", len(cfg.Exclude))
	w := walker.New(o.fs, walker.WithExclude(cfg.Exclude), walker.WithLogger(logger))
	roots, err := w.BuildAll(ctx, cfg.Roots)
	if err != nil {
		return nil, fmt.Errorf("failed to build trees: %w", err)
	}

	files := 0
	for _, root := range roots {
		root.Walk(func(n *tree.Node) bool {
			if n.Kind == tree.File && n.State == tree.Pending {
				files++
			}
			return true
		})
	}

	logger.Info("digesting files", "files", files, "workers", cfg.Workers, "algorithm", alg.Name)
	o.progress.Start(files)

	digest := func(path string) (hash.Digest, error) {
		logger.Debug("digesting file", "path", path)
		return h.HashFile(o.fs, path)
	}
	p, err := pool.New(cfg.Workers, digest, pool.WithOnDone(func(j *pool.Job) {
		o.progress.Advance(j.Path, j.Err())
	}))
	if err != nil {
		return nil, err
	}

	stats, err := tree.Aggregate(ctx, roots, p, h)
	p.Close()
	o.progress.Finish()
	if err != nil {
		return nil, err
	}

	for _, e := range stats.Errors {
		if errs.IsDigest(e) {
			logger.Warn("file could not be digested", "error", e)
		}
	}
	logger.Info("digest complete",
		"files", stats.Files,
		"dirs", stats.Dirs,
		"bytes", stats.Bytes,
		"unreadable", stats.Unreadable,
		"indeterminate", stats.Indeterminate)

	return &ScanResult{
		RunID:     runID,
		Roots:     roots,
		Stats:     stats,
		Algorithm: alg.Name,
	}, nil
}

// Run scans cfg and returns the topmost duplicate groups.
func Run(ctx context.Context, cfg ScanConfig, opts ...Option) (*Result, error) {
	scan, err := Scan(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}

	groups := dupes.Resolve(scan.Roots, dupes.Options{MinSize: cfg.MinSize})

	summary := dupes.Summarize(groups)
	newOptions(opts).logger.Info("duplicates resolved",
		"run_id", scan.RunID,
		"groups", summary.Groups,
		"reclaimable", summary.Reclaimable)

	return &Result{
		RunID:  scan.RunID,
		Groups: groups,
		Stats:  scan.Stats,
	}, nil
}
