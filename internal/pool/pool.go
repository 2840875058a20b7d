// Package pool runs file digest jobs on a fixed number of workers.
//
// Jobs are independent of each other. Callers keep the *Job returned by
// Submit and block on Wait when they need the result, so the pool knows
// nothing about the tree the jobs belong to.
package pool

import (
	"context"
	"errors"
	"sync"

	"dirdupe/internal/errs"
	"dirdupe/internal/hash"
)

// ErrClosed is returned by jobs submitted after Close.
var ErrClosed = errors.New("pool is closed")

// DigestFunc computes the digest of the file at path.
type DigestFunc func(path string) (hash.Digest, error)

// Job is the handle of one submitted digest job.
type Job struct {
	Path string

	ctx    context.Context
	done   chan struct{}
	digest hash.Digest
	err    error
}

func newJob(ctx context.Context, path string) *Job {
	return &Job{Path: path, ctx: ctx, done: make(chan struct{})}
}

func (j *Job) finish(d hash.Digest, err error) {
	j.digest, j.err = d, err
	close(j.done)
}

// Done is closed once the job has completed.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job completes and returns its result.
func (j *Job) Wait() (hash.Digest, error) {
	<-j.done
	return j.digest, j.err
}

// Err returns the job's error. It must only be called after Done is closed.
func (j *Job) Err() error {
	return j.err
}

// Option configures a Pool.
type Option func(*Pool)

// WithQueueSize bounds the number of submitted jobs waiting for a worker.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithOnDone registers a hook called from the worker after each job
// completes. The hook must not block for long.
func WithOnDone(fn func(*Job)) Option {
	return func(p *Pool) {
		p.onDone = fn
	}
}

// Pool executes digest jobs on a fixed set of workers.
type Pool struct {
	digest    DigestFunc
	queueSize int
	onDone    func(*Job)

	jobs chan *Job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts a pool with the given number of workers.
func New(workers int, fn DigestFunc, opts ...Option) (*Pool, error) {
	if workers <= 0 {
		return nil, errs.Config("worker count must be positive, got %d", workers)
	}

	p := &Pool{
		digest:    fn,
		queueSize: workers * 4,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.jobs = make(chan *Job, p.queueSize)

	// Start workers
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}

	return p, nil
}

func (p *Pool) work() {
	defer p.wg.Done()
	for job := range p.jobs {
		if err := job.ctx.Err(); err != nil {
			job.finish("", err)
		} else {
			d, err := p.digest(job.Path)
			job.finish(d, err)
		}
		if p.onDone != nil {
			p.onDone(job)
		}
	}
}

// Submit queues a digest job for path. It blocks only while the queue is
// full. A job that cannot be queued, because the pool is closed or ctx is
// done, is returned already failed.
func (p *Pool) Submit(ctx context.Context, path string) *Job {
	job := newJob(ctx, path)

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		job.finish("", ErrClosed)
		return job
	}

	select {
	case p.jobs <- job:
	case <-ctx.Done():
		job.finish("", ctx.Err())
	}
	return job
}

// Close stops accepting jobs and waits for queued jobs to drain.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	p.wg.Wait()
}
