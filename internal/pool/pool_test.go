package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirdupe/internal/errs"
	"dirdupe/internal/hash"
)

func echoDigest(path string) (hash.Digest, error) {
	return hash.Digest("d:" + path), nil
}

func TestPool_AllJobsProcessed(t *testing.T) {
	for _, workers := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			p, err := New(workers, echoDigest)
			require.NoError(t, err)

			jobs := make([]*Job, 0, 100)
			for i := 0; i < 100; i++ {
				jobs = append(jobs, p.Submit(context.Background(), fmt.Sprintf("file%d", i)))
			}

			for i, job := range jobs {
				d, err := job.Wait()
				require.NoError(t, err)
				assert.Equal(t, hash.Digest(fmt.Sprintf("d:file%d", i)), d)
			}
			p.Close()
		})
	}
}

func TestPool_FailuresReported(t *testing.T) {
	boom := errors.New("read failed")
	p, err := New(2, func(path string) (hash.Digest, error) {
		if path == "bad" {
			return "", boom
		}
		return echoDigest(path)
	})
	require.NoError(t, err)
	defer p.Close()

	good := p.Submit(context.Background(), "good")
	bad := p.Submit(context.Background(), "bad")
	after := p.Submit(context.Background(), "after")

	_, err = bad.Wait()
	assert.ErrorIs(t, err, boom)

	// The pool keeps serving jobs after a failure
	d, err := good.Wait()
	require.NoError(t, err)
	assert.Equal(t, hash.Digest("d:good"), d)
	_, err = after.Wait()
	assert.NoError(t, err)
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p, err := New(1, echoDigest)
	require.NoError(t, err)
	p.Close()
	p.Close() // idempotent

	_, err = p.Submit(context.Background(), "late").Wait()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPool_CancelledContext(t *testing.T) {
	var calls atomic.Int32
	p, err := New(1, func(path string) (hash.Digest, error) {
		calls.Add(1)
		return echoDigest(path)
	})
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Submit(ctx, "x").Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

func TestPool_OnDone(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	p, err := New(3, echoDigest, WithQueueSize(1), WithOnDone(func(j *Job) {
		mu.Lock()
		seen[j.Path] = true
		mu.Unlock()
	}))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		p.Submit(context.Background(), fmt.Sprintf("f%d", i))
	}
	p.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 20)
}

func TestPool_BoundedConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})
	p, err := New(2, func(path string) (hash.Digest, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return echoDigest(path)
	}, WithQueueSize(10))
	require.NoError(t, err)

	jobs := make([]*Job, 0, 6)
	for i := 0; i < 6; i++ {
		jobs = append(jobs, p.Submit(context.Background(), fmt.Sprintf("f%d", i)))
	}
	close(release)
	for _, j := range jobs {
		_, err := j.Wait()
		require.NoError(t, err)
	}
	p.Close()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestNew_InvalidWorkers(t *testing.T) {
	_, err := New(0, echoDigest)
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestJob_Done(t *testing.T) {
	p, err := New(1, echoDigest)
	require.NoError(t, err)
	defer p.Close()

	job := p.Submit(context.Background(), "f")
	<-job.Done()

	assert.NoError(t, job.Err())
	assert.Equal(t, "f", job.Path)
}
