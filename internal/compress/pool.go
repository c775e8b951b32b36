package compress

import (
	"context"
	"runtime"
)

type job struct {
	mode            Mode
	src             []byte
	uncompressedLen int
	result          chan jobResult
}

type jobResult struct {
	out []byte
	err error
}

// Pool offloads CPU-bound decompression onto a bounded set of background
// goroutines draining a shared queue, which caps how many decompressions
// run at once across all connections. The connection goroutine that owns
// the frame still waits in Decompress until its own result is ready or
// its context is canceled.
type Pool struct {
	jobs chan job
	done chan struct{}
}

// NewPool starts workers background goroutines. workers <= 0 defaults to
// GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		jobs: make(chan job, workers*4),
		done: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for {
		select {
		case <-p.done:
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			out, err := Decompress(j.mode, j.src, j.uncompressedLen)
			j.result <- jobResult{out: out, err: err}
		}
	}
}

// Decompress submits src to the pool and blocks until the result is
// ready or ctx is canceled. Ordering within one connection is preserved
// because the caller awaits its own result before reading its next
// frame; nothing reorders jobs from different connections relative to
// each other because responses are never shared across connections.
func (p *Pool) Decompress(ctx context.Context, mode Mode, src []byte, uncompressedLen int) ([]byte, error) {
	if mode == ModeNone {
		return src, nil
	}
	j := job{mode: mode, src: src, uncompressedLen: uncompressedLen, result: make(chan jobResult, 1)}
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, context.Canceled
	}
	select {
	case r := <-j.result:
		return r.out, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops all workers. In-flight jobs already pulled from the queue
// still finish and deliver their result.
func (p *Pool) Close() {
	close(p.done)
}
