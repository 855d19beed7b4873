// Package async exposes DNS providers to callers that must not block. Each
// call is handed to an Offloader and resolves through a Future.
package async

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

var ErrClosed = errors.New("offloader closed")

// Offloader runs blocking jobs off the caller's goroutine. Go may block
// until the job is admitted, honouring ctx while it waits.
type Offloader interface {
	Go(ctx context.Context, job func()) error
}

// Spawn starts a goroutine per job and leaves scheduling to the runtime.
type Spawn struct{}

func (Spawn) Go(_ context.Context, job func()) error {
	go job()
	return nil
}

// Pool runs jobs on a fixed set of worker goroutines. At most
// workers+queue jobs are admitted at once.
type Pool struct {
	jobs   chan func()
	admit  *semaphore.Weighted
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(workers, queue int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	capacity := workers + queue
	p := &Pool{
		jobs:  make(chan func(), capacity),
		admit: semaphore.NewWeighted(int64(capacity)),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for job := range p.jobs {
		job()
		p.admit.Release(1)
	}
}

func (p *Pool) Go(ctx context.Context, job func()) error {
	if err := p.admit.Acquire(ctx, 1); err != nil {
		return err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.admit.Release(1)
		return ErrClosed
	}
	// Never blocks, the channel holds as many jobs as there are permits.
	p.jobs <- job
	return nil
}

// Close stops accepting jobs and waits for admitted ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
