// Package worker implements the fixed-size offload pool that runs parser
// calls away from the goroutines doing network I/O.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/metrics"
)

// ErrPoolClosed is returned when work is submitted after Close.
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool runs submitted jobs on a fixed number of goroutines fed by a queue.
type Pool struct {
	jobs   chan func()
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	size   int
	logger *zap.Logger
}

// New starts a Pool with size workers.
func New(size int, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("worker pool size must be > 0, got %d", size)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		jobs:   make(chan func(), size),
		size:   size,
		logger: logger,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.run(i)
	}
	logger.Debug("offload pool started", zap.Int("workers", size))
	return p, nil
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		metrics.IncParseBusy()
		job()
		metrics.DecParseBusy()
	}
	p.logger.Debug("offload worker stopped", zap.Int("worker", id))
}

// Size reports the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// submit enqueues job, blocking while the queue is full.
func (p *Pool) submit(ctx context.Context, job func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit job: %w", ctx.Err())
	}
}

// Close stops intake, lets queued jobs finish and waits for every worker.
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

type outcome[T any] struct {
	value T
	err   error
}

// Do runs fn on the pool and waits for its result. A panic inside fn is
// recovered and returned as an error so one bad input cannot take a worker down.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	done := make(chan outcome[T], 1)
	job := func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: fmt.Errorf("job panicked: %v", r)}
			}
		}()
		v, err := fn()
		done <- outcome[T]{value: v, err: err}
	}
	if err := p.submit(ctx, job); err != nil {
		return zero, err
	}
	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return zero, fmt.Errorf("wait for job: %w", ctx.Err())
	}
}
