// Package concurrency implements the admission gate that caps how many
// fetches run at once.
package concurrency

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/newsreduce/internal/metrics"
)

// Limiter is a counting semaphore over in-flight fetches. Waiters are
// admitted in FIFO order.
type Limiter struct {
	sem      *semaphore.Weighted
	size     int64
	inFlight atomic.Int64
}

// New creates a Limiter admitting at most n concurrent holders.
func New(n int) (*Limiter, error) {
	if n <= 0 {
		return nil, fmt.Errorf("concurrency cap must be > 0, got %d", n)
	}
	return &Limiter{
		sem:  semaphore.NewWeighted(int64(n)),
		size: int64(n),
	}, nil
}

// Acquire blocks until a slot is free or ctx ends.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire fetch slot: %w", err)
	}
	l.inFlight.Add(1)
	metrics.IncInFlight()
	return nil
}

// Release returns a slot and admits the next waiter. Every successful
// Acquire must be paired with exactly one Release.
func (l *Limiter) Release() {
	l.inFlight.Add(-1)
	metrics.DecInFlight()
	l.sem.Release(1)
}

// InFlight reports the number of slots currently held.
func (l *Limiter) InFlight() int64 {
	return l.inFlight.Load()
}

// Size reports the configured cap.
func (l *Limiter) Size() int {
	return int(l.size)
}
