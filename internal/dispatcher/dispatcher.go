// Package dispatcher runs the crawl-and-reduce loop: it fans URLs out to
// Fetch Units under the concurrency cap and funnels every result into one
// sink from a single reducer goroutine.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/crawler"
	"github.com/JakeFAU/newsreduce/internal/policy/concurrency"
)

// Stats summarizes one Run.
type Stats struct {
	Dispatched int
	Present    int
	Absent     int
	ByOutcome  map[crawler.Outcome]int
}

// Dispatcher drives Fetch Units for a flat URL list.
type Dispatcher[T any] struct {
	unit    *crawler.FetchUnit[T]
	limiter *concurrency.Limiter
	logger  *zap.Logger
}

// New creates a Dispatcher.
func New[T any](unit *crawler.FetchUnit[T], limiter *concurrency.Limiter, logger *zap.Logger) *Dispatcher[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher[T]{unit: unit, limiter: limiter, logger: logger}
}

// Run dispatches every URL and blocks until each dispatched unit has been
// reduced into sink. progress, if non-nil, is called once per result after
// the sink has consumed it. If ctx ends during dispatch the remaining URLs
// are skipped, in-flight units still drain, and the context error is
// returned along with the partial stats.
func (d *Dispatcher[T]) Run(ctx context.Context, urls []string, sink crawler.Sink[T], progress func()) (Stats, error) {
	stats := Stats{ByOutcome: make(map[crawler.Outcome]int)}
	results := make(chan crawler.FetchResult[T], d.limiter.Size())

	reduced := make(chan struct{})
	go func() {
		defer close(reduced)
		for res := range results {
			sink.Consume(ctx, res)
			if progress != nil {
				progress()
			}
			stats.ByOutcome[res.Outcome]++
			if res.Present() {
				stats.Present++
			} else {
				stats.Absent++
			}
		}
	}()

	var (
		wg     sync.WaitGroup
		runErr error
	)
	for _, url := range urls {
		if err := d.limiter.Acquire(ctx); err != nil {
			runErr = fmt.Errorf("dispatch %s: %w", url, err)
			break
		}
		stats.Dispatched++
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- d.unit.Run(ctx, url, d.limiter.Release)
		}()
	}

	wg.Wait()
	close(results)
	<-reduced

	if runErr != nil {
		d.logger.Warn("dispatch stopped early",
			zap.Int("dispatched", stats.Dispatched),
			zap.Int("total", len(urls)),
			zap.Error(runErr),
		)
	}
	return stats, runErr
}
