// Package dedup trims each day-bucket of listing pages down to the prefix
// that still shows new articles.
//
// Listing sites keep serving the last real page for any page number past the
// end, so a bucket is walked in order and cut as soon as a page's leading
// article repeats the previous page's.
package dedup

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/newsreduce/internal/crawler"
	"github.com/JakeFAU/newsreduce/internal/metrics"
	"github.com/JakeFAU/newsreduce/internal/policy/concurrency"
)

// Reasons a bucket scan stopped, used as log fields and metric labels.
const (
	StopFetchFailed = "fetch_failed"
	StopRepeat      = "repeat"
	StopExhausted   = "exhausted"
)

// Deduplicator runs one bucket scan per DayBucket, all buckets concurrently.
type Deduplicator struct {
	unit    *crawler.FetchUnit[string]
	limiter *concurrency.Limiter
	logger  *zap.Logger

	// OnBucketDone, when set, is called once per finished bucket. Calls are
	// serialized.
	OnBucketDone func(day string, kept, total int)
}

// New builds a Deduplicator. unit must parse pages into their leading
// signature; see crawler.SignatureParser.
func New(unit *crawler.FetchUnit[string], limiter *concurrency.Limiter, logger *zap.Logger) *Deduplicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduplicator{unit: unit, limiter: limiter, logger: logger}
}

// Run scans every bucket and returns the concatenation of their valid
// prefixes. URLs within a bucket keep their order; buckets appear in the
// order they finish. The error is non-nil only when ctx ended before every
// bucket was scanned; the URLs kept so far are still returned.
func (d *Deduplicator) Run(ctx context.Context, buckets []crawler.DayBucket) ([]string, error) {
	state := newState(len(buckets))

	var (
		mu   sync.Mutex
		kept []string
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, bucket := range buckets {
		g.Go(func() error {
			prefix, stop := d.scan(gctx, state, i, bucket)
			metrics.ObserveDedupBucket(stop, len(prefix), len(bucket.URLs))

			mu.Lock()
			defer mu.Unlock()
			kept = append(kept, prefix...)
			finished := state.finish()
			d.logger.Info("bucket deduplicated",
				zap.String("day", bucket.Day),
				zap.String("stop", stop),
				zap.Int("kept", len(prefix)),
				zap.Int("total", len(bucket.URLs)),
				zap.Int("buckets_done", finished),
				zap.Int("buckets_total", len(buckets)),
			)
			if d.OnBucketDone != nil {
				d.OnBucketDone(bucket.Day, len(prefix), len(bucket.URLs))
			}
			// Only cancellation of the caller's ctx is an error; a bucket
			// stopping on a failed page leaves its siblings running.
			if stop == StopFetchFailed {
				return ctx.Err()
			}
			return nil
		})
	}
	err := g.Wait()

	return kept, err
}

// scan walks one bucket strictly in order and returns its valid prefix.
func (d *Deduplicator) scan(ctx context.Context, state *State, idx int, bucket crawler.DayBucket) ([]string, string) {
	urls := bucket.URLs
	for i, url := range urls {
		if err := d.limiter.Acquire(ctx); err != nil {
			return urls[:i], StopFetchFailed
		}
		res := d.unit.Run(ctx, url, d.limiter.Release)
		if !res.Present() {
			d.logger.Debug("listing page unavailable, keeping prefix",
				zap.String("day", bucket.Day),
				zap.String("url", url),
				zap.Int("index", i),
				zap.Error(res.Err),
			)
			return urls[:i], StopFetchFailed
		}
		if state.observe(idx, res.Value) {
			// Both the repeating page and the page it repeats are dropped.
			return urls[:i-1], StopRepeat
		}
	}
	if len(urls) == 0 {
		return nil, StopExhausted
	}
	// A bucket that never repeats still drops its last page.
	return urls[:len(urls)-1], StopExhausted
}
