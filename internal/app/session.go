package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/crawler"
	"github.com/JakeFAU/newsreduce/internal/dedup"
	"github.com/JakeFAU/newsreduce/internal/dispatcher"
	collyfetcher "github.com/JakeFAU/newsreduce/internal/fetcher/colly"
	"github.com/JakeFAU/newsreduce/internal/policy/concurrency"
	"github.com/JakeFAU/newsreduce/internal/sink"
	"github.com/JakeFAU/newsreduce/internal/worker"
)

// FetcherFactory builds the HTTP session for one run.
type FetcherFactory func(cfg crawler.Config, logger *zap.Logger) crawler.Fetcher

// CollyFetcher is the default FetcherFactory.
func CollyFetcher(cfg crawler.Config, logger *zap.Logger) crawler.Fetcher {
	return collyfetcher.New(collyfetcher.Config{
		UserAgent:          cfg.UserAgent,
		Headers:            cfg.Headers,
		Timeout:            cfg.RequestTimeout,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}, logger)
}

// Session owns the resources one run shares across all of its fetches: the
// HTTP session, the offload pool and the concurrency limiter. Callers must
// Close it; teardown runs whether the run succeeded, failed or was canceled.
type Session struct {
	cfg     crawler.Config
	fetcher crawler.Fetcher
	pool    *worker.Pool
	limiter *concurrency.Limiter
	logger  *zap.Logger
}

// OpenSession validates cfg and acquires the session resources.
func OpenSession(cfg crawler.Config, newFetcher FetcherFactory, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}
	if newFetcher == nil {
		newFetcher = CollyFetcher
	}
	limiter, err := concurrency.New(cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("create limiter: %w", err)
	}
	pool, err := worker.New(cfg.ParseWorkers, logger)
	if err != nil {
		return nil, fmt.Errorf("start offload pool: %w", err)
	}
	logger.Debug("session opened",
		zap.Int("concurrency", cfg.Concurrency),
		zap.Int("parse_workers", cfg.ParseWorkers),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)
	return &Session{
		cfg:     cfg,
		fetcher: newFetcher(cfg, logger),
		pool:    pool,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Close drains the offload pool and drops idle connections. It is safe to
// call more than once.
func (s *Session) Close() {
	s.pool.Close()
	if c, ok := s.fetcher.(interface{ Close() }); ok {
		c.Close()
	}
	s.logger.Debug("session closed")
}

// Reduce crawls urls and folds every result into out.
func Reduce[T any](ctx context.Context, s *Session, urls []string, parse crawler.ParseFunc[T], out crawler.Sink[T], progress func()) (dispatcher.Stats, error) {
	unit := crawler.NewFetchUnit(s.fetcher, s.pool, parse, s.cfg, s.logger)
	stats, err := dispatcher.New(unit, s.limiter, s.logger).Run(ctx, urls, out, progress)
	if err != nil {
		return stats, fmt.Errorf("reduce: %w", err)
	}
	return stats, nil
}

// ReduceToSlice crawls urls and returns the present values in arrival order.
func ReduceToSlice[T any](ctx context.Context, s *Session, urls []string, parse crawler.ParseFunc[T], progress func()) ([]T, error) {
	c := sink.NewCollector[T](s.logger)
	_, err := Reduce(ctx, s, urls, parse, c, progress)
	return c.Items(), err
}

// ReduceToFiles crawls urls and writes each present value to its own
// numbered object under prefix. It returns the number of objects written.
func ReduceToFiles[T any](ctx context.Context, s *Session, urls []string, store crawler.BlobStore, prefix string, parse crawler.ParseFunc[T], progress func()) (int, error) {
	e := sink.NewFileEmitter[T](store, prefix, s.logger)
	_, err := Reduce(ctx, s, urls, parse, e, progress)
	return e.Count(), err
}

// Deduplicate trims every bucket to its valid prefix using sig to read the
// leading article of each listing page.
func Deduplicate(ctx context.Context, s *Session, buckets []crawler.DayBucket, sig crawler.SignatureFunc, onBucketDone func(day string, kept, total int)) ([]string, error) {
	unit := crawler.NewFetchUnit(s.fetcher, s.pool, crawler.SignatureParser(sig), s.cfg, s.logger)
	d := dedup.New(unit, s.limiter, s.logger)
	d.OnBucketDone = onBucketDone
	kept, err := d.Run(ctx, buckets)
	if err != nil {
		return kept, fmt.Errorf("deduplicate: %w", err)
	}
	return kept, nil
}
