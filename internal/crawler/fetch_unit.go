package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/metrics"
	"github.com/JakeFAU/newsreduce/internal/worker"
)

// FetchUnit turns one URL into one FetchResult: GET, decode, then parse on the
// offload pool. It never returns an error and never panics; every failure is
// folded into the result's Outcome.
type FetchUnit[T any] struct {
	fetcher      Fetcher
	pool         *worker.Pool
	parse        ParseFunc[T]
	includeExtra bool
	releaseEarly bool
	logger       *zap.Logger
}

// NewFetchUnit wires a FetchUnit. parse may be nil, in which case the decoded
// text itself is the value.
func NewFetchUnit[T any](fetcher Fetcher, pool *worker.Pool, parse ParseFunc[T], cfg Config, logger *zap.Logger) *FetchUnit[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchUnit[T]{
		fetcher:      fetcher,
		pool:         pool,
		parse:        parse,
		includeExtra: cfg.IncludeExtra,
		releaseEarly: cfg.ReleaseSlotBeforeParse,
		logger:       logger,
	}
}

// Run fetches url and returns its result. release is the caller's limiter
// slot; it is invoked exactly once before Run returns, or earlier when the
// unit is configured to free the slot before parsing.
func (u *FetchUnit[T]) Run(ctx context.Context, url string, release func()) (result FetchResult[T]) {
	if release == nil {
		release = func() {}
	}
	releaseOnce := sync.OnceFunc(release)
	defer releaseOnce()

	start := time.Now()
	var size int
	defer func() {
		metrics.ObserveFetch(url, string(result.Outcome), size, time.Since(start))
		if !result.Present() {
			u.logger.Debug("fetch produced no value",
				zap.String("url", url),
				zap.String("outcome", string(result.Outcome)),
				zap.Error(result.Err),
			)
		}
	}()

	content, err := u.fetcher.FetchText(ctx, url)
	if err != nil {
		if errors.Is(err, ErrDecode) {
			return absent[T](url, OutcomeDecodeError, ErrDecode, err)
		}
		return absent[T](url, OutcomeTransportError, ErrTransport, err)
	}
	size = len(content)

	if u.releaseEarly {
		releaseOnce()
	}

	if u.parse == nil {
		value, ok := any(content).(T)
		if !ok {
			return absent[T](url, OutcomeParseError, ErrParse, ErrNoParser)
		}
		return FetchResult[T]{URL: url, Value: value, Outcome: OutcomeOK}
	}

	value, err := worker.Do(ctx, u.pool, func() (T, error) {
		return u.parse(content, u.includeExtra)
	})
	if err != nil {
		return absent[T](url, OutcomeParseError, ErrParse, err)
	}
	return FetchResult[T]{URL: url, Value: value, Outcome: OutcomeOK}
}
