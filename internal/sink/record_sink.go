package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/crawler"
	"github.com/JakeFAU/newsreduce/internal/metrics"
	"github.com/JakeFAU/newsreduce/internal/storage/postgres"
)

// ArticleWriter persists one article row.
type ArticleWriter interface {
	InsertArticle(ctx context.Context, a postgres.Article) error
}

// RecordSink inserts each present value as a row tagged with the run ID,
// stamped by clock and digested by hasher.
type RecordSink[T any] struct {
	store  ArticleWriter
	runID  string
	clock  crawler.Clock
	hasher crawler.Hasher
	logger *zap.Logger

	written int
	absent  int
	failed  int
}

// NewRecordSink creates a RecordSink writing rows for runID.
func NewRecordSink[T any](store ArticleWriter, runID string, clock crawler.Clock, hasher crawler.Hasher, logger *zap.Logger) *RecordSink[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordSink[T]{
		store:  store,
		runID:  runID,
		clock:  clock,
		hasher: hasher,
		logger: logger,
	}
}

// Consume implements crawler.Sink.
func (s *RecordSink[T]) Consume(ctx context.Context, res crawler.FetchResult[T]) {
	if !res.Present() {
		s.absent++
		logAbsent(s.logger, "postgres", res.URL, res.Outcome, res.Err)
		return
	}
	body := fmt.Sprint(res.Value)
	err := s.store.InsertArticle(ctx, postgres.Article{
		RunID:     s.runID,
		Seq:       s.written,
		URL:       res.URL,
		Body:      body,
		BodyHash:  s.hasher.Hash([]byte(body)),
		FetchedAt: s.clock.Now(),
	})
	if err != nil {
		s.failed++
		metrics.ObserveSinkItem("postgres", resultFailed)
		s.logger.Warn("insert article failed", zap.String("url", res.URL), zap.Error(err))
		return
	}
	s.written++
	metrics.ObserveSinkItem("postgres", resultWritten)
}

// Count reports how many rows were inserted.
func (s *RecordSink[T]) Count() int {
	return s.written
}

// Absent reports how many results carried no value.
func (s *RecordSink[T]) Absent() int {
	return s.absent
}

// Failed reports how many present values could not be inserted.
func (s *RecordSink[T]) Failed() int {
	return s.failed
}
