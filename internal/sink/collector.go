package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/crawler"
	"github.com/JakeFAU/newsreduce/internal/metrics"
)

// Collector keeps every present value in arrival order.
type Collector[T any] struct {
	items  []T
	absent int
	logger *zap.Logger
}

// NewCollector creates an empty Collector.
func NewCollector[T any](logger *zap.Logger) *Collector[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector[T]{logger: logger}
}

// Consume implements crawler.Sink.
func (c *Collector[T]) Consume(_ context.Context, res crawler.FetchResult[T]) {
	if !res.Present() {
		c.absent++
		logAbsent(c.logger, "collector", res.URL, res.Outcome, res.Err)
		return
	}
	c.items = append(c.items, res.Value)
	metrics.ObserveSinkItem("collector", resultWritten)
}

// Items returns the collected values.
func (c *Collector[T]) Items() []T {
	return c.items
}

// Count reports how many values were collected.
func (c *Collector[T]) Count() int {
	return len(c.items)
}

// Absent reports how many results carried no value.
func (c *Collector[T]) Absent() int {
	return c.absent
}
