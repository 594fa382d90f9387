package sink

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/crawler"
	"github.com/JakeFAU/newsreduce/internal/metrics"
)

const textContentType = "text/plain; charset=utf-8"

// FileEmitter writes each present value to its own numbered object,
// <prefix>/<n>.txt, with n counting successful writes from zero.
type FileEmitter[T any] struct {
	store  crawler.BlobStore
	prefix string
	logger *zap.Logger

	next   int
	absent int
	failed int
	uris   []string
}

// NewFileEmitter creates a FileEmitter over store. prefix may be empty.
func NewFileEmitter[T any](store crawler.BlobStore, prefix string, logger *zap.Logger) *FileEmitter[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileEmitter[T]{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// Consume implements crawler.Sink.
func (e *FileEmitter[T]) Consume(ctx context.Context, res crawler.FetchResult[T]) {
	if !res.Present() {
		e.absent++
		logAbsent(e.logger, "files", res.URL, res.Outcome, res.Err)
		return
	}

	name := path.Join(e.prefix, fmt.Sprintf("%d.txt", e.next))
	uri, err := e.store.PutObject(ctx, name, textContentType, strings.NewReader(fmt.Sprint(res.Value)+"\n"))
	if err != nil {
		e.failed++
		metrics.ObserveSinkItem("files", resultFailed)
		e.logger.Warn("write item failed",
			zap.String("url", res.URL),
			zap.String("object", name),
			zap.Error(err),
		)
		return
	}
	e.next++
	e.uris = append(e.uris, uri)
	metrics.ObserveSinkItem("files", resultWritten)
}

// Count reports how many files were written.
func (e *FileEmitter[T]) Count() int {
	return e.next
}

// Absent reports how many results carried no value.
func (e *FileEmitter[T]) Absent() int {
	return e.absent
}

// Failed reports how many present values could not be written.
func (e *FileEmitter[T]) Failed() int {
	return e.failed
}

// URIs lists the written objects in write order.
func (e *FileEmitter[T]) URIs() []string {
	return e.uris
}
