package sink

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/crawler"
	"github.com/JakeFAU/newsreduce/internal/metrics"
)

const (
	resultWritten = "written"
	resultAbsent  = "absent"
	resultFailed  = "failed"
)

func logAbsent(logger *zap.Logger, sink, url string, outcome crawler.Outcome, err error) {
	metrics.ObserveSinkItem(sink, resultAbsent)
	logger.Debug("skipping absent result",
		zap.String("sink", sink),
		zap.String("url", url),
		zap.String("outcome", string(outcome)),
		zap.Error(err),
	)
}
