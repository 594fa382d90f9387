package app

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/api"
)

// Run phases reported on /v1/run.
const (
	PhaseDedup = "dedup"
	PhaseCrawl = "crawl"
	PhaseDone  = "done"
)

// Progress tracks one run for logging and the operator listener.
type Progress struct {
	runID  string
	logger *zap.Logger

	mu    sync.RWMutex
	phase string

	processed    atomic.Int64
	total        atomic.Int64
	bucketsDone  atomic.Int64
	bucketsTotal atomic.Int64
}

func newProgress(runID string, logger *zap.Logger) *Progress {
	return &Progress{runID: runID, logger: logger}
}

func (p *Progress) setPhase(phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = phase
}

func (p *Progress) startBuckets(n int) {
	p.setPhase(PhaseDedup)
	p.bucketsTotal.Store(int64(n))
}

func (p *Progress) bucketDone(day string, kept, total int) {
	done := p.bucketsDone.Add(1)
	p.logger.Debug("dedup progress",
		zap.String("day", day),
		zap.Int("kept", kept),
		zap.Int("total", total),
		zap.Int64("buckets_done", done),
		zap.Int64("buckets_total", p.bucketsTotal.Load()),
	)
}

func (p *Progress) startCrawl(n int) {
	p.setPhase(PhaseCrawl)
	p.total.Store(int64(n))
}

// tick is the driver's per-result progress callback. It logs roughly every
// tenth of the run.
func (p *Progress) tick() {
	n := p.processed.Add(1)
	total := p.total.Load()
	step := total / 10
	if step < 1 {
		step = 1
	}
	if n%step == 0 || n == total {
		p.logger.Info("crawl progress", zap.Int64("processed", n), zap.Int64("total", total))
	}
}

// Status implements api.StatusSource.
func (p *Progress) Status() api.RunStatus {
	p.mu.RLock()
	phase := p.phase
	p.mu.RUnlock()
	return api.RunStatus{
		RunID:        p.runID,
		Phase:        phase,
		Processed:    p.processed.Load(),
		Total:        p.total.Load(),
		BucketsDone:  p.bucketsDone.Load(),
		BucketsTotal: p.bucketsTotal.Load(),
	}
}
