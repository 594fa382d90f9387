// Package app wires configuration into a runnable crawl: it owns the
// long-lived services (logger, ID generator, notification publisher) and
// builds the per-run session, sink and operator listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/api"
	"github.com/JakeFAU/newsreduce/internal/clock/system"
	"github.com/JakeFAU/newsreduce/internal/config"
	"github.com/JakeFAU/newsreduce/internal/crawler"
	"github.com/JakeFAU/newsreduce/internal/id/uuid"
	"github.com/JakeFAU/newsreduce/internal/metrics"
	"github.com/JakeFAU/newsreduce/internal/parser"
	"github.com/JakeFAU/newsreduce/internal/publisher/pubsub"
)

const notifyTimeout = 10 * time.Second

// App holds the shared services for one process.
type App struct {
	Logger     *zap.Logger
	Config     config.Config
	IDs        crawler.IDGenerator
	Clock      crawler.Clock
	Publisher  crawler.Publisher
	NewFetcher FetcherFactory

	closers []func() error
}

// New builds an App from cfg. A Pub/Sub publisher is created only when
// pubsub.topic is set.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		Logger:     logger,
		Config:     cfg,
		IDs:        uuid.New(),
		Clock:      system.New(),
		NewFetcher: CollyFetcher,
	}
	if cfg.PubSub.Topic != "" {
		pub, err := pubsub.New(ctx, cfg.PubSub.ProjectID, logger)
		if err != nil {
			return nil, fmt.Errorf("init publisher: %w", err)
		}
		a.Publisher = pub
		a.closers = append(a.closers, pub.Close)
		logger.Info("run notifications enabled", zap.String("topic", cfg.PubSub.Topic))
	}
	return a, nil
}

// Close shuts down long-lived services.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.Logger.Warn("close service", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.Logger.Sync()
}

// RunRequest is the input of one run. Buckets, when present, are
// deduplicated and their surviving URLs appended to URLs.
type RunRequest struct {
	URLs    []string
	Buckets []crawler.DayBucket
}

// Summary describes a finished run.
type Summary struct {
	RunID      string
	Mode       string
	Deduped    int
	Dispatched int
	Written    int
	Absent     int
	ByOutcome  map[crawler.Outcome]int
	// Items holds the collected values in memory mode.
	Items      []string
	FinishedAt time.Time
}

// Notice is the completion message published after a run.
type Notice struct {
	RunID      string    `json:"run_id"`
	Mode       string    `json:"mode"`
	Dispatched int       `json:"dispatched"`
	Written    int       `json:"written"`
	Absent     int       `json:"absent"`
	FinishedAt time.Time `json:"finished_at"`
}

// Run executes one crawl. Output and session errors fail the run before any
// URL is dispatched; per-URL failures only show up as absent results.
func (a *App) Run(ctx context.Context, req RunRequest) (Summary, error) {
	runID, err := a.IDs.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("new run id: %w", err)
	}
	logger := a.Logger.With(zap.String("run_id", runID))
	summary := Summary{RunID: runID, Mode: a.Config.Output.Mode}

	out, closeOut, err := openOutput(ctx, a.Config, runID, a.Clock, logger)
	if err != nil {
		return summary, err
	}
	defer closeOut()

	session, err := OpenSession(a.Config.RunConfig(), a.NewFetcher, logger)
	if err != nil {
		return summary, err
	}
	defer session.Close()

	progress := newProgress(runID, logger)
	if addr := a.Config.Metrics.Addr; addr != "" {
		listener, err := api.NewServer(progress, logger).Start(addr)
		if err != nil {
			return summary, fmt.Errorf("start operator listener: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := listener.Shutdown(shutdownCtx); err != nil {
				logger.Warn("operator listener shutdown", zap.Error(err))
			}
		}()
	}

	urls := append([]string(nil), req.URLs...)
	if len(req.Buckets) > 0 {
		progress.startBuckets(len(req.Buckets))
		kept, err := Deduplicate(ctx, session, req.Buckets, a.signature(), progress.bucketDone)
		summary.Deduped = len(kept)
		if err != nil {
			a.finish(ctx, logger, &summary, err)
			return summary, err
		}
		urls = append(urls, kept...)
	}

	progress.startCrawl(len(urls))
	logger.Info("crawl started", zap.Int("urls", len(urls)), zap.String("mode", summary.Mode))
	stats, runErr := Reduce(ctx, session, urls, a.articleParser(), out, progress.tick)
	progress.setPhase(PhaseDone)

	summary.Dispatched = stats.Dispatched
	summary.ByOutcome = stats.ByOutcome
	summary.Written = out.Count()
	summary.Absent = out.Absent()
	if c, ok := out.(interface{ Items() []string }); ok {
		summary.Items = c.Items()
	}
	a.finish(ctx, logger, &summary, runErr)
	return summary, runErr
}

// Dedup only deduplicates buckets and returns the surviving URLs.
func (a *App) Dedup(ctx context.Context, buckets []crawler.DayBucket) ([]string, error) {
	session, err := OpenSession(a.Config.RunConfig(), a.NewFetcher, a.Logger)
	if err != nil {
		return nil, err
	}
	defer session.Close()
	return Deduplicate(ctx, session, buckets, a.signature(), nil)
}

func (a *App) signature() crawler.SignatureFunc {
	return parser.FirstLinkSignature(a.Config.Parser.ListingSelector)
}

func (a *App) articleParser() crawler.ParseFunc[string] {
	if a.Config.Parser.Article == "raw" {
		return nil
	}
	return parser.Article
}

func (a *App) finish(ctx context.Context, logger *zap.Logger, summary *Summary, runErr error) {
	summary.FinishedAt = a.Clock.Now()

	status := "ok"
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		status = "canceled"
	case runErr != nil:
		status = "failed"
	}
	metrics.ObserveRun(summary.Mode, status)

	logger.Info("run finished",
		zap.String("status", status),
		zap.String("mode", summary.Mode),
		zap.Int("deduped", summary.Deduped),
		zap.Int("dispatched", summary.Dispatched),
		zap.Int("written", summary.Written),
		zap.Int("absent", summary.Absent),
		zap.Any("by_outcome", summary.ByOutcome),
		zap.Error(runErr),
	)

	if a.Publisher == nil || a.Config.PubSub.Topic == "" {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	id, err := a.Publisher.Publish(notifyCtx, a.Config.PubSub.Topic, Notice{
		RunID:      summary.RunID,
		Mode:       summary.Mode,
		Dispatched: summary.Dispatched,
		Written:    summary.Written,
		Absent:     summary.Absent,
		FinishedAt: summary.FinishedAt,
	})
	if err != nil {
		logger.Warn("publish run notice failed", zap.Error(err))
		return
	}
	logger.Debug("run notice published", zap.String("message_id", id))
}
