package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/newsreduce/internal/config"
	"github.com/JakeFAU/newsreduce/internal/crawler"
	"github.com/JakeFAU/newsreduce/internal/hash/sha256"
	"github.com/JakeFAU/newsreduce/internal/sink"
	"github.com/JakeFAU/newsreduce/internal/storage/gcs"
	"github.com/JakeFAU/newsreduce/internal/storage/local"
	"github.com/JakeFAU/newsreduce/internal/storage/memory"
	"github.com/JakeFAU/newsreduce/internal/storage/postgres"
)

// output is the reduction sink of a run plus its final counters.
type output interface {
	crawler.Sink[string]
	Count() int
	Absent() int
}

// openOutput builds the sink selected by output.mode. Destinations are
// checked here so a bad directory, bucket or DSN fails before dispatch.
func openOutput(ctx context.Context, cfg config.Config, runID string, clock crawler.Clock, logger *zap.Logger) (output, func(), error) {
	noop := func() {}
	switch cfg.Output.Mode {
	case config.ModeMemory:
		return sink.NewCollector[string](logger), noop, nil

	case config.ModeFiles:
		store, closeStore, err := openBlobStore(ctx, cfg.Output, logger)
		if err != nil {
			return nil, noop, err
		}
		return sink.NewFileEmitter[string](store, cfg.Output.Prefix, logger), closeStore, nil

	case config.ModePostgres:
		store, err := postgres.NewArticleStore(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open article store: %w", err)
		}
		return sink.NewRecordSink[string](store, runID, clock, sha256.New(), logger), store.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown output mode %q", cfg.Output.Mode)
	}
}

func openBlobStore(ctx context.Context, out config.OutputConfig, logger *zap.Logger) (crawler.BlobStore, func(), error) {
	noop := func() {}
	switch out.Storage {
	case config.StorageLocal:
		store, err := local.New(local.Config{Dir: out.Dir})
		if err != nil {
			return nil, noop, fmt.Errorf("open output directory: %w", err)
		}
		logger.Info("writing files", zap.String("dir", store.Dir()))
		return store, noop, nil
	case config.StorageGCS:
		store, err := gcs.Open(ctx, gcs.Config{Bucket: out.GCSBucket}, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("open output bucket: %w", err)
		}
		logger.Info("writing objects", zap.String("bucket", out.GCSBucket))
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("close output bucket", zap.Error(err))
			}
		}, nil
	case config.StorageMemory:
		return memory.NewBlobStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown output storage %q", out.Storage)
	}
}
