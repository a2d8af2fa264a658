// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/editorial-engine/internal/control"
	"github.com/pdiddy/editorial-engine/internal/dedup"
	"github.com/pdiddy/editorial-engine/internal/discovery"
	"github.com/pdiddy/editorial-engine/internal/editorial"
	"github.com/pdiddy/editorial-engine/internal/ingestion"
	"github.com/pdiddy/editorial-engine/internal/intake"
	"github.com/pdiddy/editorial-engine/internal/kstore"
	"github.com/pdiddy/editorial-engine/internal/llm"
	"github.com/pdiddy/editorial-engine/internal/pipeline"
	"github.com/pdiddy/editorial-engine/internal/understanding"
	"github.com/pdiddy/editorial-engine/internal/webfetch"
	"github.com/pdiddy/editorial-engine/internal/websearch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the full pipeline with worker pools and the control plane",
	Long: `Serve runs every pipeline stage as a worker pool over in-process queues
and exposes the control plane (health, status, triggers) on the configured
listen address. Discovery runs one cycle at startup and then on its
interval; set discovery.interval to 0 to run cycles only when triggered.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := engineConfig
	if cfg.Search.APIKey == "" {
		return fmt.Errorf("search API key not configured (search.api_key or .secrets/tavily-api-key)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ai, err := llm.New(cfg.AI)
	if err != nil {
		return fmt.Errorf("constructing AI client: %w", err)
	}
	store, err := kstore.New(ctx, cfg.Knowledge, logger)
	if err != nil {
		return fmt.Errorf("constructing knowledge store client: %w", err)
	}
	defer store.Close()
	dedupStore, err := dedup.New(cfg.Dedup)
	if err != nil {
		return fmt.Errorf("constructing dedup store: %w", err)
	}
	defer dedupStore.Close()

	search := websearch.NewClient(cfg.Search)
	fetcher := webfetch.New(cfg.Intake)

	queue := pipeline.NewMemoryQueue(cfg.QueueSize)
	defer queue.Close()
	stats := &pipeline.Stats{}

	planner := discovery.NewPlanner(search, queue.Enqueue, cfg.Discovery, cfg.Topics, logger)
	intakeProc := intake.NewProcessor(fetcher, dedupStore, cfg.Intake, logger)
	understandProc := understanding.NewProcessor(ai, ai, cfg.Understanding, logger)
	editProc := editorial.NewProcessor(ai, editorial.NewCorroborator(search, cfg.Editorial, logger), cfg.Editorial, logger)
	writer := ingestion.NewWriter(store, cfg.Ingestion, logger)

	runner := pipeline.NewRunner(queue, stats, logger)
	runner.Register(pipeline.StageDiscovery, cfg.Workers.Discovery, func(ctx context.Context, u pipeline.Unit) error {
		if u.Query != "" {
			_, err := planner.SearchOne(ctx, u.Query)
			return err
		}
		_, err := planner.Plan(ctx)
		return err
	})
	runner.Register(pipeline.StageIntake, cfg.Workers.Intake, func(ctx context.Context, u pipeline.Unit) error {
		doc, err := intakeProc.Process(ctx, u.URL)
		if err != nil {
			return err
		}
		return queue.Enqueue(ctx, pipeline.NewUnderstandingUnit(doc))
	})
	runner.Register(pipeline.StageUnderstanding, cfg.Workers.Understanding, func(ctx context.Context, u pipeline.Unit) error {
		return queue.Enqueue(ctx, pipeline.NewEditorialUnit(understandProc.Understand(ctx, u.Doc)))
	})
	runner.Register(pipeline.StageEditorial, cfg.Workers.Editorial, func(ctx context.Context, u pipeline.Unit) error {
		doc := editProc.Edit(ctx, u.Doc)
		if doc.NeedsReview {
			stats.MarkFlagged()
		}
		return queue.Enqueue(ctx, pipeline.NewIngestionUnit(doc))
	})
	runner.Register(pipeline.StageIngestion, cfg.Workers.Ingestion, func(ctx context.Context, u pipeline.Unit) error {
		_, err := writer.Ingest(ctx, u.Doc)
		return err
	})

	logger.Info("pipeline starting",
		zap.String("listen", cfg.Listen),
		zap.Int("queue_size", cfg.QueueSize),
		zap.String("collection", cfg.Ingestion.Collection),
		zap.String("version", version))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(ctx) })
	g.Go(func() error { return control.New(queue, stats, version, logger).Run(ctx, cfg.Listen) })
	if len(cfg.Discovery.Queries) > 0 {
		g.Go(func() error { return discoveryCycles(ctx, queue, cfg.Discovery.Interval) })
	} else {
		logger.Warn("no discovery queries configured; cycles run only when triggered")
	}

	err = g.Wait()

	snap := stats.Snapshot()
	logger.Info("pipeline stopped",
		zap.Int64("processed", snap.Processed),
		zap.Int64("skipped", snap.Skipped),
		zap.Int64("failed", snap.Failed),
		zap.Int64("retried", snap.Retried),
		zap.Int64("flagged_for_review", snap.FlaggedForReview))
	return err
}

// discoveryCycles enqueues a full discovery cycle at startup and then on
// every interval tick. A zero interval means triggered-only operation.
func discoveryCycles(ctx context.Context, queue pipeline.Queue, interval time.Duration) error {
	if err := enqueueCycle(ctx, queue); err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := enqueueCycle(ctx, queue); err != nil {
				return err
			}
		}
	}
}

// enqueueCycle feeds one full-plan discovery unit, treating shutdown races
// (canceled context, closed queue) as a clean stop.
func enqueueCycle(ctx context.Context, queue pipeline.Queue) error {
	err := queue.Enqueue(ctx, pipeline.NewDiscoveryUnit(""))
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, pipeline.ErrQueueClosed) {
		return nil
	}
	return err
}
