package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robalyx/hivesync/internal/database/service"
	"github.com/robalyx/hivesync/internal/syncer"
	"github.com/robalyx/hivesync/internal/worker/core"
	"github.com/robalyx/hivesync/pkg/utils"
	"go.uber.org/zap"
)

// maxBackoffFactor caps the failure backoff at this multiple of the sync interval.
const maxBackoffFactor = 10

// Worker keeps the local store in step with the remote feed.
type Worker struct {
	engine       *syncer.Engine
	eviction     *service.EvictionService
	reporter     *core.StatusReporter
	logger       *zap.Logger
	interval     time.Duration
	startupDelay time.Duration
	backoff      *backoff.ExponentialBackOff
}

// New creates a new sync worker.
func New(
	engine *syncer.Engine, eviction *service.EvictionService, reporter *core.StatusReporter,
	interval, startupDelay time.Duration, logger *zap.Logger,
) *Worker {
	return &Worker{
		engine:       engine,
		eviction:     eviction,
		reporter:     reporter,
		logger:       logger.Named("sync_worker"),
		interval:     interval,
		startupDelay: startupDelay,
		backoff: backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(interval),
			backoff.WithMaxInterval(interval*maxBackoffFactor),
			backoff.WithMaxElapsedTime(0),
		),
	}
}

// Start runs sync cycles until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Sync Worker started", zap.String("workerID", w.reporter.GetWorkerID()))
	w.reporter.Start(ctx)
	defer w.reporter.Stop()

	if w.startupDelay > 0 {
		w.reporter.UpdateStatus("Waiting for startup", 0)
		if utils.ContextSleep(ctx, w.startupDelay) == utils.SleepCancelled {
			return
		}
	}

	// Step 1: Startup eviction
	w.reporter.UpdateStatus("Evicting old posts", 0)
	if _, err := w.eviction.EvictExpired(ctx); err != nil {
		w.logger.Error("Startup eviction failed", zap.Error(err))
		w.reporter.SetHealthy(false, err)
	}

	for {
		if utils.ContextGuardWithLog(ctx, w.logger, "Context cancelled, stopping sync worker") {
			return
		}

		wait := w.interval
		if err := w.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}

			wait = w.backoff.NextBackOff()
			w.logger.Error("Sync cycle failed",
				zap.Error(err),
				zap.Duration("retryIn", wait))
			w.reporter.SetHealthy(false, err)
		} else {
			w.backoff.Reset()
			w.reporter.SetHealthy(true, nil)
		}

		if !utils.IntervalSleep(ctx, wait, w.logger, "sync worker") {
			return
		}
	}
}

// RunCycle performs one sync followed by eviction.
func (w *Worker) RunCycle(ctx context.Context) error {
	// Step 1: Sync (50%)
	w.reporter.UpdateStatus("Syncing feed", 50)

	result, err := w.engine.Sync(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}

	w.logger.Info(result.Message(),
		zap.Int("newItems", result.NewItemCount),
		zap.Int("skipped", result.Skipped))

	// Step 2: Evict (90%)
	w.reporter.UpdateStatus("Evicting old posts", 90)

	if _, err := w.eviction.EvictExpired(ctx); err != nil {
		return fmt.Errorf("failed to evict: %w", err)
	}

	// Step 3: Completed (100%)
	w.reporter.UpdateStatus("Completed", 100)

	return nil
}
