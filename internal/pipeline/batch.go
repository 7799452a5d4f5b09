package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"reelforge/internal/config"
	"reelforge/internal/ideas"
	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/run"
	"reelforge/internal/services"
)

// HistoryRecorder is the slice of the run store the batch runner uses.
// It may be nil when no history database is available.
type HistoryRecorder interface {
	Record(ctx context.Context, r *run.Run) error
}

// Batch drives the controller across a list of ideas, one at a time, with a
// fixed delay between runs. A storage-root lock keeps two invocations from
// interleaving project directories.
type Batch struct {
	cfg        *config.Config
	controller *Controller
	history    HistoryRecorder
	notifier   notifications.Service
	logger     *slog.Logger

	sleeper func(context.Context, time.Duration) error
	now     func() time.Time
}

// BatchOption customizes a Batch.
type BatchOption func(*Batch)

// WithBatchSleeper overrides the inter-run sleep (used by tests).
func WithBatchSleeper(sleeper func(context.Context, time.Duration) error) BatchOption {
	return func(b *Batch) {
		if sleeper != nil {
			b.sleeper = sleeper
		}
	}
}

// WithBatchNotifier overrides the notification service.
func WithBatchNotifier(notifier notifications.Service) BatchOption {
	return func(b *Batch) {
		if notifier != nil {
			b.notifier = notifier
		}
	}
}

// NewBatch constructs the batch runner. history may be nil when no run
// store is available.
func NewBatch(cfg *config.Config, controller *Controller, history HistoryRecorder, logger *slog.Logger, opts ...BatchOption) *Batch {
	batch := &Batch{
		cfg:        cfg,
		controller: controller,
		history:    history,
		notifier:   notifications.NewService(cfg),
		logger:     logging.NewComponentLogger(logger, "batch"),
		now:        time.Now,
	}
	batch.sleeper = func(ctx context.Context, d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
	for _, opt := range opts {
		opt(batch)
	}
	return batch
}

// Execute runs every idea sequentially and writes the batch summary. A
// failed run never stops the batch; the summary reports both outcomes.
func (b *Batch) Execute(ctx context.Context, list []ideas.Idea) (*run.BatchSummary, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("batch: no ideas to run: %w", services.ErrValidation)
	}

	lock := flock.New(filepath.Join(b.cfg.Paths.StorageDir, "reelforge.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("batch: acquire storage lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("batch: another invocation holds the storage lock: %w", services.ErrConfiguration)
	}
	defer func() { _ = lock.Unlock() }()

	summary := &run.BatchSummary{StartedAt: b.now().UTC()}
	delay := time.Duration(b.cfg.Workflow.InterRunDelaySeconds) * time.Second

	for i, idea := range list {
		b.logger.Info("starting run",
			logging.Int("number", idea.Number),
			logging.String(logging.FieldIdea, idea.Name),
			logging.Int("position", i+1),
			logging.Int("total", len(list)))
		b.notify(ctx, func(ctx context.Context) error {
			return b.notifier.NotifyRunStarted(ctx, idea.Number, idea.Name)
		})

		r, runErr := b.controller.Execute(ctx, idea)
		summary.Add(r)
		b.recordHistory(ctx, r)
		if runErr != nil {
			b.logger.Warn("run failed",
				logging.String(logging.FieldIdea, idea.Name),
				logging.String("failed_stage", r.FailedStage),
				logging.Error(runErr))
			b.notify(ctx, func(ctx context.Context) error {
				return b.notifier.NotifyRunFailed(ctx, idea.Name, r.FailedStage, r.FailureReason)
			})
		} else {
			b.notify(ctx, func(ctx context.Context) error {
				return b.notifier.NotifyRunCompleted(ctx, idea.Name, r.Duration())
			})
		}
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = b.now().UTC()
			b.writeSummary(summary)
			return summary, err
		}

		if i < len(list)-1 && delay > 0 {
			b.logger.Info("waiting before next run", logging.Duration("delay", delay))
			if err := b.sleeper(ctx, delay); err != nil {
				summary.FinishedAt = b.now().UTC()
				b.writeSummary(summary)
				return summary, err
			}
		}
	}

	summary.FinishedAt = b.now().UTC()
	b.writeSummary(summary)
	b.logger.Info("batch complete",
		logging.Int("total", summary.Total),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed))
	b.notify(ctx, func(ctx context.Context) error {
		return b.notifier.NotifyBatchCompleted(ctx, summary.Succeeded, summary.Failed, summary.FinishedAt.Sub(summary.StartedAt))
	})
	return summary, nil
}

// notify delivers a best-effort notification. Delivery failures are logged
// and never affect the batch outcome.
func (b *Batch) notify(ctx context.Context, fn func(context.Context) error) {
	if b.notifier == nil {
		return
	}
	if err := fn(ctx); err != nil {
		b.logger.Warn("notification failed", logging.Error(err))
	}
}

func (b *Batch) recordHistory(ctx context.Context, r *run.Run) {
	if b.history == nil {
		return
	}
	if err := b.history.Record(ctx, r); err != nil {
		b.logger.Warn("run history write failed", logging.Error(err))
	}
}

func (b *Batch) writeSummary(summary *run.BatchSummary) {
	path, err := summary.Write(b.cfg.Paths.StorageDir)
	if err != nil {
		b.logger.Warn("summary write failed", logging.Error(err))
		return
	}
	b.logger.Info("summary written", logging.String("path", path))
}
