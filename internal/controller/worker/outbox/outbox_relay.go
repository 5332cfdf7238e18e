package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Domain-Service/internal/infrastructure"
	"github.com/andreyxaxa/Domain-Service/internal/usecase"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
)

type OutboxRelay struct {
	outbox    usecase.OutboxUseCase
	publisher infrastructure.EventPublisher
	logger    logger.Interface

	pollInterval        time.Duration
	cleanupInterval     time.Duration
	markFailedInterval  time.Duration
	processBatchTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	outbox usecase.OutboxUseCase,
	publisher infrastructure.EventPublisher,
	l logger.Interface,
	pollInterval time.Duration,
	cleanupInterval time.Duration,
	markFailedInterval time.Duration,
	processBatchTimeout time.Duration,
) *OutboxRelay {
	return &OutboxRelay{
		outbox:              outbox,
		publisher:           publisher,
		logger:              l,
		pollInterval:        pollInterval,
		cleanupInterval:     cleanupInterval,
		markFailedInterval:  markFailedInterval,
		processBatchTimeout: processBatchTimeout,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("OutboxRelay - Start - worker already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	// 1. publish due entries
	r.worker(r.pollInterval, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.processBatchTimeout)
		r.dispatchBatch(batchCtx)
		batchCancel()
	})

	// 2. fail entries that ran out of attempts
	r.worker(r.markFailedInterval, func() {
		err := r.outbox.MarkMaxAttemptsAsFailed(r.ctx)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.outbox.MarkMaxAttemptsAsFailed")
		}
	})

	// 3. archive and drop delivered/failed entries
	r.worker(r.cleanupInterval, func() {
		err := r.outbox.CleanupOutbox(r.ctx)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.outbox.CleanupOutbox")
		}
	})

	return nil
}

func (r *OutboxRelay) dispatchBatch(ctx context.Context) {
	stats, err := r.outbox.DispatchBatch(ctx)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - dispatchBatch - r.outbox.DispatchBatch")

		return
	}

	if stats.Claimed > 0 {
		r.logger.Debug("OutboxRelay - dispatchBatch - claimed=%d delivered=%d retried=%d failed=%d",
			stats.Claimed, stats.Delivered, stats.Retried, stats.Failed)
	}
}

func (r *OutboxRelay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

// Shutdown stops the loops, waits for the running tasks and closes the
// publisher. It gives up waiting when ctx ends.
func (r *OutboxRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan error, 1)

	go func() {
		r.wg.Wait()
		done <- r.publisher.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("OutboxRelay - Shutdown - r.publisher.Close: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("OutboxRelay - Shutdown: %w", ctx.Err())
	}
}
