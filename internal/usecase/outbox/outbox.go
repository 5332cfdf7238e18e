package outbox

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/internal/infrastructure"
	"github.com/andreyxaxa/Domain-Service/internal/repo"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
	"github.com/andreyxaxa/Domain-Service/pkg/tracing"
)

const (
	_defaultTopic            = "domain-events"
	_defaultBatchSize        = 100
	_defaultMaxAttempts      = 10
	_defaultClaimTTL         = 30 * time.Second
	_defaultPublishTimeout   = 5 * time.Second
	_defaultBackoffInitial   = time.Second
	_defaultBackoffMax       = 5 * time.Minute
	_defaultRetention        = time.Hour
	_defaultCleanupBatchSize = 500

	_maxErrorLength = 1024
)

// UseCase moves committed outbox entries to the broker. Delivery is at least
// once: an entry is marked delivered only after the broker acknowledged it, so
// a crash in between republishes it.
type UseCase struct {
	outbox    repo.OutboxRepo
	archive   repo.OutboxArchiveRepo
	publisher infrastructure.EventPublisher
	clock     infrastructure.Clock
	logger    logger.Interface
	tracer    trace.Tracer

	topic            string
	batchSize        int
	maxAttempts      int
	claimTTL         time.Duration
	publishTimeout   time.Duration
	backoffInitial   time.Duration
	backoffMax       time.Duration
	retention        time.Duration
	cleanupBatchSize int
}

func New(
	outbox repo.OutboxRepo,
	publisher infrastructure.EventPublisher,
	clock infrastructure.Clock,
	l logger.Interface,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		outbox:           outbox,
		publisher:        publisher,
		clock:            clock,
		logger:           l,
		tracer:           noop.NewTracerProvider().Tracer("outbox"),
		topic:            _defaultTopic,
		batchSize:        _defaultBatchSize,
		maxAttempts:      _defaultMaxAttempts,
		claimTTL:         _defaultClaimTTL,
		publishTimeout:   _defaultPublishTimeout,
		backoffInitial:   _defaultBackoffInitial,
		backoffMax:       _defaultBackoffMax,
		retention:        _defaultRetention,
		cleanupBatchSize: _defaultCleanupBatchSize,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// DispatchBatch claims due entries and publishes them one by one. A failing
// entry is rescheduled or failed on its own and never stops the batch.
// Entries left over when ctx ends are picked up again once their claim
// expires.
func (uc *UseCase) DispatchBatch(ctx context.Context) (stats dto.DispatchStats, err error) {
	ctx, span := uc.tracer.Start(ctx, "OutboxUseCase.DispatchBatch")
	defer func() {
		span.SetAttributes(
			attribute.Int("outbox.claimed", stats.Claimed),
			attribute.Int("outbox.delivered", stats.Delivered),
			attribute.Int("outbox.retried", stats.Retried),
			attribute.Int("outbox.failed", stats.Failed),
		)
		tracing.End(span, err)
	}()

	claimToken := uuid.New()

	entries, err := uc.outbox.ClaimPending(ctx, claimToken, uc.batchSize, uc.claimTTL, uc.clock.Now())
	if err != nil {
		return stats, fmt.Errorf("OutboxUseCase - DispatchBatch - uc.outbox.ClaimPending: %w", err)
	}

	stats.Claimed = len(entries)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		uc.dispatch(ctx, claimToken, entry, &stats)
	}

	return stats, nil
}

func (uc *UseCase) dispatch(ctx context.Context, claimToken uuid.UUID, entry *entity.OutboxEntry, stats *dto.DispatchStats) {
	pubCtx, cancel := context.WithTimeout(ctx, uc.publishTimeout)
	pubErr := uc.publisher.Publish(pubCtx, uc.topic, entry.Envelope())
	cancel()

	if pubErr == nil {
		err := uc.outbox.MarkDelivered(ctx, entry.ID, claimToken, uc.clock.Now())
		if err != nil {
			// The entry stays pending and is published again after the claim expires.
			uc.logger.Warn("OutboxUseCase - dispatch - entry %s published but not marked delivered: %v", entry.ID, err)
			return
		}
		stats.Delivered++
		return
	}

	attempts := entry.AttemptCount + 1
	lastError := truncate(pubErr.Error(), _maxErrorLength)

	if attempts >= uc.maxAttempts {
		err := uc.outbox.MarkFailed(ctx, entry.ID, claimToken, lastError, uc.clock.Now())
		if err != nil {
			uc.logger.Error(err, "OutboxUseCase - dispatch - uc.outbox.MarkFailed")
			return
		}
		stats.Failed++
		uc.logger.Error(
			fmt.Errorf("entry %s (%s, aggregate %s) failed after %d attempts: %w",
				entry.ID, entry.EventType, entry.AggregateID, attempts, pubErr),
			"OutboxUseCase - dispatch",
		)
		return
	}

	next := uc.clock.Now().Add(exponentialBackoff(attempts, uc.backoffInitial, uc.backoffMax))

	err := uc.outbox.MarkRetry(ctx, entry.ID, claimToken, lastError, next)
	if err != nil {
		uc.logger.Error(err, "OutboxUseCase - dispatch - uc.outbox.MarkRetry")
		return
	}
	stats.Retried++
	uc.logger.Warn("OutboxUseCase - dispatch - entry %s attempt %d failed, next at %s: %v",
		entry.ID, attempts, next.Format(time.RFC3339), pubErr)
}

func (uc *UseCase) MarkMaxAttemptsAsFailed(ctx context.Context) error {
	count, err := uc.outbox.MarkMaxAttemptsAsFailed(ctx, uc.maxAttempts, uc.clock.Now())
	if err != nil {
		return fmt.Errorf("OutboxUseCase - MarkMaxAttemptsAsFailed - uc.outbox.MarkMaxAttemptsAsFailed: %w", err)
	}

	if count > 0 {
		uc.logger.Error(
			fmt.Errorf("%d outbox entries exhausted %d attempts", count, uc.maxAttempts),
			"OutboxUseCase - MarkMaxAttemptsAsFailed",
		)
	}

	return nil
}

// CleanupOutbox archives entries that were delivered or failed longer than
// the retention window ago and then deletes them. Nothing is deleted if archiving
// fails.
func (uc *UseCase) CleanupOutbox(ctx context.Context) (err error) {
	ctx, span := uc.tracer.Start(ctx, "OutboxUseCase.CleanupOutbox")
	defer func() { tracing.End(span, err) }()

	now := uc.clock.Now()

	entries, err := uc.outbox.ListExpired(ctx, now.Add(-uc.retention), uc.cleanupBatchSize)
	if err != nil {
		return fmt.Errorf("OutboxUseCase - CleanupOutbox - uc.outbox.ListExpired: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	if uc.archive != nil {
		key := archiveKey(now)

		err = uc.archive.Archive(ctx, key, entries)
		if err != nil {
			return fmt.Errorf("OutboxUseCase - CleanupOutbox - uc.archive.Archive: %w", err)
		}
	}

	ids := make(uuid.UUIDs, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}

	count, err := uc.outbox.DeleteByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("OutboxUseCase - CleanupOutbox - uc.outbox.DeleteByIDs: %w", err)
	}

	uc.logger.Info("deleted old outbox entries, count = %d", count)

	return nil
}

func archiveKey(now time.Time) string {
	return fmt.Sprintf("outbox/%s/%s.jsonl", now.UTC().Format("2006/01/02"), uuid.New())
}

// exponentialBackoff doubles initial per attempt up to maxDelay and spreads
// the result by +-20%.
func exponentialBackoff(attempt int, initial, maxDelay time.Duration) time.Duration {
	if initial <= 0 {
		initial = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	if attempt <= 0 {
		return initial
	}

	delay := float64(initial) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}

	jitter := 0.2 * delay

	return time.Duration(delay + (rand.Float64()-0.5)*2*jitter)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
