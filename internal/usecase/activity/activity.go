package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/internal/infrastructure"
	"github.com/andreyxaxa/Domain-Service/internal/repo"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
)

// UseCase is the consuming side of domain events. Events may arrive more
// than once; each (aggregate, type, sequence) is applied at most once.
type UseCase struct {
	processed repo.ProcessedEventsRepo
	feed      repo.ActivityRepo
	clock     infrastructure.Clock
	logger    logger.Interface
}

func New(processed repo.ProcessedEventsRepo, feed repo.ActivityRepo, clock infrastructure.Clock, l logger.Interface) *UseCase {
	return &UseCase{
		processed: processed,
		feed:      feed,
		clock:     clock,
		logger:    l,
	}
}

func (uc *UseCase) Consume(ctx context.Context, env entity.Envelope) error {
	if !env.EventType.Valid() {
		return fmt.Errorf("ActivityUseCase - Consume: %w: %q", errs.ErrUnknownEventType, env.EventType)
	}

	key := env.DedupKey()

	added, err := uc.processed.MarkProcessed(ctx, key)
	if err != nil {
		return fmt.Errorf("ActivityUseCase - Consume - uc.processed.MarkProcessed: %w", err)
	}
	if !added {
		uc.logger.Debug("ActivityUseCase - Consume - duplicate event %s skipped", key)
		return nil
	}

	item := dto.ActivityItem{
		EventID:          env.EventID,
		EventType:        string(env.EventType),
		ProducerSequence: env.ProducerSequence,
		OccurredAt:       env.OccurredAt,
		ReceivedAt:       uc.clock.Now(),
		Payload:          env.Payload,
	}

	err = uc.feed.Append(ctx, env.AggregateID, item)
	if err != nil {
		// Let the redelivered message through the deduper again.
		if forgetErr := uc.processed.Forget(ctx, key); forgetErr != nil {
			uc.logger.Error(forgetErr, "ActivityUseCase - Consume - uc.processed.Forget")
		}
		return fmt.Errorf("ActivityUseCase - Consume - uc.feed.Append: %w", err)
	}

	return nil
}

// Feed returns up to limit consumed events for aggregateID, newest first.
func (uc *UseCase) Feed(ctx context.Context, aggregateID uuid.UUID, limit int) ([]dto.ActivityItem, error) {
	items, err := uc.feed.List(ctx, aggregateID, limit)
	if err != nil {
		return nil, fmt.Errorf("ActivityUseCase - Feed - uc.feed.List: %w", err)
	}

	return items, nil
}
