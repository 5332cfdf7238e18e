package repo

import (
	"context"
	"time"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/google/uuid"
)

type (
	// Transactor runs f in one database transaction. Repository calls made
	// with the ctx passed to f join it.
	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}

	DomainRecordRepo interface {
		GetByID(ctx context.Context, id uuid.UUID) (entity.DomainRecord, error)
		GetByOwnerAndName(ctx context.Context, ownerID, name string, excludeDeleted bool) (entity.DomainRecord, error)
		ListByOwner(ctx context.Context, ownerID string, filter dto.RecordFilter, page dto.Page) ([]entity.DomainRecord, error)
		CountByOwner(ctx context.Context, ownerID string, filter dto.RecordFilter) (int64, error)
		Create(ctx context.Context, rec entity.DomainRecord) error
		// Update stores rec only if the stored version still is expectedVersion.
		Update(ctx context.Context, rec entity.DomainRecord, expectedVersion int64) error
	}

	OutboxRepo interface {
		CreateBatch(ctx context.Context, entries []*entity.OutboxEntry) error
		// ClaimPending leases up to limit due entries to claimToken until now+ttl.
		ClaimPending(ctx context.Context, claimToken uuid.UUID, limit int, ttl time.Duration, now time.Time) ([]*entity.OutboxEntry, error)
		MarkDelivered(ctx context.Context, id, claimToken uuid.UUID, now time.Time) error
		MarkRetry(ctx context.Context, id, claimToken uuid.UUID, lastError string, nextAttemptAt time.Time) error
		MarkFailed(ctx context.Context, id, claimToken uuid.UUID, lastError string, now time.Time) error
		MarkMaxAttemptsAsFailed(ctx context.Context, maxAttempts int, now time.Time) (int64, error)
		ListExpired(ctx context.Context, olderThan time.Time, limit int) ([]*entity.OutboxEntry, error)
		DeleteByIDs(ctx context.Context, ids uuid.UUIDs) (int64, error)
	}

	OutboxArchiveRepo interface {
		Archive(ctx context.Context, key string, entries []*entity.OutboxEntry) error
	}

	// ProcessedEventsRepo remembers consumed events by their dedup key.
	ProcessedEventsRepo interface {
		// MarkProcessed returns false when key was already recorded.
		MarkProcessed(ctx context.Context, key string) (bool, error)
		Forget(ctx context.Context, key string) error
	}

	ActivityRepo interface {
		Append(ctx context.Context, aggregateID uuid.UUID, item dto.ActivityItem) error
		List(ctx context.Context, aggregateID uuid.UUID, limit int) ([]dto.ActivityItem, error)
	}
)
