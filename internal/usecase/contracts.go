package usecase

import (
	"context"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/google/uuid"
)

type (
	DomainRecordUseCase interface {
		Create(ctx context.Context, cmd dto.CreateDomain) (dto.CreatedDomain, error)
		Rename(ctx context.Context, cmd dto.RenameDomain) (entity.DomainRecord, error)
		Delete(ctx context.Context, ref dto.DomainRef) error
		Restore(ctx context.Context, ref dto.DomainRef) (dto.RestoredDomain, error)
		Verify(ctx context.Context, cmd dto.VerifyDomain) (bool, error)

		GetByID(ctx context.Context, ref dto.DomainRef) (entity.DomainRecord, error)
		ListByOwner(ctx context.Context, ownerID string, page dto.Page) (dto.PagedResult[entity.DomainRecord], error)
		ListVerified(ctx context.Context, ownerID string) ([]entity.DomainRecord, error)
		ListDeleted(ctx context.Context, ownerID string) ([]entity.DomainRecord, error)
		Exists(ctx context.Context, ownerID, name string) (bool, error)
	}

	OutboxUseCase interface {
		DispatchBatch(ctx context.Context) (dto.DispatchStats, error)
		MarkMaxAttemptsAsFailed(ctx context.Context) error
		CleanupOutbox(ctx context.Context) error
	}

	ActivityUseCase interface {
		Consume(ctx context.Context, env entity.Envelope) error
		Feed(ctx context.Context, aggregateID uuid.UUID, limit int) ([]dto.ActivityItem, error)
	}
)

