package domainrecord

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	"github.com/google/uuid"
)

// GetByID returns a live record owned by ref.OwnerID.
func (uc *UseCase) GetByID(ctx context.Context, ref dto.DomainRef) (entity.DomainRecord, error) {
	var rec entity.DomainRecord

	err := uc.execute(ctx, "GetByID", false, func(ctx context.Context) error {
		var err error
		rec, err = uc.load(ctx, ref.ID, ref.OwnerID)
		if err != nil {
			return err
		}
		if rec.Deleted {
			return errs.ErrDomainNotFound
		}
		return nil
	})
	if err != nil {
		return entity.DomainRecord{}, fmt.Errorf("DomainRecordUseCase - GetByID: %w", err)
	}

	return rec, nil
}

// ListByOwner pages through live records ordered by name.
func (uc *UseCase) ListByOwner(ctx context.Context, ownerID string, page dto.Page) (dto.PagedResult[entity.DomainRecord], error) {
	if err := validateOwner(ownerID); err != nil {
		return dto.PagedResult[entity.DomainRecord]{}, fmt.Errorf("DomainRecordUseCase - ListByOwner: %w", err)
	}

	page = page.Normalize()

	var result dto.PagedResult[entity.DomainRecord]

	err := uc.execute(ctx, "ListByOwner", false, func(ctx context.Context) error {
		items, err := uc.records.ListByOwner(ctx, ownerID, dto.FilterLive, page)
		if err != nil {
			return fmt.Errorf("uc.records.ListByOwner: %w", err)
		}

		total, err := uc.records.CountByOwner(ctx, ownerID, dto.FilterLive)
		if err != nil {
			return fmt.Errorf("uc.records.CountByOwner: %w", err)
		}

		result = dto.NewPagedResult(items, total, page)

		return nil
	})
	if err != nil {
		return dto.PagedResult[entity.DomainRecord]{}, fmt.Errorf("DomainRecordUseCase - ListByOwner: %w", err)
	}

	return result, nil
}

func (uc *UseCase) ListVerified(ctx context.Context, ownerID string) ([]entity.DomainRecord, error) {
	items, err := uc.list(ctx, "ListVerified", ownerID, dto.FilterVerified)
	if err != nil {
		return nil, fmt.Errorf("DomainRecordUseCase - ListVerified: %w", err)
	}

	return items, nil
}

// ListDeleted returns deleted records, most recently changed first.
func (uc *UseCase) ListDeleted(ctx context.Context, ownerID string) ([]entity.DomainRecord, error) {
	items, err := uc.list(ctx, "ListDeleted", ownerID, dto.FilterDeleted)
	if err != nil {
		return nil, fmt.Errorf("DomainRecordUseCase - ListDeleted: %w", err)
	}

	return items, nil
}

// Exists reports whether ownerID holds a live record called name.
func (uc *UseCase) Exists(ctx context.Context, ownerID, name string) (bool, error) {
	if err := validateOwner(ownerID); err != nil {
		return false, fmt.Errorf("DomainRecordUseCase - Exists: %w", err)
	}

	name = entity.NormalizeName(name)
	if name == "" {
		return false, fmt.Errorf("DomainRecordUseCase - Exists: %w", errs.ErrInvalidName)
	}

	var exists bool

	err := uc.execute(ctx, "Exists", false, func(ctx context.Context) error {
		err := uc.ensureNameFree(ctx, ownerID, name, uuid.Nil)
		switch {
		case err == nil:
			exists = false
		case errors.Is(err, errs.ErrNameTaken):
			exists = true
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("DomainRecordUseCase - Exists: %w", err)
	}

	return exists, nil
}

func (uc *UseCase) list(ctx context.Context, op, ownerID string, filter dto.RecordFilter) ([]entity.DomainRecord, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}

	var items []entity.DomainRecord

	err := uc.execute(ctx, op, false, func(ctx context.Context) error {
		var err error
		items, err = uc.records.ListByOwner(ctx, ownerID, filter, dto.Page{})
		if err != nil {
			return fmt.Errorf("uc.records.ListByOwner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []entity.DomainRecord{}
	}

	return items, nil
}
