package domainrecord

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

func (uc *UseCase) Create(ctx context.Context, cmd dto.CreateDomain) (dto.CreatedDomain, error) {
	var created dto.CreatedDomain

	err := uc.execute(ctx, "Create", true, func(ctx context.Context) error {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("uuid.NewV7: %w", err)
		}

		token, err := uc.newToken()
		if err != nil {
			return err
		}

		rec, events, err := entity.NewDomainRecord(id, cmd.Name, cmd.OwnerID, token, uc.clock.Now())
		if err != nil {
			return err
		}

		if err := uc.ensureNameFree(ctx, rec.OwnerID, rec.Name, rec.ID); err != nil {
			return err
		}

		if err := uc.persist(ctx, rec, 0, events); err != nil {
			return err
		}

		created = dto.CreatedDomain{Record: rec, VerificationToken: token}

		return nil
	}, attribute.String("owner_id", cmd.OwnerID))
	if err != nil {
		return dto.CreatedDomain{}, fmt.Errorf("DomainRecordUseCase - Create: %w", err)
	}

	return created, nil
}

// Rename keeps the verification state. Renaming to the current name succeeds
// without an event.
func (uc *UseCase) Rename(ctx context.Context, cmd dto.RenameDomain) (entity.DomainRecord, error) {
	var renamed entity.DomainRecord

	err := uc.execute(ctx, "Rename", true, func(ctx context.Context) error {
		rec, err := uc.load(ctx, cmd.ID, cmd.OwnerID)
		if err != nil {
			return err
		}
		if rec.Deleted {
			return errs.ErrDomainNotFound
		}

		next, events, err := rec.Rename(cmd.NewName, uc.clock.Now())
		if err != nil {
			return err
		}
		if len(events) == 0 {
			renamed = rec
			return nil
		}

		if err := uc.ensureNameFree(ctx, next.OwnerID, next.Name, next.ID); err != nil {
			return err
		}

		if err := uc.persist(ctx, next, rec.Version, events); err != nil {
			return err
		}

		renamed = next

		return nil
	}, attribute.String("domain_id", cmd.ID.String()))
	if err != nil {
		return entity.DomainRecord{}, fmt.Errorf("DomainRecordUseCase - Rename: %w", err)
	}

	return renamed, nil
}

// Delete soft-deletes the record. Deleting twice is a conflict.
func (uc *UseCase) Delete(ctx context.Context, ref dto.DomainRef) error {
	err := uc.execute(ctx, "Delete", true, func(ctx context.Context) error {
		rec, err := uc.load(ctx, ref.ID, ref.OwnerID)
		if err != nil {
			return err
		}
		if rec.Deleted {
			return errs.ErrAlreadyDeleted
		}

		next, events := rec.Delete(uc.clock.Now())

		return uc.persist(ctx, next, rec.Version, events)
	}, attribute.String("domain_id", ref.ID.String()))
	if err != nil {
		return fmt.Errorf("DomainRecordUseCase - Delete: %w", err)
	}

	return nil
}

// Restore brings a deleted record back unverified with a fresh token. It
// fails when the name has been taken by a live record in the meantime.
func (uc *UseCase) Restore(ctx context.Context, ref dto.DomainRef) (dto.RestoredDomain, error) {
	var restored dto.RestoredDomain

	err := uc.execute(ctx, "Restore", true, func(ctx context.Context) error {
		rec, err := uc.load(ctx, ref.ID, ref.OwnerID)
		if err != nil {
			return err
		}
		if !rec.Deleted {
			return errs.ErrNotDeleted
		}

		if err := uc.ensureNameFree(ctx, rec.OwnerID, rec.Name, rec.ID); err != nil {
			return err
		}

		token, err := uc.newToken()
		if err != nil {
			return err
		}

		next, events, err := rec.Restore(token, uc.clock.Now())
		if err != nil {
			return err
		}

		if err := uc.persist(ctx, next, rec.Version, events); err != nil {
			return err
		}

		restored = dto.RestoredDomain{Record: next, VerificationToken: token}

		return nil
	}, attribute.String("domain_id", ref.ID.String()))
	if err != nil {
		return dto.RestoredDomain{}, fmt.Errorf("DomainRecordUseCase - Restore: %w", err)
	}

	return restored, nil
}

// Verify reports whether token proves ownership. A wrong token is not an
// error. Deleted records are reported as not found.
func (uc *UseCase) Verify(ctx context.Context, cmd dto.VerifyDomain) (bool, error) {
	var verified bool

	err := uc.execute(ctx, "Verify", true, func(ctx context.Context) error {
		rec, err := uc.load(ctx, cmd.ID, cmd.OwnerID)
		if err != nil {
			return err
		}
		if rec.Deleted {
			return errs.ErrDomainNotFound
		}

		next, events, ok := rec.Verify(cmd.Token, uc.clock.Now())
		verified = ok
		if len(events) == 0 {
			return nil
		}

		return uc.persist(ctx, next, rec.Version, events)
	}, attribute.String("domain_id", cmd.ID.String()))
	if err != nil {
		return false, fmt.Errorf("DomainRecordUseCase - Verify: %w", err)
	}

	return verified, nil
}
