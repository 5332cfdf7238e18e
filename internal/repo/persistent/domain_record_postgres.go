package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Domain-Service/internal/dto"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/postgres"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	domainRecordsTable = "domain_records"

	// Columns
	idColumn                = "id"
	nameColumn              = "name"
	ownerIDColumn           = "owner_id"
	verificationTokenColumn = "verification_token"
	verifiedColumn          = "verified"
	deletedColumn           = "deleted"
	createdAtColumn         = "created_at"
	updatedAtColumn         = "updated_at"
	versionColumn           = "version"
)

var domainRecordColumns = []string{
	idColumn,
	nameColumn,
	ownerIDColumn,
	verificationTokenColumn,
	verifiedColumn,
	deletedColumn,
	createdAtColumn,
	updatedAtColumn,
	versionColumn,
}

type DomainRecordRepo struct {
	*postgres.Postgres
}

func NewDomainRecordRepo(pg *postgres.Postgres) *DomainRecordRepo {
	return &DomainRecordRepo{pg}
}

func (r *DomainRecordRepo) Create(ctx context.Context, rec entity.DomainRecord) error {
	sql, args, err := r.Builder.
		Insert(domainRecordsTable).
		Columns(domainRecordColumns...).
		Values(
			rec.ID,
			rec.Name,
			rec.OwnerID,
			rec.VerificationToken,
			rec.Verified,
			rec.Deleted,
			rec.CreatedAt,
			rec.UpdatedAt,
			rec.Version,
		).ToSql()
	if err != nil {
		return fmt.Errorf("DomainRecordRepo - Create - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("DomainRecordRepo - Create: %w", errs.ErrDuplicate)
		}
		return fmt.Errorf("DomainRecordRepo - Create - executor.Exec: %w", postgres.Classify(err))
	}

	return nil
}

func (r *DomainRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (entity.DomainRecord, error) {
	sql, args, err := r.Builder.
		Select(domainRecordColumns...).
		From(domainRecordsTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return entity.DomainRecord{}, fmt.Errorf("DomainRecordRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	rec, err := scanDomainRecord(r.GetExecutor(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return entity.DomainRecord{}, fmt.Errorf("DomainRecordRepo - GetByID: %w", err)
	}

	return rec, nil
}

func (r *DomainRecordRepo) GetByOwnerAndName(ctx context.Context, ownerID, name string, excludeDeleted bool) (entity.DomainRecord, error) {
	where := squirrel.And{
		squirrel.Eq{ownerIDColumn: ownerID},
		squirrel.Eq{nameColumn: name},
	}
	if excludeDeleted {
		where = append(where, squirrel.Eq{deletedColumn: false})
	}

	sql, args, err := r.Builder.
		Select(domainRecordColumns...).
		From(domainRecordsTable).
		Where(where).
		OrderBy(deletedColumn + " ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return entity.DomainRecord{}, fmt.Errorf("DomainRecordRepo - GetByOwnerAndName - r.Builder.ToSql: %w", err)
	}

	rec, err := scanDomainRecord(r.GetExecutor(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		return entity.DomainRecord{}, fmt.Errorf("DomainRecordRepo - GetByOwnerAndName: %w", err)
	}

	return rec, nil
}

func (r *DomainRecordRepo) ListByOwner(ctx context.Context, ownerID string, filter dto.RecordFilter, page dto.Page) ([]entity.DomainRecord, error) {
	q := r.Builder.
		Select(domainRecordColumns...).
		From(domainRecordsTable).
		Where(ownerFilter(ownerID, filter))

	if filter == dto.FilterDeleted {
		q = q.OrderBy(updatedAtColumn+" DESC NULLS LAST", idColumn)
	} else {
		q = q.OrderBy(nameColumn+" ASC", idColumn)
	}
	if page.Take > 0 {
		q = q.Limit(uint64(page.Take)).Offset(uint64(page.Skip)) //nolint:gosec // normalised by caller
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("DomainRecordRepo - ListByOwner - r.Builder.ToSql: %w", err)
	}

	rows, err := r.GetExecutor(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("DomainRecordRepo - ListByOwner - executor.Query: %w", postgres.Classify(err))
	}
	defer rows.Close()

	records := make([]entity.DomainRecord, 0, page.Take)
	for rows.Next() {
		rec, err := scanDomainRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("DomainRecordRepo - ListByOwner - rows.Scan: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DomainRecordRepo - ListByOwner - rows.Err: %w", postgres.Classify(err))
	}

	return records, nil
}

func (r *DomainRecordRepo) CountByOwner(ctx context.Context, ownerID string, filter dto.RecordFilter) (int64, error) {
	sql, args, err := r.Builder.
		Select("COUNT(*)").
		From(domainRecordsTable).
		Where(ownerFilter(ownerID, filter)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("DomainRecordRepo - CountByOwner - r.Builder.ToSql: %w", err)
	}

	var count int64
	err = r.GetExecutor(ctx).QueryRow(ctx, sql, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("DomainRecordRepo - CountByOwner - executor.QueryRow.Scan: %w", postgres.Classify(err))
	}

	return count, nil
}

func (r *DomainRecordRepo) Update(ctx context.Context, rec entity.DomainRecord, expectedVersion int64) error {
	sql, args, err := r.Builder.
		Update(domainRecordsTable).
		Set(nameColumn, rec.Name).
		Set(verificationTokenColumn, rec.VerificationToken).
		Set(verifiedColumn, rec.Verified).
		Set(deletedColumn, rec.Deleted).
		Set(updatedAtColumn, rec.UpdatedAt).
		Set(versionColumn, rec.Version).
		Where(squirrel.And{
			squirrel.Eq{idColumn: rec.ID},
			squirrel.Eq{versionColumn: expectedVersion},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("DomainRecordRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("DomainRecordRepo - Update: %w", errs.ErrDuplicate)
		}
		return fmt.Errorf("DomainRecordRepo - Update - executor.Exec: %w", postgres.Classify(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DomainRecordRepo - Update: %w", errs.ErrConcurrentUpdate)
	}

	return nil
}

func ownerFilter(ownerID string, filter dto.RecordFilter) squirrel.And {
	where := squirrel.And{squirrel.Eq{ownerIDColumn: ownerID}}

	switch filter {
	case dto.FilterVerified:
		where = append(where, squirrel.Eq{deletedColumn: false}, squirrel.Eq{verifiedColumn: true})
	case dto.FilterDeleted:
		where = append(where, squirrel.Eq{deletedColumn: true})
	default:
		where = append(where, squirrel.Eq{deletedColumn: false})
	}

	return where
}

func scanDomainRecord(row pgx.Row) (entity.DomainRecord, error) {
	var rec entity.DomainRecord

	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.OwnerID,
		&rec.VerificationToken,
		&rec.Verified,
		&rec.Deleted,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.DomainRecord{}, errs.ErrRecordNotFound
		}
		return entity.DomainRecord{}, postgres.Classify(err)
	}

	return rec, nil
}
