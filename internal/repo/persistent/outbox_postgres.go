package persistent

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/postgres"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	// Table
	outboxTable = "domain_outbox"

	// Columns
	outboxIDColumn            = "id"
	outboxAggregateIDColumn   = "aggregate_id"
	outboxEventTypeColumn     = "event_type"
	outboxSequenceColumn      = "sequence"
	outboxPayloadColumn       = "payload"
	outboxStatusColumn        = "status"
	outboxAttemptCountColumn  = "attempt_count"
	outboxLastErrorColumn     = "last_error"
	outboxNextAttemptAtColumn = "next_attempt_at"
	outboxClaimTokenColumn    = "claim_token"
	outboxClaimedUntilColumn  = "claimed_until"
	outboxCreatedAtColumn     = "created_at"
	outboxDeliveredAtColumn   = "delivered_at"
	outboxFinishedAtColumn    = "finished_at"
)

var outboxColumns = []string{
	outboxIDColumn,
	outboxAggregateIDColumn,
	outboxEventTypeColumn,
	outboxSequenceColumn,
	outboxPayloadColumn,
	outboxStatusColumn,
	outboxAttemptCountColumn,
	outboxLastErrorColumn,
	outboxNextAttemptAtColumn,
	outboxCreatedAtColumn,
	outboxDeliveredAtColumn,
	outboxFinishedAtColumn,
}

type OutboxRepo struct {
	*postgres.Postgres
}

func NewOutboxRepo(pg *postgres.Postgres) *OutboxRepo {
	return &OutboxRepo{pg}
}

func (r *OutboxRepo) CreateBatch(ctx context.Context, entries []*entity.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}

	q := r.Builder.
		Insert(outboxTable).
		Columns(
			outboxIDColumn,
			outboxAggregateIDColumn,
			outboxEventTypeColumn,
			outboxSequenceColumn,
			outboxPayloadColumn,
			outboxStatusColumn,
			outboxAttemptCountColumn,
			outboxNextAttemptAtColumn,
			outboxCreatedAtColumn,
		)

	for _, e := range entries {
		q = q.Values(
			e.ID,
			e.AggregateID,
			e.EventType,
			e.Sequence,
			e.Payload,
			e.Status,
			e.AttemptCount,
			e.NextAttemptAt,
			e.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - CreateBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - CreateBatch - executor.Exec: %w", postgres.Classify(err))
	}

	return nil
}

// ClaimPending leases due entries with FOR UPDATE SKIP LOCKED so concurrent
// dispatchers never receive the same row while the lease is live.
func (r *OutboxRepo) ClaimPending(
	ctx context.Context,
	claimToken uuid.UUID,
	limit int,
	ttl time.Duration,
	now time.Time,
) ([]*entity.OutboxEntry, error) {
	subSQL, subArgs, err := squirrel.
		Select(outboxIDColumn).
		From(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.Pending},
			squirrel.LtOrEq{outboxNextAttemptAtColumn: now},
			squirrel.Or{
				squirrel.Eq{outboxClaimedUntilColumn: nil},
				squirrel.Lt{outboxClaimedUntilColumn: now},
			},
		}).
		OrderBy(outboxCreatedAtColumn+" ASC", outboxSequenceColumn+" ASC").
		Limit(uint64(limit)). //nolint:gosec // positive, from config
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - ClaimPending - squirrel.Select.ToSql: %w", err)
	}

	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxClaimTokenColumn, claimToken).
		Set(outboxClaimedUntilColumn, now.Add(ttl)).
		Where(squirrel.Expr(outboxIDColumn+" IN ("+subSQL+")", subArgs...)).
		Suffix("RETURNING " + strings.Join(outboxColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - ClaimPending - r.Builder.ToSql: %w", err)
	}

	entries, err := r.query(ctx, sql, args, limit)
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - ClaimPending: %w", err)
	}

	// RETURNING does not keep the subquery order.
	slices.SortStableFunc(entries, func(a, b *entity.OutboxEntry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.Sequence < b.Sequence:
			return -1
		case a.Sequence > b.Sequence:
			return 1
		default:
			return 0
		}
	})

	return entries, nil
}

func (r *OutboxRepo) MarkDelivered(ctx context.Context, id, claimToken uuid.UUID, now time.Time) error {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, entity.Delivered).
		Set(outboxDeliveredAtColumn, now).
		Set(outboxFinishedAtColumn, now).
		Set(outboxClaimTokenColumn, nil).
		Set(outboxClaimedUntilColumn, nil).
		Where(claimed(id, claimToken)).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkDelivered - r.Builder.ToSql: %w", err)
	}

	return r.execClaimed(ctx, "MarkDelivered", sql, args)
}

func (r *OutboxRepo) MarkRetry(ctx context.Context, id, claimToken uuid.UUID, lastError string, nextAttemptAt time.Time) error {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxAttemptCountColumn, squirrel.Expr(outboxAttemptCountColumn+" + 1")).
		Set(outboxLastErrorColumn, lastError).
		Set(outboxNextAttemptAtColumn, nextAttemptAt).
		Set(outboxClaimTokenColumn, nil).
		Set(outboxClaimedUntilColumn, nil).
		Where(claimed(id, claimToken)).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkRetry - r.Builder.ToSql: %w", err)
	}

	return r.execClaimed(ctx, "MarkRetry", sql, args)
}

func (r *OutboxRepo) MarkFailed(ctx context.Context, id, claimToken uuid.UUID, lastError string, now time.Time) error {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, entity.Failed).
		Set(outboxAttemptCountColumn, squirrel.Expr(outboxAttemptCountColumn+" + 1")).
		Set(outboxLastErrorColumn, lastError).
		Set(outboxFinishedAtColumn, now).
		Set(outboxClaimTokenColumn, nil).
		Set(outboxClaimedUntilColumn, nil).
		Where(claimed(id, claimToken)).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkFailed - r.Builder.ToSql: %w", err)
	}

	return r.execClaimed(ctx, "MarkFailed", sql, args)
}

// MarkMaxAttemptsAsFailed dead-letters unclaimed pending rows that ran out of
// attempts, for example after maxAttempts was lowered.
func (r *OutboxRepo) MarkMaxAttemptsAsFailed(ctx context.Context, maxAttempts int, now time.Time) (int64, error) {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, entity.Failed).
		Set(outboxFinishedAtColumn, now).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.Pending},
			squirrel.GtOrEq{outboxAttemptCountColumn: maxAttempts},
			squirrel.Or{
				squirrel.Eq{outboxClaimedUntilColumn: nil},
				squirrel.Expr(outboxClaimedUntilColumn + " < NOW()"),
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - MarkMaxAttemptsAsFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - MarkMaxAttemptsAsFailed - executor.Exec: %w", postgres.Classify(err))
	}

	return tag.RowsAffected(), nil
}

// ListExpired returns delivered and failed entries that finished before
// olderThan, oldest first.
func (r *OutboxRepo) ListExpired(ctx context.Context, olderThan time.Time, limit int) ([]*entity.OutboxEntry, error) {
	sql, args, err := r.Builder.
		Select(outboxColumns...).
		From(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: []entity.Status{entity.Delivered, entity.Failed}},
			squirrel.Lt{outboxFinishedAtColumn: olderThan},
		}).
		OrderBy(outboxFinishedAtColumn + " ASC").
		Limit(uint64(limit)). //nolint:gosec // positive, from config
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - ListExpired - r.Builder.ToSql: %w", err)
	}

	entries, err := r.query(ctx, sql, args, limit)
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - ListExpired: %w", err)
	}

	return entries, nil
}

func (r *OutboxRepo) DeleteByIDs(ctx context.Context, ids uuid.UUIDs) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	sql, args, err := r.Builder.
		Delete(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxIDColumn: []uuid.UUID(ids)},
			squirrel.Eq{outboxStatusColumn: []entity.Status{entity.Delivered, entity.Failed}},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - DeleteByIDs - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - DeleteByIDs - executor.Exec: %w", postgres.Classify(err))
	}

	return tag.RowsAffected(), nil
}

func (r *OutboxRepo) execClaimed(ctx context.Context, op, sql string, args []any) error {
	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - %s - executor.Exec: %w", op, postgres.Classify(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("OutboxRepo - %s: %w", op, errs.ErrClaimLost)
	}

	return nil
}

func (r *OutboxRepo) query(ctx context.Context, sql string, args []any, capacity int) ([]*entity.OutboxEntry, error) {
	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("executor.Query: %w", postgres.Classify(err))
	}
	defer rows.Close()

	entries := make([]*entity.OutboxEntry, 0, capacity)
	for rows.Next() {
		e, err := scanOutboxEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", postgres.Classify(err))
	}

	return entries, nil
}

func claimed(id, claimToken uuid.UUID) squirrel.And {
	return squirrel.And{
		squirrel.Eq{outboxIDColumn: id},
		squirrel.Eq{outboxClaimTokenColumn: claimToken},
		squirrel.Eq{outboxStatusColumn: entity.Pending},
	}
}

func scanOutboxEntry(row pgx.Row) (*entity.OutboxEntry, error) {
	var e entity.OutboxEntry

	err := row.Scan(
		&e.ID,
		&e.AggregateID,
		&e.EventType,
		&e.Sequence,
		&e.Payload,
		&e.Status,
		&e.AttemptCount,
		&e.LastError,
		&e.NextAttemptAt,
		&e.CreatedAt,
		&e.DeliveredAt,
		&e.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	return &e, nil
}
