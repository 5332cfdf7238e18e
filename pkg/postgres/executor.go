package postgres

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct{}

type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (p *Postgres) GetExecutor(ctx context.Context) Executor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return p.Pool
}

// WithinTransaction runs f with a transaction stored in ctx. Every repository
// call made through GetExecutor(ctx) inside f joins it. The transaction is
// committed only when f returns nil; any error, including ctx cancellation,
// rolls everything back. A call nested in an open transaction reuses it.
func (p *Postgres) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return f(ctx)
	}

	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("Postgres - WithinTransaction - p.Pool.Begin: %w", Classify(err))
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(r)
		}
	}()

	err = f(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))

		return fmt.Errorf("Postgres - WithinTransaction: %w", err)
	}

	if err = ctx.Err(); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))

		return fmt.Errorf("Postgres - WithinTransaction - ctx.Err: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		if pgconn.SafeToRetry(err) {
			return fmt.Errorf("Postgres - WithinTransaction - tx.Commit: %w", Classify(err))
		}

		return fmt.Errorf("Postgres - WithinTransaction - tx.Commit: %w: %v", errs.ErrCommitUnknown, err)
	}

	return nil
}
