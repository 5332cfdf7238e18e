package domainrecord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/internal/infrastructure"
	"github.com/andreyxaxa/Domain-Service/internal/repo"
	"github.com/andreyxaxa/Domain-Service/pkg/logger"
	"github.com/andreyxaxa/Domain-Service/pkg/tracing"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	_defaultCommandTimeout = 10 * time.Second
	_defaultMaxAttempts    = 3
	_defaultRetryInitial   = 50 * time.Millisecond
	_defaultRetryMax       = time.Second
)

type UseCase struct {
	records    repo.DomainRecordRepo
	outbox     repo.OutboxRepo
	transactor repo.Transactor
	clock      infrastructure.Clock
	tokens     infrastructure.TokenGenerator
	logger     logger.Interface
	tracer     trace.Tracer

	commandTimeout time.Duration
	maxAttempts    uint
	retryInitial   time.Duration
	retryMax       time.Duration
}

func New(
	records repo.DomainRecordRepo,
	outbox repo.OutboxRepo,
	transactor repo.Transactor,
	clock infrastructure.Clock,
	tokens infrastructure.TokenGenerator,
	l logger.Interface,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		records:        records,
		outbox:         outbox,
		transactor:     transactor,
		clock:          clock,
		tokens:         tokens,
		logger:         l,
		tracer:         noop.NewTracerProvider().Tracer("domainrecord"),
		commandTimeout: _defaultCommandTimeout,
		maxAttempts:    _defaultMaxAttempts,
		retryInitial:   _defaultRetryInitial,
		retryMax:       _defaultRetryMax,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// execute runs f under the command timeout, retrying the whole of f on
// retryable errors. With inTx every attempt gets its own transaction.
func (uc *UseCase) execute(ctx context.Context, op string, inTx bool, f func(ctx context.Context) error, attrs ...attribute.KeyValue) (err error) {
	ctx, span := uc.tracer.Start(ctx, "DomainRecordUseCase."+op, trace.WithAttributes(attrs...))
	defer func() { tracing.End(span, err) }()

	if uc.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.commandTimeout)
		defer cancel()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = uc.retryInitial
	b.MaxInterval = uc.retryMax

	attempt := func() (struct{}, error) {
		var err error
		if inTx {
			err = uc.transactor.WithinTransaction(ctx, f)
		} else {
			err = f(ctx)
		}
		if err != nil && !errs.IsRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err = backoff.Retry(ctx, attempt,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uc.maxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			uc.logger.Warn("DomainRecordUseCase - %s - retry in %s: %v", op, next, err)
		}),
	)

	return err
}

// persist writes rec and one outbox entry per event in the caller's
// transaction. expectedVersion 0 inserts a new record.
func (uc *UseCase) persist(ctx context.Context, rec entity.DomainRecord, expectedVersion int64, events []entity.Event) error {
	var err error
	if expectedVersion == 0 {
		err = uc.records.Create(ctx, rec)
	} else {
		err = uc.records.Update(ctx, rec, expectedVersion)
	}
	if err != nil {
		if errors.Is(err, errs.ErrDuplicate) {
			return errs.ErrNameTaken
		}
		return fmt.Errorf("uc.records.Save: %w", err)
	}

	entries := make([]*entity.OutboxEntry, 0, len(events))
	for _, ev := range events {
		entry, err := entity.NewOutboxEntry(uuid.New(), ev)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	err = uc.outbox.CreateBatch(ctx, entries)
	if err != nil {
		return fmt.Errorf("uc.outbox.CreateBatch: %w", err)
	}

	return nil
}

// load returns the record only if ownerID owns it.
func (uc *UseCase) load(ctx context.Context, id uuid.UUID, ownerID string) (entity.DomainRecord, error) {
	rec, err := uc.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return entity.DomainRecord{}, errs.ErrDomainNotFound
		}
		return entity.DomainRecord{}, fmt.Errorf("uc.records.GetByID: %w", err)
	}

	if rec.OwnerID != ownerID {
		return entity.DomainRecord{}, errs.ErrDomainNotFound
	}

	return rec, nil
}

// ensureNameFree fails with ErrNameTaken when a live record other than self
// already uses name.
func (uc *UseCase) ensureNameFree(ctx context.Context, ownerID, name string, self uuid.UUID) error {
	other, err := uc.records.GetByOwnerAndName(ctx, ownerID, name, true)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("uc.records.GetByOwnerAndName: %w", err)
	}

	if other.ID != self {
		return errs.ErrNameTaken
	}

	return nil
}

func (uc *UseCase) newToken() (string, error) {
	token, err := uc.tokens.NewToken()
	if err != nil {
		return "", fmt.Errorf("uc.tokens.NewToken: %w", err)
	}
	return token, nil
}

func validateOwner(ownerID string) error {
	if !entity.ValidOwner(ownerID) {
		return errs.ErrInvalidOwner
	}
	return nil
}
