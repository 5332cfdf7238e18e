package errs

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds surfaced to the transport layer.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
	ErrInternal        = errors.New("internal")
)

// Persistence-level errors; each wraps the kind it is reported as.
var (
	ErrRecordNotFound   = fmt.Errorf("record not found: %w", ErrNotFound)
	ErrDuplicate        = fmt.Errorf("duplicate record: %w", ErrConflict)
	ErrConcurrentUpdate = fmt.Errorf("record was modified concurrently: %w", ErrUnavailable)
	ErrClaimLost        = errors.New("outbox claim lost")

	// ErrCommitUnknown means the commit request was sent but no answer came
	// back, so the transaction may have been applied. It is never retried.
	ErrCommitUnknown = fmt.Errorf("transaction commit outcome unknown: %w", ErrInternal)
)

// Domain rule violations.
var (
	ErrInvalidName      = fmt.Errorf("invalid domain name: %w", ErrInvalidArgument)
	ErrInvalidOwner     = fmt.Errorf("invalid owner: %w", ErrInvalidArgument)
	ErrInvalidToken     = fmt.Errorf("invalid verification token: %w", ErrInvalidArgument)
	ErrNameTaken        = fmt.Errorf("domain name already exists for this user: %w", ErrConflict)
	ErrAlreadyDeleted   = fmt.Errorf("domain is already deleted: %w", ErrConflict)
	ErrNotDeleted       = fmt.Errorf("domain is not deleted: %w", ErrConflict)
	ErrDomainNotFound   = fmt.Errorf("domain not found or access denied: %w", ErrNotFound)
	ErrUnknownEventType = fmt.Errorf("unknown event type: %w", ErrInvalidArgument)
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
	KindConflict
	KindUnavailable
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	case KindCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// KindOf classifies err. Anything unrecognised is internal. A canceled
// context means the caller went away, even when the driver reported it as a
// transient failure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrCommitUnknown):
		return KindInternal
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return KindUnavailable
	default:
		return KindInternal
	}
}

// IsRetryable reports whether the whole operation may be attempted again.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == KindUnavailable
}

// Unavailable marks err as a transient infrastructure failure.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
