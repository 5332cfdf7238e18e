package outbox

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/andreyxaxa/Domain-Service/internal/repo"
)

type Option func(*UseCase)

func Topic(topic string) Option {
	return func(uc *UseCase) {
		uc.topic = topic
	}
}

// BatchSize is how many entries one dispatch pass claims.
func BatchSize(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.batchSize = n
		}
	}
}

// MaxAttempts is the number of failed publishes after which an entry is
// marked failed for good.
func MaxAttempts(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.maxAttempts = n
		}
	}
}

// ClaimTTL is how long a claimed entry stays invisible to other dispatchers.
func ClaimTTL(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.claimTTL = d
	}
}

func PublishTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.publishTimeout = d
	}
}

func Backoff(initial, maxDelay time.Duration) Option {
	return func(uc *UseCase) {
		uc.backoffInitial = initial
		uc.backoffMax = maxDelay
	}
}

// Retention is how long delivered and failed entries are kept before cleanup.
func Retention(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.retention = d
	}
}

func CleanupBatchSize(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.cleanupBatchSize = n
		}
	}
}

// Archive stores expired entries before they are deleted. Without it cleanup
// only deletes.
func Archive(a repo.OutboxArchiveRepo) Option {
	return func(uc *UseCase) {
		uc.archive = a
	}
}

func Tracer(t trace.Tracer) Option {
	return func(uc *UseCase) {
		uc.tracer = t
	}
}
