package domainrecord

import (
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Option func(*UseCase)

// CommandTimeout bounds one command including its retries.
func CommandTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.commandTimeout = d
	}
}

// MaxAttempts caps how many times a command runs on retryable errors.
func MaxAttempts(n uint) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.maxAttempts = n
		}
	}
}

func RetryInterval(initial, maxInterval time.Duration) Option {
	return func(uc *UseCase) {
		uc.retryInitial = initial
		uc.retryMax = maxInterval
	}
}

func Tracer(t trace.Tracer) Option {
	return func(uc *UseCase) {
		uc.tracer = t
	}
}
