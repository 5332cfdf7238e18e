package infrastructure

import (
	"context"
	"time"

	"github.com/andreyxaxa/Domain-Service/internal/entity"
)

type (
	// EventPublisher hands one envelope to the broker. A nil error means the
	// broker acknowledged it.
	EventPublisher interface {
		Publish(ctx context.Context, topic string, env entity.Envelope) error
		Close() error
	}

	Clock interface {
		Now() time.Time
	}

	TokenGenerator interface {
		NewToken() (string, error)
	}
)
