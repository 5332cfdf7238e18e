package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/kafka/consumer"
	"github.com/segmentio/kafka-go"
)

// DomainEvent is a fetched message together with its decoded envelope. Err
// is set when the message is not a domain event; such a message is still
// committed so the group moves past it.
type DomainEvent struct {
	Message  kafka.Message
	Envelope entity.Envelope
	Err      error
}

func NewDomainEvent(msg kafka.Message) DomainEvent {
	env, err := DecodeMessage(msg)
	if err != nil {
		err = fmt.Errorf("partition %d offset %d: %w", msg.Partition, msg.Offset, err)
	}

	return DomainEvent{Message: msg, Envelope: env, Err: err}
}

// EventConsumer reads domain events from the consumer group. Offsets are
// committed explicitly with CommitEvent.
type EventConsumer struct {
	*consumer.Consumer
}

func NewEventConsumer(consumer *consumer.Consumer) *EventConsumer {
	return &EventConsumer{consumer}
}

// ReadEvent only fails when fetching fails. Undecodable messages come back
// as events with Err set.
func (ec *EventConsumer) ReadEvent(ctx context.Context) (DomainEvent, error) {
	msg, err := ec.Reader.FetchMessage(ctx)
	if err != nil {
		return DomainEvent{}, fmt.Errorf("EventConsumer - ReadEvent - ec.Reader.FetchMessage: %w", err)
	}

	return NewDomainEvent(msg), nil
}

func (ec *EventConsumer) CommitEvent(ctx context.Context, event DomainEvent) error {
	err := ec.Reader.CommitMessages(ctx, event.Message)
	if err != nil {
		return fmt.Errorf("EventConsumer - CommitEvent - ec.Reader.CommitMessages: %w", err)
	}

	return nil
}

func (ec *EventConsumer) Close() error {
	err := ec.Consumer.Close()
	if err != nil {
		return fmt.Errorf("EventConsumer - Close: %w", err)
	}

	return nil
}
