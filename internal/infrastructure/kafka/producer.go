package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/kafka/producer"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID          = "event_id"
	HeaderEventType        = "event_type"
	HeaderProducerSequence = "producer_sequence"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher writes envelopes keyed by aggregate id, so the hash balancer
// keeps one aggregate on one partition.
type EventPublisher struct {
	writer messageWriter
}

func NewEventPublisher(p *producer.Producer) *EventPublisher {
	return &EventPublisher{writer: p.Writer}
}

func (ep *EventPublisher) Publish(ctx context.Context, topic string, env entity.Envelope) error {
	msg, err := NewMessage(topic, env)
	if err != nil {
		return fmt.Errorf("EventPublisher - Publish - NewMessage: %w", err)
	}

	err = ep.writer.WriteMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("EventPublisher - Publish - ep.writer.WriteMessages: %w", errs.Unavailable(err))
	}

	return nil
}

func (ep *EventPublisher) Close() error {
	err := ep.writer.Close()
	if err != nil {
		return fmt.Errorf("EventPublisher - Close: %w", err)
	}

	return nil
}

func NewMessage(topic string, env entity.Envelope) (kafka.Message, error) {
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("json.Marshal: %w", err)
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(env.AggregateID.String()),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(env.EventID.String())},
			{Key: HeaderEventType, Value: []byte(env.EventType)},
			{Key: HeaderProducerSequence, Value: []byte(strconv.FormatInt(env.ProducerSequence, 10))},
		},
	}, nil
}

// DecodeMessage is the consumer side of NewMessage.
func DecodeMessage(msg kafka.Message) (entity.Envelope, error) {
	var env entity.Envelope

	err := json.Unmarshal(msg.Value, &env)
	if err != nil {
		return entity.Envelope{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	if !env.EventType.Valid() {
		return entity.Envelope{}, fmt.Errorf("%w: %q", errs.ErrUnknownEventType, env.EventType)
	}

	return env, nil
}
