package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreyxaxa/Domain-Service/internal/entity"
	"github.com/andreyxaxa/Domain-Service/pkg/types/errs"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func envelope() entity.Envelope {
	return entity.Envelope{
		EventID:          uuid.New(),
		EventType:        entity.EventVerified,
		AggregateID:      uuid.New(),
		Payload:          json.RawMessage(`{"domain_name":"example.com","user_id":"u1"}`),
		OccurredAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ProducerSequence: 3,
	}
}

func TestEventPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &EventPublisher{writer: w}
	env := envelope()

	require.NoError(t, p.Publish(context.Background(), "domain-events", env))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "domain-events", msg.Topic)
	assert.Equal(t, env.AggregateID.String(), string(msg.Key))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, env.EventID.String(), headers[HeaderEventID])
	assert.Equal(t, "domain.verified", headers[HeaderEventType])
	assert.Equal(t, "3", headers[HeaderProducerSequence])

	decoded, err := DecodeMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, env.DedupKey(), decoded.DedupKey())
	assert.JSONEq(t, string(env.Payload), string(decoded.Payload))
}

func TestEventPublisher_PublishFailureIsRetryable(t *testing.T) {
	p := &EventPublisher{writer: &fakeWriter{err: errors.New("leader not available")}}

	err := p.Publish(context.Background(), "domain-events", envelope())
	require.Error(t, err)
	assert.True(t, errs.IsRetryable(err))
}

func TestDecodeMessage_UnknownType(t *testing.T) {
	_, err := DecodeMessage(kafka.Message{Value: []byte(`{"event_type":"domain.exploded"}`)})
	require.ErrorIs(t, err, errs.ErrUnknownEventType)

	_, err = DecodeMessage(kafka.Message{Value: []byte(`not json`)})
	require.Error(t, err)
}
