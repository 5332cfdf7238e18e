package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutboxEntry is one event waiting for, or done with, broker delivery. Its
// payload is written once with the aggregate change and never modified; the
// dispatcher only moves the delivery fields.
type OutboxEntry struct {
	ID            uuid.UUID  `json:"id"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	EventType     EventType  `json:"event_type"`
	Sequence      int64      `json:"producer_sequence"`
	Payload       []byte     `json:"payload"`
	Status        Status     `json:"status"` // pending, delivered, failed
	AttemptCount  int        `json:"attempt_count"`
	LastError     *string    `json:"last_error,omitempty"`
	NextAttemptAt time.Time  `json:"next_attempt_at"`
	CreatedAt     time.Time  `json:"created_at"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"` // when it became delivered or failed
}

// NewOutboxEntry serialises ev into a pending entry.
func NewOutboxEntry(id uuid.UUID, ev Event) (*OutboxEntry, error) {
	payload, err := json.Marshal(ev.Body)
	if err != nil {
		return nil, fmt.Errorf("entity - NewOutboxEntry - json.Marshal: %w", err)
	}

	return &OutboxEntry{
		ID:            id,
		AggregateID:   ev.AggregateID,
		EventType:     ev.Type(),
		Sequence:      ev.Sequence,
		Payload:       payload,
		Status:        Pending,
		NextAttemptAt: ev.OccurredAt,
		CreatedAt:     ev.OccurredAt,
	}, nil
}

func (e *OutboxEntry) Envelope() Envelope {
	return Envelope{
		EventID:          e.ID,
		EventType:        e.EventType,
		AggregateID:      e.AggregateID,
		Payload:          json.RawMessage(e.Payload),
		OccurredAt:       e.CreatedAt.UTC(),
		ProducerSequence: e.Sequence,
	}
}

// Envelope is what goes on the wire.
type Envelope struct {
	EventID          uuid.UUID       `json:"event_id"`
	EventType        EventType       `json:"event_type"`
	AggregateID      uuid.UUID       `json:"aggregate_id"`
	Payload          json.RawMessage `json:"payload"`
	OccurredAt       time.Time       `json:"occurred_at"`
	ProducerSequence int64           `json:"producer_sequence"`
}

// DedupKey identifies the logical event regardless of how many times it was
// published.
func (e Envelope) DedupKey() string {
	return fmt.Sprintf("%s:%s:%d", e.AggregateID, e.EventType, e.ProducerSequence)
}
