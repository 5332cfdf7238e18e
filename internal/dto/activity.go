package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityItem is one consumed event as shown in a record's activity feed.
type ActivityItem struct {
	EventID          uuid.UUID       `json:"event_id"`
	EventType        string          `json:"event_type"`
	ProducerSequence int64           `json:"producer_sequence"`
	OccurredAt       time.Time       `json:"occurred_at"`
	ReceivedAt       time.Time       `json:"received_at"`
	Payload          json.RawMessage `json:"payload"`
}
