package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCreated  EventType = "domain.created"
	EventRenamed  EventType = "domain.renamed"
	EventDeleted  EventType = "domain.deleted"
	EventRestored EventType = "domain.restored"
	EventVerified EventType = "domain.verified"
)

func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventRenamed, EventDeleted, EventRestored, EventVerified:
		return true
	default:
		return false
	}
}

// EventBody is the kind-specific part of a domain event.
type EventBody interface {
	EventType() EventType
}

// Event is a fact produced by a DomainRecord mutation. Sequence is the record
// version the mutation produced, so (AggregateID, Type, Sequence) identifies
// the event for consumers.
type Event struct {
	AggregateID uuid.UUID
	Sequence    int64
	OccurredAt  time.Time
	Body        EventBody
}

func (e Event) Type() EventType {
	return e.Body.EventType()
}

type CreatedEvent struct {
	Name    string `json:"domain_name"`
	OwnerID string `json:"user_id"`
}

func (CreatedEvent) EventType() EventType { return EventCreated }

type RenamedEvent struct {
	OldName string `json:"old_domain_name"`
	NewName string `json:"domain_name"`
	OwnerID string `json:"user_id"`
}

func (RenamedEvent) EventType() EventType { return EventRenamed }

type DeletedEvent struct {
	Name    string `json:"domain_name"`
	OwnerID string `json:"user_id"`
}

func (DeletedEvent) EventType() EventType { return EventDeleted }

type RestoredEvent struct {
	Name    string `json:"domain_name"`
	OwnerID string `json:"user_id"`
}

func (RestoredEvent) EventType() EventType { return EventRestored }

type VerifiedEvent struct {
	Name    string `json:"domain_name"`
	OwnerID string `json:"user_id"`
}

func (VerifiedEvent) EventType() EventType { return EventVerified }
