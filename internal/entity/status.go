package entity

// Status is the delivery state of an outbox entry.
type Status string

const (
	Pending   Status = "pending"
	Delivered Status = "delivered"
	Failed    Status = "failed"
)

// State is the lifecycle state of a domain record.
type State string

const (
	StateActiveUnverified State = "active_unverified"
	StateActiveVerified   State = "active_verified"
	StateDeleted          State = "deleted"
)
