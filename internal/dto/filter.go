package dto

// RecordFilter narrows owner-scoped listings.
type RecordFilter int

const (
	FilterLive RecordFilter = iota
	FilterVerified
	FilterDeleted
)
