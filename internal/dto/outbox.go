package dto

// DispatchStats summarises one dispatcher pass.
type DispatchStats struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
}
