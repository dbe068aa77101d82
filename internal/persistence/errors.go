package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique key (id, email, provider/date) already exists.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrSlotUnavailable is returned when a booking commit finds its slot closed or taken.
	ErrSlotUnavailable = errors.New("persistence: slot unavailable")
)
