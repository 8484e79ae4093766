package queue

import "errors"

var (
	// ErrNotFound indicates the referenced item does not exist.
	ErrNotFound = errors.New("queue item not found")
	// ErrInvalidMode indicates an unrecognized execution mode value.
	ErrInvalidMode = errors.New("invalid execution mode")
)
