package shared

import "errors"

var (
	// ErrValidation indicates the request payload failed domain validation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates resource not found. A record owned by another
	// store is reported the same way so tenant existence never leaks.
	ErrNotFound = errors.New("not found")
	// ErrStateConflict indicates a mutation against a terminal document state.
	ErrStateConflict = errors.New("state conflict")
)
