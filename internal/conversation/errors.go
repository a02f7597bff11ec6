package conversation

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for the id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptyMessage is returned when a turn arrives with no text.
	ErrEmptyMessage = errors.New("message cannot be empty")
)
