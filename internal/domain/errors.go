package domain

import "errors"

var (
	// ErrInvalidSessionID is returned for empty or malformed session
	// identifiers, before any state access.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrEmptyUtterance is returned for empty or whitespace-only input,
	// before any provider call.
	ErrEmptyUtterance = errors.New("empty utterance")

	// ErrCommitConflict is returned when the per-session commit could not
	// complete because of a concurrent modification. History is left
	// unchanged; the turn is reported as failed.
	ErrCommitConflict = errors.New("session commit conflict")
)
