package domain

import "time"

// TurnCommittedEvent is published after a turn is appended to history.
type TurnCommittedEvent struct {
	SessionID  string    `json:"session_id"`
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// SessionClearedEvent is published when a session's state is removed.
type SessionClearedEvent struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}
