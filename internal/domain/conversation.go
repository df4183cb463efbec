package domain

import (
	"time"
)

// Intent is the closed set of categories an utterance can be classified into.
type Intent string

const (
	IntentQuestion  Intent = "question"
	IntentComplaint Intent = "complaint"
	IntentOther     Intent = "other"
)

// Valid reports whether the intent is one of the known labels.
func (i Intent) Valid() bool {
	switch i {
	case IntentQuestion, IntentComplaint, IntentOther:
		return true
	}
	return false
}

// Turn is one utterance/intent/reply triple in a session's history.
// Turns are immutable once committed.
type Turn struct {
	Utterance  string    `json:"utterance"`
	Intent     Intent    `json:"intent"`
	Reply      string    `json:"reply"`
	Confidence float64   `json:"confidence,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is the conversational state for one interaction sequence,
// keyed by an opaque identifier. State is ephemeral: it lives only for
// the lifetime of the process (or the backing store).
type Session struct {
	ID        string    `json:"id"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IntentResult is the outcome of a classification call. Confidence and
// reasoning are surfaced for observability only and never gate behavior.
type IntentResult struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// TurnResult is what a completed conversational turn returns to the caller.
type TurnResult struct {
	SessionID  string  `json:"session_id"`
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reply      string  `json:"reply"`
}
