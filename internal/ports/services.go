package ports

import (
	"context"

	"github.com/seu-repo/conversia/internal/domain"
)

// ConversationService orchestrates one conversational turn: resolve session,
// validate input, classify, generate, commit.
type ConversationService interface {
	// HandleTurn runs a full turn for the given session. Validation errors
	// (ErrInvalidSessionID, ErrEmptyUtterance) and commit conflicts
	// (ErrCommitConflict) surface to the caller; provider failures are
	// absorbed and yield a degraded intent/reply instead.
	HandleTurn(ctx context.Context, sessionID, utterance string) (*domain.TurnResult, error)

	// ClearSession removes all conversational state for the session.
	// Clearing an unknown session is a no-op.
	ClearSession(ctx context.Context, sessionID string) error

	// GetHistory returns the full committed history for audit purposes.
	GetHistory(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

// IntentClassifier maps an utterance plus a bounded history window to exactly
// one intent label. Classification failures are recoverable: implementations
// fall back to IntentOther rather than failing the turn.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string, history []domain.Turn) (domain.IntentResult, error)
}

// ResponseGenerator produces reply text whose tone is selected by intent.
// Implementations must always return a non-empty reply; on provider failure
// they return a fixed intent-appropriate fallback.
type ResponseGenerator interface {
	Generate(ctx context.Context, intent domain.Intent, utterance string, history []domain.Turn) (string, error)
}

// TranscriptionService converts audio to text. Consumed upstream of the
// conversation core; the core itself never sees audio.
type TranscriptionService interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// SynthesisService converts reply text to audio. Consumed downstream of the
// conversation core.
type SynthesisService interface {
	Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error)
}
