package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sony/gobreaker"

	"github.com/seu-repo/conversia/internal/adapter/queue"
	"github.com/seu-repo/conversia/internal/domain"
	"github.com/seu-repo/conversia/internal/mocks"
	"github.com/seu-repo/conversia/internal/ports"
	"github.com/seu-repo/conversia/internal/service/intent"
	"github.com/seu-repo/conversia/internal/service/response"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func questionClassifier() *mocks.MockIntentClassifier {
	return &mocks.MockIntentClassifier{
		ClassifyFunc: func(ctx context.Context, utterance string, history []domain.Turn) (domain.IntentResult, error) {
			return domain.IntentResult{Intent: domain.IntentQuestion, Confidence: 0.9}, nil
		},
	}
}

func echoGenerator() *mocks.MockResponseGenerator {
	return &mocks.MockResponseGenerator{
		GenerateFunc: func(ctx context.Context, intent domain.Intent, utterance string, history []domain.Turn) (string, error) {
			return "reply to: " + utterance, nil
		},
	}
}

func TestHandleTurn_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := mocks.NewMockSessionStore()
	mq := mocks.NewMockMessageQueue()

	service := NewService(store, questionClassifier(), echoGenerator(), mq, 6, newTestLogger())

	// Act
	result, err := service.HandleTurn(ctx, "session-1", "What are your hours?")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.SessionID != "session-1" {
		t.Errorf("expected session 'session-1', got '%s'", result.SessionID)
	}
	if result.Intent != domain.IntentQuestion {
		t.Errorf("expected intent question, got '%s'", result.Intent)
	}
	if result.Reply != "reply to: What are your hours?" {
		t.Errorf("unexpected reply: %s", result.Reply)
	}

	turns := store.Turns("session-1")
	if len(turns) != 1 {
		t.Fatalf("expected 1 committed turn, got %d", len(turns))
	}
	if turns[0].Utterance != "What are your hours?" {
		t.Errorf("unexpected committed utterance: %s", turns[0].Utterance)
	}
	if turns[0].Reply != result.Reply {
		t.Errorf("committed reply differs from returned reply")
	}

	// Event published after commit
	messages := mq.GetPublishedMessages(queue.SubjectTurnCommitted)
	if len(messages) != 1 {
		t.Fatalf("expected 1 turn event, got %d", len(messages))
	}
	var event domain.TurnCommittedEvent
	if err := json.Unmarshal(messages[0], &event); err != nil {
		t.Fatalf("invalid event payload: %v", err)
	}
	if event.SessionID != "session-1" || event.Intent != domain.IntentQuestion {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestHandleTurn_EmptyUtterance_NothingCommitted(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := mocks.NewMockSessionStore()

	classifier := &mocks.MockIntentClassifier{
		ClassifyFunc: func(ctx context.Context, utterance string, history []domain.Turn) (domain.IntentResult, error) {
			t.Error("classifier should not be called for empty utterance")
			return domain.IntentResult{}, nil
		},
	}

	service := NewService(store, classifier, echoGenerator(), nil, 6, newTestLogger())

	// Act
	_, err := service.HandleTurn(ctx, "session-1", "   \t  ")

	// Assert
	if !errors.Is(err, domain.ErrEmptyUtterance) {
		t.Fatalf("expected ErrEmptyUtterance, got %v", err)
	}
	if len(store.Turns("session-1")) != 0 {
		t.Error("expected no committed turns")
	}
}

func TestHandleTurn_InvalidSessionID(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := mocks.NewMockSessionStore()
	service := NewService(store, questionClassifier(), echoGenerator(), nil, 6, newTestLogger())

	// Act
	_, err := service.HandleTurn(ctx, "bad\nid", "hello")

	// Assert
	if !errors.Is(err, domain.ErrInvalidSessionID) {
		t.Fatalf("expected ErrInvalidSessionID, got %v", err)
	}
}

func TestHandleTurn_DegradedClassification_StillCommits(t *testing.T) {
	// Arrange: classifier absorbed a provider failure and fell back to other.
	ctx := context.Background()
	store := mocks.NewMockSessionStore()

	classifier := &mocks.MockIntentClassifier{
		ClassifyFunc: func(ctx context.Context, utterance string, history []domain.Turn) (domain.IntentResult, error) {
			return domain.IntentResult{Intent: domain.IntentOther, Confidence: 0, Reasoning: "classification error"}, nil
		},
	}
	generator := &mocks.MockResponseGenerator{
		GenerateFunc: func(ctx context.Context, intent domain.Intent, utterance string, history []domain.Turn) (string, error) {
			return "I didn't quite catch that. Could you say it again?", nil
		},
	}

	service := NewService(store, classifier, generator, nil, 6, newTestLogger())

	// Act
	result, err := service.HandleTurn(ctx, "session-1", "mumble")

	// Assert: the turn completes and commits despite the degraded pipeline.
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Intent != domain.IntentOther {
		t.Errorf("expected intent other, got '%s'", result.Intent)
	}
	if result.Reply == "" {
		t.Error("expected non-empty fallback reply")
	}
	if len(store.Turns("session-1")) != 1 {
		t.Error("expected degraded turn to be committed")
	}
}

func TestHandleTurn_BreakerOpen_TurnStillCommits(t *testing.T) {
	// Arrange: every provider call is shed by an open circuit breaker. Uses
	// the real classifier and generator so the whole degradation path runs.
	ctx := context.Background()
	store := mocks.NewMockSessionStore()
	provider := &mocks.MockChatProvider{
		CompleteFunc: func(ctx context.Context, req ports.ChatRequest) (string, error) {
			return "", gobreaker.ErrOpenState
		},
	}
	classifier := intent.NewClassifier(provider, 6, 0, newTestLogger())
	generator := response.NewGenerator(provider, 6, 0, newTestLogger())

	service := NewService(store, classifier, generator, nil, 6, newTestLogger())

	// Act
	result, err := service.HandleTurn(ctx, "session-1", "hello?")

	// Assert: degraded but committed.
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Intent != domain.IntentOther {
		t.Errorf("expected intent other, got '%s'", result.Intent)
	}
	if result.Reply != response.Fallback(domain.IntentOther) {
		t.Errorf("expected the canned fallback reply, got %q", result.Reply)
	}
	if len(store.Turns("session-1")) != 1 {
		t.Error("expected the degraded turn to be committed")
	}
}

func TestHandleTurn_CommitConflict_Surfaces(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := mocks.NewMockSessionStore()
	store.AppendFunc = func(ctx context.Context, id string, turn domain.Turn) error {
		return domain.ErrCommitConflict
	}
	mq := mocks.NewMockMessageQueue()

	service := NewService(store, questionClassifier(), echoGenerator(), mq, 6, newTestLogger())

	// Act
	_, err := service.HandleTurn(ctx, "session-1", "hello")

	// Assert
	if !errors.Is(err, domain.ErrCommitConflict) {
		t.Fatalf("expected ErrCommitConflict, got %v", err)
	}
	if len(mq.GetPublishedMessages(queue.SubjectTurnCommitted)) != 0 {
		t.Error("no event should be published for a failed commit")
	}
}

func TestHandleTurn_BoundedWindowPassedToProviders(t *testing.T) {
	// Arrange: 10 committed turns, window of 3.
	ctx := context.Background()
	store := mocks.NewMockSessionStore()
	for i := 0; i < 10; i++ {
		store.Append(ctx, "session-1", domain.Turn{
			Utterance: "u",
			Intent:    domain.IntentOther,
			Reply:     "r",
		})
	}

	var classifierWindow, generatorWindow int
	classifier := &mocks.MockIntentClassifier{
		ClassifyFunc: func(ctx context.Context, utterance string, history []domain.Turn) (domain.IntentResult, error) {
			classifierWindow = len(history)
			return domain.IntentResult{Intent: domain.IntentOther}, nil
		},
	}
	generator := &mocks.MockResponseGenerator{
		GenerateFunc: func(ctx context.Context, intent domain.Intent, utterance string, history []domain.Turn) (string, error) {
			generatorWindow = len(history)
			return "ok", nil
		},
	}

	service := NewService(store, classifier, generator, nil, 3, newTestLogger())

	// Act
	if _, err := service.HandleTurn(ctx, "session-1", "hello"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert
	if classifierWindow != 3 {
		t.Errorf("expected classifier window 3, got %d", classifierWindow)
	}
	if generatorWindow != 3 {
		t.Errorf("expected generator window 3, got %d", generatorWindow)
	}

	// Full log keeps growing past the window.
	if len(store.Turns("session-1")) != 11 {
		t.Errorf("expected 11 committed turns, got %d", len(store.Turns("session-1")))
	}
}

func TestHandleTurn_ComplaintContextCarriesOver(t *testing.T) {
	// Arrange: a billing complaint, a follow-up that only makes sense with
	// context, then an unrelated question. The classifier sees the prior
	// turns and the generator keeps the thread.
	ctx := context.Background()
	store := mocks.NewMockSessionStore()

	classifier := &mocks.MockIntentClassifier{
		ClassifyFunc: func(ctx context.Context, utterance string, history []domain.Turn) (domain.IntentResult, error) {
			switch {
			case strings.Contains(utterance, "charged twice"):
				return domain.IntentResult{Intent: domain.IntentComplaint, Confidence: 0.95}, nil
			case strings.Contains(utterance, "still not resolved"):
				// Short follow-up disambiguated by prior complaint.
				if len(history) == 0 {
					t.Error("expected history context for follow-up")
				}
				return domain.IntentResult{Intent: domain.IntentComplaint, Confidence: 0.8}, nil
			default:
				return domain.IntentResult{Intent: domain.IntentQuestion, Confidence: 0.9}, nil
			}
		},
	}

	service := NewService(store, classifier, echoGenerator(), nil, 6, newTestLogger())

	// Act
	r1, err := service.HandleTurn(ctx, "s", "I was charged twice on my bill")
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	r2, err := service.HandleTurn(ctx, "s", "It's still not resolved")
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	r3, err := service.HandleTurn(ctx, "s", "What are your support hours?")
	if err != nil {
		t.Fatalf("turn 3: %v", err)
	}

	// Assert
	if r1.Intent != domain.IntentComplaint || r2.Intent != domain.IntentComplaint {
		t.Errorf("expected complaint intents, got %s and %s", r1.Intent, r2.Intent)
	}
	if r3.Intent != domain.IntentQuestion {
		t.Errorf("expected question intent, got %s", r3.Intent)
	}

	turns := store.Turns("s")
	if len(turns) != 3 {
		t.Fatalf("expected 3 committed turns, got %d", len(turns))
	}
	for i, want := range []string{"I was charged twice on my bill", "It's still not resolved", "What are your support hours?"} {
		if turns[i].Utterance != want {
			t.Errorf("turn %d out of order: %s", i, turns[i].Utterance)
		}
	}
}

func TestClearSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := mocks.NewMockSessionStore()
	mq := mocks.NewMockMessageQueue()
	store.Append(ctx, "session-1", domain.Turn{Utterance: "hi", Intent: domain.IntentOther, Reply: "hello"})

	service := NewService(store, questionClassifier(), echoGenerator(), mq, 6, newTestLogger())

	// Act
	if err := service.ClearSession(ctx, "session-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert
	if len(store.Turns("session-1")) != 0 {
		t.Error("expected history to be cleared")
	}
	if len(mq.GetPublishedMessages(queue.SubjectSessionCleared)) != 1 {
		t.Error("expected session cleared event")
	}

	// Clearing again is a no-op.
	if err := service.ClearSession(ctx, "session-1"); err != nil {
		t.Fatalf("expected idempotent clear, got %v", err)
	}
}

func TestGetHistory_ReturnsFullLog(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := mocks.NewMockSessionStore()
	for i := 0; i < 10; i++ {
		store.Append(ctx, "session-1", domain.Turn{Utterance: "u", Intent: domain.IntentOther, Reply: "r"})
	}

	service := NewService(store, questionClassifier(), echoGenerator(), nil, 3, newTestLogger())

	// Act
	turns, err := service.GetHistory(ctx, "session-1")

	// Assert: the audit log ignores the context window.
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(turns) != 10 {
		t.Errorf("expected 10 turns, got %d", len(turns))
	}
}

func TestGetHistory_UnknownSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	service := NewService(mocks.NewMockSessionStore(), questionClassifier(), echoGenerator(), nil, 6, newTestLogger())

	// Act
	turns, err := service.GetHistory(ctx, "never-seen")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected empty history, got %d turns", len(turns))
	}
}
