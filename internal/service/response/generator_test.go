package response

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/domain"
	"github.com/seu-repo/conversia/internal/mocks"
	"github.com/seu-repo/conversia/internal/ports"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestGenerate_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	provider := &mocks.MockChatProvider{
		CompleteFunc: func(ctx context.Context, req ports.ChatRequest) (string, error) {
			return "We open at 9am on weekdays.", nil
		},
	}
	generator := NewGenerator(provider, 6, 0, newTestLogger())

	// Act
	reply, err := generator.Generate(ctx, domain.IntentQuestion, "When do you open?", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != "We open at 9am on weekdays." {
		t.Errorf("unexpected reply: %s", reply)
	}
}

func TestGenerate_RequestShape(t *testing.T) {
	// Arrange
	ctx := context.Background()
	provider := &mocks.MockChatProvider{
		CompleteFunc: func(ctx context.Context, req ports.ChatRequest) (string, error) {
			return "ok", nil
		},
	}
	generator := NewGenerator(provider, 6, 0, newTestLogger())

	history := []domain.Turn{
		{Utterance: "hi", Reply: "hello!"},
	}

	// Act
	if _, err := generator.Generate(ctx, domain.IntentQuestion, "when?", history); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert
	req := provider.Calls[0]
	if req.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %f", req.Temperature)
	}
	if req.MaxTokens != maxReplyTokens {
		t.Errorf("expected max tokens %d, got %d", maxReplyTokens, req.MaxTokens)
	}
	if req.JSONResponse {
		t.Error("generation must not be JSON-constrained")
	}

	// system, then user/assistant history pairs, then the utterance.
	if len(req.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(req.Messages))
	}
	if req.Messages[1].Role != ports.ChatRoleUser || req.Messages[1].Content != "hi" {
		t.Errorf("unexpected history user message: %+v", req.Messages[1])
	}
	if req.Messages[2].Role != ports.ChatRoleAssistant || req.Messages[2].Content != "hello!" {
		t.Errorf("unexpected history assistant message: %+v", req.Messages[2])
	}
	if req.Messages[3].Content != "when?" {
		t.Errorf("unexpected trailing utterance: %+v", req.Messages[3])
	}
}

func TestGenerate_TonePerIntent(t *testing.T) {
	// Arrange
	ctx := context.Background()
	var systemPrompt string
	provider := &mocks.MockChatProvider{
		CompleteFunc: func(ctx context.Context, req ports.ChatRequest) (string, error) {
			systemPrompt = req.Messages[0].Content
			return "ok", nil
		},
	}
	generator := NewGenerator(provider, 6, 0, newTestLogger())

	// Act / Assert
	generator.Generate(ctx, domain.IntentComplaint, "this is broken", nil)
	if !strings.Contains(systemPrompt, "empathetic") {
		t.Error("complaint prompt should set an empathetic tone")
	}

	generator.Generate(ctx, domain.IntentQuestion, "when?", nil)
	if !strings.Contains(systemPrompt, "question") {
		t.Error("question prompt should address answering questions")
	}
}

func TestGenerate_InvalidIntentTreatedAsOther(t *testing.T) {
	// Arrange
	ctx := context.Background()
	var systemPrompt string
	provider := &mocks.MockChatProvider{
		CompleteFunc: func(ctx context.Context, req ports.ChatRequest) (string, error) {
			systemPrompt = req.Messages[0].Content
			return "ok", nil
		},
	}
	generator := NewGenerator(provider, 6, 0, newTestLogger())

	// Act
	if _, err := generator.Generate(ctx, domain.Intent("banana"), "hello", nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert
	if systemPrompt != systemPrompts[domain.IntentOther] {
		t.Error("unknown intent should use the default prompt")
	}
}

func TestGenerate_ProviderError_FixedFallback(t *testing.T) {
	// Arrange
	ctx := context.Background()
	provider := &mocks.MockChatProvider{
		CompleteFunc: func(ctx context.Context, req ports.ChatRequest) (string, error) {
			return "", errors.New("provider unavailable")
		},
	}
	generator := NewGenerator(provider, 6, 0, newTestLogger())

	for _, intent := range []domain.Intent{domain.IntentQuestion, domain.IntentComplaint, domain.IntentOther} {
		// Act
		reply, err := generator.Generate(ctx, intent, "anything", nil)

		// Assert: absorbed failure, deterministic reply per intent.
		if err != nil {
			t.Fatalf("intent %s: provider failure must not surface, got %v", intent, err)
		}
		if reply != Fallback(intent) {
			t.Errorf("intent %s: expected fixed fallback, got %q", intent, reply)
		}
		if reply == "" {
			t.Errorf("intent %s: fallback must be non-empty", intent)
		}
	}
}

func TestGenerate_EmptyReply_FixedFallback(t *testing.T) {
	// Arrange
	ctx := context.Background()
	provider := &mocks.MockChatProvider{
		CompleteFunc: func(ctx context.Context, req ports.ChatRequest) (string, error) {
			return "   ", nil
		},
	}
	generator := NewGenerator(provider, 6, 0, newTestLogger())

	// Act
	reply, err := generator.Generate(ctx, domain.IntentQuestion, "when?", nil)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != Fallback(domain.IntentQuestion) {
		t.Errorf("expected fallback reply, got %q", reply)
	}
}

func TestGenerate_WindowBounded(t *testing.T) {
	// Arrange
	ctx := context.Background()
	provider := &mocks.MockChatProvider{
		CompleteFunc: func(ctx context.Context, req ports.ChatRequest) (string, error) {
			return "ok", nil
		},
	}
	generator := NewGenerator(provider, 2, 0, newTestLogger())

	history := []domain.Turn{
		{Utterance: "turn-1", Reply: "r1"},
		{Utterance: "turn-2", Reply: "r2"},
		{Utterance: "turn-3", Reply: "r3"},
	}

	// Act
	if _, err := generator.Generate(ctx, domain.IntentOther, "now", history); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert: system + 2 pairs + utterance.
	req := provider.Calls[0]
	if len(req.Messages) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(req.Messages))
	}
	for _, m := range req.Messages {
		if m.Content == "turn-1" {
			t.Error("oldest turn should be outside the window")
		}
	}
}
