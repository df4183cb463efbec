package mocks

import (
	"context"

	"github.com/seu-repo/conversia/internal/domain"
	"github.com/seu-repo/conversia/internal/ports"
)

// MockChatProvider is a mock implementation of ChatProvider interface
type MockChatProvider struct {
	CompleteFunc func(ctx context.Context, req ports.ChatRequest) (string, error)
	Calls        []ports.ChatRequest
}

func (m *MockChatProvider) Complete(ctx context.Context, req ports.ChatRequest) (string, error) {
	m.Calls = append(m.Calls, req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// MockIntentClassifier is a mock implementation of IntentClassifier interface
type MockIntentClassifier struct {
	ClassifyFunc func(ctx context.Context, utterance string, history []domain.Turn) (domain.IntentResult, error)
}

func (m *MockIntentClassifier) Classify(ctx context.Context, utterance string, history []domain.Turn) (domain.IntentResult, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, utterance, history)
	}
	return domain.IntentResult{Intent: domain.IntentOther}, nil
}

// MockResponseGenerator is a mock implementation of ResponseGenerator interface
type MockResponseGenerator struct {
	GenerateFunc func(ctx context.Context, intent domain.Intent, utterance string, history []domain.Turn) (string, error)
}

func (m *MockResponseGenerator) Generate(ctx context.Context, intent domain.Intent, utterance string, history []domain.Turn) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, intent, utterance, history)
	}
	return "ok", nil
}

// MockTranscriptionService is a mock implementation of TranscriptionService interface
type MockTranscriptionService struct {
	TranscribeFunc func(ctx context.Context, audio []byte, contentType string) (string, error)
}

func (m *MockTranscriptionService) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, contentType)
	}
	return "", nil
}

// MockSynthesisService is a mock implementation of SynthesisService interface
type MockSynthesisService struct {
	SynthesizeFunc func(ctx context.Context, text string, voiceID string) ([]byte, error)
}

func (m *MockSynthesisService) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, voiceID)
	}
	return []byte{}, nil
}
