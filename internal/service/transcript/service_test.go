package transcript

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/domain"
	"github.com/seu-repo/conversia/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestStream_AccumulatesChunks(t *testing.T) {
	// Arrange
	ctx := context.Background()
	chunks := []string{"hello", "how are", "you"}
	call := 0
	transcriber := &mocks.MockTranscriptionService{
		TranscribeFunc: func(ctx context.Context, audio []byte, contentType string) (string, error) {
			text := chunks[call]
			call++
			return text, nil
		},
	}
	service := NewService(transcriber, newTestLogger())

	// Act
	if _, err := service.Start("stream-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	var full string
	for range chunks {
		var err error
		_, full, err = service.AppendChunk(ctx, "stream-1", []byte{1, 2, 3}, "audio/wav")
		if err != nil {
			t.Fatalf("chunk: %v", err)
		}
	}
	final, err := service.Stop("stream-1")

	// Assert
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if full != "hello how are you" {
		t.Errorf("unexpected running transcript: %q", full)
	}
	if final != "hello how are you" {
		t.Errorf("unexpected final transcript: %q", final)
	}
}

func TestStream_FailedChunkLeavesTranscript(t *testing.T) {
	// Arrange
	ctx := context.Background()
	call := 0
	transcriber := &mocks.MockTranscriptionService{
		TranscribeFunc: func(ctx context.Context, audio []byte, contentType string) (string, error) {
			call++
			if call == 2 {
				return "", errors.New("speech service down")
			}
			return "word", nil
		},
	}
	service := NewService(transcriber, newTestLogger())
	service.Start("stream-1")

	// Act
	service.AppendChunk(ctx, "stream-1", []byte{1}, "audio/wav")
	partial, full, err := service.AppendChunk(ctx, "stream-1", []byte{2}, "audio/wav")

	// Assert: the failed chunk contributes nothing but does not fail the stream.
	if err != nil {
		t.Fatalf("chunk failure must not surface, got %v", err)
	}
	if partial != "" {
		t.Errorf("expected empty partial, got %q", partial)
	}
	if full != "word" {
		t.Errorf("expected transcript unchanged, got %q", full)
	}
}

func TestStream_StartResetsTranscript(t *testing.T) {
	// Arrange
	ctx := context.Background()
	transcriber := &mocks.MockTranscriptionService{
		TranscribeFunc: func(ctx context.Context, audio []byte, contentType string) (string, error) {
			return "something", nil
		},
	}
	service := NewService(transcriber, newTestLogger())
	service.Start("stream-1")
	service.AppendChunk(ctx, "stream-1", []byte{1}, "audio/wav")

	// Act
	service.Start("stream-1")
	full, err := service.Transcript("stream-1")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if full != "" {
		t.Errorf("expected empty transcript after restart, got %q", full)
	}
}

func TestStream_StopReleasesState(t *testing.T) {
	// Arrange
	ctx := context.Background()
	transcriber := &mocks.MockTranscriptionService{
		TranscribeFunc: func(ctx context.Context, audio []byte, contentType string) (string, error) {
			return "word", nil
		},
	}
	service := NewService(transcriber, newTestLogger())
	service.Start("stream-1")
	service.AppendChunk(ctx, "stream-1", []byte{1}, "audio/wav")

	// Act
	final, err := service.Stop("stream-1")

	// Assert: the final transcript is returned and the entry is gone.
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if final != "word" {
		t.Errorf("unexpected final transcript: %q", final)
	}
	full, err := service.Transcript("stream-1")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if full != "" {
		t.Errorf("expected no retained transcript after stop, got %q", full)
	}
}

func TestStream_InvalidSessionID(t *testing.T) {
	// Arrange
	service := NewService(&mocks.MockTranscriptionService{}, newTestLogger())

	// Act
	_, err := service.Start("bad id")

	// Assert
	if !errors.Is(err, domain.ErrInvalidSessionID) {
		t.Fatalf("expected ErrInvalidSessionID, got %v", err)
	}
}
