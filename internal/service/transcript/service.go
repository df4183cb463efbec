package transcript

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/domain"
	"github.com/seu-repo/conversia/internal/ports"
)

// Service accumulates live transcription for chunked audio streams, one
// running transcript per session. Chunk transcription is best-effort: a
// chunk that yields no text leaves the transcript unchanged.
type Service struct {
	transcriber ports.TranscriptionService
	mu          sync.RWMutex
	transcripts map[string]string
	log         *zap.Logger
}

func NewService(transcriber ports.TranscriptionService, log *zap.Logger) *Service {
	return &Service{
		transcriber: transcriber,
		transcripts: make(map[string]string),
		log:         log,
	}
}

// Start begins (or restarts) a streaming session with an empty transcript.
func (s *Service) Start(sessionID string) (string, error) {
	sessionID, err := domain.ValidateSessionID(sessionID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.transcripts[sessionID] = ""
	s.mu.Unlock()

	s.log.Info("Streaming session started", zap.String("session_id", sessionID))
	return sessionID, nil
}

// AppendChunk transcribes one audio chunk and appends any recognized text to
// the session transcript, space-delimited. Returns the partial text for this
// chunk and the accumulated transcript.
func (s *Service) AppendChunk(ctx context.Context, sessionID string, audio []byte, contentType string) (string, string, error) {
	sessionID, err := domain.ValidateSessionID(sessionID)
	if err != nil {
		return "", "", err
	}

	partial, err := s.transcriber.Transcribe(ctx, audio, contentType)
	if err != nil {
		// Best-effort: a failed chunk does not fail the stream.
		s.log.Warn("Chunk transcription failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		partial = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.transcripts[sessionID]
	if partial != "" {
		current = strings.TrimSpace(current + " " + partial)
		s.transcripts[sessionID] = current
	}
	return partial, current, nil
}

// Transcript returns the accumulated transcript for the session.
func (s *Service) Transcript(sessionID string) (string, error) {
	sessionID, err := domain.ValidateSessionID(sessionID)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcripts[sessionID], nil
}

// Stop ends the streaming session, releases its state, and returns the
// final transcript.
func (s *Service) Stop(sessionID string) (string, error) {
	sessionID, err := domain.ValidateSessionID(sessionID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	final := s.transcripts[sessionID]
	delete(s.transcripts, sessionID)
	s.mu.Unlock()

	s.log.Info("Streaming session stopped",
		zap.String("session_id", sessionID),
		zap.Int("chars", len(final)),
	)
	return final, nil
}
