package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/adapter/queue"
	"github.com/seu-repo/conversia/internal/domain"
	"github.com/seu-repo/conversia/internal/observability/telemetry"
	"github.com/seu-repo/conversia/internal/ports"
)

const defaultHistoryWindow = 6

// Service sequences one conversational turn: resolve session, validate
// input, classify, generate, commit. It is the only component with
// cross-cutting control flow; everything it calls is a stateless provider
// or the session store.
type Service struct {
	store      ports.SessionStore
	classifier ports.IntentClassifier
	generator  ports.ResponseGenerator
	mq         queue.MessageQueue
	window     int
	tracer     trace.Tracer
	log        *zap.Logger
}

func NewService(
	store ports.SessionStore,
	classifier ports.IntentClassifier,
	generator ports.ResponseGenerator,
	mq queue.MessageQueue,
	historyWindow int,
	log *zap.Logger,
) ports.ConversationService {
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}
	return &Service{
		store:      store,
		classifier: classifier,
		generator:  generator,
		mq:         mq,
		window:     historyWindow,
		tracer:     otel.Tracer("conversation"),
		log:        log,
	}
}

func (s *Service) HandleTurn(ctx context.Context, sessionID, utterance string) (*domain.TurnResult, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.HandleTurn")
	defer span.End()

	start := time.Now()

	// 1. Resolve session. Validation happens before any provider call.
	sessionID, err := domain.ValidateSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	// 2. Validate input before spending an external call on it.
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, domain.ErrEmptyUtterance
	}

	if _, err := s.store.GetOrCreate(ctx, sessionID); err != nil {
		return nil, err
	}

	// Bounded trailing window only; the full log stays in the store.
	window, err := s.store.History(ctx, sessionID, s.window)
	if err != nil {
		return nil, err
	}

	// 3. Classify. Provider failures are absorbed inside the classifier.
	result, err := s.classifier.Classify(ctx, utterance, window)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("turn.intent", string(result.Intent)))

	// 4. Generate. Always yields a non-empty reply.
	reply, err := s.generator.Generate(ctx, result.Intent, utterance, window)
	if err != nil {
		return nil, err
	}

	// 5. Commit. The only turn-level failure mode past validation: a commit
	// conflict leaves history unchanged and surfaces to the caller.
	turn := domain.Turn{
		Utterance:  utterance,
		Intent:     result.Intent,
		Reply:      reply,
		Confidence: result.Confidence,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Append(ctx, sessionID, turn); err != nil {
		if errors.Is(err, domain.ErrCommitConflict) {
			telemetry.TurnsTotal.WithLabelValues(string(result.Intent), "conflict").Inc()
		}
		return nil, err
	}

	s.publishTurnCommitted(sessionID, result)

	telemetry.TurnsTotal.WithLabelValues(string(result.Intent), "ok").Inc()
	telemetry.TurnLatency.Observe(time.Since(start).Seconds())
	telemetry.ActiveSessions.Set(float64(s.store.Len()))

	s.log.Info("Turn completed",
		zap.String("session_id", sessionID),
		zap.String("intent", string(result.Intent)),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("latency", time.Since(start)),
	)

	// 6. Return. The caller owns speech synthesis.
	return &domain.TurnResult{
		SessionID:  sessionID,
		Intent:     result.Intent,
		Confidence: result.Confidence,
		Reply:      reply,
	}, nil
}

func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	sessionID, err := domain.ValidateSessionID(sessionID)
	if err != nil {
		return err
	}

	if err := s.store.Clear(ctx, sessionID); err != nil {
		return err
	}

	telemetry.SessionsCleared.Inc()
	telemetry.ActiveSessions.Set(float64(s.store.Len()))

	if s.mq != nil {
		payload, err := json.Marshal(domain.SessionClearedEvent{
			SessionID: sessionID,
			Timestamp: time.Now().UTC(),
		})
		if err == nil {
			if err := s.mq.Publish(queue.SubjectSessionCleared, payload); err != nil {
				s.log.Warn("Failed to publish session cleared event", zap.Error(err))
			}
		}
	}

	s.log.Info("Session cleared", zap.String("session_id", sessionID))
	return nil
}

func (s *Service) GetHistory(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	sessionID, err := domain.ValidateSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	return s.store.History(ctx, sessionID, 0)
}

// publishTurnCommitted emits the turn event best-effort: event delivery never
// fails a committed turn.
func (s *Service) publishTurnCommitted(sessionID string, result domain.IntentResult) {
	if s.mq == nil {
		return
	}

	payload, err := json.Marshal(domain.TurnCommittedEvent{
		SessionID:  sessionID,
		Intent:     result.Intent,
		Confidence: result.Confidence,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.mq.Publish(queue.SubjectTurnCommitted, payload); err != nil {
		s.log.Warn("Failed to publish turn committed event", zap.Error(err))
	}
}
