package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/domain"
	"github.com/seu-repo/conversia/internal/ports"
)

// entry pairs a session with its own mutex so that commits on one session
// never serialize unrelated sessions.
type entry struct {
	mu      sync.Mutex
	session domain.Session
}

// Store implements ports.SessionStore with process-lifetime in-memory state.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	log      *zap.Logger
}

// NewStore creates an empty in-memory session store.
func NewStore(log *zap.Logger) ports.SessionStore {
	return &Store{
		sessions: make(map[string]*entry),
		log:      log,
	}
}

func (s *Store) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	id, err := domain.ValidateSessionID(id)
	if err != nil {
		return nil, err
	}

	e := s.entry(id)

	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := copySession(&e.session)
	return snapshot, nil
}

func (s *Store) Append(ctx context.Context, id string, turn domain.Turn) error {
	id, err := domain.ValidateSessionID(id)
	if err != nil {
		return err
	}

	e := s.entry(id)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Turns = append(e.session.Turns, turn)
	e.session.UpdatedAt = time.Now().UTC()

	s.log.Debug("Turn committed",
		zap.String("session_id", id),
		zap.String("intent", string(turn.Intent)),
		zap.Int("history_len", len(e.session.Turns)),
	)
	return nil
}

func (s *Store) History(ctx context.Context, id string, limit int) ([]domain.Turn, error) {
	id, err := domain.ValidateSessionID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return []domain.Turn{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	turns := e.session.Turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *Store) Clear(ctx context.Context, id string) error {
	id, err := domain.ValidateSessionID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	_, existed := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if existed {
		s.log.Debug("Session cleared", zap.String("session_id", id))
	}
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// entry returns the per-session entry, creating it if absent. Creation is
// double-checked under the write lock so two concurrent callers never
// observe distinct sessions for the same id.
func (s *Store) entry(id string) *entry {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.sessions[id]; ok {
		return e
	}

	now := time.Now().UTC()
	e = &entry{session: domain.Session{
		ID:        id,
		Turns:     []domain.Turn{},
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.sessions[id] = e
	return e
}

func copySession(src *domain.Session) *domain.Session {
	dst := *src
	dst.Turns = make([]domain.Turn, len(src.Turns))
	copy(dst.Turns, src.Turns)
	return &dst
}
