package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/conversia/internal/domain"
)

// MockSessionStore is a mock implementation of SessionStore interface. With
// no Func fields set it behaves as a working in-memory store.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string][]domain.Turn

	GetOrCreateFunc func(ctx context.Context, id string) (*domain.Session, error)
	AppendFunc      func(ctx context.Context, id string, turn domain.Turn) error
	HistoryFunc     func(ctx context.Context, id string, limit int) ([]domain.Turn, error)
	ClearFunc       func(ctx context.Context, id string) error
	LenFunc         func() int
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[string][]domain.Turn),
	}
}

func (m *MockSessionStore) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		m.sessions[id] = nil
	}
	return &domain.Session{ID: id, Turns: append([]domain.Turn(nil), m.sessions[id]...)}, nil
}

func (m *MockSessionStore) Append(ctx context.Context, id string, turn domain.Turn) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, id, turn)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = append(m.sessions[id], turn)
	return nil
}

func (m *MockSessionStore) History(ctx context.Context, id string, limit int) ([]domain.Turn, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, id, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.sessions[id]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]domain.Turn(nil), turns...), nil
}

func (m *MockSessionStore) Clear(ctx context.Context, id string) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionStore) Len() int {
	if m.LenFunc != nil {
		return m.LenFunc()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Turns returns the committed turns for a session, for assertions.
func (m *MockSessionStore) Turns(id string) []domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Turn(nil), m.sessions[id]...)
}
