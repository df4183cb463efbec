package ports

import (
	"context"

	"github.com/seu-repo/conversia/internal/domain"
)

// SessionStore is the keyed mapping from session identifier to conversation
// state. All mutations are in-memory (or externally backed) with no
// durability guarantee. Operations on different ids are independent;
// operations on the same id are serialized by the implementation.
type SessionStore interface {
	// GetOrCreate returns the session for id, creating an empty one if
	// absent. Fails only with domain.ErrInvalidSessionID.
	GetOrCreate(ctx context.Context, id string) (*domain.Session, error)

	// Append commits a turn to the session's history. The read-modify-append
	// is a critical section per session: commit order matches call order and
	// no partial append is ever visible. A conflicting concurrent write that
	// cannot be resolved yields domain.ErrCommitConflict.
	Append(ctx context.Context, id string, turn domain.Turn) error

	// History returns up to limit most-recent turns in commit order
	// (limit <= 0 returns the full log). Unknown sessions yield an empty
	// slice, not an error.
	History(ctx context.Context, id string, limit int) ([]domain.Turn, error)

	// Clear removes the session if present. Idempotent.
	Clear(ctx context.Context, id string) error

	// Len reports the number of live sessions, for observability.
	Len() int
}
