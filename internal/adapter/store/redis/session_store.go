package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/domain"
	"github.com/seu-repo/conversia/internal/ports"
)

const (
	keyPrefix = "conversia:session:"

	// commitRetries bounds the optimistic-transaction retry loop before the
	// commit is reported as a conflict.
	commitRetries = 5
)

// Store implements ports.SessionStore backed by Redis. Sessions are stored
// as one JSON document per key; commits use WATCH/MULTI so a concurrent
// writer invalidates the transaction instead of losing an update.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewStore connects to Redis and returns a session store. A zero ttl keeps
// sessions until explicitly cleared.
func NewStore(url string, ttl time.Duration, log *zap.Logger) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis session store initialized", zap.Duration("ttl", ttl))
	return &Store{client: client, ttl: ttl, log: log}, nil
}

func (s *Store) GetOrCreate(ctx context.Context, id string) (*domain.Session, error) {
	id, err := domain.ValidateSessionID(id)
	if err != nil {
		return nil, err
	}

	sess, err := s.load(ctx, id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	now := time.Now().UTC()
	sess = &domain.Session{ID: id, Turns: []domain.Turn{}, CreatedAt: now, UpdatedAt: now}

	// SetNX so two concurrent creators converge on a single record.
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	created, err := s.client.SetNX(ctx, keyPrefix+id, payload, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if !created {
		return s.load(ctx, id)
	}
	return sess, nil
}

func (s *Store) Append(ctx context.Context, id string, turn domain.Turn) error {
	id, err := domain.ValidateSessionID(id)
	if err != nil {
		return err
	}
	key := keyPrefix + id

	txn := func(tx *redis.Tx) error {
		sess := &domain.Session{ID: id, Turns: []domain.Turn{}}
		raw, err := tx.Get(ctx, key).Result()
		switch {
		case err == nil:
			if err := json.Unmarshal([]byte(raw), sess); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
		case errors.Is(err, redis.Nil):
			now := time.Now().UTC()
			sess.CreatedAt = now
		default:
			return err
		}

		sess.Turns = append(sess.Turns, turn)
		sess.UpdatedAt = time.Now().UTC()

		payload, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < commitRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("failed to commit turn: %w", err)
	}

	s.log.Warn("Session commit conflict", zap.String("session_id", id))
	return domain.ErrCommitConflict
}

func (s *Store) History(ctx context.Context, id string, limit int) ([]domain.Turn, error) {
	id, err := domain.ValidateSessionID(id)
	if err != nil {
		return nil, err
	}

	sess, err := s.load(ctx, id)
	if errors.Is(err, redis.Nil) {
		return []domain.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	turns := sess.Turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

func (s *Store) Clear(ctx context.Context, id string) error {
	id, err := domain.ValidateSessionID(id)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Len scans for live session keys. Observability only; approximate under
// concurrent writes.
func (s *Store) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count := 0
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

// Ping verifies the Redis connection, for readiness checks.
func (s *Store) Ping() error {
	return s.client.Ping(context.Background()).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) load(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Result()
	if err != nil {
		return nil, err
	}
	var sess domain.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.Turns == nil {
		sess.Turns = []domain.Turn{}
	}
	return &sess, nil
}

var _ ports.SessionStore = (*Store)(nil)
