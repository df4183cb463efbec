package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/ports"
)

type localEntry struct {
	value     string
	expiresAt time.Time
}

// LocalCache implements ports.Cache with an in-memory map. Used as the
// audio-cache fallback when Redis is unavailable.
type LocalCache struct {
	entries map[string]localEntry
	mu      sync.RWMutex
	log     *zap.Logger
	stopCh  chan struct{}
}

// NewLocalCache creates an in-memory cache with periodic expiry sweeps.
func NewLocalCache(cleanupInterval time.Duration, log *zap.Logger) ports.Cache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	c := &LocalCache{
		entries: make(map[string]localEntry),
		log:     log,
		stopCh:  make(chan struct{}),
	}

	go c.sweepLoop(cleanupInterval)

	log.Info("Local in-memory cache initialized",
		zap.Duration("cleanup_interval", cleanupInterval),
	)
	return c
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		return "", fmt.Errorf("key expired: %s", key)
	}
	return entry.value, nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
		strVal = string(data)
	}

	entry := localEntry{value: strVal}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Ping() error {
	return nil
}

func (c *LocalCache) Close() error {
	close(c.stopCh)
	return nil
}

func (c *LocalCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

func (c *LocalCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expired := 0
	for key, entry := range c.entries {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			delete(c.entries, key)
			expired++
		}
	}

	if expired > 0 {
		c.log.Debug("Cache sweep completed", zap.Int("expired_entries", expired))
	}
}
