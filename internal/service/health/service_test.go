package health

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type pingerFunc func() error

func (f pingerFunc) Ping() error { return f() }

func TestReady_AllBackendsHealthy(t *testing.T) {
	// Arrange
	service := NewService(&Config{
		Version: "test",
		Cache:   mocks.NewMockCache(),
		Store:   pingerFunc(func() error { return nil }),
		Queue:   pingerFunc(func() error { return nil }),
	}, newTestLogger())

	// Act
	resp := service.Ready(context.Background())

	// Assert
	if !resp.Ready {
		t.Error("expected ready")
	}
	if resp.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", resp.Status)
	}
	if len(resp.Checks) != 3 {
		t.Errorf("expected 3 checks, got %d", len(resp.Checks))
	}
}

func TestReady_QueueDown_Degraded(t *testing.T) {
	// Arrange: events are best-effort, a dead queue must not block readiness.
	service := NewService(&Config{
		Version: "test",
		Cache:   mocks.NewMockCache(),
		Store:   pingerFunc(func() error { return nil }),
		Queue:   pingerFunc(func() error { return errors.New("nats: not connected") }),
	}, newTestLogger())

	// Act
	resp := service.Ready(context.Background())

	// Assert
	if !resp.Ready {
		t.Error("expected ready despite degraded queue")
	}
	if resp.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", resp.Status)
	}
	if resp.Checks["nats"].Status != StatusDegraded {
		t.Errorf("expected degraded nats check, got %s", resp.Checks["nats"].Status)
	}
}

func TestReady_StoreDown_NotReady(t *testing.T) {
	// Arrange
	service := NewService(&Config{
		Version: "test",
		Store:   pingerFunc(func() error { return errors.New("connection refused") }),
	}, newTestLogger())

	// Act
	resp := service.Ready(context.Background())

	// Assert: a dead session store blocks turns, so readiness fails.
	if resp.Ready {
		t.Error("expected not ready")
	}
	if resp.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", resp.Status)
	}
}

func TestReady_CacheDown_Degraded(t *testing.T) {
	// Arrange
	cache := mocks.NewMockCache()
	cache.PingFunc = func() error { return errors.New("cache down") }
	service := NewService(&Config{
		Version: "test",
		Cache:   cache,
		Store:   pingerFunc(func() error { return nil }),
	}, newTestLogger())

	// Act
	resp := service.Ready(context.Background())

	// Assert: synthesis degrades without its cache but turns still work.
	if !resp.Ready {
		t.Error("expected ready despite degraded cache")
	}
	if resp.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", resp.Status)
	}
}

func TestReady_NoQueueConfigured_NoNATSCheck(t *testing.T) {
	// Arrange
	service := NewService(&Config{
		Version: "test",
		Store:   pingerFunc(func() error { return nil }),
	}, newTestLogger())

	// Act
	resp := service.Ready(context.Background())

	// Assert
	if _, ok := resp.Checks["nats"]; ok {
		t.Error("expected no nats check without a configured queue")
	}
}
