package queue

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/pkg/config"
)

type NATSQueue struct {
	conn *nats.Conn
	log  *zap.Logger
}

func NewNATSQueue(cfg config.NATSConfig, log *zap.Logger) (*NATSQueue, error) {
	opts := []nats.Option{}
	if cfg.MaxReconnects > 0 {
		opts = append(opts, nats.MaxReconnects(cfg.MaxReconnects))
	}
	if cfg.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(cfg.ReconnectWait))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, nats.Timeout(cfg.Timeout))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info("Successfully connected to NATS", zap.String("url", cfg.URL))
	return &NATSQueue{
		conn: nc,
		log:  log,
	}, nil
}

func (q *NATSQueue) Publish(subject string, data []byte) error {
	return q.conn.Publish(subject, data)
}

func (q *NATSQueue) Subscribe(subject string, handler func(data []byte) error) error {
	_, err := q.conn.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			q.log.Error("Error processing message", zap.String("subject", subject), zap.Error(err))
		}
	})
	return err
}

// Ping reports whether the NATS connection is currently usable. Used by
// readiness checks.
func (q *NATSQueue) Ping() error {
	if !q.conn.IsConnected() {
		return fmt.Errorf("nats: not connected (status %s)", q.conn.Status())
	}
	return nil
}

func (q *NATSQueue) Close() error {
	q.conn.Close()
	return nil
}
