package queue

// Subjects published by the conversation core.
const (
	SubjectTurnCommitted  = "conversation.turns.committed"
	SubjectSessionCleared = "conversation.sessions.cleared"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
