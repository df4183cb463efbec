package ports

import (
	"context"
	"time"
)

// Chat message roles, matching the wire format of chat-completion providers.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one message in a chat-completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatRequest is a single outbound call to the text-generation provider.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
	// JSONResponse asks the provider to constrain output to a JSON object.
	JSONResponse bool
}

// ChatProvider is the delegated text-generation capability used by both the
// intent classifier and the response generator. Implementations are
// stateless; each call is independent.
type ChatProvider interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Cache is a generic TTL key-value cache used for synthesized audio.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
