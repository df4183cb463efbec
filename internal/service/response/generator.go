package response

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/domain"
	"github.com/seu-repo/conversia/internal/observability/telemetry"
	"github.com/seu-repo/conversia/internal/ports"
)

const (
	defaultWindow  = 6
	defaultTimeout = 20 * time.Second

	maxReplyTokens = 150
)

// Per-intent system prompts. Tone follows the classified intent: questions
// get informative answers, complaints get acknowledgment-first empathy,
// everything else stays brief and conversational.
var systemPrompts = map[domain.Intent]string{
	domain.IntentQuestion: `You are a helpful virtual assistant. The user has asked a question.
Provide a clear, concise, and helpful response. If you need more context, ask a follow-up question.
Reference earlier turns of the conversation when they are relevant. Be conversational and natural.`,

	domain.IntentComplaint: `You are an empathetic customer service assistant. The user has raised a complaint or concern.
Acknowledge their concern first, show empathy, and offer to help resolve the issue. Never deflect.
If earlier turns mention an unresolved issue, acknowledge that context instead of restarting the conversation.
Be warm, understanding, and professional.`,

	domain.IntentOther: `You are a friendly and professional virtual assistant.
Engage naturally with the user. Keep responses brief and conversational.
If appropriate, ask how you can help them today.`,
}

// Fixed fallback replies, keyed by intent, used when the generation call
// fails or times out. Every turn must produce some reply.
var fallbackReplies = map[domain.Intent]string{
	domain.IntentQuestion:  "I'm having trouble finding that answer right now. Could you ask me again in a moment?",
	domain.IntentComplaint: "I'm sorry you're having this problem. I'm having a little trouble on my end right now, but I want to help. Could you repeat that?",
	domain.IntentOther:     "I didn't quite catch that. Could you say it again?",
}

// Generator produces reply text whose tone is selected by intent, using a
// bounded trailing window of history as conversational context.
type Generator struct {
	provider ports.ChatProvider
	window   int
	timeout  time.Duration
	log      *zap.Logger
}

func NewGenerator(provider ports.ChatProvider, window int, timeout time.Duration, log *zap.Logger) *Generator {
	if window <= 0 {
		window = defaultWindow
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Generator{
		provider: provider,
		window:   window,
		timeout:  timeout,
		log:      log,
	}
}

func (g *Generator) Generate(ctx context.Context, intent domain.Intent, utterance string, history []domain.Turn) (string, error) {
	if !intent.Valid() {
		intent = domain.IntentOther
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := []ports.ChatMessage{{Role: ports.ChatRoleSystem, Content: systemPrompts[intent]}}
	for _, t := range boundedWindow(history, g.window) {
		messages = append(messages,
			ports.ChatMessage{Role: ports.ChatRoleUser, Content: t.Utterance},
			ports.ChatMessage{Role: ports.ChatRoleAssistant, Content: t.Reply},
		)
	}
	messages = append(messages, ports.ChatMessage{Role: ports.ChatRoleUser, Content: utterance})

	start := time.Now()
	reply, err := g.provider.Complete(ctx, ports.ChatRequest{
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   maxReplyTokens,
	})
	telemetry.GenerationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.ProviderFailuresTotal.WithLabelValues("generation").Inc()
		g.log.Warn("Response generation failed, using fallback reply",
			zap.String("intent", string(intent)),
			zap.Error(err),
		)
		return Fallback(intent), nil
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		telemetry.ProviderFailuresTotal.WithLabelValues("generation").Inc()
		g.log.Warn("Provider returned empty reply, using fallback",
			zap.String("intent", string(intent)),
		)
		return Fallback(intent), nil
	}

	g.log.Info("Response generated",
		zap.String("intent", string(intent)),
		zap.Int("chars", len(reply)),
	)
	return reply, nil
}

// Fallback returns the fixed intent-appropriate reply used when generation
// is unavailable.
func Fallback(intent domain.Intent) string {
	if reply, ok := fallbackReplies[intent]; ok {
		return reply
	}
	return fallbackReplies[domain.IntentOther]
}

func boundedWindow(history []domain.Turn, window int) []domain.Turn {
	if len(history) > window {
		return history[len(history)-window:]
	}
	return history
}

var _ ports.ResponseGenerator = (*Generator)(nil)
