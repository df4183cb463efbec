package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/domain"
	"github.com/seu-repo/conversia/internal/observability/telemetry"
	"github.com/seu-repo/conversia/internal/ports"
)

const (
	defaultWindow  = 6
	defaultTimeout = 10 * time.Second
)

const systemPrompt = `You are an intent classifier. Classify the user's latest message into one of these categories:
- question: the user is asking for information or clarification
- complaint: the user is expressing dissatisfaction or reporting an issue
- other: general conversation, greeting, or non-specific intent

Use the recent conversation context to disambiguate short follow-ups (e.g. "it's still broken" after a complaint stays a complaint).

Respond ONLY with a JSON object:
{"intent": "question|complaint|other", "confidence": <float between 0 and 1>, "reasoning": "brief explanation"}`

// Classifier maps an utterance plus a bounded history window to exactly one
// intent label by delegating to a chat-completion provider. Provider failures
// are never fatal: the classifier falls back to IntentOther.
type Classifier struct {
	provider ports.ChatProvider
	window   int
	timeout  time.Duration
	log      *zap.Logger
}

func NewClassifier(provider ports.ChatProvider, window int, timeout time.Duration, log *zap.Logger) *Classifier {
	if window <= 0 {
		window = defaultWindow
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Classifier{
		provider: provider,
		window:   window,
		timeout:  timeout,
		log:      log,
	}
}

func (c *Classifier) Classify(ctx context.Context, utterance string, history []domain.Turn) (domain.IntentResult, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return domain.IntentResult{}, domain.ErrEmptyUtterance
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []ports.ChatMessage{{Role: ports.ChatRoleSystem, Content: systemPrompt}}
	if window := boundedWindow(history, c.window); len(window) > 0 {
		messages = append(messages, ports.ChatMessage{
			Role:    ports.ChatRoleSystem,
			Content: "Recent conversation context:\n" + renderContext(window),
		})
	}
	messages = append(messages, ports.ChatMessage{Role: ports.ChatRoleUser, Content: utterance})

	start := time.Now()
	raw, err := c.provider.Complete(ctx, ports.ChatRequest{
		Messages:     messages,
		Temperature:  0.3,
		MaxTokens:    120,
		JSONResponse: true,
	})
	telemetry.ClassificationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.ProviderFailuresTotal.WithLabelValues("classification").Inc()
		c.log.Warn("Intent classification failed, falling back to other",
			zap.Error(err),
			zap.Duration("latency", time.Since(start)),
		)
		return fallbackResult(fmt.Sprintf("classification error: %v", err)), nil
	}

	result, err := parseResult(raw)
	if err != nil {
		telemetry.ProviderFailuresTotal.WithLabelValues("classification").Inc()
		c.log.Warn("Unparseable classification output, falling back to other",
			zap.String("output", raw),
			zap.Error(err),
		)
		return fallbackResult("unparseable classification output"), nil
	}

	c.log.Info("Intent classified",
		zap.String("intent", string(result.Intent)),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}

func fallbackResult(reason string) domain.IntentResult {
	return domain.IntentResult{
		Intent:     domain.IntentOther,
		Confidence: 0,
		Reasoning:  reason,
	}
}

var codeFenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// parseResult decodes the provider's JSON output, tolerating markdown code
// fences. Unknown labels map to IntentOther rather than failing.
func parseResult(raw string) (domain.IntentResult, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if matches := codeFenceRe.FindStringSubmatch(raw); len(matches) > 1 {
			raw = matches[1]
		}
	}

	var decoded struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return domain.IntentResult{}, fmt.Errorf("decode classification: %w", err)
	}

	return domain.IntentResult{
		Intent:     mapLabel(decoded.Intent),
		Confidence: decoded.Confidence,
		Reasoning:  decoded.Reasoning,
	}, nil
}

func mapLabel(s string) domain.Intent {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "question":
		return domain.IntentQuestion
	case "complaint":
		return domain.IntentComplaint
	case "other":
		return domain.IntentOther
	default:
		return domain.IntentOther
	}
}

func boundedWindow(history []domain.Turn, window int) []domain.Turn {
	if len(history) > window {
		return history[len(history)-window:]
	}
	return history
}

// renderContext flattens prior turns into a compact transcript the model can
// use for disambiguation.
func renderContext(turns []domain.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "user: %s\nassistant: %s\n", t.Utterance, t.Reply)
	}
	return b.String()
}

var _ ports.IntentClassifier = (*Classifier)(nil)
