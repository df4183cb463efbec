package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/ports"
	"github.com/seu-repo/conversia/pkg/config"
)

// Client implements ports.ChatProvider on top of an OpenAI-compatible
// chat-completions API. Calls are wrapped in a circuit breaker so a failing
// provider sheds load quickly instead of holding every turn until timeout.
type Client struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// NewClient creates a chat provider for the given model. An empty baseURL
// targets the public OpenAI endpoint.
func NewClient(cfg config.OpenAIConfig, model string, cbCfg config.CircuitBreakerConfig, log *zap.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	var cb *gobreaker.CircuitBreaker
	if cbCfg.Enabled {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "chat-provider:" + model,
			MaxRequests: cbCfg.MaxRequests,
			Interval:    cbCfg.Interval,
			Timeout:     cbCfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= cbCfg.FailureThreshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Warn("Chat provider circuit breaker state changed",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		breaker: cb,
		log:     log,
	}
}

func (c *Client) Complete(ctx context.Context, req ports.ChatRequest) (string, error) {
	if c.breaker == nil {
		return c.complete(ctx, req)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) complete(ctx context.Context, req ports.ChatRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONResponse {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, apiReq)
	latency := time.Since(start)

	if err != nil {
		c.log.Error("Chat completion request failed",
			zap.String("model", c.model),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from provider")
	}

	c.log.Debug("Chat completion succeeded",
		zap.String("model", c.model),
		zap.Duration("latency", latency),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

var _ ports.ChatProvider = (*Client)(nil)
