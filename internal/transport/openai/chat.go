package openai

import (
	"context"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/profscope/profscope/internal/domain"
	"github.com/profscope/profscope/internal/metrics"
)

// Chat is a chat-completion client using the OpenAI-compatible API.
type Chat struct {
	client *openai.Client
	model  string
	user   string
	logger *zap.Logger
}

// NewChat creates an OpenAI-compatible chat-completion client.
func NewChat(cfg *Config) *Chat {
	return &Chat{
		client: newClient(cfg),
		model:  cfg.Model,
		user:   cfg.User,
		logger: cfg.Logger,
	}
}

// Complete implements domain.Completer. It sends the conversation and
// returns the assistant's reply text.
func (c *Chat) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	op := req.Op
	if op == "" {
		op = "chat"
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toMessages(req.Turns),
		Temperature: nonZeroTemperature(req.Temperature),
		MaxTokens:   req.MaxTokens,
		User:        c.user,
	}
	if req.JSONOnly {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, apiReq)
	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(op, c.model, "error").Inc()
		return "", parseAPIError(err, domain.ErrGeneration)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(op, c.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGeneration)
	}

	metrics.LLMRequestsTotal.WithLabelValues(op, c.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(op, c.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(op, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(op, c.model, "completion").Add(float64(resp.Usage.CompletionTokens))
		metrics.LLMTokensTotal.WithLabelValues(op, c.model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Chat) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func toMessages(turns []domain.Turn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}
	return msgs
}

// nonZeroTemperature works around the client treating 0 as unset
// (omitempty); the smallest positive float is sent instead.
func nonZeroTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
