package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sashabaranov/go-openai"

	"webtask-agent/internal/application/port/output"
	"webtask-agent/internal/domain/entity"
)

var _ output.LLMPort = (*Adapter)(nil)

// Adapter implements output.LLMPort against the OpenRouter
// chat-completions API through the go-openai client.
type Adapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://openrouter.ai/api/v1",
	}
}

func NewAdapter(cfg Config) *Adapter {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL

	return &Adapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

func (a *Adapter) Complete(ctx context.Context, req output.CompletionRequest) (string, error) {
	messages := convertMessages(req.Messages)

	if a.logger != nil {
		totalChars := 0
		for _, msg := range messages {
			totalChars += len(msg.Content)
		}
		a.logger.Debug("creating chat completion",
			"model", a.model,
			"messagesCount", len(messages),
			"totalChars", totalChars)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", &ModelError{Err: fmt.Errorf("no choices in response"), Transient: true}
	}

	return resp.Choices[0].Message.Content, nil
}

func convertMessages(messages []entity.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		result = append(result, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
			Name:    msg.Name,
		})
	}
	return result
}

// ModelError wraps a completion failure with its retryability.
type ModelError struct {
	Err       error
	Transient bool
}

func (e *ModelError) Error() string {
	return "model call failed: " + e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func (e *ModelError) Retryable() bool {
	return e.Transient
}

// classify maps client errors onto the retryable-then-fatal taxonomy:
// timeouts, rate limits and server errors are worth another attempt,
// everything else (bad request, auth) is not.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		transient := apiErr.HTTPStatusCode == 408 ||
			apiErr.HTTPStatusCode == 429 ||
			apiErr.HTTPStatusCode >= 500
		return &ModelError{Err: err, Transient: transient}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ModelError{Err: err, Transient: true}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ModelError{Err: err, Transient: true}
	}

	return &ModelError{Err: err, Transient: false}
}
