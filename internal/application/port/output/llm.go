package output

import (
	"context"
	"errors"

	"webtask-agent/internal/domain/entity"
)

// LLMPort is the chat completion client the loop suspends on.
// Implementations return the raw reply text; transient failures
// (timeout, rate limit, server error) are reported via errors that
// satisfy Retryable.
type LLMPort interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	Messages    []entity.Message
	MaxTokens   int
	Temperature float32
}

// Retryable marks an LLM error worth another bounded attempt.
type Retryable interface {
	Retryable() bool
}

// IsRetryable reports whether err advertises itself as transient.
func IsRetryable(err error) bool {
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}
