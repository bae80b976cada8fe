package output

import (
	"context"

	"webtask-agent/internal/domain/entity"
)

// SummarizerPort compresses a stale observation into a summary whose
// estimated token cost fits Budget. Implementations must degrade
// (truncate and flag) rather than fail: a returned error is treated
// as a bug, not as a recoverable condition.
type SummarizerPort interface {
	Summarize(ctx context.Context, req SummarizeRequest) (entity.Summary, error)
}

type SummarizeRequest struct {
	Observation  string
	PriorSummary string
	Budget       int
}
