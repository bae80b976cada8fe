package output

import "webtask-agent/internal/domain/entity"

// PromptPort renders the instruction configuration into transcript
// pieces. Loaded once at episode start and immutable afterwards.
type PromptPort interface {
	// Preamble returns the protected message prefix: the system
	// instruction, the few-shot examples and the objective.
	Preamble(objective string) []entity.Message

	// TurnHeader renders the per-turn context block shown above an
	// observation (current URL, error message from the previous
	// action).
	TurnHeader(url, errorMessage string) string
}
