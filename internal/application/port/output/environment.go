package output

import (
	"context"

	"webtask-agent/internal/domain/entity"
)

// EnvironmentPort executes a validated action against the page and
// returns the resulting raw observation. Recoverable failures
// ("element not found" and the like) come back as plain errors and
// are surfaced to the model as observations; only an
// *entity.FatalEnvironmentError aborts the episode.
type EnvironmentPort interface {
	Execute(ctx context.Context, action entity.Action) (string, error)

	// CurrentURL reports the page location for prompt rendering.
	CurrentURL() string

	Close()
}
