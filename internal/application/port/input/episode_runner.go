package input

import (
	"context"

	"webtask-agent/internal/domain/entity"
)

// EpisodeRunner drives one task from its initial observation to
// termination.
type EpisodeRunner interface {
	Run(ctx context.Context, objective, initialObservation string) (*entity.EpisodeResult, error)
}
