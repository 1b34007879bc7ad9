// pkg/core/episode.go
package core

import (
	"time"

	"github.com/google/uuid"
)

// Episode identifies one played scenario for recorders.
type Episode struct {
	ID         uuid.UUID        `json:"id"`
	Scenario   string           `json:"scenario"`
	Seed       uint64           `json:"seed"`
	GridWidth  int              `json:"gridWidth"`
	GridHeight int              `json:"gridHeight"`
	StartedAt  time.Time        `json:"startedAt"`
	Initial    []EntitySnapshot `json:"initial"`
}

// NewEpisode stamps a fresh id on the starting frame of a world.
func NewEpisode(scenario string, seed uint64, start Frame, now time.Time) Episode {
	return Episode{
		ID:         uuid.New(),
		Scenario:   scenario,
		Seed:       seed,
		GridWidth:  start.GridWidth,
		GridHeight: start.GridHeight,
		StartedAt:  now,
		Initial:    append([]EntitySnapshot(nil), start.Entities...),
	}
}
