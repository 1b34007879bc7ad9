package replay

import (
	"time"

	"github.com/wargame2d/engine/pkg/core"
)

// Version is bumped whenever the document layout changes.
const Version = 1

// Replay is the exported document of one episode.
type Replay struct {
	Version    int               `json:"version"`
	EpisodeID  string            `json:"episodeId"`
	Scenario   string            `json:"scenario"`
	Seed       uint64            `json:"seed"`
	GridWidth  int               `json:"gridWidth"`
	GridHeight int               `json:"gridHeight"`
	StartedAt  time.Time         `json:"startedAt"`
	TurnCount  int               `json:"turnCount"`
	Outcome    core.Outcome      `json:"outcome"`
	Entities   []Entity          `json:"entities"`
	Turns      []core.StepResult `json:"turns"`
}

// Entity is one unit's life over the episode. Track is the WKT geometry of
// its path; a unit that never moved has a POINT track.
type Entity struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Team        core.Team `json:"team"`
	Kind        core.Kind `json:"kind"`
	Positions   [][2]int  `json:"positions"`
	Track       string    `json:"track"`
	PathLength  float64   `json:"pathLength"`
	ShotsFired  int       `json:"shotsFired"`
	Kills       int       `json:"kills"`
	DestroyedAt int       `json:"destroyedAt,omitempty"`
}
