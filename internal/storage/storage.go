// internal/storage/storage.go
package storage

import (
	"io"

	"github.com/wargame2d/engine/pkg/core"
)

// Backend records the turn history of one episode at a time. Backends keep
// everything in process memory.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Episode management; StartEpisode discards the previous episode.
	StartEpisode(ep core.Episode) error
	EndEpisode(outcome core.Outcome) error

	// RecordTurn stores a resolved turn and the entity states after it.
	RecordTurn(res core.StepResult, after []core.EntitySnapshot) error

	// Turns returns the recorded results in turn order.
	Turns() ([]core.StepResult, error)
}

// Exporter is implemented by backends that can render a replay document.
type Exporter interface {
	WriteReplay(w io.Writer, compress bool) error
}

// LossCounter is implemented by backends that can count a team's dead
// entities from the stored state rows.
type LossCounter interface {
	Losses(team core.Team) (int64, error)
}
