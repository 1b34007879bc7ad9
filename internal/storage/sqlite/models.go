package sqlitestorage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/wargame2d/engine/pkg/core"
)

// EpisodeRow is the header of a recorded episode.
type EpisodeRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	Scenario   string
	Seed       uint64
	GridWidth  int
	GridHeight int
	StartedAt  time.Time
	Initial    datatypes.JSONType[[]core.EntitySnapshot]
	Done       bool
	Winner     string
	Reason     string
}

func (EpisodeRow) TableName() string { return "episodes" }

func (r EpisodeRow) episode() (core.Episode, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return core.Episode{}, fmt.Errorf("episode row has invalid id %q: %w", r.ID, err)
	}
	return core.Episode{
		ID:         id,
		Scenario:   r.Scenario,
		Seed:       r.Seed,
		GridWidth:  r.GridWidth,
		GridHeight: r.GridHeight,
		StartedAt:  r.StartedAt,
		Initial:    r.Initial.Data(),
	}, nil
}

func (r EpisodeRow) outcome() core.Outcome {
	winner, _ := core.ParseTeam(r.Winner)
	return core.Outcome{Done: r.Done, Winner: winner, Reason: core.EndReason(r.Reason)}
}

// TurnRow is one resolved turn. Event lists are stored as JSON columns.
type TurnRow struct {
	ID         uint   `gorm:"primaryKey"`
	EpisodeID  string `gorm:"index:idx_turn_episode,priority:1;size:36"`
	Turn       int    `gorm:"index:idx_turn_episode,priority:2"`
	Kills      int
	Moved      int
	Shots      datatypes.JSONType[[]core.ShotRecord]
	Killed     datatypes.JSONType[[]int]
	Moves      datatypes.JSONType[[]core.MoveRecord]
	Toggles    datatypes.JSONType[[]core.ToggleRecord]
	Rejections datatypes.JSONType[[]core.Rejection]
	AWACSLost  datatypes.JSONType[[]core.Team]
	Outcome    datatypes.JSONType[core.Outcome]
}

func (TurnRow) TableName() string { return "turns" }

// EntityStateRow is one entity after one turn. Position and liveness are
// plain columns so they can be queried directly.
type EntityStateRow struct {
	ID        uint   `gorm:"primaryKey"`
	EpisodeID string `gorm:"index:idx_state_episode,priority:1;size:36"`
	Turn      int    `gorm:"index:idx_state_episode,priority:2"`
	EntityID  int    `gorm:"index"`
	Team      string
	X         int
	Y         int
	Alive     bool
	Snapshot  datatypes.JSONType[core.EntitySnapshot]
}

func (EntityStateRow) TableName() string { return "entity_states" }

// Models lists every table the backend migrates.
var Models = []any{&EpisodeRow{}, &TurnRow{}, &EntityStateRow{}}

func turnRow(episodeID string, res core.StepResult) TurnRow {
	return TurnRow{
		EpisodeID:  episodeID,
		Turn:       res.Turn,
		Kills:      len(res.Killed),
		Moved:      res.MovedCount(),
		Shots:      datatypes.NewJSONType(res.Shots),
		Killed:     datatypes.NewJSONType(res.Killed),
		Moves:      datatypes.NewJSONType(res.Moves),
		Toggles:    datatypes.NewJSONType(res.Toggles),
		Rejections: datatypes.NewJSONType(res.Rejections),
		AWACSLost:  datatypes.NewJSONType(res.AWACSLost),
		Outcome:    datatypes.NewJSONType(res.Outcome),
	}
}

func (r TurnRow) result() core.StepResult {
	return core.StepResult{
		Turn:       r.Turn,
		Shots:      r.Shots.Data(),
		Killed:     r.Killed.Data(),
		Moves:      r.Moves.Data(),
		Toggles:    r.Toggles.Data(),
		Rejections: r.Rejections.Data(),
		AWACSLost:  r.AWACSLost.Data(),
		Outcome:    r.Outcome.Data(),
	}
}

func stateRows(episodeID string, turn int, after []core.EntitySnapshot) []EntityStateRow {
	rows := make([]EntityStateRow, 0, len(after))
	for _, s := range after {
		rows = append(rows, EntityStateRow{
			EpisodeID: episodeID,
			Turn:      turn,
			EntityID:  s.ID,
			Team:      s.Team.String(),
			X:         s.Position.X,
			Y:         s.Position.Y,
			Alive:     s.Alive,
			Snapshot:  datatypes.NewJSONType(s),
		})
	}
	return rows
}
