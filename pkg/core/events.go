// pkg/core/events.go
package core

import "slices"

// RejectReason explains why a submitted action was downgraded to WAIT.
type RejectReason string

const (
	RejectEntityDead    RejectReason = "entity_dead"
	RejectNotLegal      RejectReason = "not_legal"
	RejectNoLegalAction RejectReason = "no_legal_actions"
	RejectMalformed     RejectReason = "malformed"
)

// ShotReason annotates shots that could not produce a kill.
type ShotReason string

const (
	ShotResolved          ShotReason = ""
	ShotTargetAlreadyDead ShotReason = "target_already_dead"
)

// ShotRecord is the outcome of one SHOOT action.
// Success means a roll was made against a living target; Hit is the roll result.
type ShotRecord struct {
	AttackerID     int        `json:"attackerId"`
	TargetID       int        `json:"targetId"`
	Distance       float64    `json:"distance"`
	HitProbability float64    `json:"hitProbability"`
	Success        bool       `json:"success"`
	Hit            bool       `json:"hit"`
	TargetKilled   bool       `json:"targetKilled"`
	Reason         ShotReason `json:"reason,omitempty"`
}

// MoveRecord is the outcome of one MOVE action.
type MoveRecord struct {
	EntityID  int       `json:"entityId"`
	Direction Direction `json:"dir"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Blocked   bool      `json:"blocked"`
	BlockedBy int       `json:"blockedBy,omitempty"`
}

// ToggleRecord is the outcome of one SAM TOGGLE action.
type ToggleRecord struct {
	EntityID int  `json:"entityId"`
	On       bool `json:"on"`
}

// Rejection records a submitted action that was downgraded to WAIT.
type Rejection struct {
	EntityID int          `json:"entityId"`
	Action   Action       `json:"action"`
	Reason   RejectReason `json:"reason"`
}

// EndReason names the rule that finished an episode.
type EndReason string

const (
	EndNone              EndReason = ""
	EndAWACSDestroyed    EndReason = "awacs_destroyed"
	EndMaxTurns          EndReason = "max_turns"
	EndStalemate         EndReason = "stalemate"
	EndNoMovement        EndReason = "no_movement"
	EndMissileExhaustion EndReason = "missile_exhaustion"
)

// Outcome is the episode status after a turn. Winner is TeamNone for a draw
// or while the episode is still running.
type Outcome struct {
	Done   bool      `json:"done"`
	Winner Team      `json:"winner"`
	Reason EndReason `json:"reason,omitempty"`
}

// Draw reports whether the episode finished without a winner.
func (o Outcome) Draw() bool {
	return o.Done && o.Winner == TeamNone
}

// StepResult is the combat resolution result of one turn. It is built once
// by the engine and must be treated as immutable by consumers.
type StepResult struct {
	Turn       int            `json:"turn"`
	Shots      []ShotRecord   `json:"shots"`
	Killed     []int          `json:"killedEntityIds"`
	Moves      []MoveRecord   `json:"moves"`
	Toggles    []ToggleRecord `json:"toggles"`
	Rejections []Rejection    `json:"rejections"`
	AWACSLost  []Team         `json:"awacsLost,omitempty"`
	Outcome    Outcome        `json:"outcome"`
}

// Kills returns only the shots that killed their target.
func (r StepResult) Kills() []ShotRecord {
	var out []ShotRecord
	for _, s := range r.Shots {
		if s.TargetKilled {
			out = append(out, s)
		}
	}
	return out
}

// MovedCount is the number of moves that were not blocked.
func (r StepResult) MovedCount() int {
	n := 0
	for _, m := range r.Moves {
		if !m.Blocked {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so history consumers cannot alias engine slices.
func (r StepResult) Clone() StepResult {
	c := r
	c.Shots = slices.Clone(r.Shots)
	c.Killed = slices.Clone(r.Killed)
	c.Moves = slices.Clone(r.Moves)
	c.Toggles = slices.Clone(r.Toggles)
	c.Rejections = slices.Clone(r.Rejections)
	c.AWACSLost = slices.Clone(r.AWACSLost)
	return c
}
