// pkg/core/view.go
package core

import "encoding/json"

// EnemyObservation is what a team knows about one detected enemy.
type EnemyObservation struct {
	EntityID int      `json:"id"`
	Kind     Kind     `json:"kind"`
	Position Position `json:"pos"`
}

// TeamView is the per-team, per-turn visibility snapshot. It is derived
// fresh every time and never patched; accessors hand out copies.
type TeamView struct {
	team     Team
	turn     int
	friendly []int
	enemies  []EnemyObservation
}

// NewTeamView copies the given slices so later mutation by the caller cannot leak in.
func NewTeamView(team Team, turn int, friendly []int, enemies []EnemyObservation) TeamView {
	return TeamView{
		team:     team,
		turn:     turn,
		friendly: append([]int(nil), friendly...),
		enemies:  append([]EnemyObservation(nil), enemies...),
	}
}

func (v TeamView) Team() Team { return v.team }

func (v TeamView) Turn() int { return v.turn }

// FriendlyIDs returns the ids of all living units of the team.
func (v TeamView) FriendlyIDs() []int {
	return append([]int(nil), v.friendly...)
}

// EnemyObservations returns the detected enemies ordered by id.
func (v TeamView) EnemyObservations() []EnemyObservation {
	return append([]EnemyObservation(nil), v.enemies...)
}

// Enemy looks up a detected enemy by id.
func (v TeamView) Enemy(id int) (EnemyObservation, bool) {
	for _, e := range v.enemies {
		if e.EntityID == id {
			return e, true
		}
	}
	return EnemyObservation{}, false
}

// CanSee reports whether the enemy with the given id is currently detected.
func (v TeamView) CanSee(id int) bool {
	_, ok := v.Enemy(id)
	return ok
}

type teamViewJSON struct {
	Team     Team               `json:"team"`
	Turn     int                `json:"turn"`
	Friendly []int              `json:"friendlyIds"`
	Enemies  []EnemyObservation `json:"enemies"`
}

func (v TeamView) MarshalJSON() ([]byte, error) {
	out := teamViewJSON{Team: v.team, Turn: v.turn, Friendly: v.friendly, Enemies: v.enemies}
	if out.Friendly == nil {
		out.Friendly = []int{}
	}
	if out.Enemies == nil {
		out.Enemies = []EnemyObservation{}
	}
	return json.Marshal(out)
}
