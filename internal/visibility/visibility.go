// Package visibility derives the shared-radar TeamView of one side.
package visibility

import (
	"sort"

	"github.com/wargame2d/engine/internal/entity"
	"github.com/wargame2d/engine/internal/grid"
	"github.com/wargame2d/engine/pkg/core"
)

// Build computes team's view from scratch. An enemy is detected when it is
// alive, not a radar-off SAM, and inside the radar range of at least one
// living friendly; detection by one friendly is shared with the whole team.
func Build(team core.Team, turn int, units []entity.Entity) core.TeamView {
	var friendly []entity.Entity
	for _, u := range units {
		if u.Alive() && u.Team() == team {
			friendly = append(friendly, u)
		}
	}

	friendlyIDs := make([]int, 0, len(friendly))
	for _, f := range friendly {
		friendlyIDs = append(friendlyIDs, f.ID())
	}
	sort.Ints(friendlyIDs)

	var enemies []core.EnemyObservation
	for _, u := range units {
		if !u.Alive() || u.Team() == team || u.Team() == core.TeamNone {
			continue
		}
		if entity.Stealthed(u) {
			continue
		}
		if Detected(u.Pos(), friendly) {
			enemies = append(enemies, core.EnemyObservation{
				EntityID: u.ID(),
				Kind:     u.Kind(),
				Position: u.Pos(),
			})
		}
	}
	sort.Slice(enemies, func(i, j int) bool {
		return enemies[i].EntityID < enemies[j].EntityID
	})

	return core.NewTeamView(team, turn, friendlyIDs, enemies)
}

// Detected reports whether any of the sensors covers target.
func Detected(target core.Position, sensors []entity.Entity) bool {
	for _, s := range sensors {
		if !s.Alive() {
			continue
		}
		if grid.Distance(s.Pos(), target) <= s.RadarRange() {
			return true
		}
	}
	return false
}
