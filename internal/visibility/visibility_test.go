package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wargame2d/engine/internal/entity"
	"github.com/wargame2d/engine/pkg/core"
)

func boolPtr(b bool) *bool { return &b }

func mustEntity(t *testing.T, spec core.EntitySpec) entity.Entity {
	t.Helper()
	e, err := entity.FromSpec(spec)
	require.NoError(t, err)
	return e
}

func aircraft(t *testing.T, id int, team core.Team, x, y int, radar float64) entity.Entity {
	return mustEntity(t, core.EntitySpec{
		ID: id, Team: team, Kind: core.KindAircraft, Pos: [2]int{x, y}, RadarRange: radar,
		Missiles: 4, MissileMaxRange: 4, BaseHitProb: 0.8, MinHitProb: 0.1,
	})
}

func sam(t *testing.T, id int, team core.Team, x, y int, on bool) entity.Entity {
	return mustEntity(t, core.EntitySpec{
		ID: id, Team: team, Kind: core.KindSAM, Pos: [2]int{x, y}, RadarRange: 8,
		Missiles: 6, MissileMaxRange: 6, BaseHitProb: 0.8, MinHitProb: 0.1, CooldownSteps: 5, On: boolPtr(on),
	})
}

func TestBuild_SharedRadar(t *testing.T) {
	x := aircraft(t, 1, core.TeamBlue, 0, 0, 5)
	y := aircraft(t, 2, core.TeamBlue, 19, 12, 1)
	enemy := aircraft(t, 10, core.TeamRed, 3, 3, 1)

	view := Build(core.TeamBlue, 4, []entity.Entity{x, y, enemy})

	assert.Equal(t, core.TeamBlue, view.Team())
	assert.Equal(t, 4, view.Turn())
	assert.Equal(t, []int{1, 2}, view.FriendlyIDs())
	require.True(t, view.CanSee(10), "X covers the enemy, so the whole team sees it")
	obs, _ := view.Enemy(10)
	assert.Equal(t, core.KindAircraft, obs.Kind)
	assert.Equal(t, core.Pos(3, 3), obs.Position)

	// Y alone does not cover it
	assert.False(t, Detected(enemy.Pos(), []entity.Entity{y}))
}

func TestBuild_RadarBoundaryIsInclusive(t *testing.T) {
	friend := aircraft(t, 1, core.TeamBlue, 0, 0, 5)
	onEdge := aircraft(t, 10, core.TeamRed, 3, 4, 1)
	beyond := aircraft(t, 11, core.TeamRed, 4, 4, 1)

	view := Build(core.TeamBlue, 0, []entity.Entity{friend, onEdge, beyond})
	assert.True(t, view.CanSee(10))
	assert.False(t, view.CanSee(11))
}

func TestBuild_StealthedSAMNeverVisible(t *testing.T) {
	friend := aircraft(t, 1, core.TeamBlue, 5, 5, 50)
	dark := sam(t, 20, core.TeamRed, 5, 6, false)
	lit := sam(t, 21, core.TeamRed, 6, 5, true)

	view := Build(core.TeamBlue, 0, []entity.Entity{friend, dark, lit})
	assert.False(t, view.CanSee(20))
	assert.True(t, view.CanSee(21))
}

func TestBuild_DeadUnitsExcluded(t *testing.T) {
	friend := aircraft(t, 1, core.TeamBlue, 0, 0, 5)
	deadFriend := aircraft(t, 2, core.TeamBlue, 10, 10, 5)
	deadFriend.Kill()
	deadEnemy := aircraft(t, 10, core.TeamRed, 1, 1, 1)
	deadEnemy.Kill()
	hidden := aircraft(t, 11, core.TeamRed, 11, 11, 1)

	view := Build(core.TeamBlue, 0, []entity.Entity{friend, deadFriend, deadEnemy, hidden})
	assert.Equal(t, []int{1}, view.FriendlyIDs())
	assert.Empty(t, view.EnemyObservations(), "dead sensors do not see and dead enemies are not seen")
}

func TestBuild_OrderedByID(t *testing.T) {
	friend := aircraft(t, 1, core.TeamBlue, 5, 5, 10)
	units := []entity.Entity{
		aircraft(t, 14, core.TeamRed, 6, 5, 1),
		friend,
		aircraft(t, 9, core.TeamRed, 4, 5, 1),
		aircraft(t, 12, core.TeamRed, 5, 6, 1),
	}
	view := Build(core.TeamBlue, 0, units)

	var ids []int
	for _, e := range view.EnemyObservations() {
		ids = append(ids, e.EntityID)
	}
	assert.Equal(t, []int{9, 12, 14}, ids)
}

func TestTeamView_AccessorsReturnCopies(t *testing.T) {
	friend := aircraft(t, 1, core.TeamBlue, 5, 5, 10)
	enemy := aircraft(t, 9, core.TeamRed, 4, 5, 1)
	view := Build(core.TeamBlue, 0, []entity.Entity{friend, enemy})

	ids := view.FriendlyIDs()
	ids[0] = 99
	obs := view.EnemyObservations()
	obs[0].EntityID = 99

	assert.Equal(t, []int{1}, view.FriendlyIDs())
	assert.True(t, view.CanSee(9))
}
