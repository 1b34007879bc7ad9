package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wargame2d/engine/pkg/core"
)

var (
	_ Mover   = (*AWACS)(nil)
	_ Mover   = (*Decoy)(nil)
	_ Mover   = (*Aircraft)(nil)
	_ Shooter = (*Aircraft)(nil)
	_ Shooter = (*SAM)(nil)
	_ Toggler = (*SAM)(nil)
	_ Cooler  = (*SAM)(nil)
)

func boolPtr(b bool) *bool { return &b }

func samSpec() core.EntitySpec {
	return core.EntitySpec{
		ID: 7, Team: core.TeamBlue, Kind: core.KindSAM, Pos: [2]int{4, 11},
		RadarRange: 8, Missiles: 6, MissileMaxRange: 6, BaseHitProb: 0.8, MinHitProb: 0.1,
		CooldownSteps: 5, On: boolPtr(true),
	}
}

func TestFromSpec_Kinds(t *testing.T) {
	awacs, err := FromSpec(core.EntitySpec{ID: 1, Team: core.TeamBlue, Kind: core.KindAWACS, Pos: [2]int{4, 6}, RadarRange: 9})
	require.NoError(t, err)
	assert.IsType(t, &AWACS{}, awacs)
	assert.True(t, awacs.Alive())
	assert.Equal(t, core.Pos(4, 6), awacs.Pos())
	_, armed := awacs.(Shooter)
	assert.False(t, armed)

	sam, err := FromSpec(samSpec())
	require.NoError(t, err)
	_, mobile := sam.(Mover)
	assert.False(t, mobile, "SAM must not be a Mover")

	decoy, err := FromSpec(core.EntitySpec{ID: 5, Team: core.TeamRed, Kind: core.KindDecoy, RadarRange: 2})
	require.NoError(t, err)
	assert.Equal(t, "RED DECOY 5", decoy.Name())
}

func TestFromSpec_Rejects(t *testing.T) {
	tests := []struct {
		name string
		spec core.EntitySpec
		want error
	}{
		{"no team", core.EntitySpec{ID: 1, Kind: core.KindAWACS}, ErrInvalidEntity},
		{"unknown kind", core.EntitySpec{ID: 1, Team: core.TeamRed}, ErrInvalidEntity},
		{"armed awacs", core.EntitySpec{ID: 1, Team: core.TeamRed, Kind: core.KindAWACS, CanShoot: boolPtr(true)}, ErrInvalidEntity},
		{"mobile sam", func() core.EntitySpec { s := samSpec(); s.CanMove = boolPtr(true); return s }(), ErrInvalidEntity},
		{"base above one", core.EntitySpec{ID: 2, Team: core.TeamBlue, Kind: core.KindAircraft, MissileMaxRange: 4, BaseHitProb: 1.2}, ErrInvalidProbability},
		{"min above base", core.EntitySpec{ID: 2, Team: core.TeamBlue, Kind: core.KindAircraft, MissileMaxRange: 4, BaseHitProb: 0.3, MinHitProb: 0.5}, ErrInvalidProbability},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSpec(tt.spec)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSAM_FireStartsCooldown(t *testing.T) {
	e, err := FromSpec(samSpec())
	require.NoError(t, err)
	sam := e.(*SAM)

	require.True(t, sam.CanFire())
	sam.Fire()
	assert.Equal(t, 5, sam.Missiles())
	assert.Equal(t, 5, sam.Cooldown())
	assert.False(t, sam.CanFire())

	// the firing turn's cleanup leaves the fresh cooldown alone
	sam.TickCooldown()
	assert.Equal(t, 5, sam.Cooldown())

	for i := 0; i < 5; i++ {
		sam.TickCooldown()
	}
	assert.Equal(t, 0, sam.Cooldown())
	assert.True(t, sam.CanFire())

	sam.TickCooldown()
	assert.Equal(t, 0, sam.Cooldown())
}

func TestSAM_RadarOffBlocksFire(t *testing.T) {
	e, err := FromSpec(samSpec())
	require.NoError(t, err)
	sam := e.(*SAM)

	sam.Toggle()
	assert.False(t, sam.RadarOn())
	assert.True(t, Stealthed(sam))
	assert.False(t, sam.CanFire())
	assert.False(t, sam.Snapshot().RadarOn)

	sam.Toggle()
	assert.False(t, Stealthed(sam))
	assert.True(t, sam.CanFire())
}

func TestClone_IsIndependent(t *testing.T) {
	e, err := FromSpec(core.EntitySpec{
		ID: 3, Team: core.TeamBlue, Kind: core.KindAircraft, Pos: [2]int{7, 6},
		RadarRange: 5, Missiles: 4, MissileMaxRange: 4, BaseHitProb: 0.8, MinHitProb: 0.1,
	})
	require.NoError(t, err)

	c := e.Clone()
	c.MoveTo(core.Pos(8, 6))
	c.(Shooter).Fire()
	c.Kill()

	assert.Equal(t, core.Pos(7, 6), e.Pos())
	assert.Equal(t, 4, e.Snapshot().Missiles)
	assert.True(t, e.Alive())
	assert.Equal(t, 3, c.Snapshot().Missiles)
}

func TestAircraft_OutOfAmmo(t *testing.T) {
	e, err := FromSpec(core.EntitySpec{
		ID: 3, Team: core.TeamBlue, Kind: core.KindAircraft,
		Missiles: 1, MissileMaxRange: 4, BaseHitProb: 0.8, MinHitProb: 0.1,
	})
	require.NoError(t, err)
	a := e.(*Aircraft)

	require.True(t, a.CanFire())
	a.Fire()
	assert.False(t, a.CanFire())
	a.Fire()
	assert.Equal(t, 0, a.Weapon().Missiles)
}
