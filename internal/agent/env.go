package agent

import (
	"math"

	"github.com/wargame2d/engine/internal/entity"
	"github.com/wargame2d/engine/internal/grid"
	"github.com/wargame2d/engine/pkg/core"
)

// NoContact is the distance reported when nothing relevant is visible.
const NoContact = 1e9

// UnitInfo is the acting unit as seen from doctrine expressions.
type UnitInfo struct {
	ID       int
	Kind     string
	X, Y     int
	Missiles int
	RadarOn  bool
	Cooldown int
	CanShoot bool
	CanMove  bool
}

// TargetInfo describes the enemy a SHOOT candidate aims at.
type TargetInfo struct {
	ID        int
	Kind      string
	HighValue bool
	Distance  float64
}

// ActionEnv is evaluated once per candidate action. Fields that do not
// apply to the candidate hold their zero value.
type ActionEnv struct {
	Turn           int
	Unit           UnitInfo
	Action         string
	Dir            string
	Target         TargetInfo
	HitProb        float64
	EnemiesVisible int
	NearestEnemy   float64
	NearestThreat  float64
	// Closer is set for moves toward the nearest visible enemy, or toward
	// the enemy side of the map when none is visible.
	Closer bool
	// Farther is set for moves away from the nearest visible threat.
	Farther bool
}

func (e ActionEnv) IsKind(k string) bool { return e.Unit.Kind == k }

func unitInfo(s core.EntitySnapshot) UnitInfo {
	return UnitInfo{
		ID:       s.ID,
		Kind:     s.Kind.String(),
		X:        s.Position.X,
		Y:        s.Position.Y,
		Missiles: s.Missiles,
		RadarOn:  s.RadarOn,
		Cooldown: s.Cooldown,
		CanShoot: s.CanShoot,
		CanMove:  s.CanMove,
	}
}

func isThreat(k core.Kind) bool {
	return k == core.KindAircraft || k == core.KindSAM
}

func nearest(from core.Position, enemies []core.EnemyObservation, filter func(core.Kind) bool) (core.Position, float64) {
	best, bestPos := NoContact, from
	for _, e := range enemies {
		if filter != nil && !filter(e.Kind) {
			continue
		}
		if d := grid.Distance(from, e.Position); d < best {
			best, bestPos = d, e.Position
		}
	}
	return bestPos, best
}

func buildEnv(obs Observation, unit core.EntitySnapshot, a core.Action) ActionEnv {
	enemies := obs.View.EnemyObservations()
	enemyPos, enemyDist := nearest(unit.Position, enemies, nil)
	threatPos, threatDist := nearest(unit.Position, enemies, isThreat)

	env := ActionEnv{
		Turn:           obs.Turn,
		Unit:           unitInfo(unit),
		Action:         a.Type.String(),
		EnemiesVisible: len(enemies),
		NearestEnemy:   enemyDist,
		NearestThreat:  threatDist,
	}

	switch a.Type {
	case core.ActionMove:
		env.Dir = a.Direction.String()
		dest := unit.Position.Add(a.Direction)
		if enemyDist < NoContact {
			env.Closer = grid.Distance(dest, enemyPos) < enemyDist
		} else {
			dx := dest.X - unit.Position.X
			env.Closer = (obs.View.Team() == core.TeamBlue && dx > 0) || (obs.View.Team() == core.TeamRed && dx < 0)
		}
		if threatDist < NoContact {
			env.Farther = grid.Distance(dest, threatPos) > threatDist
		}
	case core.ActionShoot:
		target, ok := obs.View.Enemy(a.TargetID)
		if !ok {
			break
		}
		d := grid.Distance(unit.Position, target.Position)
		env.Target = TargetInfo{
			ID:        target.EntityID,
			Kind:      target.Kind.String(),
			HighValue: target.Kind.IsHighValue(),
			Distance:  d,
		}
		w := entity.Weapon{
			Missiles:    unit.Missiles,
			MaxRange:    unit.MissileMaxRange,
			BaseHitProb: unit.BaseHitProb,
			MinHitProb:  unit.MinHitProb,
		}
		env.HitProb = math.Round(w.HitProbability(d)*1e6) / 1e6
	}
	return env
}
