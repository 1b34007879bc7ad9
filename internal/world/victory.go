package world

import (
	"github.com/wargame2d/engine/internal/entity"
	"github.com/wargame2d/engine/pkg/core"
)

// progress counts consecutive turns without kills and without movement.
type progress struct {
	noKill int
	noMove int
}

func (p progress) after(res core.StepResult) progress {
	if len(res.Killed) == 0 {
		p.noKill++
	} else {
		p.noKill = 0
	}
	if res.MovedCount() == 0 {
		p.noMove++
	} else {
		p.noMove = 0
	}
	return p
}

// judge applies the end conditions in priority order to units after turn.
// AWACS loss is decisive; every other rule ends the episode in a draw. It
// does not touch the world.
func (w *World) judge(units []entity.Entity, turn int, p progress) core.Outcome {
	blueDown := !hasLivingAWACS(units, core.TeamBlue)
	redDown := !hasLivingAWACS(units, core.TeamRed)
	switch {
	case blueDown && redDown:
		return ended(core.TeamNone, core.EndAWACSDestroyed)
	case blueDown:
		return ended(core.TeamRed, core.EndAWACSDestroyed)
	case redDown:
		return ended(core.TeamBlue, core.EndAWACSDestroyed)
	case w.cfg.MaxTurns > 0 && turn >= w.cfg.MaxTurns:
		return ended(core.TeamNone, core.EndMaxTurns)
	case w.cfg.MaxStalemateTurns > 0 && p.noKill >= w.cfg.MaxStalemateTurns:
		return ended(core.TeamNone, core.EndStalemate)
	case w.cfg.MaxNoMoveTurns > 0 && p.noMove >= w.cfg.MaxNoMoveTurns:
		return ended(core.TeamNone, core.EndNoMovement)
	case w.cfg.CheckMissileExhaustion && !anyMissilesLeft(units):
		return ended(core.TeamNone, core.EndMissileExhaustion)
	}
	return core.Outcome{}
}

func ended(winner core.Team, reason core.EndReason) core.Outcome {
	return core.Outcome{Done: true, Winner: winner, Reason: reason}
}

func hasLivingAWACS(units []entity.Entity, team core.Team) bool {
	for _, u := range units {
		if u.Team() == team && u.Kind() == core.KindAWACS && u.Alive() {
			return true
		}
	}
	return false
}

func anyMissilesLeft(units []entity.Entity) bool {
	for _, u := range units {
		if !u.Alive() {
			continue
		}
		if s, ok := u.(entity.Shooter); ok && s.Weapon().Missiles > 0 {
			return true
		}
	}
	return false
}
