// Package combat resolves one turn of submitted actions against the world's
// entities: validation, movement, shooting, then cooldown cleanup.
package combat

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/wargame2d/engine/internal/entity"
	"github.com/wargame2d/engine/internal/grid"
	"github.com/wargame2d/engine/internal/legality"
	"github.com/wargame2d/engine/pkg/core"
)

var (
	// ErrUnknownEntity is returned when an action references an id that was never in the world.
	ErrUnknownEntity = errors.New("unknown entity id")
	// ErrInvalidProbability is returned if a computed hit probability leaves [0,1].
	ErrInvalidProbability = errors.New("hit probability out of range")
)

// Turn is the input of one resolution pass. Units are mutated in place, so
// callers that need atomicity pass copies.
type Turn struct {
	Number  int
	Grid    grid.Grid
	Units   []entity.Entity
	Legal   map[int][]core.Action
	Actions map[int]core.Action
}

// Resolver owns the random stream used for hit rolls. Rolls are consumed in
// ascending shooter id, one per shot at a living target.
type Resolver struct {
	rng *rand.Rand
	log *slog.Logger
}

// NewResolver returns a resolver drawing from rng. A nil logger discards.
func NewResolver(rng *rand.Rand, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Resolver{rng: rng, log: log}
}

type pendingShot struct {
	shooter entity.Shooter
	target  entity.Entity
}

type accepted struct {
	moves   []pendingMove
	shots   []pendingShot
	toggles []entity.Toggler
}

// Resolve runs the four phases and returns the turn's result. Errors are
// structural (unknown ids) and are raised before any unit is touched.
func (r *Resolver) Resolve(t Turn) (core.StepResult, error) {
	byID := make(map[int]entity.Entity, len(t.Units))
	for _, u := range t.Units {
		byID[u.ID()] = u
	}

	if err := checkReferences(t.Actions, byID); err != nil {
		return core.StepResult{}, err
	}

	result := core.StepResult{
		Turn:       t.Number,
		Shots:      []core.ShotRecord{},
		Killed:     []int{},
		Moves:      []core.MoveRecord{},
		Toggles:    []core.ToggleRecord{},
		Rejections: []core.Rejection{},
	}

	acc := r.validate(t, byID, &result)

	result.Moves = resolveMoves(t.Units, acc.moves)

	if err := r.resolveShots(acc.shots, &result); err != nil {
		return core.StepResult{}, err
	}

	for _, tg := range acc.toggles {
		tg.Toggle()
		result.Toggles = append(result.Toggles, core.ToggleRecord{EntityID: tg.ID(), On: tg.RadarOn()})
	}

	for _, u := range t.Units {
		if c, ok := u.(entity.Cooler); ok {
			c.TickCooldown()
		}
	}

	result.AWACSLost = awacsLost(result.Killed, byID)
	return result, nil
}

func checkReferences(actions map[int]core.Action, byID map[int]entity.Entity) error {
	for _, id := range sortedIDs(actions) {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("%w: actor %d", ErrUnknownEntity, id)
		}
		a := actions[id]
		if a.Type == core.ActionShoot {
			if _, ok := byID[a.TargetID]; !ok {
				return fmt.Errorf("%w: shot target %d from %d", ErrUnknownEntity, a.TargetID, id)
			}
		}
	}
	return nil
}

// validate keeps only actions present in the actor's legal list and logs
// everything else as a rejection; rejected actions behave as WAIT.
func (r *Resolver) validate(t Turn, byID map[int]entity.Entity, result *core.StepResult) accepted {
	var acc accepted
	for _, id := range sortedIDs(t.Actions) {
		e := byID[id]
		raw := t.Actions[id]
		if !raw.Type.Valid() {
			// recorded as WAIT so turn logs stay decodable
			result.Rejections = append(result.Rejections, core.Rejection{EntityID: id, Action: core.Wait(), Reason: core.RejectMalformed})
			r.log.Debug("action rejected", "entity", id, "type", uint8(raw.Type), "reason", core.RejectMalformed)
			continue
		}
		a := raw.Normalized()

		var reason core.RejectReason
		legal := t.Legal[id]
		switch {
		case !e.Alive():
			reason = core.RejectEntityDead
		case len(legal) == 0:
			reason = core.RejectNoLegalAction
		case !legality.Contains(legal, a):
			reason = core.RejectNotLegal
		}
		if reason != "" {
			result.Rejections = append(result.Rejections, core.Rejection{EntityID: id, Action: a, Reason: reason})
			r.log.Debug("action rejected", "entity", id, "action", a.Key(), "reason", reason)
			continue
		}

		switch a.Type {
		case core.ActionMove:
			acc.moves = append(acc.moves, pendingMove{unit: e, dir: a.Direction, dest: e.Pos().Add(a.Direction)})
		case core.ActionShoot:
			// legality guarantees the actor is a Shooter
			acc.shots = append(acc.shots, pendingShot{shooter: e.(entity.Shooter), target: byID[a.TargetID]})
		case core.ActionToggle:
			acc.toggles = append(acc.toggles, e.(entity.Toggler))
		}
	}
	return acc
}

func (r *Resolver) resolveShots(shots []pendingShot, result *core.StepResult) error {
	killed := make(map[int]bool)
	for _, s := range shots {
		w := s.shooter.Weapon()
		dist := grid.Distance(s.shooter.Pos(), s.target.Pos())
		s.shooter.Fire()

		rec := core.ShotRecord{
			AttackerID: s.shooter.ID(),
			TargetID:   s.target.ID(),
			Distance:   dist,
		}

		if killed[s.target.ID()] || !s.target.Alive() {
			rec.Reason = core.ShotTargetAlreadyDead
			result.Shots = append(result.Shots, rec)
			continue
		}

		p := w.HitProbability(dist)
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %.4f for shooter %d", ErrInvalidProbability, p, s.shooter.ID())
		}
		rec.HitProbability = p
		rec.Success = true
		rec.Hit = r.rng.Float64() < p

		if rec.Hit {
			s.target.Kill()
			killed[s.target.ID()] = true
			rec.TargetKilled = true
			result.Killed = append(result.Killed, s.target.ID())
			r.log.Info("target destroyed",
				"attacker", s.shooter.ID(),
				"target", s.target.ID(),
				"targetKind", s.target.Kind().String(),
				"distance", dist,
				"probability", p,
			)
		}
		result.Shots = append(result.Shots, rec)
	}
	sort.Ints(result.Killed)
	return nil
}

func awacsLost(killed []int, byID map[int]entity.Entity) []core.Team {
	lost := make(map[core.Team]bool)
	for _, id := range killed {
		if e := byID[id]; e.Kind() == core.KindAWACS {
			lost[e.Team()] = true
		}
	}
	var out []core.Team
	for _, team := range core.Teams {
		if lost[team] {
			out = append(out, team)
		}
	}
	return out
}

func sortedIDs(actions map[int]core.Action) []int {
	ids := make([]int, 0, len(actions))
	for id := range actions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
