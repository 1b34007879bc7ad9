// Package legality computes the ordered legal-action list of one entity.
//
// The list is the contract collaborators index into, so its order is fixed:
// WAIT, MOVE in direction order, SHOOT by ascending target id, TOGGLE.
package legality

import (
	"errors"
	"fmt"

	"github.com/wargame2d/engine/internal/entity"
	"github.com/wargame2d/engine/internal/grid"
	"github.com/wargame2d/engine/pkg/core"
)

var (
	// ErrIndexOutOfRange is returned when an index does not address the list.
	ErrIndexOutOfRange = errors.New("action index out of range")
	// ErrActionDrift is returned when the action at an index no longer matches the expected key.
	ErrActionDrift = errors.New("legal-action list changed since the index was chosen")
)

// Options tunes list generation.
type Options struct {
	// Diagonal adds the four diagonal moves after the cardinal ones.
	Diagonal bool
}

// Directions returns the move directions in list order.
func (o Options) Directions() []core.Direction {
	if !o.Diagonal {
		return core.CardinalDirections
	}
	dirs := make([]core.Direction, 0, len(core.CardinalDirections)+len(core.DiagonalDirections))
	dirs = append(dirs, core.CardinalDirections...)
	return append(dirs, core.DiagonalDirections...)
}

// Allowed returns the legal actions of e. Dead entities get an empty list.
// Destination occupancy is not checked here; the resolver owns
// movement conflicts.
func Allowed(e entity.Entity, g grid.Grid, view core.TeamView, opts Options) []core.Action {
	if e == nil || !e.Alive() {
		return nil
	}

	actions := []core.Action{core.Wait()}

	if m, ok := e.(entity.Mover); ok && m.CanMove() {
		for _, d := range opts.Directions() {
			if g.InBounds(e.Pos().Add(d)) {
				actions = append(actions, core.Move(d))
			}
		}
	}

	if s, ok := e.(entity.Shooter); ok && s.CanFire() {
		w := s.Weapon()
		// EnemyObservations is ordered by id
		for _, obs := range view.EnemyObservations() {
			if w.InRange(grid.Distance(e.Pos(), obs.Position)) {
				actions = append(actions, core.Shoot(obs.EntityID))
			}
		}
	}

	if _, ok := e.(entity.Toggler); ok {
		actions = append(actions, core.Toggle())
	}

	return actions
}

// Contains reports whether a matches one of the legal actions by type and parameters.
func Contains(actions []core.Action, a core.Action) bool {
	return IndexOf(actions, a) >= 0
}

// IndexOf returns the position of a in actions, or -1.
func IndexOf(actions []core.Action, a core.Action) int {
	for i, legal := range actions {
		if legal.Equal(a) {
			return i
		}
	}
	return -1
}

// Resolve maps an index chosen from a legal-action list back to the action,
// checking the action's content key when one is given.
func Resolve(actions []core.Action, index int, key string) (core.Action, error) {
	if index < 0 || index >= len(actions) {
		return core.Wait(), fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(actions))
	}
	a := actions[index]
	if key != "" && a.Key() != key {
		return core.Wait(), fmt.Errorf("%w: index %d is %s, expected %s", ErrActionDrift, index, a.Key(), key)
	}
	return a, nil
}
