package world

import (
	"fmt"
	"log/slog"

	"github.com/wargame2d/engine/internal/combat"
	"github.com/wargame2d/engine/internal/entity"
	"github.com/wargame2d/engine/pkg/core"
)

// Step resolves one simultaneous turn. actions maps entity id to the chosen
// action; living entities without an entry wait. On error the world, its
// turn counter and its random stream are left exactly as before the call.
func (w *World) Step(actions map[int]core.Action) (result core.StepResult, err error) {
	if w.outcome.Done {
		return core.StepResult{}, ErrEpisodeOver
	}
	for _, team := range core.Teams {
		if !w.hasLiving(team) {
			return core.StepResult{}, fmt.Errorf("%w: %s", ErrTeamEliminated, team)
		}
	}

	rngState, err := w.pcg.MarshalBinary()
	if err != nil {
		return core.StepResult{}, fmt.Errorf("snapshot rng: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternalFault, r)
		}
		if err != nil {
			if rerr := w.pcg.UnmarshalBinary(rngState); rerr != nil {
				w.log.Error("failed to restore rng state", "error", rerr)
			}
			result = core.StepResult{}
		}
	}()

	legal := make(map[int][]core.Action)
	for _, team := range core.Teams {
		for id, list := range w.LegalActions(team) {
			legal[id] = list
		}
	}

	work := make([]entity.Entity, len(w.units))
	for i, u := range w.units {
		work[i] = u.Clone()
	}

	result, err = w.resolver.Resolve(combat.Turn{
		Number:  w.turn + 1,
		Grid:    w.grid,
		Units:   work,
		Legal:   legal,
		Actions: actions,
	})
	if err != nil {
		return core.StepResult{}, err
	}

	turn := w.turn + 1
	prog := w.progress.after(result)
	result.Outcome = w.judge(work, turn, prog)
	byID := index(work)
	entry := result.Clone()
	w.metrics.record(result)

	// commit
	w.units, w.byID = work, byID
	w.turn = turn
	w.progress = prog
	w.outcome = result.Outcome
	w.history = append(w.history, entry)

	w.log.Debug("turn resolved",
		"turn", w.turn,
		"shots", len(result.Shots),
		"kills", len(result.Killed),
		"moved", result.MovedCount(),
		"rejected", len(result.Rejections),
	)
	if w.outcome.Done {
		w.log.Info("episode finished",
			"turn", w.turn,
			"winner", w.outcome.Winner,
			"reason", w.outcome.Reason,
		)
	}
	return result, nil
}

func (w *World) hasLiving(team core.Team) bool {
	for _, u := range w.units {
		if u.Team() == team && u.Alive() {
			return true
		}
	}
	return false
}

// LogAttrs exposes the current turn for context-aware log handlers.
func (w *World) LogAttrs() []slog.Attr {
	return []slog.Attr{slog.Int("turn", w.turn)}
}
