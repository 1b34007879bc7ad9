package combat

import (
	"sort"

	"github.com/wargame2d/engine/internal/entity"
	"github.com/wargame2d/engine/pkg/core"
)

type pendingMove struct {
	unit entity.Entity
	dir  core.Direction
	dest core.Position
}

// resolveMoves applies first-committed-wins in ascending entity id.
//
// A destination is free when no living unit currently stands on it. Movers
// still waiting to resolve keep their start cell, so repeated passes let a
// column of units follow each other while swaps and contested cells stay
// blocked. Units never share a cell after this returns.
func resolveMoves(units []entity.Entity, moves []pendingMove) []core.MoveRecord {
	occupant := make(map[core.Position]int, len(units))
	for _, u := range units {
		if u.Alive() {
			occupant[u.Pos()] = u.ID()
		}
	}

	pending := append([]pendingMove(nil), moves...)
	sort.Slice(pending, func(i, j int) bool { return pending[i].unit.ID() < pending[j].unit.ID() })

	records := make(map[int]core.MoveRecord, len(pending))
	for progress := true; progress && len(pending) > 0; {
		progress = false
		var next []pendingMove
		// cells a lower id is still waiting for cannot be claimed in this pass
		wanted := make(map[core.Position]bool)
		for _, m := range pending {
			if _, taken := occupant[m.dest]; taken || wanted[m.dest] {
				wanted[m.dest] = true
				next = append(next, m)
				continue
			}
			from := m.unit.Pos()
			delete(occupant, from)
			occupant[m.dest] = m.unit.ID()
			m.unit.MoveTo(m.dest)
			records[m.unit.ID()] = core.MoveRecord{EntityID: m.unit.ID(), Direction: m.dir, From: from, To: m.dest}
			progress = true
		}
		pending = next
	}

	for _, m := range pending {
		records[m.unit.ID()] = core.MoveRecord{
			EntityID:  m.unit.ID(),
			Direction: m.dir,
			From:      m.unit.Pos(),
			To:        m.unit.Pos(),
			Blocked:   true,
			BlockedBy: occupant[m.dest],
		}
	}

	out := make([]core.MoveRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}
