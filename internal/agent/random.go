package agent

import (
	"context"
	"math/rand/v2"
	"sort"

	"github.com/wargame2d/engine/pkg/core"
)

// Random samples uniformly from each unit's legal actions. It owns its
// random stream so it never perturbs the engine's hit rolls.
type Random struct {
	name string
	team core.Team
	rng  *rand.Rand
}

func NewRandom(name string, team core.Team, seed uint64) *Random {
	return &Random{name: name, team: team, rng: rand.New(rand.NewPCG(seed, seed))}
}

func (a *Random) Name() string    { return a.name }
func (a *Random) Team() core.Team { return a.team }

func (a *Random) Decide(_ context.Context, obs Observation) (map[int]Choice, error) {
	ids := make([]int, 0, len(obs.Legal))
	for id := range obs.Legal {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make(map[int]Choice, len(ids))
	for _, id := range ids {
		legal := obs.Legal[id]
		if len(legal) == 0 {
			continue
		}
		out[id] = ChoiceOf(legal, a.rng.IntN(len(legal)))
	}
	return out, nil
}
