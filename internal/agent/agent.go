// Package agent holds the policies that drive a team in headless runs.
// Agents only choose among legal actions; they never resolve anything.
package agent

import (
	"context"
	"fmt"

	"github.com/wargame2d/engine/pkg/core"
)

// Observation is what a team knows at the start of a turn.
type Observation struct {
	Turn  int
	View  core.TeamView
	Units []core.EntitySnapshot // own living units, ascending id
	Legal map[int][]core.Action
}

// Choice names an entry of a unit's legal-action list by index, paired
// with the entry's content key so drift can be detected on submission.
type Choice struct {
	Index int
	Key   string
}

// ChoiceOf builds the choice for legal[index].
func ChoiceOf(legal []core.Action, index int) Choice {
	return Choice{Index: index, Key: legal[index].Key()}
}

// Agent picks one entry per unit. Units left out of the map wait.
type Agent interface {
	Name() string
	Team() core.Team
	Decide(ctx context.Context, obs Observation) (map[int]Choice, error)
}

// New builds the agent described by a scenario record.
func New(spec core.AgentSpec) (Agent, error) {
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", spec.Team, spec.Type)
	}
	switch spec.Type {
	case "random":
		return NewRandom(name, spec.Team, spec.Seed), nil
	case "doctrine":
		rules := DefaultDoctrine()
		if spec.Doctrine != "" {
			var err error
			rules, err = LoadDoctrine(spec.Doctrine)
			if err != nil {
				return nil, err
			}
		}
		return NewDoctrine(name, spec.Team, rules)
	case "wait", "idle":
		return NewIdle(name, spec.Team), nil
	default:
		return nil, fmt.Errorf("unknown agent type %q for team %s", spec.Type, spec.Team)
	}
}

// Idle always waits.
type Idle struct {
	name string
	team core.Team
}

func NewIdle(name string, team core.Team) *Idle { return &Idle{name: name, team: team} }

func (a *Idle) Name() string    { return a.name }
func (a *Idle) Team() core.Team { return a.team }

func (a *Idle) Decide(context.Context, Observation) (map[int]Choice, error) {
	return map[int]Choice{}, nil
}
