package agent

import (
	"context"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/viper"

	"github.com/wargame2d/engine/pkg/core"
)

// Rule prefers any candidate action for which When holds. Among matching
// rules the highest priority wins; ties go to the earlier legal action.
type Rule struct {
	Name     string `mapstructure:"name"`
	Priority int    `mapstructure:"priority"`
	When     string `mapstructure:"when"`
	program  *vm.Program
}

// Doctrine is a rule-driven agent. Its rules are compiled once to expr
// bytecode against ActionEnv.
type Doctrine struct {
	name  string
	team  core.Team
	rules []*Rule
}

// NewDoctrine compiles rules and sorts them by priority.
func NewDoctrine(name string, team core.Team, rules []Rule) (*Doctrine, error) {
	compiled := make([]*Rule, 0, len(rules))
	for _, r := range rules {
		prog, err := expr.Compile(r.When, expr.Env(ActionEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
		compiled = append(compiled, &r)
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})
	return &Doctrine{name: name, team: team, rules: compiled}, nil
}

// LoadDoctrine reads a rule list (key "rules") from a JSON or YAML file.
func LoadDoctrine(path string) ([]Rule, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading doctrine %s: %w", path, err)
	}
	var rules []Rule
	if err := v.UnmarshalKey("rules", &rules); err != nil {
		return nil, fmt.Errorf("decoding doctrine %s: %w", path, err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("doctrine %s has no rules", path)
	}
	return rules, nil
}

func (d *Doctrine) Name() string    { return d.name }
func (d *Doctrine) Team() core.Team { return d.team }

// Rules returns the rule names in evaluation order.
func (d *Doctrine) Rules() []string {
	names := make([]string, len(d.rules))
	for i, r := range d.rules {
		names[i] = r.Name
	}
	return names
}

func (d *Doctrine) Decide(ctx context.Context, obs Observation) (map[int]Choice, error) {
	out := make(map[int]Choice, len(obs.Units))
	for _, unit := range obs.Units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		legal := obs.Legal[unit.ID]
		if len(legal) == 0 {
			continue
		}
		idx, err := d.pick(obs, unit, legal)
		if err != nil {
			return nil, fmt.Errorf("unit %d: %w", unit.ID, err)
		}
		out[unit.ID] = ChoiceOf(legal, idx)
	}
	return out, nil
}

// pick returns the legal index preferred by the highest matching rule, or
// 0 (WAIT) when no rule matches.
func (d *Doctrine) pick(obs Observation, unit core.EntitySnapshot, legal []core.Action) (int, error) {
	best, bestPriority := 0, 0
	matched := false
	for i, a := range legal {
		env := buildEnv(obs, unit, a)
		for _, r := range d.rules {
			if matched && r.Priority <= bestPriority {
				break
			}
			res, err := vm.Run(r.program, env)
			if err != nil {
				return 0, fmt.Errorf("rule %q: %w", r.Name, err)
			}
			if ok, _ := res.(bool); ok {
				best, bestPriority, matched = i, r.Priority, true
				break
			}
		}
	}
	return best, nil
}

// DefaultDoctrine shoots high-value targets first, keeps SAMs dark while
// reloading, pulls the AWACS away from threats and pushes shooters and
// decoys forward.
func DefaultDoctrine() []Rule {
	return []Rule{
		{Name: "shoot-hvt", Priority: 1000, When: `Action == "SHOOT" && Target.HighValue && HitProb >= 0.3`},
		{Name: "shoot-good-odds", Priority: 900, When: `Action == "SHOOT" && HitProb >= 0.5`},
		{Name: "sam-go-dark", Priority: 800, When: `Action == "TOGGLE" && IsKind("SAM") && Unit.RadarOn && Unit.Cooldown > 0`},
		{Name: "sam-light-up", Priority: 790, When: `Action == "TOGGLE" && IsKind("SAM") && !Unit.RadarOn && Unit.Cooldown == 0 && Unit.Missiles > 0`},
		{Name: "awacs-withdraw", Priority: 700, When: `Action == "MOVE" && IsKind("AWACS") && NearestThreat < 7 && Farther`},
		{Name: "shoot-any", Priority: 600, When: `Action == "SHOOT" && HitProb >= 0.2`},
		{Name: "fighter-advance", Priority: 500, When: `Action == "MOVE" && IsKind("AIRCRAFT") && Unit.Missiles > 0 && Closer`},
		{Name: "decoy-advance", Priority: 450, When: `Action == "MOVE" && IsKind("DECOY") && Closer`},
	}
}
