// pkg/core/scenario.go
package core

// ScenarioConfig is the flat config record of a scenario.
type ScenarioConfig struct {
	GridWidth              int    `json:"grid_width" mapstructure:"grid_width"`
	GridHeight             int    `json:"grid_height" mapstructure:"grid_height"`
	MaxTurns               int    `json:"max_turns" mapstructure:"max_turns"`
	MaxStalemateTurns      int    `json:"max_stalemate_turns" mapstructure:"max_stalemate_turns"`
	MaxNoMoveTurns         int    `json:"max_no_move_turns" mapstructure:"max_no_move_turns"`
	CheckMissileExhaustion bool   `json:"check_missile_exhaustion" mapstructure:"check_missile_exhaustion"`
	DiagonalMoves          bool   `json:"diagonal_moves" mapstructure:"diagonal_moves"`
	Seed                   uint64 `json:"seed" mapstructure:"seed"`
}

// EntitySpec is one entity record of a scenario. Optional booleans are
// pointers so an omitted key can fall back to the kind's default.
type EntitySpec struct {
	ID              int     `json:"id" mapstructure:"id"`
	Team            Team    `json:"team" mapstructure:"team"`
	Kind            Kind    `json:"kind" mapstructure:"kind"`
	Name            string  `json:"name" mapstructure:"name"`
	Pos             [2]int  `json:"pos" mapstructure:"pos"`
	Alive           *bool   `json:"alive,omitempty" mapstructure:"alive"`
	RadarRange      float64 `json:"radar_range" mapstructure:"radar_range"`
	Missiles        int     `json:"missiles,omitempty" mapstructure:"missiles"`
	MissileMaxRange float64 `json:"missile_max_range,omitempty" mapstructure:"missile_max_range"`
	BaseHitProb     float64 `json:"base_hit_prob,omitempty" mapstructure:"base_hit_prob"`
	MinHitProb      float64 `json:"min_hit_prob,omitempty" mapstructure:"min_hit_prob"`
	CooldownSteps   int     `json:"cooldown_steps,omitempty" mapstructure:"cooldown_steps"`
	Cooldown        int     `json:"_cooldown,omitempty" mapstructure:"_cooldown"`
	On              *bool   `json:"on,omitempty" mapstructure:"on"`
	CanMove         *bool   `json:"can_move,omitempty" mapstructure:"can_move"`
	CanShoot        *bool   `json:"can_shoot,omitempty" mapstructure:"can_shoot"`
}

// Position returns the record's starting cell.
func (s EntitySpec) Position() Position {
	return Position{X: s.Pos[0], Y: s.Pos[1]}
}

// AgentSpec names the policy controlling one team.
type AgentSpec struct {
	Team Team   `json:"team" mapstructure:"team"`
	Type string `json:"type" mapstructure:"type"`
	Name string `json:"name" mapstructure:"name"`
	Seed uint64 `json:"seed,omitempty" mapstructure:"seed"`
	// Doctrine is the rule file for "doctrine" agents; empty uses the built-in doctrine.
	Doctrine string `json:"doctrine,omitempty" mapstructure:"doctrine"`
}

// Scenario is the complete external input consumed once at world construction.
type Scenario struct {
	Name     string         `json:"name" mapstructure:"name"`
	Config   ScenarioConfig `json:"config" mapstructure:"config"`
	Agents   []AgentSpec    `json:"agents" mapstructure:"agents"`
	Entities []EntitySpec   `json:"entities" mapstructure:"entities"`
}

// BoolOr dereferences p, falling back to def when nil.
func BoolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
