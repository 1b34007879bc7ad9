// pkg/core/snapshot.go
package core

// EntitySnapshot is a read-only projection of one unit at a point in time.
type EntitySnapshot struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Team            Team     `json:"team"`
	Kind            Kind     `json:"kind"`
	Position        Position `json:"pos"`
	Alive           bool     `json:"alive"`
	CanMove         bool     `json:"canMove"`
	CanShoot        bool     `json:"canShoot"`
	RadarRange      float64  `json:"radarRange"`
	Missiles        int      `json:"missiles"`
	MissileMaxRange float64  `json:"missileMaxRange,omitempty"`
	BaseHitProb     float64  `json:"baseHitProb,omitempty"`
	MinHitProb      float64  `json:"minHitProb,omitempty"`
	RadarOn         bool     `json:"radarOn"`
	Cooldown        int      `json:"cooldown"`
	CooldownSteps   int      `json:"cooldownSteps,omitempty"`
}
