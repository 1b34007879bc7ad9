// Package entity models combat units. Kind-specific behaviour is expressed
// through capability interfaces (Mover, Shooter, Toggler, Cooler) that only
// the matching concrete kinds implement.
package entity

import (
	"errors"
	"fmt"

	"github.com/wargame2d/engine/pkg/core"
)

var (
	// ErrInvalidEntity is returned for structurally broken entity records.
	ErrInvalidEntity = errors.New("invalid entity")
	// ErrInvalidProbability is returned when hit-probability parameters leave [0,1].
	ErrInvalidProbability = errors.New("hit probability out of range")
)

// Entity is the state every unit carries. Mutators are only called by the
// combat resolver on a world-owned copy.
type Entity interface {
	ID() int
	Name() string
	Team() core.Team
	Kind() core.Kind
	Pos() core.Position
	Alive() bool
	RadarRange() float64

	MoveTo(p core.Position)
	Kill()

	Snapshot() core.EntitySnapshot
	Clone() Entity
}

// Mover is implemented by kinds that can change cell.
type Mover interface {
	Entity
	CanMove() bool
}

// Shooter is implemented by armed kinds.
type Shooter interface {
	Entity
	Weapon() Weapon
	// CanFire is the kind-specific readiness gate (ammo, capability, SAM radar and cooldown).
	CanFire() bool
	// Fire consumes one missile and applies any post-launch state.
	Fire()
}

// Toggler is implemented by units with a switchable radar (SAM).
type Toggler interface {
	Entity
	RadarOn() bool
	Toggle()
}

// Cooler is implemented by units with a firing cooldown.
type Cooler interface {
	Entity
	Cooldown() int
	// TickCooldown runs once per turn in cleanup.
	TickCooldown()
}

// Base holds the fields common to all kinds.
type Base struct {
	id         int
	name       string
	team       core.Team
	kind       core.Kind
	pos        core.Position
	alive      bool
	radarRange float64
}

func (b *Base) ID() int                { return b.id }
func (b *Base) Name() string           { return b.name }
func (b *Base) Team() core.Team        { return b.team }
func (b *Base) Kind() core.Kind        { return b.kind }
func (b *Base) Pos() core.Position     { return b.pos }
func (b *Base) Alive() bool            { return b.alive }
func (b *Base) RadarRange() float64    { return b.radarRange }
func (b *Base) MoveTo(p core.Position) { b.pos = p }
func (b *Base) Kill()                  { b.alive = false }

func (b *Base) snapshot() core.EntitySnapshot {
	return core.EntitySnapshot{
		ID:         b.id,
		Name:       b.name,
		Team:       b.team,
		Kind:       b.kind,
		Position:   b.pos,
		Alive:      b.alive,
		RadarRange: b.radarRange,
		RadarOn:    true,
	}
}

type mobility struct {
	canMove bool
}

func (m *mobility) CanMove() bool { return m.canMove }

type armament struct {
	canShoot bool
	weapon   Weapon
}

func (a *armament) Weapon() Weapon { return a.weapon }

func (a *armament) Missiles() int { return a.weapon.Missiles }

func (a *armament) fill(s *core.EntitySnapshot) {
	s.CanShoot = a.canShoot
	s.Missiles = a.weapon.Missiles
	s.MissileMaxRange = a.weapon.MaxRange
	s.BaseHitProb = a.weapon.BaseHitProb
	s.MinHitProb = a.weapon.MinHitProb
}

// AWACS is the unarmed long-radar unit; losing it loses the episode.
type AWACS struct {
	Base
	mobility
}

func (a *AWACS) Snapshot() core.EntitySnapshot {
	s := a.snapshot()
	s.CanMove = a.canMove
	return s
}

func (a *AWACS) Clone() Entity { c := *a; return &c }

// Decoy is an unarmed bait unit.
type Decoy struct {
	Base
	mobility
}

func (d *Decoy) Snapshot() core.EntitySnapshot {
	s := d.snapshot()
	s.CanMove = d.canMove
	return s
}

func (d *Decoy) Clone() Entity { c := *d; return &c }

// Aircraft is the mobile armed unit.
type Aircraft struct {
	Base
	mobility
	armament
}

func (a *Aircraft) CanFire() bool {
	return a.alive && a.canShoot && a.weapon.Missiles > 0
}

func (a *Aircraft) Fire() {
	a.weapon.consume()
}

func (a *Aircraft) Snapshot() core.EntitySnapshot {
	s := a.snapshot()
	s.CanMove = a.canMove
	a.fill(&s)
	return s
}

func (a *Aircraft) Clone() Entity { c := *a; return &c }

// SAM is the static armed unit. With radar off it cannot be detected and cannot fire.
type SAM struct {
	Base
	armament
	on            bool
	cooldown      int
	cooldownSteps int
	firedThisTurn bool
}

func (s *SAM) RadarOn() bool { return s.on }

func (s *SAM) Toggle() { s.on = !s.on }

func (s *SAM) Cooldown() int { return s.cooldown }

func (s *SAM) CooldownSteps() int { return s.cooldownSteps }

func (s *SAM) CanFire() bool {
	return s.alive && s.canShoot && s.on && s.cooldown == 0 && s.weapon.Missiles > 0
}

func (s *SAM) Fire() {
	s.weapon.consume()
	s.cooldown = s.cooldownSteps
	s.firedThisTurn = s.cooldownSteps > 0
}

// TickCooldown leaves a cooldown started this turn untouched so that it
// reads cooldownSteps at the end of the firing turn.
func (s *SAM) TickCooldown() {
	if s.firedThisTurn {
		s.firedThisTurn = false
		return
	}
	if s.cooldown > 0 {
		s.cooldown--
	}
}

func (s *SAM) Snapshot() core.EntitySnapshot {
	snap := s.snapshot()
	s.fill(&snap)
	snap.RadarOn = s.on
	snap.Cooldown = s.cooldown
	snap.CooldownSteps = s.cooldownSteps
	return snap
}

func (s *SAM) Clone() Entity { c := *s; return &c }

// Stealthed reports whether e is currently undetectable by enemy radar.
func Stealthed(e Entity) bool {
	t, ok := e.(Toggler)
	return ok && !t.RadarOn()
}

// FromSpec builds the concrete kind described by a scenario record.
func FromSpec(spec core.EntitySpec) (Entity, error) {
	if spec.Team != core.TeamBlue && spec.Team != core.TeamRed {
		return nil, fmt.Errorf("%w: entity %d has no team", ErrInvalidEntity, spec.ID)
	}
	if spec.RadarRange < 0 {
		return nil, fmt.Errorf("%w: entity %d has negative radar range", ErrInvalidEntity, spec.ID)
	}

	base := Base{
		id:         spec.ID,
		name:       spec.Name,
		team:       spec.Team,
		kind:       spec.Kind,
		pos:        spec.Position(),
		alive:      core.BoolOr(spec.Alive, true),
		radarRange: spec.RadarRange,
	}
	if base.name == "" {
		base.name = fmt.Sprintf("%s %s %d", spec.Team, spec.Kind, spec.ID)
	}

	switch spec.Kind {
	case core.KindAWACS:
		if core.BoolOr(spec.CanShoot, false) {
			return nil, fmt.Errorf("%w: AWACS %d cannot shoot", ErrInvalidEntity, spec.ID)
		}
		return &AWACS{Base: base, mobility: mobility{canMove: core.BoolOr(spec.CanMove, true)}}, nil
	case core.KindDecoy:
		if core.BoolOr(spec.CanShoot, false) {
			return nil, fmt.Errorf("%w: decoy %d cannot shoot", ErrInvalidEntity, spec.ID)
		}
		return &Decoy{Base: base, mobility: mobility{canMove: core.BoolOr(spec.CanMove, true)}}, nil
	case core.KindAircraft:
		w, err := weaponFromSpec(spec)
		if err != nil {
			return nil, err
		}
		return &Aircraft{
			Base:     base,
			mobility: mobility{canMove: core.BoolOr(spec.CanMove, true)},
			armament: armament{canShoot: core.BoolOr(spec.CanShoot, true), weapon: w},
		}, nil
	case core.KindSAM:
		if core.BoolOr(spec.CanMove, false) {
			return nil, fmt.Errorf("%w: SAM %d cannot move", ErrInvalidEntity, spec.ID)
		}
		if spec.CooldownSteps < 0 || spec.Cooldown < 0 {
			return nil, fmt.Errorf("%w: SAM %d has negative cooldown", ErrInvalidEntity, spec.ID)
		}
		w, err := weaponFromSpec(spec)
		if err != nil {
			return nil, err
		}
		return &SAM{
			Base:          base,
			armament:      armament{canShoot: core.BoolOr(spec.CanShoot, true), weapon: w},
			on:            core.BoolOr(spec.On, true),
			cooldown:      spec.Cooldown,
			cooldownSteps: spec.CooldownSteps,
		}, nil
	default:
		return nil, fmt.Errorf("%w: entity %d has unknown kind %q", ErrInvalidEntity, spec.ID, spec.Kind)
	}
}
