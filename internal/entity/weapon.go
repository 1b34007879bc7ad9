package entity

import (
	"fmt"

	"github.com/wargame2d/engine/pkg/core"
)

// Weapon is a missile load and its accuracy curve.
type Weapon struct {
	Missiles    int
	MaxRange    float64
	BaseHitProb float64
	MinHitProb  float64
}

// HitProbability is max(min, base*(1-d/max)) inside range and 0 beyond it.
// It never increases with distance.
func (w Weapon) HitProbability(distance float64) float64 {
	if w.MaxRange <= 0 || distance > w.MaxRange {
		return 0
	}
	p := w.BaseHitProb * (1 - distance/w.MaxRange)
	if p < w.MinHitProb {
		p = w.MinHitProb
	}
	return p
}

// InRange reports whether a target at distance can be engaged at all.
func (w Weapon) InRange(distance float64) bool {
	return w.MaxRange > 0 && distance <= w.MaxRange
}

// Validate checks that the accuracy parameters describe a probability curve.
func (w Weapon) Validate() error {
	switch {
	case w.Missiles < 0:
		return fmt.Errorf("%w: negative missile count %d", ErrInvalidEntity, w.Missiles)
	case w.MaxRange < 0:
		return fmt.Errorf("%w: negative missile range %.2f", ErrInvalidEntity, w.MaxRange)
	case w.BaseHitProb < 0 || w.BaseHitProb > 1:
		return fmt.Errorf("%w: base_hit_prob %.3f", ErrInvalidProbability, w.BaseHitProb)
	case w.MinHitProb < 0 || w.MinHitProb > 1:
		return fmt.Errorf("%w: min_hit_prob %.3f", ErrInvalidProbability, w.MinHitProb)
	case w.MinHitProb > w.BaseHitProb:
		return fmt.Errorf("%w: min_hit_prob %.3f above base_hit_prob %.3f", ErrInvalidProbability, w.MinHitProb, w.BaseHitProb)
	}
	return nil
}

func (w *Weapon) consume() {
	if w.Missiles > 0 {
		w.Missiles--
	}
}

func weaponFromSpec(spec core.EntitySpec) (Weapon, error) {
	w := Weapon{
		Missiles:    spec.Missiles,
		MaxRange:    spec.MissileMaxRange,
		BaseHitProb: spec.BaseHitProb,
		MinHitProb:  spec.MinHitProb,
	}
	if err := w.Validate(); err != nil {
		return Weapon{}, fmt.Errorf("entity %d: %w", spec.ID, err)
	}
	return w, nil
}
