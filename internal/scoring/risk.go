package scoring

import (
	"math"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/mathx"
)

// RiskState holds the score multiplier driven by near-miss play. The value
// decays exponentially while idle, is halved by braking, and can never
// exceed the damage-reduced cap.
type RiskState struct {
	cfg           config.RiskTuning
	value         float64
	brakeCooldown float64
}

// NewRiskState returns a zero-risk state with the supplied tuning.
func NewRiskState(cfg config.RiskTuning) *RiskState {
	return &RiskState{cfg: cfg}
}

// Cap reports the current ceiling: the base cap shrunk by accumulated damage
// and floored so risk play never becomes pointless.
func (r *RiskState) Cap(damageRatio float64) float64 {
	if r == nil {
		return 0
	}
	cap := r.cfg.BaseCap * (1 - r.cfg.CapDamageLoss*mathx.Saturate(damageRatio))
	return math.Max(r.cfg.CapFloor, cap)
}

// rebuild is the damage-shrunk gain applied to incoming bonuses.
func (r *RiskState) rebuild(damageRatio float64) float64 {
	return math.Max(0, r.cfg.RebuildRate*(1-r.cfg.CapDamageLoss*mathx.Saturate(damageRatio)))
}

// Update advances one tick. Braking instantly halves the value and opens a
// cooldown window during which exponential decay is suspended.
func (r *RiskState) Update(braking bool, damageRatio, dt float64) {
	if r == nil || dt <= 0 {
		return
	}
	if r.brakeCooldown > 0 {
		r.brakeCooldown = math.Max(0, r.brakeCooldown-dt)
	}
	switch {
	case braking && r.brakeCooldown == 0:
		r.value *= r.cfg.BrakePenalty
		r.brakeCooldown = r.cfg.BrakeCooldown
	case r.brakeCooldown == 0:
		r.value *= math.Exp(-r.cfg.Decay * dt)
	}
	r.clamp(damageRatio)
}

// AddBonus feeds a combo-amplified bonus into the value through the rebuild
// rate, respecting the damage-reduced cap.
func (r *RiskState) AddBonus(amount, damageRatio float64) {
	if r == nil || amount <= 0 {
		return
	}
	r.value += amount * r.rebuild(damageRatio)
	r.clamp(damageRatio)
}

func (r *RiskState) clamp(damageRatio float64) {
	r.value = mathx.Clamp(r.value, 0, r.Cap(damageRatio))
}

// Value reports the current risk multiplier contribution.
func (r *RiskState) Value() float64 {
	if r == nil {
		return 0
	}
	return r.value
}

// BrakeCooldownActive reports whether the decay-suspension window is open.
func (r *RiskState) BrakeCooldownActive() bool {
	return r != nil && r.brakeCooldown > 0
}

// Reset zeroes the state for a fresh run.
func (r *RiskState) Reset() {
	if r == nil {
		return
	}
	r.value = 0
	r.brakeCooldown = 0
}
