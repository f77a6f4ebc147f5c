package scoring

import "overdrive/sim/internal/config"

// Combo chains risk events into an amplifier. Every event refreshes a shared
// timer and bumps the counter; silence past the window drops the chain.
type Combo struct {
	cfg   config.RiskTuning
	timer float64
	count int
}

// NewCombo returns an idle combo chain.
func NewCombo(cfg config.RiskTuning) *Combo {
	return &Combo{cfg: cfg}
}

// Update runs the timer down and resets the chain once it expires.
func (c *Combo) Update(dt float64) {
	if c == nil || dt <= 0 || c.timer <= 0 {
		return
	}
	c.timer -= dt
	if c.timer <= 0 {
		c.timer = 0
		c.count = 0
	}
}

// Amplify scales a base bonus by the current chain, then extends the window
// and bumps the counter up to its cap.
func (c *Combo) Amplify(base float64) float64 {
	if c == nil {
		return base
	}
	boosted := base * (1 + float64(c.count)*c.cfg.ComboStep)
	if c.count < c.cfg.ComboMax {
		c.count++
	}
	c.timer = c.cfg.ComboWindow
	return boosted
}

// Count reports the current chain length.
func (c *Combo) Count() int {
	if c == nil {
		return 0
	}
	return c.count
}

// Reset drops the chain for a fresh run.
func (c *Combo) Reset() {
	if c == nil {
		return
	}
	c.timer = 0
	c.count = 0
}
