package scoring

import "overdrive/sim/internal/config"

// TickInput is everything the engine needs for one tick of scoring.
type TickInput struct {
	Observation   Observation
	DistanceDelta float64
	Braking       bool
	DamageRatio   float64
}

// Engine composes the risk state, combo chain, event detector, and session
// into the per-tick scoring pass.
type Engine struct {
	cfg      config.RiskTuning
	risk     *RiskState
	combo    *Combo
	detector *Detector
	session  *Session
}

// NewEngine builds a fresh scoring engine for a run.
func NewEngine(cfg config.RiskTuning) *Engine {
	return &Engine{
		cfg:      cfg,
		risk:     NewRiskState(cfg),
		combo:    NewCombo(cfg),
		detector: NewDetector(cfg),
		session:  NewSession(cfg),
	}
}

// Tick runs one scoring pass and returns the risk events it detected. A
// deactivated session short-circuits the whole pass.
func (e *Engine) Tick(in TickInput, dt float64) []Bonus {
	if e == nil || dt <= 0 || !e.session.Active() {
		return nil
	}

	//1.- Decay or brake-penalize the risk value before any gains land.
	e.risk.Update(in.Braking, in.DamageRatio, dt)
	e.combo.Update(dt)

	//2.- Detected events funnel through the combo chain into the risk value.
	bonuses := e.detector.Update(in.Observation, dt)
	for _, b := range bonuses {
		e.risk.AddBonus(e.combo.Amplify(b.Amount), in.DamageRatio)
		e.session.CountEvent(b.Kind)
	}

	//3.- Distance scoring with the tier multiplier and (1 + risk).
	tier := TierFor(in.Observation.Speed, e.cfg)
	e.session.AddTick(in.DistanceDelta, tier.Multiplier(e.cfg), e.risk.Value())
	return bonuses
}

// CompleteSegment pays the damage-free segment bonus as flat score, still
// amplified by the live combo chain.
func (e *Engine) CompleteSegment(damageFree bool) {
	if e == nil || !e.session.Active() || !damageFree {
		return
	}
	e.session.AddPoints(e.combo.Amplify(e.cfg.SegmentBonus))
	e.session.CountCleanSegment()
}

// Deactivate freezes scoring the instant a crash reason is set.
func (e *Engine) Deactivate() {
	if e == nil {
		return
	}
	e.session.Deactivate()
}

// Active reports whether the engine still scores.
func (e *Engine) Active() bool { return e != nil && e.session.Active() }

// Risk reports the current risk multiplier contribution.
func (e *Engine) Risk() float64 {
	if e == nil {
		return 0
	}
	return e.risk.Value()
}

// RiskCap reports the damage-reduced ceiling at the given damage ratio.
func (e *Engine) RiskCap(damageRatio float64) float64 {
	if e == nil {
		return 0
	}
	return e.risk.Cap(damageRatio)
}

// ComboCount reports the current chain length.
func (e *Engine) ComboCount() int {
	if e == nil {
		return 0
	}
	return e.combo.Count()
}

// Score reports the running total.
func (e *Engine) Score() float64 {
	if e == nil {
		return 0
	}
	return e.session.Score()
}

// Summarize freezes the session into a summary.
func (e *Engine) Summarize() Summary {
	if e == nil {
		return Summary{}
	}
	return e.session.Summarize()
}

// Reset restarts every sub-system for a new run.
func (e *Engine) Reset() {
	if e == nil {
		return
	}
	e.risk.Reset()
	e.combo.Reset()
	e.detector.Reset()
	e.session.Reset()
}
