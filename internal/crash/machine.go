package crash

import (
	"math"

	"overdrive/sim/internal/config"
)

// Reason records which condition tripped the crash. It is set exactly once
// per run and never rewritten while the vehicle stays crashed.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonTotalDamage
	ReasonCriticalFailure
	ReasonCompound
)

// String reports the crash reason for logs and snapshots.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTotalDamage:
		return "total_damage"
	case ReasonCriticalFailure:
		return "critical_failure"
	case ReasonCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Inputs is the per-tick observation the machine evaluates.
type Inputs struct {
	TotalDamage float64
	Critical    bool
	// Yaw is the unbounded drift angle; only its magnitude matters here.
	Yaw   float64
	Speed float64
}

// Machine is the terminal crash state machine. Once crashed it only counts
// time toward the autopilot handoff; a new run goes through Reset.
type Machine struct {
	cfg      config.CrashTuning
	minSpeed float64

	crashed   bool
	reason    Reason
	elapsed   float64
	autopilot bool
}

// NewMachine builds a machine with the supplied thresholds. minSpeed is the
// floor of the dynamics envelope, used to pad the compound stall check.
func NewMachine(cfg config.CrashTuning, minSpeed float64) *Machine {
	return &Machine{cfg: cfg, minSpeed: minSpeed}
}

// Update evaluates the crash conditions for one tick and reports whether the
// machine entered the crashed state on this call. Conditions are checked in
// precedence order so a same-tick coincidence yields a stable reason.
func (m *Machine) Update(in Inputs, dt float64) bool {
	if m == nil || dt <= 0 {
		return false
	}
	if m.crashed {
		//1.- Crashed is terminal: just advance toward the autopilot handoff.
		m.elapsed += dt
		if m.elapsed >= m.cfg.HandoffDelay {
			m.autopilot = true
		}
		return false
	}

	switch {
	case in.TotalDamage >= m.cfg.DamageThreshold:
		m.reason = ReasonTotalDamage
	case in.Critical:
		m.reason = ReasonCriticalFailure
	case m.compound(in):
		m.reason = ReasonCompound
	default:
		return false
	}
	m.crashed = true
	m.elapsed = 0
	return true
}

// compound detects the hopeless-spin condition: the vehicle is swung far past
// recoverable yaw, pinned at the bottom of the speed envelope, and already
// carrying most of the damage budget.
func (m *Machine) compound(in Inputs) bool {
	return math.Abs(in.Yaw) > m.cfg.CompoundYaw &&
		in.Speed < m.minSpeed+m.cfg.CompoundSpeedPad &&
		in.TotalDamage > m.cfg.CompoundDamage*m.cfg.DamageThreshold
}

// Crashed reports whether the machine is in the terminal state.
func (m *Machine) Crashed() bool { return m != nil && m.crashed }

// Why reports the reason recorded when the crash fired.
func (m *Machine) Why() Reason {
	if m == nil {
		return ReasonNone
	}
	return m.reason
}

// Elapsed reports seconds spent crashed.
func (m *Machine) Elapsed() float64 {
	if m == nil {
		return 0
	}
	return m.elapsed
}

// AutopilotActive reports whether the post-crash handoff has completed and
// the autopilot now drives the vehicle.
func (m *Machine) AutopilotActive() bool { return m != nil && m.autopilot }

// AutopilotSpeed is the cruise speed the autopilot holds after the handoff.
func (m *Machine) AutopilotSpeed() float64 {
	if m == nil {
		return 0
	}
	return m.cfg.AutopilotSpeed
}

// Reset returns the machine to the live state for a fresh run.
func (m *Machine) Reset() {
	if m == nil {
		return
	}
	m.crashed = false
	m.reason = ReasonNone
	m.elapsed = 0
	m.autopilot = false
}
