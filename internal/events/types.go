package events

// Kind enumerates the gameplay event payloads carried by the stream.
type Kind string

const (
	KindCollision Kind = "collision"
	KindCrash     Kind = "crash"
	KindRiskBonus Kind = "risk_bonus"
	KindLifecycle Kind = "lifecycle"
)

// CollisionEvent reports one resolved impact.
type CollisionEvent struct {
	Tick        uint64  `json:"tick"`
	ObstacleID  uint64  `json:"obstacle_id"`
	HazardClass string  `json:"hazard_class"`
	ImpactSpeed float64 `json:"impact_speed"`
	Energy      float64 `json:"energy"`
	Zone        string  `json:"zone"`
}

// CrashEvent reports the terminal transition of a run.
type CrashEvent struct {
	Tick     uint64  `json:"tick"`
	Reason   string  `json:"reason"`
	Distance float64 `json:"distance"`
	Score    float64 `json:"score"`
}

// RiskBonusEvent reports one detected risk event after combo amplification.
type RiskBonusEvent struct {
	Tick       uint64  `json:"tick"`
	Bonus      string  `json:"bonus"`
	Amount     float64 `json:"amount"`
	ComboCount int     `json:"combo_count"`
	RiskValue  float64 `json:"risk_value"`
}

// Lifecycle phases accepted by PublishLifecycle.
const (
	PhaseRunStarted       = "run_started"
	PhaseAutopilotEngaged = "autopilot_engaged"
	PhaseRunEnded         = "run_ended"
)

// LifecycleEvent reports run boundary transitions.
type LifecycleEvent struct {
	Tick  uint64 `json:"tick"`
	Phase string `json:"phase"`
	Seed  uint32 `json:"seed"`
	Mode  string `json:"mode"`
}

// Envelope carries one concrete payload together with sequencing metadata.
// Exactly one payload pointer is non-nil, matching Kind.
type Envelope struct {
	Sequence  uint64          `json:"sequence"`
	Kind      Kind            `json:"kind"`
	Collision *CollisionEvent `json:"collision,omitempty"`
	Crash     *CrashEvent     `json:"crash,omitempty"`
	RiskBonus *RiskBonusEvent `json:"risk_bonus,omitempty"`
	Lifecycle *LifecycleEvent `json:"lifecycle,omitempty"`
}

// Clone duplicates the payload so subscribers can mutate their copy safely.
func (e *Envelope) Clone() *Envelope {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Collision != nil {
		payload := *e.Collision
		clone.Collision = &payload
	}
	if e.Crash != nil {
		payload := *e.Crash
		clone.Crash = &payload
	}
	if e.RiskBonus != nil {
		payload := *e.RiskBonus
		clone.RiskBonus = &payload
	}
	if e.Lifecycle != nil {
		payload := *e.Lifecycle
		clone.Lifecycle = &payload
	}
	return &clone
}
