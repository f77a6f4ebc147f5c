package scoring

import (
	"math"

	"overdrive/sim/internal/config"
)

// Tier is the speed band driving the base score multiplier.
type Tier int

const (
	TierCruise Tier = iota
	TierFast
	TierBoost
)

// String reports the tier name for snapshots.
func (t Tier) String() string {
	switch t {
	case TierCruise:
		return "cruise"
	case TierFast:
		return "fast"
	case TierBoost:
		return "boost"
	default:
		return "unknown"
	}
}

// TierFor maps a forward speed onto its band.
func TierFor(speed float64, cfg config.RiskTuning) Tier {
	switch {
	case speed >= cfg.TierBoostSpeed:
		return TierBoost
	case speed >= cfg.TierFastSpeed:
		return TierFast
	default:
		return TierCruise
	}
}

// Multiplier reports the base score multiplier for the band.
func (t Tier) Multiplier(cfg config.RiskTuning) float64 {
	switch t {
	case TierBoost:
		return cfg.TierBoostMult
	case TierFast:
		return cfg.TierFastMult
	default:
		return cfg.TierCruiseMult
	}
}

// Counters tallies risk events over a run.
type Counters struct {
	ClosePasses     int
	Dodges          int
	Weaves          int
	Needles         int
	DriftRecoveries int
	Spins           int
	EmergencyClears int
	CleanSegments   int
}

// Session is the running score bookkeeping for one run. It stops accepting
// increments the instant it is deactivated by a crash.
type Session struct {
	cfg         config.RiskTuning
	active      bool
	distance    float64
	score       float64
	highestRisk float64
	counters    Counters
}

// Summary is a session frozen at crash time for the HUD and journal.
type Summary struct {
	Distance    float64
	Score       float64
	HighestRisk float64
	Counters    Counters
}

// NewSession starts an active session.
func NewSession(cfg config.RiskTuning) *Session {
	return &Session{cfg: cfg, active: true}
}

// Active reports whether the session still accepts score.
func (s *Session) Active() bool { return s != nil && s.active }

// Deactivate freezes the session. Called the tick a crash reason is set.
func (s *Session) Deactivate() {
	if s != nil {
		s.active = false
	}
}

// AddTick applies one tick of distance scoring. The per-tick increment and
// the running total are both capped.
func (s *Session) AddTick(distanceDelta, tierMult, risk float64) {
	if s == nil || !s.active || distanceDelta <= 0 {
		return
	}
	s.distance += distanceDelta
	s.highestRisk = math.Max(s.highestRisk, risk)

	inc := math.Min(s.cfg.ScoreTickCap, distanceDelta*tierMult*(1+risk))
	s.score = math.Min(s.cfg.ScoreCeiling, s.score+inc)
}

// AddPoints adds a flat score bonus, still bounded by the ceiling.
func (s *Session) AddPoints(points float64) {
	if s == nil || !s.active || points <= 0 {
		return
	}
	s.score = math.Min(s.cfg.ScoreCeiling, s.score+points)
}

// CountEvent tallies one detected risk event.
func (s *Session) CountEvent(kind BonusKind) {
	if s == nil || !s.active {
		return
	}
	switch kind {
	case BonusClosePass:
		s.counters.ClosePasses++
	case BonusHazardDodge:
		s.counters.Dodges++
	case BonusWeave:
		s.counters.Weaves++
	case BonusNeedle:
		s.counters.Needles++
	case BonusDriftRecovery:
		s.counters.DriftRecoveries++
	case BonusSpin:
		s.counters.Spins++
	case BonusEmergencyClear:
		s.counters.EmergencyClears++
	}
}

// CountCleanSegment tallies one damage-free segment completion.
func (s *Session) CountCleanSegment() {
	if s == nil || !s.active {
		return
	}
	s.counters.CleanSegments++
}

// Score reports the running total.
func (s *Session) Score() float64 {
	if s == nil {
		return 0
	}
	return s.score
}

// Distance reports meters travelled this run.
func (s *Session) Distance() float64 {
	if s == nil {
		return 0
	}
	return s.distance
}

// Summarize freezes the current state into a summary.
func (s *Session) Summarize() Summary {
	if s == nil {
		return Summary{}
	}
	return Summary{
		Distance:    s.distance,
		Score:       s.score,
		HighestRisk: s.highestRisk,
		Counters:    s.counters,
	}
}

// Reset restarts the session for a new run.
func (s *Session) Reset() {
	if s == nil {
		return
	}
	s.active = true
	s.distance = 0
	s.score = 0
	s.highestRisk = 0
	s.counters = Counters{}
}
