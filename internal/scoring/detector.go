package scoring

import (
	"math"

	"overdrive/sim/internal/config"
)

// BonusKind labels a detected risk event.
type BonusKind int

const (
	BonusClosePass BonusKind = iota
	BonusHazardDodge
	BonusWeave
	BonusNeedle
	BonusDriftRecovery
	BonusSpin
	BonusEmergencyClear
)

// String reports the event name for logs and journal records.
func (k BonusKind) String() string {
	switch k {
	case BonusClosePass:
		return "close_pass"
	case BonusHazardDodge:
		return "hazard_dodge"
	case BonusWeave:
		return "weave"
	case BonusNeedle:
		return "needle"
	case BonusDriftRecovery:
		return "drift_recovery"
	case BonusSpin:
		return "spin"
	case BonusEmergencyClear:
		return "emergency_clear"
	default:
		return "unknown"
	}
}

// Bonus is one detected risk event with its base reward in risk units.
type Bonus struct {
	Kind   BonusKind
	Amount float64
}

// VehicleSighting is the per-tick view of a traffic vehicle near the player.
type VehicleSighting struct {
	ID            uint64
	Distance      float64
	LateralOffset float64
	Emergency     bool
}

// HazardSighting is the per-tick view of a hazard near the player.
type HazardSighting struct {
	ID            uint64
	Distance      float64
	LateralOffset float64
	Severity      float64
	Hit           bool
}

// Observation is everything the detector sees in one tick.
type Observation struct {
	Distance      float64
	Speed         float64
	LateralOffset float64
	Yaw           float64
	YawRate       float64
	Drifting      bool
	LaneChanged   bool
	Vehicles      []VehicleSighting
	Hazards       []HazardSighting
}

// Base rewards in risk units, before combo amplification.
const (
	closePassBase       = 1.2
	dodgeBase           = 1.0
	weaveBonus          = 1.5
	needleBonus         = 2.0
	driftRecoveryBonus  = 1.0
	spinBonus           = 2.5
	emergencyClearBonus = 1.5

	// passZone is the longitudinal half-window around the player inside
	// which passes and dodges are tracked.
	passZone = 6.0
	// driftRecoveryYaw is the minimum peak yaw a drift must have reached
	// for its clean exit to count.
	driftRecoveryYaw = 0.6
	// spinDecayRate drains accumulated spin angle while not drifting.
	spinDecayRate = 3.0
)

type passTrack struct {
	minClearance float64
}

// Detector watches the entity neighbourhood around the player and raises
// risk events. All tracking is keyed by entity ID so despawns cannot leak.
type Detector struct {
	cfg config.RiskTuning

	elapsed     float64
	passes      map[uint64]*passTrack
	dodges      map[uint64]*passTrack
	behindSiren map[uint64]bool
	threaded    map[[2]uint64]bool
	weaveTimes  []float64

	prevDrifting bool
	peakYaw      float64
	spinAccum    float64
}

// NewDetector returns an empty risk-event detector.
func NewDetector(cfg config.RiskTuning) *Detector {
	return &Detector{
		cfg:         cfg,
		passes:      make(map[uint64]*passTrack),
		dodges:      make(map[uint64]*passTrack),
		behindSiren: make(map[uint64]bool),
		threaded:    make(map[[2]uint64]bool),
	}
}

// Update advances one tick and returns the risk events it raised.
func (d *Detector) Update(obs Observation, dt float64) []Bonus {
	if d == nil || dt <= 0 {
		return nil
	}
	d.elapsed += dt

	var out []Bonus
	out = d.trackVehicles(obs, out)
	out = d.trackHazards(obs, out)
	out = d.trackWeave(obs, out)
	out = d.trackDrift(obs, out)
	out = d.trackSpin(obs, dt, out)
	return out
}

// trackVehicles handles close passes and emergency clears.
func (d *Detector) trackVehicles(obs Observation, out []Bonus) []Bonus {
	seen := make(map[uint64]bool, len(obs.Vehicles))
	for _, v := range obs.Vehicles {
		seen[v.ID] = true
		rel := v.Distance - obs.Distance

		//1.- Emergencies are tracked from behind to well past the player.
		if v.Emergency {
			if rel < -1 {
				d.behindSiren[v.ID] = true
			} else if d.behindSiren[v.ID] && rel > passZone {
				delete(d.behindSiren, v.ID)
				out = append(out, Bonus{Kind: BonusEmergencyClear, Amount: emergencyClearBonus})
			}
		}

		//2.- Inside the pass zone, record the tightest lateral clearance.
		track := d.passes[v.ID]
		if math.Abs(rel) <= passZone {
			if track == nil {
				track = &passTrack{minClearance: math.Inf(1)}
				d.passes[v.ID] = track
			}
			clearance := math.Abs(obs.LateralOffset - v.LateralOffset)
			track.minClearance = math.Min(track.minClearance, clearance)
			continue
		}
		//3.- Leaving the zone settles the pass.
		if track != nil {
			delete(d.passes, v.ID)
			if factor := closePassFactor(track.minClearance, d.cfg.ClosePassRange); factor > 0 {
				out = append(out, Bonus{Kind: BonusClosePass, Amount: closePassBase * factor})
			}
		}
	}
	pruneTracks(d.passes, seen)
	for id := range d.behindSiren {
		if !seen[id] {
			delete(d.behindSiren, id)
		}
	}
	return out
}

// closePassFactor tiers the reward by how tight the pass was.
func closePassFactor(clearance, rng float64) float64 {
	if rng <= 0 || clearance > rng {
		return 0
	}
	switch ratio := clearance / rng; {
	case ratio < 1.0/3:
		return 1.0
	case ratio < 2.0/3:
		return 0.6
	default:
		return 0.3
	}
}

// trackHazards handles dodges and threading the needle.
func (d *Detector) trackHazards(obs Observation, out []Bonus) []Bonus {
	seen := make(map[uint64]bool, len(obs.Hazards))
	var leftID, rightID uint64
	leftClear, rightClear := math.Inf(1), math.Inf(1)

	for _, h := range obs.Hazards {
		seen[h.ID] = true
		rel := h.Distance - obs.Distance

		if h.Hit {
			delete(d.dodges, h.ID)
			continue
		}

		if math.Abs(rel) <= passZone {
			track := d.dodges[h.ID]
			if track == nil {
				track = &passTrack{minClearance: math.Inf(1)}
				d.dodges[h.ID] = track
			}
			clearance := math.Abs(obs.LateralOffset - h.LateralOffset)
			track.minClearance = math.Min(track.minClearance, clearance)

			//1.- Remember the nearest hazard on each flank for the needle check.
			if h.LateralOffset < obs.LateralOffset && clearance < leftClear {
				leftClear, leftID = clearance, h.ID
			}
			if h.LateralOffset > obs.LateralOffset && clearance < rightClear {
				rightClear, rightID = clearance, h.ID
			}
			continue
		}

		track := d.dodges[h.ID]
		if track == nil {
			continue
		}
		delete(d.dodges, h.ID)
		//2.- A hazard that fell behind untouched at speed is a dodge.
		if rel < 0 && obs.Speed >= d.cfg.DodgeMinSpeed && track.minClearance <= d.cfg.ClosePassRange {
			amount := dodgeBase * h.Severity * (1 - track.minClearance/d.cfg.ClosePassRange)
			if amount > 0 {
				out = append(out, Bonus{Kind: BonusHazardDodge, Amount: amount})
			}
		}
	}

	//3.- Two hazards straddling the vehicle inside the needle gap pay once.
	if leftID != 0 && rightID != 0 && leftClear+rightClear <= d.cfg.NeedleGap {
		key := [2]uint64{leftID, rightID}
		if leftID > rightID {
			key = [2]uint64{rightID, leftID}
		}
		if !d.threaded[key] {
			d.threaded[key] = true
			out = append(out, Bonus{Kind: BonusNeedle, Amount: needleBonus})
		}
	}
	pruneTracks(d.dodges, seen)
	for key := range d.threaded {
		if !seen[key[0]] || !seen[key[1]] {
			delete(d.threaded, key)
		}
	}
	return out
}

// trackWeave counts lane changes inside a sliding window.
func (d *Detector) trackWeave(obs Observation, out []Bonus) []Bonus {
	if obs.LaneChanged && obs.Speed >= d.cfg.WeaveMinSpeed {
		d.weaveTimes = append(d.weaveTimes, d.elapsed)
	}
	cutoff := d.elapsed - d.cfg.WeaveWindow
	kept := d.weaveTimes[:0]
	for _, ts := range d.weaveTimes {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	d.weaveTimes = kept

	if len(d.weaveTimes) >= d.cfg.WeaveChanges {
		d.weaveTimes = d.weaveTimes[:0]
		out = append(out, Bonus{Kind: BonusWeave, Amount: weaveBonus})
	}
	return out
}

// trackDrift rewards a clean exit from a deep drift.
func (d *Detector) trackDrift(obs Observation, out []Bonus) []Bonus {
	if obs.Drifting {
		d.peakYaw = math.Max(d.peakYaw, math.Abs(obs.Yaw))
	} else if d.prevDrifting {
		if d.peakYaw >= driftRecoveryYaw {
			out = append(out, Bonus{Kind: BonusDriftRecovery, Amount: driftRecoveryBonus})
		}
		d.peakYaw = 0
	}
	d.prevDrifting = obs.Drifting
	return out
}

// trackSpin accumulates unsigned yaw travel while drifting and pays one bonus
// per full revolution. The drain loop keeps the payout independent of tick
// size when a single step covers more than one revolution.
func (d *Detector) trackSpin(obs Observation, dt float64, out []Bonus) []Bonus {
	if obs.Drifting {
		d.spinAccum += math.Abs(obs.YawRate) * dt
		for d.spinAccum >= 2*math.Pi {
			d.spinAccum -= 2 * math.Pi
			out = append(out, Bonus{Kind: BonusSpin, Amount: spinBonus})
		}
		return out
	}
	d.spinAccum = math.Max(0, d.spinAccum-spinDecayRate*dt)
	return out
}

func pruneTracks(tracks map[uint64]*passTrack, seen map[uint64]bool) {
	for id := range tracks {
		if !seen[id] {
			delete(tracks, id)
		}
	}
}

// Reset drops every tracked entity and accumulator for a fresh run.
func (d *Detector) Reset() {
	if d == nil {
		return
	}
	d.passes = make(map[uint64]*passTrack)
	d.dodges = make(map[uint64]*passTrack)
	d.behindSiren = make(map[uint64]bool)
	d.threaded = make(map[[2]uint64]bool)
	d.weaveTimes = nil
	d.prevDrifting = false
	d.peakYaw = 0
	d.spinAccum = 0
}
