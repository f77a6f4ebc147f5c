package traffic

import (
	"math"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/mathx"
)

// SelfState is the deciding vehicle's own view fed into lane scoring.
type SelfState struct {
	Lane        int
	Distance    float64
	Speed       float64
	TargetSpeed float64
	LaneCount   int
}

// Decision reports the outcome of a scoring pass.
type Decision struct {
	TargetLane int
	Changed    bool
}

// Decider implements the periodic six-factor lane scoring for one AI vehicle.
// A lane switch requires beating the current lane by the hysteresis margin,
// and once committed the decision is locked for the commitment window.
type Decider struct {
	cfg       config.TrafficAITuning
	evalTimer float64
	lockTimer float64
}

// NewDecider builds a decider with a deterministic evaluation phase offset so
// a column of vehicles does not re-score in lockstep.
func NewDecider(cfg config.TrafficAITuning, phase float64) *Decider {
	if cfg.EvalInterval <= 0 {
		cfg.EvalInterval = 0.5
	}
	return &Decider{
		cfg:       cfg,
		evalTimer: math.Mod(math.Abs(phase), cfg.EvalInterval),
	}
}

// Locked reports whether the commitment lock is still running.
func (d *Decider) Locked() bool {
	return d != nil && d.lockTimer > 0
}

// Update advances the evaluation timers and re-scores lanes when due.
func (d *Decider) Update(self SelfState, vehicles []VehicleObservation, hazards []HazardObservation, dt float64) Decision {
	decision := Decision{TargetLane: self.Lane}
	if d == nil || dt <= 0 {
		return decision
	}

	//1.- The commitment lock suppresses any re-evaluation while it runs.
	if d.lockTimer > 0 {
		d.lockTimer -= dt
		return decision
	}

	d.evalTimer += dt
	if d.evalTimer < d.cfg.EvalInterval {
		return decision
	}
	d.evalTimer = 0

	//2.- Score the current lane and its immediate neighbours.
	currentScore := d.scoreLane(self.Lane, self, vehicles, hazards)
	bestLane := self.Lane
	bestScore := currentScore
	for _, lane := range []int{self.Lane - 1, self.Lane + 1} {
		if lane < 0 || lane >= self.LaneCount {
			continue
		}
		if score := d.scoreLane(lane, self, vehicles, hazards); score > bestScore {
			bestScore = score
			bestLane = lane
		}
	}

	//3.- Adopt the winner only past the hysteresis margin, then lock.
	if bestLane != self.Lane && bestScore-currentScore > d.cfg.Hysteresis {
		d.lockTimer = d.cfg.CommitLock
		return Decision{TargetLane: bestLane, Changed: true}
	}
	return decision
}

func (d *Decider) scoreLane(lane int, self SelfState, vehicles []VehicleObservation, hazards []HazardObservation) float64 {
	speedFactor := d.speedAdvantage(lane, self, vehicles)
	densityFactor := d.density(lane, self, vehicles)
	emergencyFactor := d.emergencyPressure(lane, self, vehicles)
	hazardFactor := d.hazardAvoidance(lane, self, hazards)
	playerFactor := d.playerAvoidance(lane, self, vehicles)
	sameFactor := 0.0
	if lane == self.Lane {
		// Merge bias: a small preference for staying put.
		sameFactor = 1.0
	}

	return d.cfg.WeightSpeed*speedFactor +
		d.cfg.WeightDensity*densityFactor +
		d.cfg.WeightEmergency*emergencyFactor +
		d.cfg.WeightHazard*hazardFactor +
		d.cfg.WeightPlayer*playerFactor +
		d.cfg.WeightSameLane*sameFactor
}

// speedAdvantage compares the slowest vehicle ahead in the lane against the
// deciding vehicle's own target speed.
func (d *Decider) speedAdvantage(lane int, self SelfState, vehicles []VehicleObservation) float64 {
	slowest := math.Inf(1)
	for _, obs := range vehicles {
		if obs.Lane != lane || obs.Distance <= self.Distance {
			continue
		}
		if obs.Distance-self.Distance > d.cfg.SafeDistance*2 {
			continue
		}
		if obs.Speed < slowest {
			slowest = obs.Speed
		}
	}
	if math.IsInf(slowest, 1) {
		return 1
	}
	if self.TargetSpeed <= 0 {
		return 0
	}
	return mathx.Saturate(slowest / self.TargetSpeed)
}

// density rewards empty lanes with an exponential falloff on occupancy.
func (d *Decider) density(lane int, self SelfState, vehicles []VehicleObservation) float64 {
	count := 0
	for _, obs := range vehicles {
		if obs.Lane != lane {
			continue
		}
		if math.Abs(obs.Distance-self.Distance) <= d.cfg.SafeDistance*2 {
			count++
		}
	}
	return math.Exp(-d.cfg.DensityFalloff * float64(count))
}

// emergencyPressure penalizes the emergency vehicle's lane and its neighbours
// scaled by proximity urgency.
func (d *Decider) emergencyPressure(lane int, self SelfState, vehicles []VehicleObservation) float64 {
	penalty := 0.0
	for _, obs := range vehicles {
		if !obs.Emergency {
			continue
		}
		distance := math.Abs(obs.Distance - self.Distance)
		urgency := mathx.Saturate(1 - distance/d.cfg.EmergencyRange)
		if urgency <= 0 {
			continue
		}
		switch {
		case obs.Lane == lane:
			penalty = math.Max(penalty, urgency)
		case obs.Lane == lane-1 || obs.Lane == lane+1:
			penalty = math.Max(penalty, urgency*0.5)
		}
	}
	return 1 - penalty
}

// hazardAvoidance scores the nearest hazard ahead in the lane, tripling the
// penalty for lethal classes.
func (d *Decider) hazardAvoidance(lane int, self SelfState, hazards []HazardObservation) float64 {
	worst := 1.0
	for _, obs := range hazards {
		if obs.Lane != lane || obs.Distance <= self.Distance {
			continue
		}
		clearance := mathx.Saturate((obs.Distance - self.Distance) / d.cfg.SafeDistance)
		penalty := (1 - clearance) * obs.Severity
		if obs.Lethal {
			penalty *= d.cfg.LethalPenalty
		}
		if score := mathx.Clamp(1-penalty, 0, 1); score < worst {
			worst = score
		}
	}
	return worst
}

// playerAvoidance keeps traffic from crowding the player's lane.
func (d *Decider) playerAvoidance(lane int, self SelfState, vehicles []VehicleObservation) float64 {
	factor := 1.0
	for _, obs := range vehicles {
		if !obs.Player || obs.Lane != lane {
			continue
		}
		distance := math.Abs(obs.Distance - self.Distance)
		if score := mathx.Saturate(distance / d.cfg.PlayerRadius); score < factor {
			factor = score
		}
	}
	return factor
}

// EmergencySlowdown returns the target-speed multiplier applied to a vehicle
// ahead of an approaching emergency vehicle in the same lane.
func EmergencySlowdown(self SelfState, vehicles []VehicleObservation, cfg config.TrafficAITuning) float64 {
	multiplier := 1.0
	for _, obs := range vehicles {
		if !obs.Emergency || obs.Lane != self.Lane {
			continue
		}
		//1.- Only an emergency approaching from behind slows traffic ahead of it.
		if obs.Distance >= self.Distance {
			continue
		}
		urgency := mathx.Saturate(1 - (self.Distance-obs.Distance)/cfg.EmergencyRange)
		if m := 1 - 0.5*urgency; m < multiplier {
			multiplier = m
		}
	}
	return multiplier
}
