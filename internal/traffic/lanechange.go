package traffic

import (
	"math"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/mathx"
)

// LaneState tracks a vehicle's lane membership and any in-flight transition.
type LaneState struct {
	Current  int
	Target   int
	Changing bool
	Progress float64
	Duration float64
}

// NewLaneState seeds a vehicle in the given lane.
func NewLaneState(lane int) LaneState {
	return LaneState{Current: lane, Target: lane}
}

// BlockedFunc answers whether a lane is unavailable for the asking vehicle.
type BlockedFunc func(lane int) bool

// LaneChanger drives the player's steer-triggered lane transitions.
type LaneChanger struct {
	cfg      config.LaneTuning
	refSpeed float64
}

// NewLaneChanger builds a lane changer; refSpeed normalizes the duration scale.
func NewLaneChanger(cfg config.LaneTuning, refSpeed float64) *LaneChanger {
	if refSpeed <= 0 {
		refSpeed = 40
	}
	return &LaneChanger{cfg: cfg, refSpeed: refSpeed}
}

// Started reports a freshly triggered change this update, Completed a change
// that finished this update.
type LaneChangeResult struct {
	Started   bool
	Reversed  bool
	Completed bool
}

// Update advances an in-flight transition and triggers new ones from steer
// input. A strong counter-steer before the halfway point reverses the
// transition in place by swapping the remaining progress.
func (lc *LaneChanger) Update(st *LaneState, steer, speed float64, laneCount int, blocked BlockedFunc, dt float64) LaneChangeResult {
	var result LaneChangeResult
	if lc == nil || st == nil || dt <= 0 {
		return result
	}

	if st.Changing {
		//1.- Reverse in place on a strong opposite steer before 50% progress.
		direction := float64(st.Target - st.Current)
		if st.Progress < 0.5 && steer*direction < 0 && math.Abs(steer) > lc.cfg.CounterSteer {
			st.Current, st.Target = st.Target, st.Current
			st.Progress = 1 - st.Progress
			result.Reversed = true
		}
		st.Progress += dt / st.Duration
		if st.Progress >= 1 {
			st.Progress = 1
			st.Current = st.Target
			st.Changing = false
			result.Completed = true
		}
		return result
	}

	//2.- Trigger a new change once steer crosses the threshold toward a free lane.
	if math.Abs(steer) <= lc.cfg.SteerTrigger {
		return result
	}
	target := st.Current + int(mathx.Sign(steer))
	if target < 0 || target >= laneCount {
		return result
	}
	if blocked != nil && blocked(target) {
		return result
	}

	st.Target = target
	st.Changing = true
	st.Progress = 0
	//3.- Duration scales with speed, clamped to the tuned window.
	st.Duration = mathx.Clamp(lc.cfg.BaseDuration*speed/lc.refSpeed, lc.cfg.MinDuration, lc.cfg.MaxDuration)
	result.Started = true
	return result
}

// BlendedOffset returns the lateral target between the two lane centers while
// a change is in flight, using the smoothstep ease.
func (st *LaneState) BlendedOffset(centerOf func(lane int) float64) float64 {
	if centerOf == nil {
		return 0
	}
	if st == nil || !st.Changing {
		if st == nil {
			return 0
		}
		return centerOf(st.Current)
	}
	from := centerOf(st.Current)
	to := centerOf(st.Target)
	return mathx.Lerp(from, to, mathx.Smoothstep(st.Progress))
}

// LaneBlocked reports whether any tracked vehicle or hazard occupies the
// longitudinal window around the asking vehicle in the candidate lane. The
// window widens with the relative closing speed.
func LaneBlocked(lane int, selfDistance, selfSpeed float64, vehicles []VehicleObservation, hazards []HazardObservation, cfg config.LaneTuning) bool {
	for _, obs := range vehicles {
		if obs.Lane != lane {
			continue
		}
		ahead := cfg.BlockAhead
		behind := cfg.BlockBehind
		//1.- Widen the window by how fast the gap is closing.
		if obs.Distance >= selfDistance {
			ahead += cfg.ClosingSpeedGain * math.Max(0, selfSpeed-obs.Speed)
			if obs.Distance-selfDistance <= ahead {
				return true
			}
		} else {
			behind += cfg.ClosingSpeedGain * math.Max(0, obs.Speed-selfSpeed)
			if selfDistance-obs.Distance <= behind {
				return true
			}
		}
	}
	for _, obs := range hazards {
		if obs.Lane != lane || obs.Distance < selfDistance {
			continue
		}
		if obs.Distance-selfDistance <= cfg.BlockAhead {
			return true
		}
	}
	return false
}
