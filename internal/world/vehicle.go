package world

import (
	"overdrive/sim/internal/config"
	"overdrive/sim/internal/mathx"
	"overdrive/sim/internal/physics"
	"overdrive/sim/internal/track"
	"overdrive/sim/internal/traffic"
)

// Vehicle is one AI-driven traffic participant.
type Vehicle struct {
	ID        uint64
	Emergency bool

	State       physics.State
	Lane        traffic.LaneState
	Decider     *traffic.Decider
	TargetSpeed float64
}

// newVehicle materializes a spawn command into a live vehicle. The decider
// phase is derived from the ID so a column of cars never re-scores in lockstep.
func newVehicle(spawn *traffic.VehicleSpawn, tuning config.Tuning) *Vehicle {
	v := &Vehicle{
		ID:          spawn.ID,
		Emergency:   spawn.Emergency,
		State:       physics.NewState(spawn.Distance, spawn.Speed),
		Lane:        traffic.NewLaneState(spawn.Lane),
		Decider:     traffic.NewDecider(tuning.TrafficAI, float64(spawn.ID)*0.137),
		TargetSpeed: spawn.Speed,
	}
	return v
}

// beginLaneChange starts an eased transition toward the decided lane.
func (v *Vehicle) beginLaneChange(target int, tuning config.Tuning) {
	if v == nil || target == v.Lane.Current {
		return
	}
	v.Lane.Target = target
	v.Lane.Changing = true
	v.Lane.Progress = 0
	v.Lane.Duration = mathx.Clamp(
		tuning.Lane.BaseDuration*v.State.Speed/tuning.Dynamics.RefSpeed,
		tuning.Lane.MinDuration, tuning.Lane.MaxDuration)
}

// step advances the vehicle's longitudinal motion and lane transition.
func (v *Vehicle) step(segment *track.Segment, targetSpeed float64, tuning config.Tuning, dt float64) {
	if v == nil || segment == nil {
		return
	}
	from := segment.LaneCenter(v.Lane.Current)
	to := segment.LaneCenter(v.Lane.Target)

	progress := 1.0
	if v.Lane.Changing && v.Lane.Duration > 0 {
		v.Lane.Progress += dt / v.Lane.Duration
		if v.Lane.Progress >= 1 {
			v.Lane.Progress = 1
			v.Lane.Current = v.Lane.Target
			v.Lane.Changing = false
		}
		progress = v.Lane.Progress
	} else {
		from = to
	}

	physics.StepTraffic(&v.State, targetSpeed, from, to, progress, tuning.Dynamics, dt)
	frame := segment.Frame(v.State.Distance)
	v.State.Position = frame.Position.Add(frame.Right.Scale(v.State.LateralOffset))
	v.State.Forward = frame.Forward
	v.State.Right = frame.Right
	v.State.Up = frame.Up
}

// observation projects the vehicle into the shared AI view.
func (v *Vehicle) observation() traffic.VehicleObservation {
	return traffic.VehicleObservation{
		ID:        v.ID,
		Lane:      v.Lane.Current,
		Distance:  v.State.Distance,
		Speed:     v.State.Speed,
		Emergency: v.Emergency,
	}
}
