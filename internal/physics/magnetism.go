package physics

import (
	"math"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/mathx"
)

// MagnetismInputs captures the modulators feeding the lane-centering spring.
type MagnetismInputs struct {
	// TargetOffset is the lateral coordinate of the active lane center, or the
	// smoothstep-blended position mid lane change.
	TargetOffset float64
	Steer        float64
	Autopilot    bool
	Handbrake    bool
	RefSpeed     float64
	HalfWidth    float64
	// GripScale degrades the spring with accumulated side damage.
	GripScale float64
}

// StepMagnetism applies the critically damped spring pulling the lateral
// offset toward the lane target, plus the soft edge force near the road
// boundary, then integrates lateral velocity and offset.
func StepMagnetism(st *State, in MagnetismInputs, tun config.MagnetismTuning, dt float64) {
	if st == nil || dt <= 0 {
		return
	}

	//1.- The gain is the product of five independent bounded modulators.
	gain := 1 - math.Abs(mathx.Clamp(in.Steer, -1, 1))
	if in.Autopilot {
		gain *= tun.AutopilotBoost
	}
	if in.RefSpeed > 0 {
		gain *= mathx.Clamp(math.Sqrt(st.Speed/in.RefSpeed), tun.SpeedScaleMin, tun.SpeedScaleMax)
	}
	if in.Handbrake {
		gain *= tun.HandbrakeScale
	}
	if st.Drifting {
		gain *= tun.DriftScale
	}
	gain *= mathx.Clamp(in.GripScale, 0, 1)

	//2.- Critically damped spring toward the lane target.
	x := st.LateralOffset - in.TargetOffset
	accel := gain * (-tun.Omega*tun.Omega*x - 2*tun.Omega*st.LateralVel)

	//3.- Soft cubic edge force keeps vehicles on the drivable surface.
	edge := tun.EdgeStart * in.HalfWidth
	if edge > 0 && math.Abs(st.LateralOffset) > edge {
		pen := math.Abs(st.LateralOffset) - edge
		accel -= mathx.Sign(st.LateralOffset) * tun.EdgeStiffness * pen * pen * pen
	}

	st.LateralVel = mathx.Clamp(st.LateralVel+accel*dt, -tun.MaxLateralVel, tun.MaxLateralVel)
	st.LateralOffset += st.LateralVel * dt
}
