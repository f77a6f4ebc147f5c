package physics

import (
	"math"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/mathx"
	"overdrive/sim/internal/track"
)

// State is the per-vehicle dynamic state integrated once per tick. Yaw is the
// drift angle relative to the track-aligned heading and is deliberately
// unbounded so multi-revolution spins accumulate.
type State struct {
	Speed         float64
	LateralVel    float64
	Yaw           float64
	YawRate       float64
	Drifting      bool
	Distance      float64
	LateralOffset float64

	Position mathx.Vec3
	Forward  mathx.Vec3
	Right    mathx.Vec3
	Up       mathx.Vec3
}

// NewState seeds a vehicle at the given longitudinal coordinate and speed with
// a world-axis orientation until the first pose update.
func NewState(distance, speed float64) State {
	return State{
		Speed:    speed,
		Distance: distance,
		Forward:  mathx.Vec3{Z: 1},
		Right:    mathx.Vec3{X: 1},
		Up:       mathx.Vec3{Y: 1},
	}
}

// Handling carries the damage-derived degradation factors applied to the
// dynamics model each tick.
type Handling struct {
	// SteerResponse scales steering torque, degraded by front damage.
	SteerResponse float64
	// SlipScale scales the drift slip gain upward with rear damage.
	SlipScale float64
}

// NominalHandling is the undamaged handling baseline.
func NominalHandling() Handling {
	return Handling{SteerResponse: 1, SlipScale: 1}
}

// StepLongitudinal advances forward speed from throttle and brake, applies
// drag, and hard-clamps to the survivable envelope. The lower clamp is the
// defining invariant: the vehicle never stalls, even mid-spin.
func StepLongitudinal(st *State, throttle, brake float64, tun config.DynamicsTuning, dt float64) {
	if st == nil || dt <= 0 {
		return
	}
	st.Speed += (throttle*tun.ThrottleAccel - brake*tun.BrakeDecel) * dt
	st.Speed -= st.Speed * tun.DragCoeff * dt
	st.Speed = mathx.Clamp(st.Speed, tun.MinSpeed, tun.MaxSpeed)
	st.Distance += st.Speed * dt
}

// StepYaw integrates the explicit second-order drift model:
// ψ̈ = τ_steer + τ_drift − c·ψ̇, with a recovery torque −k_r·ψ after the
// handbrake releases until the drift settles.
func StepYaw(st *State, steer float64, handbrake bool, handling Handling, tun config.DynamicsTuning, dt float64) {
	if st == nil || dt <= 0 {
		return
	}

	steerTorque := tun.SteerTorque * steer * (st.Speed / tun.RefSpeed) * handling.SteerResponse

	driftTorque := 0.0
	if handbrake && math.Abs(steer) > tun.SteerDeadzone {
		//1.- Handbrake plus steer input kicks the rear out and flags the drift.
		driftTorque = tun.DriftTorque * mathx.Sign(steer) * math.Sqrt(st.Speed)
		st.Drifting = true
	}

	recoveryTorque := 0.0
	if !handbrake && st.Drifting {
		//2.- Pull the nose back toward the track heading until the drift settles.
		recoveryTorque = -tun.RecoveryTorque * st.Yaw
		if math.Abs(st.Yaw) < tun.DriftExitYaw && math.Abs(st.YawRate) < tun.DriftExitRate {
			st.Drifting = false
			st.Yaw = 0
			recoveryTorque = 0
		}
	}

	accel := steerTorque + driftTorque + recoveryTorque - tun.YawDamping*st.YawRate
	st.YawRate = mathx.Clamp(st.YawRate+accel*dt, -tun.MaxYawRate, tun.MaxYawRate)
	// Yaw stays unbounded so full 360° rotations remain observable.
	st.Yaw += st.YawRate * dt
}

// StepSlip applies the lateral slip model while drifting and decays lateral
// velocity geometrically otherwise.
func StepSlip(st *State, handbrake bool, handling Handling, tun config.DynamicsTuning, dt float64) {
	if st == nil || dt <= 0 {
		return
	}
	if st.Drifting || handbrake {
		//1.- Slip angle between the heading and the actual velocity vector.
		beta := st.Yaw - math.Atan2(st.LateralVel, st.Speed)
		gain := tun.SlipGain * handling.SlipScale
		st.LateralVel += gain * math.Sin(beta) * st.Speed * dt
		return
	}
	decay := tun.LateralDecay * dt
	if decay > 1 {
		decay = 1
	}
	st.LateralVel -= st.LateralVel * decay
}

// UpdatePose places the vehicle in world space from the road frame at its
// longitudinal progress and blends orientation toward the yaw-rotated frame.
// Blending slows while drifting so the visual heading lags the snap of the
// physics yaw.
func UpdatePose(st *State, frame track.Frame, tun config.DynamicsTuning, dt float64) {
	if st == nil {
		return
	}
	st.Position = frame.Position.Add(frame.Right.Scale(st.LateralOffset))

	//1.- Rotate the track basis by the yaw offset about the road up axis.
	sin, cos := math.Sincos(st.Yaw)
	targetForward := frame.Forward.Scale(cos).Add(frame.Right.Scale(sin))
	targetRight := frame.Right.Scale(cos).Sub(frame.Forward.Scale(sin))

	rate := tun.OrientBlendRate
	if st.Drifting {
		rate *= 0.45
	}
	blend := 1 - math.Exp(-rate*dt)
	if dt <= 0 {
		blend = 1
	}

	//2.- Blend and re-orthonormalize so the basis never degenerates.
	st.Forward = lerpVec(st.Forward, targetForward, blend).NormalizeOr(frame.Forward)
	st.Right = lerpVec(st.Right, targetRight, blend)
	st.Up = frame.Up
	st.Right = st.Up.Cross(st.Forward).NormalizeOr(frame.Right)
}

func lerpVec(a, b mathx.Vec3, t float64) mathx.Vec3 {
	return a.Add(b.Sub(a).Scale(t))
}

// StepTraffic is the simplified variant applied to AI vehicles: no drift term,
// speed eased toward the lane target, lateral offset interpolated with a
// smoothstep during lane changes instead of the spring.
func StepTraffic(st *State, targetSpeed, fromOffset, toOffset, changeProgress float64, tun config.DynamicsTuning, dt float64) {
	if st == nil || dt <= 0 {
		return
	}
	//1.- Ease speed toward the AI target, clamped to the same envelope.
	delta := targetSpeed - st.Speed
	accel := mathx.Clamp(delta*1.5, -tun.BrakeDecel, tun.ThrottleAccel)
	st.Speed = mathx.Clamp(st.Speed+accel*dt, tun.MinSpeed, tun.MaxSpeed)
	st.Distance += st.Speed * dt

	//2.- Smoothstep the lateral offset between lane centers.
	st.LateralOffset = mathx.Lerp(fromOffset, toOffset, mathx.Smoothstep(changeProgress))
}
