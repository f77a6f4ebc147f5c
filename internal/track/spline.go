package track

import (
	"math"

	"overdrive/sim/internal/mathx"
)

// HermiteSpline is a cubic Hermite curve joining two road cross sections.
// Tangents are stored pre-scaled by the segment length so Point evaluates
// directly on the normalized parameter.
type HermiteSpline struct {
	P0 mathx.Vec3
	P1 mathx.Vec3
	T0 mathx.Vec3
	T1 mathx.Vec3
}

// Point evaluates the curve at t in [0, 1].
func (h HermiteSpline) Point(t float64) mathx.Vec3 {
	t = mathx.Clamp(t, 0, 1)
	t2 := t * t
	t3 := t2 * t
	//1.- Standard Hermite basis functions over the clamped parameter.
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return h.P0.Scale(h00).Add(h.T0.Scale(h10)).Add(h.P1.Scale(h01)).Add(h.T1.Scale(h11))
}

// Tangent evaluates the first derivative at t in [0, 1].
func (h HermiteSpline) Tangent(t float64) mathx.Vec3 {
	t = mathx.Clamp(t, 0, 1)
	t2 := t * t
	d00 := 6*t2 - 6*t
	d10 := 3*t2 - 4*t + 1
	d01 := -6*t2 + 6*t
	d11 := 3*t2 - 2*t
	return h.P0.Scale(d00).Add(h.T0.Scale(d10)).Add(h.P1.Scale(d01)).Add(h.T1.Scale(d11))
}

func (h HermiteSpline) second(t float64) mathx.Vec3 {
	t = mathx.Clamp(t, 0, 1)
	s00 := 12*t - 6
	s10 := 6*t - 4
	s01 := -12*t + 6
	s11 := 6*t - 2
	return h.P0.Scale(s00).Add(h.T0.Scale(s10)).Add(h.P1.Scale(s01)).Add(h.T1.Scale(s11))
}

// curvatureSamples is the fixed sample count used when validating a segment.
const curvatureSamples = 10

// MaxCurvature samples the analytic curvature κ = |p′×p″| / |p′|³ and returns
// the largest value observed.
func (h HermiteSpline) MaxCurvature() float64 {
	maxK := 0.0
	for i := 0; i < curvatureSamples; i++ {
		t := (float64(i) + 0.5) / curvatureSamples
		first := h.Tangent(t)
		speed := first.Length()
		if speed < mathx.Epsilon {
			continue
		}
		k := first.Cross(h.second(t)).Length() / math.Pow(speed, 3)
		if k > maxK {
			maxK = k
		}
	}
	return maxK
}
