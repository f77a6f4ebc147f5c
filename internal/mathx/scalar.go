package mathx

import "math"

// Clamp bounds value to the inclusive [lo, hi] range.
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Saturate clamps value to the unit interval.
func Saturate(value float64) float64 {
	return Clamp(value, 0, 1)
}

// Lerp interpolates linearly between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Smoothstep evaluates the cubic ease curve 3t²−2t³ on the saturated input.
func Smoothstep(t float64) float64 {
	t = Saturate(t)
	return t * t * (3 - 2*t)
}

// WrapAngle normalizes an angle to the [−π, π) range.
func WrapAngle(angle float64) float64 {
	//1.- math.Mod keeps the value bounded across many integration steps.
	wrapped := math.Mod(angle+math.Pi, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

// Sign reports −1, 0, or +1 for the value.
func Sign(value float64) float64 {
	switch {
	case value > 0:
		return 1
	case value < 0:
		return -1
	default:
		return 0
	}
}
