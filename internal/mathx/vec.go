package mathx

import "math"

// Vec3 is the vector type shared by the track, physics, and collision stages.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Add returns the component wise sum of two vectors.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns the difference between two vectors.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale multiplies the vector by a scalar.
func (v Vec3) Scale(scalar float64) Vec3 {
	return Vec3{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Dot returns the scalar dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the right-handed cross product of two vectors.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Length computes the Euclidean norm of the vector.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// LengthSq computes the squared norm, avoiding the square root for culling tests.
func (v Vec3) LengthSq() float64 {
	return v.Dot(v)
}

// NormalizeOr returns the unit vector, or the fallback when the magnitude is degenerate.
func (v Vec3) NormalizeOr(fallback Vec3) Vec3 {
	//1.- Degenerate directions fall back instead of propagating NaN through the tick.
	length := v.Length()
	if length < Epsilon {
		return fallback
	}
	inv := 1.0 / length
	return Vec3{X: v.X * inv, Y: v.Y * inv, Z: v.Z * inv}
}

// Epsilon bounds the magnitudes treated as zero by the simulation stages.
const Epsilon = 1e-9
