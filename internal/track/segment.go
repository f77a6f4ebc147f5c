package track

import "overdrive/sim/internal/mathx"

// Kind classifies a generated road segment.
type Kind int

const (
	KindStraight Kind = iota
	KindCurve
	KindTunnel
	KindOverpass
	KindFork
)

func (k Kind) String() string {
	switch k {
	case KindStraight:
		return "straight"
	case KindCurve:
		return "curve"
	case KindTunnel:
		return "tunnel"
	case KindOverpass:
		return "overpass"
	case KindFork:
		return "fork"
	default:
		return "unknown"
	}
}

// Segment is one spline piece of road, addressed by longitudinal coordinate.
type Segment struct {
	Index       uint64
	StartS      float64
	EndS        float64
	Spline      HermiteSpline
	LaneCount   int
	LaneWidth   float64
	Difficulty  float64
	Kind        Kind
	YawDelta    float64
	TunnelEntry bool
	TunnelExit  bool
}

// Length returns the longitudinal span of the segment.
func (s *Segment) Length() float64 {
	if s == nil {
		return 0
	}
	return s.EndS - s.StartS
}

// Frame is the road-aligned basis at a longitudinal coordinate, used to place
// vehicles and to rotate their drift offset into world space.
type Frame struct {
	Position mathx.Vec3
	Forward  mathx.Vec3
	Right    mathx.Vec3
	Up       mathx.Vec3
}

var worldUp = mathx.Vec3{Y: 1}

// Frame samples the spline at the given longitudinal coordinate, clamped to
// the segment span.
func (s *Segment) Frame(at float64) Frame {
	if s == nil || s.Length() < mathx.Epsilon {
		//1.- Degenerate segments fall back to the world axes rather than NaN.
		return Frame{Forward: mathx.Vec3{Z: 1}, Right: mathx.Vec3{X: 1}, Up: worldUp}
	}
	t := (at - s.StartS) / s.Length()
	forward := s.Spline.Tangent(t).NormalizeOr(mathx.Vec3{Z: 1})
	right := worldUp.Cross(forward).NormalizeOr(mathx.Vec3{X: 1})
	up := forward.Cross(right).NormalizeOr(worldUp)
	return Frame{
		Position: s.Spline.Point(t),
		Forward:  forward,
		Right:    right,
		Up:       up,
	}
}

// Contains reports whether the longitudinal coordinate lies inside the segment.
func (s *Segment) Contains(at float64) bool {
	return s != nil && at >= s.StartS && at < s.EndS
}

// LaneCenter returns the lateral offset of the lane center from the road axis.
// Lane indices run left to right starting at zero.
func (s *Segment) LaneCenter(lane int) float64 {
	if s == nil || s.LaneCount <= 0 {
		return 0
	}
	if lane < 0 {
		lane = 0
	}
	if lane >= s.LaneCount {
		lane = s.LaneCount - 1
	}
	return (float64(lane) - float64(s.LaneCount-1)/2) * s.LaneWidth
}

// HalfWidth returns half the drivable road width.
func (s *Segment) HalfWidth() float64 {
	if s == nil {
		return 0
	}
	return float64(s.LaneCount) * s.LaneWidth / 2
}
