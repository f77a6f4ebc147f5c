package traffic

import "overdrive/sim/internal/mathx"

// HazardClass enumerates the five static obstacle taxonomies.
type HazardClass int

const (
	HazardCone HazardClass = iota
	HazardTirePile
	HazardBarrel
	HazardWreck
	HazardBarrier
)

const hazardClassCount = 5

func (c HazardClass) String() string {
	switch c {
	case HazardCone:
		return "cone"
	case HazardTirePile:
		return "tire_pile"
	case HazardBarrel:
		return "barrel"
	case HazardWreck:
		return "wreck"
	case HazardBarrier:
		return "barrier"
	default:
		return "unknown"
	}
}

// Severity returns the fixed per-class damage severity in [0, 1].
func (c HazardClass) Severity() float64 {
	switch c {
	case HazardCone:
		return 0.1
	case HazardTirePile:
		return 0.25
	case HazardBarrel:
		return 0.45
	case HazardWreck:
		return 0.75
	case HazardBarrier:
		return 0.9
	default:
		return 0
	}
}

// MassFactor returns the fixed per-class mass factor used by impact response.
func (c HazardClass) MassFactor() float64 {
	switch c {
	case HazardCone:
		return 0.05
	case HazardTirePile:
		return 0.2
	case HazardBarrel:
		return 0.5
	case HazardWreck:
		return 1.5
	case HazardBarrier:
		return 3.0
	default:
		return 1
	}
}

// Lethal reports whether the class triggers the tripled avoidance penalty in
// the traffic AI scoring.
func (c HazardClass) Lethal() bool {
	return c == HazardWreck || c == HazardBarrier
}

// HalfExtents returns the per-class collision half extents.
func (c HazardClass) HalfExtents() mathx.Vec3 {
	switch c {
	case HazardCone:
		return mathx.Vec3{X: 0.25, Y: 0.4, Z: 0.25}
	case HazardTirePile:
		return mathx.Vec3{X: 0.8, Y: 0.6, Z: 0.8}
	case HazardBarrel:
		return mathx.Vec3{X: 0.4, Y: 0.6, Z: 0.4}
	case HazardWreck:
		return mathx.Vec3{X: 1.0, Y: 0.8, Z: 2.2}
	case HazardBarrier:
		return mathx.Vec3{X: 1.6, Y: 0.7, Z: 0.5}
	default:
		return mathx.Vec3{X: 0.5, Y: 0.5, Z: 0.5}
	}
}

// Hazard is a static obstacle placed on the road. Once hit it is excluded from
// further collision checks until despawn.
type Hazard struct {
	ID            uint64
	Class         HazardClass
	Distance      float64
	Lane          int
	LateralOffset float64
	Position      mathx.Vec3
	Hit           bool
	// HitAt records the simulation time of the impact for despawn decay.
	HitAt float64
}
