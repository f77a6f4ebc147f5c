package collision

import (
	"math"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/mathx"
)

// Obstacle is the collision view of a static hazard. Hit obstacles are
// excluded from detection by the caller before the query.
type Obstacle struct {
	ID       uint64
	Center   mathx.Vec3
	Half     mathx.Vec3
	Severity float64
	Mass     float64
}

// Body is the moving collision proxy for the player vehicle.
type Body struct {
	Center   mathx.Vec3
	Velocity mathx.Vec3
	Forward  mathx.Vec3
	Half     mathx.Vec3
}

// Event reports the single strongest impact resolved for a tick.
type Event struct {
	ObstacleID   uint64
	Normal       mathx.Vec3
	ImpactSpeed  float64
	ContactPoint mathx.Vec3
	Severity     float64
	Mass         float64
}

// Detector runs the broad and narrow phase overlap tests.
type Detector struct {
	cfg config.CollisionTuning
}

// NewDetector builds a detector with the supplied tuning.
func NewDetector(cfg config.CollisionTuning) *Detector {
	return &Detector{cfg: cfg}
}

// PlayerHalfExtents exposes the configured player box for proxy construction.
func (d *Detector) PlayerHalfExtents() mathx.Vec3 {
	return mathx.Vec3{X: d.cfg.HalfWidth, Y: d.cfg.HalfHeight, Z: d.cfg.HalfLength}
}

// Detect tests the body against every obstacle. All overlapping obstacles are
// returned as hits; among them, the single highest-impact-speed candidate
// becomes the event (ties keep the earliest in encounter order). Impacts
// slower than the glancing threshold yield hits but no event.
func (d *Detector) Detect(body Body, obstacles []Obstacle) (*Event, []uint64) {
	if d == nil {
		return nil, nil
	}
	var (
		best   *Event
		hitIDs []uint64
	)
	broadSq := d.cfg.BroadRadius * d.cfg.BroadRadius

	for i := range obstacles {
		obstacle := &obstacles[i]
		//1.- Broad phase: squared-distance culling against far obstacles.
		delta := body.Center.Sub(obstacle.Center)
		if delta.LengthSq() > broadSq {
			continue
		}
		//2.- Narrow phase: world-axis-aligned box overlap.
		if !overlaps(body.Center, body.Half, obstacle.Center, obstacle.Half) {
			continue
		}
		hitIDs = append(hitIDs, obstacle.ID)

		//3.- Contact normal points obstacle to player, falling back to the
		// vehicle forward axis when the centers coincide.
		normal := delta.NormalizeOr(body.Forward.Scale(-1).NormalizeOr(mathx.Vec3{Z: -1}))
		impact := math.Max(0, -body.Velocity.Dot(normal))
		if best == nil || impact > best.ImpactSpeed {
			contact := body.Center.Add(obstacle.Center).Scale(0.5)
			best = &Event{
				ObstacleID:   obstacle.ID,
				Normal:       normal,
				ImpactSpeed:  impact,
				ContactPoint: contact,
				Severity:     obstacle.Severity,
				Mass:         obstacle.Mass,
			}
		}
	}

	if best != nil && best.ImpactSpeed < d.cfg.MinImpactSpeed {
		// Glancing contact: the obstacles are consumed but no event fires.
		best = nil
	}
	return best, hitIDs
}

func overlaps(centerA, halfA, centerB, halfB mathx.Vec3) bool {
	return math.Abs(centerA.X-centerB.X) <= halfA.X+halfB.X &&
		math.Abs(centerA.Y-centerB.Y) <= halfA.Y+halfB.Y &&
		math.Abs(centerA.Z-centerB.Z) <= halfA.Z+halfB.Z
}
