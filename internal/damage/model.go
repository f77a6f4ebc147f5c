package damage

import (
	"math"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/mathx"
	"overdrive/sim/internal/physics"
)

// Zone identifies one of the four body quadrants damage is attributed to.
type Zone int

const (
	ZoneFront Zone = iota
	ZoneRear
	ZoneLeft
	ZoneRight
	zoneCount
)

// String reports the quadrant name for logs and snapshots.
func (z Zone) String() string {
	switch z {
	case ZoneFront:
		return "front"
	case ZoneRear:
		return "rear"
	case ZoneLeft:
		return "left"
	case ZoneRight:
		return "right"
	default:
		return "unknown"
	}
}

// Component identifies a degradable vehicle subsystem.
type Component int

const (
	ComponentSteering Component = iota
	ComponentSuspension
	ComponentTires
	ComponentEngine
	ComponentTransmission
	componentCount
)

// String reports the subsystem name for logs and snapshots.
func (c Component) String() string {
	switch c {
	case ComponentSteering:
		return "steering"
	case ComponentSuspension:
		return "suspension"
	case ComponentTires:
		return "tires"
	case ComponentEngine:
		return "engine"
	case ComponentTransmission:
		return "transmission"
	default:
		return "unknown"
	}
}

// componentZoneRatio maps how much each quadrant's incoming energy degrades
// each subsystem. Rows are components, columns follow the Zone order.
var componentZoneRatio = [componentCount][zoneCount]float64{
	ComponentSteering:     {0.55, 0.05, 0.20, 0.20},
	ComponentSuspension:   {0.15, 0.25, 0.30, 0.30},
	ComponentTires:        {0.10, 0.30, 0.30, 0.30},
	ComponentEngine:       {0.70, 0.10, 0.10, 0.10},
	ComponentTransmission: {0.10, 0.60, 0.15, 0.15},
}

// Model accumulates impact energy into zone levels, component health, and the
// unclamped running total consumed by the crash threshold check.
type Model struct {
	cfg    config.DamageTuning
	zones  [zoneCount]float64
	health [componentCount]float64
	failed uint8
	total  float64
}

// NewModel returns a pristine vehicle with full component health.
func NewModel(cfg config.DamageTuning) *Model {
	m := &Model{cfg: cfg}
	for i := range m.health {
		m.health[i] = 1
	}
	return m
}

// Apply converts one impact into damage. The normal points obstacle to player;
// forward and right are the vehicle body axes at the moment of contact. The
// deposited energy E = scale * v^2 * severity is returned in damage points.
func (m *Model) Apply(normal, forward, right mathx.Vec3, impactSpeed, severity float64) float64 {
	if m == nil || impactSpeed <= 0 || severity <= 0 {
		return 0
	}
	energy := m.cfg.EnergyScale * impactSpeed * impactSpeed * severity

	//1.- Decompose the contact normal onto the body axes. A normal pointing
	// backwards means the obstacle was ahead, so the front took the hit.
	shares := [zoneCount]float64{
		ZoneFront: math.Max(0, -normal.Dot(forward)),
		ZoneRear:  math.Max(0, normal.Dot(forward)),
		ZoneLeft:  math.Max(0, normal.Dot(right)),
		ZoneRight: math.Max(0, -normal.Dot(right)),
	}
	sum := 0.0
	for _, s := range shares {
		sum += s
	}
	if sum < mathx.Epsilon {
		//2.- Vertical or degenerate normals spread the energy evenly.
		for i := range shares {
			shares[i] = 0.25
		}
		sum = 1
	}

	//3.- Zones saturate at 1; the total keeps growing unclamped so the crash
	// threshold stays reachable after every quadrant is wrecked.
	fraction := energy / m.cfg.MaxDamage
	for i := range shares {
		shares[i] /= sum
		m.zones[i] = math.Min(1, m.zones[i]+shares[i]*fraction)
	}
	m.total += energy

	//4.- Components degrade by their zone exposure; failures latch one way.
	for c := Component(0); c < componentCount; c++ {
		loss := 0.0
		for z := Zone(0); z < zoneCount; z++ {
			loss += componentZoneRatio[c][z] * shares[z]
		}
		m.health[c] = math.Max(0, m.health[c]-loss*fraction)
		if m.health[c] <= m.cfg.FailureThreshold {
			m.failed |= 1 << uint(c)
		}
	}
	return energy
}

// Total reports the unclamped accumulated damage in points.
func (m *Model) Total() float64 {
	if m == nil {
		return 0
	}
	return m.total
}

// Ratio reports accumulated damage as a fraction of the configured maximum,
// saturated at 1 for consumers that need a bounded figure.
func (m *Model) Ratio() float64 {
	if m == nil || m.cfg.MaxDamage <= 0 {
		return 0
	}
	return math.Min(1, m.total/m.cfg.MaxDamage)
}

// ZoneLevel reports the saturation level of one quadrant in [0, 1].
func (m *Model) ZoneLevel(z Zone) float64 {
	if m == nil || z < 0 || z >= zoneCount {
		return 0
	}
	return m.zones[z]
}

// ComponentHealth reports the remaining health of one subsystem in [0, 1].
func (m *Model) ComponentHealth(c Component) float64 {
	if m == nil || c < 0 || c >= componentCount {
		return 0
	}
	return m.health[c]
}

// Failed reports whether the subsystem has latched into failure.
func (m *Model) Failed(c Component) bool {
	if m == nil || c < 0 || c >= componentCount {
		return false
	}
	return m.failed&(1<<uint(c)) != 0
}

// FailureCount reports how many subsystems have failed.
func (m *Model) FailureCount() int {
	if m == nil {
		return 0
	}
	count := 0
	for c := Component(0); c < componentCount; c++ {
		if m.failed&(1<<uint(c)) != 0 {
			count++
		}
	}
	return count
}

// Critical reports whether degradation alone warrants a crash: a failed
// steering rack or suspension, or any three subsystems gone.
func (m *Model) Critical() bool {
	if m == nil {
		return false
	}
	if m.Failed(ComponentSteering) || m.Failed(ComponentSuspension) {
		return true
	}
	return m.FailureCount() >= 3
}

// DeriveHandling maps the current degradation onto the dynamics factors:
// front damage dulls steering, rear damage loosens the tail.
func (m *Model) DeriveHandling() physics.Handling {
	if m == nil {
		return physics.NominalHandling()
	}
	steerLoss := math.Max(m.zones[ZoneFront], 1-m.health[ComponentSteering])
	return physics.Handling{
		SteerResponse: 1 - m.cfg.FrontSteerLoss*steerLoss,
		SlipScale:     1 + m.cfg.RearSlipGain*m.zones[ZoneRear],
	}
}

// ImpactZone reports the quadrant a contact normal maps to, for event
// reporting. Degenerate normals default to the front.
func ImpactZone(normal, forward, right mathx.Vec3) Zone {
	shares := [zoneCount]float64{
		ZoneFront: math.Max(0, -normal.Dot(forward)),
		ZoneRear:  math.Max(0, normal.Dot(forward)),
		ZoneLeft:  math.Max(0, normal.Dot(right)),
		ZoneRight: math.Max(0, -normal.Dot(right)),
	}
	best := ZoneFront
	for z := Zone(1); z < zoneCount; z++ {
		if shares[z] > shares[best] {
			best = z
		}
	}
	return best
}

// GripScale reports the lane-magnetism degradation from flank damage.
func (m *Model) GripScale() float64 {
	if m == nil {
		return 1
	}
	side := math.Max(m.zones[ZoneLeft], m.zones[ZoneRight])
	return math.Max(0, 1-m.cfg.SideGripLoss*side)
}
