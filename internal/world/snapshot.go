package world

import (
	"overdrive/sim/internal/damage"
	"overdrive/sim/internal/mathx"
	"overdrive/sim/internal/track"
)

// Snapshot is the per-tick observable state serialized for clients and the
// replay journal. It is a value copy; mutating it never touches the world.
type Snapshot struct {
	Tick    uint64  `json:"tick"`
	Elapsed float64 `json:"elapsed"`
	Run     int     `json:"run"`
	Seed    uint32  `json:"seed"`
	Mode    string  `json:"mode"`

	Player   PlayerSnapshot    `json:"player"`
	Damage   DamageSnapshot    `json:"damage"`
	Scoring  ScoringSnapshot   `json:"scoring"`
	Crash    CrashSnapshot     `json:"crash"`
	Hazards  []HazardSnapshot  `json:"hazards"`
	Vehicles []VehicleSnapshot `json:"vehicles"`
	Track    []SegmentSnapshot `json:"track"`
}

// PlayerSnapshot carries the player pose and dynamic state.
type PlayerSnapshot struct {
	Position      mathx.Vec3 `json:"position"`
	Forward       mathx.Vec3 `json:"forward"`
	Speed         float64    `json:"speed"`
	Distance      float64    `json:"distance"`
	LateralOffset float64    `json:"lateral_offset"`
	Yaw           float64    `json:"yaw"`
	YawRate       float64    `json:"yaw_rate"`
	Drifting      bool       `json:"drifting"`
	Lane          int        `json:"lane"`
	LaneTarget    int        `json:"lane_target"`
	LaneChanging  bool       `json:"lane_changing"`
	Autopilot     bool       `json:"autopilot"`
}

// DamageSnapshot carries zone levels, component health, and failures.
type DamageSnapshot struct {
	Total      float64            `json:"total"`
	Ratio      float64            `json:"ratio"`
	Zones      map[string]float64 `json:"zones"`
	Components map[string]float64 `json:"components"`
	Failures   []string           `json:"failures"`
	Critical   bool               `json:"critical"`
}

// ScoringSnapshot carries the live risk and score figures.
type ScoringSnapshot struct {
	Active     bool    `json:"active"`
	Risk       float64 `json:"risk"`
	RiskCap    float64 `json:"risk_cap"`
	ComboCount int     `json:"combo_count"`
	Score      float64 `json:"score"`
	Distance   float64 `json:"distance"`
}

// CrashSnapshot carries the crash state machine view.
type CrashSnapshot struct {
	Crashed bool    `json:"crashed"`
	Reason  string  `json:"reason,omitempty"`
	Elapsed float64 `json:"elapsed"`
}

// HazardSnapshot is the client view of one hazard.
type HazardSnapshot struct {
	ID       uint64     `json:"id"`
	Class    string     `json:"class"`
	Position mathx.Vec3 `json:"position"`
	Distance float64    `json:"distance"`
	Lane     int        `json:"lane"`
	Hit      bool       `json:"hit"`
}

// VehicleSnapshot is the client view of one traffic vehicle.
type VehicleSnapshot struct {
	ID        uint64     `json:"id"`
	Position  mathx.Vec3 `json:"position"`
	Distance  float64    `json:"distance"`
	Speed     float64    `json:"speed"`
	Lane      int        `json:"lane"`
	Emergency bool       `json:"emergency"`
}

// SegmentSnapshot is the coarse geometry clients need to render a segment.
type SegmentSnapshot struct {
	Index     uint64  `json:"index"`
	Kind      string  `json:"kind"`
	StartS    float64 `json:"start_s"`
	EndS      float64 `json:"end_s"`
	LaneCount int     `json:"lane_count"`
}

// Snapshot captures the observable state at the current tick boundary.
func (w *World) Snapshot() Snapshot {
	if w == nil {
		return Snapshot{}
	}
	snap := Snapshot{
		Tick:    w.tick,
		Elapsed: w.elapsed,
		Run:     w.run,
		Seed:    w.seed,
		Mode:    string(w.mode),
		Player: PlayerSnapshot{
			Position:      w.player.Position,
			Forward:       w.player.Forward,
			Speed:         w.player.Speed,
			Distance:      w.player.Distance,
			LateralOffset: w.player.LateralOffset,
			Yaw:           w.player.Yaw,
			YawRate:       w.player.YawRate,
			Drifting:      w.player.Drifting,
			Lane:          w.playerLane.Current,
			LaneTarget:    w.playerLane.Target,
			LaneChanging:  w.playerLane.Changing,
			Autopilot:     w.autopilotLeft > 0,
		},
		Damage: w.damageSnapshot(),
		Scoring: ScoringSnapshot{
			Active:     w.score.Active(),
			Risk:       w.score.Risk(),
			RiskCap:    w.score.RiskCap(w.damage.Ratio()),
			ComboCount: w.score.ComboCount(),
			Score:      w.score.Score(),
			Distance:   w.score.Summarize().Distance,
		},
		Crash: CrashSnapshot{
			Crashed: w.crash.Crashed(),
			Elapsed: w.crash.Elapsed(),
		},
	}
	if w.crash.Crashed() {
		snap.Crash.Reason = w.crash.Why().String()
	}

	for _, h := range w.hazards {
		snap.Hazards = append(snap.Hazards, HazardSnapshot{
			ID:       h.ID,
			Class:    h.Class.String(),
			Position: h.Position,
			Distance: h.Distance,
			Lane:     h.Lane,
			Hit:      h.Hit,
		})
	}
	for _, v := range w.vehicles {
		snap.Vehicles = append(snap.Vehicles, VehicleSnapshot{
			ID:        v.ID,
			Position:  v.State.Position,
			Distance:  v.State.Distance,
			Speed:     v.State.Speed,
			Lane:      v.Lane.Current,
			Emergency: v.Emergency,
		})
	}
	for _, segment := range w.gen.Segments() {
		snap.Track = append(snap.Track, segmentSnapshot(segment))
	}
	return snap
}

func (w *World) damageSnapshot() DamageSnapshot {
	snap := DamageSnapshot{
		Total:      w.damage.Total(),
		Ratio:      w.damage.Ratio(),
		Zones:      make(map[string]float64, 4),
		Components: make(map[string]float64, 5),
		Critical:   w.damage.Critical(),
	}
	for _, z := range []damage.Zone{damage.ZoneFront, damage.ZoneRear, damage.ZoneLeft, damage.ZoneRight} {
		snap.Zones[z.String()] = w.damage.ZoneLevel(z)
	}
	components := []damage.Component{
		damage.ComponentSteering, damage.ComponentSuspension, damage.ComponentTires,
		damage.ComponentEngine, damage.ComponentTransmission,
	}
	for _, c := range components {
		snap.Components[c.String()] = w.damage.ComponentHealth(c)
		if w.damage.Failed(c) {
			snap.Failures = append(snap.Failures, c.String())
		}
	}
	return snap
}

func segmentSnapshot(segment *track.Segment) SegmentSnapshot {
	return SegmentSnapshot{
		Index:     segment.Index,
		Kind:      segment.Kind.String(),
		StartS:    segment.StartS,
		EndS:      segment.EndS,
		LaneCount: segment.LaneCount,
	}
}
