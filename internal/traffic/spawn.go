package traffic

import (
	"overdrive/sim/internal/config"
	"overdrive/sim/internal/track"
)

// Spawn salts namespace the per-segment hash draws used by the spawners.
const (
	saltHazardRoll  uint64 = 0x11
	saltHazardKind  uint64 = 0x13
	saltHazardLane  uint64 = 0x17
	saltHazardPos   uint64 = 0x19
	saltTrafficRoll uint64 = 0x23
	saltTrafficLane uint64 = 0x29
	saltTrafficPos  uint64 = 0x2B
	saltTrafficVel  uint64 = 0x2F
	saltEmergency   uint64 = 0x31
)

// CommandKind tags a deferred structural mutation.
type CommandKind int

const (
	CommandSpawnHazard CommandKind = iota
	CommandSpawnVehicle
	CommandDespawnHazard
	CommandDespawnVehicle
)

// VehicleSpawn describes a traffic or emergency vehicle to create.
type VehicleSpawn struct {
	ID        uint64
	Lane      int
	Distance  float64
	Speed     float64
	Emergency bool
}

// Command is one entry in the deferred structural-change buffer. Commands are
// queued during the tick and applied atomically at its end so mid-tick queries
// never observe half-created entities.
type Command struct {
	Kind    CommandKind
	Hazard  *Hazard
	Vehicle *VehicleSpawn
	ID      uint64
}

// Populations carries the live entity counts so the spawner can respect caps.
type Populations struct {
	Hazards  int
	Vehicles int
}

// Spawner populates entities along freshly generated track. All draws are
// deterministic hashes of (seed, segment index) so a seed fully determines
// the spawn layout.
type Spawner struct {
	seed   uint32
	cfg    config.SpawnTuning
	mode   config.Mode
	nextID uint64
}

// NewSpawner constructs a spawner for the given ruleset.
func NewSpawner(seed uint32, cfg config.SpawnTuning, mode config.Mode) *Spawner {
	return &Spawner{seed: seed, cfg: cfg, mode: mode, nextID: 1}
}

// ForSegment rolls spawn commands for one newly generated segment. Requests
// beyond the population caps are silently skipped; the next segment retries.
func (sp *Spawner) ForSegment(segment *track.Segment, pop Populations) []Command {
	if sp == nil || segment == nil {
		return nil
	}
	var commands []Command

	//1.- Hazards spawn only in arcade mode and below the population cap.
	if sp.mode != config.ModeRelaxed && pop.Hazards < sp.cfg.MaxHazards {
		chance := sp.cfg.HazardChance * (0.5 + segment.Difficulty)
		if track.Float01(sp.seed, segment.Index, saltHazardRoll) < chance {
			commands = append(commands, sp.hazardCommand(segment))
			pop.Hazards++
		}
	}

	//2.- Traffic fills toward its cap with one candidate per segment.
	if pop.Vehicles < sp.cfg.MaxTraffic {
		if track.Float01(sp.seed, segment.Index, saltTrafficRoll) < sp.cfg.TrafficChance {
			emergency := track.Float01(sp.seed, segment.Index, saltEmergency) < sp.cfg.EmergencyChance
			commands = append(commands, sp.vehicleCommand(segment, emergency))
		}
	}
	return commands
}

func (sp *Spawner) hazardCommand(segment *track.Segment) Command {
	lane := track.IntN(sp.seed, segment.Index, saltHazardLane, segment.LaneCount)
	at := segment.StartS + track.Float01(sp.seed, segment.Index, saltHazardPos)*segment.Length()
	class := HazardClass(track.IntN(sp.seed, segment.Index, saltHazardKind, hazardClassCount))
	frame := segment.Frame(at)
	offset := segment.LaneCenter(lane)
	hazard := &Hazard{
		ID:            sp.allocID(),
		Class:         class,
		Distance:      at,
		Lane:          lane,
		LateralOffset: offset,
		Position:      frame.Position.Add(frame.Right.Scale(offset)),
	}
	return Command{Kind: CommandSpawnHazard, Hazard: hazard}
}

func (sp *Spawner) vehicleCommand(segment *track.Segment, emergency bool) Command {
	lane := track.IntN(sp.seed, segment.Index, saltTrafficLane, segment.LaneCount)
	at := segment.StartS + track.Float01(sp.seed, segment.Index, saltTrafficPos)*segment.Length()
	speed := track.FloatRange(sp.seed, segment.Index, saltTrafficVel, sp.cfg.TrafficSpeedMin, sp.cfg.TrafficSpeedMax)
	if emergency {
		speed += sp.cfg.EmergencySpeedBump
	}
	spawn := &VehicleSpawn{
		ID:        sp.allocID(),
		Lane:      lane,
		Distance:  at,
		Speed:     speed,
		Emergency: emergency,
	}
	return Command{Kind: CommandSpawnVehicle, Vehicle: spawn}
}

func (sp *Spawner) allocID() uint64 {
	id := sp.nextID
	sp.nextID++
	return id
}

// hazardHitDecay is how long a struck hazard lingers before despawning.
const hazardHitDecay = 3.0

// DespawnCommands flags hazards and vehicles that fell behind the despawn
// window, plus struck hazards past their decay, so the tick can retire them
// atomically at its end.
func (sp *Spawner) DespawnCommands(playerS, now float64, hazards []*Hazard, vehicles []VehicleObservation) []Command {
	if sp == nil {
		return nil
	}
	cutoff := playerS - sp.cfg.DespawnBehind
	var commands []Command
	for _, hazard := range hazards {
		if hazard.Distance < cutoff || (hazard.Hit && now-hazard.HitAt > hazardHitDecay) {
			commands = append(commands, Command{Kind: CommandDespawnHazard, ID: hazard.ID})
		}
	}
	for _, obs := range vehicles {
		if obs.Distance < cutoff {
			commands = append(commands, Command{Kind: CommandDespawnVehicle, ID: obs.ID})
		}
	}
	return commands
}
