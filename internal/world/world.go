package world

import (
	"overdrive/sim/internal/collision"
	"overdrive/sim/internal/config"
	"overdrive/sim/internal/crash"
	"overdrive/sim/internal/damage"
	"overdrive/sim/internal/events"
	"overdrive/sim/internal/input"
	"overdrive/sim/internal/logging"
	"overdrive/sim/internal/mathx"
	"overdrive/sim/internal/physics"
	"overdrive/sim/internal/scoring"
	"overdrive/sim/internal/track"
	"overdrive/sim/internal/traffic"
)

const (
	// Tick deltas outside this envelope are clamped so a hitching host never
	// destabilizes the integrators.
	minTickDt = 1.0 / 240
	maxTickDt = 1.0 / 20

	// autopilotRunTime is how long the autopilot drives after the handoff
	// before the player regains control of the fresh run.
	autopilotRunTime = 3.0

	brakingThreshold = 0.1
)

// World owns every simulation system and runs them in a fixed order once per
// tick: track generation, spawning, dynamics, lane decisions, magnetism,
// collision, damage, crash, scoring. Structural changes queue in a command
// buffer and apply atomically at the end of the tick.
type World struct {
	seed   uint32
	mode   config.Mode
	tuning config.Tuning
	log    *logging.Logger
	stream *events.Stream

	gen      *track.Generator
	spawner  *traffic.Spawner
	detector *collision.Detector
	changer  *traffic.LaneChanger

	damage *damage.Model
	crash  *crash.Machine
	score  *scoring.Engine

	tick    uint64
	elapsed float64
	run     int

	player     physics.State
	playerLane traffic.LaneState
	handling   physics.Handling

	hazards  []*traffic.Hazard
	vehicles []*Vehicle
	commands []traffic.Command

	autopilotLeft float64
	segmentIndex  uint64
	segmentDamage float64
}

// New builds a world for one seed and ruleset. The event stream is optional;
// a nil stream simply drops event publication.
func New(seed uint32, mode config.Mode, tuning config.Tuning, log *logging.Logger, stream *events.Stream) *World {
	if log == nil {
		log = logging.L()
	}
	w := &World{
		seed:     seed,
		mode:     mode,
		tuning:   tuning,
		log:      log,
		stream:   stream,
		gen:      track.NewGenerator(seed, tuning.Track),
		spawner:  traffic.NewSpawner(seed, tuning.Spawn, mode),
		detector: collision.NewDetector(tuning.Collision),
		changer:  traffic.NewLaneChanger(tuning.Lane, tuning.Dynamics.RefSpeed),
		damage:   damage.NewModel(tuning.Damage),
		crash:    crash.NewMachine(tuning.Crash, tuning.Dynamics.MinSpeed),
		score:    scoring.NewEngine(tuning.Risk),
		handling: physics.NominalHandling(),
		run:      1,
	}
	w.player = physics.NewState(0, tuning.Dynamics.RefSpeed*0.5)
	w.playerLane = traffic.NewLaneState(tuning.Track.LaneCount / 2)

	//1.- Prime the track and populate it before the first tick.
	added := w.gen.Advance(0)
	w.queueSpawns(added)
	w.drainCommands()

	w.publishLifecycle(events.PhaseRunStarted)
	w.log.Info("world initialised",
		logging.Uint64("seed", uint64(seed)),
		logging.String("mode", string(mode)),
		logging.Int("segments", len(w.gen.Segments())))
	return w
}

// Tick reports the current tick counter.
func (w *World) Tick() uint64 {
	if w == nil {
		return 0
	}
	return w.tick
}

// Elapsed reports simulated seconds since the world started.
func (w *World) Elapsed() float64 {
	if w == nil {
		return 0
	}
	return w.elapsed
}

// Step advances the whole simulation by one tick.
func (w *World) Step(controls input.Controls, dt float64) {
	if w == nil {
		return
	}
	dt = mathx.Clamp(dt, minTickDt, maxTickDt)
	w.tick++
	w.elapsed += dt

	//1.- Track generation and trailing-window destruction.
	added := w.gen.Advance(w.player.Distance)
	w.gen.Trim(w.player.Distance)

	//2.- Queue structural changes; they apply at the end of the tick.
	w.queueSpawns(added)
	w.queueDespawns()

	//3.- Player dynamics, with the autopilot overriding controls post-crash.
	effective := w.effectiveControls(controls, dt)
	prevDistance := w.player.Distance
	physics.StepLongitudinal(&w.player, effective.Throttle, effective.Brake, w.tuning.Dynamics, dt)
	physics.StepYaw(&w.player, effective.Steer, effective.Handbrake, w.handling, w.tuning.Dynamics, dt)
	physics.StepSlip(&w.player, effective.Handbrake, w.handling, w.tuning.Dynamics, dt)

	//4.- Lane decisions for the player and every AI vehicle.
	laneChanged := w.stepLaneDecisions(effective, dt)

	//5.- Lane magnetism and world-space pose.
	segment := w.gen.SegmentAt(w.player.Distance)
	if segment != nil {
		target := w.playerLane.BlendedOffset(segment.LaneCenter)
		physics.StepMagnetism(&w.player, physics.MagnetismInputs{
			TargetOffset: target,
			Steer:        effective.Steer,
			Autopilot:    w.autopilotLeft > 0,
			Handbrake:    effective.Handbrake,
			RefSpeed:     w.tuning.Dynamics.RefSpeed,
			HalfWidth:    segment.HalfWidth(),
			GripScale:    w.damage.GripScale(),
		}, w.tuning.Magnetism, dt)
		physics.UpdatePose(&w.player, segment.Frame(w.player.Distance), w.tuning.Dynamics, dt)
	}

	//6.- Collision, then damage conversion.
	w.stepCollision()

	//7.- Crash evaluation; scoring dies the instant a reason is set.
	w.stepCrash(dt)

	//8.- Scoring over the distance actually covered this tick.
	w.stepScoring(effective, prevDistance, laneChanged, segment, dt)

	//9.- Apply the deferred structural changes atomically.
	w.drainCommands()
}

// effectiveControls substitutes player input while crashed or under autopilot.
func (w *World) effectiveControls(controls input.Controls, dt float64) input.Controls {
	if w.crash.Crashed() {
		//1.- Post-crash the wreck coasts; input is ignored until the handoff.
		return input.Controls{Brake: 0.4}
	}
	if w.autopilotLeft > 0 {
		w.autopilotLeft -= dt
		cruise := w.crash.AutopilotSpeed()
		auto := input.Controls{}
		if w.player.Speed < cruise {
			auto.Throttle = 0.6
		} else {
			auto.Brake = 0.3
		}
		return auto
	}
	return controls.Clamped()
}

// stepLaneDecisions runs the player lane changer and the traffic AI, then
// advances every AI vehicle. It reports whether the player completed a lane
// change this tick.
func (w *World) stepLaneDecisions(effective input.Controls, dt float64) bool {
	hazardObs := w.hazardObservations()
	laneChanged := false

	if !w.crash.Crashed() && w.autopilotLeft <= 0 {
		others := w.vehicleObservations(0)
		blocked := func(lane int) bool {
			return traffic.LaneBlocked(lane, w.player.Distance, w.player.Speed, others, hazardObs, w.tuning.Lane)
		}
		result := w.changer.Update(&w.playerLane, effective.Steer, w.player.Speed, w.tuning.Track.LaneCount, blocked, dt)
		laneChanged = result.Completed
	}

	for _, v := range w.vehicles {
		self := traffic.SelfState{
			Lane:        v.Lane.Current,
			Distance:    v.State.Distance,
			Speed:       v.State.Speed,
			TargetSpeed: v.TargetSpeed,
			LaneCount:   w.tuning.Track.LaneCount,
		}
		others := w.vehicleObservations(v.ID)
		decision := v.Decider.Update(self, others, hazardObs, dt)
		if decision.Changed && !v.Lane.Changing &&
			!traffic.LaneBlocked(decision.TargetLane, self.Distance, self.Speed, others, hazardObs, w.tuning.Lane) {
			v.beginLaneChange(decision.TargetLane, w.tuning)
		}

		target := v.TargetSpeed * traffic.EmergencySlowdown(self, others, w.tuning.TrafficAI)
		v.step(w.gen.SegmentAt(v.State.Distance), target, w.tuning, dt)
	}
	return laneChanged
}

// stepCollision runs detection against unhit hazards, marks every overlap as
// hit, and converts the strongest impact into damage.
func (w *World) stepCollision() {
	obstacles := make([]collision.Obstacle, 0, len(w.hazards))
	for _, h := range w.hazards {
		if h.Hit {
			continue
		}
		obstacles = append(obstacles, collision.Obstacle{
			ID:       h.ID,
			Center:   h.Position,
			Half:     h.Class.HalfExtents(),
			Severity: h.Class.Severity(),
			Mass:     h.Class.MassFactor(),
		})
	}
	body := collision.Body{
		Center:   w.player.Position,
		Velocity: w.player.Forward.Scale(w.player.Speed).Add(w.player.Right.Scale(w.player.LateralVel)),
		Forward:  w.player.Forward,
		Half:     w.detector.PlayerHalfExtents(),
	}

	event, hits := w.detector.Detect(body, obstacles)
	for _, id := range hits {
		for _, h := range w.hazards {
			if h.ID == id {
				h.Hit = true
				h.HitAt = w.elapsed
				break
			}
		}
	}
	if event == nil {
		return
	}

	energy := w.damage.Apply(event.Normal, w.player.Forward, w.player.Right, event.ImpactSpeed, event.Severity)
	w.handling = w.damage.DeriveHandling()
	zone := damage.ImpactZone(event.Normal, w.player.Forward, w.player.Right)

	if w.stream != nil {
		w.stream.PublishCollision(&events.CollisionEvent{
			Tick:        w.tick,
			ObstacleID:  event.ObstacleID,
			HazardClass: w.hazardClass(event.ObstacleID).String(),
			ImpactSpeed: event.ImpactSpeed,
			Energy:      energy,
			Zone:        zone.String(),
		})
	}
	w.log.Debug("collision resolved",
		logging.Uint64("obstacle", event.ObstacleID),
		logging.Float64("impact_speed", event.ImpactSpeed),
		logging.Float64("energy", energy),
		logging.String("zone", zone.String()))
}

// stepCrash evaluates the crash machine and drives the handoff sequence.
func (w *World) stepCrash(dt float64) {
	entered := w.crash.Update(crash.Inputs{
		TotalDamage: w.damage.Total(),
		Critical:    w.damage.Critical(),
		Yaw:         w.player.Yaw,
		Speed:       w.player.Speed,
	}, dt)

	if entered {
		//1.- Scoring freezes in the same tick the reason is set.
		w.score.Deactivate()
		summary := w.score.Summarize()
		if w.stream != nil {
			w.stream.PublishCrash(&events.CrashEvent{
				Tick:     w.tick,
				Reason:   w.crash.Why().String(),
				Distance: summary.Distance,
				Score:    summary.Score,
			})
		}
		w.publishLifecycle(events.PhaseRunEnded)
		w.log.Info("run crashed",
			logging.Int("run", w.run),
			logging.String("reason", w.crash.Why().String()),
			logging.Float64("distance", summary.Distance),
			logging.Float64("score", summary.Score))
		return
	}

	//2.- Past the fade delay the autopilot takes over and a fresh run begins.
	if w.crash.Crashed() && w.crash.AutopilotActive() {
		w.startNextRun()
	}
}

// startNextRun clears the crash flags and resets every per-run system while
// the autopilot briefly drives.
func (w *World) startNextRun() {
	w.publishLifecycle(events.PhaseAutopilotEngaged)

	w.run++
	w.damage = damage.NewModel(w.tuning.Damage)
	w.handling = physics.NominalHandling()
	w.crash.Reset()
	w.score.Reset()
	w.player.Yaw = 0
	w.player.YawRate = 0
	w.player.Drifting = false
	w.autopilotLeft = autopilotRunTime
	w.segmentDamage = 0

	w.publishLifecycle(events.PhaseRunStarted)
	w.log.Info("run restarted", logging.Int("run", w.run))
}

// stepScoring feeds the risk and score engine for the tick.
func (w *World) stepScoring(effective input.Controls, prevDistance float64, laneChanged bool, segment *track.Segment, dt float64) {
	obs := scoring.Observation{
		Distance:      w.player.Distance,
		Speed:         w.player.Speed,
		LateralOffset: w.player.LateralOffset,
		Yaw:           w.player.Yaw,
		YawRate:       w.player.YawRate,
		Drifting:      w.player.Drifting,
		LaneChanged:   laneChanged,
	}
	for _, v := range w.vehicles {
		obs.Vehicles = append(obs.Vehicles, scoring.VehicleSighting{
			ID:            v.ID,
			Distance:      v.State.Distance,
			LateralOffset: v.State.LateralOffset,
			Emergency:     v.Emergency,
		})
	}
	for _, h := range w.hazards {
		obs.Hazards = append(obs.Hazards, scoring.HazardSighting{
			ID:            h.ID,
			Distance:      h.Distance,
			LateralOffset: h.LateralOffset,
			Severity:      h.Class.Severity(),
			Hit:           h.Hit,
		})
	}

	bonuses := w.score.Tick(scoring.TickInput{
		Observation:   obs,
		DistanceDelta: w.player.Distance - prevDistance,
		Braking:       effective.Brake > brakingThreshold,
		DamageRatio:   w.damage.Ratio(),
	}, dt)

	if w.stream != nil {
		for _, b := range bonuses {
			w.stream.PublishRiskBonus(&events.RiskBonusEvent{
				Tick:       w.tick,
				Bonus:      b.Kind.String(),
				Amount:     b.Amount,
				ComboCount: w.score.ComboCount(),
				RiskValue:  w.score.Risk(),
			})
		}
	}

	//1.- Crossing into a new segment settles the damage-free bonus.
	if segment != nil && segment.Index != w.segmentIndex {
		w.score.CompleteSegment(w.damage.Total() == w.segmentDamage)
		w.segmentIndex = segment.Index
		w.segmentDamage = w.damage.Total()
	}
}

// queueSpawns rolls spawn commands for freshly generated segments, keeping
// new entities inside the spawn-ahead band.
func (w *World) queueSpawns(added []*track.Segment) {
	pop := traffic.Populations{Hazards: w.countLiveHazards(), Vehicles: len(w.vehicles)}
	for _, segment := range added {
		for _, cmd := range w.spawner.ForSegment(segment, pop) {
			switch cmd.Kind {
			case traffic.CommandSpawnHazard:
				if !w.withinSpawnBand(cmd.Hazard.Distance) {
					continue
				}
				pop.Hazards++
			case traffic.CommandSpawnVehicle:
				if !w.withinSpawnBand(cmd.Vehicle.Distance) {
					continue
				}
				pop.Vehicles++
			}
			w.commands = append(w.commands, cmd)
		}
	}
}

func (w *World) withinSpawnBand(at float64) bool {
	ahead := at - w.player.Distance
	return ahead >= w.tuning.Spawn.SpawnAheadMin
}

// queueDespawns retires entities behind the window and decayed hit hazards.
func (w *World) queueDespawns() {
	obs := make([]traffic.VehicleObservation, 0, len(w.vehicles))
	for _, v := range w.vehicles {
		obs = append(obs, v.observation())
	}
	w.commands = append(w.commands, w.spawner.DespawnCommands(w.player.Distance, w.elapsed, w.hazards, obs)...)
}

// drainCommands applies the deferred structural changes atomically.
func (w *World) drainCommands() {
	for _, cmd := range w.commands {
		switch cmd.Kind {
		case traffic.CommandSpawnHazard:
			w.hazards = append(w.hazards, cmd.Hazard)
		case traffic.CommandSpawnVehicle:
			w.vehicles = append(w.vehicles, newVehicle(cmd.Vehicle, w.tuning))
		case traffic.CommandDespawnHazard:
			for i, h := range w.hazards {
				if h.ID == cmd.ID {
					w.hazards = append(w.hazards[:i], w.hazards[i+1:]...)
					break
				}
			}
		case traffic.CommandDespawnVehicle:
			for i, v := range w.vehicles {
				if v.ID == cmd.ID {
					w.vehicles = append(w.vehicles[:i], w.vehicles[i+1:]...)
					break
				}
			}
		}
	}
	w.commands = w.commands[:0]
}

// vehicleObservations builds the shared AI view, excluding the asking vehicle
// and appending the player under the reserved zero ID.
func (w *World) vehicleObservations(excludeID uint64) []traffic.VehicleObservation {
	obs := make([]traffic.VehicleObservation, 0, len(w.vehicles)+1)
	for _, v := range w.vehicles {
		if v.ID == excludeID {
			continue
		}
		obs = append(obs, v.observation())
	}
	obs = append(obs, traffic.VehicleObservation{
		Lane:     w.playerLane.Current,
		Distance: w.player.Distance,
		Speed:    w.player.Speed,
		Player:   true,
	})
	return obs
}

func (w *World) hazardObservations() []traffic.HazardObservation {
	obs := make([]traffic.HazardObservation, 0, len(w.hazards))
	for _, h := range w.hazards {
		if h.Hit {
			continue
		}
		obs = append(obs, traffic.HazardObservation{
			ID:       h.ID,
			Lane:     h.Lane,
			Distance: h.Distance,
			Severity: h.Class.Severity(),
			Lethal:   h.Class.Lethal(),
		})
	}
	return obs
}

func (w *World) countLiveHazards() int {
	count := 0
	for _, h := range w.hazards {
		if !h.Hit {
			count++
		}
	}
	return count
}

func (w *World) hazardClass(id uint64) traffic.HazardClass {
	for _, h := range w.hazards {
		if h.ID == id {
			return h.Class
		}
	}
	return traffic.HazardCone
}

func (w *World) publishLifecycle(phase string) {
	if w.stream == nil {
		return
	}
	w.stream.PublishLifecycle(&events.LifecycleEvent{
		Tick:  w.tick,
		Phase: phase,
		Seed:  w.seed,
		Mode:  string(w.mode),
	})
}
