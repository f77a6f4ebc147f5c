package world

import (
	"math"
	"testing"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/input"
	"overdrive/sim/internal/logging"
	"overdrive/sim/internal/mathx"
	"overdrive/sim/internal/traffic"
)

const tick = 1.0 / 60

func newTestWorld(seed uint32) *World {
	return New(seed, config.ModeArcade, config.DefaultTuning(), logging.NewTestLogger(), nil)
}

func TestNewWorldPrimesTrackAndPlayer(t *testing.T) {
	w := newTestWorld(42)

	if len(w.gen.Segments()) == 0 {
		t.Fatal("world must start with generated track")
	}
	if w.player.Speed <= 0 {
		t.Fatalf("player must start moving, got %.2f", w.player.Speed)
	}
	want := w.tuning.Track.LaneCount / 2
	if w.playerLane.Current != want {
		t.Fatalf("player must start in the middle lane %d, got %d", want, w.playerLane.Current)
	}
}

func TestSpeedNeverLeavesEnvelope(t *testing.T) {
	w := newTestWorld(7)
	tun := w.tuning.Dynamics

	//1.- Full brake for five seconds cannot stall the vehicle.
	for i := 0; i < 300; i++ {
		w.Step(input.Controls{Brake: 1}, tick)
	}
	if w.player.Speed < tun.MinSpeed {
		t.Fatalf("speed %.2f fell below the floor %.2f", w.player.Speed, tun.MinSpeed)
	}

	//2.- Full throttle for thirty seconds cannot exceed the ceiling.
	for i := 0; i < 1800; i++ {
		w.Step(input.Controls{Throttle: 1}, tick)
	}
	if w.player.Speed > tun.MaxSpeed {
		t.Fatalf("speed %.2f exceeded the ceiling %.2f", w.player.Speed, tun.MaxSpeed)
	}
}

func TestStepClampsTickDelta(t *testing.T) {
	w := newTestWorld(7)

	w.Step(input.Controls{}, 1.0)
	if math.Abs(w.Elapsed()-maxTickDt) > 1e-12 {
		t.Fatalf("oversized delta must clamp to %.4f, elapsed %.4f", maxTickDt, w.Elapsed())
	}

	w2 := newTestWorld(7)
	w2.Step(input.Controls{}, 0)
	if math.Abs(w2.Elapsed()-minTickDt) > 1e-12 {
		t.Fatalf("undersized delta must clamp to %.6f, elapsed %.6f", minTickDt, w2.Elapsed())
	}
}

func TestSameSeedProducesIdenticalRuns(t *testing.T) {
	a := newTestWorld(9001)
	b := newTestWorld(9001)

	controls := input.Controls{Throttle: 0.8, Steer: 0.2}
	for i := 0; i < 600; i++ {
		a.Step(controls, tick)
		b.Step(controls, tick)
	}

	if a.player.Distance != b.player.Distance {
		t.Fatalf("distances diverged: %.6f vs %.6f", a.player.Distance, b.player.Distance)
	}
	if len(a.hazards) != len(b.hazards) || len(a.vehicles) != len(b.vehicles) {
		t.Fatalf("populations diverged: %d/%d hazards, %d/%d vehicles",
			len(a.hazards), len(b.hazards), len(a.vehicles), len(b.vehicles))
	}
	for i := range a.hazards {
		if a.hazards[i].ID != b.hazards[i].ID || a.hazards[i].Distance != b.hazards[i].Distance {
			t.Fatalf("hazard %d diverged", i)
		}
	}
	for i := range a.vehicles {
		if a.vehicles[i].ID != b.vehicles[i].ID || a.vehicles[i].State.Distance != b.vehicles[i].State.Distance {
			t.Fatalf("vehicle %d diverged", i)
		}
	}
}

func TestSpawnsRespectAheadBand(t *testing.T) {
	w := newTestWorld(1337)
	minAhead := w.tuning.Spawn.SpawnAheadMin

	//1.- Despawns apply one tick after the crossing, so allow a short overhang.
	check := func() {
		slack := w.tuning.Spawn.DespawnBehind + 5
		for _, h := range w.hazards {
			if !h.Hit && w.player.Distance-h.Distance > slack {
				t.Fatalf("hazard %d lingers %.1f m behind", h.ID, w.player.Distance-h.Distance)
			}
		}
	}
	for _, h := range w.hazards {
		if h.Distance-w.player.Distance < minAhead {
			t.Fatalf("initial hazard %d spawned only %.1f m ahead, want at least %.1f",
				h.ID, h.Distance-w.player.Distance, minAhead)
		}
	}
	for i := 0; i < 1200; i++ {
		w.Step(input.Controls{Throttle: 1}, tick)
	}
	check()
}

func TestCommandsApplyAtomicallyAtTickEnd(t *testing.T) {
	w := newTestWorld(3)
	w.hazards = nil
	w.vehicles = nil

	hazard := &traffic.Hazard{ID: 900, Class: traffic.HazardBarrel, Distance: 500}
	w.commands = append(w.commands,
		traffic.Command{Kind: traffic.CommandSpawnHazard, Hazard: hazard},
		traffic.Command{Kind: traffic.CommandSpawnVehicle, Vehicle: &traffic.VehicleSpawn{ID: 901, Lane: 1, Distance: 520, Speed: 25}},
	)
	if len(w.hazards) != 0 || len(w.vehicles) != 0 {
		t.Fatal("queued commands must not be visible before the drain")
	}

	w.drainCommands()
	if len(w.hazards) != 1 || w.hazards[0].ID != 900 {
		t.Fatalf("hazard spawn not applied: %d hazards", len(w.hazards))
	}
	if len(w.vehicles) != 1 || w.vehicles[0].ID != 901 {
		t.Fatalf("vehicle spawn not applied: %d vehicles", len(w.vehicles))
	}
	if len(w.commands) != 0 {
		t.Fatalf("drain must empty the buffer, %d left", len(w.commands))
	}

	//1.- Despawns remove exactly the named entity.
	w.commands = append(w.commands, traffic.Command{Kind: traffic.CommandDespawnHazard, ID: 900})
	w.drainCommands()
	if len(w.hazards) != 0 {
		t.Fatal("hazard despawn not applied")
	}
}

func TestDamageThresholdCrashStopsScoringSameTick(t *testing.T) {
	w := newTestWorld(11)

	//1.- A single brutal frontal impact pushes past the damage threshold.
	normal := mathx.Vec3{Z: -1}
	forward := mathx.Vec3{Z: 1}
	right := mathx.Vec3{X: 1}
	w.damage.Apply(normal, forward, right, 55, 1.0)
	if w.damage.Total() < w.tuning.Crash.DamageThreshold {
		t.Fatalf("setup failed: total %.1f below threshold", w.damage.Total())
	}

	w.Step(input.Controls{Throttle: 1}, tick)
	if !w.crash.Crashed() {
		t.Fatal("damage past the threshold must crash on the next evaluation")
	}
	if got := w.crash.Why().String(); got != "total_damage" {
		t.Fatalf("wrong crash reason %q", got)
	}
	if w.score.Active() {
		t.Fatal("scoring must deactivate in the crash tick")
	}

	//2.- Post-crash input is ignored; the wreck coasts down.
	before := w.player.Speed
	for i := 0; i < 30; i++ {
		w.Step(input.Controls{Throttle: 1}, tick)
	}
	if w.player.Speed > before {
		t.Fatalf("throttle must be ignored while crashed: %.2f -> %.2f", before, w.player.Speed)
	}
}

func TestCrashHandoffStartsFreshRun(t *testing.T) {
	w := newTestWorld(11)
	w.damage.Apply(mathx.Vec3{Z: -1}, mathx.Vec3{Z: 1}, mathx.Vec3{X: 1}, 55, 1.0)
	w.Step(input.Controls{}, tick)
	if !w.crash.Crashed() {
		t.Fatal("setup failed: world did not crash")
	}

	//1.- Ride out the handoff delay; the autopilot then resets the run.
	steps := int(w.tuning.Crash.HandoffDelay/tick) + 2
	for i := 0; i < steps; i++ {
		w.Step(input.Controls{}, tick)
	}
	if w.crash.Crashed() {
		t.Fatal("handoff must clear the crash state")
	}
	if w.run != 2 {
		t.Fatalf("run counter must advance, got %d", w.run)
	}
	if w.damage.Total() != 0 {
		t.Fatalf("damage must reset for the new run, total %.1f", w.damage.Total())
	}
	if !w.score.Active() {
		t.Fatal("scoring must rearm for the new run")
	}
	if w.autopilotLeft <= 0 {
		t.Fatal("autopilot must briefly drive the fresh run")
	}

	//2.- The autopilot window expires and hands control back.
	for i := 0; i < int(autopilotRunTime/tick)+2; i++ {
		w.Step(input.Controls{}, tick)
	}
	if w.autopilotLeft > 0 {
		t.Fatalf("autopilot window must expire, %.2f left", w.autopilotLeft)
	}
}

func TestSnapshotReflectsWorldState(t *testing.T) {
	w := newTestWorld(21)
	for i := 0; i < 120; i++ {
		w.Step(input.Controls{Throttle: 0.5}, tick)
	}

	snap := w.Snapshot()
	if snap.Tick != w.Tick() || snap.Run != 1 || snap.Seed != 21 {
		t.Fatalf("snapshot header wrong: %+v", snap)
	}
	if snap.Player.Distance != w.player.Distance || snap.Player.Speed != w.player.Speed {
		t.Fatal("snapshot player state diverged")
	}
	if len(snap.Track) != len(w.gen.Segments()) {
		t.Fatalf("snapshot track window wrong: %d vs %d", len(snap.Track), len(w.gen.Segments()))
	}
	if len(snap.Damage.Zones) != 4 || len(snap.Damage.Components) != 5 {
		t.Fatalf("snapshot damage maps incomplete: %d zones, %d components",
			len(snap.Damage.Zones), len(snap.Damage.Components))
	}
	if !snap.Scoring.Active {
		t.Fatal("scoring must report active on a healthy run")
	}

	//1.- The snapshot is a value copy; mutating it never touches the world.
	snap.Player.Speed = -1
	if w.player.Speed == -1 {
		t.Fatal("snapshot mutation leaked into the world")
	}
}

func TestRelaxedModeSpawnsNoHazards(t *testing.T) {
	w := New(77, config.ModeRelaxed, config.DefaultTuning(), logging.NewTestLogger(), nil)
	for i := 0; i < 1200; i++ {
		w.Step(input.Controls{Throttle: 1}, tick)
	}
	if len(w.hazards) != 0 {
		t.Fatalf("relaxed mode must not spawn hazards, got %d", len(w.hazards))
	}
}
