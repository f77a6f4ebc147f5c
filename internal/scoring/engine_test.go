package scoring

import (
	"math"
	"testing"
)

func TestTickScoreUsesTierAndRisk(t *testing.T) {
	tun := riskTuning()
	e := NewEngine(tun)

	//1.- Cruise tier at zero risk pays distance times one.
	e.Tick(TickInput{Observation: Observation{Speed: 20}, DistanceDelta: 10}, tick)
	if math.Abs(e.Score()-10) > 1e-9 {
		t.Fatalf("cruise tick expected 10 points, got %.3f", e.Score())
	}

	//2.- Boost tier triples the same distance.
	e = NewEngine(tun)
	e.Tick(TickInput{Observation: Observation{Speed: 60}, DistanceDelta: 10}, tick)
	if math.Abs(e.Score()-30) > 1e-9 {
		t.Fatalf("boost tick expected 30 points, got %.3f", e.Score())
	}
}

func TestTickIncrementIsCapped(t *testing.T) {
	tun := riskTuning()
	e := NewEngine(tun)
	//1.- An absurd distance delta is clipped to the per-tick cap.
	e.Tick(TickInput{Observation: Observation{Speed: 60}, DistanceDelta: 1000}, tick)
	if e.Score() != tun.ScoreTickCap {
		t.Fatalf("expected tick cap %.0f, got %.3f", tun.ScoreTickCap, e.Score())
	}
}

func TestScoreCeilingIsHard(t *testing.T) {
	tun := riskTuning()
	s := NewSession(tun)
	s.AddPoints(2 * tun.ScoreCeiling)
	if s.Score() != tun.ScoreCeiling {
		t.Fatalf("expected ceiling %.0f, got %.0f", tun.ScoreCeiling, s.Score())
	}
	s.AddTick(100, 3, 5)
	if s.Score() != tun.ScoreCeiling {
		t.Fatal("ceiling must hold under further ticks")
	}
}

func TestDeactivationFreezesScoringImmediately(t *testing.T) {
	e := NewEngine(riskTuning())
	e.Tick(TickInput{Observation: Observation{Speed: 40}, DistanceDelta: 10}, tick)
	frozen := e.Score()

	e.Deactivate()
	if bonuses := e.Tick(TickInput{Observation: Observation{Speed: 40}, DistanceDelta: 10}, tick); bonuses != nil {
		t.Fatal("a deactivated engine must not detect events")
	}
	if e.Score() != frozen {
		t.Fatalf("score moved after deactivation: %.3f vs %.3f", e.Score(), frozen)
	}
	if e.Active() {
		t.Fatal("engine must report inactive")
	}
}

func TestBonusesRaiseRiskThroughTheCombo(t *testing.T) {
	e := NewEngine(riskTuning())
	obs := Observation{Speed: 40, Drifting: true, Yaw: 0.9}

	//1.- A drift recovery raises the risk value from zero.
	e.Tick(TickInput{Observation: obs, DistanceDelta: 0.5}, tick)
	obs.Drifting = false
	obs.Yaw = 0
	bonuses := e.Tick(TickInput{Observation: obs, DistanceDelta: 0.5}, tick)
	if len(collect(bonuses, BonusDriftRecovery)) != 1 {
		t.Fatal("expected the drift recovery to surface from Tick")
	}
	if e.Risk() <= 0 {
		t.Fatal("bonus must raise the risk value")
	}
	if e.ComboCount() != 1 {
		t.Fatalf("combo chain expected length 1, got %d", e.ComboCount())
	}

	summary := e.Summarize()
	if summary.Counters.DriftRecoveries != 1 {
		t.Fatalf("summary must count the recovery, got %+v", summary.Counters)
	}
}

func TestRiskMultipliesDistanceScore(t *testing.T) {
	tun := riskTuning()
	plain := NewEngine(tun)
	plain.Tick(TickInput{Observation: Observation{Speed: 40}, DistanceDelta: 10}, tick)

	risky := NewEngine(tun)
	risky.risk.AddBonus(4, 0)
	risky.Tick(TickInput{Observation: Observation{Speed: 40}, DistanceDelta: 10}, tick)

	if risky.Score() <= plain.Score() {
		t.Fatalf("risk must multiply the same distance: %.3f vs %.3f", risky.Score(), plain.Score())
	}
}

func TestCleanSegmentPaysFlatBonus(t *testing.T) {
	tun := riskTuning()
	e := NewEngine(tun)
	e.CompleteSegment(true)
	if e.Score() != tun.SegmentBonus {
		t.Fatalf("expected segment bonus %.0f, got %.3f", tun.SegmentBonus, e.Score())
	}
	if e.Summarize().Counters.CleanSegments != 1 {
		t.Fatal("clean segment must be counted")
	}

	before := e.Score()
	e.CompleteSegment(false)
	if e.Score() != before {
		t.Fatal("a damaged segment must not pay")
	}
}

func TestResetStartsAFreshRun(t *testing.T) {
	e := NewEngine(riskTuning())
	e.Tick(TickInput{Observation: Observation{Speed: 60}, DistanceDelta: 50}, tick)
	e.Deactivate()
	e.Reset()

	if !e.Active() || e.Score() != 0 || e.Risk() != 0 || e.ComboCount() != 0 {
		t.Fatal("reset must restore a pristine active engine")
	}
}
