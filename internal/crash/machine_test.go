package crash

import (
	"testing"

	"overdrive/sim/internal/config"
)

const tick = 1.0 / 60

func newMachine() *Machine {
	tun := config.DefaultTuning()
	return NewMachine(tun.Crash, tun.Dynamics.MinSpeed)
}

func TestDamageThresholdCrashes(t *testing.T) {
	m := newMachine()
	if m.Update(Inputs{TotalDamage: 99.9, Speed: 30}, tick) {
		t.Fatal("below-threshold damage must not crash")
	}
	if !m.Update(Inputs{TotalDamage: 100, Speed: 30}, tick) {
		t.Fatal("reaching the damage threshold must crash")
	}
	if m.Why() != ReasonTotalDamage {
		t.Fatalf("expected total_damage reason, got %s", m.Why())
	}
}

func TestCriticalFailureCrashes(t *testing.T) {
	m := newMachine()
	if !m.Update(Inputs{TotalDamage: 40, Critical: true, Speed: 30}, tick) {
		t.Fatal("critical component failure must crash")
	}
	if m.Why() != ReasonCriticalFailure {
		t.Fatalf("expected critical_failure reason, got %s", m.Why())
	}
}

func TestCompoundNeedsAllThreeConditions(t *testing.T) {
	cases := []struct {
		name string
		in   Inputs
		want bool
	}{
		{"all conditions", Inputs{TotalDamage: 70, Yaw: 1.5, Speed: 8.5}, true},
		{"negative spin counts", Inputs{TotalDamage: 70, Yaw: -1.5, Speed: 8.5}, true},
		{"yaw recoverable", Inputs{TotalDamage: 70, Yaw: 0.8, Speed: 8.5}, false},
		{"still carrying speed", Inputs{TotalDamage: 70, Yaw: 1.5, Speed: 25}, false},
		{"not damaged enough", Inputs{TotalDamage: 40, Yaw: 1.5, Speed: 8.5}, false},
	}
	for _, tc := range cases {
		m := newMachine()
		if got := m.Update(tc.in, tick); got != tc.want {
			t.Fatalf("%s: crashed=%v, want %v", tc.name, got, tc.want)
		}
		if tc.want && m.Why() != ReasonCompound {
			t.Fatalf("%s: expected compound reason, got %s", tc.name, m.Why())
		}
	}
}

func TestReasonIsSetOnce(t *testing.T) {
	m := newMachine()
	m.Update(Inputs{TotalDamage: 40, Critical: true, Speed: 30}, tick)
	//1.- Later ticks satisfying a different condition must not rewrite it.
	m.Update(Inputs{TotalDamage: 150, Speed: 30}, tick)
	if m.Why() != ReasonCriticalFailure {
		t.Fatalf("reason rewritten to %s", m.Why())
	}
}

func TestDamageThresholdWinsSameTickPrecedence(t *testing.T) {
	m := newMachine()
	m.Update(Inputs{TotalDamage: 120, Critical: true, Yaw: 1.5, Speed: 8.5}, tick)
	if m.Why() != ReasonTotalDamage {
		t.Fatalf("expected total_damage precedence, got %s", m.Why())
	}
}

func TestAutopilotHandoffAfterDelay(t *testing.T) {
	m := newMachine()
	delay := config.DefaultTuning().Crash.HandoffDelay
	m.Update(Inputs{TotalDamage: 100, Speed: 30}, tick)

	elapsed := 0.0
	for elapsed < delay-tick {
		if m.AutopilotActive() {
			t.Fatalf("autopilot engaged early at %.2fs", elapsed)
		}
		m.Update(Inputs{}, tick)
		elapsed += tick
	}
	m.Update(Inputs{}, tick)
	m.Update(Inputs{}, tick)
	if !m.AutopilotActive() {
		t.Fatalf("autopilot must engage after the handoff delay, elapsed %.2fs", m.Elapsed())
	}
}

func TestResetReturnsToLiveState(t *testing.T) {
	m := newMachine()
	m.Update(Inputs{TotalDamage: 100, Speed: 30}, tick)
	for i := 0; i < 120; i++ {
		m.Update(Inputs{}, tick)
	}
	m.Reset()
	if m.Crashed() || m.AutopilotActive() || m.Why() != ReasonNone || m.Elapsed() != 0 {
		t.Fatal("reset must fully restore the live state")
	}
	if m.Update(Inputs{TotalDamage: 10, Speed: 30}, tick) {
		t.Fatal("fresh run must not crash on light damage")
	}
}
