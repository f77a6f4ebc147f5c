package traffic

import (
	"math"
	"testing"

	"overdrive/sim/internal/config"
)

func laneTuning() config.LaneTuning { return config.DefaultTuning().Lane }

func TestLaneChangeTriggersAndCompletesOnSchedule(t *testing.T) {
	lc := NewLaneChanger(laneTuning(), 40)
	st := NewLaneState(1)

	//1.- Steer 0.5 at 40 m/s: duration clamp(0.6*40/40, 0.45, 1.0) = 0.6s.
	result := lc.Update(&st, 0.5, 40, 4, func(int) bool { return false }, 1.0/60)
	if !result.Started {
		t.Fatal("steer above trigger must start a change")
	}
	if math.Abs(st.Duration-0.6) > 1e-9 {
		t.Fatalf("expected duration 0.6s, got %.3f", st.Duration)
	}
	if st.Target != 2 {
		t.Fatalf("steer right from lane 1 must target lane 2, got %d", st.Target)
	}

	elapsed := 1.0 / 60
	for st.Changing {
		lc.Update(&st, 0.5, 40, 4, nil, 1.0/60)
		elapsed += 1.0 / 60
		if elapsed > 1.5 {
			t.Fatal("lane change never completed")
		}
	}
	if elapsed < 0.6 {
		t.Fatalf("change completed early at %.3fs", elapsed)
	}
	if st.Current != 2 || st.Changing {
		t.Fatalf("expected settled lane 2, got current %d changing %v", st.Current, st.Changing)
	}
}

func TestLaneChangeBelowTriggerDoesNothing(t *testing.T) {
	lc := NewLaneChanger(laneTuning(), 40)
	st := NewLaneState(1)
	if result := lc.Update(&st, 0.3, 40, 4, nil, 1.0/60); result.Started {
		t.Fatal("steer below 0.35 must not trigger a change")
	}
}

func TestLaneChangeBlockedLaneIsRefused(t *testing.T) {
	lc := NewLaneChanger(laneTuning(), 40)
	st := NewLaneState(1)
	blocked := func(lane int) bool { return lane == 2 }
	if result := lc.Update(&st, 0.9, 40, 4, blocked, 1.0/60); result.Started {
		t.Fatal("blocked lane must refuse the change")
	}
	if st.Changing {
		t.Fatal("state mutated despite refusal")
	}
}

func TestCounterSteerReversesBeforeHalfway(t *testing.T) {
	lc := NewLaneChanger(laneTuning(), 40)
	st := NewLaneState(1)
	lc.Update(&st, 0.6, 40, 4, nil, 1.0/60)

	//1.- Run to roughly 30% progress.
	for st.Progress < 0.3 {
		lc.Update(&st, 0.6, 40, 4, nil, 1.0/60)
	}
	progress := st.Progress

	//2.- A hard opposite steer swaps the transition in place.
	result := lc.Update(&st, -0.9, 40, 4, nil, 1.0/60)
	if !result.Reversed {
		t.Fatal("expected in-place reversal")
	}
	if st.Target != 1 || st.Current != 2 {
		t.Fatalf("expected swapped endpoints, got current %d target %d", st.Current, st.Target)
	}
	if st.Progress < 1-progress-0.1 || st.Progress > 1-progress+0.1 {
		t.Fatalf("expected mirrored progress near %.2f, got %.2f", 1-progress, st.Progress)
	}
}

func TestCounterSteerAfterHalfwayDoesNotReverse(t *testing.T) {
	lc := NewLaneChanger(laneTuning(), 40)
	st := NewLaneState(1)
	lc.Update(&st, 0.6, 40, 4, nil, 1.0/60)
	for st.Progress < 0.6 {
		lc.Update(&st, 0.6, 40, 4, nil, 1.0/60)
	}
	if result := lc.Update(&st, -0.95, 40, 4, nil, 1.0/60); result.Reversed {
		t.Fatal("reversal past 50% progress must be ignored")
	}
}

func TestLaneBlockedWindowWidensWithClosingSpeed(t *testing.T) {
	tun := laneTuning()
	// A vehicle 30m ahead of the base window.
	obs := []VehicleObservation{{Lane: 2, Distance: 100 + tun.BlockAhead + 10, Speed: 10}}

	//1.- At matched speed the gap is clear.
	if LaneBlocked(2, 100, 10, obs, nil, tun) {
		t.Fatal("matched speed should not block beyond the base window")
	}
	//2.- A large closing speed widens the window over the same gap.
	if !LaneBlocked(2, 100, 40, obs, nil, tun) {
		t.Fatal("closing fast should widen the blocking window")
	}
}

func TestLaneBlockedSeesHazards(t *testing.T) {
	tun := laneTuning()
	hazards := []HazardObservation{{Lane: 0, Distance: 110}}
	if !LaneBlocked(0, 100, 30, nil, hazards, tun) {
		t.Fatal("hazard inside the ahead window must block the lane")
	}
	if LaneBlocked(1, 100, 30, nil, hazards, tun) {
		t.Fatal("hazard in another lane must not block")
	}
}

func TestBlendedOffsetEasesBetweenLaneCenters(t *testing.T) {
	st := NewLaneState(1)
	centers := func(lane int) float64 { return float64(lane)*3.6 - 5.4 }
	if got := st.BlendedOffset(centers); got != centers(1) {
		t.Fatalf("settled state must sit on its lane center, got %.2f", got)
	}
	st.Changing = true
	st.Target = 2
	st.Progress = 0.5
	want := (centers(1) + centers(2)) / 2
	if got := st.BlendedOffset(centers); math.Abs(got-want) > 1e-9 {
		t.Fatalf("midway blend expected %.3f, got %.3f", want, got)
	}
}
