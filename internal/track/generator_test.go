package track

import (
	"math"
	"testing"

	"overdrive/sim/internal/config"
)

func testTuning() config.TrackTuning {
	return config.DefaultTuning().Track
}

func TestAdvanceIsDeterministicPerSeed(t *testing.T) {
	a := NewGenerator(42, testTuning())
	b := NewGenerator(42, testTuning())

	segsA := a.Advance(0)
	segsB := b.Advance(0)

	if len(segsA) == 0 || len(segsA) != len(segsB) {
		t.Fatalf("expected matching non-empty generations, got %d and %d", len(segsA), len(segsB))
	}
	for i := range segsA {
		if segsA[i].Kind != segsB[i].Kind || segsA[i].EndS != segsB[i].EndS || segsA[i].YawDelta != segsB[i].YawDelta {
			t.Fatalf("segment %d diverged between identical seeds", i)
		}
	}

	//1.- A different seed must produce a different road.
	c := NewGenerator(43, testTuning())
	segsC := c.Advance(0)
	same := true
	for i := 0; i < len(segsA) && i < len(segsC); i++ {
		if segsA[i].YawDelta != segsC[i].YawDelta {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different seeds to diverge")
	}
}

func TestSegmentsCoverMonotonicSpan(t *testing.T) {
	g := NewGenerator(7, testTuning())
	g.Advance(0)

	prevEnd := 0.0
	for i, segment := range g.Segments() {
		if segment.EndS <= segment.StartS {
			t.Fatalf("segment %d has non-positive span", i)
		}
		if segment.StartS != prevEnd {
			t.Fatalf("segment %d does not continue from previous end: start %.2f want %.2f", i, segment.StartS, prevEnd)
		}
		prevEnd = segment.EndS
	}
	if g.Frontier() < testTuning().LookaheadMeters {
		t.Fatalf("frontier %.2f short of lookahead", g.Frontier())
	}
}

func TestCurvatureStaysNearLimit(t *testing.T) {
	tuning := testTuning()
	g := NewGenerator(99, tuning)
	// Push difficulty up so yaw deltas reach their extremes.
	for s := 0.0; s < 8000; s += 400 {
		g.Advance(s)
		g.Trim(s)
	}

	limit := 1.0 / tuning.MinRadius
	for _, segment := range g.Segments() {
		if k := segment.Spline.MaxCurvature(); k > limit*1.05 {
			t.Fatalf("segment %d curvature %.4f exceeds limit %.4f", segment.Index, k, limit)
		}
	}
}

func TestTunnelsSpanTwoToFourSegments(t *testing.T) {
	g := NewGenerator(5, testTuning())
	for s := 0.0; s < 20000; s += 400 {
		g.Advance(s)
	}

	span := 0
	inTunnel := false
	for _, segment := range g.Segments() {
		switch {
		case segment.TunnelEntry:
			if inTunnel {
				t.Fatalf("tunnel entry %d inside an open tunnel", segment.Index)
			}
			inTunnel = true
			span = 1
			if segment.Kind != KindTunnel {
				t.Fatalf("tunnel entry %d not classified as tunnel", segment.Index)
			}
		case inTunnel:
			if segment.Kind != KindTunnel {
				t.Fatalf("segment %d interrupts a tunnel span", segment.Index)
			}
			span++
		}
		if segment.TunnelExit {
			if !inTunnel {
				t.Fatalf("tunnel exit %d without entry", segment.Index)
			}
			if span < 2 || span > 4 {
				t.Fatalf("tunnel span %d outside [2, 4]", span)
			}
			inTunnel = false
		}
	}
}

func TestSpecialSegmentsHonorCooldowns(t *testing.T) {
	tuning := testTuning()
	g := NewGenerator(11, tuning)
	for s := 0.0; s < 30000; s += 400 {
		g.Advance(s)
	}

	lastOverpass := -1
	lastFork := -1
	for i, segment := range g.Segments() {
		if segment.Kind == KindOverpass {
			if lastOverpass >= 0 && i-lastOverpass <= tuning.OverpassCooldown {
				t.Fatalf("overpasses at %d and %d violate cooldown %d", lastOverpass, i, tuning.OverpassCooldown)
			}
			lastOverpass = i
		}
		if segment.Kind == KindFork {
			if lastFork >= 0 && i-lastFork <= tuning.ForkCooldown {
				t.Fatalf("forks at %d and %d violate cooldown %d", lastFork, i, tuning.ForkCooldown)
			}
			lastFork = i
		}
	}
}

func TestTrimDestroysOnlyBehindWindow(t *testing.T) {
	tuning := testTuning()
	g := NewGenerator(3, tuning)
	g.Advance(0)
	g.Advance(1000)

	removed := g.Trim(1000)
	if len(removed) == 0 {
		t.Fatal("expected trailing segments to be destroyed")
	}
	for _, segment := range removed {
		if segment.EndS >= 1000-tuning.TrailingMeters {
			t.Fatalf("segment %d destroyed inside trailing window", segment.Index)
		}
	}
	for _, segment := range g.Segments() {
		if segment.EndS < 1000-tuning.TrailingMeters {
			t.Fatalf("segment %d survived beyond trailing window", segment.Index)
		}
	}
}

func TestFrameIsOrthonormal(t *testing.T) {
	g := NewGenerator(21, testTuning())
	g.Advance(0)

	for _, segment := range g.Segments() {
		frame := segment.Frame((segment.StartS + segment.EndS) / 2)
		for name, v := range map[string]float64{
			"forward": frame.Forward.Length(),
			"right":   frame.Right.Length(),
			"up":      frame.Up.Length(),
		} {
			if math.Abs(v-1) > 1e-6 {
				t.Fatalf("%s basis not unit length: %.6f", name, v)
			}
		}
		if dot := frame.Forward.Dot(frame.Right); math.Abs(dot) > 1e-6 {
			t.Fatalf("forward and right not orthogonal: %.6f", dot)
		}
	}
}

func TestHashIsStableAndSaltSensitive(t *testing.T) {
	if Hash64(1, 2, 3) != Hash64(1, 2, 3) {
		t.Fatal("hash must be stateless")
	}
	if Hash64(1, 2, saltYaw) == Hash64(1, 2, saltPitch) {
		t.Fatal("salts must produce independent streams")
	}
	for i := uint64(0); i < 1000; i++ {
		v := Float01(9, i, saltKind)
		if v < 0 || v >= 1 {
			t.Fatalf("Float01 out of range: %f", v)
		}
	}
}
