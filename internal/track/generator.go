package track

import (
	"math"

	"overdrive/sim/internal/config"
	"overdrive/sim/internal/mathx"
)

// Generator maintains the frontier of procedurally generated road ahead of the
// player and destroys segments once they fall behind the trailing window.
type Generator struct {
	seed   uint32
	tuning config.TrackTuning

	segments  []*Segment
	frontier  float64
	nextIndex uint64

	heading    float64
	pitch      float64
	endPos     mathx.Vec3
	endTangent mathx.Vec3

	tunnelLeft       int
	tunnelCooldown   int
	overpassCooldown int
	forkCooldown     int
}

// NewGenerator primes a generator at the world origin heading down +Z.
func NewGenerator(seed uint32, tuning config.TrackTuning) *Generator {
	return &Generator{
		seed:       seed,
		tuning:     tuning,
		endTangent: mathx.Vec3{Z: 1},
	}
}

// Frontier returns the farthest generated longitudinal coordinate.
func (g *Generator) Frontier() float64 {
	if g == nil {
		return 0
	}
	return g.frontier
}

// Segments exposes the live segment window in increasing index order.
func (g *Generator) Segments() []*Segment {
	if g == nil {
		return nil
	}
	return g.segments
}

// SegmentAt locates the segment containing the longitudinal coordinate, or the
// nearest edge segment when the coordinate falls outside the live window.
func (g *Generator) SegmentAt(at float64) *Segment {
	if g == nil || len(g.segments) == 0 {
		return nil
	}
	if at < g.segments[0].StartS {
		return g.segments[0]
	}
	for _, segment := range g.segments {
		if segment.Contains(at) {
			return segment
		}
	}
	return g.segments[len(g.segments)-1]
}

// Advance appends segments until the frontier clears the lookahead distance
// and returns the newly generated segments.
func (g *Generator) Advance(playerS float64) []*Segment {
	if g == nil {
		return nil
	}
	var added []*Segment
	for g.frontier < playerS+g.tuning.LookaheadMeters {
		added = append(added, g.appendSegment())
	}
	return added
}

// Trim destroys segments fully behind the trailing window and returns them.
func (g *Generator) Trim(playerS float64) []*Segment {
	if g == nil {
		return nil
	}
	cutoff := playerS - g.tuning.TrailingMeters
	idx := 0
	for idx < len(g.segments) && g.segments[idx].EndS < cutoff {
		idx++
	}
	if idx == 0 {
		return nil
	}
	removed := append([]*Segment(nil), g.segments[:idx]...)
	g.segments = append(g.segments[:0], g.segments[idx:]...)
	return removed
}

func (g *Generator) appendSegment() *Segment {
	index := g.nextIndex
	g.nextIndex++

	//1.- Draw length and curvature deltas from the stateless hash stream.
	length := g.tuning.SegmentLength + FloatRange(g.seed, index, saltLength, -g.tuning.SegmentLengthVar, g.tuning.SegmentLengthVar)
	if length < 10 {
		length = 10
	}
	difficulty := mathx.Saturate(g.frontier * g.tuning.DifficultyRamp)
	yawDelta := FloatRange(g.seed, index, saltYaw, -g.tuning.MaxYawDelta, g.tuning.MaxYawDelta) * (0.35 + 0.65*difficulty)
	pitchDelta := FloatRange(g.seed, index, saltPitch, -g.tuning.MaxPitchDelta, g.tuning.MaxPitchDelta)

	//2.- Build the spline and validate curvature, rescaling the yaw once if the
	// bend is tighter than the minimum radius allows.
	spline := g.buildSpline(length, yawDelta, pitchDelta)
	limit := 1.0 / g.tuning.MinRadius
	if k := spline.MaxCurvature(); k > limit && k > mathx.Epsilon {
		yawDelta *= 0.9 * limit / k
		spline = g.buildSpline(length, yawDelta, pitchDelta)
		// Best effort: a segment still over the limit after one rescale is
		// emitted anyway.
	}

	segment := &Segment{
		Index:      index,
		StartS:     g.frontier,
		EndS:       g.frontier + length,
		Spline:     spline,
		LaneCount:  g.tuning.LaneCount,
		LaneWidth:  g.tuning.LaneWidth,
		Difficulty: difficulty,
		YawDelta:   yawDelta,
	}
	g.classify(segment, index, difficulty)

	//3.- Commit the end state so the next segment continues tangent-smooth.
	g.heading += yawDelta
	g.pitch = mathx.Clamp(g.pitch+pitchDelta, -g.tuning.MaxPitchDelta*3, g.tuning.MaxPitchDelta*3)
	g.endPos = spline.P1
	g.endTangent = spline.T1.Scale(1 / length)
	g.frontier = segment.EndS
	g.segments = append(g.segments, segment)

	if g.tunnelCooldown > 0 {
		g.tunnelCooldown--
	}
	if g.overpassCooldown > 0 {
		g.overpassCooldown--
	}
	if g.forkCooldown > 0 {
		g.forkCooldown--
	}
	return segment
}

func (g *Generator) buildSpline(length, yawDelta, pitchDelta float64) HermiteSpline {
	endHeading := g.heading + yawDelta
	endPitch := mathx.Clamp(g.pitch+pitchDelta, -g.tuning.MaxPitchDelta*3, g.tuning.MaxPitchDelta*3)
	endDir := headingVector(endHeading, endPitch)
	midDir := headingVector(g.heading+yawDelta/2, (g.pitch+endPitch)/2)
	return HermiteSpline{
		P0: g.endPos,
		P1: g.endPos.Add(midDir.Scale(length)),
		T0: g.endTangent.Scale(length),
		T1: endDir.Scale(length),
	}
}

func (g *Generator) classify(segment *Segment, index uint64, difficulty float64) {
	//1.- Continue an open tunnel before anything else so spans stay contiguous.
	if g.tunnelLeft > 0 {
		segment.Kind = KindTunnel
		g.tunnelLeft--
		segment.TunnelExit = g.tunnelLeft == 0
		return
	}

	//2.- Roll for a special segment, weighted up with difficulty and gated by
	// per-kind cooldowns so specials never cluster.
	roll := Float01(g.seed, index, saltKind)
	scale := 0.5 + difficulty
	switch {
	case g.tunnelCooldown == 0 && roll < g.tuning.TunnelWeight*scale:
		segment.Kind = KindTunnel
		segment.TunnelEntry = true
		span := 2 + IntN(g.seed, index, saltSpan, 3)
		g.tunnelLeft = span - 1
		segment.TunnelExit = g.tunnelLeft == 0
		g.tunnelCooldown = g.tuning.TunnelCooldown
		return
	case g.overpassCooldown == 0 && roll < (g.tuning.TunnelWeight+g.tuning.OverpassWeight)*scale:
		segment.Kind = KindOverpass
		g.overpassCooldown = g.tuning.OverpassCooldown
		return
	case g.forkCooldown == 0 && roll < (g.tuning.TunnelWeight+g.tuning.OverpassWeight+g.tuning.ForkWeight)*scale:
		segment.Kind = KindFork
		g.forkCooldown = g.tuning.ForkCooldown
		return
	}

	//3.- Default classification follows the yaw magnitude.
	if math.Abs(segment.YawDelta) > g.tuning.CurveYawCutoff {
		segment.Kind = KindCurve
	} else {
		segment.Kind = KindStraight
	}
}

func headingVector(yaw, pitch float64) mathx.Vec3 {
	cosPitch := math.Cos(pitch)
	return mathx.Vec3{
		X: math.Sin(yaw) * cosPitch,
		Y: math.Sin(pitch),
		Z: math.Cos(yaw) * cosPitch,
	}
}
