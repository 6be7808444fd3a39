package morph

import (
	"fmt"

	"github.com/Faultbox/morpher/pkg/math"
)

const (
	// tangentEpsilon guards tangent projections against near-zero chords.
	tangentEpsilon float32 = 1e-6
	// curveThird scales projected tangents into cubic control offsets, so
	// curvature 1 matches a Catmull-Rom style curve.
	curveThird float32 = 1.0 / 3.0
)

// Segment is the span of a channel's progression axis that contains a
// progression percent. Index is 1-based; segment s runs from axis slot s-2 to s-1.
type Segment struct {
	Index int
	Total int
	U     float32
}

// Locate finds the segment and local parameter for progression percent p.
// The result depends only on the channel's percents, so it is computed once
// per channel and shared by every point.
func Locate(c *Channel, p float32) (Segment, error) {
	total := c.NumProgressive() + 1
	p = math.Clamp(p, 0, 100)

	seg := 1
	for seg <= total && p >= c.TargetPercent(seg-1) {
		seg++
	}
	if seg > total {
		seg = total
	}

	lo, hi := c.TargetPercent(seg-2), c.TargetPercent(seg-1)
	if hi == lo {
		return Segment{Index: seg, Total: total}, fmt.Errorf("%w: channel %q segment %d at %g%%", ErrDegenerateSegment, c.Name, seg, lo)
	}
	u := math.Clamp((p-lo)/(hi-lo), 0, 1)
	return Segment{Index: seg, Total: total, U: u}, nil
}

// Point evaluates the segment's cubic curve for point i of the channel.
func (s Segment) Point(c *Channel, i int, base *BaseCache) math.Vec3 {
	k := c.curvature * curveThird
	var e [4]math.Vec3
	var cp [4]math.Vec3

	switch {
	case s.Index == 1:
		e[0] = endpoint(c, base, -2, i)
		e[1] = endpoint(c, base, -1, i)
		e[2] = e[0]
		if s.Total > 1 {
			e[2] = endpoint(c, base, 0, i)
		}
		cp = firstControls(e, k)
	case s.Index == s.Total:
		for j := 0; j < 3; j++ {
			e[j] = endpoint(c, base, s.Total-4+j, i)
		}
		cp = lastControls(e, k)
	default:
		for j := 0; j < 4; j++ {
			e[j] = endpoint(c, base, s.Index-4+j, i)
		}
		cp = middleControls(e, k)
	}
	return bezier(cp, s.U)
}

// Interpolate returns the absolute position of point i at progression
// percent p. On ErrDegenerateSegment the base position is returned.
func Interpolate(c *Channel, i int, base *BaseCache, p float32) (math.Vec3, error) {
	seg, err := Locate(c, p)
	if err != nil {
		return base.Point(i), err
	}
	return seg.Point(c, i, base), nil
}

// endpoint maps a target number to a point: -2 base, -1 primary, k progressive[k].
func endpoint(c *Channel, base *BaseCache, targnum, i int) math.Vec3 {
	switch {
	case targnum <= -2:
		return base.Point(i)
	case targnum == -1:
		return c.target.Point(i)
	case targnum < len(c.progressive):
		return c.progressive[targnum].Point(i)
	}
	checkIndex(targnum, len(c.progressive))
	return math.Vec3{}
}

// firstControls builds the curve e0 -> e1 with both tangents biased toward e2.
func firstControls(e [4]math.Vec3, k float32) [4]math.Vec3 {
	cp := [4]math.Vec3{e[0], e[0], e[1], e[1]}
	chord := e[1].Sub(e[0])
	if chord.LengthSq() < tangentEpsilon {
		return cp
	}
	t, ok := chord.Project(e[2].Sub(e[0]), tangentEpsilon)
	if !ok {
		return cp
	}
	cp[1] = e[0].Add(t.Scale(k))
	cp[2] = e[1].Sub(t.Scale(k))
	return cp
}

// lastControls builds the curve e1 -> e2 biased by the incoming direction from e0.
func lastControls(e [4]math.Vec3, k float32) [4]math.Vec3 {
	cp := [4]math.Vec3{e[1], e[1], e[2], e[2]}
	chord := e[2].Sub(e[1])
	if chord.LengthSq() < tangentEpsilon {
		return cp
	}
	t, ok := chord.Project(e[2].Sub(e[0]), tangentEpsilon)
	if !ok {
		return cp
	}
	cp[1] = e[1].Add(t.Scale(k))
	cp[2] = e[2].Sub(t.Scale(k))
	return cp
}

// middleControls builds the curve e1 -> e2 with independent incoming (e1-e0)
// and outgoing (e3-e2) tangents.
func middleControls(e [4]math.Vec3, k float32) [4]math.Vec3 {
	cp := [4]math.Vec3{e[1], e[1], e[2], e[2]}
	chord := e[2].Sub(e[1])
	if chord.LengthSq() < tangentEpsilon {
		return cp
	}
	if in, ok := chord.Project(e[1].Sub(e[0]), tangentEpsilon); ok {
		cp[1] = e[1].Add(in.Scale(k))
	}
	if out, ok := chord.Project(e[3].Sub(e[2]), tangentEpsilon); ok {
		cp[2] = e[2].Sub(out.Scale(k))
	}
	return cp
}

// bezier evaluates a cubic curve with De Casteljau's algorithm. The ends are
// returned exactly.
func bezier(cp [4]math.Vec3, u float32) math.Vec3 {
	if u <= 0 {
		return cp[0]
	}
	if u >= 1 {
		return cp[3]
	}
	a := cp[0].Lerp(cp[1], u)
	b := cp[1].Lerp(cp[2], u)
	c := cp[2].Lerp(cp[3], u)
	d := a.Lerp(b, u)
	e := b.Lerp(c, u)
	return d.Lerp(e, u)
}
