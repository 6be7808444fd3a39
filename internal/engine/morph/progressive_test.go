package morph

import (
	"errors"
	"testing"

	"github.com/Faultbox/morpher/pkg/math"
)

// knotChannel places the primary at 30%, the first progressive at 70% and
// the second at 100%, with X offsets 1, 2 and 3 from the base.
func knotChannel(t testing.TB, n int) (*Channel, *BaseCache) {
	t.Helper()
	base := mustBase(t, testPoints(n, math.Vec3{}), nil)
	c := progressiveChannel(t, n, 30, 70, UnsetPercent)
	if err := c.RebuildDeltas(base); err != nil {
		t.Fatal(err)
	}
	return c, base
}

func TestLocate(t *testing.T) {
	c, _ := knotChannel(t, 2)

	tests := []struct {
		p     float32
		index int
		u     float32
	}{
		{0, 1, 0},
		{15, 1, 0.5},
		{29.9, 1, 0.99667},
		{30, 2, 0},
		{50, 2, 0.5},
		{70, 3, 0},
		{85, 3, 0.5},
		{100, 3, 1},
		{-10, 1, 0},
		{120, 3, 1},
	}

	for _, tt := range tests {
		seg, err := Locate(c, tt.p)
		if err != nil {
			t.Fatalf("Locate(%v) error = %v", tt.p, err)
		}
		if seg.Index != tt.index || seg.Total != 3 || !approx(seg.U, tt.u) {
			t.Errorf("Locate(%v) = %+v, want index %d u %v", tt.p, seg, tt.index, tt.u)
		}
	}
}

func TestInterpolate_HitsKnotsExactly(t *testing.T) {
	c, base := knotChannel(t, 4)

	tests := []struct {
		name string
		p    float32
		offX float32
	}{
		{"base", 0, 0},
		{"primary", 30, 1},
		{"first progressive", 70, 2},
		{"last progressive", 100, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < base.PointCount(); i++ {
				got, err := Interpolate(c, i, base, tt.p)
				if err != nil {
					t.Fatal(err)
				}
				want := base.Point(i).Add(math.Vec3{X: tt.offX})
				if got != want {
					t.Errorf("point %d at %v%% = %v, want %v", i, tt.p, got, want)
				}
			}
		})
	}
}

func TestInterpolate_CollinearStaysOnLine(t *testing.T) {
	c, base := knotChannel(t, 3)

	prev := float32(-1)
	for p := float32(0); p <= 100; p += 2.5 {
		got, err := Interpolate(c, 1, base, p)
		if err != nil {
			t.Fatal(err)
		}
		b := base.Point(1)
		if got.Y != b.Y || got.Z != b.Z {
			t.Errorf("at %v%% left the line: %v", p, got)
		}
		x := got.X - b.X
		if x < prev-tolerance || x < -tolerance || x > 3+tolerance {
			t.Errorf("at %v%% offset %v after %v", p, x, prev)
		}
		prev = x
	}

	mid, _ := Interpolate(c, 0, base, 50)
	if !approx(mid.X, 1.5) {
		t.Errorf("middle of segment 2 = %v, want X 1.5", mid)
	}
}

func TestInterpolate_CurvatureZero(t *testing.T) {
	c, base := knotChannel(t, 2)
	c.SetCurvature(0)
	got, err := Interpolate(c, 0, base, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got.X, 1.5) {
		t.Errorf("curvature 0 midpoint = %v, want X 1.5", got)
	}
}

func TestInterpolate_ZeroChord(t *testing.T) {
	base := mustBase(t, testPoints(2, math.Vec3{}), nil)
	c := NewChannel("c", 0)
	if err := c.SetTarget(base.Points(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddProgressiveTarget(testPoints(2, math.Vec3{X: 2}), nil, UnsetPercent); err != nil {
		t.Fatal(err)
	}
	if err := c.RebuildDeltas(base); err != nil {
		t.Fatal(err)
	}

	got, err := Interpolate(c, 1, base, 25)
	if err != nil {
		t.Fatal(err)
	}
	if got != base.Point(1) {
		t.Errorf("zero chord moved the point: %v", got)
	}
}

func TestInterpolate_SingleTarget(t *testing.T) {
	base := mustBase(t, testPoints(1, math.Vec3{}), nil)
	c := progressiveChannel(t, 1)
	got := Segment{Index: 1, Total: 1, U: 0.5}.Point(c, 0, base)
	if got.Y != 0 || got.Z != 0 || got.X <= 0 || got.X >= 1 {
		t.Errorf("single target midpoint = %v", got)
	}
}

func TestLocate_DegenerateSegment(t *testing.T) {
	c, base := knotChannel(t, 2)
	// Force a zero-width final segment; the public setters reject this.
	c.progressive[0].percent = 100

	_, err := Locate(c, 100)
	if !errors.Is(err, ErrDegenerateSegment) {
		t.Fatalf("Locate error = %v, want ErrDegenerateSegment", err)
	}
	got, err := Interpolate(c, 1, base, 100)
	if !errors.Is(err, ErrDegenerateSegment) || got != base.Point(1) {
		t.Errorf("Interpolate = %v, %v", got, err)
	}
}

func TestBezier_Endpoints(t *testing.T) {
	cp := [4]math.Vec3{{X: 1, Y: 2, Z: 3}, {X: 4}, {Y: 5}, {X: -1, Y: -2, Z: 7}}
	tests := []struct {
		u    float32
		want math.Vec3
	}{
		{-1, cp[0]},
		{0, cp[0]},
		{1, cp[3]},
		{2, cp[3]},
	}
	for _, tt := range tests {
		if got := bezier(cp, tt.u); got != tt.want {
			t.Errorf("bezier(%v) = %v, want %v", tt.u, got, tt.want)
		}
	}
}
