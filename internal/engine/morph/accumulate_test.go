package morph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Faultbox/morpher/pkg/math"
)

func plainChannel(t testing.TB, base *BaseCache, off math.Vec3, weights []float32) *Channel {
	t.Helper()
	c := NewChannel("plain", 0)
	pts := make([]math.Vec3, base.PointCount())
	for i, p := range base.Points() {
		pts[i] = p.Add(off)
	}
	if err := c.SetTarget(pts, weights); err != nil {
		t.Fatal(err)
	}
	if err := c.RebuildDeltas(base); err != nil {
		t.Fatal(err)
	}
	return c
}

func freshBuffers(base *BaseCache) *Buffers {
	var b Buffers
	b.Reset(base)
	return &b
}

func TestAccumulate_WorkerCountIsInvisible(t *testing.T) {
	const n = 5000
	base := mustBase(t, testPoints(n, math.Vec3{X: 0.25}), nil)
	plain := plainChannel(t, base, math.Vec3{X: 0.3, Y: -1.7, Z: 2.2}, nil)
	prog := progressiveChannel(t, n, 30, 70, UnsetPercent)
	if err := prog.RebuildDeltas(base); err != nil {
		t.Fatal(err)
	}
	prog.SetCurvature(0.8)

	jobs := []Job{
		{Channel: plain, Percent: 37.5},
		{Channel: prog, Percent: 52},
		{Channel: prog, Percent: 91},
	}

	run := func(acc *Accumulator) *Buffers {
		buf := freshBuffers(base)
		for _, j := range jobs {
			if err := acc.AccumulateChannel(j, base, buf); err != nil {
				t.Fatal(err)
			}
		}
		return buf
	}

	serial := run(&Accumulator{workers: 1, minChunk: defaultMinChunk})
	for _, workers := range []int{2, 3, 8, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got := run(&Accumulator{workers: workers, minChunk: 16})
			for i := 0; i < n; i++ {
				if got.X[i] != serial.X[i] || got.Y[i] != serial.Y[i] || got.Z[i] != serial.Z[i] || got.W[i] != serial.W[i] {
					t.Fatalf("point %d differs: (%v %v %v %v) vs (%v %v %v %v)", i,
						got.X[i], got.Y[i], got.Z[i], got.W[i], serial.X[i], serial.Y[i], serial.Z[i], serial.W[i])
				}
			}
		})
	}
}

func TestAccumulate_PlainScalesByPercent(t *testing.T) {
	base := mustBase(t, testPoints(3, math.Vec3{}), nil)
	c := plainChannel(t, base, math.Vec3{X: 2, Y: -4}, []float32{3, 3, 3})
	buf := freshBuffers(base)

	if err := NewAccumulator(1).AccumulateChannel(Job{Channel: c, Percent: 25}, base, buf); err != nil {
		t.Fatal(err)
	}
	for i, p := range base.Points() {
		if buf.X[i] != p.X+0.5 || buf.Y[i] != p.Y-1 || buf.Z[i] != p.Z {
			t.Errorf("point %d = (%v %v %v)", i, buf.X[i], buf.Y[i], buf.Z[i])
		}
		if buf.W[i] != 1.5 {
			t.Errorf("weight %d = %v, want 1.5", i, buf.W[i])
		}
	}
}

func TestAccumulate_SelectionFilter(t *testing.T) {
	base := mustBase(t, testPoints(4, math.Vec3{}), nil)
	c := plainChannel(t, base, math.Vec3{X: 1}, nil)
	if err := c.SetSelection([]bool{false, false, true, false}); err != nil {
		t.Fatal(err)
	}
	c.SetUseSelection(true)

	tests := []struct {
		name   string
		filter bool
		global []bool
		moved  []bool
	}{
		{"no filter", false, nil, []bool{true, true, true, true}},
		{"channel bits only", true, nil, []bool{false, false, true, false}},
		{"global or channel", true, []bool{true, false, false, false}, []bool{true, false, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := freshBuffers(base)
			job := Job{Channel: c, Percent: 100, FilterBySelection: tt.filter, GlobalSelection: tt.global}
			if err := NewAccumulator(1).AccumulateChannel(job, base, buf); err != nil {
				t.Fatal(err)
			}
			for i, want := range tt.moved {
				moved := buf.X[i] != base.Point(i).X
				if moved != want {
					t.Errorf("point %d moved = %v, want %v", i, moved, want)
				}
			}
		})
	}
}

func TestAccumulate_SoftSelectionDecay(t *testing.T) {
	base := mustBase(t, testPoints(4, math.Vec3{}), nil)
	c := plainChannel(t, base, math.Vec3{X: 1}, nil)
	if err := c.SetSoftSelection([]float32{1, 0.5, 0, 0.25}); err != nil {
		t.Fatal(err)
	}

	buf := freshBuffers(base)
	if err := NewAccumulator(1).AccumulateChannel(Job{Channel: c, Percent: 100}, base, buf); err != nil {
		t.Fatal(err)
	}
	for i := range 4 {
		if buf.X[i]-base.Point(i).X != 1 {
			t.Errorf("decay applied with selection off at point %d", i)
		}
	}

	c.SetUseSelection(true)
	buf = freshBuffers(base)
	if err := NewAccumulator(1).AccumulateChannel(Job{Channel: c, Percent: 100}, base, buf); err != nil {
		t.Fatal(err)
	}
	want := []float32{1, 0.5, 0, 0.25}
	for i, w := range want {
		if got := buf.X[i] - base.Point(i).X; got != w {
			t.Errorf("point %d offset = %v, want %v", i, got, w)
		}
	}
}

func TestAccumulate_ProgressiveIgnoresPercentScale(t *testing.T) {
	base := mustBase(t, testPoints(2, math.Vec3{}), nil)
	c := progressiveChannel(t, 2, 30, 70, UnsetPercent)
	if err := c.RebuildDeltas(base); err != nil {
		t.Fatal(err)
	}

	buf := freshBuffers(base)
	if err := NewAccumulator(1).AccumulateChannel(Job{Channel: c, Percent: 30}, base, buf); err != nil {
		t.Fatal(err)
	}
	for i, p := range base.Points() {
		if buf.X[i] != p.X+1 {
			t.Errorf("point %d X = %v, want the primary target %v", i, buf.X[i], p.X+1)
		}
	}
}

func TestAccumulate_DegenerateSegmentKeepsWeights(t *testing.T) {
	base := mustBase(t, testPoints(2, math.Vec3{}), nil)
	c := NewChannel("c", 0)
	if err := c.SetTarget(testPoints(2, math.Vec3{X: 1}), []float32{3, 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddProgressiveTarget(testPoints(2, math.Vec3{X: 2}), []float32{3, 3}, UnsetPercent); err != nil {
		t.Fatal(err)
	}
	if err := c.RebuildDeltas(base); err != nil {
		t.Fatal(err)
	}
	c.target.percent = 100

	buf := freshBuffers(base)
	err := NewAccumulator(1).AccumulateChannel(Job{Channel: c, Percent: 100}, base, buf)
	if !errors.Is(err, ErrDegenerateSegment) {
		t.Fatalf("error = %v, want ErrDegenerateSegment", err)
	}
	for i, p := range base.Points() {
		if buf.X[i] != p.X {
			t.Errorf("point %d moved to %v", i, buf.X[i])
		}
		if buf.W[i] != 3 {
			t.Errorf("weight %d = %v, want 3", i, buf.W[i])
		}
	}
}

func TestNewAccumulator_DefaultWorkers(t *testing.T) {
	if NewAccumulator(0).Workers() < 1 {
		t.Error("default worker count < 1")
	}
	if got := NewAccumulator(3).Workers(); got != 3 {
		t.Errorf("Workers() = %d, want 3", got)
	}
}

func BenchmarkAccumulate(b *testing.B) {
	const n = 200000
	base := mustBase(b, testPoints(n, math.Vec3{}), nil)
	plain := plainChannel(b, base, math.Vec3{X: 1, Y: 2, Z: 3}, nil)
	prog := progressiveChannel(b, n, 30, 70, UnsetPercent)
	if err := prog.RebuildDeltas(base); err != nil {
		b.Fatal(err)
	}
	buf := freshBuffers(base)

	for _, workers := range []int{1, 4, 0} {
		acc := NewAccumulator(workers)
		b.Run(fmt.Sprintf("plain/workers=%d", acc.Workers()), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = acc.AccumulateChannel(Job{Channel: plain, Percent: 50}, base, buf)
			}
		})
		b.Run(fmt.Sprintf("progressive/workers=%d", acc.Workers()), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = acc.AccumulateChannel(Job{Channel: prog, Percent: 50}, base, buf)
			}
		})
	}
}
