package morph

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// defaultMinChunk is the smallest index range handed to a worker; smaller
// inputs run on the calling goroutine.
const defaultMinChunk = 512

// Buffers are the per-axis accumulation buffers shared by every channel of
// one evaluation. X, Y and Z start as base positions, W as base weights.
type Buffers struct {
	X, Y, Z, W []float32
}

// Reset sizes the buffers to the base and copies base positions and weights in.
func (b *Buffers) Reset(base *BaseCache) {
	n := base.PointCount()
	b.X = resize(b.X, n)
	b.Y = resize(b.Y, n)
	b.Z = resize(b.Z, n)
	b.W = resize(b.W, n)
	for i, p := range base.points {
		b.X[i], b.Y[i], b.Z[i] = p.X, p.Y, p.Z
	}
	copy(b.W, base.weights)
}

// Len returns the number of points held.
func (b *Buffers) Len() int { return len(b.X) }

// Job is one channel's accumulation request.
type Job struct {
	Channel *Channel
	// Percent is the effective percent (0..100). Plain channels scale their
	// deltas by Percent/100; progressive channels use it as the progression.
	Percent float32
	// FilterBySelection restricts the pass to points selected globally or
	// by the channel.
	FilterBySelection bool
	// GlobalSelection is the host's selection mask; nil selects nothing.
	GlobalSelection []bool
}

func (j *Job) admit(i int) bool {
	if !j.FilterBySelection {
		return true
	}
	if uint(i) < uint(len(j.GlobalSelection)) && j.GlobalSelection[i] {
		return true
	}
	return j.Channel.Selected(i)
}

// Accumulator adds channel contributions into Buffers using a fixed pool of
// workers over disjoint contiguous index ranges.
type Accumulator struct {
	workers  int
	minChunk int
}

// NewAccumulator returns an accumulator with the given worker count;
// workers <= 0 uses one worker per CPU.
func NewAccumulator(workers int) *Accumulator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Accumulator{workers: workers, minChunk: defaultMinChunk}
}

// Workers returns the pool size.
func (a *Accumulator) Workers() int { return a.workers }

// AccumulateChannel adds one channel's contribution for every point of base.
// The channel must have been rebuilt against base. A degenerate progression
// segment zeroes the channel's positional contribution, still applies its
// weights, and is returned as ErrDegenerateSegment.
func (a *Accumulator) AccumulateChannel(job Job, base *BaseCache, buf *Buffers) error {
	ch := job.Channel
	n := base.PointCount()
	if ch.NumProgressive() == 0 {
		a.parallel(n, func(lo, hi int) { accumulatePlain(&job, base, buf, lo, hi) })
		return nil
	}

	seg, err := Locate(ch, job.Percent)
	if err != nil {
		frac := job.Percent / 100
		a.parallel(n, func(lo, hi int) { accumulateWeights(&job, base, buf, frac, lo, hi) })
		return err
	}
	a.parallel(n, func(lo, hi int) { accumulateProgressive(&job, seg, base, buf, lo, hi) })
	return nil
}

// parallel splits [0, n) into contiguous ranges and waits for all of them.
func (a *Accumulator) parallel(n int, fn func(lo, hi int)) {
	chunk := (n + a.workers - 1) / a.workers
	if chunk < a.minChunk {
		chunk = a.minChunk
	}
	if a.workers <= 1 || chunk >= n {
		fn(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(a.workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

func accumulatePlain(job *Job, base *BaseCache, buf *Buffers, lo, hi int) {
	ch := job.Channel
	frac := job.Percent / 100
	sub := ch.HasSubSelection()
	for i := lo; i < hi; i++ {
		if !job.admit(i) {
			continue
		}
		buf.W[i] += (ch.weights[i] - base.weights[i]) * frac
		decay := float32(1)
		if sub {
			decay = ch.softSelection[i]
		}
		d := ch.deltas[i]
		buf.X[i] += d.X * frac * decay
		buf.Y[i] += d.Y * frac * decay
		buf.Z[i] += d.Z * frac * decay
	}
}

// accumulateProgressive adds (curve point - base) * decay. The percent is
// consumed by segment selection and does not scale the offset.
func accumulateProgressive(job *Job, seg Segment, base *BaseCache, buf *Buffers, lo, hi int) {
	ch := job.Channel
	frac := job.Percent / 100
	sub := ch.HasSubSelection()
	for i := lo; i < hi; i++ {
		if !job.admit(i) {
			continue
		}
		buf.W[i] += (ch.weights[i] - base.weights[i]) * frac
		decay := float32(1)
		if sub {
			decay = ch.softSelection[i]
		}
		d := seg.Point(ch, i, base).Sub(base.points[i])
		buf.X[i] += d.X * decay
		buf.Y[i] += d.Y * decay
		buf.Z[i] += d.Z * decay
	}
}

func accumulateWeights(job *Job, base *BaseCache, buf *Buffers, frac float32, lo, hi int) {
	ch := job.Channel
	for i := lo; i < hi; i++ {
		if job.admit(i) {
			buf.W[i] += (ch.weights[i] - base.weights[i]) * frac
		}
	}
}
