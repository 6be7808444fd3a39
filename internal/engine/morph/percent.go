package morph

import "sort"

// PercentSource yields a channel's blend percent (nominally 0..100) at an
// evaluation time. Sources are read once per evaluation from a single
// goroutine and need not be safe for concurrent use.
type PercentSource interface {
	Percent(t float64) float32
}

// Constant is a PercentSource that ignores time.
type Constant float32

// Percent implements PercentSource.
func (c Constant) Percent(float64) float32 { return float32(c) }

// PercentFunc adapts a function to PercentSource.
type PercentFunc func(t float64) float32

// Percent implements PercentSource.
func (f PercentFunc) Percent(t float64) float32 { return f(t) }

// Key is one keyframe of a Keyframes source.
type Key struct {
	Time    float64 `yaml:"time"`
	Percent float32 `yaml:"percent"`
}

// Keyframes linearly interpolates between keys and holds the first and last
// values outside their range.
type Keyframes []Key

// NewKeyframes returns keys sorted by time.
func NewKeyframes(keys ...Key) Keyframes {
	k := append(Keyframes(nil), keys...)
	sort.SliceStable(k, func(i, j int) bool { return k[i].Time < k[j].Time })
	return k
}

// Percent implements PercentSource. Keys must be sorted by time.
func (k Keyframes) Percent(t float64) float32 {
	if len(k) == 0 {
		return 0
	}
	if len(k) == 1 {
		return k[0].Percent
	}

	// Find surrounding keyframes.
	var prev, next int
	for i := range k {
		if k[i].Time > t {
			next = i
			break
		}
		prev = i
		next = i
	}

	// Before the first key or at/after the last one.
	if prev == next {
		return k[prev].Percent
	}

	k0, k1 := k[prev], k[next]
	u := float32(0)
	if k1.Time != k0.Time {
		u = float32((t - k0.Time) / (k1.Time - k0.Time))
	}
	return k0.Percent + u*(k1.Percent-k0.Percent)
}
