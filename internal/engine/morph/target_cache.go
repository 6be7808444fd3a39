package morph

import (
	"fmt"

	"github.com/Faultbox/morpher/pkg/math"
)

// UnsetPercent marks a target percent that renormalization should assign.
const UnsetPercent float32 = -1

// TargetCache holds one morph target: absolute point positions, optional
// per-point weights and the target's position on the progression axis.
type TargetCache struct {
	// Name is a display label; the engine does not interpret it.
	Name string
	// SourceRef identifies the external geometry this target came from.
	// It is opaque to the engine and only used by Bank.LookupSource.
	SourceRef any

	points   []math.Vec3
	weights  []float32
	percent  float32
	explicit bool
}

// Init copies points (and weights, if any) into the cache. expected is the
// point count of the owning channel; percent may be UnsetPercent.
func (t *TargetCache) Init(points []math.Vec3, weights []float32, expected int, percent float32) error {
	if len(points) != expected {
		return fmt.Errorf("%w: target has %d points, want %d", ErrSizeMismatch, len(points), expected)
	}
	if len(weights) != 0 && len(weights) != expected {
		return fmt.Errorf("%w: target has %d weights, want %d", ErrSizeMismatch, len(weights), expected)
	}

	t.points = resize(t.points, len(points))
	copy(t.points, points)
	if len(weights) == 0 {
		t.weights = nil
	} else {
		t.weights = resize(t.weights, len(weights))
		copy(t.weights, weights)
	}
	t.setPercent(percent)
	return nil
}

// Point returns point i, or the zero vector when out of range.
func (t *TargetCache) Point(i int) math.Vec3 {
	if uint(i) >= uint(len(t.points)) {
		checkIndex(i, len(t.points))
		return math.Vec3{}
	}
	return t.points[i]
}

// PointAt returns point i or ErrIndex.
func (t *TargetCache) PointAt(i int) (math.Vec3, error) {
	if uint(i) >= uint(len(t.points)) {
		return math.Vec3{}, fmt.Errorf("%w: point %d of %d", ErrIndex, i, len(t.points))
	}
	return t.points[i], nil
}

// Len returns the number of points held.
func (t *TargetCache) Len() int { return len(t.points) }

// HasWeights reports whether the target carries its own per-point weights.
func (t *TargetCache) HasWeights() bool { return len(t.weights) != 0 }

// Percent returns the stored progression percent. For the last target on a
// channel's axis the effective value is always 100; see Channel.TargetPercent.
func (t *TargetCache) Percent() float32 { return t.percent }

// Explicit reports whether the percent was set by the caller rather than
// assigned by renormalization.
func (t *TargetCache) Explicit() bool { return t.explicit }

// Clear releases point storage and resets the percent.
func (t *TargetCache) Clear() {
	t.points = nil
	t.weights = nil
	t.percent = 0
	t.explicit = false
	t.SourceRef = nil
	t.Name = ""
}

func (t *TargetCache) setPercent(p float32) {
	if p < 0 {
		t.percent = 0
		t.explicit = false
		return
	}
	t.percent = math.Clamp(p, 0, 100)
	t.explicit = true
}

// clone returns a deep copy; point storage is not shared.
func (t *TargetCache) clone() TargetCache {
	c := *t
	if t.points != nil {
		c.points = append([]math.Vec3(nil), t.points...)
	}
	if t.weights != nil {
		c.weights = append([]float32(nil), t.weights...)
	}
	return c
}
