package morph

import (
	"fmt"

	"github.com/Faultbox/morpher/pkg/math"
)

// BaseCache is a snapshot of the unmodified base geometry. It is rebuilt
// lazily by the Bank after Invalidate and never mutated during the parallel phase.
type BaseCache struct {
	points  []math.Vec3
	weights []float32
	valid   bool
}

// Rebuild copies points and weights into the cache. A nil or empty weights
// slice means every point has weight 1.
func (c *BaseCache) Rebuild(points []math.Vec3, weights []float32) error {
	n := len(points)
	if n == 0 {
		c.valid = false
		return ErrTopology
	}
	if len(weights) != 0 && len(weights) != n {
		c.valid = false
		return fmt.Errorf("%w: base has %d points but %d weights", ErrSizeMismatch, n, len(weights))
	}

	c.points = resize(c.points, n)
	copy(c.points, points)

	c.weights = resize(c.weights, n)
	if len(weights) == 0 {
		for i := range c.weights {
			c.weights[i] = 1
		}
	} else {
		copy(c.weights, weights)
	}

	c.valid = true
	return nil
}

// IsValid reports whether the cache matches the upstream topology.
func (c *BaseCache) IsValid() bool { return c.valid }

// Invalidate marks the cache stale; the next evaluation rebuilds it.
func (c *BaseCache) Invalidate() { c.valid = false }

// PointCount returns the number of cached points.
func (c *BaseCache) PointCount() int { return len(c.points) }

// Point returns the base position of point i, or the zero vector when out of range.
func (c *BaseCache) Point(i int) math.Vec3 {
	if uint(i) >= uint(len(c.points)) {
		checkIndex(i, len(c.points))
		return math.Vec3{}
	}
	return c.points[i]
}

// Weight returns the base weight of point i, or 0 when out of range.
func (c *BaseCache) Weight(i int) float32 {
	if uint(i) >= uint(len(c.weights)) {
		checkIndex(i, len(c.weights))
		return 0
	}
	return c.weights[i]
}

// Points returns the cached positions. The slice must not be modified.
func (c *BaseCache) Points() []math.Vec3 { return c.points }

// Weights returns the cached weights. The slice must not be modified.
func (c *BaseCache) Weights() []float32 { return c.weights }

// resize returns s with length n, reusing its backing array when large enough.
func resize[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]T, n)
}
