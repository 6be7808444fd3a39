package morph

import "errors"

// Engine errors. Detail is attached with fmt.Errorf("%w: ...") so callers
// match with errors.Is.
var (
	// ErrTopology means the base has no points; Evaluate produces no output.
	ErrTopology = errors.New("morph: base has no points")
	// ErrSizeMismatch means a point or weight count disagrees with the base.
	ErrSizeMismatch = errors.New("morph: point count mismatch")
	// ErrCapacity means a channel already holds the maximum number of progressive targets.
	ErrCapacity = errors.New("morph: progressive target capacity reached")
	// ErrIndex means a point, slot or channel index is out of range.
	ErrIndex = errors.New("morph: index out of range")
	// ErrDegenerateSegment means two consecutive progression percents are equal.
	ErrDegenerateSegment = errors.New("morph: zero-width progression segment")
	// ErrPercentOrder means target percents, explicit or evenly spaced, would
	// not increase strictly.
	ErrPercentOrder = errors.New("morph: target percents must be strictly increasing")
	// ErrNoTarget means a channel has no primary target yet.
	ErrNoTarget = errors.New("morph: channel has no target")
)
