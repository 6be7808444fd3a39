package morph

import (
	"fmt"

	"github.com/Faultbox/morpher/pkg/math"
)

// DefaultMaxProgressive is the default bound on progressive targets per channel.
const DefaultMaxProgressive = 100

// DefaultCurvature is the curvature assigned to new channels.
const DefaultCurvature float32 = 0.5

// Channel is one independently weighted morph contribution.
//
// Its progression axis holds, in order, the base at 0%, the primary target
// and the progressive targets. Axis slots are numbered -1 (base), 0
// (primary) and k (progressive[k-1]); the last slot is always at 100%.
type Channel struct {
	Name string

	active         bool
	activeOverride bool
	percent        PercentSource

	useLimit           bool
	limitMin, limitMax float32

	useSelection  bool
	selection     []bool
	softSelection []float32

	curvature float32

	target      TargetCache
	progressive []TargetCache
	maxProg     int

	deltas  []math.Vec3
	weights []float32

	valid    bool
	stale    bool
	revision uint64
	notify   func(op Op, slot int)
}

// NewChannel returns an empty, active channel. maxProgressive <= 0 selects
// DefaultMaxProgressive.
func NewChannel(name string, maxProgressive int) *Channel {
	if maxProgressive <= 0 {
		maxProgressive = DefaultMaxProgressive
	}
	return &Channel{
		Name:           name,
		active:         true,
		activeOverride: true,
		percent:        Constant(0),
		limitMin:       0,
		limitMax:       100,
		curvature:      DefaultCurvature,
		maxProg:        maxProgressive,
		stale:          true,
	}
}

// SetTarget sets the primary target. weights may be nil, in which case the
// base weights are used and the channel does not change point weights.
func (c *Channel) SetTarget(points []math.Vec3, weights []float32) error {
	if len(points) == 0 {
		return fmt.Errorf("%w: empty target", ErrSizeMismatch)
	}
	if len(c.progressive) > 0 && len(points) != c.progressive[0].Len() {
		return fmt.Errorf("%w: target has %d points, progressive targets have %d",
			ErrSizeMismatch, len(points), c.progressive[0].Len())
	}
	pct := UnsetPercent
	if c.target.explicit {
		pct = c.target.percent
	}
	if err := c.target.Init(points, weights, len(points), pct); err != nil {
		return err
	}
	if len(c.selection) != len(points) {
		c.selection = nil
	}
	if len(c.softSelection) != len(points) {
		c.softSelection = nil
	}
	c.Renormalize()
	c.touch(OpSetTarget, 0)
	return nil
}

// HasTarget reports whether a primary target is set.
func (c *Channel) HasTarget() bool { return c.target.Len() > 0 }

// PointCount returns the point count of the primary target.
func (c *Channel) PointCount() int { return c.target.Len() }

// Valid reports whether the last RebuildDeltas succeeded.
func (c *Channel) Valid() bool { return c.valid && !c.stale }

// Revision increases on every mutation of targets, percents or sources.
func (c *Channel) Revision() uint64 { return c.revision }

// RebuildDeltas recomputes deltas and target weights against base. On
// failure the channel is marked invalid and skipped until rebuilt.
func (c *Channel) RebuildDeltas(base *BaseCache) error {
	if !c.HasTarget() {
		c.valid = false
		return ErrNoTarget
	}
	n := base.PointCount()
	if c.target.Len() != n {
		c.valid = false
		return fmt.Errorf("%w: channel %q has %d points, base has %d", ErrSizeMismatch, c.Name, c.target.Len(), n)
	}

	c.deltas = resize(c.deltas, n)
	for i, p := range c.target.points {
		c.deltas[i] = p.Sub(base.points[i])
	}

	c.weights = resize(c.weights, n)
	if c.target.HasWeights() {
		copy(c.weights, c.target.weights)
	} else {
		copy(c.weights, base.weights)
	}

	c.valid = true
	c.stale = false
	return nil
}

// Delta returns the primary target offset of point i.
func (c *Channel) Delta(i int) math.Vec3 {
	if uint(i) >= uint(len(c.deltas)) {
		checkIndex(i, len(c.deltas))
		return math.Vec3{}
	}
	return c.deltas[i]
}

// NumProgressive returns the number of progressive targets.
func (c *Channel) NumProgressive() int { return len(c.progressive) }

// MaxProgressive returns the progressive target bound.
func (c *Channel) MaxProgressive() int { return c.maxProg }

// Target returns the target at an axis slot (0 primary, k progressive[k-1]).
// Use SetTargetSource to change Name or SourceRef so lookups stay current.
func (c *Channel) Target(slot int) (*TargetCache, error) {
	t := c.slotTarget(slot)
	if t == nil {
		return nil, fmt.Errorf("%w: slot %d of %d", ErrIndex, slot, len(c.progressive)+1)
	}
	return t, nil
}

// SetTargetSource sets the display name and opaque source reference of a slot.
func (c *Channel) SetTargetSource(slot int, name string, ref any) error {
	t := c.slotTarget(slot)
	if t == nil {
		return fmt.Errorf("%w: slot %d of %d", ErrIndex, slot, len(c.progressive)+1)
	}
	t.Name = name
	t.SourceRef = ref
	c.touch(OpSetSource, slot)
	return nil
}

// AddProgressiveTarget appends a target at the end of the progression axis
// and returns its slot. percent may be UnsetPercent to have it spaced
// evenly. On error the channel is left unchanged.
func (c *Channel) AddProgressiveTarget(points []math.Vec3, weights []float32, percent float32) (int, error) {
	if !c.HasTarget() {
		return 0, ErrNoTarget
	}
	if len(c.progressive) >= c.maxProg {
		return 0, fmt.Errorf("%w: channel %q holds %d", ErrCapacity, c.Name, c.maxProg)
	}

	var t TargetCache
	if err := t.Init(points, weights, c.target.Len(), percent); err != nil {
		return 0, err
	}

	anchors := c.anchors()
	anchors = append(anchors, anchor{explicit: t.explicit, percent: t.percent})
	if err := checkAnchors(anchors); err != nil {
		return 0, err
	}

	c.progressive = append(c.progressive, t)
	c.Renormalize()
	slot := len(c.progressive)
	c.touch(OpAddProgressive, slot)
	return slot, nil
}

// RemoveProgressiveTarget removes the target at an axis slot. Removing slot 0
// promotes the first progressive target to primary. It is a no-op when the
// channel has no progressive targets or the slot is out of range.
func (c *Channel) RemoveProgressiveTarget(slot int) {
	n := len(c.progressive)
	if n == 0 || slot < 0 || slot > n {
		return
	}

	i := slot - 1
	if slot == 0 {
		c.target = c.progressive[0]
		c.stale = true
		i = 0
	}
	copy(c.progressive[i:], c.progressive[i+1:])
	c.progressive[n-1].Clear()
	c.progressive = c.progressive[:n-1]

	c.Renormalize()
	c.touch(OpRemoveProgressive, slot)
}

// SetTargetPercent explicitly places a slot on the progression axis.
// UnsetPercent returns the slot to automatic spacing.
func (c *Channel) SetTargetPercent(slot int, percent float32) error {
	t := c.slotTarget(slot)
	if t == nil {
		return fmt.Errorf("%w: slot %d of %d", ErrIndex, slot, len(c.progressive)+1)
	}

	anchors := c.anchors()
	a := anchor{}
	if percent >= 0 {
		a = anchor{explicit: true, percent: math.Clamp(percent, 0, 100)}
	}
	anchors[slot] = a
	if err := checkAnchors(anchors); err != nil {
		return err
	}

	t.setPercent(percent)
	c.Renormalize()
	c.touch(OpSetPercent, slot)
	return nil
}

// TargetPercent returns the percent of an axis slot: -1 is 0, the last slot
// (NumProgressive) is 100, and slots outside [-1, NumProgressive] return 0.
func (c *Channel) TargetPercent(slot int) float32 {
	last := len(c.progressive)
	switch {
	case slot == -1:
		return 0
	case slot == last:
		return 100
	case slot < -1 || slot > last:
		return 0
	}
	return c.slotTarget(slot).percent
}

// Renormalize assigns percents to every slot that was not set explicitly,
// spacing each run evenly between its explicit neighbours (0 before the
// first slot, 100 at the last).
func (c *Channel) Renormalize() {
	if !c.HasTarget() {
		return
	}
	for s, p := range spacing(c.anchors()) {
		if t := c.slotTarget(s); !t.explicit {
			t.percent = p
		}
	}
}

// EffectivePercent clamps raw to the global limits when globalUseLimit is
// set, otherwise to the channel limits when those are on.
func (c *Channel) EffectivePercent(raw float32, globalUseLimit bool, globalMin, globalMax float32) float32 {
	switch {
	case globalUseLimit:
		return clampLimit(raw, globalMin, globalMax)
	case c.useLimit:
		return clampLimit(raw, c.limitMin, c.limitMax)
	}
	return raw
}

func clampLimit(x, lo, hi float32) float32 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Clamp(x, lo, hi)
}

// SetActive switches the channel on or off.
func (c *Channel) SetActive(on bool) {
	c.active = on
	c.touch(OpSetActive, -1)
}

// Active reports the user on/off state.
func (c *Channel) Active() bool { return c.active }

// SetActiveOverride sets the independent enable flag.
func (c *Channel) SetActiveOverride(on bool) {
	c.activeOverride = on
	c.touch(OpSetActive, -1)
}

// ActiveOverride reports the independent enable flag.
func (c *Channel) ActiveOverride() bool { return c.activeOverride }

// Live reports whether the channel participates in evaluation.
func (c *Channel) Live() bool { return c.active && c.activeOverride }

// SetPercentSource binds the time-varying percent. nil binds Constant(0).
func (c *Channel) SetPercentSource(src PercentSource) {
	if src == nil {
		src = Constant(0)
	}
	c.percent = src
	c.touch(OpSetPercentSource, -1)
}

// PercentSource returns the bound percent source.
func (c *Channel) PercentSource() PercentSource { return c.percent }

// SetLimits configures the channel's own percent limits.
func (c *Channel) SetLimits(use bool, lo, hi float32) {
	c.useLimit = use
	c.limitMin = lo
	c.limitMax = hi
	c.touch(OpSetLimits, -1)
}

// Limits returns the channel's limit configuration.
func (c *Channel) Limits() (use bool, lo, hi float32) {
	return c.useLimit, c.limitMin, c.limitMax
}

// SetCurvature sets the progressive curve sharpness, clamped to [0, 1].
func (c *Channel) SetCurvature(k float32) {
	c.curvature = math.Clamp(k, 0, 1)
	c.touch(OpSetCurvature, -1)
}

// Curvature returns the progressive curve sharpness.
func (c *Channel) Curvature() float32 { return c.curvature }

// SetUseSelection toggles selection filtering and soft-selection decay.
func (c *Channel) SetUseSelection(on bool) {
	c.useSelection = on
	c.touch(OpSetSelection, -1)
}

// UseSelection reports whether selection is used.
func (c *Channel) UseSelection() bool { return c.useSelection }

// SetSelection stores per-point selection bits. nil clears them.
func (c *Channel) SetSelection(sel []bool) error {
	if sel == nil {
		c.selection = nil
		c.touch(OpSetSelection, -1)
		return nil
	}
	if len(sel) != c.target.Len() {
		return fmt.Errorf("%w: selection has %d entries, channel has %d points", ErrSizeMismatch, len(sel), c.target.Len())
	}
	c.selection = append(c.selection[:0], sel...)
	c.touch(OpSetSelection, -1)
	return nil
}

// SetSoftSelection stores per-point decay weights, clamped to [0, 1]. nil clears them.
func (c *Channel) SetSoftSelection(w []float32) error {
	if w == nil {
		c.softSelection = nil
		c.touch(OpSetSelection, -1)
		return nil
	}
	if len(w) != c.target.Len() {
		return fmt.Errorf("%w: soft selection has %d entries, channel has %d points", ErrSizeMismatch, len(w), c.target.Len())
	}
	c.softSelection = resize(c.softSelection, len(w))
	for i, v := range w {
		c.softSelection[i] = math.Clamp(v, 0, 1)
	}
	c.touch(OpSetSelection, -1)
	return nil
}

// Selected reports the channel's selection bit for point i.
func (c *Channel) Selected(i int) bool {
	return c.useSelection && uint(i) < uint(len(c.selection)) && c.selection[i]
}

// HasSubSelection reports whether soft-selection decay applies.
func (c *Channel) HasSubSelection() bool {
	return c.useSelection && len(c.softSelection) != 0 && len(c.softSelection) == c.target.Len()
}

// Reset removes every target and selection, keeping name and settings.
func (c *Channel) Reset() {
	c.target.Clear()
	for i := range c.progressive {
		c.progressive[i].Clear()
	}
	c.progressive = nil
	c.selection = nil
	c.softSelection = nil
	c.deltas = nil
	c.weights = nil
	c.valid = false
	c.touch(OpReset, -1)
}

// Clone returns a deep copy named name that is not attached to any bank.
func (c *Channel) Clone(name string) *Channel {
	d := *c
	d.Name = name
	d.notify = nil
	d.target = c.target.clone()
	d.progressive = make([]TargetCache, len(c.progressive))
	for i := range c.progressive {
		d.progressive[i] = c.progressive[i].clone()
	}
	d.selection = append([]bool(nil), c.selection...)
	d.softSelection = append([]float32(nil), c.softSelection...)
	d.deltas = append([]math.Vec3(nil), c.deltas...)
	d.weights = append([]float32(nil), c.weights...)
	d.revision = 0
	return &d
}

// slotTarget maps an axis slot to its target, or nil.
func (c *Channel) slotTarget(slot int) *TargetCache {
	switch {
	case slot == 0 && c.HasTarget():
		return &c.target
	case slot >= 1 && slot <= len(c.progressive):
		return &c.progressive[slot-1]
	}
	return nil
}

// touch records a mutation and forwards it to the bank's command log.
func (c *Channel) touch(op Op, slot int) {
	c.revision++
	if op == OpSetTarget || op == OpReset {
		c.stale = true
	}
	if c.notify != nil {
		c.notify(op, slot)
	}
}

// anchor is a slot's percent as seen by ordering checks.
type anchor struct {
	explicit bool
	percent  float32
}

func (c *Channel) anchors() []anchor {
	if !c.HasTarget() {
		return nil
	}
	a := make([]anchor, 0, len(c.progressive)+2)
	a = append(a, anchor{c.target.explicit, c.target.percent})
	for i := range c.progressive {
		t := &c.progressive[i]
		a = append(a, anchor{t.explicit, t.percent})
	}
	return a
}

// spacing returns the axis percent of every slot: explicit slots keep their
// value, unset runs are spaced evenly between their neighbours and the last
// slot is 100.
func spacing(a []anchor) []float32 {
	out := make([]float32, len(a))
	last := len(a) - 1
	prevSlot, prevPct := -1, float32(0)
	for s := 0; s <= last; s++ {
		if s != last && !a[s].explicit {
			continue
		}
		pct := float32(100)
		if s != last {
			pct = a[s].percent
		}
		span := float32(s - prevSlot)
		for j := prevSlot + 1; j < s; j++ {
			out[j] = prevPct + (pct-prevPct)*float32(j-prevSlot)/span
		}
		out[s] = pct
		prevSlot, prevPct = s, pct
	}
	return out
}

// checkAnchors requires the percents the anchors space out to, evenly
// spaced slots included, to increase strictly from 0 up to 100 at the last
// slot. Spacing too fine for float32 fails here.
func checkAnchors(a []anchor) error {
	prev := float32(0)
	for s, p := range spacing(a) {
		if p <= prev {
			return fmt.Errorf("%w: slot %d at %g%% follows %g%%", ErrPercentOrder, s, p, prev)
		}
		prev = p
	}
	return nil
}
