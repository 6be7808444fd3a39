// Package morph blends weighted morph channels, optionally with
// progressive intermediate targets, over a base point cloud.
package morph

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/morpher/internal/logger"
	"github.com/Faultbox/morpher/pkg/math"
)

// Options configures a Bank.
type Options struct {
	// Workers is the accumulation pool size; <= 0 uses one per CPU.
	Workers int
	// MaxProgressive bounds progressive targets per channel; <= 0 uses DefaultMaxProgressive.
	MaxProgressive int
	// Logger overrides the global logger.
	Logger *zap.Logger
}

// Input is everything the host supplies for one evaluation instant.
type Input struct {
	// Points and Weights describe the base. They are read only when the
	// base cache is invalid or the point count changed.
	Points  []math.Vec3
	Weights []float32

	// Selection is the host selection mask, used when UseSelection is set.
	Selection    []bool
	UseSelection bool

	// Global limits, applied to channels without their own limits.
	UseLimit bool
	LimitMin float32
	LimitMax float32

	// Time is passed to every channel's PercentSource.
	Time float64
}

// Output receives blended positions and weights. Its slices are reused
// across evaluations when large enough.
type Output struct {
	Positions []math.Vec3
	Weights   []float32
}

// Report summarizes one evaluation.
type Report struct {
	// Rebuilt is set when the base cache was rebuilt.
	Rebuilt bool
	// Applied counts channels that contributed.
	Applied int
	// Warnings combines recoverable per-channel errors; see multierr.Errors.
	Warnings error
}

// TargetLocation addresses a target inside a bank.
type TargetLocation struct {
	Channel int
	Slot    int
}

type workItem struct {
	index   int
	percent float32
}

// Bank owns an ordered set of channels and evaluates them against a base.
// A Bank is not safe for concurrent use; Evaluate parallelizes internally.
type Bank struct {
	channels []*Channel
	base     BaseCache
	buf      Buffers
	acc      *Accumulator
	maxProg  int
	log      *zap.Logger
	cmdLog   CommandLog
	work     []workItem
	index    sourceIndex
}

// NewBank returns an empty bank.
func NewBank(opts Options) *Bank {
	maxProg := opts.MaxProgressive
	if maxProg <= 0 {
		maxProg = DefaultMaxProgressive
	}
	return &Bank{
		acc:     NewAccumulator(opts.Workers),
		maxProg: maxProg,
		log:     opts.Logger,
	}
}

func (b *Bank) logger() *zap.Logger {
	if b.log != nil {
		return b.log
	}
	return logger.Log.Named("morph")
}

// SetCommandLog installs a mutation observer; nil removes it.
func (b *Bank) SetCommandLog(l CommandLog) { b.cmdLog = l }

func (b *Bank) record(cmd Command) {
	if b.cmdLog != nil {
		b.cmdLog.Record(cmd)
	}
}

// Workers returns the accumulation pool size.
func (b *Bank) Workers() int { return b.acc.Workers() }

// MaxProgressive returns the progressive target bound given to new channels.
func (b *Bank) MaxProgressive() int { return b.maxProg }

// Base returns the base cache.
func (b *Bank) Base() *BaseCache { return &b.base }

// Invalidate marks the base stale, e.g. after a topology or selection change.
func (b *Bank) Invalidate() { b.base.Invalidate() }

// Len returns the number of channels.
func (b *Bank) Len() int { return len(b.channels) }

// Channel returns channel i.
func (b *Bank) Channel(i int) (*Channel, error) {
	if uint(i) >= uint(len(b.channels)) {
		return nil, fmt.Errorf("%w: channel %d of %d", ErrIndex, i, len(b.channels))
	}
	return b.channels[i], nil
}

// Channels returns the channels in bank order. The slice must not be modified.
func (b *Bank) Channels() []*Channel { return b.channels }

// IndexOf returns the index of ch, or -1.
func (b *Bank) IndexOf(ch *Channel) int {
	for i, c := range b.channels {
		if c == ch {
			return i
		}
	}
	return -1
}

// ChannelByName returns the first channel named name and its index, or nil and -1.
func (b *Bank) ChannelByName(name string) (*Channel, int) {
	for i, c := range b.channels {
		if c.Name == name {
			return c, i
		}
	}
	return nil, -1
}

// ActiveCount returns the number of live channels with a target.
func (b *Bank) ActiveCount() int {
	n := 0
	for _, c := range b.channels {
		if c.Live() && c.HasTarget() {
			n++
		}
	}
	return n
}

// AddChannel appends a new empty channel and returns it with its index.
func (b *Bank) AddChannel(name string) (*Channel, int) {
	return b.Append(NewChannel(name, b.maxProg))
}

// Append attaches an existing channel, such as a Clone, at the end of the bank.
func (b *Bank) Append(ch *Channel) (*Channel, int) {
	b.attach(ch)
	b.channels = append(b.channels, ch)
	i := len(b.channels) - 1
	b.index.dirty = true
	b.record(Command{Op: OpAddChannel, Channel: i, Other: -1, Slot: -1, Name: ch.Name})
	return ch, i
}

// RemoveChannel deletes channel i; later channels shift down by one.
func (b *Bank) RemoveChannel(i int) error {
	ch, err := b.Channel(i)
	if err != nil {
		return err
	}
	ch.notify = nil
	b.channels = slices.Delete(b.channels, i, i+1)
	b.index.dirty = true
	b.record(Command{Op: OpRemoveChannel, Channel: i, Other: -1, Slot: -1, Name: ch.Name})
	return nil
}

// DeleteAllChannels removes every channel.
func (b *Bank) DeleteAllChannels() {
	for _, ch := range b.channels {
		ch.notify = nil
	}
	clear(b.channels)
	b.channels = b.channels[:0]
	b.index.dirty = true
	b.record(Command{Op: OpDeleteAll, Channel: -1, Other: -1, Slot: -1})
}

// SwapChannels exchanges channels i and j.
func (b *Bank) SwapChannels(i, j int) error {
	if _, err := b.Channel(i); err != nil {
		return err
	}
	if _, err := b.Channel(j); err != nil {
		return err
	}
	b.channels[i], b.channels[j] = b.channels[j], b.channels[i]
	b.index.dirty = true
	b.record(Command{Op: OpSwapChannels, Channel: i, Other: j, Slot: -1})
	return nil
}

// MoveChannel moves channel from to index to, shifting the channels in between.
func (b *Bank) MoveChannel(from, to int) error {
	ch, err := b.Channel(from)
	if err != nil {
		return err
	}
	if _, err := b.Channel(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if from < to {
		copy(b.channels[from:to], b.channels[from+1:to+1])
	} else {
		copy(b.channels[to+1:from+1], b.channels[to:from])
	}
	b.channels[to] = ch
	b.index.dirty = true
	b.record(Command{Op: OpMoveChannel, Channel: from, Other: to, Slot: -1, Name: ch.Name})
	return nil
}

func (b *Bank) attach(ch *Channel) {
	if ch.maxProg <= 0 {
		ch.maxProg = b.maxProg
	}
	ch.notify = func(op Op, slot int) {
		b.record(Command{Op: op, Channel: b.IndexOf(ch), Other: -1, Slot: slot, Name: ch.Name})
	}
}

// Evaluate blends every live channel over the base and writes the result to
// out. Errors are returned only when the base cannot be rebuilt: ErrTopology
// for an empty base, ErrSizeMismatch when base weights and points disagree.
// Problems confined to a channel are reported in Report.Warnings and the
// channel is skipped.
func (b *Bank) Evaluate(in Input, out *Output) (Report, error) {
	var rep Report
	start := time.Now()
	log := b.logger()

	if b.base.IsValid() && len(in.Points) != 0 && len(in.Points) != b.base.PointCount() {
		b.base.Invalidate()
	}
	if !b.base.IsValid() {
		if err := b.base.Rebuild(in.Points, in.Weights); err != nil {
			log.Warn("base rebuild failed", zap.Int("points", len(in.Points)), zap.Error(err))
			return rep, err
		}
		for _, ch := range b.channels {
			ch.stale = true
		}
		rep.Rebuilt = true
		log.Debug("base rebuilt", zap.Int("points", b.base.PointCount()))
	}

	for i, ch := range b.channels {
		if !ch.Live() || ch.Valid() {
			continue
		}
		if err := ch.RebuildDeltas(&b.base); err != nil {
			if !errors.Is(err, ErrNoTarget) {
				rep.Warnings = multierr.Append(rep.Warnings, fmt.Errorf("channel %d: %w", i, err))
				log.Warn("channel skipped", zap.Int("channel", i), zap.String("name", ch.Name), zap.Error(err))
			}
		}
	}

	b.buf.Reset(&b.base)

	// Percent sources are not assumed thread-safe: read them here, sequentially.
	b.work = b.work[:0]
	for i, ch := range b.channels {
		if !ch.Live() || !ch.Valid() {
			continue
		}
		raw := ch.percent.Percent(in.Time)
		pct := ch.EffectivePercent(raw, in.UseLimit, in.LimitMin, in.LimitMax)
		if pct == 0 {
			continue
		}
		b.work = append(b.work, workItem{index: i, percent: pct})
	}

	var globalSel []bool
	if in.UseSelection {
		globalSel = in.Selection
	}
	for _, w := range b.work {
		ch := b.channels[w.index]
		job := Job{
			Channel:           ch,
			Percent:           w.percent,
			FilterBySelection: in.UseSelection || (ch.useSelection && len(ch.selection) != 0),
			GlobalSelection:   globalSel,
		}
		if err := b.acc.AccumulateChannel(job, &b.base, &b.buf); err != nil {
			rep.Warnings = multierr.Append(rep.Warnings, fmt.Errorf("channel %d: %w", w.index, err))
			log.Warn("channel positions skipped", zap.Int("channel", w.index), zap.String("name", ch.Name), zap.Error(err))
		}
		rep.Applied++
	}

	b.writeBack(out)

	log.Debug("evaluate",
		zap.Int("points", b.base.PointCount()),
		zap.Int("channels", len(b.channels)),
		zap.Int("applied", rep.Applied),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rep, nil
}

func (b *Bank) writeBack(out *Output) {
	if out == nil {
		return
	}
	n := b.buf.Len()
	out.Positions = resize(out.Positions, n)
	out.Weights = resize(out.Weights, n)
	for i := range out.Positions {
		out.Positions[i] = math.Vec3{X: b.buf.X[i], Y: b.buf.Y[i], Z: b.buf.Z[i]}
	}
	copy(out.Weights, b.buf.W)
}
