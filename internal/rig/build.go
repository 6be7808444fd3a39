package rig

import (
	"fmt"

	"github.com/Faultbox/morpher/internal/engine/morph"
	"github.com/Faultbox/morpher/pkg/math"
)

// Source returns the PercentSource described by p.
func (p Percent) Source() (morph.PercentSource, error) {
	switch {
	case p.Expr != "":
		return NewExprSource(p.Expr)
	case len(p.Keys) != 0:
		return morph.NewKeyframes(p.Keys...), nil
	case p.Value != nil:
		return morph.Constant(*p.Value), nil
	}
	return morph.Constant(0), nil
}

// Input returns a morph.Input carrying the base geometry.
func (r *Rig) Input() morph.Input {
	return morph.Input{
		Points:  vecs(r.Base.Points),
		Weights: r.Base.Weights,
	}
}

// Build appends the rig's channels to b, in document order. Channels
// without a curvature get defaultCurvature. A channel that cannot be built
// is removed again and the error returned; earlier channels stay.
func (r *Rig) Build(b *morph.Bank, defaultCurvature float32) error {
	for i := range r.Channels {
		def := &r.Channels[i]
		ch, idx := b.AddChannel(def.Name)
		if err := def.apply(ch, defaultCurvature); err != nil {
			_ = b.RemoveChannel(idx)
			return fmt.Errorf("building channel %q: %w", def.Name, err)
		}
	}
	return nil
}

func (c *Channel) apply(ch *morph.Channel, defaultCurvature float32) error {
	if err := ch.SetTarget(vecs(c.Target.Points), c.Target.Weights); err != nil {
		return err
	}
	if c.Target.Percent != nil {
		if err := ch.SetTargetPercent(0, *c.Target.Percent); err != nil {
			return err
		}
	}
	if err := ch.SetTargetSource(0, c.Target.Name, sourceRef(c.Target.Source)); err != nil {
		return err
	}

	for k, t := range c.Progressive {
		pct := morph.UnsetPercent
		if t.Percent != nil {
			pct = *t.Percent
		}
		slot, err := ch.AddProgressiveTarget(vecs(t.Points), t.Weights, pct)
		if err != nil {
			return fmt.Errorf("progressive %d: %w", k, err)
		}
		if err := ch.SetTargetSource(slot, t.Name, sourceRef(t.Source)); err != nil {
			return err
		}
	}

	src, err := c.Percent.Source()
	if err != nil {
		return err
	}
	ch.SetPercentSource(src)

	if c.Limits != nil {
		ch.SetLimits(c.Limits.Use, c.Limits.Min, c.Limits.Max)
	}
	if c.Curvature != nil {
		ch.SetCurvature(*c.Curvature)
	} else {
		ch.SetCurvature(defaultCurvature)
	}
	if c.Active != nil {
		ch.SetActive(*c.Active)
	}

	ch.SetUseSelection(c.UseSelection)
	if len(c.Selection) != 0 {
		if err := ch.SetSelection(c.Selection); err != nil {
			return err
		}
	}
	if len(c.SoftSelection) != 0 {
		if err := ch.SetSoftSelection(c.SoftSelection); err != nil {
			return err
		}
	}
	return nil
}

// sourceRef keeps empty sources out of the bank's lookup index.
func sourceRef(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func vecs(pts []Point) []math.Vec3 {
	out := make([]math.Vec3, len(pts))
	for i, p := range pts {
		out[i] = p.Vec3()
	}
	return out
}
