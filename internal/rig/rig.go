// Package rig reads and writes YAML descriptions of a base point cloud and
// the morph channels driven over it.
package rig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/morpher/internal/engine/morph"
	"github.com/Faultbox/morpher/pkg/math"
)

// ErrInvalidRig wraps every problem reported by Validate.
var ErrInvalidRig = errors.New("rig: invalid document")

// Point is a position written as a [x, y, z] sequence.
type Point [3]float32

// Vec3 converts p.
func (p Point) Vec3() math.Vec3 { return math.Vec3{X: p[0], Y: p[1], Z: p[2]} }

// Rig is a complete document.
type Rig struct {
	Name     string    `yaml:"name,omitempty"`
	Base     Geometry  `yaml:"base"`
	Channels []Channel `yaml:"channels"`
}

// Geometry is a point cloud with optional per-point weights.
type Geometry struct {
	Points  []Point   `yaml:"points"`
	Weights []float32 `yaml:"weights,omitempty"`
}

// Target is a morph target. Percent is its place on the progression axis;
// nil leaves it to automatic spacing.
type Target struct {
	Geometry `yaml:",inline"`
	Name     string   `yaml:"name,omitempty"`
	Source   string   `yaml:"source,omitempty"`
	Percent  *float32 `yaml:"percent,omitempty"`
}

// Percent drives a channel. At most one of Value, Keys and Expr may be set;
// none means a constant 0.
type Percent struct {
	Value *float32    `yaml:"value,omitempty"`
	Keys  []morph.Key `yaml:"keys,omitempty"`
	Expr  string      `yaml:"expr,omitempty"`
}

// Limits mirrors a channel's own percent limits.
type Limits struct {
	Use bool    `yaml:"use"`
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// Channel describes one morph channel.
type Channel struct {
	Name          string    `yaml:"name"`
	Active        *bool     `yaml:"active,omitempty"`
	Target        Target    `yaml:"target"`
	Progressive   []Target  `yaml:"progressive,omitempty"`
	Percent       Percent   `yaml:"percent,omitempty"`
	Limits        *Limits   `yaml:"limits,omitempty"`
	Curvature     *float32  `yaml:"curvature,omitempty"`
	UseSelection  bool      `yaml:"use_selection,omitempty"`
	Selection     []bool    `yaml:"selection,omitempty"`
	SoftSelection []float32 `yaml:"soft_selection,omitempty"`
}

// Load reads and validates a rig file.
func Load(path string) (*Rig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a rig document.
func Parse(data []byte) (*Rig, error) {
	var r Rig
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing rig: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Save writes the rig to path, creating parent directories.
func (r *Rig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every structural problem in the document. Target sizes
// that disagree with the base are left to the engine, which skips such
// channels at evaluation time.
func (r *Rig) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidRig}, args...)...))
	}

	if len(r.Base.Points) == 0 {
		add("base has no points")
	}
	if w := len(r.Base.Weights); w != 0 && w != len(r.Base.Points) {
		add("base has %d points but %d weights", len(r.Base.Points), w)
	}

	seen := make(map[string]int, len(r.Channels))
	for i, ch := range r.Channels {
		label := fmt.Sprintf("channel %d (%s)", i, ch.Name)
		if ch.Name == "" {
			add("channel %d has no name", i)
		} else if j, dup := seen[ch.Name]; dup {
			add("%s duplicates channel %d", label, j)
		} else {
			seen[ch.Name] = i
		}

		n := len(ch.Target.Points)
		if n == 0 {
			add("%s has no target points", label)
		}
		if w := len(ch.Target.Weights); w != 0 && w != n {
			add("%s target has %d points but %d weights", label, n, w)
		}
		for k, p := range ch.Progressive {
			if len(p.Points) != n {
				add("%s progressive %d has %d points, target has %d", label, k, len(p.Points), n)
			}
			if w := len(p.Weights); w != 0 && w != len(p.Points) {
				add("%s progressive %d has %d points but %d weights", label, k, len(p.Points), w)
			}
		}
		if len(ch.Selection) != 0 && len(ch.Selection) != n {
			add("%s selection has %d entries, target has %d points", label, len(ch.Selection), n)
		}
		if len(ch.SoftSelection) != 0 && len(ch.SoftSelection) != n {
			add("%s soft selection has %d entries, target has %d points", label, len(ch.SoftSelection), n)
		}
		if ch.Curvature != nil && (*ch.Curvature < 0 || *ch.Curvature > 1) {
			add("%s curvature %g outside [0, 1]", label, *ch.Curvature)
		}

		kinds := 0
		if ch.Percent.Value != nil {
			kinds++
		}
		if len(ch.Percent.Keys) != 0 {
			kinds++
		}
		if ch.Percent.Expr != "" {
			kinds++
			if _, err := NewExprSource(ch.Percent.Expr); err != nil {
				add("%s percent expression: %v", label, err)
			}
		}
		if kinds > 1 {
			add("%s percent sets more than one of value, keys and expr", label)
		}
	}
	return errs
}
