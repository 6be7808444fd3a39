package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/morpher/internal/assets"
	"github.com/Faultbox/morpher/internal/config"
	"github.com/Faultbox/morpher/internal/engine/morph"
	"github.com/Faultbox/morpher/internal/rig"
	"github.com/Faultbox/morpher/pkg/math"
)

func cmdInfo(cfg *config.Config, lib *assets.Manager, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: morphtool info <rig.yaml>")
		return errUsage
	}

	s, err := openSession(cfg, lib, fs.Arg(0))
	if err != nil {
		return err
	}

	name := s.rig.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("Rig:      %s\n", name)
	fmt.Printf("Points:   %d\n", len(s.in.Points))
	fmt.Printf("Channels: %d (%d active)\n", s.bank.Len(), s.bank.ActiveCount())
	fmt.Printf("Workers:  %d\n", s.bank.Workers())
	fmt.Println()

	for i, ch := range s.bank.Channels() {
		state := "on"
		if !ch.Live() {
			state = "off"
		}
		fmt.Printf("[%d] %-16s %-3s points=%d progressive=%d curvature=%.2f\n",
			i, ch.Name, state, ch.PointCount(), ch.NumProgressive(), ch.Curvature())
		fmt.Printf("    percent: %s\n", describeSource(ch.PercentSource()))
		if use, lo, hi := ch.Limits(); use {
			fmt.Printf("    limits:  %g..%g\n", lo, hi)
		}
		if ch.UseSelection() {
			fmt.Printf("    selection: on (soft=%v)\n", ch.HasSubSelection())
		}
		fmt.Printf("    axis:    %s\n", describeAxis(ch))
	}
	return nil
}

func describeSource(src morph.PercentSource) string {
	switch v := src.(type) {
	case morph.Constant:
		return fmt.Sprintf("constant %g", float32(v))
	case morph.Keyframes:
		if len(v) == 0 {
			return "keyframes (empty)"
		}
		return fmt.Sprintf("keyframes (%d keys, t=%g..%g)", len(v), v[0].Time, v[len(v)-1].Time)
	case *rig.ExprSource:
		return fmt.Sprintf("expr %q", v.String())
	}
	return fmt.Sprintf("%T", src)
}

func describeAxis(ch *morph.Channel) string {
	var b strings.Builder
	b.WriteString("base@0%")
	for slot := 0; slot <= ch.NumProgressive(); slot++ {
		t, err := ch.Target(slot)
		if err != nil {
			break
		}
		label := t.Name
		if label == "" {
			label = fmt.Sprintf("#%d", slot)
		}
		mark := ""
		if t.Explicit() && slot != ch.NumProgressive() {
			mark = "*"
		}
		fmt.Fprintf(&b, " -> %s@%g%%%s", label, ch.TargetPercent(slot), mark)
	}
	return b.String()
}

type evalDoc struct {
	Time    float64     `yaml:"time"`
	Applied int         `yaml:"applied"`
	Points  []rig.Point `yaml:"points"`
	Weights []float32   `yaml:"weights"`
}

func cmdEval(cfg *config.Config, lib *assets.Manager, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	t := fs.Float64("t", 0, "Evaluation time")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: morphtool eval <rig.yaml> [-t time]")
		return errUsage
	}

	s, err := openSession(cfg, lib, fs.Arg(0))
	if err != nil {
		return err
	}

	var out morph.Output
	rep, err := s.evaluate(*t, &out)
	if err != nil {
		return err
	}

	if cfg.Output.Format == "yaml" {
		doc := evalDoc{Time: *t, Applied: rep.Applied, Weights: out.Weights}
		doc.Points = make([]rig.Point, len(out.Positions))
		for i, p := range out.Positions {
			doc.Points[i] = rig.Point{p.X, p.Y, p.Z}
		}
		return writeYAML(doc)
	}

	prec := cfg.Output.Precision
	fmt.Printf("# t=%g applied=%d\n", *t, rep.Applied)
	for i, p := range out.Positions {
		fmt.Printf("%6d  %.*f  %.*f  %.*f  w=%.*f\n", i, prec, p.X, prec, p.Y, prec, p.Z, prec, out.Weights[i])
	}
	return nil
}

type statsDoc struct {
	Time     float64        `yaml:"time"`
	Overall  Stats          `yaml:"overall"`
	Channels []channelStats `yaml:"channels,omitempty"`
}

type channelStats struct {
	Name  string `yaml:"name"`
	Stats `yaml:",inline"`
}

func cmdStats(cfg *config.Config, lib *assets.Manager, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	t := fs.Float64("t", 0, "Evaluation time")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: morphtool stats <rig.yaml> [-t time]")
		return errUsage
	}

	s, err := openSession(cfg, lib, fs.Arg(0))
	if err != nil {
		return err
	}

	var out morph.Output
	if _, err := s.evaluate(*t, &out); err != nil {
		return err
	}
	doc := statsDoc{Time: *t, Overall: Summarize(Displacements(s.in.Points, out.Positions))}

	for i, ch := range s.bank.Channels() {
		if !ch.Live() {
			continue
		}
		restore := solo(s.bank, i)
		_, err := s.evaluate(*t, &out)
		restore()
		if err != nil {
			return err
		}
		doc.Channels = append(doc.Channels, channelStats{
			Name:  ch.Name,
			Stats: Summarize(Displacements(s.in.Points, out.Positions)),
		})
	}

	if cfg.Output.Format == "yaml" {
		return writeYAML(doc)
	}

	prec := cfg.Output.Precision
	fmt.Printf("# t=%g\n", *t)
	fmt.Printf("%-18s %7s %7s %*s %*s %*s %*s %*s\n", "channel", "points", "moved",
		prec+6, "mean", prec+6, "stddev", prec+6, "median", prec+6, "p95", prec+6, "max")
	printStats := func(name string, st Stats) {
		fmt.Printf("%-18s %7d %7d %*.*f %*.*f %*.*f %*.*f %*.*f\n", name, st.Count, st.Moved,
			prec+6, prec, st.Mean, prec+6, prec, st.StdDev, prec+6, prec, st.Median,
			prec+6, prec, st.P95, prec+6, prec, st.Max)
	}
	printStats("(all)", doc.Overall)
	for _, c := range doc.Channels {
		printStats(c.Name, c.Stats)
	}
	return nil
}

// solo disables every live channel but i through the override flag and
// returns a function that restores the previous flags.
func solo(b *morph.Bank, i int) func() {
	var muted []*morph.Channel
	for j, ch := range b.Channels() {
		if j != i && ch.ActiveOverride() {
			ch.SetActiveOverride(false)
			muted = append(muted, ch)
		}
	}
	return func() {
		for _, ch := range muted {
			ch.SetActiveOverride(true)
		}
	}
}

type sweepStep struct {
	Percent  float32   `yaml:"percent"`
	Position rig.Point `yaml:"position"`
	Offset   float32   `yaml:"offset"`
}

func cmdSweep(cfg *config.Config, lib *assets.Manager, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	channel := fs.String("channel", "", "Channel to sweep")
	steps := fs.Int("steps", 10, "Number of intervals between 0% and 100%")
	point := fs.Int("point", 0, "Point index to trace")
	t := fs.Float64("t", 0, "Evaluation time for the other channels")
	alone := fs.Bool("solo", true, "Mute the other channels")
	fs.Parse(args)

	if fs.NArg() < 1 || *channel == "" || *steps < 1 {
		fmt.Fprintln(os.Stderr, "Usage: morphtool sweep <rig.yaml> -channel name [-steps n] [-point i] [-t time] [-solo=false]")
		return errUsage
	}

	s, err := openSession(cfg, lib, fs.Arg(0))
	if err != nil {
		return err
	}
	ch, idx := s.bank.ChannelByName(*channel)
	if ch == nil {
		return fmt.Errorf("channel %q not found", *channel)
	}
	if *point < 0 || *point >= len(s.in.Points) {
		return fmt.Errorf("point %d out of range [0, %d)", *point, len(s.in.Points))
	}

	if *alone {
		defer solo(s.bank, idx)()
	}
	defer ch.SetPercentSource(ch.PercentSource())

	base := s.in.Points[*point]
	trace := make([]sweepStep, 0, *steps+1)
	var out morph.Output
	for i := 0; i <= *steps; i++ {
		pct := 100 * float32(i) / float32(*steps)
		ch.SetPercentSource(morph.Constant(pct))
		if _, err := s.evaluate(*t, &out); err != nil {
			return err
		}
		p := out.Positions[*point]
		trace = append(trace, sweepStep{
			Percent:  pct,
			Position: rig.Point{p.X, p.Y, p.Z},
			Offset:   p.Distance(base),
		})
	}

	if cfg.Output.Format == "yaml" {
		return writeYAML(trace)
	}

	prec := cfg.Output.Precision
	fmt.Printf("# channel=%s point=%d progressive=%d\n", ch.Name, *point, ch.NumProgressive())
	for _, st := range trace {
		fmt.Printf("%7.2f%%  %.*f  %.*f  %.*f  |d|=%.*f\n", st.Percent,
			prec, st.Position[0], prec, st.Position[1], prec, st.Position[2], prec, st.Offset)
	}
	return nil
}

func writeYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Displacements returns |after[i] - before[i]| for every point both share.
func Displacements(before, after []math.Vec3) []float64 {
	n := min(len(before), len(after))
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		d[i] = float64(after[i].Distance(before[i]))
	}
	return d
}
