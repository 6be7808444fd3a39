package main

import (
	"math"
	"testing"

	pmath "github.com/Faultbox/morpher/pkg/math"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want Stats
	}{
		{
			name: "empty",
			in:   nil,
			want: Stats{},
		},
		{
			name: "single",
			in:   []float64{2},
			want: Stats{Count: 1, Moved: 1, Total: 2, Mean: 2, Min: 2, Median: 2, P95: 2, Max: 2},
		},
		{
			name: "unmoved points",
			in:   []float64{0, 0, 0, 0},
			want: Stats{Count: 4},
		},
		{
			name: "spread",
			in:   []float64{4, 0, 2, 2},
			want: Stats{Count: 4, Moved: 3, Total: 8, Mean: 2, StdDev: math.Sqrt(8.0 / 3.0), Min: 0, Median: 2, P95: 4, Max: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.in)
			if got.Count != tt.want.Count || got.Moved != tt.want.Moved {
				t.Errorf("expected count %d moved %d, got %d and %d", tt.want.Count, tt.want.Moved, got.Count, got.Moved)
			}
			pairs := []struct {
				name      string
				got, want float64
			}{
				{"total", got.Total, tt.want.Total},
				{"mean", got.Mean, tt.want.Mean},
				{"stddev", got.StdDev, tt.want.StdDev},
				{"min", got.Min, tt.want.Min},
				{"median", got.Median, tt.want.Median},
				{"p95", got.P95, tt.want.P95},
				{"max", got.Max, tt.want.Max},
			}
			for _, p := range pairs {
				if math.Abs(p.got-p.want) > 1e-9 {
					t.Errorf("expected %s %v, got %v", p.name, p.want, p.got)
				}
			}
		})
	}
}

func TestSummarizeKeepsInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Summarize(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("expected input untouched, got %v", in)
	}
}

func TestDisplacements(t *testing.T) {
	before := []pmath.Vec3{{}, {X: 1}, {Y: 2}}
	after := []pmath.Vec3{{X: 3, Y: 4}, {X: 1}}
	d := Displacements(before, after)
	if len(d) != 2 {
		t.Fatalf("expected 2 displacements, got %d", len(d))
	}
	if d[0] != 5 || d[1] != 0 {
		t.Errorf("expected [5 0], got %v", d)
	}
}
