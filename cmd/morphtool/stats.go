package main

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes point displacement magnitudes.
type Stats struct {
	Count  int     `yaml:"count"`
	Moved  int     `yaml:"moved"`
	Total  float64 `yaml:"total"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
	Min    float64 `yaml:"min"`
	Median float64 `yaml:"median"`
	P95    float64 `yaml:"p95"`
	Max    float64 `yaml:"max"`
}

// Summarize computes Stats over d. d is not modified.
func Summarize(d []float64) Stats {
	st := Stats{Count: len(d)}
	if len(d) == 0 {
		return st
	}

	for _, v := range d {
		if v > 0 {
			st.Moved++
		}
	}
	st.Total = floats.Sum(d)
	st.Min = floats.Min(d)
	st.Max = floats.Max(d)
	if len(d) > 1 {
		st.Mean, st.StdDev = stat.MeanStdDev(d, nil)
	} else {
		st.Mean = d[0]
	}

	// Quantile needs sorted input.
	sorted := slices.Clone(d)
	slices.Sort(sorted)
	st.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	st.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return st
}
