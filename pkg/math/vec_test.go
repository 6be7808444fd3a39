package math

import (
	"testing"
)

func TestVec3Add(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	got := a.Add(b)
	want := Vec3{5, 7, 9}
	if got != want {
		t.Errorf("Vec3.Add() = %v, want %v", got, want)
	}
}

func TestVec3Sub(t *testing.T) {
	got := Vec3{4, 5, 6}.Sub(Vec3{1, 1, 1})
	want := Vec3{3, 4, 5}
	if got != want {
		t.Errorf("Vec3.Sub() = %v, want %v", got, want)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	if got := v.Length(); got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
	if got := v.LengthSq(); got != 49 {
		t.Errorf("Vec3.LengthSq() = %v, want 49", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 4, 12}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
	if z := (Vec3{}).Normalize(); z != (Vec3{}) {
		t.Errorf("zero Normalize() = %v, want zero", z)
	}
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{2, 4, -8}
	tests := []struct {
		t    float32
		want Vec3
	}{
		{0, a},
		{1, b},
		{0.5, Vec3{1, 2, -4}},
	}
	for _, tt := range tests {
		if got := a.Lerp(b, tt.t); got != tt.want {
			t.Errorf("Lerp(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestVec3Project(t *testing.T) {
	v := Vec3{3, 4, 0}
	p, ok := v.Project(Vec3{2, 0, 0}, 1e-6)
	if !ok {
		t.Fatal("expected projection onto non-zero direction")
	}
	if p != (Vec3{3, 0, 0}) {
		t.Errorf("Project() = %v, want (3, 0, 0)", p)
	}

	p, ok = v.Project(Vec3{}, 1e-6)
	if ok || p != (Vec3{}) {
		t.Errorf("Project() onto zero = %v, %v, want zero, false", p, ok)
	}
}

func TestVec3Near(t *testing.T) {
	a := Vec3{1, 2, 3}
	if !a.Near(Vec3{1.0005, 2, 2.9995}, 0.001) {
		t.Error("expected vectors within tolerance")
	}
	if a.Near(Vec3{1.01, 2, 3}, 0.001) {
		t.Error("expected vectors outside tolerance")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		x, lo, hi, want float32
	}{
		{-5, 0, 100, 0},
		{50, 0, 100, 50},
		{150, 0, 100, 100},
	}
	for _, tt := range tests {
		if got := Clamp(tt.x, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.x, tt.lo, tt.hi, got, tt.want)
		}
	}
}
