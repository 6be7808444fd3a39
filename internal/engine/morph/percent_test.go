package morph

import "testing"

func TestKeyframes_Percent(t *testing.T) {
	k := NewKeyframes(
		Key{Time: 2, Percent: 100},
		Key{Time: 0, Percent: 0},
		Key{Time: 1, Percent: 20},
	)

	tests := []struct {
		name string
		t    float64
		want float32
	}{
		{"before first", -1, 0},
		{"first", 0, 0},
		{"between", 0.5, 10},
		{"second", 1, 20},
		{"between later", 1.5, 60},
		{"last", 2, 100},
		{"after last", 5, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.Percent(tt.t); !approx(got, tt.want) {
				t.Errorf("Percent(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestKeyframes_Degenerate(t *testing.T) {
	if got := Keyframes(nil).Percent(1); got != 0 {
		t.Errorf("empty = %v, want 0", got)
	}
	if got := NewKeyframes(Key{Time: 3, Percent: 42}).Percent(0); got != 42 {
		t.Errorf("single = %v, want 42", got)
	}
}

func TestConstantAndFunc(t *testing.T) {
	if got := Constant(33).Percent(100); got != 33 {
		t.Errorf("Constant = %v", got)
	}
	f := PercentFunc(func(t float64) float32 { return float32(t * 10) })
	if got := f.Percent(2); got != 20 {
		t.Errorf("PercentFunc = %v", got)
	}
}

func TestOp_String(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpAddChannel, "add-channel"},
		{OpRemoveProgressive, "remove-progressive"},
		{OpReset, "reset"},
		{Op(99), "Op(99)"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.op), got, tt.want)
		}
	}
}
