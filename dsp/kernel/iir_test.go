package kernel

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-stream/internal/testutil"
)

// naiveIIR is the O(M*N) direct form I reference:
// y[n] = sum b[k]*x[n-k] - sum a[k]*y[n-k], implicit zero history.
func naiveIIR(b, a, x []float64) []float64 {
	y := make([]float64, len(x))
	for n := range x {
		var acc float64
		for k, c := range b {
			if n-k >= 0 {
				acc += c * x[n-k]
			}
		}
		for k := 1; k < len(a); k++ {
			if n-k >= 0 {
				acc -= a[k] * y[n-k]
			}
		}
		y[n] = acc / a[0]
	}
	return y
}

func TestNewIIRValidation(t *testing.T) {
	if _, err := NewIIR(nil, []float64{1}); !errors.Is(err, ErrNoCoefficients) {
		t.Fatalf("empty b err = %v, want %v", err, ErrNoCoefficients)
	}
	if _, err := NewIIR([]float64{1}, nil); !errors.Is(err, ErrNoCoefficients) {
		t.Fatalf("empty a err = %v, want %v", err, ErrNoCoefficients)
	}
	if _, err := NewIIR([]float64{1}, []float64{0, 0.5}); !errors.Is(err, ErrZeroLeadingCoef) {
		t.Fatalf("zero a[0] err = %v, want %v", err, ErrZeroLeadingCoef)
	}
}

func TestIIRNormalization(t *testing.T) {
	k, err := NewIIR([]float64{2, 4}, []float64{2, 1})
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceEqual(t, k.Feedforward(), []float64{1, 2})
	testutil.RequireSliceEqual(t, k.Feedback(), []float64{1, 0.5})
}

func TestIIRMatchesNaiveRecurrence(t *testing.T) {
	tests := []struct {
		name string
		b    []float64
		a    []float64
	}{
		{"first order lowpass", []float64{0.2, 0.2}, []float64{1, -0.6}},
		{"second order", []float64{0.1, 0.2, 0.1}, []float64{1, -0.5, 0.25}},
		{"longer feedforward", []float64{0.3, 0.2, 0.1, 0.05, 0.02}, []float64{1, -0.4}},
		{"longer feedback", []float64{0.5}, []float64{1, -0.3, 0.2, -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := testutil.DeterministicNoise(11, 1.0, 10*len(tt.b)+200)

			k, err := NewIIR(tt.b, tt.a)
			if err != nil {
				t.Fatal(err)
			}

			got := make([]float64, len(x))
			k.ProcessBlockTo(got, x)

			want := naiveIIR(tt.b, tt.a, x)
			testutil.RequireSliceNearlyEqual(t, got, want, 1e-9)
			testutil.RequireFinite(t, got)
		})
	}
}

func TestIIRNoFeedbackEqualsFIR(t *testing.T) {
	b := []float64{0.25, 0.25, 0.25, 0.25}

	iir, err := NewIIR(b, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	fir, err := NewFIR(b)
	if err != nil {
		t.Fatal(err)
	}

	x := testutil.DeterministicNoise(5, 1.0, 128)
	for i, v := range x {
		yi, yf := iir.ProcessSample(v), fir.ProcessSample(v)
		if yi != yf {
			t.Fatalf("sample %d: IIR %v, FIR %v", i, yi, yf)
		}
	}
}

func TestIIRStable(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		want bool
	}{
		{"no feedback", []float64{1}, true},
		{"pole at 0.6", []float64{1, -0.6}, true},
		{"pole at 1.0", []float64{1, -1}, false},
		{"pole outside", []float64{1, -1.5}, false},
		{"stable conjugate pair", []float64{1, -0.5, 0.25}, true},
		{"unstable conjugate pair", []float64{1, -1.8, 1.2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := NewIIR([]float64{1}, tt.a)
			if err != nil {
				t.Fatal(err)
			}
			if got := k.Stable(); got != tt.want {
				t.Fatalf("Stable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIIRUnstableStillProcesses(t *testing.T) {
	// Instability is reported, never corrected: the kernel keeps
	// applying its configured coefficients.
	k, err := NewIIR([]float64{1}, []float64{1, -2})
	if err != nil {
		t.Fatal(err)
	}
	if k.Stable() {
		t.Fatal("pole at 2 reported stable")
	}

	// y[n] = x[n] + 2*y[n-1]: impulse response 1, 2, 4, 8.
	want := []float64{1, 2, 4, 8}
	for i, x := range []float64{1, 0, 0, 0} {
		if y := k.ProcessSample(x); y != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, y, want[i])
		}
	}
}

func TestIIRReset(t *testing.T) {
	b, a := []float64{0.1, 0.2}, []float64{1, -0.5}

	k1, _ := NewIIR(b, a)
	k2, _ := NewIIR(b, a)

	for _, v := range testutil.DeterministicNoise(9, 1.0, 50) {
		k1.ProcessSample(v)
	}
	k1.Reset()

	x := testutil.DeterministicNoise(10, 1.0, 50)
	for i, v := range x {
		y1, y2 := k1.ProcessSample(v), k2.ProcessSample(v)
		if y1 != y2 {
			t.Fatalf("sample %d: reset kernel %v, fresh kernel %v", i, y1, y2)
		}
	}
}

func TestIIRHistorySnapshotRoundTrip(t *testing.T) {
	b, a := []float64{0.1, 0.2, 0.3}, []float64{1, -0.4, 0.1}

	k1, _ := NewIIR(b, a)
	for _, v := range testutil.DeterministicNoise(20, 1.0, 77) {
		k1.ProcessSample(v)
	}

	snap := k1.SnapshotHistory(nil)

	k2, _ := NewIIR(b, a)
	if err := k2.RestoreHistory(snap); err != nil {
		t.Fatal(err)
	}

	tail := testutil.DeterministicNoise(21, 1.0, 50)
	for i, v := range tail {
		y1, y2 := k1.ProcessSample(v), k2.ProcessSample(v)
		if y1 != y2 {
			t.Fatalf("sample %d: original %v, restored %v", i, y1, y2)
		}
	}
}
