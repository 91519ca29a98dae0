package kernel

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-stream/dsp/kernel/internal/arch/generic"
	"github.com/cwbudde/algo-stream/dsp/kernel/internal/arch/registry"
	"github.com/cwbudde/algo-stream/internal/cpu"
	"github.com/cwbudde/algo-stream/internal/testutil"
)

// TestAllBackendsMatchReference verifies every registered
// multiply-accumulate backend against the generic scalar reference.
// Vectorized variants may reassociate the sum, so comparison uses a
// relative tolerance rather than exact equality.
func TestAllBackendsMatchReference(t *testing.T) {
	entries := registry.Global.ListEntries()
	if len(entries) < 2 {
		t.Fatalf("expected generic plus at least one optimized backend, got %d", len(entries))
	}

	for _, entry := range entries {
		t.Run(entry.Name, func(t *testing.T) {
			if entry.DotProduct == nil {
				t.Fatal("entry missing DotProduct")
			}

			for _, n := range []int{0, 1, 3, 4, 5, 8, 17, 64, 1000} {
				a := testutil.DeterministicNoise(int64(n), 1.0, n)
				b := testutil.DeterministicNoise(int64(n)+1, 1.0, n)

				got := entry.DotProduct(a, b)
				want := generic.DotProduct(a, b)

				tol := 1e-12 * math.Max(1, math.Abs(want)) * float64(n+1)
				if math.Abs(got-want) > tol {
					t.Fatalf("n=%d: %s = %v, generic = %v", n, entry.Name, got, want)
				}
			}
		})
	}
}

func TestBackendLengthMismatch(t *testing.T) {
	for _, entry := range registry.Global.ListEntries() {
		// Only the shorter slice participates.
		got := entry.DotProduct([]float64{1, 2, 3}, []float64{2, 2})
		if got != 6 {
			t.Fatalf("%s: mismatched lengths = %v, want 6", entry.Name, got)
		}

		if got := entry.DotProduct(nil, []float64{1}); got != 0 {
			t.Fatalf("%s: empty input = %v, want 0", entry.Name, got)
		}
	}
}

func TestRegistrySelectsGenericWhenForced(t *testing.T) {
	entry := registry.Global.Lookup(cpu.Features{ForceGeneric: true})
	if entry == nil {
		t.Fatal("no entry for forced-generic features")
	}
	if entry.SIMDLevel != cpu.SIMDNone {
		t.Fatalf("forced-generic selected %s (level %v)", entry.Name, entry.SIMDLevel)
	}
}

func TestRegistryPrefersHigherPriority(t *testing.T) {
	entry := registry.Global.Lookup(cpu.DetectFeatures())
	if entry == nil {
		t.Fatal("no entry for detected features")
	}
	// The portable unrolled backend outranks the reference.
	if entry.Name != "unrolled4" {
		t.Fatalf("selected %s, want unrolled4", entry.Name)
	}
}
