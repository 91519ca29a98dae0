// Package generic provides the pure Go reference implementations of the
// kernel multiply-accumulate primitives.
package generic

import (
	"github.com/cwbudde/algo-stream/dsp/kernel/internal/arch/registry"
	"github.com/cwbudde/algo-stream/internal/cpu"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:       "generic",
		SIMDLevel:  cpu.SIMDNone,
		Priority:   0,
		DotProduct: DotProduct,
	})
}

// DotProduct returns sum(a[i] * b[i]) over the shorter slice. This is the
// numerical reference all other variants are verified against.
func DotProduct(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}

	return sum
}
