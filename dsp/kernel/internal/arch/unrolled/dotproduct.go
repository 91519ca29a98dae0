// Package unrolled provides a portable four-accumulator variant of the
// kernel multiply-accumulate primitives. Independent accumulators break
// the additive dependency chain, letting the CPU issue four
// multiply-adds in flight per iteration on any architecture.
package unrolled

import (
	"github.com/cwbudde/algo-stream/dsp/kernel/internal/arch/registry"
	"github.com/cwbudde/algo-stream/internal/cpu"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:       "unrolled4",
		SIMDLevel:  cpu.SIMDNone,
		Priority:   5,
		DotProduct: DotProduct,
	})
}

// DotProduct returns sum(a[i] * b[i]) over the shorter slice, processing
// four lanes per iteration with a scalar tail. The partial sums are
// combined pairwise, so the result can differ from the sequential
// reference only by floating-point reassociation.
func DotProduct(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var s0, s1, s2, s3 float64

	i := 0
	for ; i+3 < n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}

	sum := (s0 + s1) + (s2 + s3)
	for ; i < n; i++ {
		sum += a[i] * b[i]
	}

	return sum
}
