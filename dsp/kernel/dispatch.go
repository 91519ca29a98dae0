package kernel

import (
	"sync"

	"github.com/cwbudde/algo-stream/dsp/kernel/internal/arch/registry"
	"github.com/cwbudde/algo-stream/internal/cpu"

	// Register the multiply-accumulate backends.
	_ "github.com/cwbudde/algo-stream/dsp/kernel/internal/arch/generic"
	_ "github.com/cwbudde/algo-stream/dsp/kernel/internal/arch/unrolled"
)

var (
	dotProductImpl     registry.DotProductFn
	dotProductInitOnce sync.Once
)

func initDotProductKernel() {
	entry := registry.Global.Lookup(cpu.DetectFeatures())
	if entry == nil {
		panic("kernel: no multiply-accumulate backend registered (missing generic fallback?)")
	}

	if entry.DotProduct == nil {
		panic("kernel: selected backend missing DotProduct")
	}

	dotProductImpl = entry.DotProduct
}

// dotProduct is the shared multiply-accumulate primitive behind every
// filter kernel. The backend is chosen once for the detected CPU.
func dotProduct(a, b []float64) float64 {
	dotProductInitOnce.Do(initDotProductKernel)
	return dotProductImpl(a, b)
}
