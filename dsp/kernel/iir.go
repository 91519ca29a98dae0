package kernel

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-stream/dsp/ringbuf"
	"github.com/cwbudde/algo-stream/internal/polyroot"
)

// IIR is an infinite impulse response filter in Direct Form II. The
// feedforward and feedback sums share one intermediate (w) history held
// in a single guard-mirrored ring:
//
//	w[n] = x[n] - sum_{k=1}^{K-1} a[k] * w[n-k]
//	y[n] = sum_{k=0}^{M-1} b[k] * w[n-k]
//
// Sharing the w history halves the delay-line memory versus separate
// input and output histories, and both sums read the same contiguous
// window.
type IIR struct {
	b []float64 // feedforward, natural order, normalized by a[0]
	a []float64 // feedback, natural order, a[0] == 1 after normalization

	bRev     []float64 // b reversed for the chronological window
	aRevTail []float64 // a[1..K) reversed, empty when K == 1

	hist *ringbuf.Ring
}

// NewIIR creates an IIR kernel from feedforward coefficients b and
// feedback coefficients a. Both vectors are copied and normalized so that
// a[0] == 1; a zero a[0] is rejected.
func NewIIR(b, a []float64) (*IIR, error) {
	if len(b) == 0 || len(a) == 0 {
		return nil, ErrNoCoefficients
	}
	if a[0] == 0 {
		return nil, ErrZeroLeadingCoef
	}

	window := len(b)
	if len(a) > window {
		window = len(a)
	}

	hist, err := ringbuf.ForWindow(window)
	if err != nil {
		return nil, err
	}

	k := &IIR{
		b:    make([]float64, len(b)),
		a:    make([]float64, len(a)),
		hist: hist,
	}
	for i, v := range b {
		k.b[i] = v / a[0]
	}
	for i, v := range a {
		k.a[i] = v / a[0]
	}

	k.bRev = reverse(k.b)
	if len(k.a) > 1 {
		k.aRevTail = reverse(k.a[1:])
	}

	return k, nil
}

// ProcessSample filters one input sample through the shared-history
// Direct Form II recurrence.
func (k *IIR) ProcessSample(x float64) float64 {
	w := x
	if len(k.aRevTail) > 0 {
		w -= dotProduct(k.aRevTail, k.hist.Window(len(k.aRevTail)))
	}

	k.hist.Push(w)

	return dotProduct(k.bRev, k.hist.Window(len(k.bRev)))
}

// ProcessBlock filters a block of samples in-place.
func (k *IIR) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = k.ProcessSample(x)
	}
}

// ProcessBlockTo filters src into dst. Both slices must have the same length.
func (k *IIR) ProcessBlockTo(dst, src []float64) {
	_ = dst[len(src)-1] // bounds check hint
	for i, x := range src {
		dst[i] = k.ProcessSample(x)
	}
}

// Reset clears the intermediate history. Coefficients are untouched.
func (k *IIR) Reset() {
	k.hist.Reset()
}

// Feedforward returns a copy of the normalized feedforward coefficients.
func (k *IIR) Feedforward() []float64 {
	c := make([]float64, len(k.b))
	copy(c, k.b)
	return c
}

// Feedback returns a copy of the normalized feedback coefficients,
// including the leading 1.
func (k *IIR) Feedback() []float64 {
	c := make([]float64, len(k.a))
	copy(c, k.a)
	return c
}

// Stable reports whether every pole of the transfer function lies
// strictly inside the unit circle. The check is informational: the kernel
// keeps operating with its configured coefficients either way, and the
// caller decides whether to reject the configuration. A filter without
// feedback is always stable; if the root solver fails to converge the
// check conservatively reports false.
func (k *IIR) Stable() bool {
	if len(k.a) < 2 {
		return true
	}

	// Poles are the roots of a[0]*z^(K-1) + a[1]*z^(K-2) + ... + a[K-1].
	coeff := make([]complex128, len(k.a))
	for i, v := range k.a {
		coeff[i] = complex(v, 0)
	}

	poles, err := polyroot.DurandKerner(coeff)
	if err != nil {
		return false
	}

	for _, p := range poles {
		if cmplx.Abs(p) >= 1 {
			return false
		}
	}

	return true
}

// HistoryLen returns the length of a history snapshot.
func (k *IIR) HistoryLen() int {
	return k.hist.Capacity()
}

// SnapshotHistory appends the logical w history to dst and returns the
// extended slice.
func (k *IIR) SnapshotHistory(dst []float64) []float64 {
	return k.hist.Snapshot(dst)
}

// RestoreHistory rebuilds the w history from a logical snapshot.
func (k *IIR) RestoreHistory(samples []float64) error {
	return k.hist.Restore(samples)
}

// Response computes the complex frequency response B(e^{-jw})/A(e^{-jw})
// at the given frequency (Hz) and sample rate (Hz).
func (k *IIR) Response(freqHz, sampleRate float64) complex128 {
	den := evalResponse(k.a, freqHz, sampleRate)
	if den == 0 {
		return complex(math.Inf(1), 0)
	}

	return evalResponse(k.b, freqHz, sampleRate) / den
}

// MagnitudeDB returns the magnitude response in dB at the given frequency.
func (k *IIR) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(cmplx.Abs(k.Response(freqHz, sampleRate)))
}
