package kernel

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-stream/dsp/ringbuf"
)

// Errors returned by kernel construction.
var (
	ErrNoCoefficients  = errors.New("kernel: empty coefficient vector")
	ErrZeroLeadingCoef = errors.New("kernel: feedback coefficient a[0] must be non-zero")
)

// FIR is a finite impulse response filter backed by a guard-mirrored ring
// buffer, so every output sample is a single contiguous dot product over
// the input history:
//
//	y[n] = sum_{k=0}^{M-1} b[k] * x[n-k]
//
// FIR filters have no feedback and are unconditionally stable.
type FIR struct {
	taps    []float64 // b in natural order, for callers
	tapsRev []float64 // b reversed, aligned with the chronological window
	hist    *ringbuf.Ring
}

// NewFIR creates an FIR kernel from the given coefficients. The slice is
// copied; the ring capacity is the next power of two >= len(b).
func NewFIR(b []float64) (*FIR, error) {
	if len(b) == 0 {
		return nil, ErrNoCoefficients
	}

	hist, err := ringbuf.ForWindow(len(b))
	if err != nil {
		return nil, err
	}

	taps := make([]float64, len(b))
	copy(taps, b)

	return &FIR{
		taps:    taps,
		tapsRev: reverse(b),
		hist:    hist,
	}, nil
}

// ProcessSample filters one input sample. O(M), no allocation: the push
// is O(1) and the window read is contiguous thanks to the guard mirror.
func (f *FIR) ProcessSample(x float64) float64 {
	f.hist.Push(x)
	return dotProduct(f.tapsRev, f.hist.Window(len(f.tapsRev)))
}

// ProcessBlock filters a block of samples in-place.
func (f *FIR) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = f.ProcessSample(x)
	}
}

// ProcessBlockTo filters src into dst. Both slices must have the same length.
func (f *FIR) ProcessBlockTo(dst, src []float64) {
	_ = dst[len(src)-1] // bounds check hint
	for i, x := range src {
		dst[i] = f.ProcessSample(x)
	}
}

// Reset clears the input history. Coefficients are untouched.
func (f *FIR) Reset() {
	f.hist.Reset()
}

// Order returns the filter order (len(b) - 1).
func (f *FIR) Order() int {
	return len(f.taps) - 1
}

// Coefficients returns a copy of the filter coefficients.
func (f *FIR) Coefficients() []float64 {
	c := make([]float64, len(f.taps))
	copy(c, f.taps)
	return c
}

// HistoryLen returns the length of a history snapshot.
func (f *FIR) HistoryLen() int {
	return f.hist.Capacity()
}

// SnapshotHistory appends the logical input history to dst and returns
// the extended slice. The guard mirror never appears in the snapshot.
func (f *FIR) SnapshotHistory(dst []float64) []float64 {
	return f.hist.Snapshot(dst)
}

// RestoreHistory rebuilds the input history from a logical snapshot.
func (f *FIR) RestoreHistory(samples []float64) error {
	return f.hist.Restore(samples)
}

// Response computes the complex frequency response H(e^{-jw}) at the
// given frequency (Hz) and sample rate (Hz).
func (f *FIR) Response(freqHz, sampleRate float64) complex128 {
	return evalResponse(f.taps, freqHz, sampleRate)
}

// MagnitudeDB returns the magnitude response in dB at the given frequency.
func (f *FIR) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 20 * math.Log10(cmplx.Abs(f.Response(freqHz, sampleRate)))
}

func reverse(b []float64) []float64 {
	r := make([]float64, len(b))
	for i, v := range b {
		r[len(b)-1-i] = v
	}
	return r
}

func evalResponse(coeffs []float64, freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate

	var h complex128
	for k, c := range coeffs {
		h += complex(c, 0) * cmplx.Exp(complex(0, -w*float64(k)))
	}

	return h
}
