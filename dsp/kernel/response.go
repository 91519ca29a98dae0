package kernel

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-stream/dsp/ringbuf"
)

// ErrResponseSize is returned when a magnitude response grid is too small.
var ErrResponseSize = errors.New("kernel: response grid must have at least 2 points")

// MagnitudeResponse evaluates |B(e^-jw)/A(e^-jw)| on a uniform frequency
// grid via FFT of the zero-padded coefficient vectors. It returns
// fftSize/2+1 magnitudes from DC to Nyquist, where fftSize is n rounded
// up to the next power of two and at least max(len(b), len(a)).
//
// Pass a = nil (or [1]) for FIR responses.
func MagnitudeResponse(b, a []float64, n int) ([]float64, error) {
	if len(b) == 0 {
		return nil, ErrNoCoefficients
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: %d", ErrResponseSize, n)
	}

	if len(a) == 0 {
		a = []float64{1}
	}
	if a[0] == 0 {
		return nil, ErrZeroLeadingCoef
	}

	fftSize := ringbuf.NextPowerOfTwo(n)
	if m := ringbuf.NextPowerOfTwo(len(b)); m > fftSize {
		fftSize = m
	}
	if m := ringbuf.NextPowerOfTwo(len(a)); m > fftSize {
		fftSize = m
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("kernel: failed to create FFT plan: %w", err)
	}

	num, err := coeffSpectrum(plan, b, fftSize)
	if err != nil {
		return nil, err
	}

	den, err := coeffSpectrum(plan, a, fftSize)
	if err != nil {
		return nil, err
	}

	bins := fftSize/2 + 1
	out := make([]float64, bins)
	for i := 0; i < bins; i++ {
		d := den[i]
		if d == 0 {
			// Pole directly on the grid point; report an unbounded bin
			// rather than dividing by zero.
			out[i] = math.Inf(1)
			continue
		}

		out[i] = cmplx.Abs(num[i] / d)
	}

	return out, nil
}

func coeffSpectrum(plan *algofft.Plan[complex128], coeffs []float64, fftSize int) ([]complex128, error) {
	padded := make([]complex128, fftSize)
	for i, v := range coeffs {
		padded[i] = complex(v, 0)
	}

	spectrum := make([]complex128, fftSize)
	if err := plan.Forward(spectrum, padded); err != nil {
		return nil, fmt.Errorf("kernel: coefficient FFT failed: %w", err)
	}

	return spectrum, nil
}
