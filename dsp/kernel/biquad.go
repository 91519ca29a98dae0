package kernel

// BiquadCoefficients holds the transfer function coefficients for a
// single second-order section. a0 is normalized to 1 and not stored.
//
// The sign convention follows Direct Form II Transposed:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type BiquadCoefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Biquad is a single second-order section with coefficients and internal
// state, processed in Direct Form II Transposed. Its two-sample state
// makes it the cheapest stateful kernel in the package; higher-order
// recursive filters use IIR instead.
type Biquad struct {
	BiquadCoefficients

	d0, d1 float64
}

// NewBiquad returns a section initialized with the given coefficients
// and zero state.
func NewBiquad(c BiquadCoefficients) *Biquad {
	return &Biquad{BiquadCoefficients: c}
}

// ProcessSample filters one input sample and returns the output.
func (s *Biquad) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y

	return y
}

// ProcessBlock filters a block of samples in-place using a 2x-unrolled
// loop that keeps the recurrence in registers.
func (s *Biquad) ProcessBlock(buf []float64) {
	b0, b1, b2 := s.B0, s.B1, s.B2
	a1, a2 := s.A1, s.A2
	d0, d1 := s.d0, s.d1

	i := 0

	n := len(buf)
	for ; i+1 < n; i += 2 {
		x0 := buf[i]
		y0 := b0*x0 + d0
		d0n := b1*x0 - a1*y0 + d1
		d1n := b2*x0 - a2*y0

		x1 := buf[i+1]
		y1 := b0*x1 + d0n
		d0 = b1*x1 - a1*y1 + d1n
		d1 = b2*x1 - a2*y1

		buf[i] = y0
		buf[i+1] = y1
	}

	if i < n {
		x := buf[i]
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	s.d0, s.d1 = d0, d1
}

// Reset clears the delay state to zero.
func (s *Biquad) Reset() {
	s.d0 = 0
	s.d1 = 0
}

// State returns the current delay-line state [d0, d1].
func (s *Biquad) State() [2]float64 {
	return [2]float64{s.d0, s.d1}
}

// SetState restores a previously saved delay-line state.
func (s *Biquad) SetState(state [2]float64) {
	s.d0 = state[0]
	s.d1 = state[1]
}

// Stable reports whether both poles of the section lie strictly inside
// the unit circle, using the second-order triangle condition
// |A2| < 1 and |A1| < 1 + A2.
func (s *Biquad) Stable() bool {
	if s.A2 <= -1 || s.A2 >= 1 {
		return false
	}

	a1 := s.A1
	if a1 < 0 {
		a1 = -a1
	}

	return a1 < 1+s.A2
}
