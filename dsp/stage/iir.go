package stage

import (
	"fmt"

	"github.com/cwbudde/algo-stream/dsp/kernel"
	"github.com/cwbudde/algo-stream/internal/stateio"
)

// TypeIIR is the type tag of the built-in IIR filter stage.
const TypeIIR = "iir"

// iirStage applies one recursive kernel per channel. Fixed size, in-place.
type iirStage struct {
	kernels []*kernel.IIR
}

func newIIRStage(ctx Context, params Params) (Stage, error) {
	b := params.GetCoef("b")
	a := params.GetCoef("a")
	if len(b) == 0 || len(a) == 0 {
		return nil, fmt.Errorf("%w: %s needs \"b\" and \"a\"", ErrMissingCoefficients, TypeIIR)
	}

	kernels := make([]*kernel.IIR, ctx.Channels)
	for c := range kernels {
		k, err := kernel.NewIIR(b, a)
		if err != nil {
			return nil, fmt.Errorf("stage: %s channel %d: %w", TypeIIR, c, err)
		}
		kernels[c] = k
	}

	return &iirStage{kernels: kernels}, nil
}

func (s *iirStage) Type() string   { return TypeIIR }
func (s *iirStage) Resizing() bool { return false }

func (s *iirStage) Process(planar [][]float64) ([][]float64, error) {
	if len(planar) != len(s.kernels) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(planar), len(s.kernels))
	}

	for c, ch := range planar {
		s.kernels[c].ProcessBlock(ch)
	}

	return planar, nil
}

func (s *iirStage) Reset() {
	for _, k := range s.kernels {
		k.Reset()
	}
}

func (s *iirStage) SaveState() ([]byte, error) {
	var w stateio.Writer
	w.PutUint16(uint16(len(s.kernels)))
	for _, k := range s.kernels {
		w.PutFloat64s(k.Feedforward())
		w.PutFloat64s(k.Feedback())
		w.PutFloat64s(k.SnapshotHistory(nil))
	}

	return w.Bytes(), nil
}

func (s *iirStage) LoadState(data []byte) error {
	r := stateio.NewReader(data)

	channels, err := r.Uint16()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadPayload, err)
	}
	if int(channels) != len(s.kernels) {
		return fmt.Errorf("%w: payload has %d channels, stage has %d",
			ErrBadPayload, channels, len(s.kernels))
	}

	kernels := make([]*kernel.IIR, channels)
	for c := range kernels {
		b, err := r.Float64s()
		if err != nil {
			return fmt.Errorf("%w: channel %d feedforward: %s", ErrBadPayload, c, err)
		}
		a, err := r.Float64s()
		if err != nil {
			return fmt.Errorf("%w: channel %d feedback: %s", ErrBadPayload, c, err)
		}
		hist, err := r.Float64s()
		if err != nil {
			return fmt.Errorf("%w: channel %d history: %s", ErrBadPayload, c, err)
		}

		k, err := kernel.NewIIR(b, a)
		if err != nil {
			return fmt.Errorf("%w: channel %d: %s", ErrBadPayload, c, err)
		}
		if err := k.RestoreHistory(hist); err != nil {
			return fmt.Errorf("%w: channel %d: %s", ErrBadPayload, c, err)
		}
		kernels[c] = k
	}

	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadPayload, r.Remaining())
	}

	s.kernels = kernels

	return nil
}
