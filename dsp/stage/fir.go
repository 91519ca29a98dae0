package stage

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-stream/dsp/kernel"
	"github.com/cwbudde/algo-stream/internal/stateio"
)

// TypeFIR is the type tag of the built-in FIR filter stage.
const TypeFIR = "fir"

// ErrMissingCoefficients is returned when a filter stage is configured
// without its coefficient vector.
var ErrMissingCoefficients = errors.New("stage: missing coefficient parameter")

// firStage applies one FIR kernel per channel. Fixed size, in-place.
type firStage struct {
	kernels []*kernel.FIR
}

func newFIRStage(ctx Context, params Params) (Stage, error) {
	b := params.GetCoef("b")
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %s needs \"b\"", ErrMissingCoefficients, TypeFIR)
	}

	kernels := make([]*kernel.FIR, ctx.Channels)
	for c := range kernels {
		k, err := kernel.NewFIR(b)
		if err != nil {
			return nil, fmt.Errorf("stage: %s channel %d: %w", TypeFIR, c, err)
		}
		kernels[c] = k
	}

	return &firStage{kernels: kernels}, nil
}

func (s *firStage) Type() string   { return TypeFIR }
func (s *firStage) Resizing() bool { return false }

func (s *firStage) Process(planar [][]float64) ([][]float64, error) {
	if len(planar) != len(s.kernels) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(planar), len(s.kernels))
	}

	for c, ch := range planar {
		s.kernels[c].ProcessBlock(ch)
	}

	return planar, nil
}

func (s *firStage) Reset() {
	for _, k := range s.kernels {
		k.Reset()
	}
}

func (s *firStage) SaveState() ([]byte, error) {
	var w stateio.Writer
	w.PutUint16(uint16(len(s.kernels)))
	for _, k := range s.kernels {
		w.PutFloat64s(k.Coefficients())
		w.PutFloat64s(k.SnapshotHistory(nil))
	}

	return w.Bytes(), nil
}

func (s *firStage) LoadState(data []byte) error {
	r := stateio.NewReader(data)

	channels, err := r.Uint16()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadPayload, err)
	}
	if int(channels) != len(s.kernels) {
		return fmt.Errorf("%w: payload has %d channels, stage has %d",
			ErrBadPayload, channels, len(s.kernels))
	}

	// Decode into fresh kernels first so a corrupt payload cannot leave
	// this stage half-applied.
	kernels := make([]*kernel.FIR, channels)
	for c := range kernels {
		coeffs, err := r.Float64s()
		if err != nil {
			return fmt.Errorf("%w: channel %d coefficients: %s", ErrBadPayload, c, err)
		}
		hist, err := r.Float64s()
		if err != nil {
			return fmt.Errorf("%w: channel %d history: %s", ErrBadPayload, c, err)
		}

		k, err := kernel.NewFIR(coeffs)
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
