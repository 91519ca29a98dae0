package stage

import (
	"fmt"

	"github.com/cwbudde/algo-stream/dsp/kernel"
	"github.com/cwbudde/algo-stream/internal/stateio"
)

// TypeBiquad is the type tag of the built-in second-order section stage.
const TypeBiquad = "biquad"

// biquadStage applies one second-order section per channel.
type biquadStage struct {
	sections []*kernel.Biquad
}

func newBiquadStage(ctx Context, params Params) (Stage, error) {
	c := kernel.BiquadCoefficients{
		B0: params.GetNum("b0", 1),
		B1: params.GetNum("b1", 0),
		B2: params.GetNum("b2", 0),
		A1: params.GetNum("a1", 0),
		A2: params.GetNum("a2", 0),
	}

	sections := make([]*kernel.Biquad, ctx.Channels)
	for i := range sections {
		sections[i] = kernel.NewBiquad(c)
	}

	return &biquadStage{sections: sections}, nil
}

func (s *biquadStage) Type() string   { return TypeBiquad }
func (s *biquadStage) Resizing() bool { return false }

func (s *biquadStage) Process(planar [][]float64) ([][]float64, error) {
	if len(planar) != len(s.sections) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(planar), len(s.sections))
	}

	for c, ch := range planar {
		s.sections[c].ProcessBlock(ch)
	}

	return planar, nil
}

func (s *biquadStage) Reset() {
	for _, sec := range s.sections {
		sec.Reset()
	}
}

func (s *biquadStage) SaveState() ([]byte, error) {
	var w stateio.Writer
	w.PutUint16(uint16(len(s.sections)))

	first := s.sections[0].BiquadCoefficients
	w.PutFloat64(first.B0)
	w.PutFloat64(first.B1)
	w.PutFloat64(first.B2)
	w.PutFloat64(first.A1)
	w.PutFloat64(first.A2)

	for _, sec := range s.sections {
		st := sec.State()
		w.PutFloat64(st[0])
		w.PutFloat64(st[1])
	}

	return w.Bytes(), nil
}

func (s *biquadStage) LoadState(data []byte) error {
	r := stateio.NewReader(data)

	channels, err := r.Uint16()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadPayload, err)
	}
	if int(channels) != len(s.sections) {
		return fmt.Errorf("%w: payload has %d channels, stage has %d",
			ErrBadPayload, channels, len(s.sections))
	}

	var c kernel.BiquadCoefficients
	for _, dst := range []*float64{&c.B0, &c.B1, &c.B2, &c.A1, &c.A2} {
		v, err := r.Float64()
		if err != nil {
			return fmt.Errorf("%w: coefficients: %s", ErrBadPayload, err)
		}
		*dst = v
	}

	states := make([][2]float64, channels)
	for i := range states {
		d0, err := r.Float64()
		if err != nil {
			return fmt.Errorf("%w: channel %d state: %s", ErrBadPayload, i, err)
		}
		d1, err := r.Float64()
		if err != nil {
			return fmt.Errorf("%w: channel %d state: %s", ErrBadPayload, i, err)
		}
		states[i] = [2]float64{d0, d1}
	}

	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadPayload, r.Remaining())
	}

	for i, sec := range s.sections {
		sec.BiquadCoefficients = c
		sec.SetState(states[i])
	}

	return nil
}
