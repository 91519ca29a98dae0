package stage

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-stream/dsp/core"
	"github.com/cwbudde/algo-stream/internal/stateio"
)

// TypeGain is the type tag of the built-in gain stage.
const TypeGain = "gain"

// gainStage scales every channel by a fixed linear factor. The factor is
// configured in dB and converted once at construction.
type gainStage struct {
	channels int
	factor   float64
}

func newGainStage(ctx Context, params Params) (Stage, error) {
	return &gainStage{
		channels: ctx.Channels,
		factor:   core.DBToLinear(params.GetNum("db", 0)),
	}, nil
}

func (s *gainStage) Type() string   { return TypeGain }
func (s *gainStage) Resizing() bool { return false }

func (s *gainStage) Process(planar [][]float64) ([][]float64, error) {
	if len(planar) != s.channels {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(planar), s.channels)
	}

	for _, ch := range planar {
		vecmath.ScaleBlock(ch, ch, s.factor)
	}

	return planar, nil
}

// Reset is a no-op, the stage holds no signal history.
func (s *gainStage) Reset() {}

func (s *gainStage) SaveState() ([]byte, error) {
	var w stateio.Writer
	w.PutFloat64(s.factor)

	return w.Bytes(), nil
}

func (s *gainStage) LoadState(data []byte) error {
	r := stateio.NewReader(data)

	factor, err := r.Float64()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadPayload, err)
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadPayload, r.Remaining())
	}

	s.factor = factor

	return nil
}
