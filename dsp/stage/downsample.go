package stage

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-stream/dsp/core"
	"github.com/cwbudde/algo-stream/internal/stateio"
)

// TypeDownsample is the type tag of the built-in decimator stage.
const TypeDownsample = "downsample"

// ErrBadFactor is returned when a decimation factor is not a positive
// integer.
var ErrBadFactor = errors.New("stage: decimation factor must be a positive integer")

// downsampleStage keeps every factor-th frame and drops the rest. It is
// the only resizing built-in: the output block is shorter than the input
// and owned by the stage. A phase counter carries the sample position
// across block boundaries so decimation stays aligned regardless of how
// the input is chunked.
type downsampleStage struct {
	channels int
	factor   int
	phase    int

	out [][]float64
}

func newDownsampleStage(ctx Context, params Params) (Stage, error) {
	factor := params.GetNum("factor", 0)
	if factor < 1 || factor != float64(int(factor)) {
		return nil, fmt.Errorf("%w: got %v", ErrBadFactor, factor)
	}

	return &downsampleStage{
		channels: ctx.Channels,
		factor:   int(factor),
	}, nil
}

func (s *downsampleStage) Type() string   { return TypeDownsample }
func (s *downsampleStage) Resizing() bool { return true }

func (s *downsampleStage) Process(planar [][]float64) ([][]float64, error) {
	if len(planar) != s.channels {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrChannelMismatch, len(planar), s.channels)
	}

	frames := 0
	if s.channels > 0 {
		frames = len(planar[0])
	}

	// Frames kept from this block: those where (phase+i) % factor == 0.
	first := 0
	if s.phase != 0 {
		first = s.factor - s.phase
	}

	kept := 0
	if first < frames {
		kept = (frames-first-1)/s.factor + 1
	}

	s.out = core.EnsurePlanar(s.out, s.channels, kept)
	for c, ch := range planar {
		dst := s.out[c]
		for i, j := first, 0; i < frames; i, j = i+s.factor, j+1 {
			dst[j] = ch[i]
		}
	}

	s.phase = (s.phase + frames) % s.factor

	return s.out, nil
}

func (s *downsampleStage) Reset() {
	s.phase = 0
}

func (s *downsampleStage) SaveState() ([]byte, error) {
	var w stateio.Writer
	w.PutUint32(uint32(s.factor))
	w.PutUint32(uint32(s.phase))

	return w.Bytes(), nil
}

func (s *downsampleStage) LoadState(data []byte) error {
	r := stateio.NewReader(data)

	factor, err := r.Uint32()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadPayload, err)
	}
	phase, err := r.Uint32()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadPayload, err)
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadPayload, r.Remaining())
	}
	if factor < 1 || phase >= factor {
		return fmt.Errorf("%w: factor %d, phase %d", ErrBadPayload, factor, phase)
	}

	s.factor = int(factor)
	s.phase = int(phase)

	return nil
}
