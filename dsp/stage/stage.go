package stage

import (
	"errors"
	"math"
)

// Errors shared by stage implementations.
var (
	ErrChannelMismatch = errors.New("stage: planar channel count does not match stage arity")
	ErrBadPayload      = errors.New("stage: malformed state payload")
)

// Context provides environmental information stage factories need.
type Context struct {
	SampleRate float64
	Channels   int
}

// Stage is the uniform processing unit the pipeline composes. A stage's
// type tag and channel arity are fixed at construction; only parameters
// may change, via explicit reconfiguration through the factory.
//
// Process transforms one planar block. Fixed-size stages work in place
// and return the input slices; resizing stages return internally owned
// buffers that stay valid until the next Process call.
type Stage interface {
	// Type returns the stable type tag the stage was registered under.
	Type() string

	// Resizing reports whether Process may return a different frame
	// count than it was given.
	Resizing() bool

	Process(planar [][]float64) ([][]float64, error)

	// Reset clears all processing state without touching parameters.
	Reset()

	// SaveState serializes parameters and internal state into an opaque
	// payload that LoadState restores exactly.
	SaveState() ([]byte, error)

	// LoadState restores a payload produced by SaveState on a stage of
	// the same type and arity. On error the stage is unchanged.
	LoadState(data []byte) error
}

// Params holds the parsed parameters for one stage.
type Params struct {
	Num  map[string]float64
	Str  map[string]string
	Coef map[string][]float64
}

// GetNum safely extracts a numeric parameter, returning def if missing
// or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// GetStr safely extracts a string parameter, returning def if missing.
func (p Params) GetStr(key, def string) string {
	if p.Str == nil {
		return def
	}

	v, ok := p.Str[key]
	if !ok {
		return def
	}

	return v
}

// GetCoef extracts a coefficient vector parameter, or nil if missing.
func (p Params) GetCoef(key string) []float64 {
	if p.Coef == nil {
		return nil
	}

	return p.Coef[key]
}
