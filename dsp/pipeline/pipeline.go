package pipeline

import (
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/cwbudde/algo-stream/dsp/channels"
	"github.com/cwbudde/algo-stream/dsp/core"
	"github.com/cwbudde/algo-stream/dsp/stage"
)

// Errors returned by pipeline operations.
var (
	ErrChannelMismatch = errors.New("pipeline: input channel count does not match configuration")
	ErrRaggedInput     = errors.New("pipeline: interleaved input length not divisible by channel count")
)

// Logger receives progress messages from the pipeline. It is satisfied
// by *logrus.Logger; the default discards everything.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(args ...interface{}) {}
func (nopLogger) Info(args ...interface{})  {}

type stageEntry struct {
	typeTag string
	s       stage.Stage
}

// Pipeline runs an ordered list of stages over interleaved sample
// blocks. It deinterleaves input into planar scratch buffers, hands the
// block to each stage in turn, and reinterleaves the final output.
// Scratch memory is reused across calls, so a Pipeline is not safe for
// concurrent use.
type Pipeline struct {
	uid      string
	cfg      core.StreamConfig
	registry *stage.Registry
	log      Logger

	stages []stageEntry

	planar [][]float64
	out    []float64
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) Option {
	return func(p *Pipeline) {
		core.WithSampleRate(sampleRate)(&p.cfg)
	}
}

// WithChannels sets the stream channel count.
func WithChannels(channels int) Option {
	return func(p *Pipeline) {
		core.WithChannels(channels)(&p.cfg)
	}
}

// WithBlockSize sets the expected block size used to pre-size scratch
// buffers. Larger blocks still work; they just grow the scratch once.
func WithBlockSize(blockSize int) Option {
	return func(p *Pipeline) {
		core.WithBlockSize(blockSize)(&p.cfg)
	}
}

// WithRegistry replaces the stage registry used by AddStage.
func WithRegistry(r *stage.Registry) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithLogger installs a logger for stage lifecycle and state messages.
func WithLogger(log Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates an empty pipeline with the default stream configuration
// and the built-in stage registry.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		uid:      xid.New().String(),
		cfg:      core.DefaultStreamConfig(),
		registry: stage.DefaultRegistry(),
		log:      nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	p.planar = core.EnsurePlanar(nil, p.cfg.Channels, p.cfg.BlockSize)
	p.out = core.EnsureLen(nil, p.cfg.Channels*p.cfg.BlockSize)

	return p
}

// UID returns the unique identifier assigned to this pipeline instance.
func (p *Pipeline) UID() string {
	return p.uid
}

// Config returns the stream configuration the pipeline was built with.
func (p *Pipeline) Config() core.StreamConfig {
	return p.cfg
}

// Len returns the number of stages in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// StageTypes returns the ordered type tags of the current stages.
func (p *Pipeline) StageTypes() []string {
	tags := make([]string, len(p.stages))
	for i, e := range p.stages {
		tags[i] = e.typeTag
	}

	return tags
}

// AddStage builds a stage of the given registered type and appends it to
// the chain.
func (p *Pipeline) AddStage(stageType string, params stage.Params) error {
	ctx := stage.Context{SampleRate: p.cfg.SampleRate, Channels: p.cfg.Channels}

	s, err := p.registry.New(stageType, ctx, params)
	if err != nil {
		return fmt.Errorf("pipeline: add stage: %w", err)
	}

	p.stages = append(p.stages, stageEntry{typeTag: stageType, s: s})
	p.log.Debug("pipeline ", p.uid, ": added stage ", stageType)

	return nil
}

// Process runs one interleaved block through every stage and returns the
// processed block, reinterleaved. The returned slice is owned by the
// pipeline and valid until the next call. Resizing stages may make the
// output shorter than the input; the channel count never changes.
func (p *Pipeline) Process(interleaved []float64) ([]float64, error) {
	ch := p.cfg.Channels
	if len(interleaved)%ch != 0 {
		return nil, fmt.Errorf("%w: %d samples, %d channels", ErrRaggedInput, len(interleaved), ch)
	}

	frames := len(interleaved) / ch
	p.planar = core.EnsurePlanar(p.planar, ch, frames)
	channels.Deinterleave(p.planar, interleaved)

	block := p.planar
	for i, e := range p.stages {
		next, err := e.s.Process(block)
		if err != nil {
			return nil, fmt.Errorf("pipeline: stage %d (%s): %w", i, e.typeTag, err)
		}
		block = next
	}

	if len(block) != ch {
		return nil, fmt.Errorf("%w: stage output has %d channels, want %d",
			ErrChannelMismatch, len(block), ch)
	}

	outFrames := 0
	if ch > 0 {
		outFrames = len(block[0])
	}

	p.out = core.EnsureLen(p.out, ch*outFrames)
	channels.Interleave(p.out, block)

	return p.out, nil
}

// Reset clears the signal history of every stage. The stage list and
// configuration are untouched.
func (p *Pipeline) Reset() {
	for _, e := range p.stages {
		e.s.Reset()
	}
	p.log.Debug("pipeline ", p.uid, ": reset")
}
