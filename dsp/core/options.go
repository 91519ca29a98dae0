package core

// StreamConfig defines common settings for a processing pipeline.
type StreamConfig struct {
	SampleRate float64
	Channels   int
	BlockSize  int
}

// StreamOption mutates a StreamConfig.
type StreamOption func(*StreamConfig)

// DefaultStreamConfig returns sensible defaults for streaming use.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		SampleRate: 48000,
		Channels:   1,
		BlockSize:  1024,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) StreamOption {
	return func(cfg *StreamConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithChannels sets the stream channel count.
func WithChannels(channels int) StreamOption {
	return func(cfg *StreamConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// WithBlockSize sets the expected processing block size. It is a sizing
// hint for scratch buffers, not a hard limit.
func WithBlockSize(blockSize int) StreamOption {
	return func(cfg *StreamConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// ApplyStreamOptions applies zero or more options to the default config.
func ApplyStreamOptions(opts ...StreamOption) StreamConfig {
	cfg := DefaultStreamConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
