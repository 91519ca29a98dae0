// Command streamfilter runs a WAV file through a stage pipeline.
//
// Usage:
//
//	streamfilter [flags] input.wav output.wav
//
// Stages are assembled from flags in a fixed order: moving average,
// biquad, gain, decimation. Processing state can be persisted with
// -save and resumed with -load, which is how long recordings are
// processed in separate runs without clicks at the seams.
//
// Examples:
//
//	streamfilter -gain -6 input.wav output.wav
//	streamfilter -ma 8 -gain 3 input.wav output.wav
//	streamfilter -downsample 2 input.wav output.wav
//	streamfilter -ma 4 -save state.bin part1.wav out1.wav
//	streamfilter -ma 4 -load state.bin part2.wav out2.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-stream/dsp/core"
	"github.com/cwbudde/algo-stream/dsp/pipeline"
	"github.com/cwbudde/algo-stream/dsp/stage"
)

const defaultBlockSize = 4096

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "streamfilter:", err)
		os.Exit(1)
	}
}

func run() error {
	gainDB := flag.Float64("gain", 0, "gain in dB applied after filtering")
	maLen := flag.Int("ma", 0, "moving average length in samples (0 disables)")
	downsample := flag.Int("downsample", 0, "keep every Nth frame (0 disables)")
	blockSize := flag.Int("block", defaultBlockSize, "processing block size in frames")
	savePath := flag.String("save", "", "write pipeline state to this file after processing")
	loadPath := flag.String("load", "", "restore pipeline state from this file before processing")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: streamfilter [flags] input.wav output.wav\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		return errors.New("expected input and output paths")
	}

	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	decoder := wav.NewDecoder(in)
	if !decoder.IsValidFile() {
		return fmt.Errorf("%s is not a valid WAV file", args[0])
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	log.WithFields(logrus.Fields{
		"rate":     format.SampleRate,
		"channels": format.NumChannels,
		"depth":    bitDepth,
	}).Info("input format")

	p, err := buildPipeline(log, format.SampleRate, format.NumChannels, *blockSize,
		*maLen, *gainDB, *downsample)
	if err != nil {
		return err
	}

	if *loadPath != "" {
		blob, err := os.ReadFile(*loadPath)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		if err := p.LoadState(blob); err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		log.WithField("path", *loadPath).Info("restored pipeline state")
	}

	outRate := format.SampleRate
	if *downsample > 1 {
		outRate /= *downsample
	}

	out, err := os.Create(args[1])
	if err != nil {
		return err
	}
	defer out.Close()

	encoder := wav.NewEncoder(out, outRate, bitDepth, format.NumChannels, int(decoder.WavAudioFormat))

	if err := process(p, decoder, encoder, format, bitDepth, *blockSize); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	if *savePath != "" {
		blob, err := p.SaveState()
		if err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		if err := os.WriteFile(*savePath, blob, 0o644); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		log.WithField("path", *savePath).Info("saved pipeline state")
	}

	return nil
}

func buildPipeline(log *logrus.Logger, sampleRate, channels, blockSize,
	maLen int, gainDB float64, downsample int,
) (*pipeline.Pipeline, error) {
	p := pipeline.New(
		pipeline.WithSampleRate(float64(sampleRate)),
		pipeline.WithChannels(channels),
		pipeline.WithBlockSize(blockSize),
		pipeline.WithLogger(log),
	)

	if maLen > 0 {
		taps := make([]float64, maLen)
		for i := range taps {
			taps[i] = 1 / float64(maLen)
		}
		err := p.AddStage(stage.TypeFIR, stage.Params{Coef: map[string][]float64{"b": taps}})
		if err != nil {
			return nil, err
		}
	}

	if gainDB != 0 {
		err := p.AddStage(stage.TypeGain, stage.Params{Num: map[string]float64{"db": gainDB}})
		if err != nil {
			return nil, err
		}
	}

	if downsample > 1 {
		err := p.AddStage(stage.TypeDownsample, stage.Params{
			Num: map[string]float64{"factor": float64(downsample)},
		})
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// process streams PCM blocks through the pipeline. Samples are
// normalized to [-1, 1) on the way in and clamped back to the source
// bit depth on the way out.
func process(p *pipeline.Pipeline, decoder *wav.Decoder, encoder *wav.Encoder,
	format *audio.Format, bitDepth, blockSize int,
) error {
	scale := math.Exp2(float64(bitDepth - 1))

	intBuf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, blockSize*format.NumChannels),
		SourceBitDepth: bitDepth,
	}
	floatBuf := make([]float64, len(intBuf.Data))

	outBuf := &audio.IntBuffer{
		Format:         format,
		SourceBitDepth: bitDepth,
	}

	for {
		n, err := decoder.PCMBuffer(intBuf)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		if n == 0 {
			return nil
		}

		floatBuf = core.EnsureLen(floatBuf, n)
		for i := 0; i < n; i++ {
			floatBuf[i] = float64(intBuf.Data[i]) / scale
		}

		processed, err := p.Process(floatBuf)
		if err != nil {
			return err
		}

		if cap(outBuf.Data) < len(processed) {
			outBuf.Data = make([]int, len(processed))
		}
		outBuf.Data = outBuf.Data[:len(processed)]
		for i, v := range processed {
			outBuf.Data[i] = int(core.Clamp(v*scale, -scale, scale-1))
		}

		if err := encoder.Write(outBuf); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	}
}
