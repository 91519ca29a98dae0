package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/cwbudde/algo-stream/dsp/stage"
	"github.com/cwbudde/algo-stream/internal/testutil"
)

func buildChain(t *testing.T) *Pipeline {
	t.Helper()

	p := New(WithSampleRate(48000), WithChannels(2), WithBlockSize(32))

	steps := []struct {
		typeTag string
		params  stage.Params
	}{
		{stage.TypeFIR, stage.Params{Coef: map[string][]float64{"b": {0.25, 0.5, 0.25}}}},
		{stage.TypeIIR, stage.Params{Coef: map[string][]float64{"b": {0.3, 0.3}, "a": {1, -0.4}}}},
		{stage.TypeBiquad, stage.Params{Num: map[string]float64{
			"b0": 0.9, "b1": 0.1, "a1": -0.2, "a2": 0.05,
		}}},
		{stage.TypeGain, stage.Params{Num: map[string]float64{"db": -3}}},
	}
	for _, s := range steps {
		if err := p.AddStage(s.typeTag, s.params); err != nil {
			t.Fatalf("AddStage %s: %v", s.typeTag, err)
		}
	}

	return p
}

func warmUp(t *testing.T, p *Pipeline, seed int64) {
	t.Helper()

	in := testutil.DeterministicNoise(seed, 0.8, 2*37)
	if _, err := p.Process(in); err != nil {
		t.Fatalf("warmup: %v", err)
	}
}

func TestStateRoundTrip(t *testing.T) {
	src := buildChain(t)
	warmUp(t, src, 1)

	blob, err := src.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	dst := buildChain(t)
	if err := dst.LoadState(blob); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	// Both pipelines now continue from the same history, so the next
	// block must come out bit-for-bit identical.
	next := testutil.DeterministicSine(1200, 48000, 0.5, 2*29)

	want, err := src.Process(next)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want = append([]float64(nil), want...)

	got, err := dst.Process(next)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	testutil.RequireSliceEqual(t, got, want)
}

func TestLoadStateStageCountMismatch(t *testing.T) {
	src := buildChain(t)
	blob, err := src.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	short := New(WithChannels(2))
	if err := short.AddStage(stage.TypeGain, stage.Params{}); err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	warmUp(t, short, 2)

	before, err := short.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	if err := short.LoadState(blob); !errors.Is(err, ErrStageCountMismatch) {
		t.Fatalf("expected ErrStageCountMismatch, got %v", err)
	}

	after, err := short.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("rejected blob modified pipeline state")
	}
}

func TestLoadStateStageTypeMismatch(t *testing.T) {
	src := New(WithChannels(2))
	if err := src.AddStage(stage.TypeGain, stage.Params{}); err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	blob, err := src.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	other := New(WithChannels(2))
	err = other.AddStage(stage.TypeBiquad, stage.Params{Num: map[string]float64{"b0": 1}})
	if err != nil {
		t.Fatalf("AddStage: %v", err)
	}

	before, err := other.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	if err := other.LoadState(blob); !errors.Is(err, ErrStageTypeMismatch) {
		t.Fatalf("expected ErrStageTypeMismatch, got %v", err)
	}

	after, err := other.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("rejected blob modified pipeline state")
	}
}

func TestLoadStateRejectsEveryByteFlip(t *testing.T) {
	p := buildChain(t)
	warmUp(t, p, 3)

	blob, err := p.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	before := append([]byte(nil), blob...)

	for i := range blob {
		corrupted := append([]byte(nil), blob...)
		corrupted[i] ^= 0x01

		if err := p.LoadState(corrupted); err == nil {
			t.Fatalf("flip at byte %d accepted", i)
		}

		after, err := p.SaveState()
		if err != nil {
			t.Fatalf("SaveState after flip %d: %v", i, err)
		}
		if !bytes.Equal(before, after) {
			t.Fatalf("flip at byte %d modified pipeline state", i)
		}
	}
}

func TestLoadStateTruncated(t *testing.T) {
	p := buildChain(t)
	blob, err := p.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	for _, n := range []int{0, 3, len(blob) / 2, len(blob) - 1} {
		if err := p.LoadState(blob[:n]); !errors.Is(err, ErrCorruptState) {
			t.Fatalf("truncation to %d bytes: expected ErrCorruptState, got %v", n, err)
		}
	}
}

func TestLoadStateUnsupportedVersion(t *testing.T) {
	p := buildChain(t)
	blob, err := p.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	bad := append([]byte(nil), blob...)
	bad[4] = 0xFF // version high byte, directly after the magic

	if err := p.LoadState(bad); !errors.Is(err, ErrStateVersion) {
		t.Fatalf("expected ErrStateVersion, got %v", err)
	}
}

// flakyStage fails a configured number of LoadState calls. Its payload
// is a single counter byte so pipeline-level checksums stay valid.
type flakyStage struct {
	value     byte
	failLoads int
}

func (s *flakyStage) Type() string                               { return "flaky" }
func (s *flakyStage) Resizing() bool                             { return false }
func (s *flakyStage) Process(p [][]float64) ([][]float64, error) { return p, nil }
func (s *flakyStage) Reset()                                     {}
func (s *flakyStage) SaveState() ([]byte, error)                 { return []byte{s.value}, nil }

func (s *flakyStage) LoadState(data []byte) error {
	if s.failLoads > 0 {
		s.failLoads--
		return fmt.Errorf("%w: injected failure", stage.ErrBadPayload)
	}
	if len(data) != 1 {
		return fmt.Errorf("%w: want 1 byte, got %d", stage.ErrBadPayload, len(data))
	}

	s.value = data[0]

	return nil
}

func flakyRegistry(flaky *flakyStage) *stage.Registry {
	r := stage.DefaultRegistry()
	r.MustRegister("flaky", func(ctx stage.Context, params stage.Params) (stage.Stage, error) {
		return flaky, nil
	})

	return r
}

func TestLoadStateRollsBackAppliedStages(t *testing.T) {
	flaky := &flakyStage{value: 7}
	p := New(WithChannels(1), WithRegistry(flakyRegistry(flaky)))
	if err := p.AddStage(stage.TypeGain, stage.Params{Num: map[string]float64{"db": -6}}); err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	if err := p.AddStage("flaky", stage.Params{}); err != nil {
		t.Fatalf("AddStage: %v", err)
	}

	before, err := p.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	// The gain stage applies the new state, then the flaky stage
	// rejects its payload once. Rollback restores both.
	flaky.failLoads = 1

	err = p.LoadState(before)
	if err == nil {
		t.Fatal("expected load to fail")
	}
	if errors.Is(err, ErrPartialRollback) {
		t.Fatalf("rollback should have succeeded, got %v", err)
	}

	after, err := p.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("rollback did not restore pipeline state")
	}
}

func TestLoadStatePartialRollback(t *testing.T) {
	flaky := &flakyStage{value: 7}
	p := New(WithChannels(1), WithRegistry(flakyRegistry(flaky)))
	if err := p.AddStage(stage.TypeGain, stage.Params{}); err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	if err := p.AddStage("flaky", stage.Params{}); err != nil {
		t.Fatalf("AddStage: %v", err)
	}

	blob, err := p.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	// Both the apply and the subsequent rollback of the flaky stage
	// fail, leaving the pipeline mixed.
	flaky.failLoads = 2

	if err := p.LoadState(blob); !errors.Is(err, ErrPartialRollback) {
		t.Fatalf("expected ErrPartialRollback, got %v", err)
	}
}
