package channels

import (
	"math/rand"
	"testing"
)

func makePlanar(numChannels, frames int) [][]float64 {
	p := make([][]float64, numChannels)
	for c := range p {
		p[c] = make([]float64, frames)
	}
	return p
}

func TestDeinterleaveMono(t *testing.T) {
	src := []float64{1, 2, 3, 4, 5}
	dst := makePlanar(1, 5)

	Deinterleave(dst, src)

	for i, v := range src {
		if dst[0][i] != v {
			t.Fatalf("dst[0][%d] = %v, want %v", i, v, src[i])
		}
	}
}

func TestDeinterleaveStereo(t *testing.T) {
	// 7 frames: exercises the unrolled body and the scalar tail.
	src := []float64{
		1, -1, 2, -2, 3, -3, 4, -4,
		5, -5, 6, -6, 7, -7,
	}
	dst := makePlanar(2, 7)

	Deinterleave(dst, src)

	for f := 0; f < 7; f++ {
		if dst[0][f] != float64(f+1) {
			t.Errorf("left[%d] = %v, want %v", f, dst[0][f], float64(f+1))
		}
		if dst[1][f] != -float64(f+1) {
			t.Errorf("right[%d] = %v, want %v", f, dst[1][f], -float64(f+1))
		}
	}
}

func TestDeinterleaveGeneric(t *testing.T) {
	const numChannels, frames = 3, 6
	src := make([]float64, numChannels*frames)
	for i := range src {
		src[i] = float64(i)
	}
	dst := makePlanar(numChannels, frames)

	Deinterleave(dst, src)

	for c := 0; c < numChannels; c++ {
		for f := 0; f < frames; f++ {
			want := float64(f*numChannels + c)
			if dst[c][f] != want {
				t.Fatalf("dst[%d][%d] = %v, want %v", c, f, dst[c][f], want)
			}
		}
	}
}

// TestInverseLaw checks interleave(deinterleave(x)) == x bit-for-bit
// across channel counts and frame counts covering tails of every length.
func TestInverseLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, numChannels := range []int{1, 2, 3, 4, 5, 8} {
		for _, frames := range []int{1, 3, 4, 7, 16, 33} {
			src := make([]float64, numChannels*frames)
			for i := range src {
				src[i] = rng.Float64()*2 - 1
			}

			planar := makePlanar(numChannels, frames)
			Deinterleave(planar, src)

			out := make([]float64, len(src))
			Interleave(out, planar)

			for i := range src {
				if out[i] != src[i] {
					t.Fatalf("channels=%d frames=%d: out[%d] = %v, want %v",
						numChannels, frames, i, out[i], src[i])
				}
			}
		}
	}
}

func TestShapeViolationsPanic(t *testing.T) {
	tests := []struct {
		name string
		call func()
	}{
		{"no channels", func() { Deinterleave(nil, []float64{1, 2}) }},
		{"indivisible length", func() { Deinterleave(makePlanar(2, 2), []float64{1, 2, 3}) }},
		{"short planar", func() {
			dst := [][]float64{make([]float64, 1), make([]float64, 2)}
			Deinterleave(dst, []float64{1, 2, 3, 4})
		}},
		{"interleave mismatch", func() { Interleave(make([]float64, 3), makePlanar(2, 2)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			tt.call()
		})
	}
}

func TestEmptyBuffers(t *testing.T) {
	// Zero frames are legal: nothing to move, no panic.
	dst := makePlanar(2, 0)
	Deinterleave(dst, nil)
	Interleave(nil, dst)
}
