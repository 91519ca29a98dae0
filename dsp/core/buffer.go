// Package core provides shared processing configuration and small
// buffer helpers used across the dsp packages.
package core

// EnsureLen returns a slice with the requested length, reusing buf
// capacity when possible. Contents are unspecified; callers overwrite.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// EnsurePlanar returns a planar buffer with numChannels slices of frames
// samples each, reusing the outer and inner capacity when possible.
func EnsurePlanar(buf [][]float64, numChannels, frames int) [][]float64 {
	if cap(buf) >= numChannels {
		buf = buf[:numChannels]
	} else {
		grown := make([][]float64, numChannels)
		copy(grown, buf)
		buf = grown
	}

	for c := range buf {
		buf[c] = EnsureLen(buf[c], frames)
	}

	return buf
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	copy(dst[:n], src[:n])
	return n
}
