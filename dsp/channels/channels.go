package channels

// Deinterleave scatters the interleaved samples in src into the planar
// per-channel slices in dst. src holds frames of len(dst) samples each;
// every dst[c] must hold len(src)/len(dst) samples. Both layouts are
// caller-allocated so the hot path never touches the heap.
//
// Shape mismatches are a caller contract violation and panic; the pipeline
// validates buffer arithmetic before invoking the codec.
func Deinterleave(dst [][]float64, src []float64) {
	numChannels := len(dst)
	checkShape(dst, src)

	switch numChannels {
	case 1:
		// Single channel carries no permutation, just a bulk copy.
		copy(dst[0], src)
	case 2:
		deinterleaveStereo(dst[0], dst[1], src)
	default:
		deinterleaveGeneric(dst, src)
	}
}

// Interleave gathers the planar per-channel slices in src into the
// interleaved buffer dst. It is the exact inverse of Deinterleave, with
// the same shape contract and specialization ladder.
func Interleave(dst []float64, src [][]float64) {
	numChannels := len(src)
	checkShape(src, dst)

	switch numChannels {
	case 1:
		copy(dst, src[0])
	case 2:
		interleaveStereo(dst, src[0], src[1])
	default:
		interleaveGeneric(dst, src)
	}
}

func checkShape(planar [][]float64, inter []float64) {
	numChannels := len(planar)
	if numChannels == 0 {
		panic("channels: no channels")
	}
	if len(inter)%numChannels != 0 {
		panic("channels: interleaved length not divisible by channel count")
	}

	frames := len(inter) / numChannels
	for _, ch := range planar {
		if len(ch) != frames {
			panic("channels: planar length mismatch")
		}
	}
}

// deinterleaveStereo splits L/R pairs four frames at a time.
func deinterleaveStereo(left, right, src []float64) {
	frames := len(left)

	i, f := 0, 0
	for ; f+3 < frames; f, i = f+4, i+8 {
		left[f] = src[i]
		right[f] = src[i+1]
		left[f+1] = src[i+2]
		right[f+1] = src[i+3]
		left[f+2] = src[i+4]
		right[f+2] = src[i+5]
		left[f+3] = src[i+6]
		right[f+3] = src[i+7]
	}
	for ; f < frames; f, i = f+1, i+2 {
		left[f] = src[i]
		right[f] = src[i+1]
	}
}

func interleaveStereo(dst, left, right []float64) {
	frames := len(left)

	i, f := 0, 0
	for ; f+3 < frames; f, i = f+4, i+8 {
		dst[i] = left[f]
		dst[i+1] = right[f]
		dst[i+2] = left[f+1]
		dst[i+3] = right[f+1]
		dst[i+4] = left[f+2]
		dst[i+5] = right[f+2]
		dst[i+6] = left[f+3]
		dst[i+7] = right[f+3]
	}
	for ; f < frames; f, i = f+1, i+2 {
		dst[i] = left[f]
		dst[i+1] = right[f]
	}
}

// deinterleaveGeneric handles arbitrary channel counts with a strided
// loop, unrolled four frames deep per channel to cut loop overhead.
func deinterleaveGeneric(dst [][]float64, src []float64) {
	numChannels := len(dst)
	frames := len(src) / numChannels

	for c, ch := range dst {
		i := c
		f := 0
		stride4 := 4 * numChannels
		for ; f+3 < frames; f, i = f+4, i+stride4 {
			ch[f] = src[i]
			ch[f+1] = src[i+numChannels]
			ch[f+2] = src[i+2*numChannels]
			ch[f+3] = src[i+3*numChannels]
		}
		for ; f < frames; f, i = f+1, i+numChannels {
			ch[f] = src[i]
		}
	}
}

func interleaveGeneric(dst []float64, src [][]float64) {
	numChannels := len(src)
	frames := len(dst) / numChannels

	for c, ch := range src {
		i := c
		f := 0
		stride4 := 4 * numChannels
		for ; f+3 < frames; f, i = f+4, i+stride4 {
			dst[i] = ch[f]
			dst[i+numChannels] = ch[f+1]
			dst[i+2*numChannels] = ch[f+2]
			dst[i+3*numChannels] = ch[f+3]
		}
		for ; f < frames; f, i = f+1, i+numChannels {
			dst[i] = ch[f]
		}
	}
}
