// Package ringbuf implements the guard-mirrored circular sample store
// used by the streaming filter kernels.
//
// A plain circular buffer forces a choice between scatter reads for the
// convolution window or an O(N) shift per sample. The guard mirror avoids
// both: the low end of the buffer stays duplicated past the high end, so
// the most recent window is always one contiguous slice.
//
//	r, _ := ringbuf.New(8, 4)
//	r.Push(1)
//	r.Push(2)
//	w := r.Window(2) // [1 2], contiguous even across the wrap
//
// Capacity is restricted to powers of two so wraparound is a bitmask AND.
// The cost is guard extra storage slots and one conditional mirror write
// per push within the guard region.
package ringbuf
