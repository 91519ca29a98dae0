package ringbuf

import (
	"errors"
	"fmt"
)

// Errors returned by ring construction and state restore.
var (
	ErrCapacityNotPowerOfTwo = errors.New("ringbuf: capacity must be a power of two")
	ErrInvalidGuard          = errors.New("ringbuf: guard must be in [1, capacity]")
	ErrWindowTooLong         = errors.New("ringbuf: window exceeds guard length")
	ErrSnapshotLength        = errors.New("ringbuf: snapshot length does not match capacity")
)

// Ring is a fixed-capacity circular sample store with a mirrored guard
// region. The first guard samples of the main region are kept duplicated
// past its end, so any window of up to guard consecutive logical samples
// can be read as one physically contiguous slice regardless of where the
// write cursor sits. That contiguity is what lets the filter kernels feed
// a plain dot product instead of gathering across the wrap boundary.
//
// The mirror is maintained entirely inside Push and never observable
// through the API: Window and Snapshot expose logical sample order only.
type Ring struct {
	data     []float64 // capacity+guard backing store
	head     int       // next write position in [0, capacity)
	mask     int       // capacity-1
	capacity int
	guard    int
}

// New creates a ring with the given main-region capacity (a power of two)
// and guard length. guard bounds the longest contiguous window the ring
// can serve; it must not exceed capacity.
func New(capacity, guard int) (*Ring, error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrCapacityNotPowerOfTwo, capacity)
	}
	if guard < 1 || guard > capacity {
		return nil, fmt.Errorf("%w: guard %d, capacity %d", ErrInvalidGuard, guard, capacity)
	}

	return &Ring{
		data:     make([]float64, capacity+guard),
		mask:     capacity - 1,
		capacity: capacity,
		guard:    guard,
	}, nil
}

// ForWindow creates a ring able to serve contiguous windows of length n,
// with capacity rounded up to the next power of two.
func ForWindow(n int) (*Ring, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: window %d", ErrInvalidGuard, n)
	}

	return New(NextPowerOfTwo(n), n)
}

// NextPowerOfTwo returns the smallest power of two >= n. n must be > 0.
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}

// Push appends one sample. Writes within the guard region are mirrored
// past the main region to preserve window contiguity. O(1), no allocation.
func (r *Ring) Push(sample float64) {
	r.data[r.head] = sample
	if r.head < r.guard {
		r.data[r.head+r.capacity] = sample
	}
	r.head = (r.head + 1) & r.mask
}

// Window returns a read-only view of the n most recent samples in
// chronological order (oldest first, newest last). The returned slice is
// always physically contiguous and aliases the ring's backing store; it is
// valid until the next Push. n must be in [1, Guard()].
func (r *Ring) Window(n int) []float64 {
	if n < 1 || n > r.guard {
		panic(ErrWindowTooLong)
	}

	// Newest sample sits one behind the write cursor. A window that
	// crosses the wrap boundary lands in the mirror, which holds live
	// copies of positions [0, guard).
	start := r.head - n
	if start < 0 {
		start += r.capacity
	}

	return r.data[start : start+n]
}

// Reset zeroes the backing store (mirror included) and rewinds the cursor.
func (r *Ring) Reset() {
	for i := range r.data {
		r.data[i] = 0
	}
	r.head = 0
}

// Capacity returns the main-region size.
func (r *Ring) Capacity() int {
	return r.capacity
}

// Guard returns the guard length, the longest window the ring can serve.
func (r *Ring) Guard() int {
	return r.guard
}

// Snapshot appends the ring's logical contents, oldest to newest, to dst
// and returns the extended slice. The result has Capacity() appended
// elements and carries no trace of the cursor or the mirror, so it is the
// canonical serialized form of the ring.
func (r *Ring) Snapshot(dst []float64) []float64 {
	for i := 0; i < r.capacity; i++ {
		dst = append(dst, r.data[(r.head+i)&r.mask])
	}

	return dst
}

// Restore rebuilds the ring from a logical snapshot produced by Snapshot.
// The samples are replayed through Push, which reconstructs the mirror.
func (r *Ring) Restore(samples []float64) error {
	if len(samples) != r.capacity {
		return fmt.Errorf("%w: got %d, capacity %d", ErrSnapshotLength, len(samples), r.capacity)
	}

	r.Reset()
	for _, s := range samples {
		r.Push(s)
	}

	return nil
}
