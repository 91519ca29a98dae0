// Package channels converts between interleaved and planar sample
// layouts.
//
// Interleaved buffers store one frame at a time (L R L R ...); planar
// buffers store each channel contiguously. Filter stages work on planar
// data while stream transports usually carry interleaved data, so the
// pipeline brackets every stage run with these two transforms.
//
// Both directions are pure transforms over caller-supplied memory with a
// specialization ladder: mono is a bulk copy, stereo has a dedicated
// pair-split routine, and higher channel counts use a strided loop with a
// four-frame unroll and a scalar tail.
package channels
