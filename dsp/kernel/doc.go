// Package kernel implements the stateful streaming filter kernels: FIR,
// Direct Form II IIR, and biquad second-order sections.
//
// The FIR and IIR kernels keep their sample history in guard-mirrored
// ring buffers (package ringbuf), so each output sample is a contiguous
// dot product computed by a CPU-dispatched multiply-accumulate backend.
// State updates are O(1) per sample and processing is O(M) per sample
// for M coefficients, with no per-sample allocation.
//
// Kernels expose their history as logical snapshots for the pipeline's
// transactional state persistence; the ring internals never leak into
// the serialized form.
package kernel
