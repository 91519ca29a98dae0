// Package stage defines the processing stage contract used by pipelines
// and a registry of stage factories keyed by stable type tags.
//
// A stage transforms planar blocks of samples. Fixed-size stages process
// in place and return their input; resizing stages (such as the
// decimator) return a buffer they own, valid until the next call.
// Every stage can snapshot and restore its internal state as an opaque
// payload, which is how pipelines persist and resume processing.
//
// The built-in stages (fir, iir, biquad, gain, downsample) are available
// through DefaultRegistry. Custom stages register a Factory under a new
// type tag.
package stage
