package stage

// DefaultRegistry returns a registry with all built-in stages installed.
// Callers extend the returned registry with their own factories; the
// built-ins cannot be unregistered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(TypeFIR, newFIRStage)
	r.MustRegister(TypeIIR, newIIRStage)
	r.MustRegister(TypeBiquad, newBiquadStage)
	r.MustRegister(TypeGain, newGainStage)
	r.MustRegister(TypeDownsample, newDownsampleStage)

	return r
}
