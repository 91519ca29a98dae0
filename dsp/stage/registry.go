package stage

import (
	"errors"
	"fmt"
)

// Factory builds one Stage instance for the given context and parameters.
type Factory func(ctx Context, params Params) (Stage, error)

// Registry maps stage type tags to their factories.
type Registry struct {
	factories map[string]Factory
}

// Errors returned by registry operations.
var (
	ErrUnknownStage   = errors.New("stage: unknown stage type")
	errDuplicateStage = errors.New("stage: duplicate stage type")
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given stage type.
func (r *Registry) Register(stageType string, factory Factory) error {
	if stageType == "" {
		return errors.New("stage: empty stage type")
	}

	if factory == nil {
		return errors.New("stage: nil factory")
	}

	if _, exists := r.factories[stageType]; exists {
		return fmt.Errorf("%w: %s", errDuplicateStage, stageType)
	}

	r.factories[stageType] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(stageType string, factory Factory) {
	err := r.Register(stageType, factory)
	if err != nil {
		panic("stage registry: " + err.Error())
	}
}

// Lookup returns the factory for the given stage type, or nil.
func (r *Registry) Lookup(stageType string) Factory {
	return r.factories[stageType]
}

// New builds a stage of the given type, or fails with ErrUnknownStage.
func (r *Registry) New(stageType string, ctx Context, params Params) (Stage, error) {
	factory := r.Lookup(stageType)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stageType)
	}

	return factory(ctx, params)
}
