/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package attribute

import (
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/registry"
)

// Registry maps attribute type names to converter factories.
type Registry struct {
	types *registry.TypeRegistry[Factory]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: registry.NewTypeRegistry[Factory]("attribute")}
}

// DefaultRegistry holds the built-in types and anything registered at init time.
var DefaultRegistry = NewRegistry()

func init() {
	if err := RegisterBuiltins(DefaultRegistry); err != nil {
		panic(err)
	}
}

// RegisterBuiltins installs the built-in converter types into r.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		name    string
		factory Factory
	}{
		{"string", newStringConverter},
		{"int", newIntegerConverter},
		{"integer", newIntegerConverter},
		{"float", newFloatConverter},
		{"number", newFloatConverter},
		{"boolean", newBooleanConverter},
		{"date", newDateConverter},
		{"object", newObjectConverter},
		{"mixed", newMixedConverter},
		{"model", newModelConverter},
		{"collection", newCollectionConverter},
	}
	for _, b := range builtins {
		if err := r.Register(b.name, b.factory); err != nil {
			return err
		}
	}
	return nil
}

// Register adds a converter type. Names are case-insensitive and may only be
// registered once.
func (r *Registry) Register(name string, factory Factory) error {
	if factory == nil {
		return errors.NewConfigError("attribute registry", "factory for "+name+" is nil")
	}
	return r.types.Register(name, factory)
}

// MustRegister is like Register but panics on failure.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Has reports whether a type name is registered.
func (r *Registry) Has(name string) bool {
	return r.types.Has(name)
}

// Types lists the registered type names.
func (r *Registry) Types() []string {
	return r.types.Types()
}

// Create returns an Attribute for cfg. An *Attribute is returned unchanged;
// a Config (or *Config) is built through the factory registered for cfg.Type.
func (r *Registry) Create(cfg any) (*Attribute, error) {
	switch c := cfg.(type) {
	case *Attribute:
		if c == nil {
			return nil, errors.NewConfigError("attribute", "nil attribute")
		}
		return c, nil
	case Config:
		return r.build(c)
	case *Config:
		if c == nil {
			return nil, errors.NewConfigError("attribute", "nil config")
		}
		return r.build(*c)
	}
	return nil, errors.NewConfigError("attribute", "unsupported attribute definition")
}

func (r *Registry) build(cfg Config) (*Attribute, error) {
	if _, err := nameOf(cfg.Name); err != nil {
		return nil, err
	}

	factory, err := r.types.Lookup(cfg.Type)
	if err != nil {
		return nil, err
	}

	policy := Policy{UseNull: cfg.UseNull, Strip: cfg.Strip}
	if policy.Strip == nil {
		policy.Strip = DefaultStrip
	}

	conv, err := factory(cfg, policy)
	if err != nil {
		return nil, err
	}
	return newAttribute(cfg, normalizeType(cfg.Type), policy, conv), nil
}

// Create builds an attribute with the DefaultRegistry.
func Create(cfg any) (*Attribute, error) {
	return DefaultRegistry.Create(cfg)
}

// Register adds a converter type to the DefaultRegistry.
func Register(name string, factory Factory) error {
	return DefaultRegistry.Register(name, factory)
}
