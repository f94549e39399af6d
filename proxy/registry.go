/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxy

import (
	"fmt"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/request"
)

// Registry maps proxy type names to factories. Names are case-insensitive and the
// registry is append-only.
type Registry struct {
	types *registry.TypeRegistry[Factory]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: registry.NewTypeRegistry[Factory]("proxy")}
}

// DefaultRegistry is filled by the proxy packages' init functions.
var DefaultRegistry = NewRegistry()

// Register adds a factory. Duplicate names and nil factories are configuration errors.
func (r *Registry) Register(typ string, factory Factory) error {
	if factory == nil {
		return errors.NewConfigError("proxy registry", fmt.Sprintf("factory for %q is nil", typ))
	}
	return r.types.Register(typ, factory)
}

// MustRegister is like Register but panics on failure.
func (r *Registry) MustRegister(typ string, factory Factory) {
	if err := r.Register(typ, factory); err != nil {
		panic(err)
	}
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	return r.types.Has(typ)
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	return r.types.Types()
}

// Create returns a proxy for cfg. A request.Proxy is returned unchanged; a Config,
// *Config or map with a "type" key is built by the registered factory.
func (r *Registry) Create(cfg any) (request.Proxy, error) {
	switch c := cfg.(type) {
	case request.Proxy:
		return c, nil
	case Config:
		return r.build(c)
	case *Config:
		if c == nil {
			return nil, errors.NewConfigError("proxy registry", "nil config")
		}
		return r.build(*c)
	case map[string]any:
		return r.build(configFromMap(c))
	case string:
		return r.build(Config{Type: c})
	case nil:
		return nil, errors.NewUnknownTypeError(r.types.Name(), "")
	}
	return nil, errors.NewConfigError("proxy registry", fmt.Sprintf("unsupported proxy config %T", cfg))
}

func (r *Registry) build(cfg Config) (request.Proxy, error) {
	factory, err := r.types.Lookup(cfg.Type)
	if err != nil {
		return nil, err
	}
	p, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s proxy: %w", cfg.Type, err)
	}
	return p, nil
}

func configFromMap(m map[string]any) Config {
	cfg := Config{Options: make(map[string]any, len(m))}
	for k, v := range m {
		switch k {
		case "type":
			cfg.Type, _ = v.(string)
		case "name":
			cfg.Name, _ = v.(string)
		default:
			cfg.Options[k] = v
		}
	}
	return cfg
}

// Register adds a factory to DefaultRegistry.
func Register(typ string, factory Factory) error {
	return DefaultRegistry.Register(typ, factory)
}

// Create builds a proxy from DefaultRegistry.
func Create(cfg any) (request.Proxy, error) {
	return DefaultRegistry.Create(cfg)
}
