/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/suparena/modelstore/errors"
)

// TypeRegistry maps lowercased type names to factories of kind F.
// It is append-only: names can be added but never replaced or removed.
type TypeRegistry[F any] struct {
	name  string
	mu    sync.RWMutex
	types map[string]F
}

// NewTypeRegistry returns an empty registry. The name only appears in error messages.
func NewTypeRegistry[F any](name string) *TypeRegistry[F] {
	return &TypeRegistry[F]{
		name:  name,
		types: make(map[string]F),
	}
}

// Name returns the registry name used in errors.
func (r *TypeRegistry[F]) Name() string {
	return r.name
}

// Register adds a factory under the given type name.
// Names are compared case-insensitively; registering a name twice fails.
func (r *TypeRegistry[F]) Register(typ string, factory F) error {
	key := normalize(typ)
	if key == "" {
		return errors.NewUnknownTypeError(r.name, typ)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[key]; exists {
		return errors.NewDuplicateTypeError(r.name, key)
	}
	r.types[key] = factory
	return nil
}

// MustRegister is like Register but panics on failure. Meant for init functions.
func (r *TypeRegistry[F]) MustRegister(typ string, factory F) {
	if err := r.Register(typ, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered for typ.
// A missing or unregistered type yields an unknown-type error.
func (r *TypeRegistry[F]) Lookup(typ string) (F, error) {
	key := normalize(typ)

	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.types[key]
	if !ok || key == "" {
		var zero F
		return zero, errors.NewUnknownTypeError(r.name, typ)
	}
	return factory, nil
}

// Has reports whether typ is registered.
func (r *TypeRegistry[F]) Has(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[normalize(typ)]
	return ok
}

// Types returns the registered names in sorted order.
func (r *TypeRegistry[F]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(typ string) string {
	return strings.ToLower(strings.TrimSpace(typ))
}
