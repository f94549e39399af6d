/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package attribute

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

// ModelType is a nested model type an attribute can hold.
type ModelType interface {
	Name() string
	NewInstance(data storagemodels.Record) (any, error)
	IsInstance(v any) bool
}

// CollectionType is a nested collection type an attribute can hold.
type CollectionType interface {
	Name() string
	NewCollection(records []any) (any, error)
	IsInstance(v any) bool
}

// Resolver looks up a nested type by name. It returns a ModelType or a CollectionType.
type Resolver func(name string) (any, bool)

// ParentAware values propagate their own changes to the models holding them.
type ParentAware interface {
	AddParent(parent any, attribute string)
	RemoveParent(parent any, attribute string)
}

// typeRef is a lazily resolved reference to a nested type. The reference is
// resolved once, on first use, so two classes may refer to each other.
type typeRef[T any] struct {
	target   any
	resolver Resolver

	once     sync.Once
	resolved T
	err      error
}

func newTypeRef[T any](target any, resolver Resolver) (*typeRef[T], error) {
	switch target.(type) {
	case nil:
		return nil, errors.NewConfigError("attribute", "nested type is required")
	case string:
		if resolver == nil {
			return nil, errors.NewConfigError("attribute", "nested type given by name needs a resolver")
		}
	case T, func() T:
	default:
		return nil, errors.NewConfigError("attribute", fmt.Sprintf("unsupported nested type reference %T", target))
	}
	return &typeRef[T]{target: target, resolver: resolver}, nil
}

func (r *typeRef[T]) get() (T, error) {
	r.once.Do(func() {
		switch s := r.target.(type) {
		case T:
			r.resolved = s
		case func() T:
			r.resolved = s()
			if isNil(r.resolved) {
				r.err = errors.NewConfigError("attribute", "nested type factory returned nil")
			}
		case string:
			v, ok := r.resolver(s)
			if !ok {
				r.err = errors.NewUnknownTypeError("nested", s)
				return
			}
			t, ok := v.(T)
			if !ok {
				r.err = errors.NewConfigError("attribute", fmt.Sprintf("%q resolved to %T", s, v))
				return
			}
			r.resolved = t
		}
	})
	return r.resolved, r.err
}

// modelConverter holds nil or an instance of one model type.
type modelConverter struct {
	name string
	ref  *typeRef[ModelType]
}

func newModelConverter(cfg Config, _ Policy) (Converter, error) {
	ref, err := newTypeRef[ModelType](cfg.Model, cfg.Resolver)
	if err != nil {
		return nil, err
	}
	name, _ := nameOf(cfg.Name)
	return &modelConverter{name: name, ref: ref}, nil
}

func (c *modelConverter) Convert(v any) any {
	out, _ := c.BeforeSet(nil, v, nil)
	return out
}

func (c *modelConverter) BeforeSet(_, newValue, _ any) (any, error) {
	typ, err := c.ref.get()
	if err != nil {
		return nil, err
	}
	if isNil(newValue) {
		return nil, nil
	}
	if typ.IsInstance(newValue) {
		return newValue, nil
	}
	if data, ok := asRecord(newValue); ok {
		return typ.NewInstance(data)
	}
	return nil, nil
}

func (c *modelConverter) AfterSet(owner, newValue, oldValue any) {
	swapParents(owner, c.name, newValue, oldValue)
}

func (c *modelConverter) Equal(a, b any) bool {
	return sameRef(a, b)
}

// collectionConverter holds nil or an instance of one collection type.
type collectionConverter struct {
	name string
	ref  *typeRef[CollectionType]
}

func newCollectionConverter(cfg Config, _ Policy) (Converter, error) {
	ref, err := newTypeRef[CollectionType](cfg.Collection, cfg.Resolver)
	if err != nil {
		return nil, err
	}
	name, _ := nameOf(cfg.Name)
	return &collectionConverter{name: name, ref: ref}, nil
}

func (c *collectionConverter) Convert(v any) any {
	out, _ := c.BeforeSet(nil, v, nil)
	return out
}

func (c *collectionConverter) BeforeSet(_, newValue, _ any) (any, error) {
	typ, err := c.ref.get()
	if err != nil {
		return nil, err
	}
	if isNil(newValue) {
		return nil, nil
	}
	if typ.IsInstance(newValue) {
		return newValue, nil
	}

	rv := reflect.ValueOf(newValue)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, nil
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return typ.NewCollection(items)
}

func (c *collectionConverter) AfterSet(owner, newValue, oldValue any) {
	swapParents(owner, c.name, newValue, oldValue)
}

func (c *collectionConverter) Equal(a, b any) bool {
	return sameRef(a, b)
}

func swapParents(owner any, name string, newValue, oldValue any) {
	if owner == nil || sameRef(newValue, oldValue) {
		return
	}
	if old, ok := oldValue.(ParentAware); ok && !isNil(oldValue) {
		old.RemoveParent(owner, name)
	}
	if nv, ok := newValue.(ParentAware); ok && !isNil(newValue) {
		nv.AddParent(owner, name)
	}
}

// sameRef is reference equality: two distinct instances holding identical data
// are different values.
func sameRef(a, b any) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return ra.Pointer() == rb.Pointer()
	}
	if ra.Comparable() {
		return a == b
	}
	return false
}

func asRecord(v any) (storagemodels.Record, bool) {
	if rec, ok := v.(storagemodels.Record); ok {
		return rec, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	rec := make(storagemodels.Record, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		rec[iter.Key().String()] = iter.Value().Interface()
	}
	return rec, true
}
