/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/suparena/modelstore/attribute"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/proxy"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

// DefaultIDAttribute is the id attribute of classes that do not name one.
const DefaultIDAttribute = "id"

// CollectionSuffix is appended to a class name to refer to its collection type
// through a ClassRegistry.
const CollectionSuffix = "Collection"

// ClassConfig declares a model class.
type ClassConfig struct {
	// Name is required.
	Name string
	// IDAttribute defaults to DefaultIDAttribute. It is declared as a nullable
	// string attribute when Attributes does not declare it.
	IDAttribute string
	// Attributes holds attribute.Config values or *attribute.Attribute.
	Attributes []any
	// Proxy is anything ProxyRegistry.Create accepts. Without a proxy the class
	// can hold data but not persist it.
	Proxy any

	// Classes resolves nested types given by name and receives the new class.
	Classes *ClassRegistry
	// AttributeRegistry defaults to attribute.DefaultRegistry.
	AttributeRegistry *attribute.Registry
	// ProxyRegistry defaults to proxy.DefaultRegistry.
	ProxyRegistry *proxy.Registry
	Logger        *zap.SugaredLogger
}

// Class is an immutable model type: its attributes and its proxy are shared by
// every instance.
type Class struct {
	name        string
	idAttribute string
	attributes  []*attribute.Attribute
	byName      map[string]*attribute.Attribute
	proxy       request.Proxy
	logger      *zap.SugaredLogger
	collection  *CollectionClass
}

// NewClass builds a class from cfg. A missing name, a bad attribute or an
// unresolvable proxy is a configuration error.
func NewClass(cfg ClassConfig) (*Class, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, errors.NewConfigError("model", "class name is required")
	}
	if cfg.IDAttribute == "" {
		cfg.IDAttribute = DefaultIDAttribute
	}
	if cfg.AttributeRegistry == nil {
		cfg.AttributeRegistry = attribute.DefaultRegistry
	}
	if cfg.ProxyRegistry == nil {
		cfg.ProxyRegistry = proxy.DefaultRegistry
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.S()
	}

	c := &Class{
		name:        cfg.Name,
		idAttribute: cfg.IDAttribute,
		byName:      make(map[string]*attribute.Attribute),
		logger:      cfg.Logger.With("model", cfg.Name),
	}
	c.collection = &CollectionClass{class: c}

	var resolver attribute.Resolver
	if cfg.Classes != nil {
		resolver = cfg.Classes.Resolve
	}
	for _, def := range cfg.Attributes {
		attr, err := cfg.AttributeRegistry.Create(withResolver(def, resolver))
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", cfg.Name, err)
		}
		if _, dup := c.byName[attr.Name()]; dup {
			return nil, errors.NewConfigError("model", fmt.Sprintf("class %s declares attribute %q twice", cfg.Name, attr.Name()))
		}
		c.attributes = append(c.attributes, attr)
		c.byName[attr.Name()] = attr
	}
	if _, ok := c.byName[c.idAttribute]; !ok {
		attr, err := cfg.AttributeRegistry.Create(attribute.Config{Name: c.idAttribute, Type: "string", UseNull: true})
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", cfg.Name, err)
		}
		c.attributes = append([]*attribute.Attribute{attr}, c.attributes...)
		c.byName[attr.Name()] = attr
	}

	if cfg.Proxy != nil {
		p, err := cfg.ProxyRegistry.Create(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", cfg.Name, err)
		}
		c.proxy = p
	}

	if cfg.Classes != nil {
		if err := cfg.Classes.Register(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// withResolver fills in the class registry resolver on attribute configs that
// do not carry their own.
func withResolver(def any, resolver attribute.Resolver) any {
	if resolver == nil {
		return def
	}
	switch cfg := def.(type) {
	case attribute.Config:
		if cfg.Resolver == nil {
			cfg.Resolver = resolver
		}
		return cfg
	case *attribute.Config:
		if cfg != nil && cfg.Resolver == nil {
			cp := *cfg
			cp.Resolver = resolver
			return cp
		}
	}
	return def
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// IDAttribute returns the name of the id attribute.
func (c *Class) IDAttribute() string { return c.idAttribute }

// Proxy returns the class proxy, nil when the class does not persist.
func (c *Class) Proxy() request.Proxy { return c.proxy }

// Attributes returns the declared attributes in declaration order.
func (c *Class) Attributes() []*attribute.Attribute {
	out := make([]*attribute.Attribute, len(c.attributes))
	copy(out, c.attributes)
	return out
}

// Attribute returns the attribute called name.
func (c *Class) Attribute(name string) (*attribute.Attribute, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// New creates an instance initialized with the attribute defaults and data.
// Unknown keys in data are ignored.
func (c *Class) New(data storagemodels.Record) (*Model, error) {
	m := &Model{class: c, values: make(map[string]any, len(c.attributes))}
	for _, attr := range c.attributes {
		v, err := attr.BeforeSet(m, attr.DefaultValue(), nil)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", c.name, err)
		}
		m.values[attr.Name()] = v
		attr.AfterSet(m, v, nil)
	}
	if err := m.SetData(data); err != nil {
		return nil, err
	}
	m.Commit()
	return m, nil
}

// NewInstance implements attribute.ModelType.
func (c *Class) NewInstance(data storagemodels.Record) (any, error) {
	return c.New(data)
}

// IsInstance implements attribute.ModelType.
func (c *Class) IsInstance(v any) bool {
	m, ok := v.(*Model)
	return ok && m != nil && m.class == c
}

// NewCollection creates a collection of this class holding items, which may be
// models of the class or records.
func (c *Class) NewCollection(items ...any) (*Collection, error) {
	coll := &Collection{class: c}
	if err := coll.Add(items...); err != nil {
		return nil, err
	}
	return coll, nil
}

// CollectionClass returns the collection type of the class.
func (c *Class) CollectionClass() *CollectionClass { return c.collection }

// CollectionClass is the collection type of a model class, usable as the
// nested type of a collection attribute.
type CollectionClass struct {
	class *Class
}

// Class returns the model class of the collection's members.
func (cc *CollectionClass) Class() *Class { return cc.class }

// Name implements attribute.CollectionType.
func (cc *CollectionClass) Name() string { return cc.class.name + CollectionSuffix }

// NewCollection implements attribute.CollectionType.
func (cc *CollectionClass) NewCollection(records []any) (any, error) {
	return cc.class.NewCollection(records...)
}

// IsInstance implements attribute.CollectionType.
func (cc *CollectionClass) IsInstance(v any) bool {
	coll, ok := v.(*Collection)
	return ok && coll != nil && coll.class == cc.class
}

// ClassRegistry maps class names to classes so nested attributes can refer to
// a class by name before it exists. Names are case-insensitive.
type ClassRegistry struct {
	types *registry.TypeRegistry[any]
}

// NewClassRegistry returns an empty class registry.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{types: registry.NewTypeRegistry[any]("model")}
}

// Register adds c under its name and its collection type under the name with
// CollectionSuffix appended.
func (r *ClassRegistry) Register(c *Class) error {
	if err := r.types.Register(c.Name(), c); err != nil {
		return err
	}
	return r.types.Register(c.collection.Name(), c.collection)
}

// Class returns the class registered under name.
func (r *ClassRegistry) Class(name string) (*Class, bool) {
	v, err := r.types.Lookup(name)
	if err != nil {
		return nil, false
	}
	c, ok := v.(*Class)
	return c, ok
}

// Resolve implements attribute.Resolver.
func (r *ClassRegistry) Resolve(name string) (any, bool) {
	v, err := r.types.Lookup(name)
	if err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case *Class:
		return attribute.ModelType(t), true
	case *CollectionClass:
		return attribute.CollectionType(t), true
	}
	return nil, false
}

// Names returns the registered names in sorted order.
func (r *ClassRegistry) Names() []string {
	return r.types.Types()
}
