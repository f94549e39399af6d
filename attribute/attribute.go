/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package attribute

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/tiendc/go-deepcopy"

	"github.com/suparena/modelstore/errors"
)

// DefaultStrip removes the currency, grouping and percent characters numeric
// attributes ignore by default.
var DefaultStrip = regexp.MustCompile(`[\$,%]`)

// SetFunc is a custom hook applied to the raw value before conversion.
type SetFunc func(owner, newValue, oldValue any) any

// GetFunc is a custom hook applied to the stored value on read.
type GetFunc func(owner, value any) any

// Config declares one attribute of a model class.
type Config struct {
	// Name is required. Integers and floats are stringified.
	Name any
	// Type is the registered converter type, e.g. "string" or "int".
	Type string
	// Default is a literal or a func() any evaluated on every access.
	Default any
	// UseNull makes absent or unparsable input convert to nil instead of a zero value.
	UseNull bool
	// Persist controls whether the attribute is written to storage. Defaults to true.
	Persist *bool
	Set     SetFunc
	Get     GetFunc

	// Strip overrides DefaultStrip for numeric types.
	Strip *regexp.Regexp
	// DateLayouts are tried before the built-in layouts by the date type.
	DateLayouts []string
	// Model is the nested model type: a ModelType, a name resolved by Resolver,
	// or a func() ModelType.
	Model any
	// Collection is the nested collection type, in the same forms as Model.
	Collection any
	// Resolver looks up nested types given by name.
	Resolver Resolver
}

// Policy is the conversion policy shared by every converter of an attribute.
type Policy struct {
	UseNull bool
	Strip   *regexp.Regexp
}

// Null returns nil when UseNull is set and zero otherwise.
func (p Policy) Null(zero any) any {
	if p.UseNull {
		return nil
	}
	return zero
}

// Converter normalizes raw values for one attribute type. It never fails:
// bad input resolves to nil or the type's zero value.
type Converter interface {
	Convert(value any) any
}

// Setter is implemented by converters that need the owner and the previous value.
// The error is reserved for configuration defects such as an unresolvable nested type.
type Setter interface {
	BeforeSet(owner, newValue, oldValue any) (any, error)
}

// AfterSetter is implemented by converters with side effects that need the
// settled value.
type AfterSetter interface {
	AfterSet(owner, newValue, oldValue any)
}

// Equaler is implemented by converters with their own notion of equality.
type Equaler interface {
	Equal(a, b any) bool
}

// Factory builds the converter for a registered type.
type Factory func(cfg Config, policy Policy) (Converter, error)

// Attribute is an immutable, typed field descriptor shared by every instance of
// a model class.
type Attribute struct {
	name       string
	typ        string
	policy     Policy
	persist    bool
	def        any
	hasDefault bool
	set        SetFunc
	get        GetFunc
	converter  Converter
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.name }

// Type returns the registered type name the attribute was built from.
func (a *Attribute) Type() string { return a.typ }

// UseNull reports the attribute's null policy.
func (a *Attribute) UseNull() bool { return a.policy.UseNull }

// Persist reports whether the attribute round-trips to storage.
func (a *Attribute) Persist() bool { return a.persist }

// Converter returns the type converter.
func (a *Attribute) Converter() Converter { return a.converter }

// DefaultValue returns the configured default, evaluating factories and deep
// cloning composite values, or the converted nil value when no default is set.
func (a *Attribute) DefaultValue() any {
	if !a.hasDefault {
		return a.converter.Convert(nil)
	}
	v := a.def
	if f, ok := v.(func() any); ok {
		v = f()
	}
	return cloneValue(v)
}

// Convert runs the type conversion only, without hooks.
func (a *Attribute) Convert(value any) any {
	return a.converter.Convert(value)
}

// BeforeSet applies the custom set hook and the type conversion to newValue and
// returns the value to store.
func (a *Attribute) BeforeSet(owner, newValue, oldValue any) (any, error) {
	if a.set != nil {
		newValue = a.set(owner, newValue, oldValue)
	}
	if s, ok := a.converter.(Setter); ok {
		return s.BeforeSet(owner, newValue, oldValue)
	}
	return a.converter.Convert(newValue), nil
}

// AfterSet runs converter side effects once the owner has stored newValue.
func (a *Attribute) AfterSet(owner, newValue, oldValue any) {
	if s, ok := a.converter.(AfterSetter); ok {
		s.AfterSet(owner, newValue, oldValue)
	}
}

// Get applies the custom get hook to a stored value.
func (a *Attribute) Get(owner, value any) any {
	if a.get != nil {
		return a.get(owner, value)
	}
	return value
}

// Equal reports whether two stored values are the same for change tracking.
func (a *Attribute) Equal(x, y any) bool {
	if eq, ok := a.converter.(Equaler); ok {
		return eq.Equal(x, y)
	}
	return reflect.DeepEqual(x, y)
}

func newAttribute(cfg Config, typ string, policy Policy, conv Converter) *Attribute {
	persist := true
	if cfg.Persist != nil {
		persist = *cfg.Persist
	}
	a := &Attribute{
		typ:       typ,
		policy:    policy,
		persist:   persist,
		set:       cfg.Set,
		get:       cfg.Get,
		converter: conv,
	}
	a.name, _ = nameOf(cfg.Name)
	if cfg.Default != nil {
		a.def = cfg.Default
		a.hasDefault = true
	}
	return a
}

func nameOf(v any) (string, error) {
	var name string
	switch n := v.(type) {
	case string:
		name = n
	case int:
		name = strconv.Itoa(n)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		name = fmt.Sprint(n)
	case float32:
		name = strconv.FormatFloat(float64(n), 'f', -1, 32)
	case float64:
		name = strconv.FormatFloat(n, 'f', -1, 64)
	}
	if strings.TrimSpace(name) == "" {
		return "", errors.NewConfigError("attribute", "name is required")
	}
	return name, nil
}

// cloneValue deep copies composite values so defaults are never shared between
// model instances.
func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr:
	default:
		return v
	}
	if (rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice || rv.Kind() == reflect.Ptr) && rv.IsNil() {
		return v
	}

	src := reflect.New(rv.Type())
	src.Elem().Set(rv)
	dst := reflect.New(rv.Type())
	if err := deepcopy.Copy(dst.Interface(), src.Interface()); err != nil {
		return cloneReflect(rv).Interface()
	}
	return dst.Elem().Interface()
}

// cloneReflect copies maps and slices recursively. It backs cloneValue for
// values deepcopy refuses.
func cloneReflect(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}
		inner := cloneReflect(rv.Elem())
		out := reflect.New(rv.Type()).Elem()
		out.Set(inner)
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneReflect(iter.Value()))
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneReflect(rv.Index(i)))
		}
		return out
	}
	return rv
}
