/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package attribute

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

func normalizeType(typ string) string {
	return strings.ToLower(strings.TrimSpace(typ))
}

// isNil reports nil interfaces and typed nil pointers, maps, slices and funcs.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

type stringConverter struct {
	policy Policy
}

func newStringConverter(_ Config, p Policy) (Converter, error) {
	return &stringConverter{policy: p}, nil
}

func (c *stringConverter) Convert(v any) any {
	if isNil(v) {
		return c.policy.Null("")
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

var (
	leadingInt   = regexp.MustCompile(`^\s*[+-]?\d+`)
	leadingFloat = regexp.MustCompile(`^\s*[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
)

// numberConverter is shared by the int and float types; they differ in how a
// string is parsed and in the Go type they produce.
type numberConverter struct {
	policy  Policy
	integer bool
}

func newIntegerConverter(_ Config, p Policy) (Converter, error) {
	return &numberConverter{policy: p, integer: true}, nil
}

func newFloatConverter(_ Config, p Policy) (Converter, error) {
	return &numberConverter{policy: p}, nil
}

func (c *numberConverter) zero() any {
	if c.integer {
		return 0
	}
	return float64(0)
}

func (c *numberConverter) Convert(v any) any {
	if isNil(v) {
		return c.policy.Null(c.zero())
	}

	switch n := v.(type) {
	case int:
		return c.fromInt(int64(n))
	case int8:
		return c.fromInt(int64(n))
	case int16:
		return c.fromInt(int64(n))
	case int32:
		return c.fromInt(int64(n))
	case int64:
		return c.fromInt(n)
	case uint:
		return c.fromUint(uint64(n))
	case uint8:
		return c.fromInt(int64(n))
	case uint16:
		return c.fromInt(int64(n))
	case uint32:
		return c.fromInt(int64(n))
	case uint64:
		return c.fromUint(n)
	case float32:
		return c.fromFloat(float64(n))
	case float64:
		return c.fromFloat(n)
	case bool:
		return c.policy.Null(c.zero())
	case string:
		return c.fromString(n)
	}
	return c.fromString(fmt.Sprint(v))
}

func (c *numberConverter) fromInt(n int64) any {
	if c.integer {
		return int(n)
	}
	return float64(n)
}

func (c *numberConverter) fromUint(n uint64) any {
	if n <= math.MaxInt64 {
		return c.fromInt(int64(n))
	}
	if c.integer {
		return math.MaxInt
	}
	return float64(n)
}

// fromFloat truncates toward zero for integers, clamping to the int range.
func (c *numberConverter) fromFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return c.policy.Null(c.zero())
	}
	if !c.integer {
		return f
	}
	switch {
	case f >= float64(math.MaxInt):
		return math.MaxInt
	case f <= float64(math.MinInt):
		return math.MinInt
	}
	return int(math.Trunc(f))
}

func (c *numberConverter) fromString(s string) any {
	if c.policy.Strip != nil {
		s = c.policy.Strip.ReplaceAllString(s, "")
	}
	if c.integer {
		m := leadingInt.FindString(s)
		if m == "" {
			return c.policy.Null(c.zero())
		}
		n, err := strconv.ParseInt(strings.TrimSpace(m), 10, 64)
		if err != nil {
			// Out of range for int64; fall back to float parsing and truncation.
			f, ferr := strconv.ParseFloat(strings.TrimSpace(m), 64)
			if ferr != nil {
				return c.policy.Null(c.zero())
			}
			return c.fromFloat(f)
		}
		return int(n)
	}

	m := leadingFloat.FindString(s)
	if m == "" {
		return c.policy.Null(c.zero())
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return c.policy.Null(c.zero())
	}
	return c.fromFloat(f)
}

type booleanConverter struct {
	policy Policy
}

func newBooleanConverter(_ Config, p Policy) (Converter, error) {
	return &booleanConverter{policy: p}, nil
}

func (c *booleanConverter) Convert(v any) any {
	if isNil(v) {
		return c.policy.Null(false)
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if b == "" {
			return c.policy.Null(false)
		}
		return b == "true"
	case float64:
		return b != 0 && !math.IsNaN(b)
	case float32:
		return b != 0 && !math.IsNaN(float64(b))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	}
	// Any other non-nil value is truthy.
	return true
}

type objectConverter struct{}

func newObjectConverter(_ Config, _ Policy) (Converter, error) {
	return objectConverter{}, nil
}

func (objectConverter) Convert(v any) any {
	if isNil(v) {
		return nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr:
		return v
	}
	return nil
}

type mixedConverter struct{}

func newMixedConverter(_ Config, _ Policy) (Converter, error) {
	return mixedConverter{}, nil
}

func (mixedConverter) Convert(v any) any {
	return v
}
