/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package attribute

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
)

// builtinLayouts are tried after strfmt's RFC3339 variants.
var builtinLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// dateConverter always yields nil for input it cannot use, whatever the null policy.
type dateConverter struct {
	layouts []string
}

func newDateConverter(cfg Config, _ Policy) (Converter, error) {
	layouts := make([]string, 0, len(cfg.DateLayouts)+len(builtinLayouts))
	layouts = append(layouts, cfg.DateLayouts...)
	layouts = append(layouts, builtinLayouts...)
	return &dateConverter{layouts: layouts}, nil
}

func (c *dateConverter) Convert(v any) any {
	if !truthy(v) {
		return nil
	}
	switch d := v.(type) {
	case time.Time:
		return d
	case *time.Time:
		return *d
	case strfmt.DateTime:
		return time.Time(d)
	case *strfmt.DateTime:
		return time.Time(*d)
	case strfmt.Date:
		return time.Time(d)
	case string:
		if t, ok := c.parse(d); ok {
			return t
		}
		return nil
	case int:
		return time.UnixMilli(int64(d))
	case int64:
		return time.UnixMilli(d)
	case int32:
		return time.UnixMilli(int64(d))
	case uint32:
		return time.UnixMilli(int64(d))
	case float64:
		if math.IsInf(d, 0) {
			return nil
		}
		return time.UnixMilli(int64(d))
	}
	return nil
}

// Equal compares instants, ignoring location.
func (c *dateConverter) Equal(a, b any) bool {
	ta, aok := a.(time.Time)
	tb, bok := b.(time.Time)
	if aok && bok {
		return ta.Equal(tb)
	}
	return a == nil && b == nil
}

func (c *dateConverter) parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if dt, err := strfmt.ParseDateTime(s); err == nil {
		return time.Time(dt), true
	}
	for _, layout := range c.layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

// truthy mirrors the loose notion of "present" used by the date type: nil, empty
// strings, zero numbers, false, NaN and the zero time are all absent.
func truthy(v any) bool {
	if isNil(v) {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint32:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case time.Time:
		return !x.IsZero()
	case strfmt.DateTime:
		return !time.Time(x).IsZero()
	}
	return true
}
