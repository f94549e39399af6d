/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"reflect"
	"sync"
)

// Record is one row of raw model data as it moves between a proxy and a model.
type Record = map[string]any

// Params is the opaque key/value bag a request carries to its proxy.
// Only the proxy interprets it.
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	cp := make(Params, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// String returns the value for key formatted as a string, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ResultSet holds the records and paging metadata produced by a storage operation.
// It is immutable after construction except for the lazy normalization of records.
type ResultSet struct {
	raw        any
	totalCount *int
	message    string

	once    sync.Once
	records []Record
}

// ResultSetOption configures optional ResultSet metadata
type ResultSetOption func(*ResultSet)

// WithTotalCount sets the total number of records available to a paged read.
// Negative values are clamped to zero.
func WithTotalCount(n int) ResultSetOption {
	return func(rs *ResultSet) {
		if n < 0 {
			n = 0
		}
		rs.totalCount = &n
	}
}

// WithMessage sets the message returned by the backend
func WithMessage(msg string) ResultSetOption {
	return func(rs *ResultSet) {
		rs.message = msg
	}
}

// NewResultSet wraps records, which may be a single Record, a []Record, a []any of
// records, or nil.
func NewResultSet(records any, opts ...ResultSetOption) *ResultSet {
	rs := &ResultSet{raw: records}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Records returns the records as a slice. A single record becomes a one-element slice.
func (rs *ResultSet) Records() []Record {
	if rs == nil {
		return nil
	}
	rs.once.Do(func() {
		rs.records = normalizeRecords(rs.raw)
	})
	return rs.records
}

// TotalCount returns the total number of records available. It defaults to the
// number of records held when the backend did not report a total.
func (rs *ResultSet) TotalCount() int {
	if rs == nil {
		return 0
	}
	if rs.totalCount != nil {
		return *rs.totalCount
	}
	return len(rs.Records())
}

// Message returns the backend message, "" by default.
func (rs *ResultSet) Message() string {
	if rs == nil {
		return ""
	}
	return rs.message
}

func normalizeRecords(raw any) []Record {
	switch v := raw.(type) {
	case nil:
		return []Record{}
	case Record:
		return []Record{v}
	case []Record:
		return v
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			out = append(out, toRecord(item))
		}
		return out
	}

	// Typed slices such as []map[string]string or []User.
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]Record, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, toRecord(rv.Index(i).Interface()))
		}
		return out
	}
	return []Record{toRecord(raw)}
}

// toRecord converts a single raw record to a Record. Non-map values are kept
// under the "value" key.
func toRecord(item any) Record {
	switch v := item.(type) {
	case Record:
		return v
	case nil:
		return Record{}
	}

	rv := reflect.ValueOf(item)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		out := make(Record, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out
	}
	return Record{"value": item}
}
