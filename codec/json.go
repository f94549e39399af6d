/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

// JSONReader reads JSON payloads, either already decoded (maps and slices) or as
// bytes/strings.
//
// When Root is empty the whole payload is the record set. Otherwise the payload
// must be an object and Root is a dotted path to the records inside it.
type JSONReader struct {
	Root            string
	TotalProperty   string
	MessageProperty string
}

// NewJSONReader returns a reader with no root, "total" and "message" as metadata keys.
func NewJSONReader() *JSONReader {
	return &JSONReader{
		TotalProperty:   "total",
		MessageProperty: "message",
	}
}

// Read implements Reader.
func (r *JSONReader) Read(raw any) (*storagemodels.ResultSet, error) {
	data, err := decode(raw)
	if err != nil {
		return nil, err
	}

	if r.Root == "" {
		return storagemodels.NewResultSet(data), nil
	}

	obj, ok := data.(map[string]any)
	if !ok {
		return nil, errors.NewValidationError(r.Root, "payload is not an object")
	}

	records, _ := lookup(obj, r.Root)

	var opts []storagemodels.ResultSetOption
	if r.TotalProperty != "" {
		if v, ok := lookup(obj, r.TotalProperty); ok {
			if n, ok := toInt(v); ok {
				opts = append(opts, storagemodels.WithTotalCount(n))
			}
		}
	}
	if r.MessageProperty != "" {
		if v, ok := lookup(obj, r.MessageProperty); ok && v != nil {
			opts = append(opts, storagemodels.WithMessage(fmt.Sprint(v)))
		}
	}
	return storagemodels.NewResultSet(records, opts...), nil
}

// JSONWriter encodes records as a JSON array, or as a single object when
// AllowSingle is set and exactly one record is written. A non-empty Root wraps
// the payload in an object under that key.
type JSONWriter struct {
	Root        string
	AllowSingle bool
}

// NewJSONWriter returns a writer that emits a single object for single records.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{AllowSingle: true}
}

// Write implements Writer.
func (w *JSONWriter) Write(records []storagemodels.Record) ([]byte, error) {
	var payload any = records
	if records == nil {
		payload = []storagemodels.Record{}
	}
	if w.AllowSingle && len(records) == 1 {
		payload = records[0]
	}
	if w.Root != "" {
		payload = map[string]any{w.Root: payload}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return b, nil
}

func decode(raw any) (any, error) {
	var b []byte
	switch v := raw.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return raw, nil
	}

	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, nil
	}

	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode JSON payload: %w", err)
	}
	return out, nil
}

func lookup(obj map[string]any, path string) (any, bool) {
	var cur any = obj
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}
