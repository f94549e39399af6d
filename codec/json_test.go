/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

func TestJSONReader(t *testing.T) {
	t.Run("SingleObjectBecomesOneRecord", func(t *testing.T) {
		rs, err := NewJSONReader().Read([]byte(`{"a":1,"b":2,"c":3}`))
		require.NoError(t, err)
		assert.Equal(t, []storagemodels.Record{{"a": float64(1), "b": float64(2), "c": float64(3)}}, rs.Records())
	})

	t.Run("DecodedPayload", func(t *testing.T) {
		rs, err := NewJSONReader().Read([]any{
			map[string]any{"id": "1"},
			map[string]any{"id": "2"},
		})
		require.NoError(t, err)
		assert.Len(t, rs.Records(), 2)
		assert.Equal(t, 2, rs.TotalCount())
	})

	t.Run("RootAndMetadata", func(t *testing.T) {
		r := &JSONReader{Root: "data.users", TotalProperty: "meta.total", MessageProperty: "status"}
		rs, err := r.Read(`{"data":{"users":[{"id":"1"}]},"meta":{"total":40},"status":"ok"}`)
		require.NoError(t, err)
		assert.Equal(t, []storagemodels.Record{{"id": "1"}}, rs.Records())
		assert.Equal(t, 40, rs.TotalCount())
		assert.Equal(t, "ok", rs.Message())
	})

	t.Run("RootOnNonObject", func(t *testing.T) {
		r := &JSONReader{Root: "data"}
		_, err := r.Read(`[1,2]`)
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := NewJSONReader().Read([]byte(`{"a":`))
		assert.Error(t, err)
	})

	t.Run("EmptyPayload", func(t *testing.T) {
		rs, err := NewJSONReader().Read("  ")
		require.NoError(t, err)
		assert.Empty(t, rs.Records())
	})
}

func TestJSONWriter(t *testing.T) {
	t.Run("SingleRecord", func(t *testing.T) {
		b, err := NewJSONWriter().Write([]storagemodels.Record{{"id": "1"}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"1"}`, string(b))
	})

	t.Run("ManyRecordsWithRoot", func(t *testing.T) {
		w := &JSONWriter{Root: "users"}
		b, err := w.Write([]storagemodels.Record{{"id": "1"}, {"id": "2"}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"users":[{"id":"1"},{"id":"2"}]}`, string(b))
	})

	t.Run("NoRecords", func(t *testing.T) {
		b, err := NewJSONWriter().Write(nil)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(b))
	})

	t.Run("RoundTrip", func(t *testing.T) {
		w := &JSONWriter{Root: "rows"}
		b, err := w.Write([]storagemodels.Record{{"name": "x"}})
		require.NoError(t, err)

		rs, err := (&JSONReader{Root: "rows"}).Read(b)
		require.NoError(t, err)
		assert.Equal(t, []storagemodels.Record{{"name": "x"}}, rs.Records())
	})
}
