/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxy

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/metrics"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

// stubProxy settles reads with its records and fails writes when failWrites is set.
type stubProxy struct {
	Base
	records    []storagemodels.Record
	failWrites error
	calls      atomic.Int32
}

func newStub(cfg Config) (request.Proxy, error) {
	return &stubProxy{Base: NewBase("stub", cfg)}, nil
}

func (s *stubProxy) Read(_ context.Context, req *request.ReadRequest) {
	s.calls.Add(1)
	s.Succeed(req, storagemodels.NewResultSet(Window(s.records, req), storagemodels.WithTotalCount(len(s.records))))
}

func (s *stubProxy) write(req *request.WriteRequest) {
	s.calls.Add(1)
	if s.failWrites != nil {
		s.Fail(req, s.failWrites)
		return
	}
	s.Succeed(req, storagemodels.NewResultSet(req.Records()))
}

func (s *stubProxy) Create(_ context.Context, req *request.WriteRequest)  { s.write(req) }
func (s *stubProxy) Update(_ context.Context, req *request.WriteRequest)  { s.write(req) }
func (s *stubProxy) Destroy(_ context.Context, req *request.WriteRequest) { s.write(req) }

func TestRegistry(t *testing.T) {
	t.Run("duplicate type", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("stub", newStub))

		err := r.Register("STUB", newStub)
		assert.True(t, errors.IsDuplicateType(err))
		assert.True(t, errors.IsConfiguration(err))
	})

	t.Run("nil factory", func(t *testing.T) {
		err := NewRegistry().Register("stub", nil)
		assert.True(t, errors.IsConfiguration(err))
	})

	t.Run("unregistered type", func(t *testing.T) {
		_, err := NewRegistry().Create(Config{Type: "unregistered"})
		assert.True(t, errors.IsUnknownType(err))
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := NewRegistry().Create(Config{})
		assert.True(t, errors.IsUnknownType(err))

		_, err = NewRegistry().Create(nil)
		assert.True(t, errors.IsUnknownType(err))
	})

	t.Run("unsupported config", func(t *testing.T) {
		_, err := NewRegistry().Create(42)
		assert.True(t, errors.IsConfiguration(err))
	})

	t.Run("existing instance passes through", func(t *testing.T) {
		existing := &stubProxy{}
		got, err := NewRegistry().Create(existing)
		require.NoError(t, err)
		assert.Same(t, existing, got)
	})

	t.Run("config forms", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister("Stub", newStub)
		assert.Equal(t, []string{"stub"}, r.Types())
		assert.True(t, r.Has("STUB"))

		p, err := r.Create(Config{Type: "stub", Name: "primary"})
		require.NoError(t, err)
		assert.Equal(t, "primary", NameOf(p))

		p, err = r.Create(&Config{Type: "stub"})
		require.NoError(t, err)
		assert.Equal(t, "stub", NameOf(p))

		p, err = r.Create(map[string]any{"type": "stub", "name": "from-map", "latency": "5ms"})
		require.NoError(t, err)
		assert.Equal(t, "from-map", NameOf(p))
		assert.Equal(t, 5*time.Millisecond, p.(*stubProxy).DurationOption("latency", 0))

		_, err = r.Create("stub")
		require.NoError(t, err)
	})

	t.Run("factory error is wrapped", func(t *testing.T) {
		r := NewRegistry()
		boom := stderrors.New("boom")
		r.MustRegister("broken", func(Config) (request.Proxy, error) { return nil, boom })

		_, err := r.Create(Config{Type: "broken"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("must register panics on duplicate", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister("stub", newStub)
		assert.Panics(t, func() { r.MustRegister("stub", newStub) })
	})
}

func TestBaseOptions(t *testing.T) {
	b := NewBase("Test", Config{Options: map[string]any{
		"url":     "http://example.com",
		"port":    8080.0,
		"retries": "3",
		"latency": 250,
		"timeout": "2s",
		"enabled": "true",
		"strict":  false,
		"bad":     []int{1},
	}})

	assert.Equal(t, "test", b.Type())
	assert.Equal(t, "test", b.Name())
	assert.NotNil(t, b.Reader())
	assert.NotNil(t, b.Writer())
	assert.NotNil(t, b.Logger())

	assert.Equal(t, "http://example.com", b.StringOption("url", ""))
	assert.Equal(t, "8080", b.StringOption("port", ""))
	assert.Equal(t, "fallback", b.StringOption("missing", "fallback"))
	assert.Equal(t, 8080, b.IntOption("port", 0))
	assert.Equal(t, 3, b.IntOption("retries", 0))
	assert.Equal(t, 7, b.IntOption("bad", 7))
	assert.Equal(t, 250*time.Millisecond, b.DurationOption("latency", 0))
	assert.Equal(t, 2*time.Second, b.DurationOption("timeout", 0))
	assert.Equal(t, time.Second, b.DurationOption("missing", time.Second))
	assert.True(t, b.BoolOption("enabled", false))
	assert.False(t, b.BoolOption("strict", true))
	assert.True(t, b.BoolOption("missing", true))

	_, ok := b.Option("url")
	assert.True(t, ok)
}

func TestFailWrapsStorageError(t *testing.T) {
	b := NewBase("stub", Config{Name: "orders"})
	req := request.NewCreateRequest(request.WriteConfig{})
	cause := stderrors.New("disk full")

	b.Fail(req, cause)

	var se *errors.StorageError
	require.ErrorAs(t, req.Exception(), &se)
	assert.Equal(t, "orders", se.Proxy)
	assert.Equal(t, "create", se.Action)
	assert.ErrorIs(t, req.Exception(), cause)
}

func TestWindow(t *testing.T) {
	records := make([]storagemodels.Record, 10)
	for i := range records {
		records[i] = storagemodels.Record{"n": i}
	}

	tests := []struct {
		name      string
		cfg       request.ReadConfig
		wantLen   int
		wantFirst int
	}{
		{name: "unbounded", cfg: request.ReadConfig{}, wantLen: 10, wantFirst: 0},
		{name: "start and limit", cfg: request.ReadConfig{Start: 2, Limit: 3}, wantLen: 3, wantFirst: 2},
		{name: "page", cfg: request.ReadConfig{Page: 2, PageSize: 4}, wantLen: 4, wantFirst: 4},
		{name: "short last page", cfg: request.ReadConfig{Page: 3, PageSize: 4}, wantLen: 2, wantFirst: 8},
		{name: "past end", cfg: request.ReadConfig{Start: 20}, wantLen: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Window(records, request.NewReadRequest(tt.cfg))
			require.Len(t, got, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, got[0]["n"])
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	p := &stubProxy{Base: NewBase("stub", Config{Name: "dispatch-test"}), records: []storagemodels.Record{{"id": "1"}}}

	read := request.NewReadRequest(request.ReadConfig{})
	require.NoError(t, Dispatch(ctx, p, read))
	assert.Equal(t, []storagemodels.Record{{"id": "1"}}, read.ResultSet().Records())

	for _, req := range []request.Request{
		request.NewCreateRequest(request.WriteConfig{}),
		request.NewUpdateRequest(request.WriteConfig{}),
		request.NewDestroyRequest(request.WriteConfig{}),
	} {
		require.NoError(t, Dispatch(ctx, p, req))
		assert.True(t, req.WasSuccessful())
	}
	assert.Equal(t, int32(4), p.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("dispatch-test", "read", metrics.OutcomeSuccess)))

	err := Dispatch(ctx, nil, request.NewReadRequest(request.ReadConfig{}))
	assert.ErrorIs(t, err, errors.ErrNoProxy)
}

func TestExecuteBatch(t *testing.T) {
	ctx := context.Background()
	boom := stderrors.New("boom")
	ok := &stubProxy{Base: NewBase("stub", Config{})}
	failing := &stubProxy{Base: NewBase("stub", Config{}), failWrites: boom}

	t.Run("all succeed", func(t *testing.T) {
		b := request.NewBatch(
			request.NewReadRequest(request.ReadConfig{}),
			request.NewCreateRequest(request.WriteConfig{}),
		)
		require.NoError(t, ExecuteBatch(ctx, ok, b))
		assert.True(t, b.IsComplete())
		assert.True(t, b.WasSuccessful())
	})

	t.Run("request proxy takes precedence", func(t *testing.T) {
		b := request.NewBatch(
			request.NewReadRequest(request.ReadConfig{}),
			request.NewCreateRequest(request.WriteConfig{Config: request.Config{Proxy: failing}}),
		)
		err := ExecuteBatch(ctx, ok, b)
		assert.ErrorIs(t, err, boom)
		assert.True(t, b.IsComplete())
		assert.Len(t, b.ErroredRequests(), 1)
		assert.Len(t, b.SuccessfulRequests(), 1)
	})

	t.Run("empty batch", func(t *testing.T) {
		assert.NoError(t, ExecuteBatch(ctx, ok, request.NewBatch()))
	})
}
