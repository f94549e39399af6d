/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package operation

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

// gateProxy holds every request until release is closed, then settles it with
// err or with a one-record result set. It ignores context cancellation so late
// settlements can be observed.
type gateProxy struct {
	release chan struct{}
	err     error

	mu      sync.Mutex
	aborted []request.Request
}

func newGate() *gateProxy {
	return &gateProxy{release: make(chan struct{})}
}

func openGate() *gateProxy {
	g := newGate()
	close(g.release)
	return g
}

func (g *gateProxy) settle(req request.Request) {
	<-g.release
	if g.err != nil {
		req.SetException(g.err)
		return
	}
	req.SetResultSet(storagemodels.NewResultSet(storagemodels.Record{"action": string(req.Action())}))
	req.SetSuccess()
}

func (g *gateProxy) Create(_ context.Context, r *request.WriteRequest)  { g.settle(r) }
func (g *gateProxy) Read(_ context.Context, r *request.ReadRequest)     { g.settle(r) }
func (g *gateProxy) Update(_ context.Context, r *request.WriteRequest)  { g.settle(r) }
func (g *gateProxy) Destroy(_ context.Context, r *request.WriteRequest) { g.settle(r) }

func (g *gateProxy) Abort(req request.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.aborted = append(g.aborted, req)
}

func (g *gateProxy) abortedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.aborted)
}

func readBatch(n int) *request.Batch {
	reqs := make([]request.Request, n)
	for i := range reqs {
		reqs[i] = request.NewReadRequest(request.ReadConfig{})
	}
	return request.NewBatch(reqs...)
}

func wait(t *testing.T, op *Operation) {
	t.Helper()
	select {
	case <-op.Settled():
	case <-time.After(2 * time.Second):
		t.Fatal("operation did not settle")
	}
}

// recorder collects callback invocations in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestNewRequiresBatch(t *testing.T) {
	_, err := New(Config{})
	assert.True(t, errors.IsConfiguration(err))
}

func TestResolve(t *testing.T) {
	gate := newGate()
	op, err := Run(context.Background(), Config{Kind: KindRead, Batch: readBatch(2), Proxy: gate})
	require.NoError(t, err)
	assert.Equal(t, StatePending, op.State())
	assert.True(t, op.IsPending())

	rec := &recorder{}
	op.Done(func(*Operation) { rec.add("done-1") }).
		Always(func(*Operation) { rec.add("always") }).
		Fail(func(*Operation, error) { rec.add("fail") }).
		Cancel(func(*Operation) { rec.add("cancel") }).
		Done(func(*Operation) { rec.add("done-2") })

	close(gate.release)
	wait(t, op)

	assert.Equal(t, StateResolved, op.State())
	assert.NoError(t, op.Err())
	assert.NoError(t, op.Wait(context.Background()))
	assert.Equal(t, []string{"done-1", "always", "done-2"}, rec.get())
	assert.Equal(t, "read", op.ResultSet().Records()[0]["action"])
	assert.Len(t, op.ResultSets(), 2)
	assert.Equal(t, KindRead, op.Kind())
	assert.Equal(t, 2, op.Batch().Len())

	op.Done(func(*Operation) { rec.add("late-done") })
	op.Fail(func(*Operation, error) { rec.add("late-fail") })
	op.Always(func(*Operation) { rec.add("late-always") })
	assert.Equal(t, []string{"done-1", "always", "done-2", "late-done", "late-always"}, rec.get())
}

func TestReject(t *testing.T) {
	boom := stderrors.New("boom")
	gate := openGate()
	gate.err = boom

	rec := &recorder{}
	var failErr error
	op, err := New(Config{Kind: KindSave, Batch: readBatch(1), Proxy: gate})
	require.NoError(t, err)
	op.Then(
		func(*Operation) { rec.add("done") },
		func(_ *Operation, err error) { failErr = err; rec.add("fail") },
	).Always(func(*Operation) { rec.add("always") })

	require.NoError(t, op.Start(context.Background()))
	wait(t, op)

	assert.Equal(t, StateRejected, op.State())
	assert.Equal(t, []string{"fail", "always"}, rec.get())
	assert.ErrorIs(t, failErr, boom)
	assert.ErrorIs(t, op.Wait(context.Background()), boom)
}

func TestAbort(t *testing.T) {
	gate := newGate()
	op, err := Run(context.Background(), Config{Kind: KindRead, Batch: readBatch(1), Proxy: gate})
	require.NoError(t, err)

	rec := &recorder{}
	op.Done(func(*Operation) { rec.add("done") }).
		Fail(func(*Operation, error) { rec.add("fail") }).
		Cancel(func(*Operation) { rec.add("cancel") }).
		Always(func(*Operation) { rec.add("always") })

	op.Abort()

	assert.Equal(t, StateAborted, op.State())
	assert.Equal(t, 1, gate.abortedCount(), "proxy abort hook invoked")
	assert.Equal(t, []string{"cancel", "always"}, rec.get())
	assert.ErrorIs(t, op.Wait(context.Background()), errors.ErrAborted)
	assert.True(t, errors.IsAborted(op.Wait(context.Background())))

	// The request completes after the abort; the outcome must not change.
	close(gate.release)
	require.Eventually(t, func() bool { return op.Batch().IsComplete() }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, StateAborted, op.State())
	assert.NoError(t, op.Err())
	assert.Equal(t, []string{"cancel", "always"}, rec.get())

	op.Abort()
	assert.Equal(t, []string{"cancel", "always"}, rec.get(), "second abort is a no-op")
}

func TestAbortAfterTerminalIsNoop(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		state State
	}{
		{name: "resolved", state: StateResolved},
		{name: "rejected", err: stderrors.New("boom"), state: StateRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := openGate()
			gate.err = tt.err
			op, err := Run(context.Background(), Config{Batch: readBatch(1), Proxy: gate})
			require.NoError(t, err)
			wait(t, op)

			cancelled := false
			op.Cancel(func(*Operation) { cancelled = true })
			op.Abort()

			assert.Equal(t, tt.state, op.State())
			assert.False(t, cancelled)
			assert.Zero(t, gate.abortedCount())
		})
	}
}

func TestAbortBeforeStart(t *testing.T) {
	gate := openGate()
	op, err := New(Config{Batch: readBatch(1), Proxy: gate})
	require.NoError(t, err)

	op.Abort()
	require.NoError(t, op.Start(context.Background()))

	assert.Equal(t, StateAborted, op.State())
	assert.False(t, op.Batch().IsComplete(), "nothing was dispatched")
}

func TestStartErrors(t *testing.T) {
	t.Run("no proxy", func(t *testing.T) {
		op, err := New(Config{Batch: readBatch(1)})
		require.NoError(t, err)

		err = op.Start(context.Background())
		assert.ErrorIs(t, err, errors.ErrNoProxy)
		assert.True(t, errors.IsConfiguration(err))
		assert.Equal(t, StatePending, op.State())
	})

	t.Run("request proxy is enough", func(t *testing.T) {
		gate := openGate()
		req := request.NewReadRequest(request.ReadConfig{Config: request.Config{Proxy: gate}})
		op, err := Run(context.Background(), Config{Batch: request.NewBatch(req)})
		require.NoError(t, err)
		wait(t, op)
		assert.Equal(t, StateResolved, op.State())
	})

	t.Run("twice", func(t *testing.T) {
		op, err := Run(context.Background(), Config{Batch: readBatch(1), Proxy: openGate()})
		require.NoError(t, err)
		assert.True(t, errors.IsConfiguration(op.Start(context.Background())))
	})
}

func TestEmptyBatchResolves(t *testing.T) {
	op, err := Run(context.Background(), Config{Batch: request.NewBatch(), Proxy: openGate()})
	require.NoError(t, err)
	wait(t, op)

	assert.Equal(t, StateResolved, op.State())
	assert.Nil(t, op.ResultSet())
}

func TestWaitHonorsContext(t *testing.T) {
	gate := newGate()
	defer close(gate.release)
	op, err := Run(context.Background(), Config{Batch: readBatch(1), Proxy: gate})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, op.Wait(ctx), context.DeadlineExceeded)
	assert.Equal(t, StatePending, op.State())
}

func TestParentContextCancelRejects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &silentProxy{}
	op, err := Run(ctx, Config{Batch: readBatch(1), Proxy: p})
	require.NoError(t, err)

	cancel()
	wait(t, op)
	assert.Equal(t, StateRejected, op.State())
	assert.ErrorIs(t, op.Err(), context.Canceled)
}

// silentProxy returns without settling once ctx is done.
type silentProxy struct{}

func (silentProxy) Create(ctx context.Context, _ *request.WriteRequest)  { <-ctx.Done() }
func (silentProxy) Read(ctx context.Context, _ *request.ReadRequest)     { <-ctx.Done() }
func (silentProxy) Update(ctx context.Context, _ *request.WriteRequest)  { <-ctx.Done() }
func (silentProxy) Destroy(ctx context.Context, _ *request.WriteRequest) { <-ctx.Done() }

func TestFirstFailureRejectsWithoutWaiting(t *testing.T) {
	boom := stderrors.New("boom")
	failing := openGate()
	failing.err = boom
	hung := newGate()
	defer close(hung.release)

	slow := request.NewReadRequest(request.ReadConfig{Config: request.Config{Proxy: hung}})
	batch := request.NewBatch(
		request.NewReadRequest(request.ReadConfig{Config: request.Config{Proxy: failing}}),
		slow,
	)

	var failErr error
	op, err := New(Config{Kind: KindRead, Batch: batch})
	require.NoError(t, err)
	op.Fail(func(_ *Operation, err error) { failErr = err })
	require.NoError(t, op.Start(context.Background()))

	wait(t, op)
	assert.Equal(t, StateRejected, op.State())
	assert.ErrorIs(t, failErr, boom)
	assert.ErrorIs(t, op.Wait(context.Background()), boom)
	assert.False(t, slow.IsComplete())
}

func TestFailureCancelsRemainingRequests(t *testing.T) {
	failing := openGate()
	failing.err = stderrors.New("boom")
	pending := &cancelledProxy{cancelled: make(chan struct{})}

	batch := request.NewBatch(
		request.NewReadRequest(request.ReadConfig{Config: request.Config{Proxy: failing}}),
		request.NewReadRequest(request.ReadConfig{Config: request.Config{Proxy: pending}}),
	)
	op, err := Run(context.Background(), Config{Batch: batch})
	require.NoError(t, err)
	wait(t, op)
	assert.Equal(t, StateRejected, op.State())

	select {
	case <-pending.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("remaining request was not cancelled")
	}
}

// cancelledProxy closes cancelled once the context of a read is done.
type cancelledProxy struct {
	silentProxy
	cancelled chan struct{}
}

func (c *cancelledProxy) Read(ctx context.Context, _ *request.ReadRequest) {
	<-ctx.Done()
	close(c.cancelled)
}

func TestRejectWithoutErrorStillReportsOne(t *testing.T) {
	nilFail := &nilExceptionProxy{}
	op, err := Run(context.Background(), Config{Kind: KindSave, Batch: readBatch(1), Proxy: nilFail})
	require.NoError(t, err)
	wait(t, op)

	assert.Equal(t, StateRejected, op.State())
	require.Error(t, op.Err())
	assert.ErrorIs(t, op.Wait(context.Background()), errors.ErrRequestFailed)
}

// nilExceptionProxy fails every request without giving an error.
type nilExceptionProxy struct{}

func (nilExceptionProxy) Create(_ context.Context, r *request.WriteRequest)  { r.SetException(nil) }
func (nilExceptionProxy) Read(_ context.Context, r *request.ReadRequest)     { r.SetException(nil) }
func (nilExceptionProxy) Update(_ context.Context, r *request.WriteRequest)  { r.SetException(nil) }
func (nilExceptionProxy) Destroy(_ context.Context, r *request.WriteRequest) { r.SetException(nil) }
