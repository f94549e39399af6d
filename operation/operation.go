/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package operation

import (
	"context"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/metrics"
	"github.com/suparena/modelstore/proxy"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

// State is the lifecycle state of an Operation.
type State string

const (
	StatePending  State = "pending"
	StateResolved State = "resolved"
	StateRejected State = "rejected"
	StateAborted  State = "aborted"
)

const (
	EventResolve = "resolve"
	EventReject  = "reject"
	EventAbort   = "abort"
)

// Kinds used by models and collections.
const (
	KindRead    = "read"
	KindSave    = "save"
	KindDestroy = "destroy"
)

// Config configures an Operation.
type Config struct {
	// Kind labels the operation in logs and metrics.
	Kind string
	// Batch holds the requests to run. Required.
	Batch *request.Batch
	// Proxy serves requests that have no proxy of their own.
	Proxy request.Proxy
	Logger *zap.SugaredLogger
}

type listener struct {
	on   State
	fire func(*Operation)
}

// Operation runs a batch of requests and reports a single outcome: resolved when
// every request succeeded, rejected when any failed, or aborted by the caller.
// Once terminal, an Operation never changes state again.
type Operation struct {
	kind   string
	batch  *request.Batch
	proxy  request.Proxy
	logger *zap.SugaredLogger

	mu        sync.Mutex
	machine   *fsm.FSM
	err       error
	started   bool
	cancelRun context.CancelFunc
	listeners []listener
	done      chan struct{}
}

// New creates a pending operation. A missing batch is a configuration error.
func New(cfg Config) (*Operation, error) {
	if cfg.Batch == nil {
		return nil, errors.NewConfigError("operation", "batch is required")
	}
	if cfg.Kind == "" {
		cfg.Kind = KindRead
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.S()
	}

	return &Operation{
		kind:   cfg.Kind,
		batch:  cfg.Batch,
		proxy:  cfg.Proxy,
		logger: cfg.Logger.With("operation", cfg.Kind, "batch", cfg.Batch.ID()),
		machine: fsm.NewFSM(
			string(StatePending),
			fsm.Events{
				{Name: EventResolve, Src: []string{string(StatePending)}, Dst: string(StateResolved)},
				{Name: EventReject, Src: []string{string(StatePending)}, Dst: string(StateRejected)},
				{Name: EventAbort, Src: []string{string(StatePending)}, Dst: string(StateAborted)},
			},
			fsm.Callbacks{},
		),
		done: make(chan struct{}),
	}, nil
}

// Run creates an operation and starts it.
func Run(ctx context.Context, cfg Config) (*Operation, error) {
	op, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := op.Start(ctx); err != nil {
		return nil, err
	}
	return op, nil
}

// Start dispatches every request of the batch in the background. Requests
// without a proxy of their own go to the operation's proxy; if neither exists
// Start fails with a configuration error and nothing runs. Starting an aborted
// operation does nothing.
func (o *Operation) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return errors.NewConfigError("operation", "already started")
	}
	if State(o.machine.Current()) != StatePending {
		o.mu.Unlock()
		return nil
	}
	for _, req := range o.batch.Requests() {
		if req.Proxy() == nil && o.proxy == nil {
			o.mu.Unlock()
			return fmt.Errorf("%w: %w", errors.ErrConfiguration, errors.ErrNoProxy)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.started = true
	o.cancelRun = cancel
	o.mu.Unlock()

	o.logger.Debugw("Starting operation", "requests", o.batch.Len())

	go func() {
		defer cancel()
		for _, req := range o.batch.Requests() {
			go o.watch(runCtx, cancel, req)
		}
		_ = proxy.ExecuteBatch(runCtx, o.proxy, o.batch)
		o.finish(runCtx)
	}()
	return nil
}

// watch rejects the operation as soon as req fails and cancels the requests
// still running.
func (o *Operation) watch(ctx context.Context, cancel context.CancelFunc, req request.Request) {
	select {
	case <-req.Done():
	case <-ctx.Done():
		return
	}
	if !req.HasErrored() || !o.IsPending() {
		return
	}
	if o.settle(EventReject, o.batch.Err()) {
		cancel()
	}
}

// finish settles the operation from the batch outcome, unless a failed request
// already rejected it.
func (o *Operation) finish(ctx context.Context) {
	if !o.IsPending() {
		return
	}
	switch {
	case o.batch.HasErrored():
		o.settle(EventReject, o.batch.Err())
	case !o.batch.IsComplete():
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("proxy returned without settling a request")
		}
		o.settle(EventReject, err)
	default:
		o.settle(EventResolve, nil)
	}
}

// settle moves a pending operation to a terminal state and fires the listeners.
// It reports whether the transition happened.
func (o *Operation) settle(event string, err error) bool {
	o.mu.Lock()
	current := State(o.machine.Current())
	if current != StatePending {
		o.mu.Unlock()
		o.logger.Warnw("Ignoring late settlement", "state", current, "event", event, "error", err)
		return false
	}
	if ferr := o.machine.Event(context.Background(), event); ferr != nil {
		o.mu.Unlock()
		o.logger.Errorw("State transition failed", "event", event, "error", ferr)
		return false
	}
	o.err = err
	listeners := o.listeners
	o.listeners = nil
	state := State(o.machine.Current())
	o.mu.Unlock()

	o.logger.Debugw("Operation settled", "state", state, "error", err)
	metrics.RecordOperation(o.kind, string(state))

	for _, l := range listeners {
		if l.on == state {
			l.fire(o)
		}
	}
	close(o.done)
	return true
}

// Abort cancels a pending operation: in-flight requests are aborted on proxies
// that support it, the run context is cancelled and cancel callbacks fire.
// Settlements arriving afterwards are ignored. Aborting a terminal operation
// does nothing.
func (o *Operation) Abort() {
	o.mu.Lock()
	cancel := o.cancelRun
	o.mu.Unlock()

	if !o.settle(EventAbort, nil) {
		return
	}

	for _, req := range o.batch.Requests() {
		if req.IsComplete() {
			continue
		}
		target := req.Proxy()
		if target == nil {
			target = o.proxy
		}
		if a, ok := target.(proxy.Aborter); ok {
			a.Abort(req)
		}
	}
	if cancel != nil {
		cancel()
	}
}

// on registers fire for state, or runs it now when the operation already ended in state.
func (o *Operation) on(state State, fire func(*Operation)) *Operation {
	o.mu.Lock()
	current := State(o.machine.Current())
	if current == StatePending {
		o.listeners = append(o.listeners, listener{on: state, fire: fire})
		o.mu.Unlock()
		return o
	}
	o.mu.Unlock()

	if current == state {
		fire(o)
	}
	return o
}

// Done registers fn to run when the operation resolves.
func (o *Operation) Done(fn func(*Operation)) *Operation {
	return o.on(StateResolved, fn)
}

// Fail registers fn to run with the error when the operation is rejected.
func (o *Operation) Fail(fn func(*Operation, error)) *Operation {
	return o.on(StateRejected, func(op *Operation) { fn(op, op.Err()) })
}

// Cancel registers fn to run when the operation is aborted.
func (o *Operation) Cancel(fn func(*Operation)) *Operation {
	return o.on(StateAborted, fn)
}

// Always registers fn to run on any terminal state.
func (o *Operation) Always(fn func(*Operation)) *Operation {
	o.mu.Lock()
	current := State(o.machine.Current())
	if current == StatePending {
		for _, s := range []State{StateResolved, StateRejected, StateAborted} {
			o.listeners = append(o.listeners, listener{on: s, fire: fn})
		}
		o.mu.Unlock()
		return o
	}
	o.mu.Unlock()

	fn(o)
	return o
}

// Then registers done and fail together. Either may be nil.
func (o *Operation) Then(done func(*Operation), fail func(*Operation, error)) *Operation {
	if done != nil {
		o.Done(done)
	}
	if fail != nil {
		o.Fail(fail)
	}
	return o
}

// Kind returns the operation kind.
func (o *Operation) Kind() string { return o.kind }

// Batch returns the batch the operation runs.
func (o *Operation) Batch() *request.Batch { return o.batch }

// State returns the current state.
func (o *Operation) State() State {
	return State(o.machine.Current())
}

// IsPending reports whether the operation has not settled yet.
func (o *Operation) IsPending() bool {
	return o.State() == StatePending
}

// Err returns the rejection error, nil otherwise.
func (o *Operation) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// ResultSet returns the result set of the first request, nil before it succeeds.
func (o *Operation) ResultSet() *storagemodels.ResultSet {
	reqs := o.batch.Requests()
	if len(reqs) == 0 {
		return nil
	}
	return reqs[0].ResultSet()
}

// ResultSets returns the result sets of all requests, in order.
func (o *Operation) ResultSets() []*storagemodels.ResultSet {
	reqs := o.batch.Requests()
	out := make([]*storagemodels.ResultSet, len(reqs))
	for i, r := range reqs {
		out[i] = r.ResultSet()
	}
	return out
}

// Settled is closed once the operation reached a terminal state and the
// callbacks registered before that have run.
func (o *Operation) Settled() <-chan struct{} {
	return o.done
}

// Wait blocks until Settled is closed or ctx is done. It returns nil when
// resolved, the rejection error, or errors.ErrAborted. Calling Wait from a
// callback blocks forever.
func (o *Operation) Wait(ctx context.Context) error {
	select {
	case <-o.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	switch o.State() {
	case StateAborted:
		return errors.ErrAborted
	case StateRejected:
		return o.Err()
	}
	return nil
}
