/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package request

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

// Action names the proxy method a request is dispatched to.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDestroy Action = "destroy"
)

// Proxy is the storage backend contract. Each method must settle the request it is
// given, with SetResultSet+SetSuccess or with SetException, before returning,
// unless ctx is cancelled first.
type Proxy interface {
	Create(ctx context.Context, req *WriteRequest)
	Read(ctx context.Context, req *ReadRequest)
	Update(ctx context.Context, req *WriteRequest)
	Destroy(ctx context.Context, req *WriteRequest)
}

// Model is what a write request needs from the models it carries.
type Model interface {
	// ID returns the model's identifier, "" while it has never been persisted.
	ID() string
	// IDAttribute returns the name of the attribute holding the identifier.
	IDAttribute() string
	// ModelName returns the name of the model class.
	ModelName() string
	// PersistedData returns the attributes that round-trip to storage.
	PersistedData() storagemodels.Record
}

// Request is one CRUD unit of work. It is executed once and ends in exactly one of
// success or error.
type Request interface {
	Action() Action
	Params() storagemodels.Params
	Proxy() Proxy
	SetProxy(p Proxy)
	Execute(ctx context.Context) error

	ResultSet() *storagemodels.ResultSet
	SetResultSet(rs *storagemodels.ResultSet)
	SetSuccess()
	SetException(err error)
	Exception() error

	IsComplete() bool
	WasSuccessful() bool
	HasErrored() bool
	// Done is closed once the request is settled.
	Done() <-chan struct{}
}

// Config holds the settings common to all requests.
type Config struct {
	Proxy  Proxy
	Params storagemodels.Params
	Logger *zap.SugaredLogger
}

// base carries the state shared by read and write requests.
type base struct {
	mu        sync.RWMutex
	action    Action
	proxy     Proxy
	params    storagemodels.Params
	resultSet *storagemodels.ResultSet
	success   bool
	errored   bool
	exception error
	done      chan struct{}
	logger    *zap.SugaredLogger
}

func (b *base) init(action Action, cfg Config) {
	b.logger = cfg.Logger
	if b.logger == nil {
		b.logger = zap.S()
	}
	b.action = action
	b.proxy = cfg.Proxy
	b.params = cfg.Params.Clone()
	b.done = make(chan struct{})
}

// Action returns the CRUD action of the request.
func (b *base) Action() Action { return b.action }

// Params returns the backend specific parameters.
func (b *base) Params() storagemodels.Params { return b.params }

// Proxy returns the proxy the request is sent to.
func (b *base) Proxy() Proxy {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.proxy
}

// SetProxy sets the proxy the request is sent to.
func (b *base) SetProxy(p Proxy) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.proxy = p
}

// ResultSet returns the result set set by the proxy, nil until then.
func (b *base) ResultSet() *storagemodels.ResultSet {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.resultSet
}

// SetResultSet stores the proxy's result. It is ignored once the request is complete.
func (b *base) SetResultSet(rs *storagemodels.ResultSet) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.success || b.errored {
		return
	}
	b.resultSet = rs
}

// SetSuccess marks the request successful. Only the first settlement counts.
func (b *base) SetSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.success || b.errored {
		b.logger.Debugw("Ignoring repeated settlement", "action", b.action, "settlement", "success")
		return
	}
	b.success = true
	close(b.done)
}

// SetException marks the request failed with err, or with errors.ErrRequestFailed
// when err is nil. Only the first settlement counts.
func (b *base) SetException(err error) {
	if err == nil {
		err = errors.ErrRequestFailed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.success || b.errored {
		b.logger.Debugw("Ignoring repeated settlement", "action", b.action, "settlement", "error", "error", err)
		return
	}
	b.errored = true
	b.exception = err
	close(b.done)
}

// Exception returns the error the request failed with.
func (b *base) Exception() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exception
}

// IsComplete reports whether the request has been settled.
func (b *base) IsComplete() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.success || b.errored
}

// WasSuccessful reports whether the request succeeded.
func (b *base) WasSuccessful() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.success
}

// HasErrored reports whether the request failed.
func (b *base) HasErrored() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.errored
}

// Done is closed once the request is settled.
func (b *base) Done() <-chan struct{} {
	return b.done
}
