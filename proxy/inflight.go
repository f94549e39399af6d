/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxy

import (
	"context"
	"sync"

	"github.com/suparena/modelstore/request"
)

// Inflight tracks cancel functions of running requests so a proxy can implement
// Aborter. The zero value is ready to use.
type Inflight struct {
	mu      sync.Mutex
	cancels map[request.Request]context.CancelFunc
}

// Track derives a cancellable context for req. Call release once the request's
// I/O is finished.
func (f *Inflight) Track(ctx context.Context, req request.Request) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	if f.cancels == nil {
		f.cancels = make(map[request.Request]context.CancelFunc)
	}
	f.cancels[req] = cancel
	f.mu.Unlock()

	return ctx, func() {
		f.mu.Lock()
		delete(f.cancels, req)
		f.mu.Unlock()
		cancel()
	}
}

// Abort cancels the context of req. It reports whether req was in flight.
func (f *Inflight) Abort(req request.Request) bool {
	f.mu.Lock()
	cancel, ok := f.cancels[req]
	f.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

// Len returns the number of requests in flight.
func (f *Inflight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cancels)
}
