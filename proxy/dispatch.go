/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxy

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/metrics"
	"github.com/suparena/modelstore/request"
)

// NameOf returns the name a proxy reports in logs and metrics.
func NameOf(p request.Proxy) string {
	if n, ok := p.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}

// Dispatch sends req to the CRUD method of p matching its action and returns the
// request's exception once p returns.
func Dispatch(ctx context.Context, p request.Proxy, req request.Request) error {
	if p == nil {
		return fmt.Errorf("%w: %w", errors.ErrConfiguration, errors.ErrNoProxy)
	}

	start := time.Now()
	switch r := req.(type) {
	case *request.ReadRequest:
		p.Read(ctx, r)
	case *request.WriteRequest:
		switch r.Action() {
		case request.ActionCreate:
			p.Create(ctx, r)
		case request.ActionUpdate:
			p.Update(ctx, r)
		case request.ActionDestroy:
			p.Destroy(ctx, r)
		}
	default:
		if req.Proxy() == nil {
			req.SetProxy(p)
		}
		if err := req.Execute(ctx); errors.IsConfiguration(err) {
			return err
		}
	}

	outcome := metrics.OutcomePending
	switch {
	case req.WasSuccessful():
		outcome = metrics.OutcomeSuccess
	case req.HasErrored():
		outcome = metrics.OutcomeError
	}
	metrics.RecordRequest(NameOf(p), string(req.Action()), outcome, time.Since(start))

	return req.Exception()
}

// ExecuteBatch dispatches every request of b concurrently and waits for all of
// them. Requests without their own proxy go to p. It returns the first failure;
// b.Err has all of them.
func ExecuteBatch(ctx context.Context, p request.Proxy, b *request.Batch) error {
	var g errgroup.Group
	for _, req := range b.Requests() {
		req := req // per-iteration copy (pre-Go 1.22 loop semantics)
		target := req.Proxy()
		if target == nil {
			target = p
		}
		g.Go(func() error {
			return Dispatch(ctx, target, req)
		})
	}
	return g.Wait()
}
