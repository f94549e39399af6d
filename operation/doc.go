/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package operation provides the asynchronous handle returned for a load, save
// or destroy.
//
// An Operation runs a request.Batch and moves from pending to exactly one of
// resolved, rejected or aborted; the transitions are driven by a small state
// machine that only accepts events while pending. Callbacks registered before
// the outcome run in registration order once it is known; callbacks registered
// afterwards run immediately with the known outcome.
//
//	op, err := operation.Run(ctx, operation.Config{Kind: operation.KindRead, Batch: batch, Proxy: p})
//	if err != nil {
//		return err
//	}
//	op.Done(func(op *operation.Operation) {
//		use(op.ResultSet().Records())
//	}).Fail(func(_ *operation.Operation, err error) {
//		log.Println(err)
//	})
//
// Aborting is not a failure: fail callbacks never run for an aborted operation,
// and a request that settles after the abort cannot change the outcome.
package operation
