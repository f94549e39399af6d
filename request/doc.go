/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package request holds the units of work sent to a storage proxy.
//
// A ReadRequest loads one model by id or a window of a collection; a WriteRequest
// creates, updates or destroys an ordered list of models. A proxy settles each
// request exactly once, with a result set and success or with an exception.
//
// Requests issued together are grouped in a Batch. Batch ids increase with every
// batch created in the process, which lets consumers discard results of a batch
// that was issued before the one they last applied:
//
//	b1 := request.NewBatch(request.NewReadRequest(request.ReadConfig{}))
//	b2 := request.NewBatch(request.NewReadRequest(request.ReadConfig{}))
//	b2.IsNewerThan(b1) // true
package request
