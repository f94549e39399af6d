/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package request

import (
	"errors"
	"sync/atomic"
)

// batchSeq hands out batch ids in issuance order.
var batchSeq atomic.Uint64

// Batch is an ordered, immutable group of requests issued together. Its id grows
// with every batch created in the process, so consumers can tell which of two
// batches was issued last regardless of which finished last.
type Batch struct {
	id       uint64
	requests []Request
}

// NewBatch groups the given requests and assigns the next batch id.
func NewBatch(reqs ...Request) *Batch {
	b := &Batch{
		id:       batchSeq.Add(1),
		requests: make([]Request, 0, len(reqs)),
	}
	for _, r := range reqs {
		if r != nil {
			b.requests = append(b.requests, r)
		}
	}
	return b
}

// ID returns the batch's issuance order.
func (b *Batch) ID() uint64 { return b.id }

// IsNewerThan reports whether b was issued after other. Any batch is newer than nil.
func (b *Batch) IsNewerThan(other *Batch) bool {
	if other == nil {
		return true
	}
	return b.id > other.id
}

// Requests returns the requests in order.
func (b *Batch) Requests() []Request {
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Len returns the number of requests.
func (b *Batch) Len() int { return len(b.requests) }

// WasSuccessful reports whether no request has errored. True for an empty batch.
func (b *Batch) WasSuccessful() bool {
	for _, r := range b.requests {
		if r.HasErrored() {
			return false
		}
	}
	return true
}

// HasErrored is the complement of WasSuccessful.
func (b *Batch) HasErrored() bool {
	return !b.WasSuccessful()
}

// IsComplete reports whether every request is settled. True for an empty batch.
func (b *Batch) IsComplete() bool {
	for _, r := range b.requests {
		if !r.IsComplete() {
			return false
		}
	}
	return true
}

// SuccessfulRequests returns the requests that succeeded.
func (b *Batch) SuccessfulRequests() []Request {
	var out []Request
	for _, r := range b.requests {
		if r.WasSuccessful() {
			out = append(out, r)
		}
	}
	return out
}

// ErroredRequests returns the requests that failed.
func (b *Batch) ErroredRequests() []Request {
	var out []Request
	for _, r := range b.requests {
		if r.HasErrored() {
			out = append(out, r)
		}
	}
	return out
}

// Err joins the exceptions of the failed requests, nil when none failed.
func (b *Batch) Err() error {
	var errs []error
	for _, r := range b.ErroredRequests() {
		errs = append(errs, r.Exception())
	}
	return errors.Join(errs...)
}
