/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package request

import (
	"context"
	"fmt"
	"strconv"

	"github.com/suparena/modelstore/errors"
)

// ReadConfig configures a ReadRequest. Page/PageSize and Start/Limit are
// alternative ways to address a window; when both are given the page wins.
type ReadConfig struct {
	Config

	// ModelID selects a single model. Non-string ids are formatted as strings.
	ModelID any

	// Page is 1-based.
	Page     int
	PageSize int

	Start int
	// Limit 0 means unbounded.
	Limit int
}

// ReadRequest loads one model or a window of a collection.
type ReadRequest struct {
	base
	modelID  string
	page     int
	pageSize int
	start    int
	limit    int
}

// NewReadRequest creates a pending read request.
func NewReadRequest(cfg ReadConfig) *ReadRequest {
	r := &ReadRequest{
		modelID:  coerceID(cfg.ModelID),
		page:     nonNegative(cfg.Page),
		pageSize: nonNegative(cfg.PageSize),
		start:    nonNegative(cfg.Start),
		limit:    nonNegative(cfg.Limit),
	}
	r.init(ActionRead, cfg.Config)
	return r
}

// ModelID returns the id of the single model to load, "" for collection reads.
func (r *ReadRequest) ModelID() string { return r.modelID }

// HasModelID reports whether the request targets a single model.
func (r *ReadRequest) HasModelID() bool { return r.modelID != "" }

func (r *ReadRequest) paged() bool {
	return r.page > 0 && r.pageSize > 0
}

// Start returns the offset of the first record, (page-1)*pageSize for paged reads.
func (r *ReadRequest) Start() int {
	if r.paged() {
		return (r.page - 1) * r.pageSize
	}
	return r.start
}

// Limit returns the number of records to load; 0 means unbounded.
func (r *ReadRequest) Limit() int {
	if r.paged() {
		return r.pageSize
	}
	return r.limit
}

// Page returns the 1-based page, derived from start/limit when no page was given.
func (r *ReadRequest) Page() int {
	if r.paged() {
		return r.page
	}
	if r.limit > 0 {
		return r.start/r.limit + 1
	}
	return 1
}

// PageSize returns the page length, the limit when no page was given.
func (r *ReadRequest) PageSize() int {
	if r.paged() {
		return r.pageSize
	}
	return r.limit
}

// Execute sends the request to its proxy's Read method and returns the request's
// exception. A request without proxy is a configuration error and stays pending.
func (r *ReadRequest) Execute(ctx context.Context) error {
	p := r.Proxy()
	if p == nil {
		return fmt.Errorf("%w: %w", errors.ErrConfiguration, errors.ErrNoProxy)
	}
	r.logger.Debugw("Executing request", "action", r.action, "modelID", r.modelID, "start", r.Start(), "limit", r.Limit())
	p.Read(ctx, r)
	return r.Exception()
}

func coerceID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
