/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package request

import (
	"context"
	"fmt"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

// WriteConfig configures a WriteRequest.
type WriteConfig struct {
	Config
	Models []Model
}

// WriteRequest creates, updates or destroys an ordered list of models.
type WriteRequest struct {
	base
	models []Model
}

// NewCreateRequest creates a pending create request.
func NewCreateRequest(cfg WriteConfig) *WriteRequest {
	return newWriteRequest(ActionCreate, cfg)
}

// NewUpdateRequest creates a pending update request.
func NewUpdateRequest(cfg WriteConfig) *WriteRequest {
	return newWriteRequest(ActionUpdate, cfg)
}

// NewDestroyRequest creates a pending destroy request.
func NewDestroyRequest(cfg WriteConfig) *WriteRequest {
	return newWriteRequest(ActionDestroy, cfg)
}

func newWriteRequest(action Action, cfg WriteConfig) *WriteRequest {
	w := &WriteRequest{}
	for _, m := range cfg.Models {
		if m != nil {
			w.models = append(w.models, m)
		}
	}
	w.init(action, cfg.Config)
	return w
}

// Models returns the models being written, in order.
func (w *WriteRequest) Models() []Model {
	out := make([]Model, len(w.models))
	copy(out, w.models)
	return out
}

// Records returns the persisted data of each model, in order.
func (w *WriteRequest) Records() []storagemodels.Record {
	out := make([]storagemodels.Record, 0, len(w.models))
	for _, m := range w.models {
		out = append(out, m.PersistedData())
	}
	return out
}

// Execute sends the request to the proxy method matching its action and returns
// the request's exception. A request without proxy is a configuration error and
// stays pending.
func (w *WriteRequest) Execute(ctx context.Context) error {
	p := w.Proxy()
	if p == nil {
		return fmt.Errorf("%w: %w", errors.ErrConfiguration, errors.ErrNoProxy)
	}
	w.logger.Debugw("Executing request", "action", w.action, "models", len(w.models))

	switch w.action {
	case ActionCreate:
		p.Create(ctx, w)
	case ActionUpdate:
		p.Update(ctx, w)
	case ActionDestroy:
		p.Destroy(ctx, w)
	}
	return w.Exception()
}
