/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/operation"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

// LoadOptions selects what a collection load reads. Page and PageSize take
// precedence over Start and Limit when both are set.
type LoadOptions struct {
	Page     int
	PageSize int
	Start    int
	Limit    int
	// Params are passed to the proxy unchanged.
	Params storagemodels.Params
}

// Collection is an ordered list of models of one class.
type Collection struct {
	observable

	class *Class

	mu     sync.RWMutex
	models []*Model
	total  *int
	latest *request.Batch

	// applyMu serializes the stale check and apply of resolved batches.
	applyMu sync.Mutex
}

// Class returns the class of the members.
func (c *Collection) Class() *Class { return c.class }

// Add appends items, which may be models of the collection's class or records
// instantiated through it.
func (c *Collection) Add(items ...any) error {
	added := make([]*Model, 0, len(items))
	for _, item := range items {
		m, err := c.toModel(item)
		if err != nil {
			return err
		}
		added = append(added, m)
	}

	c.mu.Lock()
	c.models = append(c.models, added...)
	c.mu.Unlock()

	for _, m := range added {
		m.AddParent(c, "")
		c.fire(ChangeEvent{Target: c, Value: m})
	}
	return nil
}

func (c *Collection) toModel(item any) (*Model, error) {
	switch v := item.(type) {
	case *Model:
		if v == nil || v.class != c.class {
			return nil, errors.NewValidationError("", fmt.Sprintf("%s collection only holds %s models", c.class.name, c.class.name))
		}
		return v, nil
	case storagemodels.Record:
		return c.class.New(v)
	}
	return nil, errors.NewValidationError("", fmt.Sprintf("cannot add %T to a %s collection", item, c.class.name))
}

// Remove takes m out of the collection and reports whether it was a member.
func (c *Collection) Remove(m *Model) bool {
	c.mu.Lock()
	i := slices.Index(c.models, m)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.models = slices.Delete(c.models, i, i+1)
	c.mu.Unlock()

	m.RemoveParent(c, "")
	c.fire(ChangeEvent{Target: c, Old: m})
	return true
}

// At returns the model at index i, nil when out of range.
func (c *Collection) At(i int) *Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i < 0 || i >= len(c.models) {
		return nil
	}
	return c.models[i]
}

// Len returns the number of models held.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Models returns the members in order.
func (c *Collection) Models() []*Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.models)
}

// TotalCount returns the total reported by the last load, or Len when nothing
// was loaded.
func (c *Collection) TotalCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.total != nil {
		return *c.total
	}
	return len(c.models)
}

// PersistedData returns the persisted data of every member.
func (c *Collection) PersistedData() []storagemodels.Record {
	models := c.Models()
	out := make([]storagemodels.Record, len(models))
	for i, m := range models {
		out[i] = m.PersistedData()
	}
	return out
}

// OnChange registers fn for membership changes and changes of members.
func (c *Collection) OnChange(fn func(ChangeEvent)) {
	c.onChange(fn)
}

// AddParent implements attribute.ParentAware.
func (c *Collection) AddParent(parent any, attribute string) {
	c.addParent(parent, attribute)
}

// RemoveParent implements attribute.ParentAware.
func (c *Collection) RemoveParent(parent any, attribute string) {
	c.removeParent(parent, attribute)
}

func (c *Collection) childChanged(_ string, ev ChangeEvent) {
	c.fire(ChangeEvent{Target: c, Value: ev.Target, Cause: &ev})
}

// reset replaces the members and the total.
func (c *Collection) reset(models []*Model, total int) {
	c.mu.Lock()
	old := c.models
	c.models = models
	c.total = &total
	c.mu.Unlock()

	for _, m := range old {
		m.RemoveParent(c, "")
	}
	for _, m := range models {
		m.AddParent(c, "")
	}
	c.fire(ChangeEvent{Target: c, Value: slices.Clone(models), Old: old})
}

func (c *Collection) issue(b *request.Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b.IsNewerThan(c.latest) {
		c.latest = b
	}
}

func (c *Collection) isStale(b *request.Batch) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest != nil && c.latest.IsNewerThan(b)
}

// Load reads a window of records and replaces the members with them when the
// operation resolves. When loads overlap, the last one issued wins even if an
// earlier one completes after it.
func (c *Collection) Load(ctx context.Context, opts LoadOptions) (*operation.Operation, error) {
	req := request.NewReadRequest(request.ReadConfig{
		Config:   request.Config{Proxy: c.class.proxy, Params: opts.Params, Logger: c.class.logger},
		Page:     opts.Page,
		PageSize: opts.PageSize,
		Start:    opts.Start,
		Limit:    opts.Limit,
	})
	b := request.NewBatch(req)

	return c.run(ctx, operation.KindRead, b, func(op *operation.Operation) error {
		rs := op.ResultSet()
		models := make([]*Model, 0, len(rs.Records()))
		for _, rec := range rs.Records() {
			m, err := c.class.New(rec)
			if err != nil {
				return err
			}
			models = append(models, m)
		}
		c.reset(models, rs.TotalCount())
		return nil
	})
}

// Save creates the new members and updates the others in one batch. Records
// returned by the proxy are applied to the members they were sent for.
func (c *Collection) Save(ctx context.Context) (*operation.Operation, error) {
	var created, updated []request.Model
	for _, m := range c.Models() {
		if m.IsNew() {
			created = append(created, m)
		} else {
			updated = append(updated, m)
		}
	}

	base := request.Config{Proxy: c.class.proxy, Logger: c.class.logger}
	var reqs []request.Request
	if len(created) > 0 {
		reqs = append(reqs, request.NewCreateRequest(request.WriteConfig{Config: base, Models: created}))
	}
	if len(updated) > 0 {
		reqs = append(reqs, request.NewUpdateRequest(request.WriteConfig{Config: base, Models: updated}))
	}
	b := request.NewBatch(reqs...)

	return c.run(ctx, operation.KindSave, b, func(op *operation.Operation) error {
		for _, req := range b.Requests() {
			w, ok := req.(*request.WriteRequest)
			if !ok {
				continue
			}
			recs := w.ResultSet().Records()
			for i, rm := range w.Models() {
				m, ok := rm.(*Model)
				if !ok || i >= len(recs) {
					continue
				}
				if err := m.SetData(recs[i]); err != nil {
					return err
				}
				m.Commit()
			}
		}
		return nil
	})
}

func (c *Collection) run(ctx context.Context, kind string, b *request.Batch, apply func(*operation.Operation) error) (*operation.Operation, error) {
	op, err := operation.New(operation.Config{Kind: kind, Batch: b, Proxy: c.class.proxy, Logger: c.class.logger})
	if err != nil {
		return nil, err
	}

	op.Done(func(op *operation.Operation) {
		c.applyMu.Lock()
		defer c.applyMu.Unlock()
		if c.isStale(b) {
			c.class.logger.Debugw("Discarding stale result", "operation", kind, "batch", b.ID())
			return
		}
		if err := apply(op); err != nil {
			c.class.logger.Errorw("Failed to apply result", "operation", kind, "error", err)
		}
	})
	c.issue(b)
	if err := op.Start(ctx); err != nil {
		return nil, err
	}
	return op, nil
}
