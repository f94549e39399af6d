/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/operation"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

// Model is an instance of a Class. Attribute values are always stored in their
// converted form.
type Model struct {
	observable

	class *Class

	mu        sync.RWMutex
	values    map[string]any
	committed map[string]any
	latest    *request.Batch
	destroyed bool

	// applyMu serializes the stale check and apply of resolved batches.
	applyMu sync.Mutex
}

// Class returns the model's class.
func (m *Model) Class() *Class { return m.class }

// ModelName returns the class name.
func (m *Model) ModelName() string { return m.class.name }

// IDAttribute returns the name of the id attribute.
func (m *Model) IDAttribute() string { return m.class.idAttribute }

// ID returns the id as a string, "" when unset.
func (m *Model) ID() string {
	m.mu.RLock()
	v := m.values[m.class.idAttribute]
	m.mu.RUnlock()

	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	}
	return fmt.Sprint(v)
}

// IsNew reports whether the model has no id yet.
func (m *Model) IsNew() bool {
	return m.ID() == ""
}

// IsDestroyed reports whether a destroy of the model succeeded.
func (m *Model) IsDestroyed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.destroyed
}

// Get returns the value of an attribute after the attribute's get hook, nil for
// unknown attributes.
func (m *Model) Get(name string) any {
	attr, ok := m.class.byName[name]
	if !ok {
		return nil
	}
	m.mu.RLock()
	v := m.values[name]
	m.mu.RUnlock()
	return attr.Get(m, v)
}

// Set converts value and stores it. A change event fires when the stored value
// changed. Setting an undeclared attribute is a validation error; conversion
// itself never fails.
func (m *Model) Set(name string, value any) error {
	attr, ok := m.class.byName[name]
	if !ok {
		return errors.NewValidationError(name, fmt.Sprintf("%s has no such attribute", m.class.name))
	}

	m.mu.RLock()
	old := m.values[name]
	m.mu.RUnlock()

	v, err := attr.BeforeSet(m, value, old)
	if err != nil {
		return fmt.Errorf("set %s.%s: %w", m.class.name, name, err)
	}
	if attr.Equal(v, old) {
		return nil
	}

	m.mu.Lock()
	m.values[name] = v
	m.mu.Unlock()

	attr.AfterSet(m, v, old)
	m.fire(ChangeEvent{Target: m, Attribute: name, Value: v, Old: old})
	return nil
}

// SetData sets every declared attribute present in data. Other keys are ignored.
func (m *Model) SetData(data storagemodels.Record) error {
	for _, attr := range m.class.attributes {
		v, ok := data[attr.Name()]
		if !ok {
			continue
		}
		if err := m.Set(attr.Name(), v); err != nil {
			return err
		}
	}
	return nil
}

// Data returns every attribute value, as Get returns it.
func (m *Model) Data() storagemodels.Record {
	out := make(storagemodels.Record, len(m.class.attributes))
	for _, attr := range m.class.attributes {
		out[attr.Name()] = m.Get(attr.Name())
	}
	return out
}

// PersistedData returns the attributes that round-trip to storage. Nested
// models and collections are flattened to their own persisted data.
func (m *Model) PersistedData() storagemodels.Record {
	out := make(storagemodels.Record, len(m.class.attributes))
	for _, attr := range m.class.attributes {
		if !attr.Persist() {
			continue
		}
		out[attr.Name()] = persisted(m.Get(attr.Name()))
	}
	return out
}

func persisted(v any) any {
	switch nested := v.(type) {
	case *Model:
		if nested == nil {
			return nil
		}
		return nested.PersistedData()
	case *Collection:
		if nested == nil {
			return nil
		}
		return nested.PersistedData()
	}
	return v
}

// Commit marks the current values as the persisted state.
func (m *Model) Commit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = make(map[string]any, len(m.values))
	for k, v := range m.values {
		m.committed[k] = v
	}
}

// ModifiedAttributes returns the attributes changed since the last Commit, in
// declaration order.
func (m *Model) ModifiedAttributes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for _, attr := range m.class.attributes {
		if !attr.Equal(m.values[attr.Name()], m.committed[attr.Name()]) {
			names = append(names, attr.Name())
		}
	}
	return names
}

// IsModified reports whether any attribute changed since the last Commit.
func (m *Model) IsModified() bool {
	return len(m.ModifiedAttributes()) > 0
}

// OnChange registers fn for changes of the model and of nested values.
func (m *Model) OnChange(fn func(ChangeEvent)) {
	m.onChange(fn)
}

// AddParent implements attribute.ParentAware.
func (m *Model) AddParent(parent any, attribute string) {
	m.addParent(parent, attribute)
}

// RemoveParent implements attribute.ParentAware.
func (m *Model) RemoveParent(parent any, attribute string) {
	m.removeParent(parent, attribute)
}

func (m *Model) childChanged(attribute string, ev ChangeEvent) {
	v := m.Get(attribute)
	m.fire(ChangeEvent{Target: m, Attribute: attribute, Value: v, Old: v, Cause: &ev})
}

// issue records b as the newest batch of the model.
func (m *Model) issue(b *request.Batch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.IsNewerThan(m.latest) {
		m.latest = b
	}
}

// isStale reports whether a batch newer than b was issued since.
func (m *Model) isStale(b *request.Batch) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest != nil && m.latest.IsNewerThan(b)
}

// Load reads the model by id and applies the first record when the operation
// resolves, unless a newer load, save or destroy was issued in the meantime.
func (m *Model) Load(ctx context.Context) (*operation.Operation, error) {
	id := m.ID()
	if id == "" {
		return nil, errors.NewValidationError(m.class.idAttribute, "cannot load a model without id")
	}
	req := request.NewReadRequest(request.ReadConfig{
		Config:  request.Config{Proxy: m.class.proxy, Logger: m.class.logger},
		ModelID: id,
	})
	return m.run(ctx, operation.KindRead, req, func(rs *storagemodels.ResultSet) error {
		recs := rs.Records()
		if len(recs) == 0 {
			return nil
		}
		return m.SetData(recs[0])
	})
}

// Save creates the model when it is new and updates it otherwise. The record
// returned by the proxy is applied on success, so ids assigned by the backend
// reach the model.
func (m *Model) Save(ctx context.Context) (*operation.Operation, error) {
	cfg := request.WriteConfig{
		Config: request.Config{Proxy: m.class.proxy, Logger: m.class.logger},
		Models: []request.Model{m},
	}
	req := request.NewUpdateRequest(cfg)
	if m.IsNew() {
		req = request.NewCreateRequest(cfg)
	}
	return m.run(ctx, operation.KindSave, req, func(rs *storagemodels.ResultSet) error {
		recs := rs.Records()
		if len(recs) == 0 {
			return nil
		}
		return m.SetData(recs[0])
	})
}

// Destroy removes the model from storage. Destroying a new model sends nothing
// and resolves at once. A resolved destroy always marks the model destroyed,
// even when a newer batch was issued since.
func (m *Model) Destroy(ctx context.Context) (*operation.Operation, error) {
	b := request.NewBatch()
	if !m.IsNew() {
		b = request.NewBatch(request.NewDestroyRequest(request.WriteConfig{
			Config: request.Config{Proxy: m.class.proxy, Logger: m.class.logger},
			Models: []request.Model{m},
		}))
	}
	markDestroyed := func(*operation.Operation) {
		m.mu.Lock()
		m.destroyed = true
		m.mu.Unlock()
	}
	return m.runBatch(ctx, operation.KindDestroy, b, markDestroyed, nil)
}

func (m *Model) run(ctx context.Context, kind string, req request.Request, apply func(*storagemodels.ResultSet) error) (*operation.Operation, error) {
	return m.runBatch(ctx, kind, request.NewBatch(req), nil, apply)
}

// runBatch starts an operation for b. On success resolved runs first, then the
// first result set is applied and committed unless b went stale.
func (m *Model) runBatch(ctx context.Context, kind string, b *request.Batch, resolved func(*operation.Operation), apply func(*storagemodels.ResultSet) error) (*operation.Operation, error) {
	op, err := operation.New(operation.Config{Kind: kind, Batch: b, Proxy: m.class.proxy, Logger: m.class.logger})
	if err != nil {
		return nil, err
	}

	op.Done(func(op *operation.Operation) {
		if resolved != nil {
			resolved(op)
		}
		if apply == nil {
			return
		}

		m.applyMu.Lock()
		defer m.applyMu.Unlock()
		if m.isStale(b) {
			m.class.logger.Debugw("Discarding stale result", "operation", kind, "batch", b.ID())
			return
		}
		if err := apply(op.ResultSet()); err != nil {
			m.class.logger.Errorw("Failed to apply result", "operation", kind, "error", err)
			return
		}
		m.Commit()
	})
	m.issue(b)
	if err := op.Start(ctx); err != nil {
		return nil, err
	}
	return op, nil
}
