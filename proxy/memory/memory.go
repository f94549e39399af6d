/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides a proxy that keeps records in process memory.
//
// Records can be seeded from a raw payload passed through the proxy's reader,
// which makes the proxy useful for fixtures and tests:
//
//	p, _ := memory.NewProxy(proxy.Config{Options: map[string]any{
//		"data": `[{"id":"1","name":"Ada"}]`,
//	}})
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/proxy"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

// Type is the registered proxy type name.
const Type = "memory"

func init() {
	proxy.DefaultRegistry.MustRegister(Type, New)
}

// Proxy stores records in insertion order.
//
// Options:
//   - data: raw payload read through the reader to seed the store
//   - idProperty: record key holding the id (default "id")
//   - latency: simulated delay before each request settles
type Proxy struct {
	proxy.Base

	idProperty string
	latency    time.Duration

	mu      sync.RWMutex
	records []storagemodels.Record

	inflight proxy.Inflight
}

// New is the registry factory.
func New(cfg proxy.Config) (request.Proxy, error) {
	return NewProxy(cfg)
}

// NewProxy creates a memory proxy and seeds it from the "data" option.
func NewProxy(cfg proxy.Config) (*Proxy, error) {
	p := &Proxy{Base: proxy.NewBase(Type, cfg)}
	p.idProperty = p.StringOption("idProperty", "id")
	p.latency = p.DurationOption("latency", 0)

	if raw, ok := p.Option("data"); ok && raw != nil {
		if err := p.SetData(raw); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// SetData replaces the stored records with those read from raw.
func (p *Proxy) SetData(raw any) error {
	rs, err := p.Reader().Read(raw)
	if err != nil {
		return fmt.Errorf("read memory data: %w", err)
	}

	records := make([]storagemodels.Record, 0, len(rs.Records()))
	for _, rec := range rs.Records() {
		records = append(records, maps.Clone(rec))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = records
	return nil
}

// Records returns a copy of the stored records.
func (p *Proxy) Records() []storagemodels.Record {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneAll(p.records)
}

// Count returns the number of stored records.
func (p *Proxy) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.records)
}

// Clear removes all records.
func (p *Proxy) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = nil
}

// Read loads one record by id, or a window of all records with the total count.
func (p *Proxy) Read(ctx context.Context, req *request.ReadRequest) {
	if err := p.delay(ctx, req); err != nil {
		p.Fail(req, err)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if req.HasModelID() {
		i := p.indexOf(req.ModelID())
		if i < 0 {
			p.Fail(req, errors.NewNotFoundError(p.Name(), req.ModelID()))
			return
		}
		p.Succeed(req, storagemodels.NewResultSet(maps.Clone(p.records[i])))
		return
	}

	window := cloneAll(proxy.Window(p.records, req))
	p.Succeed(req, storagemodels.NewResultSet(window, storagemodels.WithTotalCount(len(p.records))))
}

// Create appends the request's records, assigning ids to those without one.
func (p *Proxy) Create(ctx context.Context, req *request.WriteRequest) {
	if err := p.delay(ctx, req); err != nil {
		p.Fail(req, err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	created := make([]storagemodels.Record, 0, len(req.Models()))
	for _, rec := range req.Records() {
		rec = maps.Clone(rec)
		if rec == nil {
			rec = storagemodels.Record{}
		}
		id := idOf(rec, p.idProperty)
		if id == "" {
			rec[p.idProperty] = uuid.NewString()
		} else if p.indexOf(id) >= 0 {
			p.Fail(req, errors.NewAlreadyExistsError(p.Name(), id))
			return
		}
		created = append(created, rec)
	}

	p.records = append(p.records, created...)
	p.Succeed(req, storagemodels.NewResultSet(cloneAll(created)))
}

// Update replaces stored records by id. Nothing is written if any id is unknown.
func (p *Proxy) Update(ctx context.Context, req *request.WriteRequest) {
	if err := p.delay(ctx, req); err != nil {
		p.Fail(req, err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	records := req.Records()
	positions := make([]int, len(records))
	for i, rec := range records {
		id := idOf(rec, p.idProperty)
		if id == "" {
			p.Fail(req, errors.NewValidationError(p.idProperty, "record has no id"))
			return
		}
		if positions[i] = p.indexOf(id); positions[i] < 0 {
			p.Fail(req, errors.NewNotFoundError(p.Name(), id))
			return
		}
	}

	updated := make([]storagemodels.Record, len(records))
	for i, rec := range records {
		updated[i] = maps.Clone(rec)
		p.records[positions[i]] = updated[i]
	}
	p.Succeed(req, storagemodels.NewResultSet(cloneAll(updated)))
}

// Destroy removes records by model id. Nothing is removed if any id is unknown.
func (p *Proxy) Destroy(ctx context.Context, req *request.WriteRequest) {
	if err := p.delay(ctx, req); err != nil {
		p.Fail(req, err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	doomed := make(map[string]bool)
	for _, m := range req.Models() {
		id := m.ID()
		if id == "" {
			id = idOf(m.PersistedData(), p.idProperty)
		}
		if p.indexOf(id) < 0 {
			p.Fail(req, errors.NewNotFoundError(p.Name(), id))
			return
		}
		doomed[id] = true
	}

	var removed []storagemodels.Record
	kept := p.records[:0]
	for _, rec := range p.records {
		if doomed[idOf(rec, p.idProperty)] {
			removed = append(removed, rec)
			continue
		}
		kept = append(kept, rec)
	}
	p.records = kept
	p.Succeed(req, storagemodels.NewResultSet(removed))
}

// Abort cancels the simulated latency of an in-flight request.
func (p *Proxy) Abort(req request.Request) {
	if p.inflight.Abort(req) {
		p.Logger().Debugw("Aborted request", "action", req.Action())
	}
}

// delay waits for the configured latency, or until ctx is done or the request is aborted.
func (p *Proxy) delay(ctx context.Context, req request.Request) error {
	if p.latency <= 0 {
		return ctx.Err()
	}

	ctx, release := p.inflight.Track(ctx, req)
	defer release()

	timer := time.NewTimer(p.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// indexOf must be called with mu held.
func (p *Proxy) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, rec := range p.records {
		if idOf(rec, p.idProperty) == id {
			return i
		}
	}
	return -1
}

func idOf(rec storagemodels.Record, property string) string {
	v, ok := rec[property]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func cloneAll(records []storagemodels.Record) []storagemodels.Record {
	out := make([]storagemodels.Record, len(records))
	for i, rec := range records {
		out[i] = maps.Clone(rec)
	}
	return out
}
