/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package webstorage provides proxies that keep records in a string key/value
// store, one JSON document per record plus an index of ids.
//
// Two types are registered: "sessionstorage" keeps records in process memory
// (go-cache) and "localstorage" keeps them in Redis. Both require an "id" option
// that prefixes every key, so several proxies can share one store:
//
//	orders        -> ["1","2"]
//	orders-1      -> {"id":"1",...}
//	orders-2      -> {"id":"2",...}
package webstorage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/proxy"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

const (
	SessionType = "sessionstorage"
	LocalType   = "localstorage"
)

func init() {
	proxy.DefaultRegistry.MustRegister(SessionType, NewSession)
	proxy.DefaultRegistry.MustRegister(LocalType, NewLocal)
}

// Proxy reads and writes records through a Store.
type Proxy struct {
	proxy.Base

	store      Store
	prefix     string
	idProperty string

	// mu serializes index updates.
	mu sync.Mutex
}

// NewSession is the "sessionstorage" factory. Option "expiration" bounds the life
// of each value.
func NewSession(cfg proxy.Config) (request.Proxy, error) {
	base := proxy.NewBase(SessionType, cfg)
	return newProxy(base, NewSessionStore(base.DurationOption("expiration", 0)))
}

// NewLocal is the "localstorage" factory. Options "addr", "password", "db" and
// "expiration" configure the Redis connection.
func NewLocal(cfg proxy.Config) (request.Proxy, error) {
	base := proxy.NewBase(LocalType, cfg)
	client := redis.NewClient(&redis.Options{
		Addr:     base.StringOption("addr", "localhost:6379"),
		Password: base.StringOption("password", ""),
		DB:       base.IntOption("db", 0),
	})
	return newProxy(base, NewLocalStore(client, base.DurationOption("expiration", 0)))
}

// NewProxy builds a proxy on an explicit store.
func NewProxy(cfg proxy.Config, store Store) (*Proxy, error) {
	return newProxy(proxy.NewBase(SessionType, cfg), store)
}

func newProxy(base proxy.Base, store Store) (*Proxy, error) {
	prefix := base.StringOption("id", "")
	if prefix == "" {
		return nil, errors.NewConfigError(base.Type()+" proxy", "id option is required")
	}
	if store == nil {
		return nil, errors.NewConfigError(base.Type()+" proxy", "store is required")
	}
	return &Proxy{
		Base:       base,
		store:      store,
		prefix:     prefix,
		idProperty: base.StringOption("idProperty", "id"),
	}, nil
}

// Read loads one record by id, or a window over the indexed records.
func (p *Proxy) Read(ctx context.Context, req *request.ReadRequest) {
	if req.HasModelID() {
		rec, ok, err := p.load(ctx, req.ModelID())
		switch {
		case err != nil:
			p.Fail(req, err)
		case !ok:
			p.Fail(req, errors.NewNotFoundError(p.prefix, req.ModelID()))
		default:
			p.Succeed(req, storagemodels.NewResultSet(rec))
		}
		return
	}

	ids, err := p.ids(ctx)
	if err != nil {
		p.Fail(req, err)
		return
	}

	records := make([]storagemodels.Record, 0, len(ids))
	for _, id := range ids {
		rec, ok, err := p.load(ctx, id)
		if err != nil {
			p.Fail(req, err)
			return
		}
		if ok {
			records = append(records, rec)
		}
	}
	p.Succeed(req, storagemodels.NewResultSet(proxy.Window(records, req), storagemodels.WithTotalCount(len(records))))
}

// Create stores new records, assigning ids to those without one. Ids are
// checked before anything is written, and keys written before a store failure
// are removed again, so a failed request leaves the store unchanged.
func (p *Proxy) Create(ctx context.Context, req *request.WriteRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids, err := p.ids(ctx)
	if err != nil {
		p.Fail(req, err)
		return
	}

	created := make([]storagemodels.Record, 0, len(req.Models()))
	newIDs := make([]string, 0, len(req.Models()))
	for _, rec := range req.Records() {
		rec = cloneRecord(rec)
		id := idOf(rec, p.idProperty)
		if id == "" {
			id = uuid.NewString()
			rec[p.idProperty] = id
		} else if slices.Contains(ids, id) || slices.Contains(newIDs, id) {
			p.Fail(req, errors.NewAlreadyExistsError(p.prefix, id))
			return
		}
		newIDs = append(newIDs, id)
		created = append(created, rec)
	}

	for i, rec := range created {
		if err := p.save(ctx, newIDs[i], rec); err != nil {
			p.discard(ctx, newIDs[:i])
			p.Fail(req, err)
			return
		}
	}
	if err := p.saveIDs(ctx, append(ids, newIDs...)); err != nil {
		p.discard(ctx, newIDs)
		p.Fail(req, err)
		return
	}
	p.Succeed(req, storagemodels.NewResultSet(created))
}

// discard removes records written by a create that failed part way.
func (p *Proxy) discard(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := p.store.Delete(ctx, p.key(id)); err != nil {
			p.Logger().Warnw("Failed to remove partially created record", "id", id, "error", err)
		}
	}
}

// Update overwrites existing records.
func (p *Proxy) Update(ctx context.Context, req *request.WriteRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids, err := p.ids(ctx)
	if err != nil {
		p.Fail(req, err)
		return
	}

	records := req.Records()
	for _, rec := range records {
		id := idOf(rec, p.idProperty)
		if id == "" {
			p.Fail(req, errors.NewValidationError(p.idProperty, "record has no id"))
			return
		}
		if !slices.Contains(ids, id) {
			p.Fail(req, errors.NewNotFoundError(p.prefix, id))
			return
		}
	}

	updated := make([]storagemodels.Record, 0, len(records))
	for _, rec := range records {
		rec = cloneRecord(rec)
		if err := p.save(ctx, idOf(rec, p.idProperty), rec); err != nil {
			p.Fail(req, err)
			return
		}
		updated = append(updated, rec)
	}
	p.Succeed(req, storagemodels.NewResultSet(updated))
}

// Destroy removes records and their index entries.
func (p *Proxy) Destroy(ctx context.Context, req *request.WriteRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids, err := p.ids(ctx)
	if err != nil {
		p.Fail(req, err)
		return
	}

	var removed []storagemodels.Record
	for _, m := range req.Models() {
		id := m.ID()
		if id == "" {
			id = idOf(m.PersistedData(), p.idProperty)
		}
		if !slices.Contains(ids, id) {
			p.Fail(req, errors.NewNotFoundError(p.prefix, id))
			return
		}
		if err := p.store.Delete(ctx, p.key(id)); err != nil {
			p.Fail(req, err)
			return
		}
		ids = slices.DeleteFunc(ids, func(s string) bool { return s == id })
		removed = append(removed, m.PersistedData())
	}

	if err := p.saveIDs(ctx, ids); err != nil {
		p.Fail(req, err)
		return
	}
	p.Succeed(req, storagemodels.NewResultSet(removed))
}

func (p *Proxy) key(id string) string {
	return p.prefix + "-" + id
}

func (p *Proxy) ids(ctx context.Context) ([]string, error) {
	raw, ok, err := p.store.Get(ctx, p.prefix)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode id index %q: %w", p.prefix, err)
	}
	return ids, nil
}

func (p *Proxy) saveIDs(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, p.prefix, string(b))
}

func (p *Proxy) load(ctx context.Context, id string) (storagemodels.Record, bool, error) {
	raw, ok, err := p.store.Get(ctx, p.key(id))
	if err != nil || !ok {
		return nil, false, err
	}
	rs, err := p.Reader().Read(raw)
	if err != nil {
		return nil, false, err
	}
	records := rs.Records()
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0], true, nil
}

func (p *Proxy) save(ctx context.Context, id string, rec storagemodels.Record) error {
	b, err := p.Writer().Write([]storagemodels.Record{rec})
	if err != nil {
		return err
	}
	return p.store.Set(ctx, p.key(id), string(b))
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

func cloneRecord(rec storagemodels.Record) storagemodels.Record {
	out := make(storagemodels.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out
}
