/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package webstorage

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/proxy"
	"github.com/suparena/modelstore/request"
	"github.com/suparena/modelstore/storagemodels"
)

type testModel struct {
	id   string
	data storagemodels.Record
}

func (m *testModel) ID() string                          { return m.id }
func (m *testModel) IDAttribute() string                 { return "id" }
func (m *testModel) ModelName() string                   { return "note" }
func (m *testModel) PersistedData() storagemodels.Record { return m.data }

// fakeRedis answers like a Redis server holding plain string values.
type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	err    error
	// failSets makes Set fail once this many values were stored, when positive.
	failSets int
	sets     int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	if f.failSets > 0 && f.sets >= f.failSets {
		return redis.NewStatusResult("", stderrors.New("out of memory"))
	}
	f.sets++
	f.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func stores() map[string]func() Store {
	return map[string]func() Store{
		"session": func() Store { return NewSessionStore(0) },
		"local":   func() Store { return NewLocalStore(newFakeRedis(), 0) },
	}
}

func TestRoundTrip(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p, err := NewProxy(proxy.Config{Options: map[string]any{"id": "notes"}}, newStore())
			require.NoError(t, err)

			a := &testModel{data: storagemodels.Record{"title": "first"}}
			b := &testModel{data: storagemodels.Record{"id": "b", "title": "second"}}
			create := request.NewCreateRequest(request.WriteConfig{Models: []request.Model{a, b}})
			p.Create(ctx, create)
			require.True(t, create.WasSuccessful(), "%v", create.Exception())

			created := create.ResultSet().Records()
			require.Len(t, created, 2)
			a.id = created[0]["id"].(string)
			assert.NotEmpty(t, a.id)
			assert.Equal(t, "b", created[1]["id"])

			read := request.NewReadRequest(request.ReadConfig{})
			p.Read(ctx, read)
			require.True(t, read.WasSuccessful())
			assert.Equal(t, 2, read.ResultSet().TotalCount())
			assert.Equal(t, "first", read.ResultSet().Records()[0]["title"])

			page := request.NewReadRequest(request.ReadConfig{Page: 2, PageSize: 1})
			p.Read(ctx, page)
			require.Len(t, page.ResultSet().Records(), 1)
			assert.Equal(t, "second", page.ResultSet().Records()[0]["title"])

			b.id = "b"
			b.data = storagemodels.Record{"id": "b", "title": "updated"}
			update := request.NewUpdateRequest(request.WriteConfig{Models: []request.Model{b}})
			p.Update(ctx, update)
			require.True(t, update.WasSuccessful())

			one := request.NewReadRequest(request.ReadConfig{ModelID: "b"})
			p.Read(ctx, one)
			assert.Equal(t, "updated", one.ResultSet().Records()[0]["title"])

			destroy := request.NewDestroyRequest(request.WriteConfig{Models: []request.Model{a}})
			p.Destroy(ctx, destroy)
			require.True(t, destroy.WasSuccessful())

			gone := request.NewReadRequest(request.ReadConfig{ModelID: a.id})
			p.Read(ctx, gone)
			assert.True(t, errors.IsNotFound(gone.Exception()))

			all := request.NewReadRequest(request.ReadConfig{})
			p.Read(ctx, all)
			assert.Equal(t, 1, all.ResultSet().TotalCount())
		})
	}
}

func TestWriteErrors(t *testing.T) {
	ctx := context.Background()
	p, err := NewProxy(proxy.Config{Options: map[string]any{"id": "notes"}}, NewSessionStore(0))
	require.NoError(t, err)

	m := &testModel{id: "1", data: storagemodels.Record{"id": "1"}}
	first := request.NewCreateRequest(request.WriteConfig{Models: []request.Model{m}})
	p.Create(ctx, first)
	require.True(t, first.WasSuccessful())

	dup := request.NewCreateRequest(request.WriteConfig{Models: []request.Model{m}})
	p.Create(ctx, dup)
	assert.True(t, errors.IsAlreadyExists(dup.Exception()))

	missing := &testModel{id: "2", data: storagemodels.Record{"id": "2"}}
	update := request.NewUpdateRequest(request.WriteConfig{Models: []request.Model{missing}})
	p.Update(ctx, update)
	assert.True(t, errors.IsNotFound(update.Exception()))

	noID := request.NewUpdateRequest(request.WriteConfig{Models: []request.Model{&testModel{data: storagemodels.Record{}}}})
	p.Update(ctx, noID)
	assert.True(t, errors.IsValidationError(noID.Exception()))

	destroy := request.NewDestroyRequest(request.WriteConfig{Models: []request.Model{missing}})
	p.Destroy(ctx, destroy)
	assert.True(t, errors.IsNotFound(destroy.Exception()))
}

func TestCreateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate id", func(t *testing.T) {
		store := NewSessionStore(0)
		p, err := NewProxy(proxy.Config{Options: map[string]any{"id": "notes"}}, store)
		require.NoError(t, err)

		first := request.NewCreateRequest(request.WriteConfig{Models: []request.Model{&testModel{data: storagemodels.Record{"id": "1"}}}})
		p.Create(ctx, first)
		require.True(t, first.WasSuccessful())

		mixed := request.NewCreateRequest(request.WriteConfig{Models: []request.Model{
			&testModel{data: storagemodels.Record{"id": "x"}},
			&testModel{data: storagemodels.Record{"id": "1"}},
		}})
		p.Create(ctx, mixed)
		assert.True(t, errors.IsAlreadyExists(mixed.Exception()))

		_, ok, err := store.Get(ctx, "notes-x")
		require.NoError(t, err)
		assert.False(t, ok, "no record written for a rejected create")

		twice := request.NewCreateRequest(request.WriteConfig{Models: []request.Model{
			&testModel{data: storagemodels.Record{"id": "y"}},
			&testModel{data: storagemodels.Record{"id": "y"}},
		}})
		p.Create(ctx, twice)
		assert.True(t, errors.IsAlreadyExists(twice.Exception()))

		read := request.NewReadRequest(request.ReadConfig{})
		p.Read(ctx, read)
		assert.Equal(t, 1, read.ResultSet().TotalCount())
	})

	t.Run("store failure part way", func(t *testing.T) {
		client := newFakeRedis()
		client.failSets = 1
		p, err := NewProxy(proxy.Config{Options: map[string]any{"id": "notes"}}, NewLocalStore(client, 0))
		require.NoError(t, err)

		create := request.NewCreateRequest(request.WriteConfig{Models: []request.Model{
			&testModel{data: storagemodels.Record{"id": "a"}},
			&testModel{data: storagemodels.Record{"id": "b"}},
		}})
		p.Create(ctx, create)
		require.True(t, create.HasErrored())

		client.mu.Lock()
		defer client.mu.Unlock()
		assert.Empty(t, client.values, "written keys are removed again")
	})
}

func TestStoreFailure(t *testing.T) {
	client := newFakeRedis()
	client.err = stderrors.New("connection refused")
	p, err := NewProxy(proxy.Config{Options: map[string]any{"id": "notes"}}, NewLocalStore(client, 0))
	require.NoError(t, err)

	req := request.NewReadRequest(request.ReadConfig{})
	p.Read(context.Background(), req)

	var se *errors.StorageError
	require.ErrorAs(t, req.Exception(), &se)
	assert.ErrorIs(t, req.Exception(), client.err)
}

func TestPrefixesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(0)
	notes, err := NewProxy(proxy.Config{Options: map[string]any{"id": "notes"}}, store)
	require.NoError(t, err)
	tasks, err := NewProxy(proxy.Config{Options: map[string]any{"id": "tasks"}}, store)
	require.NoError(t, err)

	create := request.NewCreateRequest(request.WriteConfig{Models: []request.Model{&testModel{data: storagemodels.Record{"id": "1"}}}})
	notes.Create(ctx, create)
	require.True(t, create.WasSuccessful())

	read := request.NewReadRequest(request.ReadConfig{})
	tasks.Read(ctx, read)
	assert.Empty(t, read.ResultSet().Records())

	raw, ok, err := store.Get(ctx, "notes-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":"1"}`, raw)
}

func TestConfiguration(t *testing.T) {
	_, err := proxy.Create(proxy.Config{Type: "sessionstorage"})
	assert.True(t, errors.IsConfiguration(err))

	p, err := proxy.Create(proxy.Config{Type: "SessionStorage", Options: map[string]any{"id": "x"}})
	require.NoError(t, err)
	assert.IsType(t, &Proxy{}, p)

	p, err = proxy.Create(proxy.Config{Type: "localstorage", Options: map[string]any{"id": "x", "addr": "127.0.0.1:0"}})
	require.NoError(t, err)
	assert.Equal(t, "localstorage", proxy.NameOf(p))

	_, err = NewProxy(proxy.Config{Options: map[string]any{"id": "x"}}, nil)
	assert.True(t, errors.IsConfiguration(err))
}
