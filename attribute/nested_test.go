/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package attribute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

type fakeInstance struct {
	data    storagemodels.Record
	parents map[any]string
}

func (f *fakeInstance) AddParent(parent any, attr string) {
	if f.parents == nil {
		f.parents = make(map[any]string)
	}
	f.parents[parent] = attr
}

func (f *fakeInstance) RemoveParent(parent any, _ string) {
	delete(f.parents, parent)
}

type fakeModelType struct {
	name    string
	created int
}

func (t *fakeModelType) Name() string { return t.name }

func (t *fakeModelType) NewInstance(data storagemodels.Record) (any, error) {
	t.created++
	return &fakeInstance{data: data}, nil
}

func (t *fakeModelType) IsInstance(v any) bool {
	_, ok := v.(*fakeInstance)
	return ok
}

type fakeList struct {
	items []any
}

type fakeCollectionType struct{}

func (fakeCollectionType) Name() string { return "list" }

func (fakeCollectionType) NewCollection(records []any) (any, error) {
	return &fakeList{items: records}, nil
}

func (fakeCollectionType) IsInstance(v any) bool {
	_, ok := v.(*fakeList)
	return ok
}

func TestModelAttribute(t *testing.T) {
	typ := &fakeModelType{name: "address"}

	t.Run("InstantiatesRecords", func(t *testing.T) {
		attr := mustCreate(t, Config{Name: "address", Type: "model", Model: typ})

		v, err := attr.BeforeSet(nil, map[string]any{"city": "Oslo"}, nil)
		require.NoError(t, err)
		inst, ok := v.(*fakeInstance)
		require.True(t, ok)
		assert.Equal(t, "Oslo", inst.data["city"])
	})

	t.Run("InstancesPassThrough", func(t *testing.T) {
		attr := mustCreate(t, Config{Name: "address", Type: "model", Model: typ})
		inst := &fakeInstance{}

		v, err := attr.BeforeSet(nil, inst, nil)
		require.NoError(t, err)
		assert.Same(t, inst, v)
	})

	t.Run("OtherValuesBecomeNil", func(t *testing.T) {
		attr := mustCreate(t, Config{Name: "address", Type: "model", Model: typ})
		assert.Nil(t, attr.Convert("Oslo"))
		assert.Nil(t, attr.Convert(nil))
		assert.Nil(t, attr.DefaultValue())
	})

	t.Run("ReferenceEquality", func(t *testing.T) {
		attr := mustCreate(t, Config{Name: "address", Type: "model", Model: typ})
		a := &fakeInstance{data: storagemodels.Record{"city": "Oslo"}}
		b := &fakeInstance{data: storagemodels.Record{"city": "Oslo"}}

		assert.True(t, attr.Equal(a, a))
		assert.False(t, attr.Equal(a, b))
		assert.True(t, attr.Equal(nil, nil))
		assert.False(t, attr.Equal(a, nil))
	})

	t.Run("ParentPropagation", func(t *testing.T) {
		attr := mustCreate(t, Config{Name: "address", Type: "model", Model: typ})
		owner := &struct{ id int }{1}
		oldValue := &fakeInstance{}
		oldValue.AddParent(owner, "address")
		newValue := &fakeInstance{}

		attr.AfterSet(owner, newValue, oldValue)
		assert.Empty(t, oldValue.parents)
		assert.Equal(t, "address", newValue.parents[owner])
	})

	t.Run("LazyResolution", func(t *testing.T) {
		lookups := 0
		resolver := func(name string) (any, bool) {
			lookups++
			if name == "address" {
				return typ, true
			}
			return nil, false
		}
		attr := mustCreate(t, Config{Name: "address", Type: "model", Model: "address", Resolver: resolver})
		assert.Equal(t, 0, lookups)

		_, err := attr.BeforeSet(nil, map[string]any{}, nil)
		require.NoError(t, err)
		_, err = attr.BeforeSet(nil, map[string]any{}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, lookups)
	})

	t.Run("FactoryReference", func(t *testing.T) {
		attr := mustCreate(t, Config{Name: "address", Type: "model", Model: func() ModelType { return typ }})
		v, err := attr.BeforeSet(nil, map[string]any{}, nil)
		require.NoError(t, err)
		assert.IsType(t, &fakeInstance{}, v)
	})

	t.Run("UnresolvableName", func(t *testing.T) {
		resolver := func(string) (any, bool) { return nil, false }
		attr := mustCreate(t, Config{Name: "address", Type: "model", Model: "nowhere", Resolver: resolver})

		_, err := attr.BeforeSet(nil, map[string]any{}, nil)
		assert.True(t, errors.IsConfiguration(err))
		// Convert swallows the error.
		assert.Nil(t, attr.Convert(map[string]any{}))
	})

	t.Run("ConfigurationErrors", func(t *testing.T) {
		_, err := Create(Config{Name: "address", Type: "model"})
		assert.True(t, errors.IsConfiguration(err))

		_, err = Create(Config{Name: "address", Type: "model", Model: "address"})
		assert.True(t, errors.IsConfiguration(err))

		_, err = Create(Config{Name: "address", Type: "model", Model: 12})
		assert.True(t, errors.IsConfiguration(err))
	})
}

func TestCollectionAttribute(t *testing.T) {
	attr := mustCreate(t, Config{Name: "tags", Type: "collection", Collection: fakeCollectionType{}})

	v, err := attr.BeforeSet(nil, []map[string]any{{"id": "1"}, {"id": "2"}}, nil)
	require.NoError(t, err)
	list, ok := v.(*fakeList)
	require.True(t, ok)
	assert.Len(t, list.items, 2)

	same, err := attr.BeforeSet(nil, list, nil)
	require.NoError(t, err)
	assert.Same(t, list, same)

	assert.Nil(t, attr.Convert("nope"))
	assert.False(t, attr.Equal(list, &fakeList{items: list.items}))
}
