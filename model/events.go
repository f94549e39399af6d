/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import "sync"

// ChangeEvent describes a change to a model attribute or to a collection's
// membership. Changes inside nested models and collections reach their parents
// as events whose Cause is the original event.
type ChangeEvent struct {
	// Target is the *Model or *Collection the event is delivered for.
	Target any
	// Attribute names the changed attribute of Target. It is empty for
	// collection membership changes.
	Attribute string
	Value     any
	Old       any
	// Cause is set when the change happened in a nested value.
	Cause *ChangeEvent
}

// Origin returns the event the change started from.
func (e ChangeEvent) Origin() ChangeEvent {
	for e.Cause != nil {
		e = *e.Cause
	}
	return e
}

// visited reports whether target already appears in the event chain.
func (e *ChangeEvent) visited(target any) bool {
	for ev := e; ev != nil; ev = ev.Cause {
		if ev.Target == target {
			return true
		}
	}
	return false
}

// sink receives changes from nested values.
type sink interface {
	childChanged(attribute string, ev ChangeEvent)
}

type parentRef struct {
	parent    sink
	attribute string
}

// observable is the change listener and parent bookkeeping shared by models
// and collections.
type observable struct {
	mu        sync.Mutex
	listeners []func(ChangeEvent)
	parents   []parentRef
}

func (o *observable) onChange(fn func(ChangeEvent)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, fn)
}

func (o *observable) addParent(parent any, attribute string) {
	s, ok := parent.(sink)
	if !ok {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, ref := range o.parents {
		if ref.parent == s && ref.attribute == attribute {
			return
		}
	}
	o.parents = append(o.parents, parentRef{parent: s, attribute: attribute})
}

func (o *observable) removeParent(parent any, attribute string) {
	s, ok := parent.(sink)
	if !ok {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, ref := range o.parents {
		if ref.parent == s && ref.attribute == attribute {
			o.parents = append(o.parents[:i], o.parents[i+1:]...)
			return
		}
	}
}

// fire delivers ev to the listeners, then to the parents. Parents already in
// the event chain are skipped so cyclic graphs terminate.
func (o *observable) fire(ev ChangeEvent) {
	o.mu.Lock()
	listeners := append(([]func(ChangeEvent))(nil), o.listeners...)
	parents := append([]parentRef(nil), o.parents...)
	o.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
	for _, ref := range parents {
		if ev.visited(ref.parent) {
			continue
		}
		ref.parent.childChanged(ref.attribute, ev)
	}
}
