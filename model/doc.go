/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package model provides model classes, their instances and collections.
//
// A Class declares typed attributes and the proxy its instances persist
// through. Models convert every value they are given through the attribute
// converters and report changes, including changes inside nested models and
// collections, to OnChange listeners. Load, Save and Destroy return an
// operation.Operation; when several of them overlap on the same model or
// collection, only the result of the one issued last is applied.
//
//	classes := model.NewClassRegistry()
//	people, err := model.NewClass(model.ClassConfig{
//		Name:    "Person",
//		Classes: classes,
//		Proxy:   map[string]any{"type": "memory"},
//		Attributes: []any{
//			attribute.Config{Name: "name", Type: "string"},
//			attribute.Config{Name: "address", Type: "model", Model: "Address"},
//		},
//	})
package model
