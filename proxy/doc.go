/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package proxy holds the proxy type registry and what concrete proxies share.
//
// A proxy implements request.Proxy: one method per CRUD action, each settling the
// request it is given. Proxy packages register a factory under a lowercase type
// name from their init function:
//
//	func init() {
//		proxy.DefaultRegistry.MustRegister("memory", New)
//	}
//
// and callers build instances from configuration:
//
//	p, err := proxy.Create(proxy.Config{Type: "memory", Options: map[string]any{"data": raw}})
//
// Create returns an existing request.Proxy unchanged, so code accepting either a
// configuration or a ready instance can pass both through it.
//
// Dispatch routes one request to the matching proxy method and records metrics;
// ExecuteBatch does so for every request of a batch concurrently. Proxies that can
// cancel in-flight I/O implement Aborter.
package proxy
