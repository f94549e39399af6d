/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"sync"
)

// IndexMapRegistry is a registry for model names and their key templates.

var (
	indexMapRegistry = make(map[string]map[string]string)
	mu               sync.RWMutex
)

// RegisterIndexMap associates a model name with an index map (PK, SK, GSI keys...).
// Registering the same model again replaces the previous map.
func RegisterIndexMap(modelName string, idxMap map[string]string) {
	cp := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		cp[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[normalize(modelName)] = cp
}

// GetIndexMap retrieves the index map for a model name, if any.
func GetIndexMap(modelName string) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[normalize(modelName)]
	return m, ok
}
