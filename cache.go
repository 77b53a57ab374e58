// FILE: settings/cache.go
package settings

import (
	"reflect"
	"sync"
)

// Singleton resolution cache, keyed by target type. The cache stores
// merged mappings rather than instances, so every Load still decodes
// into its own target value.
var cache = struct {
	mu sync.RWMutex
	m  map[reflect.Type]Mapping
}{m: make(map[reflect.Type]Mapping)}

// loadCached resolves through the cache: the first call per target type
// runs resolve, later calls re-decode the stored mapping.
func loadCached(target any, resolve func() (Mapping, error)) error {
	key := reflect.TypeOf(target)

	cache.mu.RLock()
	merged, ok := cache.m[key]
	cache.mu.RUnlock()

	if !ok {
		var err error
		merged, err = resolve()
		if err != nil {
			return err
		}
		cache.mu.Lock()
		cache.m[key] = merged
		cache.mu.Unlock()
	}

	return Scan(merged, target)
}

// ClearCache drops every cached singleton resolution. Subsequent loads
// with Singleton set run the full pipeline again.
func ClearCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.m = make(map[reflect.Type]Mapping)
}
