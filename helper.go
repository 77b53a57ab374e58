// File: settings/helper.go
package settings

// asMapping reports whether a value is a string-keyed map, normalizing the
// named and unnamed forms. Only these participate in recursive merging.
func asMapping(v any) (Mapping, bool) {
	switch m := v.(type) {
	case Mapping:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}

// deepUpdate returns a new mapping combining base with the overlays applied
// in order. When both sides of a key hold string-keyed maps the merge
// recurses; every other value type replaces outright, lists included.
// Inputs are never mutated.
func deepUpdate(base Mapping, overlays ...Mapping) Mapping {
	updated := make(Mapping, len(base))
	for k, v := range base {
		updated[k] = v
	}

	for _, overlay := range overlays {
		for k, v := range overlay {
			if existing, ok := updated[k]; ok {
				em, existingIsMap := asMapping(existing)
				vm, overlayIsMap := asMapping(v)
				if existingIsMap && overlayIsMap {
					updated[k] = deepUpdate(em, vm)
					continue
				}
			}
			updated[k] = v
		}
	}

	return updated
}

// setNested sets a value in a nested mapping following a key path,
// creating intermediate maps as needed. An intermediate that exists but is
// not a map is overwritten by a new map.
func setNested(m Mapping, keys []string, value any) {
	if len(keys) == 0 {
		return
	}

	current := m
	for _, key := range keys[:len(keys)-1] {
		if next, exists := current[key]; exists {
			if nextMap, isMap := asMapping(next); isMap {
				current = nextMap
				continue
			}
		}
		newMap := make(Mapping)
		current[key] = newMap
		current = newMap
	}

	current[keys[len(keys)-1]] = value
}

// cloneMapping returns a shallow copy of m, nil-safe.
func cloneMapping(m map[string]any) Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
