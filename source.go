// FILE: settings/source.go
package settings

import "strings"

// Source produces a partial field-to-value mapping for a schema. Every
// invocation returns a fresh mapping; a source holds no state between
// calls beyond its own options, and any file handle it opens is released
// before it returns.
type Source interface {
	Load(schema *Schema) (Mapping, error)
}

// InitSource wraps caller-supplied explicit values. The resolution
// pipeline places it first, so its values win every merge.
type InitSource struct {
	values Mapping
}

// NewInitSource creates a source that returns the given values verbatim.
func NewInitSource(values map[string]any) *InitSource {
	return &InitSource{values: values}
}

// Load returns a copy of the wrapped values. The schema is not consulted.
func (s *InitSource) Load(*Schema) (Mapping, error) {
	return cloneMapping(s.values), nil
}

// externalNames resolves the external key candidates a source probes for
// a field: the per-kind override list when declared, else the field's
// alias; lowercased unless the source is case-sensitive; prefix prepended
// verbatim after the case transform. Candidate order is probe order, and
// the first present candidate wins.
func (f *Field) externalNames(kind string, caseSensitive bool, prefix string) []string {
	names := f.SourceNames[kind]
	if len(names) == 0 {
		name := f.Alias
		if name == "" {
			name = f.Name
		}
		names = []string{name}
	}

	out := make([]string, len(names))
	for i, name := range names {
		if !caseSensitive {
			name = strings.ToLower(name)
		}
		out[i] = prefix + name
	}
	return out
}
