// FILE: settings/schema.go
package settings

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"time"
)

// Field describes a single settings field to the sources.
type Field struct {
	// Name is the internal identifier, the Go struct field name.
	Name string

	// Alias is the external key the field's value is stored under in the
	// merged mapping. Defaults to the lowercased Name.
	Alias string

	// SourceNames overrides the external names probed per source kind.
	// Kind "env" feeds EnvSource and SecretsSource, kind "ini" holds the
	// INI key.
	SourceNames map[string][]string

	// Section overrides the INI section for this field.
	Section string

	// Complex marks fields targeting structured types, which sources
	// JSON-decode or assemble from exploded keys.
	Complex bool

	// Lenient tolerates a failed JSON decode for this field: the raw
	// value is discarded and only exploded assembly applies.
	Lenient bool

	// Pattern replaces exact name matching in EnvSource with a full-match
	// scan over all environment variable names.
	Pattern *regexp.Regexp
}

// Schema is the ordered field descriptor handed to every source.
type Schema struct {
	Fields []Field
}

// DeriveSchema builds a Schema from a struct type by reflection.
// Recognized tags: `conf:"alias[,lenient]"` (alias "-" skips the field),
// `env:"NAME_A,NAME_B"` for external name candidates, `ini:"key"`,
// `section:"name"`, and `match:"regex"` for pattern-matched fields.
// Nested structs stay single complex fields; their inner keys come from
// JSON decoding or delimiter explosion, not from flattening.
func DeriveSchema(target any) (*Schema, error) {
	v := reflect.ValueOf(target)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("schema target must be a non-nil pointer or value, got %T", target)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema target must be a struct or struct pointer, got %T", target)
	}

	t := v.Type()
	schema := &Schema{Fields: make([]Field, 0, t.NumField())}
	seenAliases := make(map[string]bool, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		structField := t.Field(i)
		if !structField.IsExported() {
			continue
		}

		field, skip, err := deriveField(structField)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}

		if seenAliases[field.Alias] {
			return nil, fmt.Errorf("%w: %q on field %s", ErrDuplicateAlias, field.Alias, field.Name)
		}
		seenAliases[field.Alias] = true

		schema.Fields = append(schema.Fields, field)
	}

	return schema, nil
}

// deriveField translates one struct field into its descriptor.
func deriveField(sf reflect.StructField) (Field, bool, error) {
	field := Field{
		Name:    sf.Name,
		Alias:   strings.ToLower(sf.Name),
		Complex: isComplexType(sf.Type),
	}

	if tag := sf.Tag.Get("conf"); tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] == "-" {
			return Field{}, true, nil
		}
		if parts[0] != "" {
			field.Alias = parts[0]
		}
		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "lenient":
				field.Lenient = true
			case "":
			default:
				return Field{}, false, fmt.Errorf("field %s: unknown conf tag option %q", sf.Name, opt)
			}
		}
	}

	if tag := sf.Tag.Get("env"); tag != "" {
		var names []string
		for _, name := range strings.Split(tag, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			field.setSourceNames("env", names)
		}
	}

	if tag := sf.Tag.Get("ini"); tag != "" {
		field.setSourceNames("ini", []string{tag})
	}

	if tag := sf.Tag.Get("section"); tag != "" {
		field.Section = tag
	}

	if tag := sf.Tag.Get("match"); tag != "" {
		// Anchor so the pattern must cover the whole variable name.
		re, err := regexp.Compile("^(?:" + tag + ")$")
		if err != nil {
			return Field{}, false, fmt.Errorf("field %s: compiling match pattern: %w", sf.Name, err)
		}
		field.Pattern = re
	}

	return field, false, nil
}

func (f *Field) setSourceNames(kind string, names []string) {
	if f.SourceNames == nil {
		f.SourceNames = make(map[string][]string)
	}
	f.SourceNames[kind] = names
}

// rawParserType identifies value types that self-assemble from raw
// strings (DelimitedList, Params) and must therefore bypass JSON decoding.
var rawParserType = reflect.TypeOf((*rawParser)(nil)).Elem()

// scalarStructTypes are structured Go types that Scan decodes from single
// strings; sources must hand them through as plain scalars.
var scalarStructTypes = map[reflect.Type]bool{
	reflect.TypeOf(time.Time{}): true,
	reflect.TypeOf(net.IP{}):    true,
	reflect.TypeOf(net.IPNet{}): true,
	reflect.TypeOf(url.URL{}):   true,
}

// isComplexType reports whether a target type requires structured input.
func isComplexType(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if scalarStructTypes[t] || reflect.PointerTo(t).Implements(rawParserType) {
		return false
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array, reflect.Interface:
		return true
	}
	return false
}
