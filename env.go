// FILE: settings/env.go
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileParser reads a dotenv file into key/value pairs. The default
// implementation is backed by godotenv.
type EnvFileParser func(path string) (map[string]string, error)

var envFileParser EnvFileParser = func(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// SetEnvFileParser replaces the dotenv parsing capability and returns the
// previous parser. Passing nil removes the capability, after which
// EnvSource fails with ErrEnvFileUnsupported whenever an env file path is
// configured. Intended for process startup, before resolutions begin.
func SetEnvFileParser(p EnvFileParser) (previous EnvFileParser) {
	previous = envFileParser
	envFileParser = p
	return previous
}

// EnvOptions configures EnvSource. The conf tags double as the option
// bag parameter names.
type EnvOptions struct {
	// File is an optional dotenv path. A missing file is skipped; values
	// from an existing file yield to live process variables.
	File string `conf:"env_file"`

	// FileEncoding is accepted for option compatibility; files are read
	// as UTF-8 regardless.
	FileEncoding string `conf:"env_file_encoding"`

	// Delimiter separates nesting levels in exploded variable names.
	// Empty means plain prefix matching with a single remainder key.
	Delimiter string `conf:"env_nested_delimiter"`

	// Prefix is prepended verbatim to every candidate name.
	Prefix string `conf:"env_prefix"`

	// CaseSensitive disables the lowercase fold of variable names and
	// candidates.
	CaseSensitive bool `conf:"case_sensitive"`
}

// EnvSource reads the process environment, optionally merged over a
// dotenv file, with JSON decoding and delimiter explosion for complex
// fields.
type EnvSource struct {
	opts EnvOptions
}

// NewEnvSource creates an environment source with the given options.
func NewEnvSource(opts EnvOptions) *EnvSource {
	return &EnvSource{opts: opts}
}

// EnvFactory builds EnvSource from a bound option bag. Registered under
// the name "env" in every registry.
var EnvFactory = SourceFactory{
	Params: []string{"env_file", "env_file_encoding", "env_nested_delimiter", "env_prefix", "case_sensitive"},
	New: func(opts Options) (Source, error) {
		var eo EnvOptions
		if err := decodeOptions(opts, &eo); err != nil {
			return nil, err
		}
		return NewEnvSource(eo), nil
	},
}

// Load resolves every schema field against the visible environment.
func (s *EnvSource) Load(schema *Schema) (Mapping, error) {
	envMap, err := s.environment()
	if err != nil {
		return nil, err
	}

	out := make(Mapping)
	for i := range schema.Fields {
		field := &schema.Fields[i]

		if field.Pattern != nil {
			if sub := matchEnvVars(envMap, field.Pattern); len(sub) > 0 {
				out[field.Alias] = sub
			}
			continue
		}

		if err := s.loadField(out, envMap, field); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// environment returns the visible variable set: dotenv file contents,
// when configured and present, merged under the live process environment
// so live values win on collision.
func (s *EnvSource) environment() (map[string]string, error) {
	vars := make(map[string]string)

	if s.opts.File != "" {
		if envFileParser == nil {
			return nil, fmt.Errorf("%w: cannot read %q", ErrEnvFileUnsupported, s.opts.File)
		}
		if info, err := os.Stat(s.opts.File); err == nil && info.Mode().IsRegular() {
			fileVars, err := envFileParser(s.opts.File)
			if err != nil {
				return nil, fmt.Errorf("parsing env file %q: %w", s.opts.File, err)
			}
			for k, v := range fileVars {
				vars[s.fold(k)] = v
			}
		}
	}

	for _, entry := range os.Environ() {
		k, v, _ := strings.Cut(entry, "=")
		vars[s.fold(k)] = v
	}

	return vars, nil
}

func (s *EnvSource) fold(name string) string {
	if s.opts.CaseSensitive {
		return name
	}
	return strings.ToLower(name)
}

// loadField resolves one non-pattern field: first present candidate wins,
// complex values are JSON-decoded and merged over the exploded
// sub-mapping.
func (s *EnvSource) loadField(out Mapping, envMap map[string]string, field *Field) error {
	candidates := field.externalNames("env", s.opts.CaseSensitive, s.opts.Prefix)

	var direct string
	haveDirect := false
	for _, name := range candidates {
		if v, ok := envMap[name]; ok {
			direct, haveDirect = v, true
			break
		}
	}

	if !field.Complex {
		if haveDirect {
			out[field.Alias] = direct
		}
		return nil
	}

	var decoded any
	haveDecoded := false
	if haveDirect {
		if err := json.Unmarshal([]byte(direct), &decoded); err != nil {
			if !field.Lenient {
				return fmt.Errorf("%w: field %s: %w", ErrJSONDecode, field.Name, err)
			}
			// Lenient fields drop the undecodable value entirely and fall
			// through to exploded assembly.
		} else {
			haveDecoded = true
		}
	}

	exploded := s.explode(envMap, candidates)

	switch {
	case haveDecoded:
		if decodedMap, isMap := asMapping(decoded); isMap && len(exploded) > 0 {
			out[field.Alias] = deepUpdate(exploded, decodedMap) // Decoded keys win
		} else {
			out[field.Alias] = decoded
		}
	case len(exploded) > 0:
		out[field.Alias] = exploded
	}
	return nil
}

// explode assembles a nested mapping from every variable whose name
// starts with a candidate name plus the nested delimiter. The remainder
// after the prefix splits on the delimiter into a key path; with no
// delimiter configured the whole remainder is a single key. Variables are
// visited in sorted name order so overlapping paths resolve
// deterministically.
func (s *EnvSource) explode(envMap map[string]string, candidates []string) Mapping {
	result := make(Mapping)
	delim := s.opts.Delimiter

	for _, name := range sortedKeys(envMap) {
		for _, candidate := range candidates {
			prefix := candidate + delim
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			remainder := name[len(prefix):]
			if remainder == "" {
				break // The candidate itself, handled as the direct value
			}

			var keys []string
			if delim == "" {
				keys = []string{remainder}
			} else {
				keys = strings.Split(remainder, delim)
			}
			setNested(result, keys, envMap[name])
			break
		}
	}
	return result
}

// matchEnvVars collects every variable fully matching the pattern into a
// sub-mapping keyed by the pattern's last capture group, lowercased. A
// pattern without capture groups keys by the whole matched name.
func matchEnvVars(envMap map[string]string, pattern *regexp.Regexp) Mapping {
	sub := make(Mapping)
	for name, value := range envMap {
		groups := pattern.FindStringSubmatch(name)
		if groups == nil {
			continue
		}
		key := groups[len(groups)-1]
		if key == "" {
			key = groups[0]
		}
		sub[strings.ToLower(key)] = value
	}
	return sub
}
