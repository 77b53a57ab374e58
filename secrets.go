// FILE: settings/secrets.go
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// SecretsOptions configures SecretsSource.
type SecretsOptions struct {
	// Dir is the secrets directory. Empty disables the source; a missing
	// directory logs a warning and yields nothing.
	Dir string `conf:"secrets_dir"`

	// CaseSensitive disables the lowercase fold of candidate file names.
	CaseSensitive bool `conf:"case_sensitive"`

	// Logger receives non-fatal warnings. Defaults to the package logger.
	Logger *zerolog.Logger `conf:"logger"`
}

// SecretsSource reads one file per field from a secrets directory, in the
// style of container orchestrator secret mounts. File names follow the
// same candidate resolution as environment variables, without any prefix.
type SecretsSource struct {
	opts SecretsOptions
}

// NewSecretsSource creates a secrets directory source.
func NewSecretsSource(opts SecretsOptions) *SecretsSource {
	return &SecretsSource{opts: opts}
}

// SecretsFactory builds SecretsSource from a bound option bag. Registered
// under the name "secrets" in every registry.
var SecretsFactory = SourceFactory{
	Params: []string{"secrets_dir", "case_sensitive", "logger"},
	New: func(opts Options) (Source, error) {
		var so SecretsOptions
		if err := decodeOptions(opts, &so); err != nil {
			return nil, err
		}
		return NewSecretsSource(so), nil
	},
}

// Load reads the first existing candidate file for each field.
func (s *SecretsSource) Load(schema *Schema) (Mapping, error) {
	out := make(Mapping)
	if s.opts.Dir == "" {
		return out, nil
	}

	info, err := os.Stat(s.opts.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger().Warn().Str("dir", s.opts.Dir).Msg("secrets directory does not exist")
			return out, nil
		}
		return nil, fmt.Errorf("failed to stat secrets directory '%s': %w", s.opts.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: secrets path '%s'", ErrNotDirectory, s.opts.Dir)
	}

	for i := range schema.Fields {
		field := &schema.Fields[i]
		value, found, err := s.readField(field)
		if err != nil {
			return nil, err
		}
		if found {
			out[field.Alias] = value
		}
	}
	return out, nil
}

// readField probes the candidate file names in order and returns the
// first regular file's trimmed content, JSON-decoded for complex fields.
// Non-regular entries log a warning and the probe moves on.
func (s *SecretsSource) readField(field *Field) (any, bool, error) {
	for _, name := range field.externalNames("env", s.opts.CaseSensitive, "") {
		path := filepath.Join(s.opts.Dir, name)

		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			s.logger().Warn().Str("path", path).Msg("secret path is not a regular file, skipping")
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read secret '%s': %w", path, err)
		}
		value := strings.TrimSpace(string(data))

		if field.Complex {
			var decoded any
			if err := json.Unmarshal([]byte(value), &decoded); err != nil {
				return nil, false, fmt.Errorf("%w: secret '%s' for field %s: %w", ErrJSONDecode, path, field.Name, err)
			}
			return decoded, true, nil
		}
		return value, true, nil
	}
	return nil, false, nil
}

func (s *SecretsSource) logger() *zerolog.Logger {
	if s.opts.Logger != nil {
		return s.opts.Logger
	}
	return &defaultLogger
}
