// FILE: settings/file.go
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileOptions configures FileSource.
type FileOptions struct {
	// File is the document path. Empty disables the source; a missing
	// file is an error.
	File string `conf:"config_file"`

	// Format forces the document format: "toml", "json", or "yaml".
	// Empty or "auto" detects from the extension, then the content.
	Format string `conf:"file_format"`
}

// FileSource reads a TOML, JSON, or YAML document and contributes the
// top-level values stored under each field's alias. It is not part of
// the base registry; register it under a name of your choice:
//
//	settings.Register("file", settings.FileFactory)
type FileSource struct {
	opts FileOptions
}

// NewFileSource creates a structured config file source.
func NewFileSource(opts FileOptions) *FileSource {
	return &FileSource{opts: opts}
}

// FileFactory builds FileSource from a bound option bag.
var FileFactory = SourceFactory{
	Params: []string{"config_file", "file_format"},
	New: func(opts Options) (Source, error) {
		var fo FileOptions
		if err := decodeOptions(opts, &fo); err != nil {
			return nil, err
		}
		return NewFileSource(fo), nil
	},
}

// Load parses the document and picks out the schema aliases present at
// the top level. Values keep their parsed types.
func (s *FileSource) Load(schema *Schema) (Mapping, error) {
	out := make(Mapping)
	if s.opts.File == "" {
		return out, nil
	}

	info, err := os.Stat(s.opts.File)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: config file '%s'", ErrFileNotFound, s.opts.File)
		}
		return nil, fmt.Errorf("failed to stat config file '%s': %w", s.opts.File, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: config path '%s'", ErrNotFile, s.opts.File)
	}

	data, err := os.ReadFile(s.opts.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", s.opts.File, err)
	}

	parsed, err := parseConfigData(s.opts.File, data, s.opts.Format)
	if err != nil {
		return nil, err
	}

	for i := range schema.Fields {
		field := &schema.Fields[i]
		if value, ok := parsed[field.Alias]; ok {
			out[field.Alias] = value
		}
	}
	return out, nil
}

// parseConfigData decodes file data using the explicit format, the file
// extension, or content detection, in that order.
func parseConfigData(path string, data []byte, format string) (map[string]any, error) {
	if format == "" || format == "auto" {
		format = detectFileFormat(path)
		if format == "" {
			format = detectFormatFromContent(data)
		}
	}

	parsed := make(map[string]any)
	if len(data) == 0 {
		return parsed, nil
	}

	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse TOML file '%s': %w", path, err)
		}
	case "json":
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse JSON file '%s': %w", path, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse YAML file '%s': %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unable to determine format of config file '%s'", path)
	}
	return parsed, nil
}

// detectFileFormat guesses the format from the file extension.
func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return "toml"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ""
	}
}

// detectFormatFromContent probes the data with each parser. JSON is
// tried first since valid JSON is also valid YAML.
func detectFormatFromContent(data []byte) string {
	var js map[string]any
	if json.Unmarshal(data, &js) == nil {
		return "json"
	}

	var ym map[string]any
	if yaml.Unmarshal(data, &ym) == nil {
		return "yaml"
	}

	var tm map[string]any
	if toml.Unmarshal(data, &tm) == nil {
		return "toml"
	}

	return ""
}
