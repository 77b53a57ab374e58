// FILE: settings/ini.go
package settings

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
)

// IniOptions configures IniFileSource.
type IniOptions struct {
	// File is the INI document path. Empty disables the source; a missing
	// file is an error, unlike the secrets directory.
	File string `conf:"ini_file"`

	// Encoding is accepted for option compatibility; files are read as
	// UTF-8 regardless.
	Encoding string `conf:"ini_encoding"`

	// DefaultSection overrides the section consulted for fields without
	// an explicit one. It must exist in the document.
	DefaultSection string `conf:"ini_default_section"`

	// CaseSensitive disables case-insensitive section and key matching.
	CaseSensitive bool `conf:"case_sensitive"`
}

// IniFileSource reads scalar values from one INI document. Values are
// always raw strings; conversion happens at decode time.
type IniFileSource struct {
	opts IniOptions
}

// NewIniFileSource creates an INI file source.
func NewIniFileSource(opts IniOptions) *IniFileSource {
	return &IniFileSource{opts: opts}
}

// IniFactory builds IniFileSource from a bound option bag. Registered
// under the name "ini" in every registry.
var IniFactory = SourceFactory{
	Params: []string{"ini_file", "ini_encoding", "ini_default_section", "case_sensitive"},
	New: func(opts Options) (Source, error) {
		var io IniOptions
		if err := decodeOptions(opts, &io); err != nil {
			return nil, err
		}
		return NewIniFileSource(io), nil
	},
}

// Load reads every field's key from its section, skipping absent and
// empty values.
func (s *IniFileSource) Load(schema *Schema) (Mapping, error) {
	out := make(Mapping)
	if s.opts.File == "" {
		return out, nil
	}

	info, err := os.Stat(s.opts.File)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: ini file '%s'", ErrFileNotFound, s.opts.File)
		}
		return nil, fmt.Errorf("failed to stat ini file '%s': %w", s.opts.File, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: ini path '%s'", ErrNotFile, s.opts.File)
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: !s.opts.CaseSensitive}, s.opts.File)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ini file '%s': %w", s.opts.File, err)
	}

	defaultSection, err := s.resolveDefaultSection(cfg)
	if err != nil {
		return nil, err
	}

	for i := range schema.Fields {
		field := &schema.Fields[i]

		sectionName := field.Section
		if sectionName == "" {
			sectionName = defaultSection
		}
		section, err := cfg.GetSection(sectionName)
		if err != nil {
			continue
		}

		for _, key := range field.externalNames("ini", s.opts.CaseSensitive, "") {
			if !section.HasKey(key) {
				continue
			}
			if value := section.Key(key).String(); value != "" {
				out[field.Alias] = value
				break
			}
		}
	}
	return out, nil
}

// resolveDefaultSection validates an explicitly configured section name
// and otherwise falls back to the parser's default section.
func (s *IniFileSource) resolveDefaultSection(cfg *ini.File) (string, error) {
	if s.opts.DefaultSection == "" {
		return ini.DefaultSection, nil
	}
	if _, err := cfg.GetSection(s.opts.DefaultSection); err != nil {
		return "", fmt.Errorf("%w: ini default section '%s'", ErrUnknownSection, s.opts.DefaultSection)
	}
	return s.opts.DefaultSection, nil
}
