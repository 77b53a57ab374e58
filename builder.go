// File: settings/builder.go
package settings

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ValidatorFunc validates a decoded target. It receives the populated
// struct pointer passed to Load and should return an error if the
// configuration is unacceptable.
type ValidatorFunc func(target any) error

// Builder provides a fluent interface for assembling load options.
// Option methods never fail; the first recorded error short-circuits
// Load and Resolve.
type Builder struct {
	opts       LoadOptions
	defaults   any
	validators []ValidatorFunc
	err        error
}

// NewBuilder creates a builder with default load options.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithSources sets the configured source names in precedence order.
// Earlier names win the merge.
func (b *Builder) WithSources(names ...string) *Builder {
	b.opts.Sources = names
	return b
}

// WithValues deep-merges explicit values into the init layer. Later
// calls win on collision.
func (b *Builder) WithValues(values map[string]any) *Builder {
	if b.opts.Values == nil {
		b.opts.Values = make(map[string]any)
	}
	b.opts.Values = deepUpdate(b.opts.Values, values)
	return b
}

// WithValue sets one explicit value by dot-separated alias path.
func (b *Builder) WithValue(path string, value any) *Builder {
	if b.opts.Values == nil {
		b.opts.Values = make(map[string]any)
	}
	setNested(b.opts.Values, strings.Split(path, "."), value)
	return b
}

// WithDefaults records a struct of fallback values applied beneath every
// source. Field values decode by the same conf tags as the target.
func (b *Builder) WithDefaults(defaults any) *Builder {
	b.defaults = defaults
	return b
}

// WithEnvironment fixes the active environment.
func (b *Builder) WithEnvironment(env string) *Builder {
	b.opts.Environment = env
	return b
}

// WithEnvironmentFunc sets the environment callback.
func (b *Builder) WithEnvironmentFunc(fn EnvironmentFunc) *Builder {
	b.opts.EnvironmentFunc = fn
	return b
}

// WithRegistry overrides the process-wide registry.
func (b *Builder) WithRegistry(r *Registry) *Builder {
	b.opts.Registry = r
	return b
}

// WithLogger routes source warnings to the given logger.
func (b *Builder) WithLogger(logger *zerolog.Logger) *Builder {
	b.opts.Logger = logger
	return b
}

// WithSingleton enables the per-type resolution cache.
func (b *Builder) WithSingleton() *Builder {
	b.opts.Singleton = true
	return b
}

// WithEnvFile sets the dotenv path offered to the env source.
func (b *Builder) WithEnvFile(path string) *Builder {
	b.opts.EnvFile = path
	return b
}

// WithEnvPrefix sets the verbatim prefix for environment candidates.
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.opts.EnvPrefix = prefix
	return b
}

// WithEnvDelimiter sets the nesting delimiter for exploded variables.
func (b *Builder) WithEnvDelimiter(delimiter string) *Builder {
	b.opts.EnvNestedDelimiter = delimiter
	return b
}

// WithCaseSensitive disables case folding in name resolution.
func (b *Builder) WithCaseSensitive() *Builder {
	b.opts.CaseSensitive = true
	return b
}

// WithSecretsDir sets the directory offered to the secrets source.
func (b *Builder) WithSecretsDir(dir string) *Builder {
	b.opts.SecretsDir = dir
	return b
}

// WithIniFile sets the document path offered to the ini source.
func (b *Builder) WithIniFile(path string) *Builder {
	b.opts.IniFile = path
	return b
}

// WithIniSection sets the fallback section for fields without one.
func (b *Builder) WithIniSection(section string) *Builder {
	b.opts.IniDefaultSection = section
	return b
}

// WithConfigFile sets the document path offered to a registered file
// source.
func (b *Builder) WithConfigFile(path string) *Builder {
	b.opts.ConfigFile = path
	return b
}

// WithFileFormat forces the config file format.
func (b *Builder) WithFileFormat(format string) *Builder {
	b.opts.FileFormat = format
	return b
}

// WithFileDiscovery locates a config file using the discovery options
// and routes it to the ini or file source by extension. Finding nothing
// leaves the options untouched.
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	path := FindFile(opts)
	if path == "" {
		return b
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg", ".conf":
		b.opts.IniFile = path
	default:
		b.opts.ConfigFile = path
	}
	return b
}

// WithValidator appends a validation function run against the decoded
// target after a successful Load.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	b.validators = append(b.validators, fn)
	return b
}

// Options returns a copy of the assembled load options.
func (b *Builder) Options() LoadOptions {
	return b.opts
}

// Resolve runs the pipeline with the assembled options and returns the
// merged mapping, defaults applied beneath it.
func (b *Builder) Resolve(schema *Schema) (Mapping, error) {
	if b.err != nil {
		return nil, b.err
	}

	merged, err := Resolve(schema, &b.opts)
	if err != nil {
		return nil, err
	}

	if b.defaults != nil {
		defaults, err := structToMapping(b.defaults)
		if err != nil {
			return nil, err
		}
		merged = deepUpdate(defaults, merged)
	}
	return merged, nil
}

// Load resolves configuration and decodes it into target, then runs the
// validators in registration order.
func (b *Builder) Load(target any) error {
	if b.err != nil {
		return b.err
	}

	schema, err := DeriveSchema(target)
	if err != nil {
		return err
	}

	resolve := func() (Mapping, error) {
		return b.Resolve(schema)
	}

	if b.opts.Singleton {
		err = loadCached(target, resolve)
	} else {
		var merged Mapping
		if merged, err = resolve(); err == nil {
			err = Scan(merged, target)
		}
	}
	if err != nil {
		return err
	}

	for _, validate := range b.validators {
		if err := validate(target); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

// MustLoad is like Load but panics on error. Intended for program
// initialization where a bad configuration should halt startup.
func (b *Builder) MustLoad(target any) {
	if err := b.Load(target); err != nil {
		panic(fmt.Sprintf("settings: load failed: %v", err))
	}
}
