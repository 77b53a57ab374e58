// FILE: settings/loader.go
package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// EnvironmentVar is the process variable consulted for the active
// environment when LoadOptions does not select one.
const EnvironmentVar = "SERVER_ENV"

// DefaultEnvironment is the active environment when nothing selects one.
const DefaultEnvironment = "local"

// defaultLogger receives source warnings when no logger is configured.
var defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// EnvironmentFunc supplies the active environment name.
type EnvironmentFunc func() string

// LoadOptions configures one resolution.
type LoadOptions struct {
	// Sources lists the configured source names in declaration order.
	// Earlier sources win the merge. Default: ["env"].
	Sources []string

	// Values are caller-supplied explicit values. They form the implicit
	// head of the source list and win over every configured source.
	Values map[string]any

	// Environment fixes the active environment, taking precedence over
	// EnvironmentFunc and the selector variable.
	Environment string

	// EnvironmentFunc computes the active environment when Environment
	// is empty.
	EnvironmentFunc EnvironmentFunc

	// Registry overrides the process-wide DefaultRegistry.
	Registry *Registry

	// Logger receives non-fatal source warnings.
	Logger *zerolog.Logger

	// Singleton caches the merged mapping per target type; see Load.
	Singleton bool

	// Resolution-context source options, offered to factories by
	// declared parameter name. Zero values are withheld so pre-bound
	// options survive.
	EnvFile            string
	EnvFileEncoding    string
	EnvNestedDelimiter string
	EnvPrefix          string
	CaseSensitive      bool
	SecretsDir         string
	IniFile            string
	IniEncoding        string
	IniDefaultSection  string
	ConfigFile         string
	FileFormat         string
}

// activeEnvironment resolves the environment token: explicit option,
// then the callback, then the selector variable, then the default.
// Always lowercased.
func (o *LoadOptions) activeEnvironment() string {
	env := o.Environment
	if env == "" && o.EnvironmentFunc != nil {
		env = o.EnvironmentFunc()
	}
	if env == "" {
		env = os.Getenv(EnvironmentVar)
	}
	if env == "" {
		env = DefaultEnvironment
	}
	return strings.ToLower(env)
}

// bag assembles the resolution-context options offered to factories.
// Only set fields are included, so configure-time bindings are not
// clobbered by zero values.
func (o *LoadOptions) bag(env string) Options {
	bag := Options{
		"environment": env,
		"logger":      o.logger(),
	}

	set := func(key, value string) {
		if value != "" {
			bag[key] = value
		}
	}
	set("env_file", o.EnvFile)
	set("env_file_encoding", o.EnvFileEncoding)
	set("env_nested_delimiter", o.EnvNestedDelimiter)
	set("env_prefix", o.EnvPrefix)
	set("secrets_dir", o.SecretsDir)
	set("ini_file", o.IniFile)
	set("ini_encoding", o.IniEncoding)
	set("ini_default_section", o.IniDefaultSection)
	set("config_file", o.ConfigFile)
	set("file_format", o.FileFormat)

	if o.CaseSensitive {
		bag["case_sensitive"] = true
	}
	return bag
}

func (o *LoadOptions) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return &defaultLogger
}

// Resolve runs the full pipeline for a schema: determine the active
// environment, build the configured sources from the registry, invoke
// them in declaration order, and deep-merge the results so that earlier
// sources win and explicit values win over all.
func Resolve(schema *Schema, opts *LoadOptions) (Mapping, error) {
	if opts == nil {
		opts = &LoadOptions{}
	}

	env := opts.activeEnvironment()

	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry
	}
	bindings := registry.bindings(env)

	names := opts.Sources
	if names == nil {
		names = []string{"env"}
	}

	ambient := opts.bag(env)

	sources := make([]Source, 0, len(names)+1)
	sources = append(sources, NewInitSource(opts.Values))
	for _, name := range names {
		b, ok := bindings[name]
		if !ok {
			return nil, fmt.Errorf("%w: '%s' for environment '%s'", ErrUnknownSource, name, env)
		}
		src, err := b.build(ambient)
		if err != nil {
			return nil, fmt.Errorf("failed to build source '%s': %w", name, err)
		}
		sources = append(sources, src)
	}

	mappings := make([]Mapping, len(sources))
	for i, src := range sources {
		m, err := src.Load(schema)
		if err != nil {
			return nil, err
		}
		mappings[i] = m
	}

	// Merge in reverse so earlier sources take precedence
	merged := make(Mapping)
	for i := len(mappings) - 1; i >= 0; i-- {
		merged = deepUpdate(merged, mappings[i])
	}
	return merged, nil
}

// Load resolves configuration and decodes it into target, a non-nil
// struct pointer. Decode errors surface unchanged; they are the
// validation errors of the pipeline.
//
// With Singleton set, the first resolution per target type caches the
// merged mapping; later calls decode the cached mapping without touching
// the sources again. ClearCache resets this.
func Load(target any, opts *LoadOptions) error {
	if opts == nil {
		opts = &LoadOptions{}
	}

	schema, err := DeriveSchema(target)
	if err != nil {
		return err
	}

	if opts.Singleton {
		return loadCached(target, func() (Mapping, error) {
			return Resolve(schema, opts)
		})
	}

	merged, err := Resolve(schema, opts)
	if err != nil {
		return err
	}
	return Scan(merged, target)
}
