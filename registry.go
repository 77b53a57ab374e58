// FILE: settings/registry.go
package settings

import (
	"fmt"
	"sync"

	"dario.cat/mergo"
)

// Options is the bag of named values offered to source factories at bind
// time. Only keys matching a factory's declared params reach it from the
// resolution context.
type Options map[string]any

// SourceFactory builds a source instance from bound options. Params
// declares the parameter names the factory consumes; resolution-context
// keys outside the set are withheld rather than erroring.
type SourceFactory struct {
	Params []string
	New    func(opts Options) (Source, error)
}

// binding pairs a factory with options pre-bound through Register or
// Configure.
type binding struct {
	factory SourceFactory
	options Options
}

// build instantiates the source, overlaying the resolution context's
// matching params over the pre-bound options. Per-call options win over
// configure-time bindings.
func (b binding) build(ambient Options) (Source, error) {
	opts := make(Options, len(b.options))
	for k, v := range b.options {
		opts[k] = v
	}

	picked := make(Options)
	for _, param := range b.factory.Params {
		if v, ok := ambient[param]; ok {
			picked[param] = v
		}
	}

	if err := mergo.Merge(&opts, picked, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge source options: %w", err)
	}

	return b.factory.New(opts)
}

// defaultEnv is the registry's base table. It always exists and is
// consulted as the fallback overlaid by the active environment's entries.
const defaultEnv = "default"

// Registry maps source names to factories, with per-environment option
// bindings. Safe for concurrent use, though registration is expected to
// happen during process startup.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]SourceFactory
	envs  map[string]map[string]binding
}

// NewRegistry creates a registry seeded with the built-in "env",
// "secrets", and "ini" sources.
func NewRegistry() *Registry {
	r := &Registry{
		kinds: make(map[string]SourceFactory),
		envs:  map[string]map[string]binding{defaultEnv: {}},
	}
	// Built-in kinds; registration on an empty registry cannot fail.
	_ = r.Register("env", EnvFactory)
	_ = r.Register("secrets", SecretsFactory)
	_ = r.Register("ini", IniFactory)
	return r
}

// DefaultRegistry is the process-wide registry used when LoadOptions does
// not provide one.
var DefaultRegistry = NewRegistry()

// Register adds a new source kind under name, available in every
// environment. The optional per-environment map pre-binds options for
// specific environments in the same call. Fails with ErrDuplicateSource
// when the name is taken.
func (r *Registry) Register(name string, factory SourceFactory, perEnvOptions ...map[string]Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[name]; exists {
		return fmt.Errorf("%w: '%s'", ErrDuplicateSource, name)
	}
	r.kinds[name] = factory
	r.envs[defaultEnv][name] = binding{factory: factory}

	for _, envOptions := range perEnvOptions {
		for env, opts := range envOptions {
			table := r.envs[env]
			if table == nil {
				table = make(map[string]binding)
				r.envs[env] = table
			}
			table[name] = binding{factory: factory, options: opts}
		}
	}
	return nil
}

// Configure pre-binds options to a registered source for one environment,
// replacing any prior binding for that name and environment. Use the
// environment "default" to affect every environment without its own
// binding. Fails with ErrUnknownSource when the name was never
// registered.
func (r *Registry) Configure(name, env string, opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, exists := r.kinds[name]
	if !exists {
		return fmt.Errorf("%w: '%s'", ErrUnknownSource, name)
	}

	table := r.envs[env]
	if table == nil {
		table = make(map[string]binding)
		r.envs[env] = table
	}
	table[name] = binding{factory: factory, options: opts}
	return nil
}

// bindings returns the active source table for an environment: the
// default table overlaid by the environment's own entries.
func (r *Registry) bindings(env string) map[string]binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make(map[string]binding, len(r.envs[defaultEnv]))
	for name, b := range r.envs[defaultEnv] {
		active[name] = b
	}
	if env != defaultEnv {
		for name, b := range r.envs[env] {
			active[name] = b
		}
	}
	return active
}

// Register adds a source kind to the process-wide registry.
func Register(name string, factory SourceFactory, perEnvOptions ...map[string]Options) error {
	return DefaultRegistry.Register(name, factory, perEnvOptions...)
}

// Configure pre-binds options on the process-wide registry.
func Configure(name, env string, opts Options) error {
	return DefaultRegistry.Configure(name, env, opts)
}
