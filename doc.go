// File: settings/doc.go

// Package settings provides layered configuration resolution for Go
// applications with support for multiple sources: explicit values,
// environment variables with optional dotenv files, per-field secret
// files, and INI documents, merged with deterministic precedence.
//
// Features:
//   - Multiple configuration sources with customizable precedence
//   - Per-field name resolution with aliasing, case folding, and prefixes
//   - JSON decoding and delimiter explosion for structured values
//   - Deterministic deep merge, earlier sources winning
//   - Per-environment source registry for prod/stage/local wiring
//   - Self-parsing value types for delimited lists and query params
//   - Builder pattern for easy initialization
//   - Opt-in singleton caching of resolved configuration
//
// Quick Start:
//
//	type Config struct {
//	    Host  string         `conf:"host"`
//	    Port  int            `conf:"port"`
//	    Debug bool           `conf:"debug"`
//	    DB    map[string]any `conf:"db"`
//	}
//
//	var cfg Config
//	if err := settings.Quick(&cfg, "myapp_"); err != nil {
//	    log.Fatal(err)
//	}
//
// MYAPP_HOST, MYAPP_PORT and friends now populate the struct; name
// matching folds to lowercase, so the prefix is given lowercased.
//
// Default Precedence (highest to lowest):
//  1. Explicit values passed by the caller
//  2. Configured sources in declaration order ("env" by default)
//  3. Defaults registered on the builder
//
// Custom Wiring:
//
//	settings.Register("file", settings.FileFactory)
//	settings.Configure("ini", "prod", settings.Options{
//	    "ini_file": "/etc/myapp/prod.ini",
//	})
//
//	var cfg Config
//	err := settings.NewBuilder().
//	    WithSources("env", "secrets", "ini").
//	    WithSecretsDir("/run/secrets").
//	    Load(&cfg)
//
// The active environment comes from LoadOptions, the SERVER_ENV
// variable, or defaults to "local". Per-environment registry bindings
// overlay the default bindings, so prod can read a different INI path
// than local without branching in application code.
//
// Thread Safety:
// The registry and the singleton cache are safe for concurrent use.
// Resolution itself is a pure pipeline; concurrent Load calls do not
// share mutable state.
package settings
