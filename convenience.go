// File: settings/convenience.go
package settings

import (
	"fmt"
	"sort"
	"strings"
)

// Quick resolves configuration into target with the stock setup:
// environment variables only, with the conventional dotenv file for the
// active environment picked up when present. This is the recommended
// way to initialize configuration for most applications.
func Quick(target any, envPrefix string) error {
	opts := &LoadOptions{EnvPrefix: envPrefix}
	opts.EnvFile = DefaultEnvFile(opts.activeEnvironment())
	return Load(target, opts)
}

// MustQuick is like Quick but panics on error
func MustQuick(target any, envPrefix string) {
	if err := Quick(target, envPrefix); err != nil {
		panic(fmt.Sprintf("settings initialization failed: %v", err))
	}
}

// DefaultEnvFile returns the conventional dotenv path for an
// environment: ".env.local" for the local default, ".env.prod" for
// prod, and so on.
func DefaultEnvFile(environment string) string {
	return ".env." + environment
}

// Dump renders a mapping as sorted dotted-path lines, one value per
// line. Intended for debugging resolved configuration.
func Dump(m Mapping) string {
	var lines []string
	dumpInto(&lines, "", m)
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func dumpInto(lines *[]string, prefix string, m Mapping) {
	for key, value := range m {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if sub, ok := asMapping(value); ok {
			dumpInto(lines, path, sub)
			continue
		}
		*lines = append(*lines, fmt.Sprintf("%s = %v", path, value))
	}
}
