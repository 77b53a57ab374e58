// FILE: settings/registry_test.go
package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	values Mapping
}

func (s *staticSource) Load(*Schema) (Mapping, error) {
	return cloneMapping(s.values), nil
}

func staticFactory() SourceFactory {
	return SourceFactory{
		Params: []string{"value"},
		New: func(opts Options) (Source, error) {
			v, _ := opts["value"].(string)
			return &staticSource{values: Mapping{"origin": v}}, nil
		},
	}
}

func TestRegistryRegistration(t *testing.T) {
	t.Run("Builtins Are Registered", func(t *testing.T) {
		r := NewRegistry()

		assert.ErrorIs(t, r.Register("env", EnvFactory), ErrDuplicateSource)
		assert.ErrorIs(t, r.Register("secrets", SecretsFactory), ErrDuplicateSource)
		assert.ErrorIs(t, r.Register("ini", IniFactory), ErrDuplicateSource)
	})

	t.Run("Register New Kind", func(t *testing.T) {
		r := NewRegistry()

		require.NoError(t, r.Register("static", staticFactory()))
		assert.ErrorIs(t, r.Register("static", staticFactory()), ErrDuplicateSource)
	})

	t.Run("Configure Unknown Kind Fails", func(t *testing.T) {
		r := NewRegistry()

		err := r.Configure("nope", "prod", Options{"value": "x"})
		assert.ErrorIs(t, err, ErrUnknownSource)
	})

	t.Run("Configure Creates Environment Tables", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("static", staticFactory()))

		require.NoError(t, r.Configure("static", "brand-new-env", Options{"value": "x"}))
		require.NoError(t, r.Configure("static", "brand-new-env", Options{"value": "y"}), "rebinding replaces")
	})
}

func TestRegistryEnvironmentOverlay(t *testing.T) {
	type config struct {
		Origin string `conf:"origin"`
	}
	schema, err := DeriveSchema(&config{})
	require.NoError(t, err)

	newOpts := func(r *Registry, env string) *LoadOptions {
		return &LoadOptions{
			Registry:    r,
			Environment: env,
			Sources:     []string{"static"},
		}
	}

	t.Run("Environment Binding Overlays Default", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("static", staticFactory(), map[string]Options{
			"prod": {"value": "prod-bound"},
		}))
		require.NoError(t, r.Configure("static", "default", Options{"value": "default-bound"}))

		merged, err := Resolve(schema, newOpts(r, "prod"))
		require.NoError(t, err)
		assert.Equal(t, "prod-bound", merged["origin"])

		merged, err = Resolve(schema, newOpts(r, "stage"))
		require.NoError(t, err)
		assert.Equal(t, "default-bound", merged["origin"], "unknown environment falls back to default bindings")
	})

	t.Run("Configure Replaces Binding", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("static", staticFactory(), map[string]Options{
			"prod": {"value": "first"},
		}))
		require.NoError(t, r.Configure("static", "prod", Options{"value": "second"}))

		merged, err := Resolve(schema, newOpts(r, "prod"))
		require.NoError(t, err)
		assert.Equal(t, "second", merged["origin"])
	})

	t.Run("Unbound Registration Available Everywhere", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("static", staticFactory()))

		for _, env := range []string{"local", "prod", "anything"} {
			merged, err := Resolve(schema, newOpts(r, env))
			require.NoError(t, err)
			assert.Equal(t, "", merged["origin"], "no bound options in env %s", env)
		}
	})
}

func TestRegistryIniBinding(t *testing.T) {
	type config struct {
		Host string `conf:"host"`
	}
	schema, err := DeriveSchema(&config{})
	require.NoError(t, err)

	t.Run("Prod Reads Its Own File Local Reads None", func(t *testing.T) {
		prodPath := writeIniFile(t, "host = prod-host\n")

		r := NewRegistry()
		require.NoError(t, r.Configure("ini", "prod", Options{"ini_file": prodPath}))

		merged, err := Resolve(schema, &LoadOptions{
			Registry:    r,
			Environment: "prod",
			Sources:     []string{"ini"},
		})
		require.NoError(t, err)
		assert.Equal(t, "prod-host", merged["host"])

		merged, err = Resolve(schema, &LoadOptions{
			Registry:    r,
			Environment: "local",
			Sources:     []string{"ini"},
		})
		require.NoError(t, err)
		_, found := merged["host"]
		assert.False(t, found, "local has no ini file bound, source is inert")
	})

	t.Run("Ambient Options Win Over Bound", func(t *testing.T) {
		boundPath := writeIniFile(t, "host = bound-host\n")
		ambientPath := writeIniFile(t, "host = ambient-host\n")

		r := NewRegistry()
		require.NoError(t, r.Configure("ini", "default", Options{"ini_file": boundPath}))

		merged, err := Resolve(schema, &LoadOptions{
			Registry: r,
			Sources:  []string{"ini"},
			IniFile:  ambientPath,
		})
		require.NoError(t, err)
		assert.Equal(t, "ambient-host", merged["host"])
	})
}

func TestDefaultRegistryWrappers(t *testing.T) {
	// Unique name so the process-wide registry is not disturbed for
	// other tests.
	require.NoError(t, Register("registry-test-static", staticFactory(), map[string]Options{
		"registry-test-env": {"value": "wired"},
	}))
	require.NoError(t, Configure("registry-test-static", "default", Options{"value": "plain"}))

	type config struct {
		Origin string `conf:"origin"`
	}
	schema, err := DeriveSchema(&config{})
	require.NoError(t, err)

	merged, err := Resolve(schema, &LoadOptions{
		Environment: "registry-test-env",
		Sources:     []string{"registry-test-static"},
	})
	require.NoError(t, err)
	assert.Equal(t, "wired", merged["origin"])

	merged, err = Resolve(schema, &LoadOptions{
		Environment: "elsewhere",
		Sources:     []string{"registry-test-static"},
	})
	require.NoError(t, err)
	assert.Equal(t, "plain", merged["origin"])
}
