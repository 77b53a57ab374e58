// File: settings/source_test.go
package settings_test

import (
	"os"
	"testing"

	"github.com/lixenwraith/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSource(t *testing.T) {
	t.Run("Returns Values Verbatim", func(t *testing.T) {
		values := map[string]any{"host": "h", "db": map[string]any{"port": 5432}}
		src := settings.NewInitSource(values)

		schema, err := settings.DeriveSchema(&struct{}{})
		require.NoError(t, err)

		m, err := src.Load(schema)
		require.NoError(t, err)

		assert.Equal(t, "h", m["host"])
		assert.Equal(t, map[string]any{"port": 5432}, m["db"])
	})

	t.Run("Nil Values Yield Empty Mapping", func(t *testing.T) {
		src := settings.NewInitSource(nil)

		m, err := src.Load(nil)
		require.NoError(t, err)
		assert.Empty(t, m)
	})

	t.Run("Each Load Is A Fresh Copy", func(t *testing.T) {
		src := settings.NewInitSource(map[string]any{"key": "original"})

		first, err := src.Load(nil)
		require.NoError(t, err)
		first["key"] = "mutated"

		second, err := src.Load(nil)
		require.NoError(t, err)
		assert.Equal(t, "original", second["key"])
	})
}

func TestLoadEndToEnd(t *testing.T) {
	type dbConfig struct {
		Host string `conf:"host"`
		Port int    `conf:"port"`
	}
	type appConfig struct {
		Name  string   `conf:"name" env:"CTLE_NAME"`
		Port  int      `conf:"port" env:"CTLE_PORT"`
		Debug bool     `conf:"debug" env:"CTLE_DEBUG"`
		DB    dbConfig `conf:"db" env:"CTLE_DB"`
	}

	t.Run("Environment Into Struct", func(t *testing.T) {
		envVars := map[string]string{
			"CTLE_NAME":  "widget",
			"CTLE_PORT":  "8080",
			"CTLE_DEBUG": "true",
			"CTLE_DB":    `{"host":"dbhost","port":5432}`,
		}
		for k, v := range envVars {
			os.Setenv(k, v)
			defer os.Unsetenv(k)
		}

		var cfg appConfig
		require.NoError(t, settings.Load(&cfg, nil))

		assert.Equal(t, "widget", cfg.Name)
		assert.Equal(t, 8080, cfg.Port)
		assert.True(t, cfg.Debug)
		assert.Equal(t, "dbhost", cfg.DB.Host)
		assert.Equal(t, 5432, cfg.DB.Port)
	})

	t.Run("Exploded Variables Into Nested Struct", func(t *testing.T) {
		os.Setenv("CTLE_DB__HOST", "exploded-host")
		os.Setenv("CTLE_DB__PORT", "5433")
		defer func() {
			os.Unsetenv("CTLE_DB__HOST")
			os.Unsetenv("CTLE_DB__PORT")
		}()

		var cfg appConfig
		err := settings.Load(&cfg, &settings.LoadOptions{EnvNestedDelimiter: "__"})
		require.NoError(t, err)

		assert.Equal(t, "exploded-host", cfg.DB.Host)
		assert.Equal(t, 5433, cfg.DB.Port)
	})

	t.Run("Explicit Values Win", func(t *testing.T) {
		os.Setenv("CTLE_NAME", "from-env")
		defer os.Unsetenv("CTLE_NAME")

		var cfg appConfig
		err := settings.Load(&cfg, &settings.LoadOptions{
			Values: map[string]any{"name": "from-values"},
		})
		require.NoError(t, err)

		assert.Equal(t, "from-values", cfg.Name)
	})

	t.Run("Decode Failure Surfaces", func(t *testing.T) {
		os.Setenv("CTLE_PORT", "not-a-number")
		defer os.Unsetenv("CTLE_PORT")

		var cfg appConfig
		err := settings.Load(&cfg, nil)
		require.Error(t, err)
	})

	t.Run("Nil Target Rejected", func(t *testing.T) {
		err := settings.Load(nil, nil)
		require.Error(t, err)
	})
}

func TestSingletonLoad(t *testing.T) {
	type cachedConfig struct {
		Value string `conf:"value" env:"CTSG_VALUE"`
	}

	defer settings.ClearCache()

	os.Setenv("CTSG_VALUE", "first")
	opts := &settings.LoadOptions{Singleton: true}

	var one cachedConfig
	require.NoError(t, settings.Load(&one, opts))
	assert.Equal(t, "first", one.Value)

	// A second load must not see the changed environment
	os.Setenv("CTSG_VALUE", "second")
	defer os.Unsetenv("CTSG_VALUE")

	var two cachedConfig
	require.NoError(t, settings.Load(&two, opts))
	assert.Equal(t, "first", two.Value, "cached resolution is reused per target type")

	settings.ClearCache()

	var three cachedConfig
	require.NoError(t, settings.Load(&three, opts))
	assert.Equal(t, "second", three.Value, "cache cleared, pipeline runs again")
}

func TestQuick(t *testing.T) {
	type quickConfig struct {
		Host string `conf:"host"`
		Port int    `conf:"port"`
	}

	os.Setenv("CTQK_HOST", "quickhost")
	os.Setenv("CTQK_PORT", "7070")
	defer func() {
		os.Unsetenv("CTQK_HOST")
		os.Unsetenv("CTQK_PORT")
	}()

	var cfg quickConfig
	require.NoError(t, settings.Quick(&cfg, "ctqk_"))

	assert.Equal(t, "quickhost", cfg.Host)
	assert.Equal(t, 7070, cfg.Port)
}

func TestDefaultEnvFile(t *testing.T) {
	assert.Equal(t, ".env.local", settings.DefaultEnvFile("local"))
	assert.Equal(t, ".env.prod", settings.DefaultEnvFile("prod"))
}
