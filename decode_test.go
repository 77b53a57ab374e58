// FILE: settings/decode_test.go
package settings

import (
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanWeakTyping(t *testing.T) {
	type config struct {
		Host    string        `conf:"host"`
		Port    int           `conf:"port"`
		Debug   bool          `conf:"debug"`
		Rate    float64       `conf:"rate"`
		Timeout time.Duration `conf:"timeout"`
	}

	t.Run("Strings Convert To Field Types", func(t *testing.T) {
		var cfg config
		err := Scan(Mapping{
			"host":    "localhost",
			"port":    "8080",
			"debug":   "true",
			"rate":    "1.5",
			"timeout": "2s",
		}, &cfg)
		require.NoError(t, err)

		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 8080, cfg.Port)
		assert.True(t, cfg.Debug)
		assert.Equal(t, 1.5, cfg.Rate)
		assert.Equal(t, 2*time.Second, cfg.Timeout)
	})

	t.Run("Native Types Pass Through", func(t *testing.T) {
		var cfg config
		err := Scan(Mapping{"port": 9090, "debug": true, "rate": 0.25}, &cfg)
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Port)
		assert.True(t, cfg.Debug)
		assert.Equal(t, 0.25, cfg.Rate)
	})

	t.Run("Absent Keys Leave Fields Untouched", func(t *testing.T) {
		cfg := config{Host: "preset"}
		require.NoError(t, Scan(Mapping{"port": "1"}, &cfg))

		assert.Equal(t, "preset", cfg.Host)
		assert.Equal(t, 1, cfg.Port)
	})

	t.Run("Bad Conversion Fails", func(t *testing.T) {
		var cfg config
		err := Scan(Mapping{"port": "not-a-number"}, &cfg)
		require.Error(t, err)
	})

	t.Run("Target Must Be Non Nil Pointer", func(t *testing.T) {
		var cfg config
		require.Error(t, Scan(Mapping{}, cfg))
		require.Error(t, Scan(Mapping{}, (*config)(nil)))
		require.Error(t, Scan(Mapping{}, nil))
	})
}

func TestScanStructured(t *testing.T) {
	t.Run("Nested Mapping Into Struct", func(t *testing.T) {
		type dbConfig struct {
			Host string `conf:"host"`
			Port int    `conf:"port"`
		}
		type config struct {
			DB dbConfig `conf:"db"`
		}

		var cfg config
		err := Scan(Mapping{"db": Mapping{"host": "h", "port": "5432"}}, &cfg)
		require.NoError(t, err)

		assert.Equal(t, "h", cfg.DB.Host)
		assert.Equal(t, 5432, cfg.DB.Port)
	})

	t.Run("Time From RFC3339", func(t *testing.T) {
		type config struct {
			Start time.Time `conf:"start"`
		}

		var cfg config
		require.NoError(t, Scan(Mapping{"start": "2024-01-02T15:04:05Z"}, &cfg))

		assert.Equal(t, 2024, cfg.Start.Year())
		assert.Equal(t, time.January, cfg.Start.Month())
	})

	t.Run("Comma String Into Slice", func(t *testing.T) {
		type config struct {
			Names []string `conf:"names"`
		}

		var cfg config
		require.NoError(t, Scan(Mapping{"names": "a,b,c"}, &cfg))

		assert.Equal(t, []string{"a", "b", "c"}, cfg.Names)
	})
}

func TestScanNetworkTypes(t *testing.T) {
	type config struct {
		IP       net.IP     `conf:"ip"`
		CIDR     net.IPNet  `conf:"cidr"`
		CIDRPtr  *net.IPNet `conf:"cidr_ptr"`
		Endpoint url.URL    `conf:"endpoint"`
		EndPtr   *url.URL   `conf:"end_ptr"`
	}

	t.Run("Valid Values", func(t *testing.T) {
		var cfg config
		err := Scan(Mapping{
			"ip":       "192.168.1.10",
			"cidr":     "10.0.0.0/8",
			"cidr_ptr": "172.16.0.0/12",
			"endpoint": "https://example.com/api",
			"end_ptr":  "http://internal:8080",
		}, &cfg)
		require.NoError(t, err)

		assert.Equal(t, "192.168.1.10", cfg.IP.String())
		assert.Equal(t, "10.0.0.0/8", cfg.CIDR.String())
		require.NotNil(t, cfg.CIDRPtr)
		assert.Equal(t, "172.16.0.0/12", cfg.CIDRPtr.String())
		assert.Equal(t, "example.com", cfg.Endpoint.Host)
		require.NotNil(t, cfg.EndPtr)
		assert.Equal(t, "internal:8080", cfg.EndPtr.Host)
	})

	t.Run("Invalid IP Fails", func(t *testing.T) {
		var cfg config
		assert.Error(t, Scan(Mapping{"ip": "not-an-ip"}, &cfg))
	})

	t.Run("Invalid CIDR Fails", func(t *testing.T) {
		var cfg config
		assert.Error(t, Scan(Mapping{"cidr": "10.0.0.0"}, &cfg))
	})
}

func TestScanRawParserTypes(t *testing.T) {
	t.Run("Delimited List From String", func(t *testing.T) {
		type config struct {
			Tags DelimitedList[string] `conf:"tags"`
		}

		var cfg config
		require.NoError(t, Scan(Mapping{"tags": "a;b;c"}, &cfg))

		assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags.Items())
		assert.Equal(t, ";", cfg.Tags.Delimiter())
	})

	t.Run("Typed List Through Pointer", func(t *testing.T) {
		type config struct {
			Ports *DelimitedList[int] `conf:"ports"`
		}

		var cfg config
		require.NoError(t, Scan(Mapping{"ports": "80,443,8080"}, &cfg))

		require.NotNil(t, cfg.Ports)
		assert.Equal(t, []int{80, 443, 8080}, cfg.Ports.Items())
	})

	t.Run("List From Decoded JSON Array", func(t *testing.T) {
		type config struct {
			Tags DelimitedList[string] `conf:"tags"`
		}

		var cfg config
		require.NoError(t, Scan(Mapping{"tags": []any{"x", "y"}}, &cfg))

		assert.Equal(t, []string{"x", "y"}, cfg.Tags.Items())
	})

	t.Run("Params From Query String", func(t *testing.T) {
		type config struct {
			Query Params `conf:"query"`
		}

		var cfg config
		require.NoError(t, Scan(Mapping{"query": "a=1&a=2&b=3"}, &cfg))

		assert.Equal(t, []string{"1", "2"}, cfg.Query.Values("a"))
	})

	t.Run("Params From Mapping", func(t *testing.T) {
		type config struct {
			Query *Params `conf:"query"`
		}

		var cfg config
		require.NoError(t, Scan(Mapping{"query": Mapping{"k": "v"}}, &cfg))

		require.NotNil(t, cfg.Query)
		v, ok := cfg.Query.Get("k")
		require.True(t, ok)
		assert.Equal(t, "v", v)
	})

	t.Run("Empty Map Leaves Zero Value", func(t *testing.T) {
		type config struct {
			Tags  DelimitedList[string] `conf:"tags"`
			Query Params                `conf:"query"`
		}

		var cfg config
		require.NoError(t, Scan(Mapping{"tags": Mapping{}, "query": map[string]any{}}, &cfg))

		assert.Zero(t, cfg.Tags.Len())
		assert.Zero(t, cfg.Query.Len())
	})

	t.Run("Parse Failure Surfaces", func(t *testing.T) {
		type config struct {
			Ports DelimitedList[int] `conf:"ports"`
		}

		var cfg config
		assert.Error(t, Scan(Mapping{"ports": "80,eighty"}, &cfg))
	})
}

func TestStructToMapping(t *testing.T) {
	type dbDefaults struct {
		Host string `conf:"host"`
		Port int    `conf:"port"`
	}
	type defaults struct {
		Name  string     `conf:"name"`
		Debug bool       `conf:"debug"`
		DB    dbDefaults `conf:"db"`
	}

	m, err := structToMapping(defaults{
		Name: "widget",
		DB:   dbDefaults{Host: "localhost", Port: 5432},
	})
	require.NoError(t, err)

	assert.Equal(t, "widget", m["name"])
	assert.Equal(t, false, m["debug"])

	db, ok := asMapping(m["db"])
	require.True(t, ok)
	assert.Equal(t, "localhost", db["host"])
	assert.Equal(t, 5432, db["port"])
}
