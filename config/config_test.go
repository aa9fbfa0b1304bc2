package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpengk/BaseUtils/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "graceful", cfg.Pool.Shutdown)
	assert.Equal(t, "mutex", cfg.Cache.Lock)
}

func TestLoader_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"log": {"level": "debug"},
		"queue": {"capacity": 16, "no_wait": true},
		"pool": {"workers": 3, "shutdown": "immediate"}
	}`)

	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "untouched fields keep defaults")
	assert.Equal(t, 16, cfg.Queue.Capacity)
	assert.True(t, cfg.Queue.NoWait)
	assert.Equal(t, 3, cfg.Pool.Workers)
	assert.Equal(t, "immediate", cfg.Pool.Shutdown)
	assert.Equal(t, 256, cfg.Cache.Capacity)
}

func TestLoader_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
log:
  format: json
cache:
  capacity: 8
  lock: spin
demo:
  producers: 2
  messages_per_producer: 10
`)

	cfg, err := NewLoader().LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Cache.Capacity)
	assert.Equal(t, "spin", cfg.Cache.Lock)
	assert.Equal(t, 2, cfg.Demo.Producers)
	assert.Equal(t, 10, cfg.Demo.MessagesPerProducer)
	assert.Equal(t, 64, cfg.Demo.Sessions)
}

func TestLoader_LayersOverride(t *testing.T) {
	base := writeFile(t, "base.json", `{"queue": {"capacity": 32}, "cache": {"capacity": 4}}`)
	override := writeFile(t, "override.yml", "queue:\n  capacity: 64\n")

	loader := NewLoader()
	loader.AddLayer(base)
	loader.AddLayer(override)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Queue.Capacity)
	assert.Equal(t, 4, cfg.Cache.Capacity)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("BASEUTILS_LOG_LEVEL", "warn")
	t.Setenv("BASEUTILS_METRICS_PORT", "9191")
	t.Setenv("BASEUTILS_POOL_WORKERS", "7")
	t.Setenv("BASEUTILS_CACHE_LOCK", "none")

	loader := NewLoader()
	loader.EnableValidation(true)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 7, cfg.Pool.Workers)
	assert.Equal(t, "none", cfg.Cache.Lock)
}

func TestLoader_EnvOverrideNotANumber(t *testing.T) {
	t.Setenv("BASEUTILS_QUEUE_CAPACITY", "lots")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrConfigNotFound)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "config.toml", "log = 1")
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeFile(t, "config.json", `{"log": {`)
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})

	t.Run("too deep json", func(t *testing.T) {
		deep := strings.Repeat("[", 200) + strings.Repeat("]", 200)
		path := writeFile(t, "config.json", `{"x": `+deep+`}`)
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "log: [unclosed")
		_, err := NewLoader().LoadFile(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})

	t.Run("validation", func(t *testing.T) {
		path := writeFile(t, "config.json", `{"queue": {"capacity": 0}}`)
		loader := NewLoader()
		loader.EnableValidation(true)
		_, err := loader.LoadFile(path)
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"metrics port", func(c *Config) { c.Metrics.Port = 70000 }},
		{"metrics path", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Path = "metrics" }},
		{"queue capacity", func(c *Config) { c.Queue.Capacity = -1 }},
		{"cache capacity", func(c *Config) { c.Cache.Capacity = 0 }},
		{"cache lock", func(c *Config) { c.Cache.Lock = "rwmutex" }},
		{"pool shutdown", func(c *Config) { c.Pool.Shutdown = "eventually" }},
		{"demo producers", func(c *Config) { c.Demo.Producers = 0 }},
		{"demo messages", func(c *Config) { c.Demo.MessagesPerProducer = -5 }},
		{"demo sessions", func(c *Config) { c.Demo.Sessions = 0 }},
		{"demo payload", func(c *Config) { c.Demo.PayloadSize = -1 }},
		{"demo rate", func(c *Config) { c.Demo.Rate = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestValidateJSONDepth(t *testing.T) {
	assert.NoError(t, validateJSONDepth([]byte(`{"a": ["[", {"b": 1}]}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"a": 1}}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"a": 1`)))
}
