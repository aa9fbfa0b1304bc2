package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kpengk/BaseUtils/errors"
	"github.com/kpengk/BaseUtils/pkg/cache"
	"github.com/kpengk/BaseUtils/pkg/worker"
)

// EnvPrefix prefixes every environment override, e.g. BASEUTILS_LOG_LEVEL.
const EnvPrefix = "BASEUTILS"

// Config represents the complete configuration of the baseutils demo pipeline
type Config struct {
	Log     LogConfig     `json:"log" yaml:"log"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Queue   QueueConfig   `json:"queue" yaml:"queue"`
	Cache   CacheConfig   `json:"cache" yaml:"cache"`
	Pool    PoolConfig    `json:"pool" yaml:"pool"`
	Demo    DemoConfig    `json:"demo" yaml:"demo"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json or text
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"` // 0 picks an ephemeral port
	Path    string `json:"path" yaml:"path"`
}

// QueueConfig sizes the bounded hand-off queue
type QueueConfig struct {
	Capacity int  `json:"capacity" yaml:"capacity"`
	NoWait   bool `json:"no_wait" yaml:"no_wait"` // producers overwrite the oldest frame instead of waiting
}

// CacheConfig sizes the session LRU
type CacheConfig struct {
	Capacity int    `json:"capacity" yaml:"capacity"`
	Lock     string `json:"lock" yaml:"lock"` // none, mutex or spin
}

// PoolConfig sizes the sequential worker pool
type PoolConfig struct {
	Workers  int    `json:"workers" yaml:"workers"`   // <= 0 uses one per CPU
	Shutdown string `json:"shutdown" yaml:"shutdown"` // graceful or immediate
}

// DemoConfig shapes the generated workload
type DemoConfig struct {
	Producers           int `json:"producers" yaml:"producers"`
	MessagesPerProducer int `json:"messages_per_producer" yaml:"messages_per_producer"`
	Sessions            int `json:"sessions" yaml:"sessions"`
	PayloadSize         int `json:"payload_size" yaml:"payload_size"`

	// Rate caps frames per second across all producers, 0 means unlimited
	Rate float64 `json:"rate" yaml:"rate"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Queue: QueueConfig{
			Capacity: 1024,
		},
		Cache: CacheConfig{
			Capacity: 256,
			Lock:     string(cache.LockMutex),
		},
		Pool: PoolConfig{
			Workers:  0,
			Shutdown: worker.DefaultShutdownMode.String(),
		},
		Demo: DemoConfig{
			Producers:           4,
			MessagesPerProducer: 1000,
			Sessions:            64,
			PayloadSize:         64,
		},
	}
}

// Validate checks the configuration for values the components would reject
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, fmt.Sprintf(format, args...)),
			"Config", "Validate", "validate configuration")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return invalid("unknown log format %q", c.Log.Format)
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return invalid("metrics port %d out of range", c.Metrics.Port)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics path %q must start with /", c.Metrics.Path)
	}

	if c.Queue.Capacity <= 0 {
		return invalid("queue capacity must be positive, got %d", c.Queue.Capacity)
	}
	if c.Cache.Capacity <= 0 {
		return invalid("cache capacity must be positive, got %d", c.Cache.Capacity)
	}
	if _, err := cache.NewLocker(cache.LockKind(c.Cache.Lock)); err != nil {
		return invalid("cache lock %q", c.Cache.Lock)
	}
	if _, err := worker.ParseShutdownMode(c.Pool.Shutdown); err != nil {
		return invalid("pool shutdown %q", c.Pool.Shutdown)
	}

	if c.Demo.Producers <= 0 {
		return invalid("demo producers must be positive, got %d", c.Demo.Producers)
	}
	if c.Demo.MessagesPerProducer < 0 {
		return invalid("demo messages_per_producer cannot be negative, got %d", c.Demo.MessagesPerProducer)
	}
	if c.Demo.Sessions <= 0 {
		return invalid("demo sessions must be positive, got %d", c.Demo.Sessions)
	}
	if c.Demo.PayloadSize < 0 {
		return invalid("demo payload_size cannot be negative, got %d", c.Demo.PayloadSize)
	}
	if c.Demo.Rate < 0 {
		return invalid("demo rate cannot be negative, got %g", c.Demo.Rate)
	}

	return nil
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		envPrefix: EnvPrefix,
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load starts from Default, merges every layer, applies environment overrides and
// validates if enabled.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		raw, err := l.loadRaw(path)
		if err != nil {
			return nil, err
		}
		merged, err := l.mergeFromMap(cfg, raw)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("merge %s", path))
		}
		cfg = merged
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadRaw reads a JSON or YAML file, chosen by extension, into a generic map
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.WrapInvalid(fmt.Errorf("%w: %s", errors.ErrConfigNotFound, path),
				"Loader", "loadRaw", "read config file")
		}
		return nil, errors.WrapInvalid(err, "Loader", "loadRaw", "read config file")
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		if err = validateJSONDepth(data); err == nil {
			err = json.Unmarshal(data, &raw)
		}
	}
	if err != nil {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: %s: %v", errors.ErrInvalidConfig, path, err),
			"Loader", "loadRaw", "decode config file")
	}

	return raw, nil
}

// mergeFromMap merges configuration from a raw map, only overriding fields present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) (*Config, error) {
	if override == nil {
		return base, nil
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return nil, err
	}

	mergedJSON, err := json.Marshal(deepMergeMaps(baseMap, override))
	if err != nil {
		return nil, err
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, err
	}

	return &merged, nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}

		// If both base and override have maps at this key, merge them
		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		result[k] = v
	}

	return result
}

// applyEnvOverrides applies environment variable overrides
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	lookup := func(name string) (string, bool, error) {
		key := l.envPrefix + "_" + name
		val := os.Getenv(key)
		if val == "" {
			return "", false, nil
		}
		if err := validateEnvVar(key, val); err != nil {
			return "", false, errors.WrapInvalid(err, "Loader", "applyEnvOverrides", "read "+key)
		}
		return val, true, nil
	}
	atoi := func(name string, dst *int) error {
		val, ok, err := lookup(name)
		if err != nil || !ok {
			return err
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: %s_%s=%q", errors.ErrInvalidConfig, l.envPrefix, name, val),
				"Loader", "applyEnvOverrides", "parse integer")
		}
		*dst = n
		return nil
	}
	str := func(name string, dst *string) error {
		val, ok, err := lookup(name)
		if err != nil || !ok {
			return err
		}
		*dst = val
		return nil
	}

	for _, apply := range []func() error{
		func() error { return str("LOG_LEVEL", &cfg.Log.Level) },
		func() error { return str("LOG_FORMAT", &cfg.Log.Format) },
		func() error {
			if err := atoi("METRICS_PORT", &cfg.Metrics.Port); err != nil {
				return err
			}
			// naming a port turns the endpoint on
			if _, ok, _ := lookup("METRICS_PORT"); ok {
				cfg.Metrics.Enabled = true
			}
			return nil
		},
		func() error { return atoi("QUEUE_CAPACITY", &cfg.Queue.Capacity) },
		func() error { return atoi("CACHE_CAPACITY", &cfg.Cache.Capacity) },
		func() error { return str("CACHE_LOCK", &cfg.Cache.Lock) },
		func() error { return atoi("POOL_WORKERS", &cfg.Pool.Workers) },
		func() error { return str("POOL_SHUTDOWN", &cfg.Pool.Shutdown) },
	} {
		if err := apply(); err != nil {
			return err
		}
	}

	return nil
}
