package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	Debug           bool
	NoWait          bool
	ShutdownTimeout time.Duration
	JSONReport      bool
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	cfg := &CLIConfig{}

	// Flags fall back to environment variables
	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("BASEUTILS_CONFIG", ""),
		"Path to a JSON or YAML configuration file, empty for defaults (env: BASEUTILS_CONFIG)")

	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("BASEUTILS_CONFIG", ""),
		"Path to a JSON or YAML configuration file, empty for defaults (env: BASEUTILS_CONFIG)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("BASEUTILS_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error, overrides the config file (env: BASEUTILS_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("BASEUTILS_LOG_FORMAT", ""),
		"Log format: json, text, overrides the config file (env: BASEUTILS_LOG_FORMAT)")

	fs.BoolVar(&cfg.Debug, "debug",
		getEnvBool("BASEUTILS_DEBUG", false),
		"Enable debug logging (env: BASEUTILS_DEBUG)")

	fs.BoolVar(&cfg.NoWait, "no-wait", false,
		"Producers overwrite the oldest queued frame instead of waiting")

	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("BASEUTILS_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Metrics server shutdown timeout (env: BASEUTILS_SHUTDOWN_TIMEOUT)")

	fs.BoolVar(&cfg.JSONReport, "json", false, "Print the run report as JSON on stdout")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() {
		printDetailedHelp(fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	if cfg.LogLevel != "" && !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	if cfg.LogFormat != "" && !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %s", cfg.ShutdownTimeout)
	}

	return nil
}

func printDetailedHelp(fs *flag.FlagSet) {
	out := fs.Output()
	_, _ = fmt.Fprintf(out, `%s - container library demo pipeline

Runs producers, a bounded frame queue, a sequential worker pool keyed by session,
an LRU session cache and a journal queue, then prints a report.

Usage: %s [options]

Options:
`, appName, fs.Name())
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(out, `
Examples:
  # Run with defaults
  %[1]s

  # Run with a config file and debug logging
  %[1]s --config=baseutils.yaml --log-level=debug --log-format=text

  # Run with environment variables
  export BASEUTILS_QUEUE_CAPACITY=64
  export BASEUTILS_METRICS_PORT=9090
  %[1]s

  # Validate configuration only
  %[1]s --config=baseutils.yaml --validate

Version: %[2]s
Build: %[3]s
`, fs.Name(), Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
