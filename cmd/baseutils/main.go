// Package main runs a demo pipeline that exercises every container in the
// module: bounded and unbounded blocking queues, the sequential worker pool, the
// LRU cache and the byte buffer framing.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/kpengk/BaseUtils/config"
	"github.com/kpengk/BaseUtils/metric"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "baseutils"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	cliCfg, err := parseFlags(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("invalid flags: %w", err)
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp(fs)
		return nil
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	logger := setupLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		logger.Info("Configuration is valid")
		return nil
	}

	logger.Info("Starting baseutils demo pipeline",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)
	logger.Debug("Effective configuration", "config", cfg.String())

	registry := metric.NewMetricsRegistry()
	var server *metric.Server
	if cfg.Metrics.Enabled {
		server = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		if err := server.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		logger.Info("Metrics server started", "address", server.Address())
		defer stopServer(logger, server, cliCfg.ShutdownTimeout)
	}

	p, err := newPipeline(cfg, logger, registry)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	report, err := p.run(ctx)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	logger.Info("Pipeline finished", "report", report.String())

	if cliCfg.JSONReport {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	}

	if server != nil && ctx.Err() == nil {
		logger.Info("Serving metrics until interrupted", "address", server.Address())
		<-ctx.Done()
		logger.Info("Received shutdown signal")
	}

	return nil
}

// initializeConfiguration layers the config file, environment and CLI overrides
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cliCfg.ConfigPath != "" {
		loader.AddLayer(cliCfg.ConfigPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cliCfg.LogLevel != "" {
		cfg.Log.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Log.Format = cliCfg.LogFormat
	}
	if cliCfg.NoWait {
		cfg.Queue.NoWait = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func stopServer(logger *slog.Logger, server *metric.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("Error stopping metrics server", "error", err)
		return
	}
	logger.Info("Metrics server stopped")
}
