// Package config loads the configuration of the baseutils demo binary.
//
// Configuration starts from Default, is overlaid by zero or more JSON or YAML
// files (the extension picks the decoder) and finally by environment variables
// prefixed with BASEUTILS_:
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/base.yaml")
//	loader.AddLayer("configs/local.json") // overrides base
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//
// Layers merge key by key, so a layer only needs the fields it changes.
//
// Recognised environment overrides:
//
//	BASEUTILS_LOG_LEVEL       debug, info, warn, error
//	BASEUTILS_LOG_FORMAT      json, text
//	BASEUTILS_METRICS_PORT    enables the metrics endpoint on this port
//	BASEUTILS_QUEUE_CAPACITY  bounded queue capacity
//	BASEUTILS_CACHE_CAPACITY  LRU capacity
//	BASEUTILS_CACHE_LOCK      none, mutex, spin
//	BASEUTILS_POOL_WORKERS    worker count, <= 0 for one per CPU
//	BASEUTILS_POOL_SHUTDOWN   graceful, immediate
//
// Files are size limited, JSON nesting depth is bounded and relative paths may
// not leave the working directory. Every loading or validation failure is an
// Invalid error from the errors package.
package config
