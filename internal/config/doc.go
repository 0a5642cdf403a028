// Package config loads SPC Pulse configuration.
//
// # Configuration Sources
//
// Values are resolved in order of increasing precedence:
//
//	1. Default() values
//	2. A YAML file (config.yaml or configs/config.yaml, or an explicit path via LoadFrom)
//	3. Environment variables prefixed with SPC_
//
// # Environment Variables
//
// Nested sections are joined with underscores:
//
//	SPC_SERVER_PORT=9090
//	SPC_LOGGING_LEVEL=debug
//	SPC_ENGINE_WORKERS=8
//	SPC_ENGINE_DEGRADE_ON_NO_VARIATION=false
//	SPC_CACHE_TTL=5m
//	SPC_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Example File
//
//	server:
//	  port: 8080
//	engine:
//	  concurrency_threshold: 500
//	  default_chart: xs
//	cache:
//	  enabled: true
//	  ttl: 10m
//
// Load validates the result and rejects unknown log levels, chart types and
// exporter names.
package config
