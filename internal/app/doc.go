// Package app wires the SPC service together and manages its lifecycle.
//
// NewApplication loads configuration (or takes one), initializes the slog
// logger and OpenTelemetry providers, builds the analysis and health
// services with the optional result cache, and mounts the chi router:
//
//	RequestID → RealIP → OTel → StructuredLogger → Recoverer → SecurityHeaders → CORS
//	/api: RateLimiter → Timeout → BodyLimit → ContentTypeValidator → handlers
//	/metrics: Prometheus scrape endpoint
//
// Run serves until SIGINT or SIGTERM, then shuts the server down, stops the
// cache cleanup goroutine and flushes telemetry. The package never calls
// os.Exit; main decides the exit code.
package app
