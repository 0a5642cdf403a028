// Package services implements the business layer between the HTTP handlers
// and the SPC engine.
//
// AnalysisService turns raw subgroup matrices into stored analyses. It owns
// the policies the engine deliberately leaves to callers:
//
//   - default chart selection when a request names none
//   - degradation of capability to zero indices when the data shows no
//     variation (Engine.DegradeOnNoVariation)
//   - result caching keyed by a SHA-256 fingerprint of the inputs, with
//     lookup by analysis ID for the export endpoints
//   - SPC metrics through infrastructure.SPCMetrics
//
// HealthService reports health, readiness, liveness and version information.
//
// Services take a *slog.Logger by injection and tag it with a component
// field; they never reach for a global logger.
package services
