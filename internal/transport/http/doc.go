// Package http implements the HTTP handlers of the SPC service. Handlers are
// a thin layer over the service package: they decode and validate requests,
// call the service, and render JSON responses or export files.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → AnalysisService → spc.Analyzer
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Routes
//
// Mounted under /api:
//
//	POST /spc/analyze                   full analysis of a JSON subgroup matrix
//	POST /spc/analyze/upload            full analysis of an uploaded CSV, text or XLSX file
//	POST /spc/limits                    control limits for one chart type
//	POST /spc/capability                capability indices against spec limits
//	POST /spc/detect                    out-of-control flags for a series
//	POST /spc/summary                   descriptive summary and suggestions
//	GET  /spc/constants                 the full constants table
//	GET  /spc/constants/{n}             the constants row for subgroup size n
//	GET  /spc/simulate                  a generated demo dataset
//	GET  /spc/analyses/{id}             a stored analysis
//	GET  /spc/analyses/{id}/export.csv  a stored analysis as CSV
//	GET  /spc/analyses/{id}/export.xlsx a stored analysis as a workbook
//	GET  /cache/stats                    result cache statistics
//	GET  /health, /health/ready, /health/live, /version
//
// The Prometheus scrape endpoint is served at /metrics outside /api.
//
// # Error Handling
//
// Every error is rendered by errors.ErrorHandler as an RFC 7807 problem
// document. Engine errors carry their kind and field path:
//
//	{
//	    "type": "/errors/spc/unsupported-subgroup-size",
//	    "title": "Unsupported Subgroup Size",
//	    "status": 422,
//	    "detail": "subgroup size must be between 2 and 25",
//	    "instance": "/api/spc/analyze",
//	    "kind": "UNSUPPORTED_SUBGROUP_SIZE",
//	    "field": "subgroups"
//	}
package http
