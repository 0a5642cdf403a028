package services

import "errors"

// ErrAnalysisNotFound is returned by Lookup for unknown or expired IDs, and
// always when the result cache is disabled.
var ErrAnalysisNotFound = errors.New("analysis not found")
