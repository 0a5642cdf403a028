// Package shared holds helpers used across SPC Pulse packages that belong to
// no single layer.
//
// The testutil subpackage captures slog output in memory so tests can assert
// on what a component logged:
//
//	logger, handler := testutil.NewTestLogger(t)
//	analyzer := spc.NewAnalyzer(logger)
//	...
//	testutil.AssertLogContains(t, handler, slog.LevelInfo, "spc analysis completed")
//
// Nothing here may import domain packages.
package shared
