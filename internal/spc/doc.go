// Package spc implements the statistical process control engine used by SPC Pulse.
//
// The engine turns a rectangular matrix of measurements (subgroups of equal
// size) into per-subgroup statistics, control limits for the X̄-R and X̄-S
// charting schemes, process-capability indices relative to specification
// limits, and out-of-control flags for any series against any limit triple.
//
// # Components
//
//   - constants.go: control chart factor table for subgroup sizes 2..25
//   - dataset.go: validated, immutable measurement matrix
//   - statistics.go: per-subgroup mean, range and sample standard deviation
//   - limits.go: control limit estimation for both chart families
//   - capability.go: Cp, Cpk and Cpm indices
//   - detector.go: single-point out-of-control detection
//   - summary.go: dataset summary and suggested specification limits
//   - analyzer.go: orchestrator that runs the full pipeline
//
// All calculators are pure functions over value types. The only state held
// anywhere in the package is configuration on the Analyzer.
//
// # Usage Example
//
//	ds, err := spc.NewDataset([][]float64{
//	    {10, 12, 11, 13},
//	    {9, 11, 10, 12},
//	    {11, 13, 12, 14},
//	})
//	if err != nil {
//	    return err
//	}
//
//	limits, err := spc.EstimateLimits(ds)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(limits.XR.UCL) // 13.687
//
//	idx, err := spc.ComputeCapability(ds, spc.SpecLimits{USL: 15, LSL: 8}, spc.ChartXR)
//	if errors.Is(err, spc.ErrDegenerateVariation) {
//	    // caller decides how to degrade
//	}
//
// # Rounding
//
// Intermediate values are always kept at full precision. Limits and series
// are rounded to 3 decimal places, capability indices to 4, and only when a
// result value is built.
package spc
