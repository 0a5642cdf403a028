// Package dataprocessing turns external inputs into subgroup matrices for the
// SPC engine.
//
// Three input shapes are supported:
//
//   - CSV uploads (ParseCSV): comma or semicolon separated, lenient; cells
//     that are not numbers are dropped
//   - manual entry (ParseText): comma separated, strict; any bad cell fails
//     the whole input with the offending value in the message
//   - Excel workbooks (ParseExcel) read with excelize
//
// ParseUpload and ParseFile pick the parser from the file extension. The file
// parsers hang off a Parser so their debug logs go to the caller's logger.
// Simulate builds the demo dataset offered by the web UI and the CLI.
//
// Parsers never validate shape. The returned [][]float64 goes to
// spc.NewDataset, which reports ragged or undersized input with field paths.
package dataprocessing
