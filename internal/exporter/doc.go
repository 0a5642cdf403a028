// Package exporter writes SPC analyses for spreadsheets.
//
// CSVWriter produces a sectioned CSV: subgroup rows with their out-of-control
// flags, the four limit triples, and capability indices when specification
// limits were supplied. WriteOptions.BOMPrefix prepends a UTF-8 BOM so Excel
// opens the file with the right encoding.
//
// WriteWorkbook produces the same content as an XLSX workbook with
// "Subgroups", "Limits" and "Capability" sheets, keeping numbers numeric.
package exporter
