package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"spcpulse/internal/spc"
)

// Workbook sheet names.
const (
	SheetSubgroups  = "Subgroups"
	SheetLimits     = "Limits"
	SheetCapability = "Capability"
)

// WriteWorkbook writes the analysis as an XLSX workbook with one sheet each
// for subgroups, limits and capability.
func WriteWorkbook(out io.Writer, a *spc.Analysis) error {
	if a == nil {
		return fmt.Errorf("no analysis to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSubgroups); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetLimits, SheetCapability} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeSheet(f, SheetSubgroups, headerStyle, subgroupHeaders, subgroupCells(a)); err != nil {
		return err
	}
	if err := writeSheet(f, SheetLimits, headerStyle, limitHeaders, limitCells(a)); err != nil {
		return err
	}
	if err := writeSheet(f, SheetCapability, headerStyle, capabilityHeaders, capabilityCells(a)); err != nil {
		return err
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// Cells keep native numeric types so spreadsheets can chart them directly.
func subgroupCells(a *spc.Analysis) [][]interface{} {
	stats := a.Statistics
	rows := make([][]interface{}, 0, stats.Len())
	for i := 0; i < stats.Len(); i++ {
		rows = append(rows, []interface{}{
			i + 1,
			stats.Means[i],
			stats.Ranges[i],
			stats.Stds[i],
			flagAt(a.Violations.Means.Flags, i),
			flagAt(a.Violations.Ranges.Flags, i),
			flagAt(a.Violations.Stds.Flags, i),
		})
	}
	return rows
}

func limitCells(a *spc.Analysis) [][]interface{} {
	triple := func(name string, t spc.LimitTriple) []interface{} {
		return []interface{}{name, t.UCL, t.CL, t.LCL}
	}
	return [][]interface{}{
		triple("xbar_r", a.Limits.XR),
		triple("r", a.Limits.R),
		triple("xbar_s", a.Limits.XS),
		triple("s", a.Limits.S),
	}
}

func capabilityCells(a *spc.Analysis) [][]interface{} {
	if a.Capability == nil {
		return [][]interface{}{{"not computed", nil, "no specification limits"}}
	}
	c := a.Capability
	var cpRating, cpkRating string
	if a.Rating != nil {
		cpRating, cpkRating = string(a.Rating.Cp), string(a.Rating.Cpk)
	}
	return [][]interface{}{
		{"cp", c.Cp, cpRating},
		{"cpk", c.Cpk, cpkRating},
		{"cpm", c.Cpm, nil},
		{"cpu", c.Cpu, nil},
		{"cpl", c.Cpl, nil},
		{"mean", c.Mean, nil},
		{"sigma", c.Sigma, nil},
	}
}
