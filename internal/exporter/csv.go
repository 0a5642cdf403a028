package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"spcpulse/internal/spc"
)

// utf8BOM helps Excel recognize UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Column headers of the subgroup section.
var subgroupHeaders = []string{
	"subgroup", "mean", "range", "std_dev",
	"mean_out_of_control", "range_out_of_control", "std_out_of_control",
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool
}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	options WriteOptions
	logger  *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(options WriteOptions, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{options: options, logger: logger}
}

// WriteCSV writes headers and records.
func (w *CSVWriter) WriteCSV(out io.Writer, headers []string, records [][]string) error {
	if w.options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteAnalysis writes one row per subgroup with its statistics and
// out-of-control flags, then a blank line and the limit rows, then the
// capability rows when capability was computed.
func (w *CSVWriter) WriteAnalysis(out io.Writer, a *spc.Analysis) error {
	if a == nil {
		return fmt.Errorf("no analysis to export")
	}

	records := SubgroupRecords(a)
	records = append(records, []string{})
	records = append(records, limitHeaders)
	records = append(records, LimitRecords(a)...)
	if a.Capability != nil {
		records = append(records, []string{})
		records = append(records, capabilityHeaders)
		records = append(records, CapabilityRecords(a)...)
	}

	w.logger.Debug("writing analysis csv",
		slog.String("chart_type", a.Chart.String()),
		slog.Int("subgroups", a.Statistics.Len()),
		slog.Bool("bom", w.options.BOMPrefix))

	return w.WriteCSV(out, subgroupHeaders, records)
}

var limitHeaders = []string{"chart", "ucl", "cl", "lcl"}

var capabilityHeaders = []string{"index", "value", "rating"}

// SubgroupRecords renders the per-subgroup rows.
func SubgroupRecords(a *spc.Analysis) [][]string {
	stats := a.Statistics
	records := make([][]string, 0, stats.Len())
	for i := 0; i < stats.Len(); i++ {
		records = append(records, []string{
			formatInt(i + 1),
			formatFloat(stats.Means[i]),
			formatFloat(stats.Ranges[i]),
			formatFloat(stats.Stds[i]),
			formatBool(flagAt(a.Violations.Means.Flags, i)),
			formatBool(flagAt(a.Violations.Ranges.Flags, i)),
			formatBool(flagAt(a.Violations.Stds.Flags, i)),
		})
	}
	return records
}

// LimitRecords renders the four limit triples.
func LimitRecords(a *spc.Analysis) [][]string {
	triple := func(name string, t spc.LimitTriple) []string {
		return []string{name, formatFloat(t.UCL), formatFloat(t.CL), formatFloat(t.LCL)}
	}
	return [][]string{
		triple("xbar_r", a.Limits.XR),
		triple("r", a.Limits.R),
		triple("xbar_s", a.Limits.XS),
		triple("s", a.Limits.S),
	}
}

// CapabilityRecords renders the capability indices. Only Cp and Cpk carry a
// rating.
func CapabilityRecords(a *spc.Analysis) [][]string {
	if a.Capability == nil {
		return nil
	}
	c := a.Capability
	var cpRating, cpkRating string
	if a.Rating != nil {
		cpRating, cpkRating = string(a.Rating.Cp), string(a.Rating.Cpk)
	}
	return [][]string{
		{"cp", formatFloat(c.Cp), cpRating},
		{"cpk", formatFloat(c.Cpk), cpkRating},
		{"cpm", formatFloat(c.Cpm), ""},
		{"cpu", formatFloat(c.Cpu), ""},
		{"cpl", formatFloat(c.Cpl), ""},
		{"mean", formatFloat(c.Mean), ""},
		{"sigma", formatFloat(c.Sigma), ""},
	}
}
