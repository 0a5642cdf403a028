package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spcpulse/internal/dataprocessing"
	"spcpulse/internal/exporter"
	"spcpulse/internal/services"
	"spcpulse/internal/spc"
	"spcpulse/internal/validation"
	apiv1 "spcpulse/pkg/contracts/api/v1"
)

// Output formats of the analyze command.
const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		chart    string
		usl, lsl float64
		format   string
		out      string
		sheet    string
		bom      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run the full analysis on a CSV, text or XLSX file",
		Long: `Reads one subgroup per row and runs control limits, out-of-control
detection and, when --usl and --lsl are both given, process capability.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			format = strings.ToLower(format)
			switch format {
			case formatJSON, formatCSV:
			case formatXLSX:
				if out == "" {
					return fmt.Errorf("--format xlsx requires --out")
				}
			default:
				return fmt.Errorf("unknown format %q (want json, csv or xlsx)", format)
			}

			if cmd.Flags().Changed("usl") != cmd.Flags().Changed("lsl") {
				return fmt.Errorf("--usl and --lsl must be given together")
			}

			req := services.AnalysisRequest{Source: "file:" + filepath.Base(path)}
			if chart != "" {
				parsed, err := spc.ParseChartType(chart)
				if err != nil {
					return err
				}
				req.Chart = parsed
			}
			if cmd.Flags().Changed("usl") {
				req.Spec = &spc.SpecLimits{USL: usl, LSL: lsl}
			}

			files := validation.NewFileValidator(opts.logger, 0, dataprocessing.SupportedFormats()...)
			if err := files.ValidateDataFile(path); err != nil {
				return err
			}
			if err := files.ValidateOutputPath(out); err != nil {
				return err
			}

			subgroups, err := readSubgroups(dataprocessing.NewParser(opts.logger), path, sheet)
			if err != nil {
				return err
			}
			req.Subgroups = subgroups

			svc, err := services.NewAnalysisService(opts.engine, opts.logger)
			if err != nil {
				return err
			}
			result, err := svc.Analyze(commandContext(cmd), req)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			if err := writeAnalysis(w, format, bom, result, opts); err != nil {
				closeOut()
				return err
			}
			if err := closeOut(); err != nil {
				return err
			}

			opts.logger.Info("analysis complete",
				"source", result.Source,
				"chart", result.Analysis.Chart.String(),
				"degraded", result.Degraded,
				"format", format)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&chart, "chart", "", "chart type: xr or xs (default from engine config)")
	f.Float64Var(&usl, "usl", 0, "upper specification limit")
	f.Float64Var(&lsl, "lsl", 0, "lower specification limit")
	f.StringVarP(&format, "format", "f", formatJSON, "output format: json, csv or xlsx")
	f.StringVarP(&out, "out", "o", "", "output file (default stdout)")
	f.StringVar(&sheet, "sheet", "", "worksheet to read from an XLSX file (default first sheet)")
	f.BoolVar(&bom, "bom", false, "prefix CSV output with a UTF-8 byte order mark")
	return cmd
}

func newConstantsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "constants [n]",
		Short: "Print the control chart constants table or one row of it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := constantsRows()
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("subgroup size %q is not an integer", args[0])
				}
				row, err := spc.LookupConstants(n)
				if err != nil {
					return err
				}
				rows = []spc.ConstantsRow{row}
			}

			if asJSON {
				return encodeJSON(cmd.OutOrStdout(), rows)
			}
			return writeConstantsTable(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var (
		seed    int64
		analyze bool
		out     string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate a demo dataset of 10 subgroups of 5 values",
		Long: `Generates a demo dataset drawn uniformly from [49, 51] and rounded to two
decimals. Prints CSV by default, or JSON with the analysis when --analyze is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rng *rand.Rand
			if cmd.Flags().Changed("seed") {
				rng = rand.New(rand.NewSource(seed))
			}
			subgroups := dataprocessing.Simulate(rng)

			if err := validation.NewFileValidator(opts.logger, 0).ValidateOutputPath(out); err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd, out)
			if err != nil {
				return err
			}

			if analyze {
				err = writeSimulation(cmd, w, subgroups, seed, opts)
			} else {
				err = exporter.NewCSVWriter(exporter.WriteOptions{}, opts.logger).
					WriteCSV(w, simulateHeaders(), floatRecords(subgroups))
			}
			if err != nil {
				closeOut()
				return err
			}
			return closeOut()
		},
	}

	f := cmd.Flags()
	f.Int64Var(&seed, "seed", 0, "random seed for a reproducible dataset")
	f.BoolVar(&analyze, "analyze", false, "also run the analysis and print JSON")
	f.StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func readSubgroups(parser *dataprocessing.Parser, path, sheet string) ([][]float64, error) {
	if sheet == "" || strings.ToLower(filepath.Ext(path)) != dataprocessing.FormatXLSX {
		return parser.ParseFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return parser.ParseExcel(f, sheet)
}

func writeAnalysis(w io.Writer, format string, bom bool, result *services.AnalysisResult, opts *rootOptions) error {
	switch format {
	case formatCSV:
		return exporter.NewCSVWriter(exporter.WriteOptions{BOMPrefix: bom}, opts.logger).WriteAnalysis(w, result.Analysis)
	case formatXLSX:
		return exporter.WriteWorkbook(w, result.Analysis)
	default:
		return encodeJSON(w, result)
	}
}

func writeSimulation(cmd *cobra.Command, w io.Writer, subgroups [][]float64, seed int64, opts *rootOptions) error {
	svc, err := services.NewAnalysisService(opts.engine, opts.logger)
	if err != nil {
		return err
	}
	result, err := svc.Analyze(commandContext(cmd), services.AnalysisRequest{
		Subgroups: subgroups,
		Source:    "simulated",
	})
	if err != nil {
		return err
	}

	resp := apiv1.SimulateResponse{Subgroups: subgroups, Analysis: result}
	if cmd.Flags().Changed("seed") {
		resp.Seed = &seed
	}
	return encodeJSON(w, resp)
}

// openOutput returns the command's stdout when path is empty. The returned
// close func must be called once writing is done.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func constantsRows() []spc.ConstantsRow {
	sizes := spc.SupportedSubgroupSizes()
	rows := make([]spc.ConstantsRow, 0, len(sizes))
	for _, n := range sizes {
		row, _ := spc.LookupConstants(n)
		rows = append(rows, row)
	}
	return rows
}

func writeConstantsTable(w io.Writer, rows []spc.ConstantsRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "n\tA2\tD3\tD4\tA3\tB3\tB4\td2\tc4\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.4f\t\n",
			r.N, r.A2, r.D3, r.D4, r.A3, r.B3, r.B4, r.D2, r.C4)
	}
	return tw.Flush()
}

func simulateHeaders() []string {
	headers := make([]string, dataprocessing.SimulatedSubgroupSize)
	for i := range headers {
		headers[i] = "x" + strconv.Itoa(i+1)
	}
	return headers
}

func floatRecords(rows [][]float64) [][]string {
	records := make([][]string, len(rows))
	for i, row := range rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		records[i] = rec
	}
	return records
}
