package dataprocessing

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apierrors "spcpulse/internal/errors"
)

// Supported upload formats, keyed by lower-case extension.
const (
	FormatCSV  = ".csv"
	FormatText = ".txt"
	FormatXLSX = ".xlsx"
)

// maxLineBytes bounds a single CSV line.
const maxLineBytes = 1 << 20

// SupportedFormats lists the accepted file extensions.
func SupportedFormats() []string {
	return []string{FormatCSV, FormatText, FormatXLSX}
}

// Parser reads subgroup matrices from uploaded or local files.
type Parser struct {
	logger *slog.Logger
}

// NewParser returns a Parser that logs through logger, or slog.Default()
// when logger is nil.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "parser"))}
}

// ParseCSV reads one subgroup per line. Cells may be separated by commas or
// semicolons, blank lines are skipped and cells that are not numbers (headers,
// labels, empty cells) are dropped. A line with no numeric cell at all is
// skipped. Shape validation is left to spc.NewDataset.
func (p *Parser) ParseCSV(r io.Reader) ([][]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var rows [][]float64
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if text == "" {
			continue
		}

		var row []float64
		for _, cell := range splitCells(text) {
			if v, ok := parseNumber(cell); ok {
				row = append(row, v)
			}
		}
		if len(row) == 0 {
			p.logger.Debug("skipping line without numeric cells", slog.Int("line", line))
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, apierrors.NewParsingError("failed to read csv", err)
	}
	if len(rows) == 0 {
		return nil, apierrors.NewParsingError("no numeric data found", nil)
	}
	return rows, nil
}

// ParseText parses manually entered data: one subgroup per line, values
// separated by commas. Unlike ParseCSV every cell must be a number.
func ParseText(text string) ([][]float64, error) {
	var rows [][]float64
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cells := strings.Split(line, ",")
		row := make([]float64, 0, len(cells))
		for _, cell := range cells {
			v, ok := parseNumber(cell)
			if !ok {
				return nil, apierrors.NewParsingError(fmt.Sprintf("invalid value %q", strings.TrimSpace(cell)), nil).
					WithContext("line", i+1)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, apierrors.NewParsingError("no data entered", nil)
	}
	return rows, nil
}

// ParseExcel reads numeric cells row by row from the named sheet, or from the
// first sheet when sheet is empty. Non-numeric cells are dropped the way
// ParseCSV drops them.
func (p *Parser) ParseExcel(r io.Reader, sheet string) ([][]float64, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apierrors.NewParsingError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, apierrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	p.logger.Debug("reading workbook sheet", slog.String("sheet_name", sheet), slog.Int("total_rows", len(cells)))

	var rows [][]float64
	for _, cellRow := range cells {
		var row []float64
		for _, cell := range cellRow {
			if v, ok := parseNumber(cell); ok {
				row = append(row, v)
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, apierrors.NewParsingError(fmt.Sprintf("no numeric data found in sheet %q", sheet), nil)
	}
	return rows, nil
}

// ParseUpload dispatches on the extension of name.
func (p *Parser) ParseUpload(name string, r io.Reader) ([][]float64, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case FormatCSV:
		return p.ParseCSV(r)
	case FormatText:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, apierrors.NewParsingError("failed to read text file", err)
		}
		return ParseText(string(data))
	case FormatXLSX:
		return p.ParseExcel(r, "")
	default:
		return nil, apierrors.NewUnsupportedError(fmt.Sprintf("unsupported file format %q", ext)).
			WithContext("supported", SupportedFormats())
	}
}

// ParseFile opens path and parses it according to its extension.
func (p *Parser) ParseFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return p.ParseUpload(path, f)
}

func splitCells(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' })
}

// parseNumber accepts finite decimal numbers, optionally quoted.
func parseNumber(cell string) (float64, bool) {
	cell = strings.Trim(strings.TrimSpace(cell), `"'`)
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
