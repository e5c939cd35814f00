package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
)

// Fixed input column names. The delinquency, rating and collateral columns
// are configurable through risk.Columns.
const (
	ColumnLoanID        = "loan_id"
	ColumnExposure      = "exposure"
	ColumnDrawnAmount   = "drawn_amount"
	ColumnUndrawnAmount = "undrawn_amount"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor Excel
var ErrUnsupportedFormat = errors.New("unsupported portfolio file format")

// ParseError describes a cell that could not be converted
type ParseError struct {
	Row    int // 1-based, header is row 1
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingColumnsError lists required columns absent from the header
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// LoadPortfolio reads a loan table from a .csv, .xlsx or .xlsm file
func LoadPortfolio(path string, cols risk.Columns) (risk.Portfolio, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, cols)
	case ".xlsx", ".xlsm":
		return LoadExcel(path, "", cols)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadCSV reads a loan table from a CSV file with a header row
func LoadCSV(path string, cols risk.Columns) (risk.Portfolio, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	p, err := ReadCSV(file, cols)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// ReadCSV reads a loan table in CSV form from r
func ReadCSV(r io.Reader, cols risk.Columns) (risk.Portfolio, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	return ParseRows(rows, cols)
}

// LoadExcel reads a loan table from a workbook. An empty sheet name selects
// the first sheet whose header contains the loan_id column.
func LoadExcel(path, sheet string, cols risk.Columns) (risk.Portfolio, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var rows [][]string
	if sheet != "" {
		rows, err = f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
	} else {
		for _, name := range f.GetSheetList() {
			candidate, err := f.GetRows(name)
			if err != nil || len(candidate) == 0 {
				continue
			}
			if _, ok := headerIndex(candidate[0])[ColumnLoanID]; ok {
				rows, sheet = candidate, name
				break
			}
		}
		if rows == nil {
			return nil, fmt.Errorf("could not find a loan table in %s", path)
		}
	}

	slog.Debug("Found loan table", slog.String("file", path), slog.String("sheet", sheet), slog.Int("rows", len(rows)))

	p, err := ParseRows(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// ParseRows converts a header row followed by data rows into a portfolio.
// Blank rows are skipped. Exposure is optional and defaults to drawn plus
// undrawn.
func ParseRows(rows [][]string, cols risk.Columns) (risk.Portfolio, error) {
	if len(rows) == 0 {
		return nil, &MissingColumnsError{Columns: requiredColumns(cols)}
	}

	cols = cols.WithDefaults()
	index := headerIndex(rows[0])

	var missing []string
	for _, name := range requiredColumns(cols) {
		if _, ok := index[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	p := make(risk.Portfolio, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		l, err := parseLoan(row, i+2, index, cols)
		if err != nil {
			return nil, err
		}
		p = append(p, l)
	}
	return p, nil
}

func requiredColumns(cols risk.Columns) []string {
	cols = cols.WithDefaults()
	return []string{
		ColumnLoanID,
		ColumnDrawnAmount,
		ColumnUndrawnAmount,
		cols.CreditRating,
		cols.CollateralType,
		cols.DaysPastDue,
	}
}

type cellReader struct {
	row    []string
	rowNum int
	index  map[string]int
}

func (c cellReader) text(column string) string {
	i, ok := c.index[strings.ToLower(column)]
	if !ok || i >= len(c.row) {
		return ""
	}
	return strings.TrimSpace(c.row[i])
}

func (c cellReader) float(column string) (float64, error) {
	raw := c.text(column)
	v, err := parseNumber(raw)
	if err != nil {
		return 0, &ParseError{Row: c.rowNum, Column: column, Value: raw, Err: err}
	}
	return v, nil
}

func (c cellReader) integer(column string) (int64, error) {
	v, err := c.float(column)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, &ParseError{Row: c.rowNum, Column: column, Value: c.text(column), Err: errors.New("not a whole number")}
	}
	return int64(v), nil
}

func parseLoan(row []string, rowNum int, index map[string]int, cols risk.Columns) (risk.Loan, error) {
	c := cellReader{row: row, rowNum: rowNum, index: index}

	id, err := c.integer(ColumnLoanID)
	if err != nil {
		return risk.Loan{}, err
	}
	drawn, err := c.float(ColumnDrawnAmount)
	if err != nil {
		return risk.Loan{}, err
	}
	undrawn, err := c.float(ColumnUndrawnAmount)
	if err != nil {
		return risk.Loan{}, err
	}
	dpd, err := c.integer(cols.DaysPastDue)
	if err != nil {
		return risk.Loan{}, err
	}

	exposure := drawn + undrawn
	if c.text(ColumnExposure) != "" {
		if exposure, err = c.float(ColumnExposure); err != nil {
			return risk.Loan{}, err
		}
	}

	return risk.Loan{
		LoanID:         id,
		Exposure:       exposure,
		DrawnAmount:    drawn,
		UndrawnAmount:  undrawn,
		CreditRating:   c.text(cols.CreditRating),
		CollateralType: c.text(cols.CollateralType),
		DaysPastDue:    int(dpd),
	}, nil
}

// headerIndex maps lower-cased, trimmed header names to their position
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

// parseNumber accepts plain and thousands-separated numbers
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
