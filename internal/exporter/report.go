package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/xuri/excelize/v2"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
)

// Format is an output file format
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "xlsx"
)

// ParseFormats parses a comma separated list such as "csv,xlsx"
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	for _, part := range strings.Split(s, ",") {
		switch f := Format(strings.ToLower(strings.TrimSpace(part))); f {
		case FormatCSV, FormatJSON, FormatExcel:
			formats = append(formats, f)
		case "":
		default:
			return nil, fmt.Errorf("unknown output format %q", part)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no output format given")
	}
	return formats, nil
}

// LoanHeaders are the columns of the per-loan output
var LoanHeaders = []string{
	"loan_id",
	"exposure",
	"drawn_amount",
	"undrawn_amount",
	"credit_rating",
	"collateral_type",
	"days_past_due",
	"stage",
	"CCF",
	"PD_12months",
	"LGD",
	"EAD",
	"ECL",
}

// LoanRecord renders a loan as a CSV record. Unresolved values are empty.
func LoanRecord(l risk.Loan) []string {
	return []string{
		formatInt(l.LoanID),
		formatMeasure(risk.Known(l.Exposure)),
		formatMeasure(risk.Known(l.DrawnAmount)),
		formatMeasure(risk.Known(l.UndrawnAmount)),
		l.CreditRating,
		l.CollateralType,
		formatInt(int64(l.DaysPastDue)),
		formatInt(int64(l.Stage)),
		formatMeasure(l.CCF),
		formatMeasure(l.PD12Months),
		formatMeasure(l.LGD),
		formatMeasure(l.EAD),
		formatMeasure(l.ECL),
	}
}

// Exporter writes calculation results to a reports directory
type Exporter struct {
	dir     string
	formats []Format
	csv     *CSVWriter
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an exporter writing the given formats to dir
func New(dir string, logger *slog.Logger, formats ...Format) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if len(formats) == 0 {
		formats = []Format{FormatCSV}
	}
	return &Exporter{
		dir:     dir,
		formats: formats,
		csv:     NewCSVWriter(dir),
		logger:  logger,
		now:     time.Now,
	}
}

// SetBOM prefixes CSV output with a UTF-8 byte order mark
func (e *Exporter) SetBOM(bom bool) {
	e.csv.SetBOM(bom)
}

// Export writes one file per scenario and format, a combined workbook when
// Excel output is requested, and a text summary. It returns the written paths.
func (e *Exporter) Export(results []*risk.Result) ([]string, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no results to export")
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	stamp := e.now().Format("20060102")
	var written []string

	for _, format := range e.formats {
		switch format {
		case FormatCSV:
			for _, r := range results {
				name := fmt.Sprintf("ecl_%s_%s.csv", fileSafe(r.Scenario.Name), stamp)
				path, err := e.csv.WritePortfolio(name, r.Portfolio)
				if err != nil {
					return written, err
				}
				written = append(written, path)

				if len(r.Loss.Dropped) == 0 && len(r.Loss.Unresolved) == 0 {
					continue
				}
				name = fmt.Sprintf("ecl_%s_exceptions_%s.csv", fileSafe(r.Scenario.Name), stamp)
				path, err = e.csv.WriteExceptions(name, r.Loss)
				if err != nil {
					return written, err
				}
				written = append(written, path)
			}
		case FormatJSON:
			for _, r := range results {
				path := filepath.Join(e.dir, fmt.Sprintf("ecl_%s_%s.json", fileSafe(r.Scenario.Name), stamp))
				if err := WriteJSON(path, r); err != nil {
					return written, err
				}
				written = append(written, path)
			}
		case FormatExcel:
			path := filepath.Join(e.dir, fmt.Sprintf("ecl_report_%s.xlsx", stamp))
			if err := WriteExcel(path, results...); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}

	summaryPath := filepath.Join(e.dir, fmt.Sprintf("ecl_summary_%s.txt", stamp))
	if err := WriteSummaryReport(summaryPath, results...); err != nil {
		return written, err
	}
	written = append(written, summaryPath)

	e.logger.Info("ECL reports written", slog.String("dir", e.dir), slog.Int("files", len(written)))
	return written, nil
}

// WriteJSON writes a result with generation metadata
func WriteJSON(outputPath string, r *risk.Result) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	output := map[string]interface{}{
		"metadata": map[string]interface{}{
			"generated_at":  time.Now().Format(time.RFC3339),
			"total_records": len(r.Portfolio),
			"scenario":      r.Scenario.Name,
			"loan_lifetime": r.LoanLifetime,
		},
		"result": r,
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	return nil
}

// WriteExcel writes one sheet per scenario and a Summary sheet
func WriteExcel(outputPath string, results ...*risk.Result) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	const summarySheet = "Summary"
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummarySheet(f, summarySheet, bold, results); err != nil {
		return err
	}

	for _, r := range results {
		sheet := sheetName(r.Scenario.Name)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}
		if err := writeLoanSheet(f, sheet, bold, r.Portfolio); err != nil {
			return err
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeLoanSheet(f *excelize.File, sheet string, headerStyle int, p risk.Portfolio) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open stream writer for %q: %w", sheet, err)
	}

	header := make([]interface{}, len(LoanHeaders))
	for i, h := range LoanHeaders {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, l := range p {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			l.LoanID,
			l.Exposure,
			l.DrawnAmount,
			l.UndrawnAmount,
			l.CreditRating,
			l.CollateralType,
			l.DaysPastDue,
			int(l.Stage),
			cellValue(l.CCF),
			cellValue(l.PD12Months),
			cellValue(l.LGD),
			cellValue(l.EAD),
			cellValue(l.ECL),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write loan %d: %w", l.LoanID, err)
		}
	}

	return sw.Flush()
}

func writeSummarySheet(f *excelize.File, sheet string, headerStyle int, results []*risk.Result) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open stream writer for %q: %w", sheet, err)
	}

	headers := []string{"scenario", "stage", "loans", "unresolved", "EAD", "ECL", "coverage_ratio"}
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rowNum := 2
	for _, r := range results {
		totals := append(append([]risk.StageTotal{}, r.Summary.Stages...), r.Summary.Total)
		for i, t := range totals {
			stage := t.Stage.String()
			if i == len(totals)-1 {
				stage = "total"
			}
			cell, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return err
			}
			row := []interface{}{
				r.Scenario.Name,
				stage,
				t.Loans,
				t.Unresolved,
				t.EAD.InexactFloat64(),
				t.ECL.InexactFloat64(),
				t.CoverageRatio(),
			}
			if err := sw.SetRow(cell, row); err != nil {
				return fmt.Errorf("write summary row: %w", err)
			}
			rowNum++
		}
	}

	return sw.Flush()
}

// WriteSummaryReport writes a plain text report with one stage table per scenario
func WriteSummaryReport(outputPath string, results ...*risk.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to summarise")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "IFRS9 Expected Credit Loss - Summary Report\n")
	fmt.Fprintf(file, "===========================================\n\n")
	fmt.Fprintf(file, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	for _, r := range results {
		fmt.Fprintf(file, "SCENARIO %s\n", strings.ToUpper(r.Scenario.Name))
		fmt.Fprintf(file, "Stress factors: CCF x%g, LGD x%g, PD x%g\n",
			r.Scenario.CCFFactor, r.Scenario.LGDFactor, r.Scenario.PDFactor)
		fmt.Fprintf(file, "Loan lifetime: %d periods\n", r.LoanLifetime)
		fmt.Fprintf(file, "Loans: %d, dropped: %d, unresolved: %d\n\n",
			len(r.Portfolio), len(r.Loss.Dropped), len(r.Loss.Unresolved))

		RenderStageTable(file, r.Summary)

		if !r.Coverage.Complete() {
			fmt.Fprintf(file, "Uncovered keys: stages %v, ratings %v, collateral %v\n",
				r.Coverage.MissingStages, r.Coverage.MissingRatings, r.Coverage.MissingCollaterals)
		}
		fmt.Fprintln(file)
	}

	return nil
}

// RenderStageTable prints the per-stage totals of s as a table
func RenderStageTable(w io.Writer, s risk.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stage", "Loans", "Unresolved", "EAD", "ECL", "Coverage"})

	for _, st := range s.Stages {
		t.AppendRow(table.Row{
			st.Stage.String(),
			st.Loans,
			st.Unresolved,
			s.FormatAmount(st.EAD),
			s.FormatAmount(st.ECL),
			fmt.Sprintf("%.2f%%", st.CoverageRatio()*100),
		})
	}
	t.AppendFooter(table.Row{
		"Total",
		s.Total.Loans,
		s.Total.Unresolved,
		s.FormatAmount(s.Total.EAD),
		s.FormatAmount(s.Total.ECL),
		fmt.Sprintf("%.2f%%", s.Total.CoverageRatio()*100),
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 5, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 6, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

func cellValue(m risk.Measure) interface{} {
	v, ok := m.Float64()
	if !ok {
		return nil
	}
	return v
}

// sheetName makes a scenario name usable as an Excel sheet name
func sheetName(scenario string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, scenario)
	if name == "" || strings.EqualFold(name, "Summary") {
		name = "scenario_" + name
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// fileSafe replaces characters that do not belong in a file name
func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
