package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testResults runs a small book, including one loan with an unknown rating,
// through the normal and severe scenarios
func testResults(t *testing.T) []*risk.Result {
	t.Helper()

	portfolio := risk.Portfolio{
		{LoanID: 2, Exposure: 3000, DrawnAmount: 2000, UndrawnAmount: 1000, CreditRating: "BB", CollateralType: "Unsecured", DaysPastDue: 45},
		{LoanID: 1, Exposure: 1500, DrawnAmount: 1000, UndrawnAmount: 500, CreditRating: "BBB", CollateralType: "Secured", DaysPastDue: 0},
		{LoanID: 3, Exposure: 600, DrawnAmount: 500, UndrawnAmount: 100, CreditRating: "CCC", CollateralType: "Secured", DaysPastDue: 120},
		{LoanID: 4, Exposure: 100, DrawnAmount: 100, UndrawnAmount: 0, CreditRating: "NR", CollateralType: "Secured", DaysPastDue: 0},
	}

	calc := risk.NewCalculator(5, risk.DefaultTables(), quietLogger())
	calc.SetCurrency("USD")

	scenarios := []risk.Scenario{
		risk.NormalScenario(),
		{Name: "severe", CCFFactor: 1, LGDFactor: 1.2, PDFactor: 1.5},
	}

	var results []*risk.Result
	for _, s := range scenarios {
		r, err := calc.Run(context.Background(), portfolio, s)
		require.NoError(t, err)
		results = append(results, r)
	}
	return results
}

func TestLoanRecord(t *testing.T) {
	results := testResults(t)
	loans := results[0].Portfolio

	rec := LoanRecord(loans[0])
	require.Len(t, rec, len(LoanHeaders))
	assert.Equal(t, []string{"1", "1500", "1000", "500", "BBB", "Secured", "0", "1", "0.5", "0.005", "0.35", "1250", "2.1875"}, rec)

	unresolved := LoanRecord(loans[3])
	assert.Equal(t, "4", unresolved[0])
	assert.Equal(t, "", unresolved[9], "unknown rating leaves PD empty")
	assert.Equal(t, "", unresolved[12], "unknown rating leaves ECL empty")
	assert.Equal(t, "100", unresolved[11], "EAD does not depend on PD")
}

func TestWritePortfolio(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)
	results := testResults(t)

	path, err := w.WritePortfolio("normal.csv", results[0].Portfolio)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "normal.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, LoanHeaders, records[0])

	var ids []string
	for _, rec := range records[1:] {
		ids = append(ids, rec[0])
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids, "rows are in loan_id order")
}

func TestWriteExceptions(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)
	w.SetBOM(true)

	path, err := w.WriteExceptions("exceptions.csv", risk.LossReport{
		Dropped:    []int64{7},
		Unresolved: []int64{4, 9},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "\xEF\xBB\xBF"), "BOM prefix")

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\xEF\xBB\xBF"))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"loan_id", "reason"},
		{"7", ReasonNoStage},
		{"4", ReasonUnresolved},
		{"9", ReasonUnresolved},
	}, records)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "severe.json")
	results := testResults(t)

	require.NoError(t, WriteJSON(path, results[1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Metadata struct {
			GeneratedAt  string `json:"generated_at"`
			TotalRecords int    `json:"total_records"`
			Scenario     string `json:"scenario"`
			LoanLifetime int    `json:"loan_lifetime"`
		} `json:"metadata"`
		Result struct {
			Loans []map[string]interface{} `json:"loans"`
			Loss  risk.LossReport          `json:"loss"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "severe", doc.Metadata.Scenario)
	assert.Equal(t, 4, doc.Metadata.TotalRecords)
	assert.Equal(t, 5, doc.Metadata.LoanLifetime)
	_, err = time.Parse(time.RFC3339, doc.Metadata.GeneratedAt)
	assert.NoError(t, err)

	require.Len(t, doc.Result.Loans, 4)
	assert.InDelta(t, 1250.0, doc.Result.Loans[0]["EAD"], 1e-9)
	assert.InDelta(t, 3.9375, doc.Result.Loans[0]["ECL"], 1e-9)
	assert.Nil(t, doc.Result.Loans[3]["ECL"], "unresolved ECL is null")
	assert.Equal(t, []int64{4}, doc.Result.Loss.Unresolved)
}

func TestWriteExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	results := testResults(t)

	require.NoError(t, WriteExcel(path, results...))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "normal", "severe"}, f.GetSheetList())

	rows, err := f.GetRows("severe")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, LoanHeaders, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "1250", rows[1][11])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	// header plus three stages and a total per scenario
	require.Len(t, summary, 9)
	assert.Equal(t, []string{"normal", "total"}, summary[4][:2])
	assert.Equal(t, "4", summary[4][2])
	assert.Equal(t, "1", summary[4][3])
}

func TestWriteSummaryReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	results := testResults(t)

	require.NoError(t, WriteSummaryReport(path, results...))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "SCENARIO NORMAL")
	assert.Contains(t, content, "SCENARIO SEVERE")
	assert.Contains(t, content, "Stress factors: CCF x1, LGD x1.2, PD x1.5")
	assert.Contains(t, content, "Loans: 4, dropped: 0, unresolved: 1")
	assert.Contains(t, content, "$4,630.00")
	assert.Contains(t, content, "$366.60")
	assert.Contains(t, content, "Uncovered keys")

	assert.Error(t, WriteSummaryReport(path))
}

func TestRenderStageTable(t *testing.T) {
	results := testResults(t)

	var sb strings.Builder
	RenderStageTable(&sb, results[0].Summary)
	out := sb.String()

	for _, want := range []string{"STAGE", "stage1", "stage2", "stage3", "TOTAL", "$1,250.00", "$2,800.00"} {
		assert.Contains(t, out, want)
	}
}

func TestExporterExport(t *testing.T) {
	dir := t.TempDir()
	results := testResults(t)

	exp := New(dir, quietLogger(), FormatCSV, FormatJSON, FormatExcel)
	exp.now = func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) }

	files, err := exp.Export(results)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		assert.FileExists(t, f)
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{
		"ecl_normal_20240331.csv",
		"ecl_normal_exceptions_20240331.csv",
		"ecl_severe_20240331.csv",
		"ecl_severe_exceptions_20240331.csv",
		"ecl_normal_20240331.json",
		"ecl_severe_20240331.json",
		"ecl_report_20240331.xlsx",
		"ecl_summary_20240331.txt",
	}, names)

	_, err = exp.Export(nil)
	assert.Error(t, err)
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input   string
		want    []Format
		wantErr bool
	}{
		{"csv", []Format{FormatCSV}, false},
		{"CSV, xlsx,json", []Format{FormatCSV, FormatExcel, FormatJSON}, false},
		{"csv,", []Format{FormatCSV}, false},
		{"parquet", nil, true},
		{"", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormats(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "adverse_2024", sheetName("adverse/2024"))
	assert.Equal(t, "scenario_summary", sheetName("summary"))
	assert.Len(t, sheetName(strings.Repeat("x", 40)), 31)
	assert.Equal(t, "a_b_c", fileSafe("a b.c"))
}
