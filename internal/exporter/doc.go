// Package exporter writes ECL results to disk.
//
// CSVWriter is the low level writer. CreateStreamWriter returns a
// StreamWriter for row-by-row output, which WritePortfolio and
// WriteExceptions build on.
//
// Exporter sits on top and writes, for each scenario result:
//
//	ecl_<scenario>_<YYYYMMDD>.csv    one row per loan, LoanHeaders columns
//	ecl_<scenario>_exceptions_<YYYYMMDD>.csv
//	                                 dropped and unresolved loan ids, when any
//	ecl_<scenario>_<YYYYMMDD>.json   the full result with generation metadata
//	ecl_report_<YYYYMMDD>.xlsx       one sheet per scenario plus a Summary sheet
//	ecl_summary_<YYYYMMDD>.txt       per-stage totals for every scenario
//
// Unresolved CCF, PD, LGD, EAD or ECL values are written as empty CSV cells,
// JSON nulls and empty workbook cells.
//
// Example usage:
//
//	exp := exporter.New(cfg.Paths.ReportsDir, logger, exporter.FormatCSV, exporter.FormatExcel)
//	files, err := exp.Export(results)
package exporter
