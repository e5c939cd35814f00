// Package dataprocessing loads loan portfolios from CSV files and Excel
// workbooks into risk.Portfolio values.
//
// # Input Layout
//
// The first row is a header. Header names are matched case-insensitively
// after trimming. The required columns are:
//
//	loan_id, drawn_amount, undrawn_amount, credit_rating, collateral_type, days_past_due
//
// exposure is optional and defaults to drawn_amount + undrawn_amount. The
// names of the delinquency, rating and collateral columns can be overridden
// with risk.Columns, for books that use e.g. "dpd" or "rating_grade".
//
// Numbers may carry thousands separators ("1,000"). loan_id and
// days_past_due must be whole numbers. Blank rows are skipped.
//
// # Usage
//
//	portfolio, err := dataprocessing.LoadPortfolio("loans.xlsx", cfg.Risk.Columns)
//	if err != nil {
//	    return err
//	}
//
// LoadPortfolio dispatches on the file extension. For workbooks the first
// sheet whose header contains loan_id is used unless LoadExcel is given a
// sheet name.
//
// # Error Handling
//
// A header without a required column yields a *MissingColumnsError listing
// every absent column. A cell that cannot be converted yields a *ParseError
// with its row number and column. Semantic checks such as negative amounts
// are left to risk.ValidateLoans.
package dataprocessing
