// Package api contains the request and response contracts of the ECL HTTP
// API. Version v1 represents the current stable API version.
package api

import "encoding/json"

// LoanInput is one loan of a calculation request. Exposure is optional and
// defaults to drawn_amount + undrawn_amount.
type LoanInput struct {
	LoanID         int64    `json:"loan_id"`
	Exposure       *float64 `json:"exposure,omitempty"`
	DrawnAmount    float64  `json:"drawn_amount"`
	UndrawnAmount  float64  `json:"undrawn_amount"`
	CreditRating   string   `json:"credit_rating"`
	CollateralType string   `json:"collateral_type"`
	DaysPastDue    int      `json:"days_past_due"`
}

// StressFactors is an ad hoc scenario given inline instead of by name.
// Factors left out of the request default to 1.0.
type StressFactors struct {
	Name      string  `json:"name,omitempty"`
	CCFFactor float64 `json:"CCF_stressed_factor" validate:"gte=0"`
	LGDFactor float64 `json:"LGD_stressed_factor" validate:"gte=0"`
	PDFactor  float64 `json:"PD_stressed_factor" validate:"gte=0"`
}

// UnmarshalJSON decodes the factors over a no-stress default
func (f *StressFactors) UnmarshalJSON(data []byte) error {
	type plain StressFactors
	p := plain{CCFFactor: 1, LGDFactor: 1, PDFactor: 1}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = StressFactors(p)
	return nil
}

// ECLRequest asks for the ECL of a portfolio under one or more scenarios.
//
// Scenario selection, in order of precedence:
//   - stress_factors runs a single inline scenario
//   - scenarios runs each named scenario; ["all"] runs every configured one
//   - scenario runs one named scenario
//   - none of the above runs the configured default
type ECLRequest struct {
	Loans         []LoanInput    `json:"loans" validate:"required,min=1"`
	Scenario      string         `json:"scenario,omitempty"`
	Scenarios     []string       `json:"scenarios,omitempty" validate:"omitempty,max=16,dive,required"`
	StressFactors *StressFactors `json:"stress_factors,omitempty"`
	LoanLifetime  int            `json:"loan_lifetime,omitempty" validate:"omitempty,min=1,max=100"`
	Strict        *bool          `json:"strict,omitempty"`
	// OmitLoans returns the summaries only
	OmitLoans bool `json:"omit_loans,omitempty"`
}
