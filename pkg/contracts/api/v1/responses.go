package api

// LoanResult is a loan with its derived fields. Unresolved values are null.
type LoanResult struct {
	LoanID         int64    `json:"loan_id"`
	Exposure       float64  `json:"exposure"`
	DrawnAmount    float64  `json:"drawn_amount"`
	UndrawnAmount  float64  `json:"undrawn_amount"`
	CreditRating   string   `json:"credit_rating"`
	CollateralType string   `json:"collateral_type"`
	DaysPastDue    int      `json:"days_past_due"`
	Stage          int      `json:"stage"`
	CCF            *float64 `json:"CCF"`
	PD12Months     *float64 `json:"PD_12months"`
	LGD            *float64 `json:"LGD"`
	EAD            *float64 `json:"EAD"`
	ECL            *float64 `json:"ECL"`
}

// StageSummary aggregates one stage, or the whole portfolio. Amounts are
// decimal strings rounded to cents.
type StageSummary struct {
	Stage         string  `json:"stage"`
	Loans         int     `json:"loans"`
	Unresolved    int     `json:"unresolved"`
	EAD           string  `json:"ead"`
	ECL           string  `json:"ecl"`
	CoverageRatio float64 `json:"coverage_ratio"`
	Display       string  `json:"display"`
}

// Coverage lists categorical values the lookup tables cannot resolve
type Coverage struct {
	Complete           bool     `json:"complete"`
	MissingStages      []int    `json:"missing_stages,omitempty"`
	MissingRatings     []string `json:"missing_ratings,omitempty"`
	MissingCollaterals []string `json:"missing_collaterals,omitempty"`
}

// ScenarioResult is the outcome of one scenario
type ScenarioResult struct {
	Scenario     StressFactors  `json:"scenario"`
	LoanLifetime int            `json:"loan_lifetime"`
	Currency     string         `json:"currency"`
	Stages       []StageSummary `json:"stages"`
	Total        StageSummary   `json:"total"`
	Coverage     Coverage       `json:"coverage"`
	Dropped      []int64        `json:"dropped"`
	Unresolved   []int64        `json:"unresolved"`
	DurationMS   float64        `json:"duration_ms"`
	Loans        []LoanResult   `json:"loans,omitempty"`
}

// ECLResponse is the response of POST /api/v1/ecl
type ECLResponse struct {
	RequestID string           `json:"request_id,omitempty"`
	Results   []ScenarioResult `json:"results"`
}

// ScenariosResponse lists the configured stress scenarios
type ScenariosResponse struct {
	Default   string          `json:"default"`
	Scenarios []StressFactors `json:"scenarios"`
}

// ParametersResponse describes the lookup tables and run defaults
type ParametersResponse struct {
	CCFByStage      map[string]float64 `json:"ccf_by_stage"`
	PDByRating      map[string]float64 `json:"pd_by_rating"`
	LGDByCollateral map[string]float64 `json:"lgd_by_collateral"`
	LoanLifetime    int                `json:"loan_lifetime"`
	Currency        string             `json:"currency"`
	Strict          bool               `json:"strict"`
}
