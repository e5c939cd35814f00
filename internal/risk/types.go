package risk

import (
	"encoding/json"
	"fmt"
	"math"
)

// Stage represents the IFRS9 accounting stage of a loan
type Stage int

const (
	// StageUnassigned is the zero value, used before the Stager runs
	StageUnassigned Stage = 0
	// Stage1 is a performing loan, 12-month expected loss
	Stage1 Stage = 1
	// Stage2 is a loan with significant increase in credit risk, lifetime expected loss
	Stage2 Stage = 2
	// Stage3 is a defaulted or credit-impaired loan
	Stage3 Stage = 3
)

// Stages lists the classified stages in ascending order
var Stages = []Stage{Stage1, Stage2, Stage3}

// String returns the string representation of the stage
func (s Stage) String() string {
	switch s {
	case Stage1:
		return "stage1"
	case Stage2:
		return "stage2"
	case Stage3:
		return "stage3"
	case StageUnassigned:
		return "unassigned"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// IsClassified reports whether s is one of the three IFRS9 stages
func (s Stage) IsClassified() bool {
	return s == Stage1 || s == Stage2 || s == Stage3
}

// Measure is a derived numeric value that may be unresolved, for example
// when a lookup table has no entry for a loan's key. The zero value is
// unresolved.
type Measure struct {
	value float64
	known bool
}

// Known returns a resolved measure holding v. NaN and infinite values, which
// stress factors can produce from finite inputs, are unresolved.
func Known(v float64) Measure {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Measure{}
	}
	return Measure{value: v, known: true}
}

// Unresolved returns a measure with no value
func Unresolved() Measure {
	return Measure{}
}

// IsKnown reports whether the measure holds a value
func (m Measure) IsKnown() bool {
	return m.known
}

// Float64 returns the value and whether it is resolved
func (m Measure) Float64() (float64, bool) {
	return m.value, m.known
}

// Or returns the value, or def when unresolved
func (m Measure) Or(def float64) float64 {
	if !m.known {
		return def
	}
	return m.value
}

// String returns the formatted value or "n/a"
func (m Measure) String() string {
	if !m.known {
		return "n/a"
	}
	return fmt.Sprintf("%g", m.value)
}

// MarshalJSON encodes an unresolved measure as null
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.known {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON decodes null as an unresolved measure
func (m *Measure) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Measure{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode measure: %w", err)
	}
	*m = Known(v)
	return nil
}

// Loan is one row of the portfolio table
type Loan struct {
	LoanID         int64   `json:"loan_id" validate:"gte=0"`
	Exposure       float64 `json:"exposure" validate:"gte=0"`
	DrawnAmount    float64 `json:"drawn_amount" validate:"gte=0"`
	UndrawnAmount  float64 `json:"undrawn_amount" validate:"gte=0"`
	CreditRating   string  `json:"credit_rating" validate:"required"`
	CollateralType string  `json:"collateral_type" validate:"required"`
	DaysPastDue    int     `json:"days_past_due" validate:"gte=0"`

	// Derived fields
	Stage      Stage   `json:"stage"`
	CCF        Measure `json:"CCF"`
	PD12Months Measure `json:"PD_12months"`
	LGD        Measure `json:"LGD"`
	EAD        Measure `json:"EAD"`
	ECL        Measure `json:"ECL"`
}

// IsResolved reports whether every derived field the ECL depends on is known
func (l Loan) IsResolved() bool {
	return l.ECL.IsKnown()
}

// Portfolio is an ordered collection of loans, unique by LoanID
type Portfolio []Loan

// Clone returns a copy of the portfolio that shares no backing array with p
func (p Portfolio) Clone() Portfolio {
	if p == nil {
		return nil
	}
	out := make(Portfolio, len(p))
	copy(out, p)
	return out
}

// IDs returns the loan identifiers in portfolio order
func (p Portfolio) IDs() []int64 {
	ids := make([]int64, len(p))
	for i, l := range p {
		ids[i] = l.LoanID
	}
	return ids
}

// Scenario is a named set of multiplicative stress factors
type Scenario struct {
	Name      string  `json:"name" yaml:"name"`
	CCFFactor float64 `json:"CCF_stressed_factor" yaml:"CCF_stressed_factor"`
	LGDFactor float64 `json:"LGD_stressed_factor" yaml:"LGD_stressed_factor"`
	PDFactor  float64 `json:"PD_stressed_factor" yaml:"PD_stressed_factor"`
}

// NormalScenario returns the unstressed scenario with all factors at 1.0
func NormalScenario() Scenario {
	return Scenario{Name: "normal", CCFFactor: 1, LGDFactor: 1, PDFactor: 1}
}

// UnmarshalYAML decodes a scenario over the no-stress factors, so that a
// factor missing from the file stays at 1.0
func (s *Scenario) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain Scenario
	p := plain(NormalScenario())
	p.Name = ""
	if err := unmarshal(&p); err != nil {
		return err
	}
	*s = Scenario(p)
	return nil
}

// IsValid checks that all factors are finite and non-negative
func (s Scenario) IsValid() bool {
	return s.Validate() == nil
}

// Validate returns a ValidationError for the first invalid factor
func (s Scenario) Validate() error {
	factors := []struct {
		field string
		value float64
	}{
		{"CCF_stressed_factor", s.CCFFactor},
		{"LGD_stressed_factor", s.LGDFactor},
		{"PD_stressed_factor", s.PDFactor},
	}
	for _, f := range factors {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ValidationError{
				Field:   f.field,
				Message: "stress factor must be a finite non-negative number",
				Value:   f.value,
			}
		}
	}
	return nil
}

// Columns names the input columns that feed the categorical and
// delinquency fields of a Loan
type Columns struct {
	DaysPastDue    string `json:"days_past_due" yaml:"days_past_due" envconfig:"DAYS_PAST_DUE"`
	CreditRating   string `json:"credit_rating" yaml:"credit_rating" envconfig:"CREDIT_RATING"`
	CollateralType string `json:"collateral_type" yaml:"collateral_type" envconfig:"COLLATERAL_TYPE"`
}

// DefaultColumns returns the default column names
func DefaultColumns() Columns {
	return Columns{
		DaysPastDue:    "days_past_due",
		CreditRating:   "credit_rating",
		CollateralType: "collateral_type",
	}
}

// WithDefaults fills empty names with the defaults
func (c Columns) WithDefaults() Columns {
	d := DefaultColumns()
	if c.DaysPastDue == "" {
		c.DaysPastDue = d.DaysPastDue
	}
	if c.CreditRating == "" {
		c.CreditRating = d.CreditRating
	}
	if c.CollateralType == "" {
		c.CollateralType = d.CollateralType
	}
	return c
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// Constants for default values
const (
	// DefaultLoanLifetime is the remaining contractual lifetime, in periods,
	// used for the Stage 2 lifetime PD
	DefaultLoanLifetime = 5

	// Days-past-due thresholds
	Stage2Threshold = 30
	Stage3Threshold = 90

	// ImpairedPD is the probability of default applied to Stage 3 loans
	ImpairedPD = 1.0
)
