package risk

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no reporting currency is configured
const DefaultCurrency = "EUR"

// StageTotal aggregates the loans of one stage. Amounts are accumulated as
// decimals so that totals do not depend on summation order.
type StageTotal struct {
	Stage      Stage           `json:"stage"`
	Loans      int             `json:"loans"`
	Unresolved int             `json:"unresolved"`
	EAD        decimal.Decimal `json:"ead"`
	ECL        decimal.Decimal `json:"ecl"`
}

// CoverageRatio returns ECL / EAD, or 0 when EAD is zero
func (t StageTotal) CoverageRatio() float64 {
	if t.EAD.IsZero() {
		return 0
	}
	return t.ECL.DivRound(t.EAD, 10).InexactFloat64()
}

func (t *StageTotal) add(l Loan) {
	t.Loans++
	ead, eadOK := l.EAD.Float64()
	ecl, eclOK := l.ECL.Float64()
	if !eadOK || !eclOK {
		t.Unresolved++
		return
	}
	t.EAD = t.EAD.Add(decimal.NewFromFloat(ead))
	t.ECL = t.ECL.Add(decimal.NewFromFloat(ecl))
}

// Summary is the per-stage aggregation of a calculated portfolio
type Summary struct {
	Scenario string       `json:"scenario"`
	Currency string       `json:"currency"`
	Stages   []StageTotal `json:"stages"`
	Total    StageTotal   `json:"total"`
	Dropped  int          `json:"dropped"`
}

// Summarize aggregates EAD and ECL by stage. Loans with unresolved EAD or ECL
// are counted but excluded from the amounts.
func Summarize(p Portfolio, scenario, currency string) Summary {
	if currency == "" {
		currency = DefaultCurrency
	}
	s := Summary{
		Scenario: scenario,
		Currency: strings.ToUpper(currency),
		Stages:   make([]StageTotal, len(Stages)),
	}
	for i, stage := range Stages {
		s.Stages[i].Stage = stage
	}
	for _, l := range p {
		if !l.Stage.IsClassified() {
			s.Dropped++
			continue
		}
		s.Stages[int(l.Stage)-1].add(l)
		s.Total.add(l)
	}
	return s
}

// SummarizeResult aggregates the output of CalculateECL. Dropped counts the
// loans CalculateECL left out as well as any unclassified loans still in p.
func SummarizeResult(p Portfolio, loss LossReport, scenario, currency string) Summary {
	s := Summarize(p, scenario, currency)
	s.Dropped += len(loss.Dropped)
	return s
}

// ForStage returns the aggregate for stage, or a zero total
func (s Summary) ForStage(stage Stage) StageTotal {
	for _, t := range s.Stages {
		if t.Stage == stage {
			return t
		}
	}
	return StageTotal{Stage: stage}
}

// FormatAmount renders an amount in the summary currency, rounded to the
// currency's minor unit
func (s Summary) FormatAmount(d decimal.Decimal) string {
	return FormatAmount(d, s.Currency)
}

// FormatAmount renders d as a currency amount using the ISO 4217 code
func FormatAmount(d decimal.Decimal, code string) string {
	cur := money.New(0, code).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}

// IsKnownCurrency reports whether code is an ISO 4217 currency
func IsKnownCurrency(code string) bool {
	return money.GetCurrency(strings.ToUpper(code)) != nil
}
