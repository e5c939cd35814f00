package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSummarize tests per-stage aggregation
func TestSummarize(t *testing.T) {
	p := Portfolio{
		{LoanID: 1, Stage: Stage1, EAD: Known(1250), ECL: Known(2.1875)},
		{LoanID: 2, Stage: Stage2, EAD: Known(2800), ECL: Known(161.413061376)},
		{LoanID: 3, Stage: Stage3, EAD: Known(580), ECL: Known(203)},
		{LoanID: 4, Stage: Stage1, EAD: Known(100)},
		{LoanID: 5, Stage: StageUnassigned, EAD: Known(100), ECL: Known(1)},
	}

	s := Summarize(p, "normal", "usd")
	assert.Equal(t, "normal", s.Scenario)
	assert.Equal(t, "USD", s.Currency)
	require.Len(t, s.Stages, 3)
	assert.Equal(t, 1, s.Dropped)

	stage1 := s.ForStage(Stage1)
	assert.Equal(t, 2, stage1.Loans)
	assert.Equal(t, 1, stage1.Unresolved)
	assert.True(t, stage1.EAD.Equal(decimal.NewFromInt(1250)))

	assert.Equal(t, 4, s.Total.Loans)
	assert.InDelta(t, 4630.0, s.Total.EAD.InexactFloat64(), 1e-9)
	assert.InDelta(t, 366.600561376, s.Total.ECL.InexactFloat64(), 1e-9)

	assert.InDelta(t, 0.35, s.ForStage(Stage3).CoverageRatio(), 1e-9)
	assert.Equal(t, 0.0, StageTotal{}.CoverageRatio())
	assert.Equal(t, Stage(9), s.ForStage(Stage(9)).Stage)
}

// TestSummarizeResult tests that loans dropped by CalculateECL are counted
func TestSummarizeResult(t *testing.T) {
	p := Portfolio{
		{LoanID: 1, Stage: Stage1, EAD: Known(100), PD12Months: Known(0.01), LGD: Known(0.5)},
		{LoanID: 2, Stage: StageUnassigned, EAD: Known(100), LGD: Known(0.5)},
		{LoanID: 3, Stage: Stage(7), EAD: Known(100), LGD: Known(0.5)},
	}

	calculated, loss := CalculateECL(p, 1, 1, 5)
	require.Len(t, calculated, 1)

	assert.Equal(t, 0, Summarize(calculated, "normal", "").Dropped)

	s := SummarizeResult(calculated, loss, "normal", "")
	assert.Equal(t, 2, s.Dropped)
	assert.Equal(t, 1, s.Total.Loans)
	assert.InDelta(t, 0.5, s.Total.ECL.InexactFloat64(), 1e-9)
}

// TestSummarizeOrderIndependent tests that totals do not depend on row order
func TestSummarizeOrderIndependent(t *testing.T) {
	p := Portfolio{
		{LoanID: 1, Stage: Stage1, EAD: Known(0.1), ECL: Known(0.1)},
		{LoanID: 2, Stage: Stage1, EAD: Known(0.2), ECL: Known(0.2)},
		{LoanID: 3, Stage: Stage1, EAD: Known(0.3), ECL: Known(0.3)},
	}
	reversed := Portfolio{p[2], p[1], p[0]}

	a := Summarize(p, "normal", "")
	b := Summarize(reversed, "normal", "")
	assert.True(t, a.Total.ECL.Equal(b.Total.ECL))
	assert.Equal(t, "0.6", a.Total.ECL.String())
	assert.Equal(t, DefaultCurrency, a.Currency)
}

// TestFormatAmount tests currency rendering
func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   decimal.Decimal
		code     string
		expected string
	}{
		{decimal.NewFromFloat(4630), "USD", "$4,630.00"},
		{decimal.NewFromFloat(366.600561376), "USD", "$366.60"},
		{decimal.NewFromFloat(0.005), "USD", "$0.01"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatAmount(tt.amount, tt.code))
	}

	assert.True(t, IsKnownCurrency("eur"))
	assert.False(t, IsKnownCurrency("XYZ"))
}
