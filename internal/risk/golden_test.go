package risk

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden tests use a fixed three-loan book, one loan per stage, with the
// default lookup tables and a five period lifetime

func goldenPortfolio() Portfolio {
	return Portfolio{
		{LoanID: 3, Exposure: 600, DrawnAmount: 500, UndrawnAmount: 100, CreditRating: "CCC", CollateralType: "Secured", DaysPastDue: 120},
		{LoanID: 1, Exposure: 1500, DrawnAmount: 1000, UndrawnAmount: 500, CreditRating: "BBB", CollateralType: "Secured", DaysPastDue: 0},
		{LoanID: 2, Exposure: 3000, DrawnAmount: 2000, UndrawnAmount: 1000, CreditRating: "BB", CollateralType: "Unsecured", DaysPastDue: 45},
	}
}

// TestGoldenNormalScenario tests the unstressed pipeline end to end
func TestGoldenNormalScenario(t *testing.T) {
	calc := NewCalculator(DefaultLoanLifetime, DefaultTables(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	result, err := calc.Run(context.Background(), goldenPortfolio(), NormalScenario())
	require.NoError(t, err)
	require.Len(t, result.Portfolio, 3)

	expected := []struct {
		id    int64
		stage Stage
		ccf   float64
		pd    float64
		lgd   float64
		ead   float64
		ecl   float64
	}{
		{1, Stage1, 0.5, 0.005, 0.35, 1250, 2.1875},
		{2, Stage2, 0.8, 0.02, 0.6, 2800, 161.413061376},
		{3, Stage3, 0.8, 0.15, 0.35, 580, 203},
	}

	for i, want := range expected {
		got := result.Portfolio[i]
		assert.Equal(t, want.id, got.LoanID)
		assert.Equal(t, want.stage, got.Stage, "loan %d", want.id)
		assert.InDelta(t, want.ccf, got.CCF.Or(-1), 1e-12, "loan %d CCF", want.id)
		assert.InDelta(t, want.pd, got.PD12Months.Or(-1), 1e-12, "loan %d PD", want.id)
		assert.InDelta(t, want.lgd, got.LGD.Or(-1), 1e-12, "loan %d LGD", want.id)
		assert.InDelta(t, want.ead, got.EAD.Or(-1), 1e-9, "loan %d EAD", want.id)
		assert.InDelta(t, want.ecl, got.ECL.Or(-1), 1e-6, "loan %d ECL", want.id)
	}

	assert.True(t, result.Coverage.Complete())
	assert.Empty(t, result.Loss.Dropped)
	assert.Empty(t, result.Loss.Unresolved)
	assert.InDelta(t, 4630.0, result.Summary.Total.EAD.InexactFloat64(), 1e-6)
	assert.InDelta(t, 366.600561376, result.Summary.Total.ECL.InexactFloat64(), 1e-6)
}

// TestGoldenSevereScenario tests the stressed pipeline end to end
func TestGoldenSevereScenario(t *testing.T) {
	calc := NewCalculator(DefaultLoanLifetime, DefaultTables(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	severe := Scenario{Name: "severe", CCFFactor: 1, LGDFactor: 1.2, PDFactor: 1.5}

	result, err := calc.Run(context.Background(), goldenPortfolio(), severe)
	require.NoError(t, err)

	expected := map[int64]struct{ ead, ecl float64 }{
		1: {1250, 3.9375},
		2: {2800, 290.5435104768},
		3: {580, 243.6},
	}

	for _, l := range result.Portfolio {
		want := expected[l.LoanID]
		assert.InDelta(t, want.ead, l.EAD.Or(-1), 1e-9, "loan %d EAD", l.LoanID)
		assert.InDelta(t, want.ecl, l.ECL.Or(-1), 1e-6, "loan %d ECL", l.LoanID)
	}
	assert.Equal(t, "severe", result.Summary.Scenario)
	assert.InDelta(t, 4630.0, result.Summary.Total.EAD.InexactFloat64(), 1e-6)
	assert.InDelta(t, 538.0810104768, result.Summary.Total.ECL.InexactFloat64(), 1e-6)
}

// TestGoldenStressMonotonicity tests that raising any factor never lowers ECL
func TestGoldenStressMonotonicity(t *testing.T) {
	calc := NewCalculator(DefaultLoanLifetime, DefaultTables(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	base, err := calc.Run(ctx, goldenPortfolio(), NormalScenario())
	require.NoError(t, err)

	stressed := []Scenario{
		{Name: "ccf", CCFFactor: 1.5, LGDFactor: 1, PDFactor: 1},
		{Name: "lgd", CCFFactor: 1, LGDFactor: 1.5, PDFactor: 1},
		{Name: "pd", CCFFactor: 1, LGDFactor: 1, PDFactor: 1.5},
	}
	for _, s := range stressed {
		t.Run(s.Name, func(t *testing.T) {
			result, err := calc.Run(ctx, goldenPortfolio(), s)
			require.NoError(t, err)
			for i := range result.Portfolio {
				assert.GreaterOrEqual(t, result.Portfolio[i].ECL.Or(0), base.Portfolio[i].ECL.Or(0))
			}
		})
	}
}
