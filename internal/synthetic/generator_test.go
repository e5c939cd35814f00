package synthetic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
)

func TestGenerate(t *testing.T) {
	opts := DefaultOptions()

	p, err := Generate(opts)
	require.NoError(t, err)
	require.Len(t, p, DefaultLoans)

	validRatings := map[string]bool{}
	for _, r := range Ratings {
		validRatings[r] = true
	}
	validDPD := map[int]bool{0: true, 15: true, 30: true, 60: true, 90: true}

	secured := 0
	current := 0
	for i, l := range p {
		assert.Equal(t, int64(i+1), l.LoanID)
		assert.GreaterOrEqual(t, l.Exposure, opts.MinExposure)
		assert.Less(t, l.Exposure, opts.MaxExposure)
		assert.GreaterOrEqual(t, l.DrawnAmount, 0.5*l.Exposure)
		assert.LessOrEqual(t, l.DrawnAmount, l.Exposure)
		assert.GreaterOrEqual(t, l.UndrawnAmount, 0.0)
		assert.Less(t, l.UndrawnAmount, 0.5*l.Exposure)
		assert.True(t, validRatings[l.CreditRating], "rating %q", l.CreditRating)
		assert.True(t, validDPD[l.DaysPastDue], "dpd %d", l.DaysPastDue)
		assert.Equal(t, risk.StageUnassigned, l.Stage)

		if l.CollateralType == "Secured" {
			secured++
		}
		if l.DaysPastDue == 0 {
			current++
		}
	}

	// loose bounds around 40% secured and 70% current
	assert.InDelta(t, 400, secured, 80)
	assert.InDelta(t, 700, current, 80)

	assert.NoError(t, risk.ValidateLoans(p))
}

func TestGenerateDeterministic(t *testing.T) {
	opts := Options{Loans: 50, Seed: 7, MinExposure: 1, MaxExposure: 10}

	a, err := Generate(opts)
	require.NoError(t, err)
	b, err := Generate(opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	opts.Seed = 8
	c, err := Generate(opts)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerateInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative count", Options{Loans: -1, MaxExposure: 1}},
		{"negative exposure", Options{Loans: 1, MinExposure: -5, MaxExposure: 1}},
		{"inverted range", Options{Loans: 1, MinExposure: 10, MaxExposure: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.opts)
			assert.Error(t, err)
		})
	}

	p, err := Generate(Options{})
	require.NoError(t, err)
	assert.Empty(t, p)
}
