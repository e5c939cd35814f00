package risk

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStage tests Stage type functionality
func TestStage(t *testing.T) {
	tests := []struct {
		name       string
		stage      Stage
		expectStr  string
		classified bool
	}{
		{"stage 1", Stage1, "stage1", true},
		{"stage 2", Stage2, "stage2", true},
		{"stage 3", Stage3, "stage3", true},
		{"unassigned", StageUnassigned, "unassigned", false},
		{"out of range", Stage(7), "stage(7)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectStr, tt.stage.String())
			assert.Equal(t, tt.classified, tt.stage.IsClassified())
		})
	}
}

// TestMeasure tests resolved and unresolved measures
func TestMeasure(t *testing.T) {
	t.Run("zero value is unresolved", func(t *testing.T) {
		var m Measure
		assert.False(t, m.IsKnown())
		assert.Equal(t, 42.0, m.Or(42))
		assert.Equal(t, "n/a", m.String())
	})

	t.Run("known value", func(t *testing.T) {
		m := Known(0.35)
		v, ok := m.Float64()
		assert.True(t, ok)
		assert.Equal(t, 0.35, v)
		assert.Equal(t, 0.35, m.Or(1))
	})

	t.Run("json encoding", func(t *testing.T) {
		data, err := json.Marshal(struct {
			A Measure `json:"a"`
			B Measure `json:"b"`
		}{A: Known(1.5), B: Unresolved()})
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))

		var decoded struct {
			A Measure `json:"a"`
			B Measure `json:"b"`
		}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, Known(1.5), decoded.A)
		assert.False(t, decoded.B.IsKnown())
	})

	t.Run("non-finite values are unresolved", func(t *testing.T) {
		for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
			m := Known(v)
			assert.False(t, m.IsKnown())
			data, err := json.Marshal(m)
			require.NoError(t, err)
			assert.Equal(t, "null", string(data))
		}
	})
}

// TestStageFor tests staging totality and the inclusive lower bounds
func TestStageFor(t *testing.T) {
	tests := []struct {
		dpd      int
		expected Stage
	}{
		{-5, Stage1},
		{0, Stage1},
		{29, Stage1},
		{30, Stage2},
		{89, Stage2},
		{90, Stage3},
		{1000, Stage3},
	}

	for _, tt := range tests {
		got := StageFor(tt.dpd)
		assert.Equal(t, tt.expected, got, "days past due %d", tt.dpd)
		assert.True(t, got.IsClassified())
	}
}

// TestAssignStage tests that staging copies the portfolio and is idempotent
func TestAssignStage(t *testing.T) {
	input := Portfolio{
		{LoanID: 1, DaysPastDue: 0},
		{LoanID: 2, DaysPastDue: 45},
		{LoanID: 3, DaysPastDue: 90},
	}

	staged := AssignStage(input)
	assert.Equal(t, []Stage{Stage1, Stage2, Stage3}, stagesOf(staged))

	for _, l := range input {
		assert.Equal(t, StageUnassigned, l.Stage, "input must not be mutated")
	}

	again := AssignStage(staged)
	assert.Equal(t, staged, again)
}

// TestAssignParameters tests lookups including missing keys
func TestAssignParameters(t *testing.T) {
	tables := DefaultTables()
	input := AssignStage(Portfolio{
		{LoanID: 1, CreditRating: "BBB", CollateralType: "Secured", DaysPastDue: 0},
		{LoanID: 2, CreditRating: "D", CollateralType: "Unsecured", DaysPastDue: 60},
		{LoanID: 3, CreditRating: "CCC", CollateralType: "Guarantee", DaysPastDue: 120},
	})

	out := AssignParameters(input, tables)
	require.Len(t, out, 3)

	assert.Equal(t, Known(0.5), out[0].CCF)
	assert.Equal(t, Known(0.005), out[0].PD12Months)
	assert.Equal(t, Known(0.35), out[0].LGD)

	assert.Equal(t, Known(0.8), out[1].CCF)
	assert.False(t, out[1].PD12Months.IsKnown(), "unknown rating stays unresolved")
	assert.Equal(t, Known(0.6), out[1].LGD)

	assert.Equal(t, Known(0.15), out[2].PD12Months)
	assert.False(t, out[2].LGD.IsKnown(), "unknown collateral stays unresolved")

	t.Run("missing stage entry", func(t *testing.T) {
		partial := Lookup[Stage]{Stage1: 0.5}
		got := AssignCCF(input, partial)
		assert.True(t, got[0].CCF.IsKnown())
		assert.False(t, got[1].CCF.IsKnown())
		assert.False(t, got[2].CCF.IsKnown())
	})

	t.Run("idempotent", func(t *testing.T) {
		assert.Equal(t, out, AssignParameters(out, tables))
	})

	t.Run("overwrites stale values", func(t *testing.T) {
		changed := tables
		changed.LGD = Lookup[string]{"Secured": 0.1, "Unsecured": 0.2, "Guarantee": 0.3}
		got := AssignLGD(out, changed.LGD)
		assert.Equal(t, Known(0.1), got[0].LGD)
		assert.Equal(t, Known(0.3), got[2].LGD)
	})
}

// TestCalculateEAD tests the exposure formula and stress
func TestCalculateEAD(t *testing.T) {
	input := Portfolio{
		{LoanID: 1, DrawnAmount: 100, UndrawnAmount: 200, CCF: Known(0.5)},
		{LoanID: 2, DrawnAmount: 100, UndrawnAmount: 200},
	}

	tests := []struct {
		name     string
		stress   float64
		expected float64
	}{
		{"no stress", 1, 200},
		{"doubled ccf", 2, 300},
		{"zero stress", 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CalculateEAD(input, tt.stress)
			ead, ok := out[0].EAD.Float64()
			require.True(t, ok)
			assert.InDelta(t, tt.expected, ead, 1e-9)
			assert.False(t, out[1].EAD.IsKnown(), "unresolved CCF propagates")
		})
	}

	t.Run("overflow is unresolved", func(t *testing.T) {
		out := CalculateEAD(Portfolio{{DrawnAmount: 1, UndrawnAmount: 10, CCF: Known(0.5)}}, 1e308)
		assert.False(t, out[0].EAD.IsKnown())
	})

	t.Run("not bounded by exposure", func(t *testing.T) {
		out := CalculateEAD(Portfolio{{Exposure: 300, DrawnAmount: 100, UndrawnAmount: 200, CCF: Known(1)}}, 1.5)
		assert.InDelta(t, 400.0, out[0].EAD.Or(0), 1e-9)
	})
}

// TestLifetimePD tests the 12-month to lifetime conversion
func TestLifetimePD(t *testing.T) {
	tests := []struct {
		name     string
		pd12     float64
		lifetime int
		expected float64
	}{
		{"BB over five years", 0.02, 5, 0.0960792032},
		{"B over five years", 0.05, 5, 0.2262190625},
		{"single period equals pd12", 0.15, 1, 0.15},
		{"zero pd", 0, 10, 0},
		{"certain default", 1, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, LifetimePD(tt.pd12, tt.lifetime), 1e-9)
		})
	}
}

// TestExpectedLoss tests the stage formulas and clipping
func TestExpectedLoss(t *testing.T) {
	tests := []struct {
		name      string
		loan      Loan
		lgdStress float64
		pdStress  float64
		expected  float64
	}{
		{
			name:      "stage 1 effective pd clipped to one",
			loan:      Loan{Stage: Stage1, EAD: Known(1000), PD12Months: Known(0.9), LGD: Known(0.5)},
			lgdStress: 1,
			pdStress:  2,
			expected:  500,
		},
		{
			name:      "stage 2 lifetime pd",
			loan:      Loan{Stage: Stage2, EAD: Known(1000), PD12Months: Known(0.02), LGD: Known(0.35)},
			lgdStress: 1,
			pdStress:  1,
			expected:  33.62772112,
		},
		{
			name:      "stage 3 ignores pd",
			loan:      Loan{Stage: Stage3, EAD: Known(1000), PD12Months: Known(0.0001), LGD: Known(0.6)},
			lgdStress: 1,
			pdStress:  5,
			expected:  600,
		},
		{
			name:      "stage 3 with unresolved pd",
			loan:      Loan{Stage: Stage3, EAD: Known(1000), LGD: Known(0.6)},
			lgdStress: 1,
			pdStress:  1,
			expected:  600,
		},
		{
			name:      "stage 3 lgd stress clipped to one",
			loan:      Loan{Stage: Stage3, EAD: Known(1000), LGD: Known(0.6)},
			lgdStress: 2,
			pdStress:  1,
			expected:  1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ecl, ok := ExpectedLoss(tt.loan, tt.lgdStress, tt.pdStress, 5).Float64()
			require.True(t, ok)
			assert.InDelta(t, tt.expected, ecl, 1e-6)
		})
	}

	t.Run("unresolved inputs", func(t *testing.T) {
		cases := []Loan{
			{Stage: Stage1, PD12Months: Known(0.1), LGD: Known(0.5)},
			{Stage: Stage1, EAD: Known(10), LGD: Known(0.5)},
			{Stage: Stage2, EAD: Known(10), PD12Months: Known(0.1)},
			{Stage: StageUnassigned, EAD: Known(10), PD12Months: Known(0.1), LGD: Known(0.5)},
		}
		for _, l := range cases {
			assert.False(t, ExpectedLoss(l, 1, 1, 5).IsKnown())
		}
	})
}

// TestCalculateECL tests partitioning, ordering and dropping
func TestCalculateECL(t *testing.T) {
	base := Portfolio{
		{LoanID: 5, Stage: Stage3, EAD: Known(100), LGD: Known(0.5)},
		{LoanID: 1, Stage: Stage1, EAD: Known(100), PD12Months: Known(0.01), LGD: Known(0.5)},
		{LoanID: 4, Stage: Stage2, EAD: Known(100), PD12Months: Known(0.02), LGD: Known(0.5)},
		{LoanID: 2, Stage: Stage1, EAD: Known(100), LGD: Known(0.5)},
		{LoanID: 3, Stage: Stage3, EAD: Known(100), LGD: Known(0.5)},
	}

	out, report := CalculateECL(base, 1, 1, 5)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, out.IDs())
	assert.Empty(t, report.Dropped)
	assert.Equal(t, []int64{2}, report.Unresolved)
	assert.InDelta(t, 0.5, out[0].ECL.Or(-1), 1e-9)
	assert.InDelta(t, 50.0, out[4].ECL.Or(-1), 1e-9)

	t.Run("ordering invariant under permutation", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 20; i++ {
			shuffled := base.Clone()
			rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
			got, _ := CalculateECL(shuffled, 1, 1, 5)
			assert.Equal(t, out, got)
		}
	})

	t.Run("unclassified stages are dropped and reported", func(t *testing.T) {
		withBad := append(base.Clone(),
			Loan{LoanID: 9, Stage: StageUnassigned, EAD: Known(1), LGD: Known(1)},
			Loan{LoanID: 8, Stage: Stage(4), EAD: Known(1), LGD: Known(1)},
		)
		got, rep := CalculateECL(withBad, 1, 1, 5)
		assert.Len(t, got, len(base))
		assert.Equal(t, []int64{9, 8}, rep.Dropped)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		for _, l := range base {
			assert.False(t, l.ECL.IsKnown())
		}
	})
}

// TestLookup tests lookup helpers
func TestLookup(t *testing.T) {
	pd := Lookup[string]{"A": 0.001, "AAA": 0.0001}
	assert.Equal(t, []string{"A", "AAA"}, pd.Keys())
	assert.Equal(t, []string{"B", "CCC"}, pd.Missing([]string{"CCC", "A", "B", "CCC", "AAA"}))
	assert.Empty(t, pd.Missing(nil))
	assert.False(t, pd.Get("BB").IsKnown())
}

// TestCheckCoverage tests pre-validation of lookup completeness
func TestCheckCoverage(t *testing.T) {
	tables := DefaultTables()
	tables.CCF = Lookup[Stage]{Stage1: 0.5, Stage2: 0.8}

	p := AssignStage(Portfolio{
		{LoanID: 1, CreditRating: "AAA", CollateralType: "Secured", DaysPastDue: 0},
		{LoanID: 2, CreditRating: "NR", CollateralType: "Secured", DaysPastDue: 95},
		{LoanID: 3, CreditRating: "NR", CollateralType: "Mortgage", DaysPastDue: 10},
	})

	c := CheckCoverage(p, tables)
	assert.False(t, c.Complete())
	assert.Equal(t, []Stage{Stage3}, c.MissingStages)
	assert.Equal(t, []string{"NR"}, c.MissingRatings)
	assert.Equal(t, []string{"Mortgage"}, c.MissingCollaterals)

	assert.True(t, CheckCoverage(p[:1], DefaultTables()).Complete())

	t.Run("unstaged loans ignore the ccf table", func(t *testing.T) {
		unstaged := Portfolio{{LoanID: 1, CreditRating: "AAA", CollateralType: "Secured"}}
		assert.True(t, CheckCoverage(unstaged, Tables{PD: tables.PD, LGD: tables.LGD}).Complete())
	})
}

func stagesOf(p Portfolio) []Stage {
	stages := make([]Stage, len(p))
	for i, l := range p {
		stages[i] = l.Stage
	}
	return stages
}
