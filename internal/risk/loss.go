package risk

import (
	"math"
	"sort"
)

// LossReport surfaces the data-quality conditions met by CalculateECL
type LossReport struct {
	// Dropped holds the ids of loans excluded because their stage is not 1, 2 or 3
	Dropped []int64 `json:"dropped,omitempty"`
	// Unresolved holds the ids of loans whose ECL could not be resolved
	Unresolved []int64 `json:"unresolved,omitempty"`
}

// LifetimePD converts a 12-month PD into a lifetime PD over lifetime periods,
// assuming a constant marginal default rate: 1 - (1 - pd12)^lifetime.
func LifetimePD(pd12 float64, lifetime int) float64 {
	return 1 - math.Pow(1-pd12, float64(lifetime))
}

// clipUpper caps a probability or fraction at 1. Values below zero are left
// untouched.
func clipUpper(x float64) float64 {
	if x > 1 {
		return 1
	}
	return x
}

// ExpectedLoss computes the ECL of a single staged, parameterised loan.
// Unclassified stages yield an unresolved measure.
func ExpectedLoss(l Loan, lgdStress, pdStress float64, lifetime int) Measure {
	ead, ok := l.EAD.Float64()
	if !ok {
		return Unresolved()
	}
	lgd, ok := l.LGD.Float64()
	if !ok {
		return Unresolved()
	}
	lgdEff := clipUpper(lgd * lgdStress)

	switch l.Stage {
	case Stage1:
		pd, ok := l.PD12Months.Float64()
		if !ok {
			return Unresolved()
		}
		return Known(ead * clipUpper(pd*pdStress) * lgdEff)
	case Stage2:
		pd, ok := l.PD12Months.Float64()
		if !ok {
			return Unresolved()
		}
		return Known(ead * clipUpper(LifetimePD(pd, lifetime)*pdStress) * lgdEff)
	case Stage3:
		// PD is fixed at certainty for impaired loans
		return Known(ead * ImpairedPD * lgdEff)
	default:
		return Unresolved()
	}
}

// CalculateECL partitions p by stage, applies the stage formula to each
// partition and reassembles the result sorted by LoanID. Loans with an
// unclassified stage are left out and reported in LossReport.Dropped.
func CalculateECL(p Portfolio, lgdStress, pdStress float64, lifetime int) (Portfolio, LossReport) {
	var report LossReport
	partitions := make(map[Stage]Portfolio, len(Stages))
	for _, l := range p {
		if !l.Stage.IsClassified() {
			report.Dropped = append(report.Dropped, l.LoanID)
			continue
		}
		partitions[l.Stage] = append(partitions[l.Stage], l)
	}

	out := make(Portfolio, 0, len(p)-len(report.Dropped))
	for _, stage := range Stages {
		for _, l := range partitions[stage] {
			l.ECL = ExpectedLoss(l, lgdStress, pdStress, lifetime)
			out = append(out, l)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LoanID < out[j].LoanID
	})

	for _, l := range out {
		if !l.ECL.IsKnown() {
			report.Unresolved = append(report.Unresolved, l.LoanID)
		}
	}
	return out, report
}
