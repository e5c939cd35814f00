package http

import (
	"math"
	"slices"
	"strconv"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
	api "github.com/Candide-27/credit-risk-modeling/pkg/contracts/api/v1"
)

// toPortfolio converts request loans into a portfolio. A missing exposure
// defaults to drawn plus undrawn.
func toPortfolio(loans []api.LoanInput) risk.Portfolio {
	p := make(risk.Portfolio, len(loans))
	for i, in := range loans {
		exposure := in.DrawnAmount + in.UndrawnAmount
		if in.Exposure != nil {
			exposure = *in.Exposure
		}
		p[i] = risk.Loan{
			LoanID:         in.LoanID,
			Exposure:       exposure,
			DrawnAmount:    in.DrawnAmount,
			UndrawnAmount:  in.UndrawnAmount,
			CreditRating:   in.CreditRating,
			CollateralType: in.CollateralType,
			DaysPastDue:    in.DaysPastDue,
		}
	}
	return p
}

func toScenario(f api.StressFactors) risk.Scenario {
	name := f.Name
	if name == "" {
		name = "custom"
	}
	return risk.Scenario{
		Name:      name,
		CCFFactor: f.CCFFactor,
		LGDFactor: f.LGDFactor,
		PDFactor:  f.PDFactor,
	}
}

func toStressFactors(s risk.Scenario) api.StressFactors {
	return api.StressFactors{
		Name:      s.Name,
		CCFFactor: s.CCFFactor,
		LGDFactor: s.LGDFactor,
		PDFactor:  s.PDFactor,
	}
}

func toScenarioResult(res *risk.Result, withLoans bool) api.ScenarioResult {
	out := api.ScenarioResult{
		Scenario:     toStressFactors(res.Scenario),
		LoanLifetime: res.LoanLifetime,
		Currency:     res.Summary.Currency,
		Stages:       make([]api.StageSummary, 0, len(res.Summary.Stages)),
		Total:        toStageSummary(res.Summary, res.Summary.Total, "total"),
		Coverage:     toCoverage(res.Coverage),
		Dropped:      nonNilIDs(res.Loss.Dropped),
		Unresolved:   nonNilIDs(res.Loss.Unresolved),
		DurationMS:   float64(res.Duration.Microseconds()) / 1000,
	}

	for _, st := range res.Summary.Stages {
		out.Stages = append(out.Stages, toStageSummary(res.Summary, st, st.Stage.String()))
	}

	if withLoans {
		out.Loans = make([]api.LoanResult, len(res.Portfolio))
		for i, l := range res.Portfolio {
			out.Loans[i] = toLoanResult(l)
		}
	}
	return out
}

func toStageSummary(s risk.Summary, t risk.StageTotal, label string) api.StageSummary {
	return api.StageSummary{
		Stage:         label,
		Loans:         t.Loans,
		Unresolved:    t.Unresolved,
		EAD:           t.EAD.StringFixed(2),
		ECL:           t.ECL.StringFixed(2),
		CoverageRatio: t.CoverageRatio(),
		Display:       s.FormatAmount(t.ECL),
	}
}

func toCoverage(c risk.Coverage) api.Coverage {
	out := api.Coverage{
		Complete:           c.Complete(),
		MissingRatings:     c.MissingRatings,
		MissingCollaterals: c.MissingCollaterals,
	}
	for _, st := range c.MissingStages {
		out.MissingStages = append(out.MissingStages, int(st))
	}
	return out
}

func toLoanResult(l risk.Loan) api.LoanResult {
	return api.LoanResult{
		LoanID:         l.LoanID,
		Exposure:       l.Exposure,
		DrawnAmount:    l.DrawnAmount,
		UndrawnAmount:  l.UndrawnAmount,
		CreditRating:   l.CreditRating,
		CollateralType: l.CollateralType,
		DaysPastDue:    l.DaysPastDue,
		Stage:          int(l.Stage),
		CCF:            measurePtr(l.CCF),
		PD12Months:     measurePtr(l.PD12Months),
		LGD:            measurePtr(l.LGD),
		EAD:            measurePtr(l.EAD),
		ECL:            measurePtr(l.ECL),
	}
}

func toParameters(t risk.Tables) (ccf, pd, lgd map[string]float64) {
	ccf = make(map[string]float64, len(t.CCF))
	for stage, v := range t.CCF {
		ccf[strconv.Itoa(int(stage))] = v
	}
	pd = make(map[string]float64, len(t.PD))
	for rating, v := range t.PD {
		pd[rating] = v
	}
	lgd = make(map[string]float64, len(t.LGD))
	for collateral, v := range t.LGD {
		lgd[collateral] = v
	}
	return ccf, pd, lgd
}

func measurePtr(m risk.Measure) *float64 {
	v, ok := m.Float64()
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// nonNilIDs returns a sorted copy so that empty lists encode as []
func nonNilIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	slices.Sort(out)
	return out
}
