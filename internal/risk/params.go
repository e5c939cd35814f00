package risk

// AssignCCF returns a copy of p with CCF looked up by stage. Loans whose
// stage has no entry get an unresolved CCF.
func AssignCCF(p Portfolio, ccfByStage Lookup[Stage]) Portfolio {
	out := p.Clone()
	for i := range out {
		out[i].CCF = ccfByStage.Get(out[i].Stage)
	}
	return out
}

// AssignPD returns a copy of p with the 12-month PD looked up by credit rating
func AssignPD(p Portfolio, pdByRating Lookup[string]) Portfolio {
	out := p.Clone()
	for i := range out {
		out[i].PD12Months = pdByRating.Get(out[i].CreditRating)
	}
	return out
}

// AssignLGD returns a copy of p with LGD looked up by collateral type
func AssignLGD(p Portfolio, lgdByCollateral Lookup[string]) Portfolio {
	out := p.Clone()
	for i := range out {
		out[i].LGD = lgdByCollateral.Get(out[i].CollateralType)
	}
	return out
}

// AssignParameters applies the three lookups in order
func AssignParameters(p Portfolio, t Tables) Portfolio {
	return AssignLGD(AssignPD(AssignCCF(p, t.CCF), t.PD), t.LGD)
}
