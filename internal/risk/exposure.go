package risk

// ExposureAtDefault computes drawn + undrawn * CCF * stress. The result is
// not bounded by the committed exposure.
func ExposureAtDefault(drawn, undrawn float64, ccf Measure, ccfStress float64) Measure {
	c, ok := ccf.Float64()
	if !ok {
		return Unresolved()
	}
	return Known(drawn + undrawn*c*ccfStress)
}

// CalculateEAD returns a copy of p with EAD set on every loan
func CalculateEAD(p Portfolio, ccfStress float64) Portfolio {
	out := p.Clone()
	for i := range out {
		out[i].EAD = ExposureAtDefault(out[i].DrawnAmount, out[i].UndrawnAmount, out[i].CCF, ccfStress)
	}
	return out
}
