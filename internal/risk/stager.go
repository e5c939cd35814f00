package risk

// StageFor classifies a loan by days past due. Lower bounds are inclusive
// and negative values fall into Stage 1.
func StageFor(daysPastDue int) Stage {
	switch {
	case daysPastDue >= Stage3Threshold:
		return Stage3
	case daysPastDue >= Stage2Threshold:
		return Stage2
	default:
		return Stage1
	}
}

// AssignStage returns a copy of p with Stage set from DaysPastDue
func AssignStage(p Portfolio) Portfolio {
	out := p.Clone()
	for i := range out {
		out[i].Stage = StageFor(out[i].DaysPastDue)
	}
	return out
}
