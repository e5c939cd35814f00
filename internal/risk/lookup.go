package risk

import (
	"cmp"
	"slices"
)

// Lookup maps a categorical key to a risk parameter
type Lookup[K cmp.Ordered] map[K]float64

// Get returns the parameter for key, unresolved when the key is absent
func (l Lookup[K]) Get(key K) Measure {
	v, ok := l[key]
	if !ok {
		return Unresolved()
	}
	return Known(v)
}

// Keys returns the table keys in ascending order
func (l Lookup[K]) Keys() []K {
	keys := make([]K, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Missing returns the distinct keys from keys that have no entry, sorted
func (l Lookup[K]) Missing(keys []K) []K {
	seen := make(map[K]bool)
	var missing []K
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, ok := l[k]; !ok {
			missing = append(missing, k)
		}
	}
	slices.Sort(missing)
	return missing
}

// Tables bundles the three lookup tables used by the Parameter Assigner
type Tables struct {
	CCF Lookup[Stage]  `json:"ccf_by_stage"`
	PD  Lookup[string] `json:"pd_by_rating"`
	LGD Lookup[string] `json:"lgd_by_collateral"`
}

// DefaultTables returns point-in-time parameters for a generic corporate book
func DefaultTables() Tables {
	return Tables{
		CCF: Lookup[Stage]{Stage1: 0.5, Stage2: 0.8, Stage3: 0.8},
		PD: Lookup[string]{
			"AAA": 0.0001,
			"AA":  0.0005,
			"A":   0.001,
			"BBB": 0.005,
			"BB":  0.02,
			"B":   0.05,
			"CCC": 0.15,
		},
		LGD: Lookup[string]{"Secured": 0.35, "Unsecured": 0.6},
	}
}

// Coverage describes the categorical values of a portfolio that the lookup
// tables cannot resolve
type Coverage struct {
	MissingStages      []Stage  `json:"missing_stages,omitempty"`
	MissingRatings     []string `json:"missing_ratings,omitempty"`
	MissingCollaterals []string `json:"missing_collaterals,omitempty"`
}

// Complete reports whether every key is covered
func (c Coverage) Complete() bool {
	return len(c.MissingStages) == 0 && len(c.MissingRatings) == 0 && len(c.MissingCollaterals) == 0
}

// CheckCoverage compares the distinct stage, rating and collateral values of
// p against the tables. Unassigned stages are ignored since the Stager has not
// run yet.
func CheckCoverage(p Portfolio, t Tables) Coverage {
	stages := make([]Stage, 0, len(p))
	ratings := make([]string, 0, len(p))
	collaterals := make([]string, 0, len(p))
	for _, l := range p {
		if l.Stage != StageUnassigned {
			stages = append(stages, l.Stage)
		}
		ratings = append(ratings, l.CreditRating)
		collaterals = append(collaterals, l.CollateralType)
	}
	return Coverage{
		MissingStages:      t.CCF.Missing(stages),
		MissingRatings:     t.PD.Missing(ratings),
		MissingCollaterals: t.LGD.Missing(collaterals),
	}
}
