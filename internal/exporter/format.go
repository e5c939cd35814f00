package exporter

import (
	"strconv"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
)

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatMeasure formats a value at full precision, or as an empty cell when
// unresolved
func formatMeasure(m risk.Measure) string {
	v, ok := m.Float64()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
