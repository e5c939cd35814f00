package risk

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies the spans and metrics emitted by this package
const InstrumentationName = "github.com/Candide-27/credit-risk-modeling/internal/risk"

// instruments holds the metrics recorded for every run
type instruments struct {
	runs       metric.Int64Counter
	loans      metric.Int64Counter
	dropped    metric.Int64Counter
	unresolved metric.Int64Counter
	duration   metric.Float64Histogram
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	runs, err := meter.Int64Counter(
		"ecl_runs_total",
		metric.WithDescription("Total number of ECL pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	loans, err := meter.Int64Counter(
		"ecl_loans_processed_total",
		metric.WithDescription("Total number of loans processed by the ECL pipeline"),
	)
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter(
		"ecl_loans_dropped_total",
		metric.WithDescription("Loans excluded from the ECL output because their stage is unclassified"),
	)
	if err != nil {
		return nil, err
	}

	unresolved, err := meter.Int64Counter(
		"ecl_loans_unresolved_total",
		metric.WithDescription("Loans whose ECL could not be resolved from the lookup tables"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"ecl_run_duration_seconds",
		metric.WithDescription("ECL pipeline run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{
		runs:       runs,
		loans:      loans,
		dropped:    dropped,
		unresolved: unresolved,
		duration:   duration,
	}, nil
}

// defaultTelemetry uses the globally registered providers, which are no-ops
// until infrastructure.InitializeOTel installs real ones
func defaultTelemetry() (trace.Tracer, metric.Meter) {
	return otel.Tracer(InstrumentationName), otel.Meter(InstrumentationName)
}
