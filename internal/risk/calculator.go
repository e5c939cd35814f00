package risk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Calculator orchestrates the four pipeline stages for one set of lookup
// tables and a fixed loan lifetime
type Calculator struct {
	loanLifetime int
	tables       Tables
	currency     string
	logger       *slog.Logger

	strict  bool
	tracer  trace.Tracer
	metrics *instruments
}

// Result is the outcome of one pipeline run
type Result struct {
	Scenario     Scenario      `json:"scenario"`
	LoanLifetime int           `json:"loan_lifetime"`
	Portfolio    Portfolio     `json:"loans"`
	Coverage     Coverage      `json:"coverage"`
	Loss         LossReport    `json:"loss"`
	Summary      Summary       `json:"summary"`
	Duration     time.Duration `json:"duration"`
}

// NewCalculator creates a calculator in permissive mode
func NewCalculator(loanLifetime int, tables Tables, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Calculator{
		loanLifetime: loanLifetime,
		tables:       tables,
		currency:     DefaultCurrency,
		logger:       logger,
	}
	c.SetTelemetry(defaultTelemetry())
	return c
}

// SetStrict enables validation of loans, tables and lookup coverage before
// a run. Permissive mode is the default.
func (c *Calculator) SetStrict(strict bool) {
	c.strict = strict
}

// SetCurrency sets the reporting currency of the summary
func (c *Calculator) SetCurrency(code string) {
	if code != "" {
		c.currency = code
	}
}

// SetTelemetry replaces the tracer and meter used by the calculator
func (c *Calculator) SetTelemetry(tracer trace.Tracer, meter metric.Meter) {
	c.tracer = tracer
	m, err := newInstruments(meter)
	if err != nil {
		c.logger.Warn("failed to create ecl metrics, continuing without them", "error", err)
		m = nil
	}
	c.metrics = m
}

// LoanLifetime returns the configured lifetime in periods
func (c *Calculator) LoanLifetime() int {
	return c.loanLifetime
}

// Tables returns the lookup tables used by the calculator
func (c *Calculator) Tables() Tables {
	return c.tables
}

// Run stages, parameterises and computes EAD and ECL for p under scenario.
// The input portfolio is not modified.
func (c *Calculator) Run(ctx context.Context, p Portfolio, scenario Scenario) (*Result, error) {
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "risk.Run", trace.WithAttributes(
		attribute.String("scenario", scenario.Name),
		attribute.Int("loans", len(p)),
		attribute.Int("loan_lifetime", c.loanLifetime),
	))
	defer span.End()

	c.logger.InfoContext(ctx, "starting ecl calculation",
		"scenario", scenario.Name,
		"loans", len(p),
		"loan_lifetime", c.loanLifetime,
		"ccf_factor", scenario.CCFFactor,
		"lgd_factor", scenario.LGDFactor,
		"pd_factor", scenario.PDFactor,
		"strict", c.strict,
	)

	if err := c.validateInputs(p, scenario); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "input validation failed")
		c.logger.ErrorContext(ctx, "input validation failed", "error", err)
		return nil, fmt.Errorf("validate inputs: %w", err)
	}

	staged := p
	c.step(ctx, "risk.AssignStage", func() {
		staged = AssignStage(p)
	})
	if err := ctx.Err(); err != nil {
		return nil, c.abort(span, err)
	}

	coverage := CheckCoverage(staged, c.tables)
	if !coverage.Complete() {
		if c.strict {
			err := ValidateCoverage(coverage)
			span.RecordError(err)
			span.SetStatus(codes.Error, "incomplete lookup coverage")
			return nil, fmt.Errorf("check lookup coverage: %w", err)
		}
		c.logger.WarnContext(ctx, "lookup tables do not cover every loan, affected loans stay unresolved",
			"missing_stages", coverage.MissingStages,
			"missing_ratings", coverage.MissingRatings,
			"missing_collaterals", coverage.MissingCollaterals,
		)
	}

	parameterised := staged
	c.step(ctx, "risk.AssignParameters", func() {
		parameterised = AssignParameters(staged, c.tables)
	})
	if err := ctx.Err(); err != nil {
		return nil, c.abort(span, err)
	}

	exposed := parameterised
	c.step(ctx, "risk.CalculateEAD", func() {
		exposed = CalculateEAD(parameterised, scenario.CCFFactor)
	})
	if err := ctx.Err(); err != nil {
		return nil, c.abort(span, err)
	}

	var (
		calculated Portfolio
		loss       LossReport
	)
	c.step(ctx, "risk.CalculateECL", func() {
		calculated, loss = CalculateECL(exposed, scenario.LGDFactor, scenario.PDFactor, c.loanLifetime)
	})

	if len(loss.Dropped) > 0 {
		c.logger.WarnContext(ctx, "loans with unclassified stage dropped from ecl output",
			"dropped", len(loss.Dropped),
			"loan_ids", loss.Dropped,
		)
	}
	if len(loss.Unresolved) > 0 {
		c.logger.WarnContext(ctx, "loans with unresolved ecl",
			"unresolved", len(loss.Unresolved),
		)
	}

	summary := SummarizeResult(calculated, loss, scenario.Name, c.currency)
	duration := time.Since(start)
	c.record(ctx, scenario, len(p), loss, duration)

	c.logger.InfoContext(ctx, "ecl calculation completed",
		"scenario", scenario.Name,
		"duration", duration,
		"loans", len(calculated),
		"total_ead", summary.Total.EAD.StringFixed(2),
		"total_ecl", summary.Total.ECL.StringFixed(2),
	)

	return &Result{
		Scenario:     scenario,
		LoanLifetime: c.loanLifetime,
		Portfolio:    calculated,
		Coverage:     coverage,
		Loss:         loss,
		Summary:      summary,
		Duration:     duration,
	}, nil
}

// validateInputs validates the run configuration, and the data in strict mode
func (c *Calculator) validateInputs(p Portfolio, scenario Scenario) error {
	if c.loanLifetime < 1 {
		return &ValidationError{
			Field:   "loan_lifetime",
			Message: "loan lifetime must be a positive number of periods",
			Value:   c.loanLifetime,
		}
	}

	if err := scenario.Validate(); err != nil {
		return err
	}

	if !c.strict {
		return nil
	}

	if err := ValidateTables(c.tables); err != nil {
		return err
	}
	return ValidateLoans(p)
}

// step runs fn inside a child span
func (c *Calculator) step(ctx context.Context, name string, fn func()) {
	_, span := c.tracer.Start(ctx, name)
	defer span.End()
	fn()
}

func (c *Calculator) abort(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "calculation cancelled")
	return fmt.Errorf("ecl calculation cancelled: %w", err)
}

func (c *Calculator) record(ctx context.Context, scenario Scenario, loans int, loss LossReport, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("scenario", scenario.Name))
	c.metrics.runs.Add(ctx, 1, attrs)
	c.metrics.loans.Add(ctx, int64(loans), attrs)
	c.metrics.dropped.Add(ctx, int64(len(loss.Dropped)), attrs)
	c.metrics.unresolved.Add(ctx, int64(len(loss.Unresolved)), attrs)
	c.metrics.duration.Record(ctx, duration.Seconds(), attrs)
}
