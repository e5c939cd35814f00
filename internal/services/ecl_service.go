package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Candide-27/credit-risk-modeling/internal/config"
	"github.com/Candide-27/credit-risk-modeling/internal/dataprocessing"
	"github.com/Candide-27/credit-risk-modeling/internal/infrastructure"
	"github.com/Candide-27/credit-risk-modeling/internal/risk"
)

// ECLService runs the ECL pipeline with the configured parameters
type ECLService struct {
	cfg    *config.Config
	tables risk.Tables
	logger *slog.Logger

	tracer trace.Tracer
	meter  metric.Meter
}

// CalculateOptions overrides the configured run settings for one request
type CalculateOptions struct {
	// LoanLifetime overrides the configured lifetime when positive
	LoanLifetime int
	// Strict overrides the configured strictness when set
	Strict *bool
}

// RunDefaults are the configured settings a request may override
type RunDefaults struct {
	LoanLifetime int
	Currency     string
	Strict       bool
}

// NewECLService creates a new ECL service
func NewECLService(cfg *config.Config, logger *slog.Logger) *ECLService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("ECLService initialized",
		slog.Int("loan_lifetime", cfg.Risk.LoanLifetime),
		slog.String("default_scenario", cfg.Risk.Scenario),
		slog.Any("scenarios", cfg.ScenarioNames()),
		slog.Bool("strict", cfg.Risk.Strict))

	return &ECLService{
		cfg:    cfg,
		tables: cfg.Tables(),
		logger: logger,
	}
}

// SetTelemetry routes the calculator spans and metrics to the given providers
func (s *ECLService) SetTelemetry(tracer trace.Tracer, meter metric.Meter) {
	s.tracer = tracer
	s.meter = meter
}

// Parameters returns the lookup tables used for every run
func (s *ECLService) Parameters() risk.Tables {
	return s.cfg.Tables()
}

// Scenarios returns the configured stress scenarios sorted by name
func (s *ECLService) Scenarios() []risk.Scenario {
	names := s.cfg.ScenarioNames()
	out := make([]risk.Scenario, 0, len(names))
	for _, name := range names {
		sc, _ := s.cfg.Scenario(name)
		out = append(out, sc)
	}
	return out
}

// Defaults returns the configured run settings
func (s *ECLService) Defaults() RunDefaults {
	return RunDefaults{
		LoanLifetime: s.cfg.Risk.LoanLifetime,
		Currency:     s.cfg.Risk.Currency,
		Strict:       s.cfg.Risk.Strict,
	}
}

// DefaultScenario returns the name of the scenario used when none is given
func (s *ECLService) DefaultScenario() string {
	return s.cfg.Risk.Scenario
}

// ResolveScenario looks up a configured scenario. An empty name selects the
// default scenario.
func (s *ECLService) ResolveScenario(name string) (risk.Scenario, error) {
	if name == "" {
		name = s.cfg.Risk.Scenario
	}
	sc, err := s.cfg.Scenario(name)
	if err != nil {
		return risk.Scenario{}, fmt.Errorf("%w: %v", ErrUnknownScenario, err)
	}
	return sc, nil
}

// LoadPortfolio reads a CSV or Excel portfolio using the configured column names
func (s *ECLService) LoadPortfolio(ctx context.Context, path string) (risk.Portfolio, error) {
	start := time.Now()

	p, err := dataprocessing.LoadPortfolio(path, s.cfg.Risk.Columns)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).WarnContext(ctx, "portfolio load failed",
			slog.String("path", path))
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		case errors.Is(err, dataprocessing.ErrUnsupportedFormat):
			return nil, fmt.Errorf("%w: %v", ErrInvalidFileType, err)
		default:
			return nil, fmt.Errorf("load portfolio: %w", err)
		}
	}

	if err := s.checkSize(p); err != nil {
		return nil, err
	}

	infrastructure.AddSpanEvent(ctx, "portfolio.loaded",
		attribute.String("path", path),
		attribute.Int("loans", len(p)))
	s.logger.InfoContext(ctx, "portfolio loaded",
		slog.String("path", path),
		slog.Int("loans", len(p)),
		slog.Duration("duration", time.Since(start)))

	return p, nil
}

// Calculate runs the pipeline for one scenario
func (s *ECLService) Calculate(ctx context.Context, p risk.Portfolio, scenario risk.Scenario, opts CalculateOptions) (*risk.Result, error) {
	if err := s.checkSize(p); err != nil {
		return nil, err
	}

	result, err := s.calculator(opts).Run(ctx, p, scenario)
	if err != nil {
		var ve *risk.ValidationError
		if errors.As(err, &ve) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrOperationTimeout, err)
		}
		return nil, err
	}
	return result, nil
}

// CalculateScenarios runs the pipeline once per named scenario, at most
// MaxConcurrency at a time. Results are returned in the order of names.
// No names selects every configured scenario.
func (s *ECLService) CalculateScenarios(ctx context.Context, p risk.Portfolio, names []string, opts CalculateOptions) ([]*risk.Result, error) {
	if len(names) == 0 {
		names = s.cfg.ScenarioNames()
	}

	scenarios := make([]risk.Scenario, len(names))
	for i, name := range names {
		sc, err := s.ResolveScenario(name)
		if err != nil {
			return nil, err
		}
		scenarios[i] = sc
	}

	results := make([]*risk.Result, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Risk.MaxConcurrency)

	for i, sc := range scenarios {
		g.Go(func() error {
			r, err := s.Calculate(gctx, p, sc, opts)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc.Name, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "scenario set calculated",
		slog.Int("scenarios", len(results)),
		slog.Int("loans", len(p)))

	return results, nil
}

func (s *ECLService) calculator(opts CalculateOptions) *risk.Calculator {
	lifetime := s.cfg.Risk.LoanLifetime
	if opts.LoanLifetime > 0 {
		lifetime = opts.LoanLifetime
	}
	strict := s.cfg.Risk.Strict
	if opts.Strict != nil {
		strict = *opts.Strict
	}

	calc := risk.NewCalculator(lifetime, s.tables, s.logger)
	calc.SetStrict(strict)
	calc.SetCurrency(s.cfg.Risk.Currency)
	if s.tracer != nil && s.meter != nil {
		calc.SetTelemetry(s.tracer, s.meter)
	}
	return calc
}

func (s *ECLService) checkSize(p risk.Portfolio) error {
	if len(p) == 0 {
		return ErrEmptyPortfolio
	}
	if max := s.cfg.Risk.MaxLoans; max > 0 && len(p) > max {
		return fmt.Errorf("%w: %d loans, limit %d", ErrTooManyLoans, len(p), max)
	}
	return nil
}
