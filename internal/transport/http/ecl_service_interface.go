package http

import (
	"context"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
	"github.com/Candide-27/credit-risk-modeling/internal/services"
)

// ECLServiceInterface defines the ECL operations used by the handlers
type ECLServiceInterface interface {
	Parameters() risk.Tables
	Scenarios() []risk.Scenario
	DefaultScenario() string
	Defaults() services.RunDefaults
	ResolveScenario(name string) (risk.Scenario, error)
	Calculate(ctx context.Context, p risk.Portfolio, scenario risk.Scenario, opts services.CalculateOptions) (*risk.Result, error)
	CalculateScenarios(ctx context.Context, p risk.Portfolio, names []string, opts services.CalculateOptions) ([]*risk.Result, error)
}

var _ ECLServiceInterface = (*services.ECLService)(nil)
