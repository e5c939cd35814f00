// Package services implements the application layer between the transports
// (HTTP handlers, the report CLI) and the risk engine.
//
// ECLService binds a config.Config to risk.Calculator: it resolves scenario
// names, applies the configured loan lifetime, strictness and currency, loads
// portfolios through dataprocessing, and evaluates several scenarios
// concurrently with an errgroup bounded by Risk.MaxConcurrency.
//
//	svc := services.NewECLService(cfg, logger)
//	results, err := svc.CalculateScenarios(ctx, portfolio, nil, services.CalculateOptions{})
//
// Errors are wrapped around the sentinels in errors.go so that callers can
// map them with errors.Is, e.g. ErrUnknownScenario to 404 and
// ErrInvalidInput to 422.
//
// HealthService backs the health, readiness and liveness endpoints.
package services
