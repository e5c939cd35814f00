package http

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/Candide-27/credit-risk-modeling/internal/errors"
	"github.com/Candide-27/credit-risk-modeling/internal/middleware"
	"github.com/Candide-27/credit-risk-modeling/internal/risk"
	"github.com/Candide-27/credit-risk-modeling/internal/services"
	api "github.com/Candide-27/credit-risk-modeling/pkg/contracts/api/v1"
)

// allScenarios selects every configured scenario in a scenarios list
const allScenarios = "all"

// ECLHandler handles ECL calculation requests with RFC 7807 errors
type ECLHandler struct {
	service      ECLServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewECLHandler creates a new ECL handler
func NewECLHandler(service ECLServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ECLHandler {
	return &ECLHandler{
		service:      service,
		validator:    middleware.NewValidator(),
		logger:       logger.With(slog.String("component", "ecl_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the ECL routes, mounted under /api/v1
func (h *ECLHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.With(middleware.ContentTypeValidator("application/json")).Post("/ecl", h.Calculate)
	r.Get("/scenarios", h.GetScenarios)
	r.Get("/parameters", h.GetParameters)

	return r
}

// Calculate handles POST /api/v1/ecl
func (h *ECLHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	var req api.ECLRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	portfolio := toPortfolio(req.Loans)
	opts := services.CalculateOptions{
		LoanLifetime: req.LoanLifetime,
		Strict:       req.Strict,
	}

	results, err := h.run(ctx, portfolio, req, opts)
	if err != nil {
		h.logger.WarnContext(ctx, "ECL calculation failed",
			slog.Int("loans", len(portfolio)),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := api.ECLResponse{
		RequestID: middleware.GetReqID(ctx),
		Results:   make([]api.ScenarioResult, 0, len(results)),
	}
	for _, res := range results {
		resp.Results = append(resp.Results, toScenarioResult(res, !req.OmitLoans))
	}

	h.logger.InfoContext(ctx, "ECL calculated",
		slog.Int("loans", len(portfolio)),
		slog.Int("scenarios", len(results)),
		slog.Duration("duration", time.Since(start)))

	render.JSON(w, r, resp)
}

// run selects the scenarios of a request: inline stress factors first, then
// the scenarios list, then a single named scenario, then the default
func (h *ECLHandler) run(ctx context.Context, p risk.Portfolio, req api.ECLRequest, opts services.CalculateOptions) ([]*risk.Result, error) {
	switch {
	case req.StressFactors != nil:
		res, err := h.service.Calculate(ctx, p, toScenario(*req.StressFactors), opts)
		if err != nil {
			return nil, err
		}
		return []*risk.Result{res}, nil

	case len(req.Scenarios) == 1 && strings.EqualFold(req.Scenarios[0], allScenarios):
		return h.service.CalculateScenarios(ctx, p, nil, opts)

	case slices.ContainsFunc(req.Scenarios, func(name string) bool { return strings.EqualFold(name, allScenarios) }):
		return nil, apierrors.ErrValidation("scenarios", `"all" cannot be combined with other scenario names`)

	case len(req.Scenarios) > 0:
		return h.service.CalculateScenarios(ctx, p, req.Scenarios, opts)

	default:
		scenario, err := h.service.ResolveScenario(req.Scenario)
		if err != nil {
			return nil, err
		}
		res, err := h.service.Calculate(ctx, p, scenario, opts)
		if err != nil {
			return nil, err
		}
		return []*risk.Result{res}, nil
	}
}

// GetScenarios handles GET /api/v1/scenarios
func (h *ECLHandler) GetScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := h.service.Scenarios()

	resp := api.ScenariosResponse{
		Default:   h.service.DefaultScenario(),
		Scenarios: make([]api.StressFactors, len(scenarios)),
	}
	for i, s := range scenarios {
		resp.Scenarios[i] = toStressFactors(s)
	}

	render.JSON(w, r, resp)
}

// GetParameters handles GET /api/v1/parameters
func (h *ECLHandler) GetParameters(w http.ResponseWriter, r *http.Request) {
	ccf, pd, lgd := toParameters(h.service.Parameters())
	defaults := h.service.Defaults()

	render.JSON(w, r, api.ParametersResponse{
		CCFByStage:      ccf,
		PDByRating:      pd,
		LGDByCollateral: lgd,
		LoanLifetime:    defaults.LoanLifetime,
		Currency:        defaults.Currency,
		Strict:          defaults.Strict,
	})
}
