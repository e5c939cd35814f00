package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/Candide-27/credit-risk-modeling/internal/config"
	apierrors "github.com/Candide-27/credit-risk-modeling/internal/errors"
	"github.com/Candide-27/credit-risk-modeling/internal/infrastructure"
	customMiddleware "github.com/Candide-27/credit-risk-modeling/internal/middleware"
	"github.com/Candide-27/credit-risk-modeling/internal/services"
)

// RouterOptions holds the dependencies of the HTTP router
type RouterOptions struct {
	Config        *config.Config
	ECLService    ECLServiceInterface
	HealthService *services.HealthService
	// Providers is optional; without it requests are neither traced nor
	// measured and /metrics answers 503
	Providers *infrastructure.OTelProviders
	Logger    *slog.Logger
}

// NewRouter builds the chi router with the full middleware chain.
//
// Ordering: RequestID → RealIP → Recoverer → OTel → SecurityHeaders → CORS,
// then per group logging, rate limiting, timeout and body limits.
func NewRouter(opts RouterOptions) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config.Server

	errorHandler := apierrors.NewErrorHandler(logger, opts.Config.Logging.Development)

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.Recoverer(logger))

	var exporter http.Handler
	if opts.Providers != nil {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(opts.Providers)
		if err != nil {
			logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
		exporter = opts.Providers.PrometheusHTTP
	}

	r.Use(customMiddleware.StripSlashes)
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader},
		Logger:         logger,
	}))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// Probes and scrapes
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.StructuredLogger(logger))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := NewHealthHandler(opts.HealthService, logger)
		r.Get(config.HealthEndpoint, healthHandler.HealthCheck)
		r.Get(config.HealthEndpoint+"/ready", healthHandler.ReadinessCheck)
		r.Get(config.HealthEndpoint+"/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Method(http.MethodGet, config.MetricsEndpoint, NewMetricsHandler(exporter, errorHandler))
	})

	// API
	r.Group(func(r chi.Router) {
		r.Use(apierrors.NewErrorMiddleware(errorHandler, logger).Handler)

		if cfg.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger).Handler)
		}
		if cfg.RequestTimeout > 0 {
			r.Use(customMiddleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(customMiddleware.MaxBodyBytes(cfg.MaxBodyBytes))

		eclHandler := NewECLHandler(opts.ECLService, logger, errorHandler)
		r.Mount(config.APIBasePath, eclHandler.Routes())
	})

	return r
}
