// Package http implements the HTTP transport of the ECL engine. Handlers are
// a thin layer between chi and the service layer: they decode and validate
// requests, map contracts to risk types, and render responses.
//
// # Routes
//
//	POST /api/v1/ecl          calculate ECL for a portfolio
//	GET  /api/v1/scenarios    list configured stress scenarios
//	GET  /api/v1/parameters   CCF, PD and LGD tables and run defaults
//	GET  /health              basic health
//	GET  /health/ready        readiness, 503 until parameters and reports dir are usable
//	GET  /health/live         liveness with runtime details
//	GET  /version             build and runtime information
//	GET  /metrics             Prometheus scrape endpoint
//
// # Scenario Selection
//
// A calculation request picks its scenarios in this order:
//
//	{"stress_factors": {...}}        one inline scenario
//	{"scenarios": ["all"]}           every configured scenario
//	{"scenarios": ["normal", ...]}   the named scenarios, in request order
//	{"scenario": "severe"}           one named scenario
//	{}                               the configured default
//
// # Error Handling
//
// Every failure is rendered as RFC 7807 problem details by
// apierrors.ErrorHandler:
//
//	400  malformed JSON, empty portfolio, field validation
//	404  unknown scenario or route
//	413  body or portfolio too large
//	422  invalid loans or stress factors
//	504  request timeout
//
// # Middleware Order
//
//	RequestID → RealIP → Recoverer → OTel → StripSlashes → SecurityHeaders → CORS
//
// API routes add ErrorMiddleware, RateLimiter, Timeout and MaxBodyBytes.
// Probe routes add StructuredLogger.
package http
