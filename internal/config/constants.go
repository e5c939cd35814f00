package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "ecl-engine"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. ECL_RISK_LOAN_LIFETIME
	EnvPrefix = "ECL"
	// ConfigFileEnv names an explicit YAML config file
	ConfigFileEnv = "ECL_CONFIG"

	// Risk defaults
	DefaultScenario       = "normal"
	DefaultMaxConcurrency = 4
	DefaultMaxLoans       = 1_000_000

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	// Request limits
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxBodyBytes   = 32 << 20 // 32MB

	// File Paths
	DefaultDataDir    = "data"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"
	DefaultLogFile    = "logs/ecl.log"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// API Endpoints
const (
	APIBasePath        = "/api/v1"
	ECLEndpoint        = "/api/v1/ecl"
	ScenariosEndpoint  = "/api/v1/scenarios"
	ParametersEndpoint = "/api/v1/parameters"
	HealthEndpoint     = "/health"
	MetricsEndpoint    = "/metrics"
)
