package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig             `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig            `yaml:"logging" envconfig:"LOGGING"`
	Paths      PathsConfig              `yaml:"paths" envconfig:"PATHS"`
	Telemetry  TelemetryConfig          `yaml:"telemetry" envconfig:"TELEMETRY"`
	Risk       RiskConfig               `yaml:"risk" envconfig:"RISK"`
	Parameters ParametersConfig         `yaml:"parameters" envconfig:"PARAMETERS"`
	Scenarios  map[string]risk.Scenario `yaml:"scenarios" ignored:"true"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string          `yaml:"host" envconfig:"HOST"`
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int             `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxBodyBytes    int64           `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	AllowedOrigins  []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TracingEnabled bool    `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// RiskConfig contains the ECL run settings
type RiskConfig struct {
	LoanLifetime   int          `yaml:"loan_lifetime" envconfig:"LOAN_LIFETIME"`
	Currency       string       `yaml:"currency" envconfig:"CURRENCY"`
	Scenario       string       `yaml:"scenario" envconfig:"SCENARIO"`
	Strict         bool         `yaml:"strict" envconfig:"STRICT"`
	MaxConcurrency int          `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY"`
	MaxLoans       int          `yaml:"max_loans" envconfig:"MAX_LOANS"`
	Columns        risk.Columns `yaml:"columns" envconfig:"COLUMNS"`
}

// ParametersConfig holds the CCF, PD and LGD lookup tables. Environment
// overrides use envconfig's map syntax, e.g. ECL_PARAMETERS_PD=AAA:0.0001,BB:0.02.
type ParametersConfig struct {
	CCF map[int]float64    `yaml:"ccf_by_stage" envconfig:"CCF"`
	PD  map[string]float64 `yaml:"pd_by_rating" envconfig:"PD"`
	LGD map[string]float64 `yaml:"lgd_by_collateral" envconfig:"LGD"`
}

// Load builds the configuration from defaults, the config file if one is
// found, and ECL_* environment variables, in increasing order of precedence
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := cfg.mergeFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile builds the configuration from defaults and the given YAML file,
// without consulting the environment
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		return nil, fmt.Errorf("failed to load config from file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays the YAML file onto c. Lookup tables and scenarios that
// appear in the file replace the defaults instead of being merged key by key.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var tables struct {
		Parameters ParametersConfig         `yaml:"parameters"`
		Scenarios  map[string]risk.Scenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	params, scenarios := c.Parameters, c.Scenarios
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	c.Parameters, c.Scenarios = params, scenarios
	if tables.Parameters.CCF != nil {
		c.Parameters.CCF = tables.Parameters.CCF
	}
	if tables.Parameters.PD != nil {
		c.Parameters.PD = tables.Parameters.PD
	}
	if tables.Parameters.LGD != nil {
		c.Parameters.LGD = tables.Parameters.LGD
	}
	if tables.Scenarios != nil {
		c.Scenarios = tables.Scenarios
	}
	return nil
}

// Validate validates the configuration and normalises names
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Risk.LoanLifetime < 1 {
		return fmt.Errorf("loan lifetime must be at least 1, got %d", c.Risk.LoanLifetime)
	}

	if c.Risk.MaxConcurrency < 1 {
		c.Risk.MaxConcurrency = 1
	}

	c.Risk.Currency = strings.ToUpper(c.Risk.Currency)
	if !risk.IsKnownCurrency(c.Risk.Currency) {
		return fmt.Errorf("unknown currency code: %q", c.Risk.Currency)
	}

	if len(c.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario must be configured")
	}

	for name, s := range c.Scenarios {
		s.Name = name
		if err := s.Validate(); err != nil {
			return fmt.Errorf("scenario %q: %w", name, err)
		}
	}

	if _, ok := c.Scenarios[c.Risk.Scenario]; !ok {
		return fmt.Errorf("default scenario %q is not configured", c.Risk.Scenario)
	}

	if c.Risk.Strict {
		if err := risk.ValidateTables(c.Tables()); err != nil {
			return fmt.Errorf("parameters: %w", err)
		}
	}

	c.Risk.Columns = c.Risk.Columns.WithDefaults()

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// Tables converts the configured parameters into risk lookup tables
func (c *Config) Tables() risk.Tables {
	t := risk.Tables{
		CCF: make(risk.Lookup[risk.Stage], len(c.Parameters.CCF)),
		PD:  make(risk.Lookup[string], len(c.Parameters.PD)),
		LGD: make(risk.Lookup[string], len(c.Parameters.LGD)),
	}
	for stage, v := range c.Parameters.CCF {
		t.CCF[risk.Stage(stage)] = v
	}
	for rating, v := range c.Parameters.PD {
		t.PD[rating] = v
	}
	for collateral, v := range c.Parameters.LGD {
		t.LGD[collateral] = v
	}
	return t
}

// Scenario returns the named scenario
func (c *Config) Scenario(name string) (risk.Scenario, error) {
	s, ok := c.Scenarios[name]
	if !ok {
		return risk.Scenario{}, fmt.Errorf("unknown scenario %q (configured: %s)", name, strings.Join(c.ScenarioNames(), ", "))
	}
	s.Name = name
	return s, nil
}

// ScenarioNames returns the configured scenario names in sorted order
func (c *Config) ScenarioNames() []string {
	names := make([]string, 0, len(c.Scenarios))
	for name := range c.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
			MaxBodyBytes:    DefaultMaxBodyBytes,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			ReportsDir: DefaultReportsDir,
			LogsDir:    DefaultLogsDir,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TracingEnabled: false,
			MetricsEnabled: true,
			TraceExporter:  "stdout",
			SampleRatio:    1.0,
		},
		Risk: RiskConfig{
			LoanLifetime:   risk.DefaultLoanLifetime,
			Currency:       risk.DefaultCurrency,
			Scenario:       DefaultScenario,
			MaxConcurrency: DefaultMaxConcurrency,
			MaxLoans:       DefaultMaxLoans,
			Columns:        risk.DefaultColumns(),
		},
		Parameters: ParametersConfig{
			CCF: map[int]float64{1: 0.5, 2: 0.8, 3: 0.8},
			PD: map[string]float64{
				"AAA": 0.0001,
				"AA":  0.0005,
				"A":   0.001,
				"BBB": 0.005,
				"BB":  0.02,
				"B":   0.05,
				"CCC": 0.15,
			},
			LGD: map[string]float64{"Secured": 0.35, "Unsecured": 0.6},
		},
		Scenarios: map[string]risk.Scenario{
			"normal":     {Name: "normal", CCFFactor: 1, LGDFactor: 1, PDFactor: 1},
			"distressed": {Name: "distressed", CCFFactor: 1.2, LGDFactor: 1, PDFactor: 1},
			"severe":     {Name: "severe", CCFFactor: 1, LGDFactor: 1.2, PDFactor: 1.5},
		},
	}
}
