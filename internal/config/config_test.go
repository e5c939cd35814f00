package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Candide-27/credit-risk-modeling/internal/risk"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "default configuration with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 5, cfg.Risk.LoanLifetime)
				assert.Equal(t, "EUR", cfg.Risk.Currency)
				assert.Equal(t, "normal", cfg.Risk.Scenario)
				assert.False(t, cfg.Risk.Strict)
				assert.Equal(t, 4, cfg.Risk.MaxConcurrency)
				assert.Equal(t, risk.DefaultColumns(), cfg.Risk.Columns)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, []string{"distressed", "normal", "severe"}, cfg.ScenarioNames())
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"ECL_SERVER_PORT":                "9090",
				"ECL_SERVER_READ_TIMEOUT":        "5s",
				"ECL_LOGGING_LEVEL":              "debug",
				"ECL_RISK_LOAN_LIFETIME":         "7",
				"ECL_RISK_STRICT":                "true",
				"ECL_RISK_CURRENCY":              "usd",
				"ECL_RISK_COLUMNS_CREDIT_RATING": "rating_grade",
				"ECL_PARAMETERS_LGD":             "Secured:0.4,Unsecured:0.7",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 7, cfg.Risk.LoanLifetime)
				assert.True(t, cfg.Risk.Strict)
				assert.Equal(t, "USD", cfg.Risk.Currency)
				assert.Equal(t, "rating_grade", cfg.Risk.Columns.CreditRating)
				assert.Equal(t, "days_past_due", cfg.Risk.Columns.DaysPastDue)
				assert.Equal(t, map[string]float64{"Secured": 0.4, "Unsecured": 0.7}, cfg.Parameters.LGD)
				assert.Len(t, cfg.Parameters.PD, 7, "untouched tables keep their defaults")
			},
		},
		{
			name: "file replaces tables and scenarios",
			file: `
server:
  port: 8181
risk:
  loan_lifetime: 3
  scenario: adverse
parameters:
  pd_by_rating:
    IG: 0.002
    HY: 0.04
scenarios:
  adverse:
    CCF_stressed_factor: 1.1
    LGD_stressed_factor: 1.1
    PD_stressed_factor: 1.3
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8181, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "fields absent from the file keep defaults")
				assert.Equal(t, 3, cfg.Risk.LoanLifetime)
				assert.Equal(t, map[string]float64{"IG": 0.002, "HY": 0.04}, cfg.Parameters.PD)
				assert.Equal(t, map[string]float64{"Secured": 0.35, "Unsecured": 0.6}, cfg.Parameters.LGD)
				assert.Equal(t, []string{"adverse"}, cfg.ScenarioNames())

				s, err := cfg.Scenario("adverse")
				require.NoError(t, err)
				assert.Equal(t, risk.Scenario{Name: "adverse", CCFFactor: 1.1, LGDFactor: 1.1, PDFactor: 1.3}, s)
			},
		},
		{
			name: "partial scenario keeps unstressed factors",
			file: `
risk:
  scenario: mild
scenarios:
  mild:
    PD_stressed_factor: 1.3
  frozen:
    CCF_stressed_factor: 0
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				mild, err := cfg.Scenario("mild")
				require.NoError(t, err)
				assert.Equal(t, risk.Scenario{Name: "mild", CCFFactor: 1, LGDFactor: 1, PDFactor: 1.3}, mild)

				frozen, err := cfg.Scenario("frozen")
				require.NoError(t, err)
				assert.Equal(t, risk.Scenario{Name: "frozen", CCFFactor: 0, LGDFactor: 1, PDFactor: 1}, frozen)
			},
		},
		{
			name: "environment wins over file",
			file: "risk:\n  loan_lifetime: 3\n",
			env:  map[string]string{"ECL_RISK_LOAN_LIFETIME": "10"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10, cfg.Risk.LoanLifetime)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"ECL_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "zero lifetime",
			env:     map[string]string{"ECL_RISK_LOAN_LIFETIME": "0"},
			wantErr: "loan lifetime",
		},
		{
			name:    "unknown default scenario",
			env:     map[string]string{"ECL_RISK_SCENARIO": "apocalypse"},
			wantErr: "apocalypse",
		},
		{
			name:    "unknown currency",
			env:     map[string]string{"ECL_RISK_CURRENCY": "XYZ"},
			wantErr: "unknown currency",
		},
		{
			name:    "malformed env value",
			env:     map[string]string{"ECL_RISK_LOAN_LIFETIME": "five"},
			wantErr: "failed to load config from env",
		},
		{
			name:    "explicit file that does not exist",
			env:     map[string]string{ConfigFileEnv: "/nonexistent/ecl.yaml"},
			wantErr: "failed to load config from file",
		},
		{
			name:    "malformed file",
			file:    "risk: [unclosed",
			wantErr: "failed to load config from file",
		},
		{
			name: "negative scenario factor",
			file: `
scenarios:
  normal:
    CCF_stressed_factor: -1
    LGD_stressed_factor: 1
    PD_stressed_factor: 1
`,
			wantErr: "CCF_stressed_factor",
		},
		{
			name:    "strict rejects out of range parameters",
			file:    "parameters:\n  lgd_by_collateral:\n    Secured: 1.5\n",
			env:     map[string]string{"ECL_RISK_STRICT": "true"},
			wantErr: "lgd_by_collateral[Secured]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.file != "" {
				t.Setenv(ConfigFileEnv, writeConfigFile(t, tt.file))
			} else {
				t.Setenv(ConfigFileEnv, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

// TestLoadFile tests loading a file without the environment
func TestLoadFile(t *testing.T) {
	t.Setenv("ECL_RISK_LOAN_LIFETIME", "9")
	path := writeConfigFile(t, "risk:\n  currency: gbp\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "GBP", cfg.Risk.Currency)
	assert.Equal(t, 5, cfg.Risk.LoanLifetime, "environment is not consulted")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestDefault tests the default configuration
func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, risk.DefaultTables(), cfg.Tables())
	assert.Equal(t, ":8080", cfg.Addr())

	normal, err := cfg.Scenario("normal")
	require.NoError(t, err)
	assert.Equal(t, risk.NormalScenario(), normal)

	severe, err := cfg.Scenario("severe")
	require.NoError(t, err)
	assert.Equal(t, 1.5, severe.PDFactor)

	_, err = cfg.Scenario("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "distressed, normal, severe")
}

// TestTablesAreCopies tests that callers cannot mutate the configuration through Tables
func TestTablesAreCopies(t *testing.T) {
	cfg := Default()
	tables := cfg.Tables()
	tables.PD["AAA"] = 0.9

	assert.Equal(t, 0.0001, cfg.Parameters.PD["AAA"])
}

// TestValidateNormalises tests the fix-ups applied by Validate
func TestValidateNormalises(t *testing.T) {
	cfg := Default()
	cfg.Risk.MaxConcurrency = 0
	cfg.Risk.Columns = risk.Columns{CreditRating: "grade"}
	cfg.Logging.Format = "text"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Risk.MaxConcurrency)
	assert.Equal(t, "grade", cfg.Risk.Columns.CreditRating)
	assert.Equal(t, "collateral_type", cfg.Risk.Columns.CollateralType)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
}
