// Package config provides centralized configuration for the ECL engine.
// It loads settings from multiple sources, validates them and converts the
// risk parameters into the types used by package risk.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// The file is taken from ECL_CONFIG when set, otherwise the first of
// config.yaml, configs/config.yaml, ../configs/config.yaml and
// ../../configs/config.yaml that exists.
//
// # Environment Variables
//
// All environment variables follow the pattern ECL_<SECTION>_<FIELD>:
//
//	ECL_SERVER_PORT=8080
//	ECL_LOGGING_LEVEL=debug
//	ECL_RISK_LOAN_LIFETIME=7
//	ECL_RISK_STRICT=true
//	ECL_RISK_COLUMNS_CREDIT_RATING=rating_grade
//	ECL_PARAMETERS_PD=AAA:0.0001,AA:0.0005,BB:0.02
//
// Scenarios can only be defined in the YAML file.
//
// # Example File
//
//	risk:
//	  loan_lifetime: 5
//	  currency: EUR
//	  scenario: normal
//	parameters:
//	  ccf_by_stage: {1: 0.5, 2: 0.8, 3: 0.8}
//	  lgd_by_collateral: {Secured: 0.35, Unsecured: 0.6}
//	scenarios:
//	  normal:   {CCF_stressed_factor: 1.0, LGD_stressed_factor: 1.0, PD_stressed_factor: 1.0}
//	  adverse:  {CCF_stressed_factor: 1.1, LGD_stressed_factor: 1.1, PD_stressed_factor: 1.3}
//
// A lookup table or the scenarios block present in the file replaces the
// default one as a whole.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	calc := risk.NewCalculator(cfg.Risk.LoanLifetime, cfg.Tables(), logger)
//
// Tests use config.Default(), which needs no environment or files.
package config
