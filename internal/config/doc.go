// Package config provides centralized configuration management for the
// collector. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration
// values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ASH_* for namespacing:
//
//	ASH_COLLECTOR_WORKERS=8
//	ASH_COLLECTOR_SOURCE_ORDER=eastmoney,szse,sse,ths
//	ASH_LOGGING_LEVEL=debug
//	ASH_SERVER_LISTEN=:8080
//
// A .env file in the working directory is read before the environment, so
// local development does not need exported variables. The config file path
// defaults to config.yml and can be moved with ASH_CONFIG_FILE.
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which anchors all output directories at the executable location:
//
//	paths, err := cfg.ResolvePaths()
//	reportPath := paths.ReportPath("combined_indicators.csv")
//
// # Validation
//
// All configuration is validated at load time to ensure required fields are
// present and values are within acceptable ranges.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
