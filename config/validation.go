package config

import (
	"fmt"
	"slices"
	"strings"
)

const (
	defaultMaxQueryLength         = 1000
	defaultTransactionRecordLimit = 64
)

// Database vendor constants
const (
	PostgreSQL = "postgresql"
	Oracle     = "oracle"
)

var validVendors = []string{PostgreSQL, Oracle}

var validLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "disabled"}

// Validate checks the configuration for structural problems before any
// connection is opened.
func Validate(cfg *Config) error {
	if err := validateDatabase(&cfg.Database); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	return nil
}

func validateDatabase(cfg *DatabaseConfig) error {
	vendor := strings.ToLower(cfg.Vendor)
	if !slices.Contains(validVendors, vendor) {
		return fmt.Errorf("unsupported vendor %q (must be one of %s)", cfg.Vendor, strings.Join(validVendors, ", "))
	}

	if cfg.ConnectionString == "" {
		if cfg.Host == "" {
			return fmt.Errorf("host is required when no connection string is set")
		}
		if cfg.Port <= 0 || cfg.Port > 65535 {
			return fmt.Errorf("port %d is out of range", cfg.Port)
		}
	}

	if cfg.MaxConns < 0 || cfg.MaxIdleConns < 0 {
		return fmt.Errorf("connection limits cannot be negative")
	}
	if cfg.MaxIdleConns > cfg.MaxConns && cfg.MaxConns > 0 {
		return fmt.Errorf("max_idle_conns (%d) cannot exceed max_conns (%d)", cfg.MaxIdleConns, cfg.MaxConns)
	}

	if cfg.Query.Slow.Threshold < 0 {
		return fmt.Errorf("slow query threshold cannot be negative")
	}
	if cfg.Query.Log.MaxLength < 0 {
		return fmt.Errorf("query log max length cannot be negative")
	}
	if cfg.Query.TransactionRecordLimit < 0 {
		return fmt.Errorf("transaction record limit cannot be negative")
	}

	return nil
}

func validateLog(cfg *LogConfig) error {
	if cfg.Level == "" {
		return nil
	}
	if !slices.Contains(validLogLevels, strings.ToLower(cfg.Level)) {
		return fmt.Errorf("unknown log level %q", cfg.Level)
	}
	return nil
}
