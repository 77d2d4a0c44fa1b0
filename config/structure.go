package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the root configuration for the pool.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`

	// k holds the underlying Koanf instance for flexible access to custom configurations
	k *koanf.Koanf `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
}

// DatabaseConfig describes the physical connection and the tracking knobs
// applied to every statement created through the pool.
type DatabaseConfig struct {
	Vendor          string        `koanf:"vendor"` // "postgresql" or "oracle"
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxConns        int32         `koanf:"max_conns"`
	MaxIdleConns    int32         `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`

	// Oracle-specific settings
	ServiceName string `koanf:"service_name"` // Oracle service name
	SID         string `koanf:"sid"`          // Oracle SID

	// Connection string override (if needed)
	ConnectionString string `koanf:"connection_string"`

	Query QueryConfig `koanf:"query"`
}

// QueryConfig groups per-statement tracking settings.
type QueryConfig struct {
	Slow struct {
		Threshold time.Duration `koanf:"threshold"`
	} `koanf:"slow"`
	Log struct {
		MaxLength  int  `koanf:"max_length"`
		Parameters bool `koanf:"parameters"`
	} `koanf:"log"`

	// TransactionRecordLimit bounds the per-connection SQL history kept for
	// diagnostics. Zero means the default limit.
	TransactionRecordLimit int `koanf:"transaction_record_limit"`
}

// LogConfig controls pool logging output.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Koanf exposes the underlying koanf instance for custom key access.
func (c *Config) Koanf() *koanf.Koanf {
	return c.k
}
