package track

import (
	"testing"
	"time"

	"github.com/gaborage/go-dbpool/config"
)

func TestNewSettingsDefaults(t *testing.T) {
	settings := NewSettings(nil)

	if settings.SlowQueryThreshold() != DefaultSlowQueryThreshold {
		t.Fatalf("expected default slow query threshold, got %v", settings.SlowQueryThreshold())
	}
	if settings.MaxQueryLength() != DefaultMaxQueryLength {
		t.Fatalf("expected default max query length, got %d", settings.MaxQueryLength())
	}
	if settings.LogQueryParameters() {
		t.Fatalf("expected parameter logging disabled by default")
	}
}

func TestNewSettingsFromConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{}
	cfg.Query.Slow.Threshold = 750 * time.Millisecond
	cfg.Query.Log.MaxLength = 42
	cfg.Query.Log.Parameters = true

	settings := NewSettings(cfg)

	if settings.SlowQueryThreshold() != 750*time.Millisecond {
		t.Fatalf("unexpected slow query threshold: %v", settings.SlowQueryThreshold())
	}
	if settings.MaxQueryLength() != 42 {
		t.Fatalf("unexpected max query length: %d", settings.MaxQueryLength())
	}
	if !settings.LogQueryParameters() {
		t.Fatalf("expected parameter logging enabled")
	}
}

func TestNewSettingsIgnoresNonPositiveValues(t *testing.T) {
	cfg := &config.DatabaseConfig{}
	cfg.Query.Slow.Threshold = -time.Second
	cfg.Query.Log.MaxLength = 0

	settings := NewSettings(cfg)

	if settings.SlowQueryThreshold() != DefaultSlowQueryThreshold {
		t.Fatalf("expected default threshold for non-positive value, got %v", settings.SlowQueryThreshold())
	}
	if settings.MaxQueryLength() != DefaultMaxQueryLength {
		t.Fatalf("expected default max length for non-positive value, got %d", settings.MaxQueryLength())
	}
}
