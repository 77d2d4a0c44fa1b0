package pool

import (
	"github.com/gaborage/go-dbpool/pool/internal/track"
)

// Re-export the internal tracking implementation as the public API
type (
	TrackedStatement = track.Statement
	TrackedResultSet = track.ResultSet
	TrackingContext  = track.Context
	TrackingSettings = track.Settings
)

// Re-export internal functions as public API
var (
	NewTrackedStatement = track.NewStatement
	NewTrackingSettings = track.NewSettings
	TrackOperation      = track.TrackOperation
	RegisterPoolMetrics = track.RegisterPoolMetrics
)

// Re-export internal constants
const (
	DefaultSlowQueryThreshold = track.DefaultSlowQueryThreshold
	DefaultMaxQueryLength     = track.DefaultMaxQueryLength
)
