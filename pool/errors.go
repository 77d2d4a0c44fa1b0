package pool

import (
	"github.com/gaborage/go-dbpool/pool/types"
)

// Re-export the error taxonomy so callers rarely need to import pool/types
// directly.
var (
	ErrStatementClosed     = types.ErrStatementClosed
	ErrResultSetClosed     = types.ErrResultSetClosed
	ErrConnectionClosed    = types.ErrConnectionClosed
	ErrPoolingNotSupported = types.ErrPoolingNotSupported
	ErrUnsupported         = types.ErrUnsupported
)

// DriverError is the normalized driver failure type.
type DriverError = types.DriverError

// IsFatal reports whether err wraps a normalized failure that broke the
// physical connection.
var IsFatal = types.IsFatal
