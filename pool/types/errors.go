package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for lifecycle violations on tracked handles.
// These can be used with errors.Is() for programmatic error checking.
var (
	// ErrStatementClosed is returned when any operation is attempted on a
	// statement after Close. It is raised before the underlying driver is
	// touched and is never retried.
	ErrStatementClosed = errors.New("statement is closed")

	// ErrResultSetClosed is returned when an operation is attempted on a
	// result set after Close.
	ErrResultSetClosed = errors.New("result set is closed")

	// ErrConnectionClosed is returned when a statement is requested from a
	// connection that has already been returned or closed.
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrPoolingNotSupported is returned by SetPoolable(false): statements
	// managed by the pool cannot be exempted from pool tracking.
	ErrPoolingNotSupported = errors.New("statement pooling exemption is not supported")

	// ErrUnsupported is returned by driver bridges for capabilities the
	// underlying driver cannot express.
	ErrUnsupported = errors.New("operation not supported by driver")
)

// DriverError is the normalized form of any failure surfaced by the
// underlying driver during a delegated call. Fatal marks failures that broke
// the physical connection; the pool evicts the connection when it sees one.
type DriverError struct {
	Vendor string
	Fatal  bool
	Err    error
}

func (e *DriverError) Error() string {
	if e.Fatal {
		return fmt.Sprintf("%s driver error (connection broken): %v", e.Vendor, e.Err)
	}
	return fmt.Sprintf("%s driver error: %v", e.Vendor, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err wraps a DriverError that broke the physical
// connection.
func IsFatal(err error) bool {
	var de *DriverError
	return errors.As(err, &de) && de.Fatal
}
