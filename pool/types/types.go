// Package types contains the capability interfaces shared across the pool
// packages. They are separate from the main pool package to avoid import
// cycles and to make them easily accessible for mocking and testing.
package types

import (
	"context"
	"time"
)

// Database vendor identifiers shared across the pool packages.
type Vendor = string

const (
	PostgreSQL Vendor = "postgresql"
	Oracle     Vendor = "oracle"
)

// FetchDirection hints the driver about the order rows will be consumed in.
type FetchDirection int

const (
	FetchForward FetchDirection = iota
	FetchReverse
	FetchUnknown
)

// Result-set characteristics reported by ResultSetType, ResultSetConcurrency
// and ResultSetHoldability. The values match the conventional wire-level
// constants so bridged drivers can pass them through unchanged.
const (
	TypeForwardOnly       = 1003
	TypeScrollInsensitive = 1004
	TypeScrollSensitive   = 1005

	ConcurReadOnly  = 1007
	ConcurUpdatable = 1008

	HoldCursorsOverCommit = 1
	CloseCursorsAtCommit  = 2
)

// CurrentResultBehavior controls what happens to the current result set when
// MoreResultsWith advances to the next one.
type CurrentResultBehavior int

const (
	CloseCurrentResult CurrentResultBehavior = 1
	KeepCurrentResult  CurrentResultBehavior = 2
	CloseAllResults    CurrentResultBehavior = 3
)

// DriverRows is the raw result cursor surface a driver must expose.
// Implementations are assumed to be used by a single goroutine at a time.
type DriverRows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error

	// IsClosed reports whether the cursor has already been closed, possibly
	// by the driver itself (e.g. a server-side cursor expiring). It is a
	// best-effort check consulted before redundant Close calls.
	IsClosed() (bool, error)
	Close() error
}

// DriverStmt is the raw statement surface a driver must expose. Any failure
// it raises is routed through the owning connection's recovery policy by the
// tracking layer; drivers never need to classify their own errors.
type DriverStmt interface {
	// Execution
	Query(ctx context.Context, query string) (DriverRows, error)
	Exec(ctx context.Context, query string) (int64, error)
	ExecReturning(ctx context.Context, query string, keyColumns ...string) (int64, error)
	Execute(ctx context.Context, query string) (bool, error)
	ExecuteReturning(ctx context.Context, query string, keyColumns ...string) (bool, error)

	// Multi-result navigation
	ResultSet(ctx context.Context) (DriverRows, error)
	GeneratedKeys(ctx context.Context) (DriverRows, error)
	UpdateCount() (int64, error)
	MoreResults() (bool, error)
	MoreResultsWith(behavior CurrentResultBehavior) (bool, error)

	// Batching
	AddBatch(query string) error
	ClearBatch() error
	ExecBatch(ctx context.Context) ([]int64, error)

	// Cursor and execution settings
	MaxFieldSize() (int, error)
	SetMaxFieldSize(size int) error
	MaxRows() (int, error)
	SetMaxRows(rows int) error
	SetEscapeProcessing(enable bool) error
	QueryTimeout() (time.Duration, error)
	SetQueryTimeout(timeout time.Duration) error
	Cancel(ctx context.Context) error
	Warnings() ([]string, error)
	ClearWarnings() error
	SetCursorName(name string) error
	FetchDirection() (FetchDirection, error)
	SetFetchDirection(direction FetchDirection) error
	FetchSize() (int, error)
	SetFetchSize(rows int) error
	ResultSetConcurrency() (int, error)
	ResultSetType() (int, error)
	ResultSetHoldability() (int, error)

	Close() error
}

// DriverConn is the physical connection surface a driver must expose.
type DriverConn interface {
	NewStatement(ctx context.Context) (DriverStmt, error)
	Ping(ctx context.Context) error
	Close() error
}

// ResultSet is the tracked result cursor handed to application callers.
// Raw DriverRows never escape the tracking layer.
type ResultSet interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error

	// Close is idempotent and best-effort: failures while releasing the
	// underlying cursor are logged through the owning statement, not
	// returned.
	Close() error
	IsClosed() bool
}

// Statement is the tracked statement surface handed to application callers.
// It mirrors DriverStmt but returns tracked result handles, enforces the
// closed-state guard on every operation, and accumulates usage statistics.
type Statement interface {
	Query(ctx context.Context, query string) (ResultSet, error)
	Exec(ctx context.Context, query string) (int64, error)
	ExecReturning(ctx context.Context, query string, keyColumns ...string) (int64, error)
	Execute(ctx context.Context, query string) (bool, error)
	ExecuteReturning(ctx context.Context, query string, keyColumns ...string) (bool, error)

	ResultSet(ctx context.Context) (ResultSet, error)
	GeneratedKeys(ctx context.Context) (ResultSet, error)
	UpdateCount() (int64, error)
	MoreResults() (bool, error)
	MoreResultsWith(behavior CurrentResultBehavior) (bool, error)

	AddBatch(query string) error
	ClearBatch() error
	ExecBatch(ctx context.Context) ([]int64, error)

	MaxFieldSize() (int, error)
	SetMaxFieldSize(size int) error
	MaxRows() (int, error)
	SetMaxRows(rows int) error
	SetEscapeProcessing(enable bool) error
	QueryTimeout() (time.Duration, error)
	SetQueryTimeout(timeout time.Duration) error
	Cancel(ctx context.Context) error
	Warnings() ([]string, error)
	ClearWarnings() error
	SetCursorName(name string) error
	FetchDirection() (FetchDirection, error)
	SetFetchDirection(direction FetchDirection) error
	FetchSize() (int, error)
	SetFetchSize(rows int) error
	ResultSetConcurrency() (int, error)
	ResultSetType() (int, error)
	ResultSetHoldability() (int, error)

	Close() error
	IsClosed() bool

	// Pooling-exemption surface. Statements managed by the pool cannot opt
	// out of pooling: SetPoolable(true) is the no-op "keep pooled" request,
	// SetPoolable(false) asks for an exemption and is rejected.
	SetPoolable(poolable bool) error
	Poolable() bool

	// Usage statistics consumed by the pool's monitoring layer.
	RecordFetchRows(count int)
	FetchRowPeak() int
	TrackedResultSets() int
}

// StatementOwner is the capability surface a parent connection supplies to
// each tracked statement at construction: error recovery, SQL history
// recording, the pool-wide execute-count sink, and the untrace callback.
// Injecting it as an interface (rather than reaching for a shared singleton)
// lets tests substitute a local counter.
type StatementOwner interface {
	// HandleError routes a failure raised by the underlying driver through
	// the connection's recovery policy and returns the normalized form.
	// It never resolves the failure itself.
	HandleError(err error) error

	// RecordSQL forwards raw SQL text to the connection's transaction
	// recording hook so statement history can be reconstructed for
	// diagnostics. It is invoked before delegation, not conditioned on the
	// execution succeeding.
	RecordSQL(query string)

	// IncrementExecuteCount bumps the pool-wide execute counter. Exactly one
	// increment per logical execution request.
	IncrementExecuteCount()

	// RemoveTrace drops the statement from the connection's open-resource
	// trace once it has closed.
	RemoveTrace(stmt Statement)
}
