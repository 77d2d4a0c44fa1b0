package pool

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"

	"github.com/gaborage/go-dbpool/logger"
	"github.com/gaborage/go-dbpool/pool/internal/track"
	"github.com/gaborage/go-dbpool/pool/types"
)

const defaultTransactionRecordLimit = 64

// Conn is a pooled connection. It creates tracked statements and supplies
// them their owner capabilities: the error recovery policy, the SQL history
// hook, the pool-wide execute-count sink and the untrace callback.
type Conn struct {
	holder   *connHolder
	logger   logger.Logger
	vendor   string
	settings track.Settings

	txRecord []string
	txLimit  int
	closed   bool
}

var _ types.StatementOwner = (*Conn)(nil)

func newConn(holder *connHolder, log logger.Logger, vendor string, settings track.Settings, txLimit int) *Conn {
	return &Conn{
		holder:   holder,
		logger:   log,
		vendor:   vendor,
		settings: settings,
		txLimit:  txLimit,
	}
}

// ID returns the pool-assigned connection identity.
func (c *Conn) ID() string {
	return c.holder.id.String()
}

// Statement creates a raw driver statement, wraps it with tracking and
// records it in the connection's open-resource trace. Callers only ever see
// tracked statements.
func (c *Conn) Statement(ctx context.Context) (types.Statement, error) {
	if c.closed {
		return nil, types.ErrConnectionClosed
	}

	raw, err := c.holder.driver.NewStatement(ctx)
	if err != nil {
		return nil, c.HandleError(err)
	}

	stmt := track.NewStatement(raw, c, c.logger, c.vendor, c.settings)
	c.holder.traceStatement(stmt)
	return stmt, nil
}

// HandleError is the connection's recovery policy: it classifies a failure
// surfaced by the underlying driver, marks the physical connection broken on
// fatal failures so the pool evicts it, and returns the normalized form.
// It never resolves the failure itself and never swallows it.
func (c *Conn) HandleError(err error) error {
	if err == nil {
		return nil
	}

	// Already normalized failures pass through unchanged so wrapping is
	// applied exactly once per failure.
	var de *types.DriverError
	if errors.As(err, &de) {
		return err
	}

	c.holder.pool.IncrementErrorCount()

	fatal := isFatalError(err)
	if fatal {
		c.holder.markBroken()
		c.logger.Warn().Err(err).Str("conn_id", c.ID()).Msg("Fatal driver error, marking connection for eviction")
	}

	return &types.DriverError{Vendor: c.vendor, Fatal: fatal, Err: err}
}

// RecordSQL appends raw SQL text to the connection's bounded statement
// history so transaction activity can be reconstructed for diagnostics.
// Recording happens before execution and is therefore present even for SQL
// that subsequently failed.
func (c *Conn) RecordSQL(query string) {
	if c.closed || c.txLimit <= 0 {
		return
	}
	if len(c.txRecord) >= c.txLimit {
		return
	}
	c.txRecord = append(c.txRecord, query)
}

// TransactionSQL returns a copy of the recorded statement history.
func (c *Conn) TransactionSQL() []string {
	out := make([]string, len(c.txRecord))
	copy(out, c.txRecord)
	return out
}

// ClearTransactionRecord resets the statement history, typically at a
// transaction boundary.
func (c *Conn) ClearTransactionRecord() {
	c.txRecord = c.txRecord[:0]
}

// IncrementExecuteCount forwards to the pool-wide execute counter.
func (c *Conn) IncrementExecuteCount() {
	c.holder.pool.IncrementExecuteCount()
}

// RemoveTrace drops a closed statement from the open-resource trace.
func (c *Conn) RemoveTrace(stmt types.Statement) {
	c.holder.removeTrace(stmt)
}

// Broken reports whether the recovery policy marked the physical connection
// unusable.
func (c *Conn) Broken() bool {
	return c.holder.broken
}

// Ping verifies the physical connection is still alive.
func (c *Conn) Ping(ctx context.Context) error {
	if c.closed {
		return types.ErrConnectionClosed
	}
	if err := c.holder.driver.Ping(ctx); err != nil {
		return c.HandleError(err)
	}
	return nil
}

// Close closes the connection and cascades to every statement still traced
// on it. Statement close failures are logged and isolated so one bad
// statement cannot prevent the rest, or the physical connection, from
// closing. Subsequent calls are no-ops.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	// Closing a statement removes it from the trace, so iterate a snapshot.
	stmts := make([]types.Statement, len(c.holder.statements))
	copy(stmts, c.holder.statements)
	for _, stmt := range stmts {
		if err := stmt.Close(); err != nil {
			c.logger.Error().Err(err).Str("conn_id", c.ID()).Msg("Failed to close traced statement")
		}
	}

	err := c.holder.driver.Close()
	c.holder.pool.untrace(c.holder.id)

	if err != nil {
		return &types.DriverError{Vendor: c.vendor, Fatal: c.holder.broken, Err: err}
	}
	return nil
}

// isFatalError classifies failures that indicate the physical connection is
// broken and must not be reused.
func isFatalError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
