// Package sqlbridge adapts a database/sql handle to the driver surfaces the
// pool tracks. It is the default bridge used by the vendor adapters; hints
// database/sql cannot express (fetch size, max field size) are held locally,
// and the row cap is enforced by clamping cursor iteration.
package sqlbridge

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gaborage/go-dbpool/pool/types"
)

// Conn bridges a *sql.DB to types.DriverConn.
type Conn struct {
	db     *sql.DB
	vendor string
}

var _ types.DriverConn = (*Conn)(nil)

// New wraps db in a bridge connection for the given vendor.
func New(db *sql.DB, vendor string) *Conn {
	return &Conn{db: db, vendor: vendor}
}

// DB exposes the underlying handle for pool sizing and diagnostics.
func (c *Conn) DB() *sql.DB {
	return c.db
}

// NewStatement creates a bridge statement bound to the connection.
func (c *Conn) NewStatement(_ context.Context) (types.DriverStmt, error) {
	return newStmt(c.db), nil
}

// Ping verifies the database is reachable.
func (c *Conn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the underlying handle.
func (c *Conn) Close() error {
	return c.db.Close()
}

// isQuery reports whether the SQL text is expected to produce a result set.
func isQuery(query string) bool {
	fields := strings.Fields(strings.TrimSpace(query))
	if len(fields) == 0 {
		return false
	}
	switch strings.ToLower(fields[0]) {
	case "select", "with", "show", "explain":
		return true
	default:
		return false
	}
}

// opContext applies the statement's query timeout when one is set. The
// returned cancel func must outlive any cursor produced under the context.
func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}
