// Package pool provides the pooled-connection layer around raw driver
// handles. Connections created here hand out tracked statements whose
// lifecycles (and the result sets they spawn) are guarded and reclaimed even
// when callers forget to close what they open.
package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gaborage/go-dbpool/config"
	"github.com/gaborage/go-dbpool/logger"
	"github.com/gaborage/go-dbpool/pool/internal/track"
	"github.com/gaborage/go-dbpool/pool/types"
)

// Pool owns the usage counters shared by every connection it wraps and a
// trace of the live connections so shutdown can reclaim them. Checkout and
// checkin scheduling is deliberately left to the caller; the pool's job here
// is accounting and reclamation.
type Pool struct {
	cfg      *config.DatabaseConfig
	logger   logger.Logger
	vendor   string
	settings track.Settings

	executeCount    atomic.Int64
	errorCount      atomic.Int64
	closedStmtCount atomic.Int64

	mu     sync.Mutex
	conns  map[uuid.UUID]*Conn
	closed bool
}

// New creates a Pool from the provided database configuration and logger.
func New(cfg *config.DatabaseConfig, log logger.Logger) *Pool {
	vendor := types.PostgreSQL
	if cfg != nil && cfg.Vendor != "" {
		vendor = cfg.Vendor
	}
	return &Pool{
		cfg:      cfg,
		logger:   log,
		vendor:   vendor,
		settings: track.NewSettings(cfg),
		conns:    map[uuid.UUID]*Conn{},
	}
}

// Wrap adopts a physical driver connection into the pool: it is traced for
// shutdown reclamation and returned as a pooled connection that creates
// tracked statements.
func (p *Pool) Wrap(driver types.DriverConn) (*Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, types.ErrConnectionClosed
	}

	holder := newConnHolder(p, driver)
	conn := newConn(holder, p.logger, p.vendor, p.settings, transactionRecordLimit(p.cfg))
	p.conns[holder.id] = conn

	p.logger.Debug().Str("conn_id", holder.id.String()).Str("vendor", p.vendor).Msg("Connection adopted into pool")
	return conn, nil
}

// untrace drops a connection from the live trace once it has closed.
func (p *Pool) untrace(id uuid.UUID) {
	p.mu.Lock()
	delete(p.conns, id)
	p.mu.Unlock()
}

// IncrementExecuteCount bumps the pool-wide execute counter. Reached by
// every tracked statement through its owning connection.
func (p *Pool) IncrementExecuteCount() {
	p.executeCount.Add(1)
}

// ExecuteCount returns the pool-wide execute count.
func (p *Pool) ExecuteCount() int64 {
	return p.executeCount.Load()
}

// IncrementErrorCount bumps the pool-wide normalized error counter.
func (p *Pool) IncrementErrorCount() {
	p.errorCount.Add(1)
}

// ErrorCount returns the pool-wide normalized error count.
func (p *Pool) ErrorCount() int64 {
	return p.errorCount.Load()
}

// incrementClosedStatementCount records one fully closed statement.
func (p *Pool) incrementClosedStatementCount() {
	p.closedStmtCount.Add(1)
}

// Stats returns a snapshot of the pool's usage counters. Consumed by the
// monitoring layer (see track.RegisterPoolMetrics).
func (p *Pool) Stats() map[string]any {
	p.mu.Lock()
	connections := len(p.conns)
	p.mu.Unlock()

	return map[string]any{
		"vendor":                 p.vendor,
		"execute_count":          p.executeCount.Load(),
		"error_count":            p.errorCount.Load(),
		"closed_statement_count": p.closedStmtCount.Load(),
		"connection_count":       connections,
	}
}

// Close closes every connection still traced by the pool. Connection closes
// run concurrently; the first failure is reported but does not stop the
// remaining closes.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	conns := make([]*Conn, 0, len(p.conns))
	for _, conn := range p.conns {
		conns = append(conns, conn)
	}
	p.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, conn := range conns {
		g.Go(conn.Close)
	}
	return g.Wait()
}

func transactionRecordLimit(cfg *config.DatabaseConfig) int {
	if cfg == nil || cfg.Query.TransactionRecordLimit <= 0 {
		return defaultTransactionRecordLimit
	}
	return cfg.Query.TransactionRecordLimit
}
