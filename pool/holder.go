package pool

import (
	"time"

	"github.com/google/uuid"

	"github.com/gaborage/go-dbpool/pool/types"
)

// connHolder binds a physical driver connection to its pool. It keeps the
// per-connection trace of open statements so a closing connection can
// reclaim them, and the broken flag the recovery policy sets when a fatal
// driver failure is observed.
type connHolder struct {
	pool        *Pool
	driver      types.DriverConn
	id          uuid.UUID
	connectedAt time.Time

	statements []types.Statement
	broken     bool
	useCount   int64
}

func newConnHolder(p *Pool, driver types.DriverConn) *connHolder {
	return &connHolder{
		pool:        p,
		driver:      driver,
		id:          uuid.New(),
		connectedAt: time.Now(),
	}
}

// traceStatement records a newly created statement in open order.
func (h *connHolder) traceStatement(stmt types.Statement) {
	h.statements = append(h.statements, stmt)
	h.useCount++
}

// removeTrace drops a statement from the open-resource trace once it has
// closed. Unknown statements are ignored.
func (h *connHolder) removeTrace(stmt types.Statement) {
	for i, traced := range h.statements {
		if traced == stmt {
			h.statements = append(h.statements[:i], h.statements[i+1:]...)
			h.pool.incrementClosedStatementCount()
			return
		}
	}
}

// markBroken flags the physical connection as unusable so the pool evicts it
// instead of reusing it.
func (h *connHolder) markBroken() {
	h.broken = true
}
