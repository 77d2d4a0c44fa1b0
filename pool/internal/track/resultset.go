package track

import (
	"context"

	"github.com/gaborage/go-dbpool/pool/types"
)

// ResultSet wraps a raw result cursor with lifecycle tracking. Its owning
// statement is the sole closer of the handle unless the caller closes it
// first; double close is a no-op, never an error.
//
// The handle counts the rows it yields and reports the count to its owner
// when it closes, which is how the statement's peak fetch size is fed.
type ResultSet struct {
	rows    types.DriverRows
	owner   *Statement
	closed  bool
	fetched int
	iterErr error
}

var _ types.ResultSet = (*ResultSet)(nil)

func newResultSet(owner *Statement, rows types.DriverRows) *ResultSet {
	return &ResultSet{
		rows:  rows,
		owner: owner,
	}
}

// Columns returns the column names of the cursor.
func (r *ResultSet) Columns() ([]string, error) {
	if r.closed {
		return nil, types.ErrResultSetClosed
	}
	cols, err := r.rows.Columns()
	if err != nil {
		return nil, r.owner.checkError(err)
	}
	return cols, nil
}

// Next advances the cursor. It returns false once the cursor is exhausted or
// the handle has been closed; the cause, if any, is available via Err.
func (r *ResultSet) Next() bool {
	if r.closed {
		return false
	}
	if !r.rows.Next() {
		return false
	}
	r.fetched++
	return true
}

// Scan copies the current row into dest.
func (r *ResultSet) Scan(dest ...any) error {
	if r.closed {
		return types.ErrResultSetClosed
	}
	if err := r.rows.Scan(dest...); err != nil {
		return r.owner.checkError(err)
	}
	return nil
}

// Err returns the error, if any, that ended iteration, routed through the
// owning statement's recovery handling so a mid-fetch connection failure
// still marks the connection broken. After Close it reports nothing.
func (r *ResultSet) Err() error {
	if r.closed {
		return nil
	}
	err := r.rows.Err()
	if err == nil {
		return nil
	}
	// Normalize once and cache the result so repeated calls do not
	// double-count the failure in the pool statistics.
	if r.iterErr == nil {
		r.iterErr = r.owner.checkError(err)
	}
	return r.iterErr
}

// Close releases the cursor. It is idempotent, drops the handle from the
// owner's tracked set, and never surfaces a close failure: by the time a
// handle is being released the caller has already abandoned the resource, so
// failures are reported through the owning statement's logging channel only.
func (r *ResultSet) Close() error {
	if r.closed {
		return nil
	}
	r.owner.untrackResultSet(r)
	r.closeQuiet()
	return nil
}

// IsClosed reports the handle's closed state without touching the driver.
func (r *ResultSet) IsClosed() bool {
	return r.closed
}

// closeQuiet performs the actual release. It consults the underlying
// cursor's own closed state first, since a concurrently-expired cursor can
// already be gone on the driver side; such cursors are skipped, not
// re-closed. Used both for direct close and for the owner's cascade.
func (r *ResultSet) closeQuiet() {
	if r.closed {
		return
	}
	r.closed = true

	r.owner.RecordFetchRows(r.fetched)
	RecordFetchedRows(context.Background(), r.owner.vendor, r.fetched)

	if alreadyClosed, err := r.rows.IsClosed(); err == nil && alreadyClosed {
		return
	}

	if err := r.rows.Close(); err != nil {
		r.owner.logger.Error().Err(err).Msg("Failed to close tracked result set")
	}
}
