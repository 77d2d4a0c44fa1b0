package sqlbridge

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gaborage/go-dbpool/pool/types"
)

// Rows bridges *sql.Rows to types.DriverRows, clamping iteration to the
// statement's row cap and releasing the query-timeout context on close.
type Rows struct {
	rows    *sql.Rows
	cancel  context.CancelFunc
	maxRows int
	yielded int
	closed  bool
}

var _ types.DriverRows = (*Rows)(nil)

func newRows(rows *sql.Rows, maxRows int, cancel context.CancelFunc) *Rows {
	return &Rows{rows: rows, maxRows: maxRows, cancel: cancel}
}

// Columns returns the result column names.
func (r *Rows) Columns() ([]string, error) {
	return r.rows.Columns()
}

// Next advances the cursor, honoring the statement's row cap.
func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	if r.maxRows > 0 && r.yielded >= r.maxRows {
		return false
	}
	if !r.rows.Next() {
		return false
	}
	r.yielded++
	return true
}

// Scan copies the current row into dest.
func (r *Rows) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}

// Err returns the error, if any, that ended iteration.
func (r *Rows) Err() error {
	return r.rows.Err()
}

// IsClosed reports whether Close has run. database/sql gives no visibility
// into driver-side cursor expiry, so this is the bridge's best effort.
func (r *Rows) IsClosed() (bool, error) {
	return r.closed, nil
}

// Close releases the cursor and any query-timeout context held for it.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.rows.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

// keyRows is an in-memory cursor over generated key values.
type keyRows struct {
	ids    []int64
	pos    int
	closed bool
}

var _ types.DriverRows = (*keyRows)(nil)

func newKeyRows(ids []int64) *keyRows {
	return &keyRows{ids: ids, pos: -1}
}

func (k *keyRows) Columns() ([]string, error) {
	return []string{"generated_id"}, nil
}

func (k *keyRows) Next() bool {
	if k.closed || k.pos+1 >= len(k.ids) {
		return false
	}
	k.pos++
	return true
}

func (k *keyRows) Scan(dest ...any) error {
	if k.closed {
		return types.ErrResultSetClosed
	}
	if k.pos < 0 || k.pos >= len(k.ids) {
		return fmt.Errorf("scan called without a current row")
	}
	if len(dest) != 1 {
		return fmt.Errorf("expected 1 destination, got %d", len(dest))
	}
	switch d := dest[0].(type) {
	case *int64:
		*d = k.ids[k.pos]
	case *any:
		*d = k.ids[k.pos]
	default:
		return fmt.Errorf("unsupported scan destination %T", dest[0])
	}
	return nil
}

func (k *keyRows) Err() error {
	return nil
}

func (k *keyRows) IsClosed() (bool, error) {
	return k.closed, nil
}

func (k *keyRows) Close() error {
	k.closed = true
	return nil
}
