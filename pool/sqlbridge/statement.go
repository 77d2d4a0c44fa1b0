package sqlbridge

import (
	"context"
	"database/sql"
	"time"

	"github.com/gaborage/go-dbpool/pool/types"
)

// Stmt bridges plain-SQL execution over a *sql.DB to types.DriverStmt.
//
// database/sql multiplexes physical connections itself, so a bridge
// statement is a lightweight execution context rather than a server-side
// handle: settings are kept locally and applied per call.
type Stmt struct {
	db *sql.DB

	queryTimeout   time.Duration
	maxRows        int
	maxFieldSize   int
	fetchSize      int
	fetchDirection types.FetchDirection
	batch          []string

	lastRows    *Rows
	lastResult  sql.Result
	updateCount int64
}

var _ types.DriverStmt = (*Stmt)(nil)

func newStmt(db *sql.DB) *Stmt {
	return &Stmt{
		db:             db,
		fetchDirection: types.FetchForward,
		updateCount:    -1,
	}
}

// Query executes a result-producing statement.
func (s *Stmt) Query(ctx context.Context, query string) (types.DriverRows, error) {
	qctx, cancel := opContext(ctx, s.queryTimeout)
	rows, err := s.db.QueryContext(qctx, query)
	if err != nil {
		cancel()
		return nil, err
	}
	s.updateCount = -1
	return newRows(rows, s.maxRows, cancel), nil
}

// Exec executes a statement without returning rows.
func (s *Stmt) Exec(ctx context.Context, query string) (int64, error) {
	qctx, cancel := opContext(ctx, s.queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(qctx, query)
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		affected = 0
	}
	s.lastResult = result
	s.updateCount = affected
	return affected, nil
}

// ExecReturning executes a write and retains the result so generated keys
// can be retrieved afterwards. database/sql exposes generated keys through
// LastInsertId only; key column selection is a vendor-adapter concern.
func (s *Stmt) ExecReturning(ctx context.Context, query string, _ ...string) (int64, error) {
	return s.Exec(ctx, query)
}

// Execute runs SQL whose shape is unknown up front, reporting true when the
// first result is a result set.
func (s *Stmt) Execute(ctx context.Context, query string) (bool, error) {
	if isQuery(query) {
		rows, err := s.Query(ctx, query)
		if err != nil {
			return false, err
		}
		s.lastRows = rows.(*Rows)
		return true, nil
	}

	if _, err := s.Exec(ctx, query); err != nil {
		return false, err
	}
	return false, nil
}

// ExecuteReturning is Execute with generated-key retention.
func (s *Stmt) ExecuteReturning(ctx context.Context, query string, keyColumns ...string) (bool, error) {
	if isQuery(query) {
		return s.Execute(ctx, query)
	}
	if _, err := s.ExecReturning(ctx, query, keyColumns...); err != nil {
		return false, err
	}
	return false, nil
}

// ResultSet returns the pending result set produced by Execute.
func (s *Stmt) ResultSet(_ context.Context) (types.DriverRows, error) {
	if s.lastRows == nil {
		return nil, types.ErrUnsupported
	}
	rows := s.lastRows
	s.lastRows = nil
	return rows, nil
}

// GeneratedKeys exposes the keys generated by the last write. Only drivers
// that report LastInsertId can serve this through the bridge.
func (s *Stmt) GeneratedKeys(_ context.Context) (types.DriverRows, error) {
	if s.lastResult == nil {
		return nil, types.ErrUnsupported
	}
	id, err := s.lastResult.LastInsertId()
	if err != nil {
		return nil, types.ErrUnsupported
	}
	return newKeyRows([]int64{id}), nil
}

// UpdateCount reports the row count of the last Exec, or -1 after a query.
func (s *Stmt) UpdateCount() (int64, error) {
	return s.updateCount, nil
}

// MoreResults discards the pending result set. database/sql statements
// produce a single result, so there is never a next one.
func (s *Stmt) MoreResults() (bool, error) {
	return s.MoreResultsWith(types.CloseCurrentResult)
}

// MoreResultsWith applies the requested handling to the pending result set
// and reports that no further results exist.
func (s *Stmt) MoreResultsWith(behavior types.CurrentResultBehavior) (bool, error) {
	if behavior != types.KeepCurrentResult && s.lastRows != nil {
		_ = s.lastRows.Close()
		s.lastRows = nil
	}
	s.updateCount = -1
	return false, nil
}

// AddBatch records SQL for a later ExecBatch.
func (s *Stmt) AddBatch(query string) error {
	s.batch = append(s.batch, query)
	return nil
}

// ClearBatch discards the recorded batch.
func (s *Stmt) ClearBatch() error {
	s.batch = nil
	return nil
}

// ExecBatch executes the recorded batch sequentially, returning per-entry
// affected-row counts. The batch is consumed even when an entry fails; the
// counts collected so far are returned alongside the error.
func (s *Stmt) ExecBatch(ctx context.Context) ([]int64, error) {
	batch := s.batch
	s.batch = nil

	counts := make([]int64, 0, len(batch))
	for _, query := range batch {
		affected, err := s.Exec(ctx, query)
		if err != nil {
			return counts, err
		}
		counts = append(counts, affected)
	}
	return counts, nil
}

// MaxFieldSize returns the locally held column size hint.
func (s *Stmt) MaxFieldSize() (int, error) {
	return s.maxFieldSize, nil
}

// SetMaxFieldSize stores the column size hint. database/sql cannot enforce
// it, so the bridge keeps it for symmetry with server-side drivers.
func (s *Stmt) SetMaxFieldSize(size int) error {
	s.maxFieldSize = size
	return nil
}

// MaxRows returns the row cap applied to result sets.
func (s *Stmt) MaxRows() (int, error) {
	return s.maxRows, nil
}

// SetMaxRows caps the rows any subsequent result set yields. Zero removes
// the cap.
func (s *Stmt) SetMaxRows(rows int) error {
	s.maxRows = rows
	return nil
}

// SetEscapeProcessing is a no-op: the bridge passes SQL through verbatim.
func (s *Stmt) SetEscapeProcessing(_ bool) error {
	return nil
}

// QueryTimeout returns the per-execution timeout.
func (s *Stmt) QueryTimeout() (time.Duration, error) {
	return s.queryTimeout, nil
}

// SetQueryTimeout applies a deadline to each subsequent execution.
func (s *Stmt) SetQueryTimeout(timeout time.Duration) error {
	s.queryTimeout = timeout
	return nil
}

// Cancel is unsupported: database/sql cancels in-flight work through the
// execution context, not through the statement handle.
func (s *Stmt) Cancel(_ context.Context) error {
	return types.ErrUnsupported
}

// Warnings reports no warnings; database/sql does not surface them.
func (s *Stmt) Warnings() ([]string, error) {
	return nil, nil
}

// ClearWarnings is a no-op.
func (s *Stmt) ClearWarnings() error {
	return nil
}

// SetCursorName is unsupported by the bridge.
func (s *Stmt) SetCursorName(_ string) error {
	return types.ErrUnsupported
}

// FetchDirection returns the stored consumption order hint.
func (s *Stmt) FetchDirection() (types.FetchDirection, error) {
	return s.fetchDirection, nil
}

// SetFetchDirection accepts forward iteration only; database/sql cursors
// cannot scroll.
func (s *Stmt) SetFetchDirection(direction types.FetchDirection) error {
	if direction != types.FetchForward {
		return types.ErrUnsupported
	}
	s.fetchDirection = direction
	return nil
}

// FetchSize returns the stored prefetch hint.
func (s *Stmt) FetchSize() (int, error) {
	return s.fetchSize, nil
}

// SetFetchSize stores the prefetch hint.
func (s *Stmt) SetFetchSize(rows int) error {
	s.fetchSize = rows
	return nil
}

// ResultSetConcurrency reports read-only result sets.
func (s *Stmt) ResultSetConcurrency() (int, error) {
	return types.ConcurReadOnly, nil
}

// ResultSetType reports forward-only result sets.
func (s *Stmt) ResultSetType() (int, error) {
	return types.TypeForwardOnly, nil
}

// ResultSetHoldability reports cursors that close at commit.
func (s *Stmt) ResultSetHoldability() (int, error) {
	return types.CloseCursorsAtCommit, nil
}

// Close releases the pending result set, if any. The statement itself holds
// no server-side resources.
func (s *Stmt) Close() error {
	if s.lastRows != nil {
		err := s.lastRows.Close()
		s.lastRows = nil
		return err
	}
	return nil
}
