package track

import (
	"context"
	"time"

	"github.com/gaborage/go-dbpool/logger"
	"github.com/gaborage/go-dbpool/pool/types"
)

// Statement wraps a types.DriverStmt with lifecycle tracking. It guards every
// operation against use-after-close, registers each result cursor it produces
// so the cursor can be force-closed when the statement closes, routes every
// driver failure through the owning connection's recovery policy, and
// accumulates the usage statistics the pool's monitoring layer consumes.
//
// A Statement is designed for sequential, single-goroutine use; concurrent
// calls on the same handle are a caller error.
type Statement struct {
	stmt     types.DriverStmt
	owner    types.StatementOwner
	logger   logger.Logger
	vendor   string
	settings Settings

	results      []*ResultSet
	batch        []string
	closed       bool
	fetchRowPeak int
}

var _ types.Statement = (*Statement)(nil)

// NewStatement wraps the provided raw statement with the tracking
// implementation. The owner supplies the recovery policy, the SQL recording
// hook, the pool-wide execute-count sink and the untrace callback; the
// logger, vendor identifier and settings control the tracking texture.
func NewStatement(stmt types.DriverStmt, owner types.StatementOwner, log logger.Logger, vendor string, settings Settings) *Statement {
	return &Statement{
		stmt:         stmt,
		owner:        owner,
		logger:       log,
		vendor:       vendor,
		settings:     settings,
		fetchRowPeak: -1,
	}
}

// checkOpen enforces the closed-state guard. It runs before the underlying
// driver is touched on every operation.
func (s *Statement) checkOpen() error {
	if s.closed {
		return types.ErrStatementClosed
	}
	return nil
}

// checkError routes a driver failure through the owning connection's
// recovery policy and returns the normalized form. Never swallows.
func (s *Statement) checkError(err error) error {
	return s.owner.HandleError(err)
}

// beforeExecute performs the bookkeeping shared by every execution-family
// operation: the pool-wide execute count is incremented and, when SQL text is
// present, forwarded to the connection's transaction recording hook. Both
// happen before delegation, not conditioned on the execution succeeding.
func (s *Statement) beforeExecute(query string) {
	s.owner.IncrementExecuteCount()
	if query != "" {
		s.owner.RecordSQL(query)
	}
}

// registerResultSet wraps a raw cursor in a tracked handle and records it in
// the open-order trace. Callers only ever see tracked handles.
func (s *Statement) registerResultSet(rows types.DriverRows) *ResultSet {
	rs := newResultSet(s, rows)
	s.results = append(s.results, rs)
	return rs
}

// untrackResultSet drops a handle that the caller closed directly.
func (s *Statement) untrackResultSet(rs *ResultSet) {
	if s.closed {
		return
	}
	for i, tracked := range s.results {
		if tracked == rs {
			s.results = append(s.results[:i], s.results[i+1:]...)
			return
		}
	}
}

// track emits the log/metrics/span record for an execution-family operation.
func (s *Statement) track(ctx context.Context, query string, start time.Time, rowsAffected int64, err error) {
	tc := &Context{
		Logger:   s.logger,
		Vendor:   s.vendor,
		Settings: s.settings,
	}
	TrackOperation(ctx, tc, query, start, rowsAffected, err)
}

// Query executes a query and returns a tracked result handle.
func (s *Statement) Query(ctx context.Context, query string) (types.ResultSet, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	s.beforeExecute(query)

	start := time.Now()
	rows, err := s.stmt.Query(ctx, query)
	s.track(ctx, query, start, 0, err)
	if err != nil {
		return nil, s.checkError(err)
	}

	return s.registerResultSet(rows), nil
}

// Exec executes a statement that does not return rows and reports the number
// of rows affected.
func (s *Statement) Exec(ctx context.Context, query string) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	s.beforeExecute(query)

	start := time.Now()
	affected, err := s.stmt.Exec(ctx, query)
	s.track(ctx, query, start, affected, err)
	if err != nil {
		return 0, s.checkError(err)
	}

	return affected, nil
}

// ExecReturning executes a write and asks the driver to retain generated key
// columns for a subsequent GeneratedKeys call.
func (s *Statement) ExecReturning(ctx context.Context, query string, keyColumns ...string) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	s.beforeExecute(query)

	start := time.Now()
	affected, err := s.stmt.ExecReturning(ctx, query, keyColumns...)
	s.track(ctx, query, start, affected, err)
	if err != nil {
		return 0, s.checkError(err)
	}

	return affected, nil
}

// Execute runs SQL whose shape is unknown up front. It reports true when the
// first result is a result set, retrievable via ResultSet.
func (s *Statement) Execute(ctx context.Context, query string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	s.beforeExecute(query)

	start := time.Now()
	hasResults, err := s.stmt.Execute(ctx, query)
	s.track(ctx, query, start, 0, err)
	if err != nil {
		return false, s.checkError(err)
	}

	return hasResults, nil
}

// ExecuteReturning is Execute with generated-key retention.
func (s *Statement) ExecuteReturning(ctx context.Context, query string, keyColumns ...string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	s.beforeExecute(query)

	start := time.Now()
	hasResults, err := s.stmt.ExecuteReturning(ctx, query, keyColumns...)
	s.track(ctx, query, start, 0, err)
	if err != nil {
		return false, s.checkError(err)
	}

	return hasResults, nil
}

// ResultSet returns the current result as a tracked handle.
func (s *Statement) ResultSet(ctx context.Context) (types.ResultSet, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.stmt.ResultSet(ctx)
	if err != nil {
		return nil, s.checkError(err)
	}

	return s.registerResultSet(rows), nil
}

// GeneratedKeys returns the keys generated by the last write as a tracked
// handle.
func (s *Statement) GeneratedKeys(ctx context.Context) (types.ResultSet, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.stmt.GeneratedKeys(ctx)
	if err != nil {
		return nil, s.checkError(err)
	}

	return s.registerResultSet(rows), nil
}

// UpdateCount reports the row count of the current result, or -1 when the
// current result is a result set or no more results remain.
func (s *Statement) UpdateCount() (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	count, err := s.stmt.UpdateCount()
	if err != nil {
		return 0, s.checkError(err)
	}
	return count, nil
}

// MoreResults advances to the statement's next result.
func (s *Statement) MoreResults() (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	more, err := s.stmt.MoreResults()
	if err != nil {
		return false, s.checkError(err)
	}
	return more, nil
}

// MoreResultsWith advances to the next result with explicit handling of the
// current one.
func (s *Statement) MoreResultsWith(behavior types.CurrentResultBehavior) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	more, err := s.stmt.MoreResultsWith(behavior)
	if err != nil {
		return false, s.checkError(err)
	}
	return more, nil
}

// AddBatch records SQL for a later ExecBatch. The SQL is forwarded to the
// transaction recording hook but the execute count is not incremented; the
// eventual ExecBatch counts as the single logical execution.
func (s *Statement) AddBatch(query string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.owner.RecordSQL(query)

	if err := s.stmt.AddBatch(query); err != nil {
		return s.checkError(err)
	}
	s.batch = append(s.batch, query)
	return nil
}

// ClearBatch discards the recorded batch.
func (s *Statement) ClearBatch() error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	if err := s.stmt.ClearBatch(); err != nil {
		return s.checkError(err)
	}
	s.batch = nil
	return nil
}

// ExecBatch executes the recorded batch. It increments the pool-wide execute
// count exactly once, regardless of how many statements the batch holds.
func (s *Statement) ExecBatch(ctx context.Context) ([]int64, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	s.beforeExecute("")

	if s.settings.LogQueryParameters() && len(s.batch) > 0 {
		s.logger.Debug().
			Int("batch_size", len(s.batch)).
			Interface("batch", SanitizeBatch(s.batch, s.settings.MaxQueryLength())).
			Msg("Executing statement batch")
	}
	s.batch = nil

	start := time.Now()
	counts, err := s.stmt.ExecBatch(ctx)
	s.track(ctx, "BATCH", start, 0, err)
	if err != nil {
		return counts, s.checkError(err)
	}

	return counts, nil
}

// MaxFieldSize returns the driver's column size limit.
func (s *Statement) MaxFieldSize() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	size, err := s.stmt.MaxFieldSize()
	if err != nil {
		return 0, s.checkError(err)
	}
	return size, nil
}

// SetMaxFieldSize sets the driver's column size limit.
func (s *Statement) SetMaxFieldSize(size int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.stmt.SetMaxFieldSize(size); err != nil {
		return s.checkError(err)
	}
	return nil
}

// MaxRows returns the row cap applied to result sets.
func (s *Statement) MaxRows() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	rows, err := s.stmt.MaxRows()
	if err != nil {
		return 0, s.checkError(err)
	}
	return rows, nil
}

// SetMaxRows caps the number of rows any result set of this statement yields.
func (s *Statement) SetMaxRows(rows int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.stmt.SetMaxRows(rows); err != nil {
		return s.checkError(err)
	}
	return nil
}

// SetEscapeProcessing toggles driver-side escape substitution.
func (s *Statement) SetEscapeProcessing(enable bool) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.stmt.SetEscapeProcessing(enable); err != nil {
		return s.checkError(err)
	}
	return nil
}

// QueryTimeout returns the per-execution timeout, passed through unmodified
// from the driver; the tracking layer adds no timeout logic of its own.
func (s *Statement) QueryTimeout() (time.Duration, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	timeout, err := s.stmt.QueryTimeout()
	if err != nil {
		return 0, s.checkError(err)
	}
	return timeout, nil
}

// SetQueryTimeout sets the per-execution timeout on the driver.
func (s *Statement) SetQueryTimeout(timeout time.Duration) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.stmt.SetQueryTimeout(timeout); err != nil {
		return s.checkError(err)
	}
	return nil
}

// Cancel asks the driver to abort the in-flight execution.
func (s *Statement) Cancel(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.stmt.Cancel(ctx); err != nil {
		return s.checkError(err)
	}
	return nil
}

// Warnings returns the warnings accumulated on the driver statement.
func (s *Statement) Warnings() ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	warnings, err := s.stmt.Warnings()
	if err != nil {
		return nil, s.checkError(err)
	}
	return warnings, nil
}

// ClearWarnings discards accumulated driver warnings.
func (s *Statement) ClearWarnings() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.stmt.ClearWarnings(); err != nil {
		return s.checkError(err)
	}
	return nil
}

// SetCursorName names the server-side cursor used by subsequent executions.
func (s *Statement) SetCursorName(name string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.stmt.SetCursorName(name); err != nil {
		return s.checkError(err)
	}
	return nil
}

// FetchDirection returns the row consumption order hint.
func (s *Statement) FetchDirection() (types.FetchDirection, error) {
	if err := s.checkOpen(); err != nil {
		return types.FetchForward, err
	}
	direction, err := s.stmt.FetchDirection()
	if err != nil {
		return types.FetchForward, s.checkError(err)
	}
	return direction, nil
}

// SetFetchDirection hints the driver about row consumption order.
func (s *Statement) SetFetchDirection(direction types.FetchDirection) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.stmt.SetFetchDirection(direction); err != nil {
		return s.checkError(err)
	}
	return nil
}

// FetchSize returns the driver's row prefetch hint.
func (s *Statement) FetchSize() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	size, err := s.stmt.FetchSize()
	if err != nil {
		return 0, s.checkError(err)
	}
	return size, nil
}

// SetFetchSize sets the driver's row prefetch hint.
func (s *Statement) SetFetchSize(rows int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.stmt.SetFetchSize(rows); err != nil {
		return s.checkError(err)
	}
	return nil
}

// ResultSetConcurrency reports the concurrency mode of produced result sets.
func (s *Statement) ResultSetConcurrency() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	concurrency, err := s.stmt.ResultSetConcurrency()
	if err != nil {
		return 0, s.checkError(err)
	}
	return concurrency, nil
}

// ResultSetType reports the scroll type of produced result sets.
func (s *Statement) ResultSetType() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	rsType, err := s.stmt.ResultSetType()
	if err != nil {
		return 0, s.checkError(err)
	}
	return rsType, nil
}

// ResultSetHoldability reports the commit holdability of produced result sets.
func (s *Statement) ResultSetHoldability() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	holdability, err := s.stmt.ResultSetHoldability()
	if err != nil {
		return 0, s.checkError(err)
	}
	return holdability, nil
}

// Close releases the statement and every result handle it still tracks.
//
// The first call closes all tracked result handles in registration order
// (failures there are logged and isolated so one bad handle cannot prevent
// the rest, or the statement itself, from closing), closes the underlying
// statement, marks the handle closed and removes it from the parent
// connection's open-resource trace. Subsequent calls are no-ops.
func (s *Statement) Close() error {
	if s.closed {
		return nil
	}

	s.closeResultSets()
	err := s.stmt.Close()

	// The handle is never left half-closed: the closed flag and the trace
	// removal happen even when the underlying close fails.
	s.closed = true
	s.owner.RemoveTrace(s)

	if err != nil {
		return s.checkError(err)
	}
	return nil
}

// closeResultSets force-closes every tracked result handle in open order.
// Failures are isolated per handle: logged, never propagated, and never
// allowed to skip the remaining handles.
func (s *Statement) closeResultSets() {
	for _, rs := range s.results {
		rs.closeQuiet()
	}
	s.results = nil
}

// IsClosed reports the statement's closed state. It is a pure state read
// that never touches the underlying driver and never fails.
func (s *Statement) IsClosed() bool {
	return s.closed
}

// SetPoolable accepts only the "keep pooled" request; asking to exempt the
// statement from pool tracking is rejected and leaves all state untouched.
func (s *Statement) SetPoolable(poolable bool) error {
	if poolable {
		return nil
	}
	return types.ErrPoolingNotSupported
}

// Poolable always reports false: statements managed by the pool are never
// exempt from its tracking.
func (s *Statement) Poolable() bool {
	return false
}

// RecordFetchRows updates the peak fetch size when count exceeds the current
// peak. Result handles report their row counts here when they close.
func (s *Statement) RecordFetchRows(count int) {
	if s.closed {
		return
	}
	if count > s.fetchRowPeak {
		s.fetchRowPeak = count
	}
}

// FetchRowPeak returns the largest row count any result handle of this
// statement reported, or -1 when none reported yet.
func (s *Statement) FetchRowPeak() int {
	return s.fetchRowPeak
}

// TrackedResultSets returns the number of currently tracked result handles.
func (s *Statement) TrackedResultSets() int {
	return len(s.results)
}
