package pool

import (
	"context"
	"time"

	"github.com/gaborage/go-dbpool/logger"
	"github.com/gaborage/go-dbpool/pool/types"
)

func testLogger() logger.Logger {
	return logger.New("disabled", false)
}

// fakeRows is a DriverRows stub serving a fixed number of rows.
type fakeRows struct {
	remaining  int
	closed     bool
	closeCalls int
	iterErr    error
}

func (r *fakeRows) Columns() ([]string, error) { return []string{"id"}, nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.remaining <= 0 {
		return false
	}
	r.remaining--
	return true
}

func (r *fakeRows) Scan(_ ...any) error     { return nil }
func (r *fakeRows) Err() error              { return r.iterErr }
func (r *fakeRows) IsClosed() (bool, error) { return r.closed, nil }

func (r *fakeRows) Close() error {
	r.closeCalls++
	r.closed = true
	return nil
}

// fakeStmt is a DriverStmt stub with injectable failures.
type fakeStmt struct {
	rowsPerQuery int
	rowsIterErr  error
	queryErr     error
	execErr      error
	closeErr     error

	batch      []string
	closeCalls int
}

func (s *fakeStmt) Query(_ context.Context, _ string) (types.DriverRows, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return &fakeRows{remaining: s.rowsPerQuery, iterErr: s.rowsIterErr}, nil
}

func (s *fakeStmt) Exec(_ context.Context, _ string) (int64, error) {
	return 1, s.execErr
}

func (s *fakeStmt) ExecReturning(_ context.Context, _ string, _ ...string) (int64, error) {
	return 1, s.execErr
}

func (s *fakeStmt) Execute(_ context.Context, _ string) (bool, error) {
	return true, s.execErr
}

func (s *fakeStmt) ExecuteReturning(_ context.Context, _ string, _ ...string) (bool, error) {
	return false, s.execErr
}

func (s *fakeStmt) ResultSet(_ context.Context) (types.DriverRows, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return &fakeRows{remaining: s.rowsPerQuery}, nil
}

func (s *fakeStmt) GeneratedKeys(_ context.Context) (types.DriverRows, error) {
	return &fakeRows{remaining: 1}, nil
}

func (s *fakeStmt) UpdateCount() (int64, error) { return -1, nil }
func (s *fakeStmt) MoreResults() (bool, error)  { return false, nil }
func (s *fakeStmt) MoreResultsWith(_ types.CurrentResultBehavior) (bool, error) {
	return false, nil
}

func (s *fakeStmt) AddBatch(query string) error {
	s.batch = append(s.batch, query)
	return nil
}

func (s *fakeStmt) ClearBatch() error {
	s.batch = nil
	return nil
}

func (s *fakeStmt) ExecBatch(_ context.Context) ([]int64, error) {
	if s.execErr != nil {
		return nil, s.execErr
	}
	counts := make([]int64, len(s.batch))
	s.batch = nil
	return counts, nil
}

func (s *fakeStmt) MaxFieldSize() (int, error)                     { return 0, nil }
func (s *fakeStmt) SetMaxFieldSize(_ int) error                    { return nil }
func (s *fakeStmt) MaxRows() (int, error)                          { return 0, nil }
func (s *fakeStmt) SetMaxRows(_ int) error                         { return nil }
func (s *fakeStmt) SetEscapeProcessing(_ bool) error               { return nil }
func (s *fakeStmt) QueryTimeout() (time.Duration, error)           { return 0, nil }
func (s *fakeStmt) SetQueryTimeout(_ time.Duration) error          { return nil }
func (s *fakeStmt) Cancel(_ context.Context) error                 { return nil }
func (s *fakeStmt) Warnings() ([]string, error)                    { return nil, nil }
func (s *fakeStmt) ClearWarnings() error                           { return nil }
func (s *fakeStmt) SetCursorName(_ string) error                   { return nil }
func (s *fakeStmt) FetchDirection() (types.FetchDirection, error)  { return types.FetchForward, nil }
func (s *fakeStmt) SetFetchDirection(_ types.FetchDirection) error { return nil }
func (s *fakeStmt) FetchSize() (int, error)                        { return 0, nil }
func (s *fakeStmt) SetFetchSize(_ int) error                       { return nil }
func (s *fakeStmt) ResultSetConcurrency() (int, error)             { return types.ConcurReadOnly, nil }
func (s *fakeStmt) ResultSetType() (int, error)                    { return types.TypeForwardOnly, nil }
func (s *fakeStmt) ResultSetHoldability() (int, error)             { return types.CloseCursorsAtCommit, nil }

func (s *fakeStmt) Close() error {
	s.closeCalls++
	return s.closeErr
}

// fakeConn is a DriverConn stub handing out fakeStmt statements.
type fakeConn struct {
	stmtErr    error
	pingErr    error
	closeErr   error
	closeCalls int

	stmts []*fakeStmt
}

func (c *fakeConn) NewStatement(_ context.Context) (types.DriverStmt, error) {
	if c.stmtErr != nil {
		return nil, c.stmtErr
	}
	stmt := &fakeStmt{rowsPerQuery: 1}
	c.stmts = append(c.stmts, stmt)
	return stmt, nil
}

func (c *fakeConn) Ping(_ context.Context) error { return c.pingErr }

func (c *fakeConn) Close() error {
	c.closeCalls++
	return c.closeErr
}
