package track

import (
	"context"
	"errors"
	"testing"

	"github.com/gaborage/go-dbpool/pool/types"
)

func newTestResultSet(rows *stubRows) (*ResultSet, *Statement) {
	statement, underlying, _ := newTestStatement()
	underlying.queryRows = rows
	rs, err := statement.Query(context.Background(), selectOne)
	if err != nil {
		panic(err)
	}
	return rs.(*ResultSet), statement
}

func TestResultSetIteratesAndCounts(t *testing.T) {
	rs, statement := newTestResultSet(&stubRows{remaining: 3})

	fetched := 0
	for rs.Next() {
		fetched++
	}
	if fetched != 3 {
		t.Fatalf("expected 3 rows, got %d", fetched)
	}
	if err := rs.Err(); err != nil {
		t.Fatalf("unexpected iteration error: %v", err)
	}

	if err := rs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if statement.FetchRowPeak() != 3 {
		t.Fatalf("expected fetch peak fed on close, got %d", statement.FetchRowPeak())
	}
}

func TestResultSetFetchPeakTakesLargestCursor(t *testing.T) {
	statement, underlying, _ := newTestStatement()
	ctx := context.Background()

	for _, rowCount := range []int{5, 12, 3} {
		underlying.queryRows = &stubRows{remaining: rowCount}
		rs, err := statement.Query(ctx, selectOne)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		for rs.Next() {
		}
		if err := rs.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	if statement.FetchRowPeak() != 12 {
		t.Fatalf("expected peak 12, got %d", statement.FetchRowPeak())
	}
}

func TestResultSetIterationFailureRoutedToOwner(t *testing.T) {
	statement, underlying, owner := newTestStatement()
	iterErr := errors.New("connection reset mid-fetch")
	normalized := errors.New("fatal driver failure")
	owner.handleErr = normalized
	underlying.queryRows = &stubRows{remaining: 1, iterErr: iterErr}

	rs, err := statement.Query(context.Background(), selectOne)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	for rs.Next() {
	}

	first := rs.Err()
	if !errors.Is(first, normalized) {
		t.Fatalf("expected normalized failure from owner, got %v", first)
	}
	if len(owner.handled) != 1 || !errors.Is(owner.handled[0], iterErr) {
		t.Fatalf("expected raw failure routed through owner once, got %v", owner.handled)
	}
	if second := rs.Err(); !errors.Is(second, normalized) {
		t.Fatalf("expected repeated calls to surface the same failure, got %v", second)
	}
	if len(owner.handled) != 1 {
		t.Fatalf("expected repeated Err calls to reuse the cached error, got %d routings", len(owner.handled))
	}
}

func TestResultSetCloseIsIdempotent(t *testing.T) {
	rows := &stubRows{remaining: 1}
	rs, _ := newTestResultSet(rows)

	if err := rs.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if rows.closeCalls != 1 {
		t.Fatalf("expected exactly one underlying close, got %d", rows.closeCalls)
	}
}

func TestResultSetSkipsAlreadyClosedCursor(t *testing.T) {
	rows := &stubRows{}
	rows.closed = true
	rs, _ := newTestResultSet(rows)

	if err := rs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if rows.closeCalls != 0 {
		t.Fatalf("expected no redundant close on an already-closed cursor, got %d", rows.closeCalls)
	}
}

func TestResultSetCloseFailureIsLoggedNotReturned(t *testing.T) {
	statement, underlying, _ := newTestStatement()
	recLogger := statement.logger.(*recordingLogger)
	underlying.queryRows = &stubRows{closeErr: errors.New("server dropped cursor")}

	rs, err := statement.Query(context.Background(), selectOne)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	// The Query itself logged a tracking event; only events after this point
	// belong to the close path.
	baseline := len(recLogger.events())

	if err := rs.Close(); err != nil {
		t.Fatalf("expected close failure to be absorbed, got %v", err)
	}
	if !rs.IsClosed() {
		t.Fatalf("expected handle marked closed despite cursor failure")
	}

	events := recLogger.events()[baseline:]
	if len(events) != 1 {
		t.Fatalf("expected a single close-failure event, got %d", len(events))
	}
	if events[0].Level != levelError {
		t.Fatalf("expected error level, got %s", events[0].Level)
	}
	if events[0].Err == nil {
		t.Fatalf("expected failure attached to log event")
	}
}

func TestResultSetOperationsAfterClose(t *testing.T) {
	rs, _ := newTestResultSet(&stubRows{remaining: 2})

	if err := rs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if rs.Next() {
		t.Fatalf("expected Next to report false after close")
	}
	if _, err := rs.Columns(); !errors.Is(err, types.ErrResultSetClosed) {
		t.Fatalf("expected ErrResultSetClosed from Columns, got %v", err)
	}
	var dest int
	if err := rs.Scan(&dest); !errors.Is(err, types.ErrResultSetClosed) {
		t.Fatalf("expected ErrResultSetClosed from Scan, got %v", err)
	}
	if err := rs.Err(); err != nil {
		t.Fatalf("expected Err to report nothing after close, got %v", err)
	}
}

func TestResultSetScanDelegates(t *testing.T) {
	rs, _ := newTestResultSet(&stubRows{remaining: 1})

	if !rs.Next() {
		t.Fatalf("expected a row")
	}
	var dest int
	if err := rs.Scan(&dest); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	cols, err := rs.Columns()
	if err != nil {
		t.Fatalf("Columns failed: %v", err)
	}
	if len(cols) != 1 || cols[0] != "id" {
		t.Fatalf("unexpected columns: %v", cols)
	}
}
