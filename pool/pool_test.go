package pool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-dbpool/config"
	"github.com/gaborage/go-dbpool/pool/types"
)

func TestNewDefaultsToPostgreSQL(t *testing.T) {
	t.Parallel()

	p := New(nil, testLogger())
	assert.Equal(t, types.PostgreSQL, p.vendor)
}

func TestNewUsesConfiguredVendor(t *testing.T) {
	t.Parallel()

	cfg := &config.DatabaseConfig{Vendor: types.Oracle}
	p := New(cfg, testLogger())
	assert.Equal(t, types.Oracle, p.vendor)
}

func TestWrapTracesConnection(t *testing.T) {
	t.Parallel()

	p := New(nil, testLogger())
	conn, err := p.Wrap(&fakeConn{})
	require.NoError(t, err)
	require.NotNil(t, conn)

	stats := p.Stats()
	assert.Equal(t, 1, stats["connection_count"])
}

func TestWrapAfterCloseFails(t *testing.T) {
	t.Parallel()

	p := New(nil, testLogger())
	require.NoError(t, p.Close(context.Background()))

	_, err := p.Wrap(&fakeConn{})
	assert.ErrorIs(t, err, types.ErrConnectionClosed)
}

func TestPoolCountsExecutionsAcrossConnections(t *testing.T) {
	t.Parallel()

	p := New(nil, testLogger())
	first, err := p.Wrap(&fakeConn{})
	require.NoError(t, err)
	second, err := p.Wrap(&fakeConn{})
	require.NoError(t, err)

	ctx := context.Background()
	stmtA, err := first.Statement(ctx)
	require.NoError(t, err)
	stmtB, err := second.Statement(ctx)
	require.NoError(t, err)

	_, err = stmtA.Exec(ctx, "UPDATE t SET a=1")
	require.NoError(t, err)
	_, err = stmtB.Exec(ctx, "UPDATE t SET b=2")
	require.NoError(t, err)
	_, err = stmtB.Exec(ctx, "UPDATE t SET c=3")
	require.NoError(t, err)

	assert.Equal(t, int64(3), p.ExecuteCount())
}

func TestPoolStatsTracksClosedStatements(t *testing.T) {
	t.Parallel()

	p := New(nil, testLogger())
	conn, err := p.Wrap(&fakeConn{})
	require.NoError(t, err)

	ctx := context.Background()
	stmt, err := conn.Statement(ctx)
	require.NoError(t, err)
	require.NoError(t, stmt.Close())

	stats := p.Stats()
	assert.Equal(t, int64(1), stats["closed_statement_count"])
}

func TestPoolCloseReclaimsConnections(t *testing.T) {
	t.Parallel()

	p := New(nil, testLogger())
	driverA := &fakeConn{}
	driverB := &fakeConn{}
	_, err := p.Wrap(driverA)
	require.NoError(t, err)
	_, err = p.Wrap(driverB)
	require.NoError(t, err)

	require.NoError(t, p.Close(context.Background()))

	assert.Equal(t, 1, driverA.closeCalls)
	assert.Equal(t, 1, driverB.closeCalls)
	assert.Equal(t, 0, p.Stats()["connection_count"])
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	p := New(nil, testLogger())
	driver := &fakeConn{}
	_, err := p.Wrap(driver)
	require.NoError(t, err)

	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))
	assert.Equal(t, 1, driver.closeCalls)
}

func TestTransactionRecordLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, defaultTransactionRecordLimit, transactionRecordLimit(nil))

	cfg := &config.DatabaseConfig{}
	assert.Equal(t, defaultTransactionRecordLimit, transactionRecordLimit(cfg))

	cfg.Query.TransactionRecordLimit = 8
	assert.Equal(t, 8, transactionRecordLimit(cfg))
}
