package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                    { return nil }
func (nopStmt) NumInput() int                                   { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func resetShared() {
	sharedMu.Lock()
	sharedDB = nil
	sharedMu.Unlock()
}

func TestSharedReturnsSamePointer(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	resetShared()
	defer resetShared()

	db1, err := Shared(context.Background(), "ignored", DefaultServerOptions())
	require.NoError(t, err)
	db2, err := Shared(context.Background(), "ignored", DefaultServerOptions())
	require.NoError(t, err)
	assert.Same(t, db1, db2)
}

func TestSharedConcurrentCallersGetOnePool(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	resetShared()
	defer resetShared()

	var wg sync.WaitGroup
	got := make([]*sql.DB, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := Shared(context.Background(), "ignored", DefaultServerOptions())
			if err == nil {
				got[i] = db
			}
		}(i)
	}
	wg.Wait()
	for _, db := range got {
		require.NotNil(t, db)
		assert.Same(t, got[0], db)
	}
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(DefaultServerOptions())
	assert.Equal(t, Options{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 20 * time.Minute,
		ConnMaxIdleTime: 45 * time.Second,
		PingTimeout:     time.Second,
	}, opts)

	db, err := Connect(context.Background(), "ignored", opts)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}

func TestOptionsFromEnvIgnoresMalformed(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("DB_PING_TIMEOUT", "soon")
	assert.Equal(t, DefaultMigrateOptions(), OptionsFromEnv(DefaultMigrateOptions()))
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "  ", DefaultServerOptions())
	assert.Error(t, err)
}

func TestSharedRetriesAfterFailure(t *testing.T) {
	ensureTestDriverRegistered()
	var calls int32
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, driver.ErrBadConn
		}
		return sql.Open("dbtest", dsn)
	}
	defer func() { openDB = prev }()
	resetShared()
	defer resetShared()

	_, err := Shared(context.Background(), "ignored", DefaultServerOptions())
	require.Error(t, err)
	db, err := Shared(context.Background(), "ignored", DefaultServerOptions())
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestMigrateNilDatabaseIsNoop(t *testing.T) {
	assert.NoError(t, Migrate(context.Background(), nil, "down"))
	assert.NoError(t, RunMigrations(context.Background(), nil))
}
