package dbpool

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

type testMySQLContainer struct {
	container *mysql.MySQLContainer
	settings  Settings
	database  string
}

func setupPoolMySQL(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("pooldb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := mysqlContainer.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlContainer.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	return &testMySQLContainer{
		container: mysqlContainer,
		settings: Settings{
			DSNPrefix:   fmt.Sprintf("tcp(%s:%s)/", host, port.Port()),
			User:        "root",
			Password:    "testpass",
			HasPassword: true,
		},
		database: "pooldb",
	}
}

func TestConnectionPoolIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupPoolMySQL(t)
	ctx := context.Background()

	t.Run("borrow executes against a live connection", func(t *testing.T) {
		pool := New(tc.settings, tc.database, Config{
			KeepAlive: time.Minute,
			Schedule:  CapacitySchedule{{OpenCountThreshold: 1, MaxClients: 1}},
		})
		defer pool.CloseAll()

		err := pool.Borrow(ctx, func(db *sql.DB) error {
			var one int
			return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
		})
		require.NoError(t, err)
		assert.Equal(t, 1, pool.OpenCount())
	})

	t.Run("second borrow at cap 1 opens a new connection", func(t *testing.T) {
		pool := New(tc.settings, tc.database, Config{
			KeepAlive: time.Minute,
			Schedule:  CapacitySchedule{{OpenCountThreshold: 1, MaxClients: 1}},
		})
		defer pool.CloseAll()

		release := make(chan struct{})
		done := make(chan struct{})
		go func() {
			_ = pool.Borrow(ctx, func(db *sql.DB) error {
				close(done)
				<-release
				return nil
			})
		}()
		<-done

		err := pool.Borrow(ctx, func(db *sql.DB) error {
			return db.PingContext(ctx)
		})
		close(release)
		require.NoError(t, err)
		assert.Equal(t, 2, pool.OpenCount())
	})

	t.Run("reused connection is transparently reopened after the handle dies", func(t *testing.T) {
		pool := New(tc.settings, tc.database, Config{
			KeepAlive: time.Minute,
			Schedule:  CapacitySchedule{{OpenCountThreshold: 1, MaxClients: 1}},
		})
		defer pool.CloseAll()

		require.NoError(t, pool.Borrow(ctx, func(db *sql.DB) error { return nil }))
		require.Equal(t, 1, pool.OpenCount())

		pool.mu.Lock()
		live := pool.conns[0]
		pool.mu.Unlock()
		require.NoError(t, live.conn.Close())
		assert.False(t, live.conn.IsOpen(ctx))

		err := pool.Borrow(ctx, func(db *sql.DB) error {
			var one int
			return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
		})
		require.NoError(t, err)
		assert.Equal(t, 1, pool.OpenCount())
		assert.True(t, live.conn.IsOpen(ctx))
	})

	t.Run("idle connection is reaped after keep-alive", func(t *testing.T) {
		pool := New(tc.settings, tc.database, Config{
			KeepAlive: 50 * time.Millisecond,
			Schedule:  CapacitySchedule{{OpenCountThreshold: 1, MaxClients: 1}},
		})
		defer pool.CloseAll()

		require.NoError(t, pool.Borrow(ctx, func(db *sql.DB) error { return nil }))
		assert.Equal(t, 1, pool.OpenCount())

		require.Eventually(t, func() bool {
			return pool.OpenCount() == 0
		}, 2*time.Second, 20*time.Millisecond)
	})
}
