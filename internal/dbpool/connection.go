// Package dbpool implements Connection and ConnectionPool: single
// connections with explicit open/close/validate lifecycle, and a pool
// that grows the number of physical connections while increasing the
// per-connection client cap by a capacity schedule, asynchronously
// reclaiming idle connections (spec §4.E, §5).
package dbpool

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"smf/internal/qerrors"
)

// Settings is process-wide connection configuration: write-once at
// startup, read thereafter (spec §5, §6). Start from DefaultSettings,
// or decode one with LoadSettingsFile/DecodeSettings, and pass it by
// value; there is no builder type and no package-level singleton.
type Settings struct {
	// DSNPrefix is the go-sql-driver DSN fragment after the
	// "user:password@" prefix and before the database name, e.g.
	// "tcp(127.0.0.1:3306)/". Defaults to "tcp(localhost:3306)/",
	// the Go-driver equivalent of spec §6's connection_target default
	// "jdbc:mysql://localhost:3306/".
	DSNPrefix string
	// User is the connecting user. Defaults to "root".
	User string
	// Password is optional.
	Password    string
	HasPassword bool
	// DriverClass names the driver package that must be imported
	// (blank-imported) before use; recorded for parity with spec §6
	// but not dynamically loaded (Go registers drivers at compile
	// time via import side effects, unlike a JDBC DriverManager).
	DriverClass string
}

// DSN renders the full go-sql-driver DSN for databaseName.
func (s Settings) DSN(databaseName string) string {
	auth := s.User
	if s.HasPassword {
		auth += ":" + s.Password
	}
	return fmt.Sprintf("%s@%s%s", auth, s.DSNPrefix, databaseName)
}

// DefaultSettings returns the spec §6 defaults translated to the
// go-sql-driver DSN shape.
func DefaultSettings() Settings {
	return Settings{
		DSNPrefix: "tcp(localhost:3306)/",
		User:      "root",
	}
}

// Connection owns at most one native handle (*sql.DB pinned to a
// single physical connection, see DESIGN.md's "native handle"
// resolution). Open/Close/SwitchDatabase mirror
// internal/apply.Applier's Connect/Close lifecycle.
type Connection struct {
	settings     Settings
	databaseName string
	handle       *sql.DB
}

// NewConnection constructs an unopened Connection.
func NewConnection(settings Settings, databaseName string) *Connection {
	return &Connection{settings: settings, databaseName: databaseName}
}

// Open creates (or, if already open, replaces) the native handle and
// pings it to confirm connectivity.
func (c *Connection) Open(ctx context.Context) error {
	if c.handle != nil {
		_ = c.handle.Close()
		c.handle = nil
	}

	db, err := sql.Open("mysql", c.settings.DSN(c.databaseName))
	if err != nil {
		return &qerrors.DatabaseUnavailable{Cause: fmt.Errorf("open: %w", err)}
	}
	// Each Connection represents exactly one logical pool slot; pin it
	// to a single physical connection so the pool's capacity schedule
	// (spec §4.E) governs concurrency, not database/sql's own pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &qerrors.DatabaseUnavailable{Cause: fmt.Errorf("ping: %w", err)}
	}

	c.handle = db
	return nil
}

// Close releases the native handle. Idempotent.
func (c *Connection) Close() error {
	if c.handle == nil {
		return nil
	}
	err := c.handle.Close()
	c.handle = nil
	return err
}

// IsOpen probes whether the native handle is still usable.
func (c *Connection) IsOpen(ctx context.Context) bool {
	if c.handle == nil {
		return false
	}
	return c.handle.PingContext(ctx) == nil
}

// EnsureOpen validates the connection before reuse, transparently
// re-opening it if it is no longer valid.
func (c *Connection) EnsureOpen(ctx context.Context) error {
	if c.IsOpen(ctx) {
		return nil
	}
	return c.Open(ctx)
}

// SwitchDatabase changes the connection's target database. When the
// handle is open this is a hot operation (emits USE <name>); otherwise
// it is a cheap field update applied on the next Open.
func (c *Connection) SwitchDatabase(ctx context.Context, name string) error {
	if c.handle != nil {
		if _, err := c.handle.ExecContext(ctx, "USE "+name); err != nil {
			return &qerrors.DatabaseUnavailable{Cause: fmt.Errorf("switch database: %w", err)}
		}
	}
	c.databaseName = name
	return nil
}

// DatabaseName reports the connection's current target database.
func (c *Connection) DatabaseName() string { return c.databaseName }

// Execute runs sqlText with no expectation of a result set.
func (c *Connection) Execute(ctx context.Context, sqlText string, args ...any) (sql.Result, error) {
	return c.handle.ExecContext(ctx, sqlText, args...)
}

// Prepare yields a prepared statement handle. returnGeneratedKeys is
// recorded for parity with spec §4.E/§6 ("RETURN_GENERATED_KEYS"); the
// go-sql-driver/mysql driver surfaces LastInsertId() on every Result
// without a separate prepare-time flag, so it does not change how
// Prepare itself behaves.
func (c *Connection) Prepare(ctx context.Context, sqlText string, returnGeneratedKeys bool) (*sql.Stmt, error) {
	return c.handle.PrepareContext(ctx, sqlText)
}

// DB exposes the native handle for callers (the query executor) that
// need to run statements directly against this connection's single
// physical slot.
func (c *Connection) DB() *sql.DB { return c.handle }
