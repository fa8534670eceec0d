// Package query implements the query executor: Select and its
// convenience variants, Insert, Update, Delete, and InsertOrUpdate,
// generalising internal/apply's statement-execution idiom
// (ExecContext/QueryContext, timing, wrapped errors) from raw-statement
// migration execution to clause-driven parameterised execution.
package query

import (
	"context"
	"database/sql"
	"fmt"

	"smf/internal/clause"
	"smf/internal/dbpool"
	"smf/internal/qerrors"
	"smf/internal/qschema"
	"smf/internal/qv"
)

// Executor runs clause-built operations against a pool. Every public
// operation accepts an optional externally-managed connection; when
// nil, a temporary connection is borrowed from the pool for the call
// and released before returning, even on error.
type Executor struct {
	pool *dbpool.ConnectionPool
}

// New constructs an Executor backed by pool.
func New(pool *dbpool.ConnectionPool) *Executor {
	return &Executor{pool: pool}
}

// withConn runs fn against conn if given, otherwise borrows a
// temporary connection from the pool for the duration of fn.
func (ex *Executor) withConn(ctx context.Context, conn *sql.DB, fn func(*sql.DB) error) error {
	if conn != nil {
		return fn(conn)
	}
	return ex.pool.Borrow(ctx, fn)
}

func driverArgs(values []qv.Value) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v.Arg()
	}
	return args
}

func buildLimitOffset(limit, offset *int) string {
	if limit == nil && offset == nil {
		return ""
	}
	s := ""
	if limit != nil {
		s += fmt.Sprintf(" LIMIT %d", *limit)
	}
	if offset != nil {
		s += fmt.Sprintf(" OFFSET %d", *offset)
	}
	return s
}

func tableNames(tables []*qschema.Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

// wrapQueryFailed builds a qerrors.QueryFailed carrying full debug
// context for a driver error surfaced at the executor boundary.
func wrapQueryFailed(err error, sqlText string, tables []*qschema.Table, selection, where, assignment string) error {
	return &qerrors.QueryFailed{
		Context: qerrors.ErrorContext{
			SQL:        sqlText,
			Tables:     tableNames(tables),
			Selection:  selection,
			Where:      where,
			Assignment: assignment,
		},
		Cause: err,
	}
}

func debugOrEmpty(c clause.Clause) string {
	if c == nil {
		return ""
	}
	return clause.Debug(c)
}
