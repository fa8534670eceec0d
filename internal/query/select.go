package query

import (
	"context"
	"database/sql"

	"smf/internal/clause"
	"smf/internal/qerrors"
	"smf/internal/qschema"
	"smf/internal/qv"
)

// SelectSpec groups a select operation's shared arguments so the
// convenience variants below can build on top of Select without
// repeating its parameter list.
type SelectSpec struct {
	Selection clause.Selection
	From      *qschema.Table
	Joins     clause.JoinList
	// Tables lists every table the result set's columns may belong to
	// (From plus every joined table), used to match result-set columns
	// back to known schema columns.
	Tables []*qschema.Table
	Where  clause.Clause
	Order  clause.OrderBy
	Limit  *int
	Offset *int
}

// buildSelect emits spec's SQL text and ordered bound values without
// touching a connection, so its output can be checked directly against
// spec.md's worked scenarios.
func buildSelect(spec SelectSpec) (sqlText string, values []qv.Value, selSQL string, err error) {
	selSQL, err = spec.Selection.ToSQL()
	if err != nil {
		return "", nil, "", err
	}
	joinSQL, err := spec.Joins.ToSQL()
	if err != nil {
		return "", nil, "", err
	}
	whereSQL, err := clause.ToWhereClause(spec.Where)
	if err != nil {
		return "", nil, "", err
	}
	orderSQL, err := spec.Order.ToSQL()
	if err != nil {
		return "", nil, "", err
	}

	sqlText = selSQL + " FROM " + spec.From.Name + joinSQL + whereSQL + orderSQL + buildLimitOffset(spec.Limit, spec.Offset)
	values = append(append([]qv.Value{}, spec.Joins.Values()...), clause.WhereValues(spec.Where)...)
	return sqlText, values, selSQL, nil
}

// Select emits the query, binds join and where values in that order,
// executes it, and materialises the result set into Rows, matching
// each returned column to a known column by database name.
func (ex *Executor) Select(ctx context.Context, spec SelectSpec, conn *sql.DB) ([]Row, error) {
	fullSQL, values, selSQL, err := buildSelect(spec)
	if err != nil {
		return nil, err
	}
	args := driverArgs(values)

	var rows []Row
	err = ex.withConn(ctx, conn, func(db *sql.DB) error {
		sqlRows, queryErr := db.QueryContext(ctx, fullSQL, args...)
		if queryErr != nil {
			return wrapQueryFailed(queryErr, fullSQL, spec.Tables, selSQL, debugOrEmpty(spec.Where), "")
		}
		defer sqlRows.Close()

		materialised, matErr := materialiseRows(ctx, sqlRows, spec.Tables, db)
		if matErr != nil {
			return wrapQueryFailed(matErr, fullSQL, spec.Tables, selSQL, debugOrEmpty(spec.Where), "")
		}
		rows = materialised
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SelectSingle runs spec with Limit pinned to 1 and returns the first
// row, or nil if no row matched.
func (ex *Executor) SelectSingle(ctx context.Context, spec SelectSpec, conn *sql.DB) (*Row, error) {
	one := 1
	spec.Limit = &one
	rows, err := ex.Select(ctx, spec, conn)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// SelectSingleValue returns a single logical-name column from a single
// matching row, or nil if no row matched.
func (ex *Executor) SelectSingleValue(ctx context.Context, spec SelectSpec, logicalColumn string, conn *sql.DB) (*qv.Value, error) {
	row, err := ex.SelectSingle(ctx, spec, conn)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	cell, ok := row.ByLogicalName(logicalColumn)
	if !ok {
		return nil, &qerrors.SchemaError{Kind: qerrors.NoSuchColumn, Detail: "select_single_value: no such logical column " + logicalColumn}
	}
	return &cell.Value, nil
}

// SelectIndex returns the single row of from whose primary column
// equals primaryValue, or nil if none matched.
func (ex *Executor) SelectIndex(ctx context.Context, from *qschema.Table, primaryValue qv.Value, conn *sql.DB) (*Row, error) {
	primary, err := ex.primaryColumn(ctx, from, conn)
	if err != nil {
		return nil, err
	}
	where := clause.Comparison{Left: clause.Col(from.Ref(primary)), Op: clause.EQ, Right: clause.Val(primaryValue)}
	return ex.SelectSingle(ctx, SelectSpec{
		Selection: clause.All(),
		From:      from,
		Tables:    []*qschema.Table{from},
		Where:     where,
	}, conn)
}

// IndicesWhere returns the primary-column values of every row of from
// matching where.
func (ex *Executor) IndicesWhere(ctx context.Context, from *qschema.Table, where clause.Clause, conn *sql.DB) ([]qv.Value, error) {
	primary, err := ex.primaryColumn(ctx, from, conn)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Select(ctx, SelectSpec{
		Selection: clause.Explicit(from.Ref(primary)),
		From:      from,
		Tables:    []*qschema.Table{from},
		Where:     where,
	}, conn)
	if err != nil {
		return nil, err
	}
	values := make([]qv.Value, 0, len(rows))
	for _, row := range rows {
		if cell, ok := row.ByDBName(primary.DBName); ok {
			values = append(values, cell.Value)
		}
	}
	return values, nil
}

// RowExists reports whether any row of from (optionally joined)
// matches where, without materialising column values.
func (ex *Executor) RowExists(ctx context.Context, from *qschema.Table, joins clause.JoinList, where clause.Clause, conn *sql.DB) (bool, error) {
	one := 1
	rows, err := ex.Select(ctx, SelectSpec{
		Selection: clause.None(),
		From:      from,
		Joins:     joins,
		Tables:    []*qschema.Table{from},
		Where:     where,
		Limit:     &one,
	}, conn)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (ex *Executor) primaryColumn(ctx context.Context, from *qschema.Table, conn *sql.DB) (*qschema.Column, error) {
	if conn != nil {
		return from.PrimaryColumn(ctx, conn)
	}
	var col *qschema.Column
	err := ex.pool.Borrow(ctx, func(db *sql.DB) error {
		c, err := from.PrimaryColumn(ctx, db)
		if err != nil {
			return err
		}
		col = c
		return nil
	})
	return col, err
}
