package query

import (
	"context"
	"database/sql"

	"smf/internal/clause"
	"smf/internal/qschema"
	"smf/internal/qv"
)

// buildUpdate filters set to table's own columns (dropping
// auto-increment keys) and emits the UPDATE SQL text. ok is false when
// the filtered assignment is empty (property 11: perform no query).
func buildUpdate(table *qschema.Table, joins clause.JoinList, set *clause.ValueAssignment, where clause.Clause) (sqlText string, values []qv.Value, filtered *clause.ValueAssignment, ok bool, err error) {
	filtered = set.FilterToTable(table.Name, true)
	if len(filtered.Entries()) == 0 {
		return "", nil, filtered, false, nil
	}

	joinSQL, err := joins.ToSQL()
	if err != nil {
		return "", nil, filtered, false, err
	}
	setSQL, err := filtered.ToSetClause()
	if err != nil {
		return "", nil, filtered, false, err
	}
	whereSQL, err := clause.ToWhereClause(where)
	if err != nil {
		return "", nil, filtered, false, err
	}

	sqlText = "UPDATE " + table.Name + joinSQL + setSQL + whereSQL
	values = append(append([]qv.Value{}, joins.Values()...), filtered.Values()...)
	values = append(values, clause.WhereValues(where)...)
	return sqlText, values, filtered, true, nil
}

// Update filters set to table's own columns (dropping auto-increment
// keys), and — if anything remains — emits "UPDATE <table> <joins?>
// SET ... <where?>", binding join, set, and where values in that
// order. An empty filtered set performs no query (property 11).
func (ex *Executor) Update(ctx context.Context, table *qschema.Table, joins clause.JoinList, set *clause.ValueAssignment, where clause.Clause, conn *sql.DB) error {
	fullSQL, values, filtered, ok, err := buildUpdate(table, joins, set, where)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	args := driverArgs(values)

	return ex.withConn(ctx, conn, func(db *sql.DB) error {
		if _, execErr := db.ExecContext(ctx, fullSQL, args...); execErr != nil {
			return wrapQueryFailed(execErr, fullSQL, []*qschema.Table{table}, "", debugOrEmpty(where), debugAssignment(filtered))
		}
		return nil
	})
}
