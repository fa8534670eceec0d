package query

import (
	"context"
	"database/sql"
	"strings"

	"smf/internal/clause"
	"smf/internal/qschema"
	"smf/internal/qv"
)

func buildDelete(from *qschema.Table, joins clause.JoinList, joinedTableNames []string, where clause.Clause, deleteFromJoined bool) (sqlText string, values []qv.Value, err error) {
	joinSQL, err := joins.ToSQL()
	if err != nil {
		return "", nil, err
	}
	whereSQL, err := clause.ToWhereClause(where)
	if err != nil {
		return "", nil, err
	}

	targets := from.Name
	if deleteFromJoined && len(joinedTableNames) > 0 {
		targets += ", " + strings.Join(joinedTableNames, ", ")
	}

	sqlText = "DELETE " + targets + " FROM " + from.Name + joinSQL + whereSQL
	values = append(append([]qv.Value{}, joins.Values()...), clause.WhereValues(where)...)
	return sqlText, values, nil
}

// Delete emits "DELETE <from>[, joined-if-deleteFromJoined] FROM
// <from> <joins?> <where?>", binding join and where values in that
// order.
func (ex *Executor) Delete(ctx context.Context, from *qschema.Table, joins clause.JoinList, joinedTableNames []string, where clause.Clause, deleteFromJoined bool, conn *sql.DB) error {
	fullSQL, values, err := buildDelete(from, joins, joinedTableNames, where, deleteFromJoined)
	if err != nil {
		return err
	}
	args := driverArgs(values)

	return ex.withConn(ctx, conn, func(db *sql.DB) error {
		if _, execErr := db.ExecContext(ctx, fullSQL, args...); execErr != nil {
			return wrapQueryFailed(execErr, fullSQL, []*qschema.Table{from}, "", debugOrEmpty(where), "")
		}
		return nil
	})
}
