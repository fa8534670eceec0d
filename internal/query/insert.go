package query

import (
	"context"
	"database/sql"

	"smf/internal/clause"
	"smf/internal/qschema"
)

// Insert filters assignment to into's own columns (dropping
// auto-increment keys), checks that every required column is present,
// emits the INSERT, binds values, and — when into auto-increments its
// primary column — returns the generated key.
func (ex *Executor) Insert(ctx context.Context, assignment *clause.ValueAssignment, into *qschema.Table, conn *sql.DB) (*int64, error) {
	var generatedKey *int64

	err := ex.withConn(ctx, conn, func(db *sql.DB) error {
		cols, err := into.Columns(ctx, db)
		if err != nil {
			return err
		}
		required, err := into.RequiredAssignmentTargets(ctx, db)
		if err != nil {
			return err
		}

		filtered := assignment.FilterToTable(into.Name, true)
		insertSQL, err := filtered.ToInsertClause(into.Name, required)
		if err != nil {
			return err
		}
		args := driverArgs(filtered.Values())

		result, execErr := db.ExecContext(ctx, insertSQL, args...)
		if execErr != nil {
			return wrapQueryFailed(execErr, insertSQL, []*qschema.Table{into}, "", "", debugAssignment(filtered))
		}

		autoIncrements := false
		for _, c := range cols {
			if c.AutoIncrement {
				autoIncrements = true
				break
			}
		}
		if !autoIncrements {
			return nil
		}
		id, idErr := result.LastInsertId()
		if idErr != nil {
			return nil
		}
		generatedKey = &id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return generatedKey, nil
}

func debugAssignment(a *clause.ValueAssignment) string {
	parts := ""
	for i, e := range a.Entries() {
		if i > 0 {
			parts += ", "
		}
		if e.Source.IsColumn() {
			parts += e.Target.Column + "=" + e.Source.Column().Qualified()
		} else {
			parts += e.Target.Column + "=" + e.Source.Value().Describe()
		}
	}
	return parts
}
