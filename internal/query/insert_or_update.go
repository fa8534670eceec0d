package query

import (
	"context"
	"database/sql"

	"smf/internal/clause"
	"smf/internal/qschema"
)

// Model describes a single row to be inserted or updated:
// ExistenceCheck identifies the row (by primary key or a unique
// combination of columns), and Assignment carries the column values to
// write.
type Model interface {
	Table() *qschema.Table
	Assignment() *clause.ValueAssignment
	ExistenceCheck() clause.Clause
}

// InsertOrUpdate checks existence by the model's ExistenceCheck clause
// and, on the same connection, either updates the matching row or
// inserts a new one.
func (ex *Executor) InsertOrUpdate(ctx context.Context, model Model, conn *sql.DB) (*int64, error) {
	var generatedKey *int64

	err := ex.withConn(ctx, conn, func(db *sql.DB) error {
		table := model.Table()
		exists, err := ex.RowExists(ctx, table, nil, model.ExistenceCheck(), db)
		if err != nil {
			return err
		}
		if exists {
			return ex.Update(ctx, table, nil, model.Assignment(), model.ExistenceCheck(), db)
		}
		key, err := ex.Insert(ctx, model.Assignment(), table, db)
		if err != nil {
			return err
		}
		generatedKey = key
		return nil
	})
	if err != nil {
		return nil, err
	}
	return generatedKey, nil
}
