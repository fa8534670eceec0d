package query

import (
	"context"
	"database/sql"
	"strings"

	"smf/internal/qschema"
	"smf/internal/qv"
)

// Cell is one {column, value} pair of a materialised row, matching the
// spec's row format: consumers index either by position or by logical
// name.
type Cell struct {
	Column  string
	Logical string
	Value   qv.Value
}

// Row is an ordered list of cells for the columns a query actually
// returned.
type Row []Cell

// ByDBName returns the cell for the given database column name
// (case-insensitive), or false if absent.
func (r Row) ByDBName(name string) (Cell, bool) {
	for _, c := range r {
		if strings.EqualFold(c.Column, name) {
			return c, true
		}
	}
	return Cell{}, false
}

// ByLogicalName returns the cell for the given logical column name
// (case-insensitive), or false if absent.
func (r Row) ByLogicalName(name string) (Cell, bool) {
	for _, c := range r {
		if strings.EqualFold(c.Logical, name) {
			return c, true
		}
	}
	return Cell{}, false
}

// materialiseRows reads every row of an open *sql.Rows into Row
// values, matching each result column to a known column (by
// database-name, case-insensitive) across from and joined, the
// go-sql-driver/mysql result set carrying no table qualifier per
// column — so the "table-qualified, falling back to name-only" match
// spec.md §4.F describes always takes the name-only path for this
// driver.
func materialiseRows(ctx context.Context, rows *sql.Rows, tables []*qschema.Table, db *sql.DB) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	matched := make([]*qschema.Column, len(cols))
	for i, name := range cols {
		for _, t := range tables {
			if c, err := t.FindColumnByDBName(ctx, db, name); err == nil {
				matched[i] = c
				break
			}
		}
	}

	var out []Row
	for rows.Next() {
		scanDest := make([]any, len(cols))
		raw := make([]any, len(cols))
		for i := range scanDest {
			scanDest[i] = &raw[i]
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, err
		}

		row := make(Row, len(cols))
		for i, name := range cols {
			if c := matched[i]; c != nil {
				v, err := qv.FromDriver(c.Datatype, raw[i])
				if err != nil {
					return nil, err
				}
				row[i] = Cell{Column: c.DBName, Logical: c.LogicalName, Value: v}
				continue
			}
			row[i] = Cell{Column: name, Logical: name, Value: qv.GuessFromDriver(raw[i])}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
