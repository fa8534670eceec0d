package clause

import (
	"strings"

	"smf/internal/qv"
)

// OrderByEntry orders by one column; Ascending defaults to true when
// constructed via Asc.
type OrderByEntry struct {
	Column    ColumnRef
	Ascending bool
}

// Asc builds an ascending OrderByEntry.
func Asc(c ColumnRef) OrderByEntry { return OrderByEntry{Column: c, Ascending: true} }

// Desc builds a descending OrderByEntry.
func Desc(c ColumnRef) OrderByEntry { return OrderByEntry{Column: c, Ascending: false} }

// OrderBy is an ordered list of {column, ascending} entries. An empty
// list means "no ORDER BY emitted".
type OrderBy struct {
	Entries []OrderByEntry
}

var _ Clause = OrderBy{}

func (o OrderBy) ToSQL() (string, error) {
	if len(o.Entries) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(o.Entries))
	for _, e := range o.Entries {
		dir := "ASC"
		if !e.Ascending {
			dir = "DESC"
		}
		parts = append(parts, e.Column.Qualified()+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func (o OrderBy) Values() []qv.Value { return nil }
