package clause

import (
	"strings"

	"smf/internal/qerrors"
	"smf/internal/qv"
)

// AssignmentTarget is the subset of a schema Column that ValueAssignment
// needs: enough to filter by owning table, drop auto-increment primary
// columns, and check "required in insert" without clause depending on
// package qschema (which in turn builds Joins out of clause values).
type AssignmentTarget struct {
	Table         string
	Column        string
	Datatype      qv.Datatype
	AutoIncrement bool
	Required      bool // required to be present for an INSERT (NOT NULL, no default)
}

// AssignmentEntry pairs a target column with its source: either a bound
// Value or another column (UPDATE ... SET a = b).
type AssignmentEntry struct {
	Target AssignmentTarget
	Source Operand // Val(...) or Col(...)
}

// ValueAssignment is an ordered list of assignment entries plus a
// drop_nulls flag. When DropNulls is set, entries with a null Value
// source are silently omitted at append time (Append), not at
// emission.
type ValueAssignment struct {
	entries   []AssignmentEntry
	dropNulls bool
}

// NewValueAssignment constructs an empty assignment; dropNulls mirrors
// the spec's drop_nulls flag.
func NewValueAssignment(dropNulls bool) *ValueAssignment {
	return &ValueAssignment{dropNulls: dropNulls}
}

// Append adds target = source to the assignment, preserving insertion
// order. When DropNulls is set and source is a null Value, the entry
// is silently omitted.
func (a *ValueAssignment) Append(target AssignmentTarget, source Operand) {
	if a.dropNulls && !source.IsColumn() && source.Value().IsNull() {
		return
	}
	a.entries = append(a.entries, AssignmentEntry{Target: target, Source: source})
}

// Entries returns the ordered list of assignment entries.
func (a *ValueAssignment) Entries() []AssignmentEntry { return append([]AssignmentEntry{}, a.entries...) }

// FilterToTable retains only entries whose target column is owned by
// table. When dropAutoIncrement is true, entries targeting an
// auto-increment column are also dropped (used for INSERT, which must
// let the server generate the key).
func (a *ValueAssignment) FilterToTable(table string, dropAutoIncrement bool) *ValueAssignment {
	return a.FilterToTables([]string{table}, dropAutoIncrement)
}

// FilterToTables retains only entries whose target column's owning
// table is in tables.
func (a *ValueAssignment) FilterToTables(tables []string, dropAutoIncrement bool) *ValueAssignment {
	set := map[string]bool{}
	for _, t := range tables {
		set[t] = true
	}
	out := &ValueAssignment{dropNulls: a.dropNulls}
	for _, e := range a.entries {
		if !set[e.Target.Table] {
			continue
		}
		if dropAutoIncrement && e.Target.AutoIncrement {
			continue
		}
		out.entries = append(out.entries, e)
	}
	return out
}

// ContainsRequiredColumns checks that every column of table marked
// Required has a non-null assignment present.
func (a *ValueAssignment) ContainsRequiredColumns(table string, required []AssignmentTarget) bool {
	present := map[string]bool{}
	for _, e := range a.entries {
		if e.Target.Table != table {
			continue
		}
		if !e.Source.IsColumn() && e.Source.Value().IsNull() {
			continue
		}
		present[e.Target.Column] = true
	}
	for _, r := range required {
		if !present[r.Column] {
			return false
		}
	}
	return true
}

// ToSetClause emits " SET a=?, b=source_col, ...", preserving insertion
// order. Per MySQL's SET-clause grammar, the left side of each
// assignment is the bare column name (no table qualifier).
func (a *ValueAssignment) ToSetClause() (string, error) {
	if len(a.entries) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		var rhs string
		if e.Source.IsColumn() {
			rhs = e.Source.Column().Qualified()
		} else {
			rhs = "?"
		}
		parts = append(parts, e.Target.Column+"="+rhs)
	}
	return " SET " + strings.Join(parts, ", "), nil
}

// ToInsertClause emits "INSERT INTO <t> (a, b, ...) VALUES (?, ?, ...)".
// Every required column of table must be present; otherwise a
// *qerrors.ClauseParseError is returned (there is no distinct
// incomplete-insert error type).
func (a *ValueAssignment) ToInsertClause(table string, required []AssignmentTarget) (string, error) {
	if !a.ContainsRequiredColumns(table, required) {
		return "", &qerrors.ClauseParseError{Reason: "insert is missing a required column for table " + table}
	}
	cols := make([]string, 0, len(a.entries))
	placeholders := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		cols = append(cols, e.Target.Column)
		if e.Source.IsColumn() {
			placeholders = append(placeholders, e.Source.Column().Qualified())
		} else {
			placeholders = append(placeholders, "?")
		}
	}
	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")", nil
}

// Values returns the ordered list of bound values (column sources
// contribute none), matching emission order for either ToSetClause or
// ToInsertClause.
func (a *ValueAssignment) Values() []qv.Value {
	var values []qv.Value
	for _, e := range a.entries {
		if e.Source.IsColumn() {
			continue
		}
		v := e.Source.Value()
		if casted, err := v.CastTo(e.Target.Datatype); err == nil {
			v = casted
		}
		values = append(values, v)
	}
	return values
}
