// Package clause implements the clause algebra: Condition, Selection,
// OrderBy, Join, and ValueAssignment. Every clause emits a parameterised
// SQL fragment and the ordered list of values bound to its placeholders;
// the central invariant, enforced by every variant below, is that
// len(Values()) equals the number of '?' placeholders in ToSQL()'s
// output.
package clause

import (
	"smf/internal/qv"
)

// Clause is the shared contract every clause variant implements.
type Clause interface {
	// ToSQL emits a fragment containing zero or more '?' placeholders.
	ToSQL() (string, error)
	// Values returns exactly as many values as there are placeholders
	// in ToSQL's output, in left-to-right order.
	Values() []qv.Value
}

// ColumnRef identifies a qualified column for use on either side of a
// comparison-shaped condition, or as a selection/join/order-by target.
// It is a thin reference, not qschema.Column itself, so that clause
// does not depend on qschema (avoiding an import cycle: qschema's
// reference reader builds Join conditions out of clause values).
type ColumnRef struct {
	Table    string
	Column   string
	Datatype qv.Datatype
}

// Qualified renders "table.column".
func (c ColumnRef) Qualified() string {
	return c.Table + "." + c.Column
}

// Operand is either a ColumnRef or a qv.Value; exactly one of the two
// fields is meaningful, selected by IsColumn.
type Operand struct {
	col      ColumnRef
	val      qv.Value
	isColumn bool
}

// Col wraps a ColumnRef as an Operand.
func Col(c ColumnRef) Operand { return Operand{col: c, isColumn: true} }

// Val wraps a qv.Value as an Operand.
func Val(v qv.Value) Operand { return Operand{val: v} }

// IsColumn reports whether the operand is a column reference.
func (o Operand) IsColumn() bool { return o.isColumn }

// Column returns the wrapped ColumnRef; meaningless unless IsColumn.
func (o Operand) Column() ColumnRef { return o.col }

// Value returns the wrapped qv.Value; meaningless if IsColumn.
func (o Operand) Value() qv.Value { return o.val }

// datatypeHint returns the operand's declared datatype when it is a
// column, used to cast the opposite side's bound value.
func (o Operand) datatypeHint() (qv.Datatype, bool) {
	if o.isColumn {
		return o.col.Datatype, true
	}
	return 0, false
}

// renderOperand emits the operand's SQL token ("?" for a value, the
// qualified column name for a column) and, when it is a value, casts it
// to castTo (when known) and appends it to values.
func renderOperand(o Operand, castTo qv.Datatype, haveCastTo bool, values *[]qv.Value) (string, error) {
	if o.isColumn {
		return o.col.Qualified(), nil
	}
	v := o.val
	if haveCastTo {
		casted, err := v.CastTo(castTo)
		if err != nil {
			return "", err
		}
		v = casted
	}
	*values = append(*values, v)
	return "?", nil
}
