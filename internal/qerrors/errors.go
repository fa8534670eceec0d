// Package qerrors implements the error taxonomy and debug rendering for
// the query/runtime layer: every operation-fatal error carries a short
// classification, and QueryFailed also carries an ErrorContext whose
// DebugString mirrors the attempted SQL. The other kinds carry no
// ErrorContext and render as a single "<Kind>: '<cause>'" line. This
// follows the teacher's PreflightResult/Warning classification idiom
// (internal/apply) generalised to executor errors.
package qerrors

import (
	"fmt"
	"strings"
)

// ErrorContext carries everything needed to render a forensic debug
// string for an executor-raised error: the attempted SQL, the table(s)
// involved, the selection, where-clause, and value-assignment
// descriptions. DebugString is a pure function over this struct, per
// the redesign note on "exception-carrying-debug-string" (spec §9).
type ErrorContext struct {
	SQL        string
	Tables     []string
	Selection  string
	Where      string
	Assignment string
}

// DebugString renders a multi-line forensic description of the
// attempted operation.
func (c ErrorContext) DebugString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SQL: %s\n", orDash(c.SQL))
	fmt.Fprintf(&sb, "Tables: %s\n", orDash(strings.Join(c.Tables, ", ")))
	fmt.Fprintf(&sb, "Selection: %s\n", orDash(c.Selection))
	fmt.Fprintf(&sb, "Where: %s\n", orDash(c.Where))
	fmt.Fprintf(&sb, "Assignment: %s", orDash(c.Assignment))
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ClauseParseError reports that a clause could not be serialised to SQL
// (null column, null probe on a non-EQ operator, XOR arity != 2, empty
// Combined, etc).
type ClauseParseError struct {
	Reason string
}

func (e *ClauseParseError) Error() string {
	return fmt.Sprintf("ClauseParseError: '%s'", e.Reason)
}

// NullInOperator is a ClauseParseError specialisation: an operator
// other than EQ was given a null operand.
func NullInOperator(op string) error {
	return &ClauseParseError{Reason: fmt.Sprintf("operator %s does not tolerate a null operand", op)}
}

// NameMappingError wraps a namemap resolution failure as a classified,
// almost-always-programmer error.
type NameMappingError struct {
	Cause error
}

func (e *NameMappingError) Error() string {
	return fmt.Sprintf("NameMappingError: '%v'", e.Cause)
}

func (e *NameMappingError) Unwrap() error { return e.Cause }

// SchemaError covers schema-reflection failures discovered while
// building or executing a query: unknown column, missing primary key,
// or an absent table reference.
type SchemaError struct {
	Kind   SchemaErrorKind
	Detail string
}

type SchemaErrorKind int

const (
	NoSuchColumn SchemaErrorKind = iota
	NoPrimaryColumn
	NoSuchReferenceBetween
)

func (e *SchemaError) Error() string {
	return fmt.Sprintf("SchemaError: '%s'", e.Detail)
}

// ValueBindFailed reports that a value could not be cast to any
// SQL-compatible datatype, or that the driver rejected the bound
// assignment.
type ValueBindFailed struct {
	PlaceholderIndex int
	ClauseSQL        string
	ValueDescription string
	Cause            error
}

func (e *ValueBindFailed) Error() string {
	return fmt.Sprintf("ValueBindFailed: 'placeholder %d in %q: value %s: %v'",
		e.PlaceholderIndex, e.ClauseSQL, e.ValueDescription, e.Cause)
}

func (e *ValueBindFailed) Unwrap() error { return e.Cause }

// DatabaseUnavailable reports that opening or validating a connection
// failed. Retry is the caller's decision; inside the pool, the
// affected entry is discarded.
type DatabaseUnavailable struct {
	Cause error
}

func (e *DatabaseUnavailable) Error() string {
	return fmt.Sprintf("DatabaseUnavailable: '%v'", e.Cause)
}

func (e *DatabaseUnavailable) Unwrap() error { return e.Cause }

// QueryFailed reports that the driver returned a SQL error during
// execution. It carries the emitted SQL and full debug context.
type QueryFailed struct {
	Context ErrorContext
	Cause   error
}

func (e *QueryFailed) Error() string {
	return fmt.Sprintf("QueryFailed: '%v'\n%s", e.Cause, e.Context.DebugString())
}

func (e *QueryFailed) Unwrap() error { return e.Cause }

// TableInitialisationFailed reports that schema reflection failed at
// column-list or reference-map setup. qschema.Table memoises this
// failure: later calls on the same Table return it again without
// re-querying, so only a new Table reflects the schema again.
type TableInitialisationFailed struct {
	Table string
	Cause error
}

func (e *TableInitialisationFailed) Error() string {
	return fmt.Sprintf("TableInitialisationFailed: '%s: %v'", e.Table, e.Cause)
}

func (e *TableInitialisationFailed) Unwrap() error { return e.Cause }
